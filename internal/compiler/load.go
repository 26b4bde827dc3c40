package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/crpq/internal/ontology"
)

// OWLExtensions are the file extensions read as RDF/XML.
var OWLExtensions = []string{".owl", ".rdf", ".xml"}

// LoadPath loads every ontology found at path.
//
// A directory is loaded as one CUE package; a .cue file on its own. RDF/XML
// files (see OWLExtensions) yield a single spec without queries.
func LoadPath(path string) ([]*Spec, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() && IsOWLFile(path) {
		o, err := ontology.LoadOWLFile(path)
		if err != nil {
			return nil, err
		}
		return []*Spec{{Ontology: o}}, nil
	}

	cfg := &load.Config{}
	args := []string{"."}
	if info.IsDir() {
		files, err := FindCUEFiles(path)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", path, err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no CUE files found in %s", path)
		}
		cfg.Dir = path
	} else {
		if filepath.Ext(path) != ".cue" {
			return nil, fmt.Errorf("unsupported ontology file %s", path)
		}
		cfg.Dir = filepath.Dir(path)
		args = []string{filepath.Base(path)}
	}

	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", path)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileAll(value)
}

// LoadOntology loads the ontology named name from path. An empty name
// selects the only ontology, and is an error when there are several.
func LoadOntology(path, name string) (*Spec, error) {
	specs, err := LoadPath(path)
	if err != nil {
		return nil, err
	}
	return SelectSpec(specs, name)
}

// SelectSpec picks the spec whose ontology is called name.
func SelectSpec(specs []*Spec, name string) (*Spec, error) {
	if name == "" {
		if len(specs) != 1 {
			names := make([]string, len(specs))
			for i, s := range specs {
				names[i] = s.Ontology.Name
			}
			return nil, fmt.Errorf("%d ontologies declared (%s); choose one by name", len(specs), strings.Join(names, ", "))
		}
		return specs[0], nil
	}
	for _, s := range specs {
		if s.Ontology.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("ontology %q not found", name)
}

// IsOWLFile reports whether path has an RDF/XML extension.
func IsOWLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range OWLExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
