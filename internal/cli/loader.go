package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/crpq/internal/compiler"
	"github.com/roach88/crpq/internal/parser"
	"github.com/roach88/crpq/internal/queryir"
)

// Error codes for CLI responses.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeUsage        = "E002" // Conflicting or missing flags
	ErrCodeNoFiles      = "E003" // No CUE files found
	ErrCodeLoadFailed   = "E004" // Ontology load or compile failed
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeParseFailed  = "E006" // Query text does not parse
	ErrCodeWriteFailed  = "E007" // File or database write error
	ErrCodeRewrite      = "E008" // Rewriting failed (non-convergence, cancellation)
	ErrCodeDatabase     = "E009" // Export database read error
	ErrCodeCypherNotice = "E120" // Translator warning on a declared query
)

// LoadError represents an error that occurred while loading command inputs.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// InputOptions are the flags naming an ontology and a query, shared by
// rewrite and translate.
type InputOptions struct {
	Ontology     string
	OntologyName string
	Query        string
	QueryFile    string
	QueryName    string
	Answers      []string

	answersSet bool
}

func (o *InputOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Ontology, "ontology", "", "ontology file or CUE package directory (required)")
	_ = cmd.MarkFlagRequired("ontology")
	cmd.Flags().StringVar(&o.OntologyName, "ontology-name", "", "ontology to use when the file declares several")
	cmd.Flags().StringVarP(&o.Query, "query", "q", "", "query text, e.g. \"q(x) :- teaches(x,y), Course(y)\"")
	cmd.Flags().StringVar(&o.QueryFile, "query-file", "", "file holding the query text")
	cmd.Flags().StringVar(&o.QueryName, "query-name", "", "query declared next to the ontology in CUE")
	cmd.Flags().StringSliceVar(&o.Answers, "answers", nil, "answer names for the Cypher return clause (default: head variables)")
}

// resolve records flag state that cobra only knows after parsing.
func (o *InputOptions) resolve(cmd *cobra.Command) {
	o.answersSet = cmd.Flags().Changed("answers")
}

// watchedFiles returns the files whose change invalidates the inputs.
func (o *InputOptions) watchedFiles() []string {
	files := []string{o.Ontology}
	if o.QueryFile != "" {
		files = append(files, o.QueryFile)
	}
	return files
}

// Inputs is a loaded ontology and the query to rewrite over it.
type Inputs struct {
	Spec    *compiler.Spec
	Query   queryir.Query
	Answers []queryir.Term
}

// LoadInputs loads the ontology and parses the query named by opts.
// The ontology is loaded fresh on every call: parsing declares unknown
// concept names on it.
func LoadInputs(opts *InputOptions) (*Inputs, error) {
	sources := 0
	for _, s := range []string{opts.Query, opts.QueryFile, opts.QueryName} {
		if s != "" {
			sources++
		}
	}
	if sources != 1 {
		return nil, &LoadError{Code: ErrCodeUsage, Message: "exactly one of --query, --query-file and --query-name is required"}
	}

	spec, err := LoadOntologySpec(opts.Ontology, opts.OntologyName)
	if err != nil {
		return nil, err
	}

	q, err := inputQuery(opts, spec)
	if err != nil {
		return nil, err
	}

	answers := q.Head
	if opts.answersSet {
		answers = make([]queryir.Term, 0, len(opts.Answers))
		for _, name := range opts.Answers {
			if name = strings.TrimSpace(name); name != "" {
				answers = append(answers, queryir.Var(name))
			}
		}
	}

	return &Inputs{Spec: spec, Query: q, Answers: answers}, nil
}

func inputQuery(opts *InputOptions, spec *compiler.Spec) (queryir.Query, error) {
	if opts.QueryName != "" {
		for _, nq := range spec.Queries {
			if nq.Name == opts.QueryName {
				return nq.Query, nil
			}
		}
		return queryir.Query{}, &LoadError{
			Code:    ErrCodeNotFound,
			Message: fmt.Sprintf("query %q not declared in ontology %s", opts.QueryName, spec.Ontology.Name),
		}
	}

	text := opts.Query
	if opts.QueryFile != "" {
		data, err := os.ReadFile(opts.QueryFile)
		if os.IsNotExist(err) {
			return queryir.Query{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("query file not found: %s", opts.QueryFile)}
		}
		if err != nil {
			return queryir.Query{}, &LoadError{Code: ErrCodeGeneric, Message: "reading query file", Err: err}
		}
		text = strings.TrimSpace(string(data))
	}

	q, err := parser.Parse(text, spec.Ontology)
	if err != nil {
		return queryir.Query{}, &LoadError{Code: ErrCodeParseFailed, Message: "invalid query", Err: err}
	}
	return q, nil
}

// LoadOntologySpec loads one ontology, mapping failures to CLI error codes.
func LoadOntologySpec(path, name string) (*compiler.Spec, error) {
	specs, err := LoadOntologySpecs(path)
	if err != nil {
		return nil, err
	}
	spec, err := compiler.SelectSpec(specs, name)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: err.Error()}
	}
	return spec, nil
}

// LoadOntologySpecs loads every ontology found at path.
func LoadOntologySpecs(path string) ([]*compiler.Spec, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("ontology not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing ontology: %v", err)}
	}

	if info.IsDir() {
		files, err := compiler.FindCUEFiles(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "error scanning directory", Err: err}
		}
		if len(files) == 0 {
			return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}
		}
	}

	specs, err := compiler.LoadPath(path)
	if err != nil {
		var cerr *compiler.CompileError
		if errors.As(err, &cerr) {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("compiling %s", filepath.Base(path)), Err: cerr}
		}
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading %s", filepath.Base(path)), Err: err}
	}
	if len(specs) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("no ontologies declared in %s", path)}
	}
	return specs, nil
}

// loadErrorCode returns the CLI code carried by err.
func loadErrorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeGeneric
}

// failLoad reports a LoadError through the formatter and returns the
// matching exit error.
func failLoad(formatter *OutputFormatter, err error) error {
	code := loadErrorCode(err)
	msg := err.Error()
	var le *LoadError
	if errors.As(err, &le) {
		msg = le.Message
		if le.Err != nil {
			msg = fmt.Sprintf("%s: %v", le.Message, le.Err)
		}
	}
	_ = formatter.Error(code, msg, nil)
	return WrapExitError(ExitCommandError, "invalid input", err)
}
