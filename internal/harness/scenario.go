package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultRunID names scenario runs that do not set run_id.
const DefaultRunID = "test-run-default"

// Expected error kinds.
const (
	ExpectNonConvergence = "non_convergence"
	ExpectInvalidQuery   = "invalid_query"
)

// Scenario defines a conformance test scenario: one query rewritten over
// one ontology, with assertions on the resulting union.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Ontology is a .cue file, a CUE package directory or an RDF/XML file.
	// Relative paths are resolved against the scenario file location.
	Ontology string `yaml:"ontology"`

	// OntologyName selects one ontology when the file declares several.
	OntologyName string `yaml:"ontology_name,omitempty"`

	// Query is the query text. Exactly one of Query and QueryName is set.
	Query string `yaml:"query,omitempty"`

	// QueryName refers to a query declared next to the ontology in CUE.
	QueryName string `yaml:"query_name,omitempty"`

	// Answers are the names the Cypher return clause projects on.
	// If nil, the head variables of the query are used.
	Answers []string `yaml:"answers,omitempty"`

	// MaxSteps overrides the rewriter's step quota. Zero keeps the default.
	MaxSteps int `yaml:"max_steps,omitempty"`

	// Workers sets how many queries of a frontier are expanded at once.
	Workers int `yaml:"workers,omitempty"`

	// ExpectError names the error the rewriting must fail with:
	// "non_convergence" or "invalid_query".
	ExpectError string `yaml:"expect_error,omitempty"`

	// Golden compares the Cypher output against testdata/golden/{name}.golden.
	Golden bool `yaml:"golden,omitempty"`

	// Assertions validate the rewriting and the exported run.
	// Supported types: query_count, contains_query, excludes_query,
	// query_order, derived_by, cypher_contains, final_state
	Assertions []Assertion `yaml:"assertions"`

	// RunID is an optional fixed run ID.
	// If empty, defaults to "test-run-default" for deterministic golden file comparison.
	RunID string `yaml:"run_id,omitempty"`
}

// Assertion validates the rewriting or the exported run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "query_count": the union has exactly Count queries
	// - "contains_query": the union contains Query (after saturation and tau)
	// - "excludes_query": the union does not contain Query
	// - "query_order": Queries were discovered in the listed order
	// - "derived_by": the derivation of Query used Rule
	// - "cypher_contains": the Cypher output contains Text
	// - "final_state": Query an export table and verify expected values
	Type string `yaml:"type"`

	// Query is a query in the input syntax (contains_query, excludes_query,
	// derived_by).
	Query string `yaml:"query,omitempty"`

	// Queries is the expected discovery order (query_order).
	Queries []string `yaml:"queries,omitempty"`

	// Rule is a transformation name: axiom, unify, concat, merge, drop
	// (derived_by).
	Rule string `yaml:"rule,omitempty"`

	// Text is a Cypher fragment (cypher_contains).
	Text string `yaml:"text,omitempty"`

	// Count is the expected number of queries (query_count).
	Count int `yaml:"count,omitempty"`

	// Table is the export table name (used by final_state).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (used by final_state).
	// All fields must match exactly.
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect contains expected field values (used by final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertQueryCount     = "query_count"
	AssertContainsQuery  = "contains_query"
	AssertExcludesQuery  = "excludes_query"
	AssertQueryOrder     = "query_order"
	AssertDerivedBy      = "derived_by"
	AssertCypherContains = "cypher_contains"
	AssertFinalState     = "final_state"
)

// LoadScenario reads and parses a scenario YAML file, resolving the
// ontology path relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the ontology path relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the ontology path BEFORE validation
	if scenario.Ontology != "" && !filepath.IsAbs(scenario.Ontology) && basePath != "" {
		scenario.Ontology = filepath.Join(basePath, scenario.Ontology)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the scenario files under path, sorted. A file path
// is returned as is. A non-empty filter is a glob matched against the file
// name without its extension.
func FindScenarios(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(filepath.Base(p), ext))
			if err != nil {
				return fmt.Errorf("invalid filter %q: %w", filter, err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Ontology == "" {
		return fmt.Errorf("ontology is required")
	}
	if _, err := os.Stat(s.Ontology); os.IsNotExist(err) {
		return fmt.Errorf("ontology file not found: %s", s.Ontology)
	}

	if (s.Query == "") == (s.QueryName == "") {
		return fmt.Errorf("exactly one of query and query_name is required")
	}

	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative")
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}

	switch s.ExpectError {
	case "", ExpectNonConvergence, ExpectInvalidQuery:
	default:
		return fmt.Errorf("unknown expect_error %q", s.ExpectError)
	}

	if len(s.Assertions) == 0 && s.ExpectError == "" && !s.Golden {
		return fmt.Errorf("assertions list is required unless expect_error or golden is set")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertQueryCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for query_count", index)
		}
	case AssertContainsQuery, AssertExcludesQuery:
		if a.Query == "" {
			return fmt.Errorf("assertions[%d]: query is required for %s", index, a.Type)
		}
	case AssertQueryOrder:
		if len(a.Queries) == 0 {
			return fmt.Errorf("assertions[%d]: queries list is required for query_order", index)
		}
	case AssertDerivedBy:
		if a.Query == "" || a.Rule == "" {
			return fmt.Errorf("assertions[%d]: query and rule are required for derived_by", index)
		}
	case AssertCypherContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for cypher_contains", index)
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
