package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes content next to a copy of the university ontology
// and returns the scenario path.
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	src, err := os.ReadFile(filepath.Join("testdata", "ontologies", "university.cue"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "university.cue"), src, 0644))

	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
ontology: university.cue
query: "q(x) :- teaches(x,y)"
answers: [x]
max_steps: 50
workers: 2
assertions:
  - type: query_count
    count: 1
  - type: contains_query
    query: "q(x) :- Professor(x)"
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "university.cue"), scenario.Ontology)
	assert.Equal(t, "q(x) :- teaches(x,y)", scenario.Query)
	assert.Equal(t, []string{"x"}, scenario.Answers)
	assert.Equal(t, 50, scenario.MaxSteps)
	assert.Equal(t, 2, scenario.Workers)
	require.Len(t, scenario.Assertions, 2)
	assert.Equal(t, AssertQueryCount, scenario.Assertions[0].Type)
	assert.Equal(t, 1, scenario.Assertions[0].Count)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "assertion instead of assertions"
ontology: university.cue
query: "q(x) :- teaches(x,y)"
assertion:
  - type: query_count
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: "x"
ontology: university.cue
query: "q(x) :- teaches(x,y)"
golden: true
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `
name: a
ontology: university.cue
query: "q(x) :- teaches(x,y)"
golden: true
`,
			wantErr: "description is required",
		},
		{
			name: "missing ontology",
			content: `
name: a
description: "x"
query: "q(x) :- teaches(x,y)"
golden: true
`,
			wantErr: "ontology is required",
		},
		{
			name: "ontology not found",
			content: `
name: a
description: "x"
ontology: missing.cue
query: "q(x) :- teaches(x,y)"
golden: true
`,
			wantErr: "ontology file not found",
		},
		{
			name: "no query",
			content: `
name: a
description: "x"
ontology: university.cue
golden: true
`,
			wantErr: "exactly one of query and query_name",
		},
		{
			name: "two queries",
			content: `
name: a
description: "x"
ontology: university.cue
query: "q(x) :- teaches(x,y)"
query_name: teachesCourse
golden: true
`,
			wantErr: "exactly one of query and query_name",
		},
		{
			name: "negative max steps",
			content: `
name: a
description: "x"
ontology: university.cue
query: "q(x) :- teaches(x,y)"
max_steps: -1
golden: true
`,
			wantErr: "max_steps must be non-negative",
		},
		{
			name: "unknown expected error",
			content: `
name: a
description: "x"
ontology: university.cue
query: "q(x) :- teaches(x,y)"
expect_error: timeout
`,
			wantErr: `unknown expect_error "timeout"`,
		},
		{
			name: "nothing to check",
			content: `
name: a
description: "x"
ontology: university.cue
query: "q(x) :- teaches(x,y)"
`,
			wantErr: "assertions list is required",
		},
		{
			name: "unknown assertion",
			content: `
name: a
description: "x"
ontology: university.cue
query: "q(x) :- teaches(x,y)"
assertions:
  - type: trace_contains
`,
			wantErr: `assertions[0]: unknown assertion type "trace_contains"`,
		},
		{
			name: "contains without query",
			content: `
name: a
description: "x"
ontology: university.cue
query: "q(x) :- teaches(x,y)"
assertions:
  - type: contains_query
`,
			wantErr: "query is required for contains_query",
		},
		{
			name: "derived_by without rule",
			content: `
name: a
description: "x"
ontology: university.cue
query: "q(x) :- teaches(x,y)"
assertions:
  - type: query_count
    count: 1
  - type: derived_by
    query: "q(x) :- Professor(x)"
`,
			wantErr: "assertions[1]: query and rule are required",
		},
		{
			name: "final_state without expect",
			content: `
name: a
description: "x"
ontology: university.cue
query: "q(x) :- teaches(x,y)"
assertions:
  - type: final_state
    table: runs
`,
			wantErr: "expect is required for final_state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_Testdata(t *testing.T) {
	files, err := FindScenarios(filepath.Join("testdata", "scenarios"), "")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			_, err := LoadScenario(f)
			require.NoError(t, err)
		})
	}
}

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "c.txt", filepath.Join("sub", "d.yaml")} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("name: x"), 0644))
	}

	files, err := FindScenarios(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "sub", "d.yaml"),
	}, files)

	files, err = FindScenarios(dir, "b*")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b.yaml")}, files)

	files, err = FindScenarios(filepath.Join(dir, "c.txt"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "c.txt")}, files)

	_, err = FindScenarios(filepath.Join(dir, "missing"), "")
	require.Error(t, err)
}
