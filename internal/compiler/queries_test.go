package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crpq/internal/testutil"
)

func TestCompileQueries(t *testing.T) {
	src := `
ontology: university: {
	axioms: [{range: {property: "teaches", class: "Course"}}]
	queries: {
		teachesCourse: "q(x) :- teaches(x,y), Course(y)"
		lecturers:     "q(x) :- Lecturer(x), teaches(x,_)"
	}
}
`
	v := compileValue(t, src, "ontology.university")
	o, err := CompileOntology(v)
	require.NoError(t, err)
	require.False(t, o.HasClass("Lecturer"))

	queries, err := CompileQueries(v, o)
	require.NoError(t, err)
	require.Len(t, queries, 2)

	assert.Equal(t, "teachesCourse", queries[0].Name)
	assert.Equal(t, "q(x) :- teaches(x,y), Course(y)", queries[0].Text)
	assert.Equal(t, testutil.TeachesCourse().Key(), queries[0].Query.Key())
	assert.Empty(t, queries[0].Declared)

	assert.Equal(t, "lecturers", queries[1].Name)
	assert.Equal(t, []string{"Lecturer"}, queries[1].Declared)
	assert.True(t, o.HasClass("Lecturer"))
}

func TestCompileQueries_None(t *testing.T) {
	v := compileValue(t, `ontology: empty: {}`, "ontology.empty")
	o, err := CompileOntology(v)
	require.NoError(t, err)

	queries, err := CompileQueries(v, o)
	require.NoError(t, err)
	assert.Nil(t, queries)
}

func TestCompileQueries_Errors(t *testing.T) {
	tests := []struct {
		name    string
		queries string
		field   string
		message string
	}{
		{"unknown role", `{bad: "q(x) :- supervises(x,y)"}`, "queries.bad", "unknown role supervises"},
		{"not a string", `{bad: 3}`, "queries.bad", "must be a query string"},
		{"not a struct", `"q(x) :- teaches(x,y)"`, "queries", "must be a struct"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := `ontology: u: { axioms: [{range: {property: "teaches", class: "Course"}}], queries: ` + tt.queries + ` }`
			v := compileValue(t, src, "ontology.u")
			o, err := CompileOntology(v)
			require.NoError(t, err)

			_, err = CompileQueries(v, o)
			require.Error(t, err)
			var ce *CompileError
			require.True(t, errors.As(err, &ce), "want *CompileError, got %T", err)
			assert.Equal(t, tt.field, ce.Field)
			assert.Contains(t, ce.Message, tt.message)
		})
	}
}
