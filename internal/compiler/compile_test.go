package compiler

import (
	"errors"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crpq/internal/ir"
	"github.com/roach88/crpq/internal/ontology"
	"github.com/roach88/crpq/internal/testutil"
)

const universitySrc = `
ontology: university: {
	classes: ["Student"]
	axioms: [
		{inverseOf: ["teaches", "taughtBy"]},
		{subClassOf: {sub: "Assistant_Prof", sup: "Professor"}},
		{subClassOf: {sub: "Professor", sup: {some: "teaches"}}},
		{domain: {property: "teaches", class: "Professor"}},
		{range: {property: "teaches", class: "Course"}},
	]
	queries: {
		teachesCourse: "q(x) :- teaches(x,y), Course(y)"
	}
}
`

func compileValue(t *testing.T, src, path string) cue.Value {
	t.Helper()
	v := cuecontext.New().CompileString(src, cue.Filename("test.cue"))
	require.NoError(t, v.Err())
	if path == "" {
		return v
	}
	return v.LookupPath(cue.ParsePath(path))
}

func TestCompileOntology_University(t *testing.T) {
	o, err := CompileOntology(compileValue(t, universitySrc, "ontology.university"))
	require.NoError(t, err)

	want := testutil.University()
	assert.Equal(t, "university", o.Name)
	assert.Equal(t, want.Axioms(), o.Axioms())
	assert.Equal(t, want.Classes(), o.Classes())
	assert.Equal(t, want.Properties(), o.Properties())
	assert.Equal(t, ir.MustOntologyHash(want), ir.MustOntologyHash(o))
}

func TestCompileOntology_AxiomKinds(t *testing.T) {
	src := `
ontology: kinds: {
	properties: ["unused"]
	axioms: [
		{equivalentClass: {sub: "A", sup: "B"}},
		{subPropertyOf: {sub: "r-", sup: "s"}},
		{domain: {property: "r-", class: {some: "s"}}},
		{range: {property: "s", class: "A"}},
		{subClassOf: {sub: {some: "t-"}, sup: "B"}},
	]
}
`
	o, err := CompileOntology(compileValue(t, src, "ontology.kinds"))
	require.NoError(t, err)

	r, s, tt := ontology.Prop("r"), ontology.Prop("s"), ontology.Prop("t")
	assert.Equal(t, []ontology.Axiom{
		ontology.SubClassOf{Sub: ontology.Class("A"), Sup: ontology.Class("B")},
		ontology.SubClassOf{Sub: ontology.Class("B"), Sup: ontology.Class("A")},
		ontology.SubPropertyOf{Sub: r.Inv(), Sup: s},
		ontology.Domain{Role: r.Inv(), Class: ontology.Some(s)},
		ontology.Range{Role: s, Class: ontology.Class("A")},
		ontology.SubClassOf{Sub: ontology.Some(tt.Inv()), Sup: ontology.Class("B")},
	}, o.Axioms())
	assert.Equal(t, []string{"r", "s", "t", "unused"}, o.Properties())
}

func TestCompileOntology_QuotedName(t *testing.T) {
	src := `ontology: "lubm-small": { axioms: [] }`
	o, err := CompileOntology(compileValue(t, src, `ontology."lubm-small"`))
	require.NoError(t, err)
	assert.Equal(t, "lubm-small", o.Name)
	assert.Zero(t, o.Len())
}

func TestCompileOntology_Errors(t *testing.T) {
	tests := []struct {
		name    string
		axioms  string
		field   string
		message string
	}{
		{"unknown kind", `[{disjointWith: {sub: "A", sup: "B"}}]`, "axioms[0]", "unknown axiom kind"},
		{"two kinds", `[{subClassOf: {sub: "A", sup: "B"}, range: {property: "r", class: "A"}}]`, "axioms[0]", "exactly one kind"},
		{"missing sup", `[{subClassOf: {sub: "A"}}]`, "axioms[0].subClassOf.sup", "is required"},
		{"class is a number", `[{subClassOf: {sub: "A", sup: 3}}]`, "axioms[0].subClassOf.sup", "class name or {some: role}"},
		{"inverse class", `[{subClassOf: {sub: "A-", sup: "B"}}]`, "axioms[0].subClassOf.sub", "invalid class name"},
		{"missing property", `[{domain: {class: "A"}}]`, "axioms[0].domain.property", "is required"},
		{"empty role", `[{subPropertyOf: {sub: "-", sup: "r"}}]`, "axioms[0].subPropertyOf.sub", "invalid role"},
		{"inverseOf arity", `[{inverseOf: ["p", "q", "r"]}]`, "axioms[0].inverseOf", "two property names"},
		{"inverseOf inverse", `[{inverseOf: ["p", "q-"]}]`, "axioms[0].inverseOf", "inverse role q-"},
		{"second axiom", `[{range: {property: "r", class: "A"}}, {range: {property: "r"}}]`, "axioms[1].range.class", "is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "ontology: bad: { axioms: " + tt.axioms + " }"
			_, err := CompileOntology(compileValue(t, src, "ontology.bad"))
			require.Error(t, err)

			var ce *CompileError
			require.True(t, errors.As(err, &ce), "want *CompileError, got %T", err)
			assert.Equal(t, tt.field, ce.Field)
			assert.Contains(t, ce.Message, tt.message)
		})
	}
}

func TestCompileOntology_ClassesNotAList(t *testing.T) {
	_, err := CompileOntology(compileValue(t, `ontology: bad: { classes: "A" }`, "ontology.bad"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classes: must be a list of names")
}

func TestCompileAll(t *testing.T) {
	src := universitySrc + `
ontology: paths: {
	axioms: [
		{subPropertyOf: {sub: "s", sup: "r"}},
		{subClassOf: {sub: {some: "r"}, sup: {some: "t-"}}},
	]
}
`
	specs, err := CompileAll(compileValue(t, src, ""))
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, "university", specs[0].Ontology.Name)
	require.Len(t, specs[0].Queries, 1)
	assert.Equal(t, "teachesCourse", specs[0].Queries[0].Name)

	assert.Equal(t, "paths", specs[1].Ontology.Name)
	assert.Empty(t, specs[1].Queries)
	assert.Equal(t, testutil.Paths().Axioms(), specs[1].Ontology.Axioms())
}

func TestCompileAll_NoOntology(t *testing.T) {
	_, err := CompileAll(compileValue(t, `other: 1`, ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ontology declared")
}

func TestCompileError_Format(t *testing.T) {
	err := &CompileError{Field: "axioms[0]", Message: "bad"}
	assert.Equal(t, "axioms[0]: bad", err.Error())
}
