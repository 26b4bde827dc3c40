package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/crpq/internal/ontology"
)

func testSignature() *ontology.Ontology {
	o := ontology.New("sig")
	o.DeclareClass("A")
	o.DeclareProperty("r")
	o.DeclareProperty("s")
	return o
}

func TestValidate(t *testing.T) {
	x, y := Var("x"), Var("y")

	tests := []struct {
		name     string
		query    Query
		errors   []string
		warnings []string
	}{
		{
			name:  "valid query",
			query: NewQuery([]Term{x}, Concept(x, "A"), Role(x, y, "r"), Path(y, Anon("v1"), "s")),
		},
		{
			name:   "empty body",
			query:  NewQuery([]Term{x}),
			errors: []string{"query body is empty"},
			warnings: []string{
				"answer variable x does not occur in the body",
			},
		},
		{
			name:   "unbound head term",
			query:  NewQuery([]Term{Anon("x")}, Role(x, y, "r")),
			errors: []string{"answer variable 1 is unbound"},
		},
		{
			name:     "head variable missing from body",
			query:    NewQuery([]Term{y}, Concept(x, "A")),
			warnings: []string{"answer variable y does not occur in the body"},
		},
		{
			name:     "repeated head variable",
			query:    NewQuery([]Term{x, x}, Concept(x, "A")),
			warnings: []string{"answer variable x is repeated in the head"},
		},
		{
			name:     "undeclared concept",
			query:    NewQuery(nil, Concept(x, "Unknown")),
			warnings: []string{"concept Unknown is not declared in the ontology"},
		},
		{
			name:   "undeclared role",
			query:  NewQuery(nil, Role(x, y, "r", "t-")),
			errors: []string{"role t is not declared in the ontology"},
		},
		{
			name:  "inverse role in path",
			query: NewQuery(nil, PathAtom{Roles: Roles("r-"), Left: x, Right: y}),
			errors: []string{
				"path atom r-*(x,y) uses an inverse role",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.query, testSignature())
			assert.Equal(t, tt.errors, got.Errors)
			assert.Equal(t, tt.warnings, got.Warnings)
			assert.Equal(t, len(tt.errors) == 0, got.OK())
		})
	}
}

func TestValidate_NilSignatureSkipsNames(t *testing.T) {
	q := NewQuery(nil, Concept(Var("x"), "Unknown"), Role(Var("x"), Var("y"), "missing"))

	got := Validate(q, nil)

	assert.True(t, got.OK())
	assert.Empty(t, got.Warnings)
}
