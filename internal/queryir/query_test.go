package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuery_DeduplicatesByKey(t *testing.T) {
	x, y := Var("x"), Var("y")

	q := NewQuery([]Term{x},
		Role(x, y, "r"),
		Role(y, x, "r-"),
		Concept(x, "A"),
		Concept(x, "A"),
	)

	require.Len(t, q.Body, 2)
	assert.Equal(t, "q(x):-A(x),r(x,y)", q.Key())
}

func TestQuery_EqualIgnoresBodyOrder(t *testing.T) {
	x, y := Var("x"), Var("y")

	a := NewQuery([]Term{x}, Role(x, y, "r"), Concept(y, "B"))
	b := NewQuery([]Term{x}, Concept(y, "B"), Role(y, x, "r-"))

	assert.True(t, a.Equal(b))
}

func TestQuery_EqualRespectsHeadOrder(t *testing.T) {
	x, y := Var("x"), Var("y")

	a := NewQuery([]Term{x, y}, Role(x, y, "r"))
	b := NewQuery([]Term{y, x}, Role(x, y, "r"))

	assert.False(t, a.Equal(b))
}

func TestQuery_String(t *testing.T) {
	x := Var("x")
	q := NewQuery([]Term{x}, Role(x, Anon("v1"), "r"), Concept(x, "A"))

	assert.Equal(t, "q(x) :- A(x), r(x,_)", q.String())
	assert.False(t, q.IsBoolean())
	assert.True(t, NewQuery(nil, Concept(x, "A")).IsBoolean())
}

func TestTau(t *testing.T) {
	x, y, z := Var("x"), Var("y"), Var("z")

	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{
			name:  "single occurrences become unbound",
			query: NewQuery([]Term{x}, Role(x, y, "r"), Concept(z, "A")),
			want:  "q(x):-A(_),r(x,_)",
		},
		{
			name:  "shared variable stays bound",
			query: NewQuery(nil, Role(x, y, "r"), Role(y, z, "s")),
			want:  "q():-r(_,y),s(y,_)",
		},
		{
			name:  "answer variable stays bound",
			query: NewQuery([]Term{y}, Role(x, y, "r")),
			want:  "q(y):-r(_,y)",
		},
		{
			name:  "repeated position counts twice",
			query: NewQuery(nil, Role(x, x, "r")),
			want:  "q():-r(x,x)",
		},
		{
			name:  "already unbound term is untouched",
			query: NewQuery([]Term{x}, Role(x, Anon("v3"), "r")),
			want:  "q(x):-r(x,_)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tau(tt.query)
			assert.Equal(t, tt.want, got.Key())
			assert.Equal(t, got.Key(), Tau(got).Key(), "tau is idempotent")
		})
	}
}

func TestTau_KeepsUnboundNames(t *testing.T) {
	q := Tau(NewQuery(nil, Role(Var("x"), Var("y"), "r"), Concept(Var("y"), "A")))

	role := q.Body[1].(RoleAtom)
	assert.Equal(t, Anon("x"), role.Left)
	assert.Equal(t, Var("y"), role.Right)
}

func TestTau_RepeatsAfterCollapse(t *testing.T) {
	x := Var("x")
	q := NewQuery(nil, Role(x, Var("y"), "r"), Role(x, Var("z"), "r"))

	// One marking pass leaves r(x,_) twice; the copies collapse and x is
	// left with a single occurrence.
	assert.Equal(t, "q():-r(x,_)", tauOnce(q).Key())

	got := Tau(q)
	assert.Equal(t, "q():-r(_,_)", got.Key())
	assert.Equal(t, got.Key(), Tau(got).Key())
}

func TestTau_AnswerVariableSurvivesCollapse(t *testing.T) {
	x := Var("x")
	q := NewQuery([]Term{x}, Role(x, Var("y"), "r"), Role(x, Var("z"), "r"))

	assert.Equal(t, "q(x):-r(x,_)", Tau(q).Key())
}

func TestQuery_Replace(t *testing.T) {
	x, y := Var("x"), Var("y")
	a := Role(x, y, "r")
	b := Concept(y, "B")
	q := NewQuery([]Term{x}, a, b)

	got := q.Replace([]Atom{Role(y, x, "r-")}, Concept(x, "C"))

	assert.Equal(t, "q(x):-B(y),C(x)", got.Key())
	assert.Equal(t, "q(x):-B(y),r(x,y)", q.Key(), "receiver must not change")
}

func TestQuery_Variables(t *testing.T) {
	x, y := Var("x"), Var("y")
	q := NewQuery([]Term{x}, Role(x, y, "r"), Role(y, Anon("v1"), "s"), Concept(x, "A"))

	assert.ElementsMatch(t, []Term{x, y}, q.Variables())
	assert.True(t, q.InHead(x))
	assert.False(t, q.InHead(y))
	assert.True(t, q.Contains(Role(y, x, "r-")))
	assert.False(t, q.Contains(Role(x, y, "s")))
}
