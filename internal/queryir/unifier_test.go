package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnifier(t *testing.T) {
	x, y, z := Var("x"), Var("y"), Var("z")

	tests := []struct {
		name  string
		left  []Term
		right []Term
		want  []Substitution
	}{
		{
			name:  "identical pairs are dropped",
			left:  []Term{x, y},
			right: []Term{x, z},
			want:  []Substitution{{In: y, Out: z}},
		},
		{
			name:  "identical lists give no substitutions",
			left:  []Term{x, y},
			right: []Term{x, y},
			want:  nil,
		},
		{
			name:  "unbound term is replaced by bound term",
			left:  []Term{x},
			right: []Term{Anon("v1")},
			want:  []Substitution{{In: Anon("v1"), Out: x}},
		},
		{
			name:  "unbound on the left stays oriented",
			left:  []Term{Anon("v1")},
			right: []Term{x},
			want:  []Substitution{{In: Anon("v1"), Out: x}},
		},
		{
			name:  "chains are resolved",
			left:  []Term{x, y},
			right: []Term{y, z},
			want:  []Substitution{{In: x, Out: z}, {In: y, Out: z}},
		},
		{
			name:  "pairs only up to the shorter list",
			left:  []Term{x},
			right: []Term{y, z},
			want:  []Substitution{{In: x, Out: y}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewUnifier(tt.left, tt.right)
			assert.Equal(t, tt.want, u.Substitutions())
			assert.Equal(t, len(tt.want) == 0, u.Empty())
		})
	}
}

func TestUnifier_ApplyMakesAtomsEqual(t *testing.T) {
	x, y, z, w := Var("x"), Var("y"), Var("z"), Var("w")
	a1 := Role(x, y, "r")
	a2 := Role(z, w, "r")
	q := NewQuery([]Term{x}, a1, a2)

	u := NewUnifier(a1.Terms(), a2.Terms())
	got := u.Apply(q)

	require.Len(t, got.Body, 1)
	assert.Equal(t, "r(z,w)", got.Body[0].String())
	assert.Equal(t, []Term{z}, got.Head)

	// Pointwise: each left term maps to the same image as its right partner.
	subs := u.Substitutions()
	for i := range a1.Terms() {
		assert.Equal(t, a2.Terms()[i].apply(subs), a1.Terms()[i].apply(subs))
	}
}

func TestUnifier_ApplyEmptyReturnsInput(t *testing.T) {
	q := NewQuery([]Term{Var("x")}, Role(Var("x"), Anon("v1"), "r"))

	u := NewUnifier([]Term{Var("x")}, []Term{Var("x")})

	assert.True(t, u.Empty())
	assert.Equal(t, q, u.Apply(q))
}

func TestUnifier_UnboundAbsorbed(t *testing.T) {
	x, y := Var("x"), Var("y")
	q := NewQuery([]Term{x}, Role(x, Anon("v1"), "r"), Role(x, y, "r"), Concept(y, "B"))

	u := NewUnifier([]Term{x, Anon("v1")}, []Term{x, y})
	got := u.Apply(q)

	assert.Equal(t, "q(x):-B(y),r(x,y)", got.Key())
}

func TestUnifier_HeadUsesLastMatch(t *testing.T) {
	x, y, z := Var("x"), Var("y"), Var("z")
	q := NewQuery([]Term{x}, Role(x, y, "r"))

	u := &Unifier{subs: []Substitution{{In: x, Out: y}, {In: x, Out: z}}}
	got := u.Apply(q)

	assert.Equal(t, []Term{z}, got.Head)
	// The body applies pairs in order: x becomes y, which no later pair matches.
	assert.Equal(t, "r(y,y)", got.Body[0].String())
}

func TestUnifier_String(t *testing.T) {
	u := NewUnifier([]Term{Var("x"), Var("y")}, []Term{Var("z"), Var("w")})
	assert.Equal(t, "{x->z, y->w}", u.String())
}
