package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/crpq/internal/ontology"
)

// Atom is one conjunct of a query body.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the engine and the Cypher backend.
//
// Atom types:
//   - ConceptAtom: membership of one term in a disjunction of classes
//   - RoleAtom: an edge labelled by one of several roles
//   - PathAtom: a path of zero or more edges labelled by direct roles
type Atom interface {
	atomNode() // Marker method - seals interface to this package

	// Key is the canonical printed form used for deduplication.
	Key() string
	String() string

	// Terms returns the terms in position order.
	Terms() []Term

	// Saturate widens the labels with everything the hierarchy entails.
	Saturate(h Hierarchy) Atom

	// Applicable reports whether Replace can rewrite the atom with ax.
	Applicable(ax ontology.Axiom) bool

	// Replace rewrites the atom backwards through ax. ok is false when ax
	// does not apply.
	Replace(ax ontology.Axiom, fresh FreshNames) (Atom, bool)

	// ApplySubstitution rewrites each term through subs in order.
	ApplySubstitution(subs []Substitution) Atom

	mapTerms(f func(Term) Term) Atom
}

// Binary is implemented by the two-term atoms, RoleAtom and PathAtom.
type Binary interface {
	Atom
	Endpoints() (left, right Term)
	Labels() RoleSet
	// ReplaceTerms returns the atom with both endpoints replaced.
	ReplaceTerms(left, right Term) Binary
}

// FreshNames hands out variable names never used before in a rewriting run.
type FreshNames interface {
	FreshName() string
}

// ConceptAtom is (A|B|...)(t).
type ConceptAtom struct {
	Names ConceptSet
	Term  Term
}

func (ConceptAtom) atomNode() {}

// Concept builds a ConceptAtom.
func Concept(t Term, names ...string) ConceptAtom {
	return ConceptAtom{Names: NewConceptSet(names...), Term: t}
}

func (a ConceptAtom) Key() string { return a.String() }

func (a ConceptAtom) String() string {
	return a.Names.String() + "(" + a.Term.String() + ")"
}

func (a ConceptAtom) Terms() []Term { return []Term{a.Term} }

func (a ConceptAtom) ApplySubstitution(subs []Substitution) Atom {
	return a.mapTerms(func(t Term) Term { return t.apply(subs) })
}

func (a ConceptAtom) mapTerms(f func(Term) Term) Atom {
	return ConceptAtom{Names: a.Names, Term: f(a.Term)}
}

// RoleAtom is (r|s-|...)(l, r).
//
// A role atom and its inverse (every role inverted, endpoints swapped) are
// the same atom; both share one Key.
type RoleAtom struct {
	Roles RoleSet
	Left  Term
	Right Term
}

func (RoleAtom) atomNode() {}

// Role builds a RoleAtom from surface role names such as "r" or "r-".
func Role(left, right Term, roles ...string) RoleAtom {
	return RoleAtom{Roles: Roles(roles...), Left: left, Right: right}
}

// Inverse returns the equivalent atom with roles inverted and endpoints
// swapped.
func (a RoleAtom) Inverse() RoleAtom {
	return RoleAtom{Roles: a.Roles.Inverse(), Left: a.Right, Right: a.Left}
}

func (a RoleAtom) Key() string {
	own, inv := a.String(), a.Inverse().String()
	if inv < own {
		return inv
	}
	return own
}

func (a RoleAtom) String() string {
	return a.Roles.String() + "(" + a.Left.String() + "," + a.Right.String() + ")"
}

func (a RoleAtom) Terms() []Term { return []Term{a.Left, a.Right} }

func (a RoleAtom) Endpoints() (Term, Term) { return a.Left, a.Right }

func (a RoleAtom) Labels() RoleSet { return a.Roles }

func (a RoleAtom) ReplaceTerms(left, right Term) Binary {
	return RoleAtom{Roles: a.Roles, Left: left, Right: right}
}

func (a RoleAtom) ApplySubstitution(subs []Substitution) Atom {
	return a.mapTerms(func(t Term) Term { return t.apply(subs) })
}

func (a RoleAtom) mapTerms(f func(Term) Term) Atom {
	return RoleAtom{Roles: a.Roles, Left: f(a.Left), Right: f(a.Right)}
}

// PathAtom is (r|s|...)*(l, r): l reaches r through zero or more edges,
// each labelled by one of the roles. Roles are always direct.
type PathAtom struct {
	Roles RoleSet
	Left  Term
	Right Term
}

func (PathAtom) atomNode() {}

// NewPathAtom builds a PathAtom, rejecting inverse roles.
func NewPathAtom(roles RoleSet, left, right Term) (PathAtom, error) {
	if len(roles) == 0 {
		return PathAtom{}, fmt.Errorf("path atom needs at least one role")
	}
	for _, r := range roles {
		if r.Inverse {
			return PathAtom{}, fmt.Errorf("path atom cannot use inverse role %s", r)
		}
	}
	return PathAtom{Roles: roles, Left: left, Right: right}, nil
}

// Path builds a PathAtom from direct role names. It panics on an inverse
// role and is meant for literals in tests and fixtures.
func Path(left, right Term, roles ...string) PathAtom {
	p, err := NewPathAtom(Roles(roles...), left, right)
	if err != nil {
		panic(err)
	}
	return p
}

func (a PathAtom) Key() string { return a.String() }

func (a PathAtom) String() string {
	return a.Roles.String() + "*(" + a.Left.String() + "," + a.Right.String() + ")"
}

func (a PathAtom) Terms() []Term { return []Term{a.Left, a.Right} }

func (a PathAtom) Endpoints() (Term, Term) { return a.Left, a.Right }

func (a PathAtom) Labels() RoleSet { return a.Roles }

func (a PathAtom) ReplaceTerms(left, right Term) Binary {
	return PathAtom{Roles: a.Roles, Left: left, Right: right}
}

func (a PathAtom) ApplySubstitution(subs []Substitution) Atom {
	return a.mapTerms(func(t Term) Term { return t.apply(subs) })
}

func (a PathAtom) mapTerms(f func(Term) Term) Atom {
	return PathAtom{Roles: a.Roles, Left: f(a.Left), Right: f(a.Right)}
}

// formatAtoms joins atom strings for display.
func formatAtoms(atoms []Atom, sep string) string {
	parts := make([]string, len(atoms))
	for i, a := range atoms {
		parts[i] = a.String()
	}
	return strings.Join(parts, sep)
}
