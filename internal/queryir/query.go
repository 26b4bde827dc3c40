package queryir

import (
	"slices"
	"strings"
)

// HeadName is the predicate name printed in front of the head.
const HeadName = "q"

// Query is a conjunctive query with regular-path atoms.
//
// Head lists the answer variables in order; an empty head is a boolean
// query. Body is a set: NewQuery drops atoms with a repeated Key and keeps
// the rest sorted by Key, so two queries with the same atoms have identical
// bodies.
type Query struct {
	Head []Term
	Body []Atom
}

// NewQuery builds a query, deduplicating and ordering the body.
func NewQuery(head []Term, body ...Atom) Query {
	seen := make(map[string]bool, len(body))
	atoms := make([]Atom, 0, len(body))
	for _, a := range body {
		k := a.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		atoms = append(atoms, a)
	}
	slices.SortStableFunc(atoms, func(a, b Atom) int {
		return strings.Compare(a.Key(), b.Key())
	})
	return Query{Head: slices.Clone(head), Body: atoms}
}

// Key is the canonical form: head order matters, body order does not, and
// unbound terms are interchangeable.
func (q Query) Key() string {
	var b strings.Builder
	b.WriteString(q.headString())
	b.WriteString(":-")
	for i, a := range q.Body {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.Key())
	}
	return b.String()
}

// String renders "q(x) :- A(x), r(x,_)".
func (q Query) String() string {
	return q.headString() + " :- " + formatAtoms(q.Body, ", ")
}

func (q Query) headString() string {
	names := make([]string, len(q.Head))
	for i, t := range q.Head {
		names[i] = t.String()
	}
	return HeadName + "(" + strings.Join(names, ",") + ")"
}

// Equal reports whether q and o have the same Key.
func (q Query) Equal(o Query) bool {
	return q.Key() == o.Key()
}

// IsBoolean reports whether the query has no answer variables.
func (q Query) IsBoolean() bool {
	return len(q.Head) == 0
}

// HeadNames returns the answer variable names in order.
func (q Query) HeadNames() []string {
	names := make([]string, len(q.Head))
	for i, t := range q.Head {
		names[i] = t.Name
	}
	return names
}

// InHead reports whether t is one of the answer variables.
func (q Query) InHead(t Term) bool {
	return slices.Contains(q.Head, t)
}

// Variables returns the bound terms of the body in first-occurrence order.
func (q Query) Variables() []Term {
	var out []Term
	for _, a := range q.Body {
		for _, t := range a.Terms() {
			if !t.Unbound && !slices.Contains(out, t) {
				out = append(out, t)
			}
		}
	}
	return out
}

// Contains reports whether the body has an atom with a's Key.
func (q Query) Contains(a Atom) bool {
	k := a.Key()
	return slices.ContainsFunc(q.Body, func(b Atom) bool { return b.Key() == k })
}

// Replace returns the query with the atoms of remove taken out (by Key) and
// add put in.
func (q Query) Replace(remove []Atom, add ...Atom) Query {
	drop := make(map[string]bool, len(remove))
	for _, a := range remove {
		drop[a.Key()] = true
	}
	body := make([]Atom, 0, len(q.Body)+len(add))
	for _, a := range q.Body {
		if !drop[a.Key()] {
			body = append(body, a)
		}
	}
	body = append(body, add...)
	return NewQuery(q.Head, body...)
}

// Saturate saturates every atom of the body.
func (q Query) Saturate(h Hierarchy) Query {
	body := make([]Atom, len(q.Body))
	for i, a := range q.Body {
		body[i] = a.Saturate(h)
	}
	return NewQuery(q.Head, body...)
}

// Tau marks as unbound every variable that is not an answer variable and
// occurs in exactly one body position.
//
// Marking can make two atoms print the same, and they collapse into one; a
// variable they shared may then drop to one occurrence. Tau repeats until
// the key is stable, so Tau(Tau(q)) and Tau(q) have the same key.
func Tau(q Query) Query {
	for {
		next := tauOnce(q)
		if next.Key() == q.Key() {
			return next
		}
		q = next
	}
}

func tauOnce(q Query) Query {
	counts := make(map[Term]int)
	for _, a := range q.Body {
		for _, t := range a.Terms() {
			if !t.Unbound {
				counts[t]++
			}
		}
	}
	body := make([]Atom, len(q.Body))
	for i, a := range q.Body {
		body[i] = a.mapTerms(func(t Term) Term {
			if !t.Unbound && counts[t] == 1 && !q.InHead(t) {
				return Anon(t.Name)
			}
			return t
		})
	}
	return NewQuery(q.Head, body...)
}
