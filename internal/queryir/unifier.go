package queryir

import "strings"

// Substitution replaces the term In by Out.
type Substitution struct {
	In  Term
	Out Term
}

func (s Substitution) String() string {
	return s.In.Name + "->" + s.Out.Name
}

// Unifier is the most general unifier of two term lists.
type Unifier struct {
	subs []Substitution
}

// NewUnifier pairs left[i] with right[i] up to the shorter length and
// normalizes the pairs until no rule changes them:
//
//  1. drop pairs whose two sides are identical
//  2. orient pairs so an unbound term is never the target of a bound one
//  3. for distinct pairs s, s1: replace s.In by s.Out on either side of s1
//
// Terms are compared by identity, so _v1 and _v2 are different terms here
// even though atoms print them alike.
func NewUnifier(left, right []Term) *Unifier {
	n := min(len(left), len(right))
	subs := make([]Substitution, 0, n)
	for i := range n {
		subs = append(subs, Substitution{In: left[i], Out: right[i]})
	}

	// Each pass either shrinks the list or moves a term towards a fixed
	// target; the bound guards against a pathological oscillation.
	limit := 8 * (n + 1) * (n + 1)
	for changed, pass := true, 0; changed && pass < limit; pass++ {
		changed = false

		kept := subs[:0]
		for _, s := range subs {
			if s.In == s.Out {
				changed = true
				continue
			}
			kept = append(kept, s)
		}
		subs = kept

		for i := range subs {
			if subs[i].Out.Unbound && !subs[i].In.Unbound {
				subs[i].In, subs[i].Out = subs[i].Out, subs[i].In
				changed = true
			}
		}

		for i := range subs {
			for j := range subs {
				if subs[j] == subs[i] {
					continue
				}
				if subs[j].In == subs[i].In && subs[j].In != subs[i].Out {
					subs[j].In = subs[i].Out
					changed = true
				}
				if subs[j].Out == subs[i].In && subs[j].Out != subs[i].Out {
					subs[j].Out = subs[i].Out
					changed = true
				}
			}
		}
	}
	return &Unifier{subs: subs}
}

// Substitutions returns a copy of the normalized pairs.
func (u *Unifier) Substitutions() []Substitution {
	return append([]Substitution(nil), u.subs...)
}

// Empty reports whether the unifier changes nothing.
func (u *Unifier) Empty() bool {
	return len(u.subs) == 0
}

// Apply substitutes through q. Head terms are matched against their original
// value, the last matching pair winning; body atoms apply the pairs in order.
// With no pairs, q is returned unchanged.
func (u *Unifier) Apply(q Query) Query {
	if len(u.subs) == 0 {
		return q
	}
	head := make([]Term, len(q.Head))
	for i, v := range q.Head {
		head[i] = v
		for _, s := range u.subs {
			if v == s.In {
				head[i] = s.Out
			}
		}
	}
	body := make([]Atom, len(q.Body))
	for i, a := range q.Body {
		body[i] = a.ApplySubstitution(u.subs)
	}
	return NewQuery(head, body...)
}

func (u *Unifier) String() string {
	parts := make([]string, len(u.subs))
	for i, s := range u.subs {
		parts[i] = s.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
