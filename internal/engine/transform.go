package engine

import (
	"github.com/roach88/crpq/internal/ontology"
	"github.com/roach88/crpq/internal/queryir"
)

// Rule names the transformation that produced a query.
type Rule string

const (
	// RuleAxiom rewrites one atom backwards through an ontology axiom.
	RuleAxiom Rule = "axiom"
	// RuleUnify unifies two atoms with the same labels.
	RuleUnify Rule = "unify"
	// RuleConcat splices a role or path atom onto the end of a path atom.
	RuleConcat Rule = "concat"
	// RuleMerge narrows two binary atoms to their shared roles and unifies them.
	RuleMerge Rule = "merge"
	// RuleDrop removes a path atom with an unbound endpoint.
	RuleDrop Rule = "drop"
)

// candidate is one query produced from a parent, already passed through tau.
type candidate struct {
	query  queryir.Query
	rule   Rule
	detail string
}

// expander applies the five transformations to one query.
type expander struct {
	onto   *ontology.Ontology
	axioms []ontology.Axiom
	names  func(queryir.Query) queryir.FreshNames
}

// expand returns every query one transformation step away from q, in the
// order: axioms, unification, concatenation, merging, dropping. Atoms are
// visited in body order and axioms in ontology order.
//
// Fresh names come from x.names(q). The default scope is q itself, so the
// output depends on q alone and not on which worker expands it or when.
func (x *expander) expand(q queryir.Query) []candidate {
	fresh := x.names(q)
	var out []candidate
	emit := func(r queryir.Query, rule Rule, detail string) {
		out = append(out, candidate{query: queryir.Tau(r), rule: rule, detail: detail})
	}

	for _, a := range q.Body {
		for _, ax := range x.axioms {
			if !a.Applicable(ax) {
				continue
			}
			if r, ok := x.replace(q, a, ax, fresh); ok {
				emit(r, RuleAxiom, a.String()+" by "+ax.String())
			}
		}
	}

	for _, a1 := range q.Body {
		for _, a2 := range q.Body {
			emit(reduce(q, a1, a2), RuleUnify, a1.String()+" ~ "+a2.String())
		}
	}

	for _, a1 := range q.Body {
		for _, a2 := range q.Body {
			b1, ok1 := a1.(queryir.Binary)
			p2, ok2 := a2.(queryir.PathAtom)
			if !ok1 || !ok2 || a1.Key() == a2.Key() {
				continue
			}
			if r, ok := concatenate(q, b1, p2); ok {
				emit(r, RuleConcat, a1.String()+" . "+a2.String())
			}
		}
	}

	for _, a1 := range q.Body {
		for _, a2 := range q.Body {
			b1, ok1 := a1.(queryir.Binary)
			b2, ok2 := a2.(queryir.Binary)
			if !ok1 || !ok2 || a1.Key() == a2.Key() {
				continue
			}
			for _, r := range merge(q, b1, b2) {
				emit(r, RuleMerge, a1.String()+" & "+a2.String())
			}
		}
	}

	for _, a := range q.Body {
		if p, ok := a.(queryir.PathAtom); ok {
			if r, ok := drop(q, p); ok {
				emit(r, RuleDrop, a.String())
			}
		}
	}

	return out
}

// replace swaps atom a for its rewriting through ax, saturated.
func (x *expander) replace(q queryir.Query, a queryir.Atom, ax ontology.Axiom, fresh queryir.FreshNames) (queryir.Query, bool) {
	na, ok := a.Replace(ax, fresh)
	if !ok {
		return q, false
	}
	return q.Replace([]queryir.Atom{a}, na.Saturate(x.onto)), true
}

// reduce unifies the terms of two atoms with equal labels (a role atom may
// match after inversion). Atoms that do not match leave q unchanged.
func reduce(q queryir.Query, a1, a2 queryir.Atom) queryir.Query {
	switch b1 := a1.(type) {
	case queryir.ConceptAtom:
		if b2, ok := a2.(queryir.ConceptAtom); ok && b1.Names.Equal(b2.Names) {
			return queryir.NewUnifier(b1.Terms(), b2.Terms()).Apply(q)
		}
	case queryir.RoleAtom:
		b2, ok := a2.(queryir.RoleAtom)
		if !ok {
			break
		}
		if b1.Roles.Equal(b2.Roles) {
			return queryir.NewUnifier(b1.Terms(), b2.Terms()).Apply(q)
		}
		if inv := b1.Inverse(); inv.Roles.Equal(b2.Roles) {
			return queryir.NewUnifier(inv.Terms(), b2.Terms()).Apply(q)
		}
	case queryir.PathAtom:
		if b2, ok := a2.(queryir.PathAtom); ok && b1.Roles.Equal(b2.Roles) {
			return queryir.NewUnifier(b1.Terms(), b2.Terms()).Apply(q)
		}
	default:
		panic("engine: unknown atom type in reduce")
	}
	return q
}

// concatenate splices a1 onto path a2 when a2's roles cover a1's and the
// two share an endpoint. A role atom is also tried inverted, but only when
// its own roles are not covered.
func concatenate(q queryir.Query, a1 queryir.Binary, a2 queryir.PathAtom) (queryir.Query, bool) {
	switch b1 := a1.(type) {
	case queryir.RoleAtom:
		if a2.Roles.ContainsAll(b1.Roles) {
			return splice(q, b1, a2)
		}
		if inv := b1.Inverse(); a2.Roles.ContainsAll(inv.Roles) {
			return splice(q, inv, a2)
		}
	case queryir.PathAtom:
		if a2.Roles.ContainsAll(b1.Roles) {
			return splice(q, b1, a2)
		}
	default:
		panic("engine: unknown binary atom type in concatenate")
	}
	return q, false
}

// splice rebuilds a1 and a2 with bound endpoints:
//
//	front  a1(x,y), a2(x,z)  →  a1(x,y), a2(y,z)
//	back   a1(x,y), a2(w,y)  →  a1(x,y), a2(w,x)
func splice(q queryir.Query, a1 queryir.Binary, a2 queryir.PathAtom) (queryir.Query, bool) {
	l1, r1 := a1.Endpoints()
	l2, r2 := a2.Endpoints()

	var path queryir.PathAtom
	switch {
	case l1 == l2:
		path = queryir.PathAtom{Roles: a2.Roles, Left: r1.Bound(), Right: r2.Bound()}
	case r1 == r2:
		path = queryir.PathAtom{Roles: a2.Roles, Left: l2.Bound(), Right: l1.Bound()}
	default:
		return q, false
	}
	head := a1.ReplaceTerms(l1.Bound(), r1.Bound())
	return q.Replace([]queryir.Atom{a1, a2}, head, path), true
}

// merge narrows a1 and a2 to their shared roles and unifies their terms. A
// role atom a1 is tried as is and inverted, which can yield two queries.
func merge(q queryir.Query, a1, a2 queryir.Binary) []queryir.Query {
	var out []queryir.Query
	switch b1 := a1.(type) {
	case queryir.RoleAtom:
		if r, ok := mergeOnce(q, b1, a2, false); ok {
			out = append(out, r)
		}
		if r, ok := mergeOnce(q, b1.Inverse(), a2, false); ok {
			out = append(out, r)
		}
	case queryir.PathAtom:
		_, toPath := a2.(queryir.PathAtom)
		if r, ok := mergeOnce(q, b1, a2, toPath); ok {
			out = append(out, r)
		}
	default:
		panic("engine: unknown binary atom type in merge")
	}
	return out
}

func mergeOnce(q queryir.Query, a1, a2 queryir.Binary, path bool) (queryir.Query, bool) {
	shared := a1.Labels().Intersect(a2.Labels())
	if len(shared) == 0 {
		return q, false
	}
	l1, r1 := a1.Endpoints()
	l2, r2 := a2.Endpoints()
	u := queryir.NewUnifier([]queryir.Term{l1, r1}, []queryir.Term{l2, r2})
	if u.Empty() {
		return q, false
	}

	var n1, n2 queryir.Atom
	if path {
		n1 = queryir.PathAtom{Roles: shared, Left: l1, Right: r1}
		n2 = queryir.PathAtom{Roles: shared, Left: l2, Right: r2}
	} else {
		n1 = queryir.RoleAtom{Roles: shared, Left: l1, Right: r1}
		n2 = queryir.RoleAtom{Roles: shared, Left: l2, Right: r2}
	}
	return u.Apply(q.Replace([]queryir.Atom{a1, a2}, n1, n2)), true
}

// drop removes a path atom with an unbound endpoint, since zero hops always
// satisfy it. The last atom of a body is never dropped.
func drop(q queryir.Query, p queryir.PathAtom) (queryir.Query, bool) {
	if len(q.Body) <= 1 || !(p.Left.Unbound || p.Right.Unbound) {
		return q, false
	}
	return q.Replace([]queryir.Atom{p}), true
}
