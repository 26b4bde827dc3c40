package queryir

import "github.com/roach88/crpq/internal/ontology"

// Applicable reports whether ax can produce a member of one of the atom's
// classes: a subclass outside the set, or a domain/range naming one of them.
func (a ConceptAtom) Applicable(ax ontology.Axiom) bool {
	switch x := ax.(type) {
	case ontology.SubClassOf:
		if !x.Sup.IsNamed() || !a.Names.Contains(x.Sup.Name) {
			return false
		}
		return !x.Sub.IsNamed() || !a.Names.Contains(x.Sub.Name)
	case ontology.Domain:
		return x.Class.IsNamed() && a.Names.Contains(x.Class.Name)
	case ontology.Range:
		return x.Class.IsNamed() && a.Names.Contains(x.Class.Name)
	default:
		return false
	}
}

// Replace rewrites A(x) through ax:
//
//	SubClassOf(B, A)     → B(x)
//	SubClassOf(∃R, A)    → R(x,_)
//	Domain(r, A)         → r(x,_)
//	Range(r, A)          → r-(x,_)
func (a ConceptAtom) Replace(ax ontology.Axiom, fresh FreshNames) (Atom, bool) {
	if !a.Applicable(ax) {
		return nil, false
	}
	switch x := ax.(type) {
	case ontology.SubClassOf:
		if x.Sub.IsNamed() {
			return Concept(a.Term, x.Sub.Name), true
		}
		return a.edge(x.Sub.Role, fresh), true
	case ontology.Domain:
		return a.edge(x.Role, fresh), true
	case ontology.Range:
		return a.edge(x.Role.Inv(), fresh), true
	default:
		return nil, false
	}
}

func (a ConceptAtom) edge(r ontology.Role, fresh FreshNames) RoleAtom {
	return RoleAtom{Roles: NewRoleSet(r), Left: a.Term, Right: Anon(fresh.FreshName())}
}

// existential returns R when ax has ∃R on its right-hand side.
func existential(ax ontology.Axiom) (ontology.Role, bool) {
	switch x := ax.(type) {
	case ontology.SubClassOf:
		return x.Sup.Role, x.Sup.Exists
	case ontology.Domain:
		return x.Class.Role, x.Class.Exists
	case ontology.Range:
		return x.Class.Role, x.Class.Exists
	default:
		return ontology.Role{}, false
	}
}

// Applicable reports whether ax entails the atom's existential edge: the
// right-hand side is ∃R and either the right endpoint is unbound with R in
// the set, or the left endpoint is unbound with R⁻ in the set.
func (a RoleAtom) Applicable(ax ontology.Axiom) bool {
	r, ok := existential(ax)
	if !ok {
		return false
	}
	return (a.Right.Unbound && a.Roles.Contains(r)) ||
		(a.Left.Unbound && a.Roles.Contains(r.Inv()))
}

// Replace rewrites R(x,_) through an axiom whose right-hand side is ∃R:
//
//	SubClassOf(A, ∃R)    → A(x)
//	SubClassOf(∃S, ∃R)   → S(x,_)
//	Domain(s, ∃R)        → s(x,_)
//	Range(s, ∃R)         → s-(x,_)
//
// The bound endpoint is whichever side the applicability test matched.
func (a RoleAtom) Replace(ax ontology.Axiom, _ FreshNames) (Atom, bool) {
	if !a.Applicable(ax) {
		return nil, false
	}
	rhs, _ := existential(ax)
	switch x := ax.(type) {
	case ontology.SubClassOf:
		if x.Sub.IsNamed() {
			if a.Right.Unbound && a.Roles.Contains(rhs) {
				return Concept(a.Left, x.Sub.Name), true
			}
			return Concept(a.Right, x.Sub.Name), true
		}
		return a.antecedent(x.Sub.Role, rhs), true
	case ontology.Domain:
		return a.antecedent(x.Role, rhs), true
	case ontology.Range:
		return a.antecedent(x.Role.Inv(), rhs), true
	default:
		return nil, false
	}
}

func (a RoleAtom) antecedent(lhs, rhs ontology.Role) RoleAtom {
	if a.Roles.Contains(rhs) && a.Right.Unbound {
		return RoleAtom{Roles: NewRoleSet(lhs), Left: a.Left, Right: a.Right}
	}
	return RoleAtom{Roles: NewRoleSet(lhs), Left: a.Right, Right: a.Left}
}

// Applicable is always false: no DL-Lite_R axiom entails a path.
func (PathAtom) Applicable(ontology.Axiom) bool { return false }

func (PathAtom) Replace(ontology.Axiom, FreshNames) (Atom, bool) { return nil, false }
