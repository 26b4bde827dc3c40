package queryir

// UnboundMark is the printed form of every unbound term.
const UnboundMark = "_"

// Term is a query variable.
//
// A bound Term (Var) is a named variable shared between atoms or projected by
// the head. An unbound Term (Anon) is an existential "don't care" position;
// its name is kept for display and for Cypher variable names only.
//
// Term is comparable; == is term identity (kind and name).
type Term struct {
	Name    string
	Unbound bool
}

// Var returns a bound variable.
func Var(name string) Term {
	return Term{Name: name}
}

// Anon returns an unbound variable.
func Anon(name string) Term {
	return Term{Name: name, Unbound: true}
}

// Bound returns the bound variable with the same name.
func (t Term) Bound() Term {
	return Term{Name: t.Name}
}

// String returns the printed form used in atom and query keys.
func (t Term) String() string {
	if t.Unbound {
		return UnboundMark
	}
	return t.Name
}

// apply rewrites t through each substitution in order.
func (t Term) apply(subs []Substitution) Term {
	for _, s := range subs {
		if t == s.In {
			t = s.Out
		}
	}
	return t
}
