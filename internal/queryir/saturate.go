package queryir

import "github.com/roach88/crpq/internal/ontology"

// Hierarchy answers the subsumption lookups saturation needs.
// *ontology.Ontology implements it.
type Hierarchy interface {
	SubConceptsOf(name string) []string
	SubRolesOf(r ontology.Role) []ontology.Role
	InversesOf(name string) []string
}

// Saturate adds every named class transitively below one already present.
func (a ConceptAtom) Saturate(h Hierarchy) Atom {
	names := a.Names
	for {
		next := names
		for _, n := range names {
			next = next.Union(h.SubConceptsOf(n)...)
		}
		if len(next) == len(names) {
			return ConceptAtom{Names: names, Term: a.Term}
		}
		names = next
	}
}

// Saturate closes the role set under three steps until nothing is added:
// subroles of r, inverted subroles of r⁻, and declared inverse partners
// (p for r = q⁻, p⁻ for r = q, when InverseOf(q, p)).
func (a RoleAtom) Saturate(h Hierarchy) Atom {
	roles := a.Roles
	for {
		next := roles
		for _, r := range roles {
			next = next.Union(h.SubRolesOf(r)...)
			for _, s := range h.SubRolesOf(r.Inv()) {
				next = next.Union(s.Inv())
			}
			for _, p := range h.InversesOf(r.Name) {
				partner := ontology.Prop(p)
				if !r.Inverse {
					partner = partner.Inv()
				}
				next = next.Union(partner)
			}
		}
		if len(next) == len(roles) {
			return RoleAtom{Roles: roles, Left: a.Left, Right: a.Right}
		}
		roles = next
	}
}

// Saturate adds the direct subroles of the path's roles. Inverse subroles
// are skipped since a path only follows edges forwards.
func (a PathAtom) Saturate(h Hierarchy) Atom {
	roles := a.Roles
	for {
		next := roles
		for _, r := range roles {
			for _, s := range h.SubRolesOf(r) {
				if !s.Inverse {
					next = next.Union(s)
				}
			}
		}
		if len(next) == len(roles) {
			return PathAtom{Roles: roles, Left: a.Left, Right: a.Right}
		}
		roles = next
	}
}
