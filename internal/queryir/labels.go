package queryir

import (
	"slices"
	"strings"

	"github.com/roach88/crpq/internal/ontology"
)

// ConceptSet is a sorted, duplicate-free set of class names.
//
// Treat values as immutable: every operation returns a new set.
type ConceptSet []string

// NewConceptSet builds a set from names in any order.
func NewConceptSet(names ...string) ConceptSet {
	s := slices.Clone(names)
	slices.Sort(s)
	return ConceptSet(slices.Compact(s))
}

// Contains reports whether name is in the set.
func (s ConceptSet) Contains(name string) bool {
	_, ok := slices.BinarySearch(s, name)
	return ok
}

// Union returns s with names added.
func (s ConceptSet) Union(names ...string) ConceptSet {
	return NewConceptSet(append(slices.Clone(s), names...)...)
}

// Equal reports set equality.
func (s ConceptSet) Equal(o ConceptSet) bool {
	return slices.Equal(s, o)
}

// String renders "A" or "(A|B)".
func (s ConceptSet) String() string {
	return group(s)
}

// RoleSet is a sorted, duplicate-free set of roles, ordered by
// ontology.Role.Compare.
//
// Treat values as immutable: every operation returns a new set.
type RoleSet []ontology.Role

// NewRoleSet builds a set from roles in any order.
func NewRoleSet(roles ...ontology.Role) RoleSet {
	s := slices.Clone(roles)
	slices.SortFunc(s, ontology.Role.Compare)
	return RoleSet(slices.Compact(s))
}

// Roles builds a set from surface names such as "r" and "s-".
func Roles(names ...string) RoleSet {
	roles := make([]ontology.Role, len(names))
	for i, n := range names {
		roles[i] = ontology.ParseRole(n)
	}
	return NewRoleSet(roles...)
}

// Contains reports whether r is in the set.
func (s RoleSet) Contains(r ontology.Role) bool {
	_, ok := slices.BinarySearchFunc(s, r, ontology.Role.Compare)
	return ok
}

// ContainsAll reports whether every role of o is in s.
func (s RoleSet) ContainsAll(o RoleSet) bool {
	for _, r := range o {
		if !s.Contains(r) {
			return false
		}
	}
	return true
}

// Union returns s with roles added.
func (s RoleSet) Union(roles ...ontology.Role) RoleSet {
	return NewRoleSet(append(slices.Clone(s), roles...)...)
}

// Intersect returns the roles present in both sets.
func (s RoleSet) Intersect(o RoleSet) RoleSet {
	var out RoleSet
	for _, r := range s {
		if o.Contains(r) {
			out = append(out, r)
		}
	}
	return out
}

// Inverse returns the set with every role inverted.
func (s RoleSet) Inverse() RoleSet {
	out := make([]ontology.Role, len(s))
	for i, r := range s {
		out[i] = r.Inv()
	}
	return NewRoleSet(out...)
}

// Equal reports set equality.
func (s RoleSet) Equal(o RoleSet) bool {
	return slices.Equal(s, o)
}

// AllInverse reports whether every role is an inverse role.
func (s RoleSet) AllInverse() bool {
	for _, r := range s {
		if !r.Inverse {
			return false
		}
	}
	return len(s) > 0
}

// AnyInverse reports whether some role is an inverse role.
func (s RoleSet) AnyInverse() bool {
	return slices.ContainsFunc(s, func(r ontology.Role) bool { return r.Inverse })
}

// Names returns the property names of the roles, sorted and deduplicated.
func (s RoleSet) Names() []string {
	names := make([]string, 0, len(s))
	for _, r := range s {
		names = append(names, r.Name)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// String renders "r" or "(r|s-)".
func (s RoleSet) String() string {
	parts := make([]string, len(s))
	for i, r := range s {
		parts[i] = r.String()
	}
	return group(parts)
}

func group(parts []string) string {
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, "|") + ")"
}
