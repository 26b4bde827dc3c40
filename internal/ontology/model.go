package ontology

import (
	"fmt"
	"strings"
)

// InverseSuffix marks an inverse role in surface syntax ("teaches-").
const InverseSuffix = "-"

// Role is a named object property or the inverse of one.
//
// Role is a comparable value type and can be used as a map key.
type Role struct {
	Name    string
	Inverse bool
}

// Prop returns the direct role for a property name.
func Prop(name string) Role {
	return Role{Name: name}
}

// ParseRole reads "p" or "p-".
func ParseRole(s string) Role {
	if strings.HasSuffix(s, InverseSuffix) && len(s) > len(InverseSuffix) {
		return Role{Name: strings.TrimSuffix(s, InverseSuffix), Inverse: true}
	}
	return Role{Name: s}
}

// Inv returns the inverse role. Inv is an involution: r.Inv().Inv() == r.
func (r Role) Inv() Role {
	return Role{Name: r.Name, Inverse: !r.Inverse}
}

func (r Role) String() string {
	if r.Inverse {
		return r.Name + InverseSuffix
	}
	return r.Name
}

// Compare orders roles by name, direct before inverse.
func (r Role) Compare(o Role) int {
	if c := strings.Compare(r.Name, o.Name); c != 0 {
		return c
	}
	switch {
	case r.Inverse == o.Inverse:
		return 0
	case !r.Inverse:
		return -1
	default:
		return 1
	}
}

// BasicConcept is either a named class A or an unqualified existential ∃R.
type BasicConcept struct {
	Name   string // set for named classes
	Role   Role   // set when Exists
	Exists bool
}

// Class returns the named basic concept A.
func Class(name string) BasicConcept {
	return BasicConcept{Name: name}
}

// Some returns the existential basic concept ∃R.
func Some(r Role) BasicConcept {
	return BasicConcept{Role: r, Exists: true}
}

// IsNamed reports whether b is a named class.
func (b BasicConcept) IsNamed() bool {
	return !b.Exists
}

func (b BasicConcept) String() string {
	if b.Exists {
		return "some " + b.Role.String()
	}
	return b.Name
}

// Axiom is a normalized DL-Lite_R axiom.
//
// This is a sealed interface - only types in this package implement it.
type Axiom interface {
	axiomNode()
	String() string
}

// SubClassOf states Sub ⊑ Sup.
type SubClassOf struct {
	Sub BasicConcept
	Sup BasicConcept
}

func (SubClassOf) axiomNode() {}

func (a SubClassOf) String() string {
	return fmt.Sprintf("SubClassOf(%s, %s)", a.Sub, a.Sup)
}

// Domain states ∃Role ⊑ Class.
type Domain struct {
	Role  Role
	Class BasicConcept
}

func (Domain) axiomNode() {}

func (a Domain) String() string {
	return fmt.Sprintf("Domain(%s, %s)", a.Role, a.Class)
}

// Range states ∃Role⁻ ⊑ Class.
type Range struct {
	Role  Role
	Class BasicConcept
}

func (Range) axiomNode() {}

func (a Range) String() string {
	return fmt.Sprintf("Range(%s, %s)", a.Role, a.Class)
}

// SubPropertyOf states Sub ⊑ Sup.
type SubPropertyOf struct {
	Sub Role
	Sup Role
}

func (SubPropertyOf) axiomNode() {}

func (a SubPropertyOf) String() string {
	return fmt.Sprintf("SubPropertyOf(%s, %s)", a.Sub, a.Sup)
}

// InverseOf states P ≡ Q⁻.
type InverseOf struct {
	P string
	Q string
}

func (InverseOf) axiomNode() {}

func (a InverseOf) String() string {
	return fmt.Sprintf("InverseOf(%s, %s)", a.P, a.Q)
}

// Partner returns the other side of the inverse declaration, if name takes part in it.
func (a InverseOf) Partner(name string) (string, bool) {
	switch name {
	case a.P:
		return a.Q, true
	case a.Q:
		return a.P, true
	default:
		return "", false
	}
}
