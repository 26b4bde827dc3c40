package ontology

import (
	"errors"
	"fmt"
	"unicode"
)

// ProfileError reports an axiom or name outside the supported DL-Lite_R fragment.
type ProfileError struct {
	Subject string // axiom or entity that violates the profile
	Reason  string
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("not in OWL 2 QL profile: %s: %s", e.Subject, e.Reason)
}

// IsProfileError reports whether err is, or wraps, a *ProfileError.
func IsProfileError(err error) bool {
	var pe *ProfileError
	return errors.As(err, &pe)
}

// Validate checks that the ontology can be handed to the rewriter.
//
// Returns all violations found; nil means the ontology is valid. Checks:
//  1. every class and property name is an identifier the query grammar can
//     spell (letters, digits, '_', not starting with a digit)
//  2. no name is used both as a class and as a property
//  3. no axiom mentions an empty name
func Validate(o *Ontology) []error {
	var errs []error

	classes := o.Classes()
	properties := o.Properties()
	propertySet := make(map[string]bool, len(properties))
	for _, p := range properties {
		propertySet[p] = true
	}

	for _, c := range classes {
		if !isIdentifier(c) {
			errs = append(errs, &ProfileError{Subject: "class " + c, Reason: "name is not a valid identifier"})
		}
		if propertySet[c] {
			errs = append(errs, &ProfileError{Subject: c, Reason: "name is used as both class and property"})
		}
	}
	for _, p := range properties {
		if !isIdentifier(p) {
			errs = append(errs, &ProfileError{Subject: "property " + p, Reason: "name is not a valid identifier"})
		}
	}

	for _, ax := range o.Axioms() {
		if err := validateAxiom(ax); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

func validateAxiom(ax Axiom) error {
	empty := false
	switch a := ax.(type) {
	case SubClassOf:
		empty = emptyBasic(a.Sub) || emptyBasic(a.Sup)
	case Domain:
		empty = a.Role.Name == "" || emptyBasic(a.Class)
	case Range:
		empty = a.Role.Name == "" || emptyBasic(a.Class)
	case SubPropertyOf:
		empty = a.Sub.Name == "" || a.Sup.Name == ""
	case InverseOf:
		empty = a.P == "" || a.Q == ""
	default:
		return &ProfileError{Subject: fmt.Sprintf("%T", ax), Reason: "unsupported axiom type"}
	}
	if empty {
		return &ProfileError{Subject: ax.String(), Reason: "axiom mentions an empty name"}
	}
	return nil
}

func emptyBasic(b BasicConcept) bool {
	if b.Exists {
		return b.Role.Name == ""
	}
	return b.Name == ""
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case unicode.IsDigit(r) && i > 0:
		default:
			return false
		}
	}
	return true
}
