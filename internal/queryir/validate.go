package queryir

import (
	"fmt"
	"slices"
)

// Signature reports which names an ontology declares.
// *ontology.Ontology implements it.
type Signature interface {
	HasClass(name string) bool
	HasProperty(name string) bool
}

// ValidationResult contains the outcome of checking a query before rewriting.
type ValidationResult struct {
	// Errors make the query unusable; the rewriter refuses it.
	Errors []string

	// Warnings flag queries that rewrite fine but are probably not what the
	// author meant.
	Warnings []string
}

// OK reports whether the query has no errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate checks a query against an optional signature (nil skips the
// name checks).
//
// Errors:
//  1. the body is empty
//  2. a head term is unbound
//  3. a role, or a path role, is not a declared property
//  4. a path atom carries an inverse role
//
// Warnings:
//  1. an answer variable does not occur in the body
//  2. an answer variable is repeated in the head
//  3. a concept is not a declared class
//
// Validate is a pure function with no side effects.
func Validate(q Query, sig Signature) ValidationResult {
	v := &validator{sig: sig}
	v.validateQuery(q)
	return ValidationResult{Errors: v.errors, Warnings: v.warnings}
}

// validator accumulates findings during traversal.
type validator struct {
	sig      Signature
	errors   []string
	warnings []string
}

func (v *validator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	if len(q.Body) == 0 {
		v.addError("query body is empty")
	}

	vars := q.Variables()
	for i, t := range q.Head {
		if t.Unbound {
			v.addError("answer variable %d is unbound", i+1)
			continue
		}
		if !slices.Contains(vars, t) {
			v.addWarning("answer variable %s does not occur in the body", t.Name)
		}
		if slices.Index(q.Head, t) != i {
			v.addWarning("answer variable %s is repeated in the head", t.Name)
		}
	}

	for _, a := range q.Body {
		v.validateAtom(a)
	}
}

func (v *validator) validateAtom(a Atom) {
	switch atom := a.(type) {
	case ConceptAtom:
		for _, n := range atom.Names {
			if v.sig != nil && !v.sig.HasClass(n) {
				v.addWarning("concept %s is not declared in the ontology", n)
			}
		}
	case RoleAtom:
		v.validateRoles(atom.Roles)
	case PathAtom:
		if atom.Roles.AnyInverse() {
			v.addError("path atom %s uses an inverse role", atom)
		}
		v.validateRoles(atom.Roles)
	default:
		v.addError("unknown atom type: %T", a)
	}
}

func (v *validator) validateRoles(roles RoleSet) {
	if v.sig == nil {
		return
	}
	for _, name := range roles.Names() {
		if !v.sig.HasProperty(name) {
			v.addError("role %s is not declared in the ontology", name)
		}
	}
}
