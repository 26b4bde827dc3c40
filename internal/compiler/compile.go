package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/crpq/internal/ontology"
)

// Axiom kinds accepted in the axioms list.
const (
	KindSubClassOf      = "subClassOf"
	KindEquivalentClass = "equivalentClass"
	KindDomain          = "domain"
	KindRange           = "range"
	KindSubPropertyOf   = "subPropertyOf"
	KindInverseOf       = "inverseOf"
)

// Spec is one compiled ontology with the queries declared next to it.
type Spec struct {
	Ontology *ontology.Ontology
	Queries  []NamedQuery
}

// CompileAll compiles every ontology under the top-level "ontology" field
// of root, in declaration order.
func CompileAll(root cue.Value) ([]*Spec, error) {
	if err := root.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	ontVal := root.LookupPath(cue.ParsePath("ontology"))
	if !ontVal.Exists() {
		return nil, &CompileError{
			Field:   "ontology",
			Message: "no ontology declared",
			Pos:     root.Pos(),
		}
	}

	iter, err := ontVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []*Spec
	for iter.Next() {
		spec, err := CompileSpec(iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// CompileSpec compiles one ontology struct and its queries.
func CompileSpec(v cue.Value) (*Spec, error) {
	o, err := CompileOntology(v)
	if err != nil {
		return nil, err
	}
	queries, err := CompileQueries(v, o)
	if err != nil {
		return nil, err
	}
	return &Spec{Ontology: o, Queries: queries}, nil
}

// CompileOntology parses a CUE value into an Ontology.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// The CUE value should be the ontology struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`ontology: university: { ... }`)
//	o, err := CompileOntology(v.LookupPath(cue.ParsePath("ontology.university")))
func CompileOntology(v cue.Value) (*ontology.Ontology, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	o := ontology.New(labelName(v))

	classes, err := stringList(v, "classes")
	if err != nil {
		return nil, err
	}
	for _, c := range classes {
		o.DeclareClass(c)
	}

	properties, err := stringList(v, "properties")
	if err != nil {
		return nil, err
	}
	for _, p := range properties {
		o.DeclareProperty(p)
	}

	axVal := v.LookupPath(cue.ParsePath("axioms"))
	if !axVal.Exists() {
		return o, nil // axioms are optional
	}
	iter, err := axVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		axioms, err := parseAxiom(iter.Value(), i)
		if err != nil {
			return nil, err
		}
		for _, ax := range axioms {
			o.Add(ax)
		}
	}

	return o, nil
}

// labelName returns the unquoted last path selector of v.
func labelName(v cue.Value) string {
	sels := v.Path().Selectors()
	if len(sels) == 0 {
		return ""
	}
	name := sels[len(sels)-1].String()
	if unquoted, err := strconv.Unquote(name); err == nil {
		return unquoted
	}
	return name
}

// parseAxiom reads one element of the axioms list: a struct with exactly
// one field naming the axiom kind.
func parseAxiom(v cue.Value, index int) ([]ontology.Axiom, error) {
	field := fmt.Sprintf("axioms[%d]", index)

	iter, err := v.Fields()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "axiom must be a struct", Pos: v.Pos()}
	}
	var (
		kind string
		body cue.Value
		n    int
	)
	for iter.Next() {
		kind, body = iter.Label(), iter.Value()
		n++
	}
	if n != 1 {
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("axiom must have exactly one kind, got %d", n),
			Pos:     v.Pos(),
		}
	}
	field += "." + kind

	switch kind {
	case KindSubClassOf, KindEquivalentClass:
		sub, err := basicConcept(body, "sub", field)
		if err != nil {
			return nil, err
		}
		sup, err := basicConcept(body, "sup", field)
		if err != nil {
			return nil, err
		}
		if kind == KindEquivalentClass {
			return []ontology.Axiom{
				ontology.SubClassOf{Sub: sub, Sup: sup},
				ontology.SubClassOf{Sub: sup, Sup: sub},
			}, nil
		}
		return []ontology.Axiom{ontology.SubClassOf{Sub: sub, Sup: sup}}, nil

	case KindDomain, KindRange:
		r, err := role(body, "property", field)
		if err != nil {
			return nil, err
		}
		c, err := basicConcept(body, "class", field)
		if err != nil {
			return nil, err
		}
		if kind == KindDomain {
			return []ontology.Axiom{ontology.Domain{Role: r, Class: c}}, nil
		}
		return []ontology.Axiom{ontology.Range{Role: r, Class: c}}, nil

	case KindSubPropertyOf:
		sub, err := role(body, "sub", field)
		if err != nil {
			return nil, err
		}
		sup, err := role(body, "sup", field)
		if err != nil {
			return nil, err
		}
		return []ontology.Axiom{ontology.SubPropertyOf{Sub: sub, Sup: sup}}, nil

	case KindInverseOf:
		var pair []string
		if err := body.Decode(&pair); err != nil || len(pair) != 2 {
			return nil, &CompileError{
				Field:   field,
				Message: "inverseOf takes a list of two property names",
				Pos:     body.Pos(),
			}
		}
		for _, p := range pair {
			if strings.HasSuffix(p, ontology.InverseSuffix) {
				return nil, &CompileError{
					Field:   field,
					Message: fmt.Sprintf("inverseOf takes property names, got inverse role %s", p),
					Pos:     body.Pos(),
				}
			}
		}
		return []ontology.Axiom{ontology.InverseOf{P: pair[0], Q: pair[1]}}, nil

	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unknown axiom kind %q", kind),
			Pos:     v.Pos(),
		}
	}
}

// basicConcept reads a named class ("A") or an existential ({some: "r"}).
func basicConcept(v cue.Value, name, field string) (ontology.BasicConcept, error) {
	field += "." + name
	cv := v.LookupPath(cue.ParsePath(name))
	if !cv.Exists() {
		return ontology.BasicConcept{}, &CompileError{Field: field, Message: "is required", Pos: v.Pos()}
	}

	switch cv.IncompleteKind() {
	case cue.StringKind:
		s, err := cv.String()
		if err != nil {
			return ontology.BasicConcept{}, formatCUEError(err)
		}
		if s == "" || strings.HasSuffix(s, ontology.InverseSuffix) {
			return ontology.BasicConcept{}, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("invalid class name %q", s),
				Pos:     cv.Pos(),
			}
		}
		return ontology.Class(s), nil
	case cue.StructKind:
		r, err := role(cv, "some", field)
		if err != nil {
			return ontology.BasicConcept{}, err
		}
		return ontology.Some(r), nil
	default:
		return ontology.BasicConcept{}, &CompileError{
			Field:   field,
			Message: "must be a class name or {some: role}",
			Pos:     cv.Pos(),
		}
	}
}

// role reads a role name, "r" or "r-".
func role(v cue.Value, name, field string) (ontology.Role, error) {
	field += "." + name
	rv := v.LookupPath(cue.ParsePath(name))
	if !rv.Exists() {
		return ontology.Role{}, &CompileError{Field: field, Message: "is required", Pos: v.Pos()}
	}
	s, err := rv.String()
	if err != nil {
		return ontology.Role{}, &CompileError{Field: field, Message: "must be a role name", Pos: rv.Pos()}
	}
	r := ontology.ParseRole(s)
	if r.Name == "" || strings.HasSuffix(r.Name, ontology.InverseSuffix) {
		return ontology.Role{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("invalid role %q", s),
			Pos:     rv.Pos(),
		}
	}
	return r, nil
}

// stringList reads an optional list of strings.
func stringList(v cue.Value, name string) ([]string, error) {
	lv := v.LookupPath(cue.ParsePath(name))
	if !lv.Exists() {
		return nil, nil
	}
	var out []string
	if err := lv.Decode(&out); err != nil {
		return nil, &CompileError{Field: name, Message: "must be a list of names", Pos: lv.Pos()}
	}
	return out, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
