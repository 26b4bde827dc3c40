package compiler

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/crpq/internal/ontology"
	"github.com/roach88/crpq/internal/parser"
	"github.com/roach88/crpq/internal/queryir"
)

// NamedQuery is a query declared in a spec's queries struct.
type NamedQuery struct {
	Name  string
	Text  string
	Query queryir.Query

	// Declared lists the concept names the query used that the ontology
	// did not declare; parsing declared them.
	Declared []string
}

// CompileQueries parses the optional queries struct of an ontology spec
// against o, in declaration order. A query that fails to parse is a
// *CompileError positioned at its string.
func CompileQueries(v cue.Value, o *ontology.Ontology) ([]NamedQuery, error) {
	qv := v.LookupPath(cue.ParsePath("queries"))
	if !qv.Exists() {
		return nil, nil
	}

	iter, err := qv.Fields()
	if err != nil {
		return nil, &CompileError{Field: "queries", Message: "must be a struct of query strings", Pos: qv.Pos()}
	}

	var out []NamedQuery
	for iter.Next() {
		name, val := iter.Label(), iter.Value()
		field := "queries." + name

		text, err := val.String()
		if err != nil {
			return nil, &CompileError{Field: field, Message: "must be a query string", Pos: val.Pos()}
		}

		sig := &recordingSignature{Ontology: o}
		q, err := parser.Parse(text, sig)
		if err != nil {
			var pe *parser.ParseError
			if errors.As(err, &pe) {
				return nil, &CompileError{
					Field:   field,
					Message: fmt.Sprintf("%s: %s", pe.Pos, pe.Message),
					Pos:     val.Pos(),
				}
			}
			return nil, fmt.Errorf("%s: %w", field, err)
		}

		out = append(out, NamedQuery{Name: name, Text: text, Query: q, Declared: sig.declared})
	}
	return out, nil
}

// recordingSignature is an ontology signature that remembers which
// concept names the parser declared.
type recordingSignature struct {
	*ontology.Ontology
	declared []string
}

func (s *recordingSignature) DeclareClass(name string) bool {
	if !s.Ontology.DeclareClass(name) {
		return false
	}
	s.declared = append(s.declared, name)
	return true
}
