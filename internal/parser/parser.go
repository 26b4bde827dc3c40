// Package parser reads conjunctive regular path queries written as
//
//	q(x,y) :- Professor(x), (teaches|givesLab)(x,z), (next|jump)*(z,y)
//
// A label group followed by '*' is a path atom. A role name followed by
// '-' is the inverse role. The variable "_" stands for a fresh unbound term,
// named so that it never meets a word written in the query.
// Identifiers are normalized to Unicode NFC before parsing.
package parser

import (
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/crpq/internal/ontology"
	"github.com/roach88/crpq/internal/queryir"
)

// ParseError reports malformed query text or an unknown role.
type ParseError struct {
	Pos     Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Pos, e.Message)
}

// Signature is the part of an ontology the parser consults.
// *ontology.Ontology implements it.
type Signature interface {
	HasClass(name string) bool
	HasProperty(name string) bool
	DeclareClass(name string) bool
}

// Parser turns query text into a queryir.Query.
//
// With a signature, every role must be a declared property and unknown
// concept names are declared on the fly. A nil signature accepts any name.
type Parser struct {
	sig    Signature
	logger *slog.Logger
}

// New creates a parser bound to a signature (may be nil).
func New(sig Signature) *Parser {
	return &Parser{sig: sig, logger: slog.Default()}
}

// WithLogger returns a copy of the parser that logs through logger.
func (p *Parser) WithLogger(logger *slog.Logger) *Parser {
	cp := *p
	cp.logger = logger
	return &cp
}

// Parse is shorthand for New(sig).Parse(input).
func Parse(input string, sig Signature) (queryir.Query, error) {
	return New(sig).Parse(input)
}

// Parse reads one query. Errors are *ParseError.
func (p *Parser) Parse(input string) (queryir.Query, error) {
	src := norm.NFC.String(input)
	st := &state{
		parser: p,
		lex:    newLexer(src),
		words:  scanWords(src),
	}
	if err := st.advance(); err != nil {
		return queryir.Query{}, err
	}
	return st.query()
}

type label struct {
	name    string
	inverse bool
	pos     Position
}

// state is one parse in progress: a token of lookahead over the lexer.
type state struct {
	parser *Parser
	lex    *lexer
	tok    token
	anon   int
	words  map[string]bool // every word of the input
}

// scanWords collects the words of src. A lexical error ends the scan; the
// parse proper reports it.
func scanWords(src string) map[string]bool {
	words := make(map[string]bool)
	lex := newLexer(src)
	for {
		tok, err := lex.next()
		if err != nil || tok.kind == tokEOF {
			return words
		}
		if tok.kind == tokWord {
			words[tok.text] = true
		}
	}
}

// freshAnon names the next "_" of the query. The name is neither a word of
// the input nor one once the unbound prefix is added, so the term cannot
// capture a user variable when bound, nor share its Cypher variable.
func (s *state) freshAnon() queryir.Term {
	for {
		s.anon++
		name := queryir.UnboundMark + strconv.Itoa(s.anon)
		if !s.words[name] && !s.words[queryir.UnboundMark+name] {
			return queryir.Anon(name)
		}
	}
}

func (s *state) advance() error {
	tok, err := s.lex.next()
	if err != nil {
		return err
	}
	s.tok = tok
	return nil
}

func (s *state) errorf(pos Position, format string, args ...any) error {
	return &ParseError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func (s *state) expect(kind tokenKind) (token, error) {
	tok := s.tok
	if tok.kind != kind {
		return tok, s.errorf(tok.pos, "expected %s, got %s", kind, tok.describe())
	}
	return tok, s.advance()
}

// query := WORD '(' [var {',' var}] ')' ':-' atom {',' atom} EOF
func (s *state) query() (queryir.Query, error) {
	if _, err := s.expect(tokWord); err != nil {
		return queryir.Query{}, err
	}
	if _, err := s.expect(tokLParen); err != nil {
		return queryir.Query{}, err
	}

	var head []queryir.Term
	if s.tok.kind != tokRParen {
		for {
			tok, err := s.expect(tokWord)
			if err != nil {
				return queryir.Query{}, err
			}
			if tok.text == queryir.UnboundMark {
				return queryir.Query{}, s.errorf(tok.pos, "answer variable cannot be %q", queryir.UnboundMark)
			}
			head = append(head, queryir.Var(tok.text))
			if s.tok.kind != tokComma {
				break
			}
			if err := s.advance(); err != nil {
				return queryir.Query{}, err
			}
		}
	}
	if _, err := s.expect(tokRParen); err != nil {
		return queryir.Query{}, err
	}
	if _, err := s.expect(tokNeck); err != nil {
		return queryir.Query{}, err
	}

	var body []queryir.Atom
	for {
		atom, err := s.atom()
		if err != nil {
			return queryir.Query{}, err
		}
		body = append(body, atom)
		if s.tok.kind != tokComma {
			break
		}
		if err := s.advance(); err != nil {
			return queryir.Query{}, err
		}
	}
	if s.tok.kind != tokEOF {
		return queryir.Query{}, s.errorf(s.tok.pos, "expected ',' or end of input, got %s", s.tok.describe())
	}

	return queryir.NewQuery(head, body...), nil
}

// atom := labels ['*'] '(' var [',' var] ')'
func (s *state) atom() (queryir.Atom, error) {
	start := s.tok.pos
	labels, err := s.labels()
	if err != nil {
		return nil, err
	}

	path := false
	if s.tok.kind == tokStar {
		path = true
		if err := s.advance(); err != nil {
			return nil, err
		}
	}

	if _, err := s.expect(tokLParen); err != nil {
		return nil, err
	}
	first, err := s.variable()
	if err != nil {
		return nil, err
	}

	if s.tok.kind == tokRParen {
		if err := s.advance(); err != nil {
			return nil, err
		}
		if path {
			return nil, s.errorf(start, "path atom needs two variables")
		}
		return s.concept(labels, first)
	}

	if _, err := s.expect(tokComma); err != nil {
		return nil, err
	}
	second, err := s.variable()
	if err != nil {
		return nil, err
	}
	if _, err := s.expect(tokRParen); err != nil {
		return nil, err
	}

	roles, err := s.roles(labels)
	if err != nil {
		return nil, err
	}
	if !path {
		return queryir.RoleAtom{Roles: roles, Left: first, Right: second}, nil
	}
	atom, err := queryir.NewPathAtom(roles, first, second)
	if err != nil {
		return nil, s.errorf(start, "%v", err)
	}
	return atom, nil
}

// labels := name | '(' name {'|' name} ')'
// name   := WORD ['-']
func (s *state) labels() ([]label, error) {
	if s.tok.kind != tokLParen {
		l, err := s.label()
		if err != nil {
			return nil, err
		}
		return []label{l}, nil
	}

	if err := s.advance(); err != nil {
		return nil, err
	}
	var out []label
	for {
		l, err := s.label()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
		if s.tok.kind != tokPipe {
			break
		}
		if err := s.advance(); err != nil {
			return nil, err
		}
	}
	if _, err := s.expect(tokRParen); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *state) label() (label, error) {
	tok, err := s.expect(tokWord)
	if err != nil {
		return label{}, err
	}
	l := label{name: tok.text, pos: tok.pos}
	if s.tok.kind == tokMinus {
		l.inverse = true
		if err := s.advance(); err != nil {
			return label{}, err
		}
	}
	return l, nil
}

func (s *state) variable() (queryir.Term, error) {
	tok, err := s.expect(tokWord)
	if err != nil {
		return queryir.Term{}, err
	}
	if tok.text == queryir.UnboundMark {
		return s.freshAnon(), nil
	}
	return queryir.Var(tok.text), nil
}

func (s *state) concept(labels []label, t queryir.Term) (queryir.Atom, error) {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		if l.inverse {
			return nil, s.errorf(l.pos, "concept %s cannot be inverted", l.name)
		}
		if sig := s.parser.sig; sig != nil && !sig.HasClass(l.name) {
			if sig.HasProperty(l.name) {
				return nil, s.errorf(l.pos, "%s is a role, used as a concept", l.name)
			}
			if sig.DeclareClass(l.name) {
				s.parser.logger.Debug("declared unknown concept", "name", l.name)
			}
		}
		names = append(names, l.name)
	}
	return queryir.Concept(t, names...), nil
}

func (s *state) roles(labels []label) (queryir.RoleSet, error) {
	roles := make([]ontology.Role, 0, len(labels))
	for _, l := range labels {
		if sig := s.parser.sig; sig != nil && !sig.HasProperty(l.name) {
			return nil, s.errorf(l.pos, "unknown role %s", l.name)
		}
		roles = append(roles, ontology.Role{Name: l.name, Inverse: l.inverse})
	}
	return queryir.NewRoleSet(roles...), nil
}
