package parser

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Position is a location in the query text. Line and Column are 1-based;
// Column counts runes.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokLParen
	tokRParen
	tokComma
	tokPipe
	tokStar
	tokMinus
	tokNeck // ":-"
)

var tokenNames = map[tokenKind]string{
	tokEOF:    "end of input",
	tokWord:   "name",
	tokLParen: "'('",
	tokRParen: "')'",
	tokComma:  "','",
	tokPipe:   "'|'",
	tokStar:   "'*'",
	tokMinus:  "'-'",
	tokNeck:   "':-'",
}

func (k tokenKind) String() string {
	return tokenNames[k]
}

var punctuation = map[rune]tokenKind{
	'(': tokLParen,
	')': tokRParen,
	',': tokComma,
	'|': tokPipe,
	'*': tokStar,
	'-': tokMinus,
}

type token struct {
	kind tokenKind
	text string
	pos  Position
}

func (t token) describe() string {
	if t.kind == tokWord {
		return fmt.Sprintf("name %q", t.text)
	}
	return t.kind.String()
}

// lexer splits query text into tokens, skipping whitespace.
type lexer struct {
	src  string
	off  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) pos() Position {
	return Position{Offset: l.off, Line: l.line, Column: l.col}
}

func (l *lexer) peekRune() (rune, int) {
	if l.off >= len(l.src) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(l.src[l.off:])
}

func (l *lexer) advance() rune {
	r, size := l.peekRune()
	l.off += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// next returns the next token or a *ParseError for an unexpected character.
func (l *lexer) next() (token, error) {
	for {
		r, size := l.peekRune()
		if size == 0 || !unicode.IsSpace(r) {
			break
		}
		l.advance()
	}

	start := l.pos()
	r, size := l.peekRune()
	if size == 0 {
		return token{kind: tokEOF, pos: start}, nil
	}

	if kind, ok := punctuation[r]; ok {
		l.advance()
		return token{kind: kind, text: string(r), pos: start}, nil
	}

	if r == ':' {
		l.advance()
		if next, _ := l.peekRune(); next == '-' {
			l.advance()
			return token{kind: tokNeck, text: ":-", pos: start}, nil
		}
		return token{}, &ParseError{Pos: start, Message: "expected ':-'"}
	}

	if isWordRune(r) {
		for {
			r, size := l.peekRune()
			if size == 0 || !isWordRune(r) {
				break
			}
			l.advance()
		}
		return token{kind: tokWord, text: l.src[start.Offset:l.off], pos: start}, nil
	}

	if r == utf8.RuneError {
		return token{}, &ParseError{Pos: start, Message: "invalid UTF-8 encoding"}
	}
	return token{}, &ParseError{Pos: start, Message: fmt.Sprintf("unexpected character %q", r)}
}
