package querycypher

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/crpq/internal/queryir"
)

// UnionSeparator joins the fragments of a translated union.
const UnionSeparator = "\nunion\n"

// RelationshipPrefix starts the name of every relationship variable the
// translator introduces for mixed-direction role atoms.
const RelationshipPrefix = "r"

// Translate renders queries as one Cypher statement.
//
// Position i of every query head is returned under the name answers[i];
// only the first min(len(answers), len(head)) positions are projected. An
// empty answers list makes every fragment boolean ("return distinct 1").
func Translate(answers []queryir.Term, queries []queryir.Query) (string, error) {
	if len(queries) == 0 {
		return "", fmt.Errorf("cannot translate an empty union")
	}

	seen := make(map[string]bool, len(queries))
	fragments := make([]string, 0, len(queries))
	for i, q := range queries {
		f, err := TranslateQuery(answers, q)
		if err != nil {
			return "", fmt.Errorf("query %d: %w", i+1, err)
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		fragments = append(fragments, f)
	}
	return strings.Join(fragments, UnionSeparator), nil
}

// TranslateQuery renders one query as a single fragment.
func TranslateQuery(answers []queryir.Term, q queryir.Query) (string, error) {
	f := &fragment{}
	for _, a := range q.Body {
		if err := f.add(a); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	for _, m := range sortedUnique(f.matches) {
		b.WriteString(m)
		b.WriteByte('\n')
	}
	if where := sortedUnique(f.where); len(where) > 0 {
		b.WriteString("where ")
		b.WriteString(strings.Join(where, " and "))
		b.WriteByte('\n')
	}
	b.WriteString(returnClause(answers, q.Head))
	return b.String(), nil
}

// fragment collects the clauses of one query.
type fragment struct {
	matches []string
	where   []string
	rels    int // relationship variables handed out
}

func (f *fragment) add(a queryir.Atom) error {
	switch atom := a.(type) {
	case queryir.ConceptAtom:
		v := NodeVar(atom.Term)
		f.matches = append(f.matches, "match ("+v+")")
		labels := make([]string, len(atom.Names))
		for i, name := range atom.Names {
			labels[i] = v + ":" + name
		}
		f.where = append(f.where, "("+strings.Join(labels, " or ")+")")

	case queryir.RoleAtom:
		l, r := NodeVar(atom.Left), NodeVar(atom.Right)
		types := strings.Join(atom.Roles.Names(), "|")
		switch {
		case !atom.Roles.AnyInverse():
			f.matches = append(f.matches, fmt.Sprintf("match (%s)-[:%s]->(%s)", l, types, r))
		case atom.Roles.AllInverse():
			f.matches = append(f.matches, fmt.Sprintf("match (%s)<-[:%s]-(%s)", l, types, r))
		default:
			f.rels++
			rel := RelationshipPrefix + strconv.Itoa(f.rels)
			f.matches = append(f.matches, fmt.Sprintf("match (%s)-[%s:%s]-(%s)", l, rel, types, r))
			f.where = append(f.where, directions(rel, atom, l, r))
		}

	case queryir.PathAtom:
		l, r := NodeVar(atom.Left), NodeVar(atom.Right)
		types := strings.Join(atom.Roles.Names(), "|")
		f.matches = append(f.matches, fmt.Sprintf("match (%s)-[:%s*0..]->(%s)", l, types, r))

	default:
		return fmt.Errorf("unsupported atom type: %T", a)
	}
	return nil
}

// directions constrains an undirected match of rel to the orientation each
// role in atom requires: a direct role starts at l, an inverse one at r.
func directions(rel string, atom queryir.RoleAtom, l, r string) string {
	parts := make([]string, len(atom.Roles))
	for i, role := range atom.Roles {
		start := l
		if role.Inverse {
			start = r
		}
		parts[i] = fmt.Sprintf("(startnode(%s)=%s and type(%s)=%q)", rel, start, rel, role.Name)
	}
	return "(" + strings.Join(sortedUnique(parts), " or ") + ")"
}

func returnClause(answers, head []queryir.Term) string {
	if len(answers) == 0 {
		return "return distinct 1"
	}
	n := min(len(answers), len(head))
	cols := make([]string, n)
	for i := 0; i < n; i++ {
		cols[i] = NodeVar(head[i]) + " as " + answers[i].Name
	}
	return "return distinct " + strings.Join(cols, ", ")
}

// NodeVar returns the Cypher variable for a term: its name, or "_" and its
// name when unbound.
func NodeVar(t queryir.Term) string {
	if t.Unbound {
		return queryir.UnboundMark + t.Name
	}
	return t.Name
}

func sortedUnique(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}
