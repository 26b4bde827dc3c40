package querycypher

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/crpq/internal/queryir"
)

// Validate reports translation hazards that do not stop Translate but can
// change what the statement returns. An empty result means none were found.
func Validate(answers []queryir.Term, queries []queryir.Query) []string {
	var warnings []string
	for i, q := range queries {
		prefix := fmt.Sprintf("query %d: ", i+1)

		switch {
		case len(answers) > 0 && len(q.Head) == 0:
			warnings = append(warnings, prefix+"boolean query has no head to project the answers from")
		case len(answers) > 0 && len(answers) != len(q.Head):
			warnings = append(warnings, fmt.Sprintf("%s%d answers for a head of %d terms; projecting %d",
				prefix, len(answers), len(q.Head), min(len(answers), len(q.Head))))
		}

		mixed := 0
		for _, a := range q.Body {
			if r, ok := a.(queryir.RoleAtom); ok && r.Roles.AnyInverse() && !r.Roles.AllInverse() {
				mixed++
				warnings = append(warnings, fmt.Sprintf("%s%s mixes directions and is matched undirected", prefix, r))
			}
		}
		if mixed == 0 {
			continue
		}
		for _, t := range q.Variables() {
			if n, ok := relationshipIndex(NodeVar(t)); ok && n <= mixed {
				warnings = append(warnings, fmt.Sprintf("%svariable %s collides with a relationship variable", prefix, t.Name))
			}
		}
	}
	return warnings
}

func relationshipIndex(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, RelationshipPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || strconv.Itoa(n) != rest {
		return 0, false
	}
	return n, true
}
