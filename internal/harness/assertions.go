package harness

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/crpq/internal/ontology"
	"github.com/roach88/crpq/internal/parser"
	"github.com/roach88/crpq/internal/queryir"
	"github.com/roach88/crpq/internal/store"
)

// validIdentifier matches valid SQL identifiers (table/column names).
// Only allows alphanumeric and underscore, must start with letter or underscore.
// This prevents SQL injection via identifier interpolation.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Queries  []string // Full rewriting for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Queries) > 0 {
		fmt.Fprintf(&buf, "\nFull rewriting:\n")
		for i, key := range e.Queries {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, key)
		}
	}

	return buf.String()
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store    *store.Store
	Ctx      context.Context
	Ontology *ontology.Ontology
	RunID    string
}

// normalKey parses text and returns the key of its saturated tau form,
// the shape every query of a rewriting has.
func (a *AssertionContext) normalKey(text string) (string, error) {
	q, err := parser.Parse(text, nil)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", text, err)
	}
	if a != nil && a.Ontology != nil {
		q = q.Saturate(a.Ontology)
	}
	return queryir.Tau(q).Key(), nil
}

func assertQueryCount(queries []string, assertion Assertion) error {
	if len(queries) != assertion.Count {
		return &AssertionError{
			Type:     AssertQueryCount,
			Expected: fmt.Sprintf("%d queries", assertion.Count),
			Actual:   fmt.Sprintf("%d queries", len(queries)),
			Queries:  queries,
		}
	}
	return nil
}

// assertContainsQuery checks whether the union contains the query (want
// true) or does not (want false).
func assertContainsQuery(queries []string, assertion Assertion, actx *AssertionContext, want bool) error {
	key, err := actx.normalKey(assertion.Query)
	if err != nil {
		return err
	}
	if slices.Contains(queries, key) == want {
		return nil
	}
	if want {
		return &AssertionError{
			Type:     AssertContainsQuery,
			Expected: fmt.Sprintf("query %s", key),
			Actual:   "not found in rewriting",
			Queries:  queries,
		}
	}
	return &AssertionError{
		Type:     AssertExcludesQuery,
		Expected: fmt.Sprintf("no query %s", key),
		Actual:   "found in rewriting",
		Queries:  queries,
	}
}

// assertQueryOrder checks that queries were discovered in the given order.
// They need not be consecutive (intervening queries are allowed).
func assertQueryOrder(queries []string, assertion Assertion, actx *AssertionContext) error {
	prev, prevPos := "", 0
	for _, text := range assertion.Queries {
		key, err := actx.normalKey(text)
		if err != nil {
			return err
		}
		pos := slices.Index(queries, key) + 1 // 1-indexed for readability
		if pos == 0 {
			return &AssertionError{
				Type:     AssertQueryOrder,
				Expected: fmt.Sprintf("all queries present: %v", assertion.Queries),
				Actual:   fmt.Sprintf("missing query: %s", key),
				Queries:  queries,
			}
		}
		if pos <= prevPos {
			return &AssertionError{
				Type:     AssertQueryOrder,
				Expected: fmt.Sprintf("queries in order: %v", assertion.Queries),
				Actual:   fmt.Sprintf("%s (pos %d) should be before %s (pos %d)", prev, prevPos, key, pos),
				Queries:  queries,
			}
		}
		prev, prevPos = key, pos
	}
	return nil
}

// assertDerivedBy checks that some edge on the query's lineage applied
// the rule. The lineage is read back from the exported run.
func assertDerivedBy(queries []string, assertion Assertion, actx *AssertionContext) error {
	key, err := actx.normalKey(assertion.Query)
	if err != nil {
		return err
	}

	stored, err := actx.Store.ReadRunQueries(actx.Ctx, actx.RunID)
	if err != nil {
		return fmt.Errorf("read run queries: %w", err)
	}
	idx := slices.IndexFunc(stored, func(rq store.RunQuery) bool { return rq.Key == key })
	if idx < 0 {
		return &AssertionError{
			Type:     AssertDerivedBy,
			Expected: fmt.Sprintf("query %s derived by %s", key, assertion.Rule),
			Actual:   "query not found in rewriting",
			Queries:  queries,
		}
	}

	lineage, err := actx.Store.Lineage(actx.Ctx, actx.RunID, stored[idx].QueryID)
	if err != nil {
		return fmt.Errorf("read lineage: %w", err)
	}
	rules := make([]string, len(lineage))
	for i, d := range lineage {
		rules[i] = d.Rule
	}
	if !slices.Contains(rules, assertion.Rule) {
		return &AssertionError{
			Type:     AssertDerivedBy,
			Expected: fmt.Sprintf("query %s derived by %s", key, assertion.Rule),
			Actual:   fmt.Sprintf("lineage rules %v", rules),
			Queries:  queries,
		}
	}
	return nil
}

func assertCypherContains(cypher string, queries []string, assertion Assertion) error {
	if !strings.Contains(cypher, assertion.Text) {
		return &AssertionError{
			Type:     AssertCypherContains,
			Expected: fmt.Sprintf("Cypher containing %q", assertion.Text),
			Actual:   cypher,
			Queries:  queries,
		}
	}
	return nil
}

// assertFinalState checks that an export table contains expected values.
// Queries the table with parameterized SQL and validates expected values
// using subset semantics.
//
// Security: Table and column names are validated against a whitelist pattern
// to prevent SQL injection via identifier interpolation.
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	if assertion.Table == "" {
		return fmt.Errorf("final_state assertion requires table name")
	}

	// Validate table name to prevent SQL injection (identifiers can't be parameterized)
	if !validIdentifier.MatchString(assertion.Table) {
		return fmt.Errorf("invalid table name %q: must match pattern %s", assertion.Table, validIdentifier.String())
	}

	whereSQL, whereArgs, err := buildWhereClause(assertion.Where)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("SELECT * FROM %s", assertion.Table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	rows, err := st.Query(ctx, query, whereArgs...)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}

	if !rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "row not found",
		}
	}

	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return fmt.Errorf("scan row: %w", err)
	}

	// Check for multiple matching rows (would indicate ambiguous assertion)
	if rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	actualRow := make(map[string]interface{})
	for i, col := range columns {
		actualRow[col] = values[i]
	}

	// Sorted for a deterministic first failure.
	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actualRow[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in result columns: %v", key, columns),
			}
		}
		if !stateValuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expectedValue, expectedValue),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actualValue, actualValue),
			}
		}
	}

	return nil
}

// buildWhereClause constructs parameterized WHERE clause from assertion.Where.
// Returns SQL fragment, arguments slice, and error. Keys are sorted for determinism.
func buildWhereClause(where map[string]interface{}) (string, []interface{}, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys))

	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		clauses = append(clauses, fmt.Sprintf("%s = ?", key))
		args = append(args, toSQLValue(where[key]))
	}

	return strings.Join(clauses, " AND "), args, nil
}

// toSQLValue converts a YAML-decoded value to a SQL-compatible value.
func toSQLValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string, int, int64, bool:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]interface{}) string {
	if len(where) == 0 {
		return "(no conditions)"
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

// stateValuesEqual compares expected and actual values from export tables.
// Handles type coercion for SQLite values which may be returned as different types.
func stateValuesEqual(expected, actual interface{}) bool {
	if expected == nil && actual == nil {
		return true
	}
	if expected == nil || actual == nil {
		return false
	}

	switch exp := expected.(type) {
	case string:
		switch act := actual.(type) {
		case string:
			return exp == act
		case []byte:
			return exp == string(act)
		}
		return false
	case int:
		if actualInt, ok := actual.(int64); ok {
			return int64(exp) == actualInt
		}
		if actualInt, ok := actual.(int); ok {
			return exp == actualInt
		}
		return false
	case int64:
		if actualInt, ok := actual.(int64); ok {
			return exp == actualInt
		}
		return false
	case bool:
		if actualBool, ok := actual.(bool); ok {
			return exp == actualBool
		}
		// SQLite stores booleans as integers
		if actualInt, ok := actual.(int64); ok {
			return exp == (actualInt != 0)
		}
		return false
	}

	return reflect.DeepEqual(expected, actual)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides the ontology for query matching and database
// access for derived_by and final_state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertQueryCount:
			err = assertQueryCount(result.Queries, assertion)
		case AssertContainsQuery:
			err = assertContainsQuery(result.Queries, assertion, actx, true)
		case AssertExcludesQuery:
			err = assertContainsQuery(result.Queries, assertion, actx, false)
		case AssertQueryOrder:
			err = assertQueryOrder(result.Queries, assertion, actx)
		case AssertCypherContains:
			err = assertCypherContains(result.Cypher, result.Queries, assertion)
		case AssertDerivedBy:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: derived_by requires database context", i)
			} else {
				err = assertDerivedBy(result.Queries, assertion, actx)
			}
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires database context", i)
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
