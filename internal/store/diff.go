package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// RunDiff compares the unions of two runs by query ID.
type RunDiff struct {
	Base  string
	Other string

	// Added holds queries of Other missing from Base, in Other's order.
	Added []RunQuery
	// Removed holds queries of Base missing from Other, in Base's order.
	Removed []RunQuery
}

// Same reports whether both runs produced the same set of queries.
func (d RunDiff) Same() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// DiffRuns compares the unions of two stored runs. Discovery order is not
// compared; only membership is.
func (s *Store) DiffRuns(ctx context.Context, base, other string) (RunDiff, error) {
	for _, id := range []string{base, other} {
		if _, err := s.ReadRun(ctx, id); err != nil {
			return RunDiff{}, fmt.Errorf("diff runs: run %s: %w", id, err)
		}
	}

	baseQueries, err := s.ReadRunQueries(ctx, base)
	if err != nil {
		return RunDiff{}, fmt.Errorf("diff runs: %w", err)
	}
	otherQueries, err := s.ReadRunQueries(ctx, other)
	if err != nil {
		return RunDiff{}, fmt.Errorf("diff runs: %w", err)
	}

	diff := RunDiff{Base: base, Other: other}
	diff.Added = missingFrom(otherQueries, baseQueries)
	diff.Removed = missingFrom(baseQueries, otherQueries)
	return diff, nil
}

// missingFrom returns the queries of from whose IDs do not occur in in.
func missingFrom(from, in []RunQuery) []RunQuery {
	ids := make(map[string]bool, len(in))
	for _, q := range in {
		ids[q.QueryID] = true
	}
	var out []RunQuery
	for _, q := range from {
		if !ids[q.QueryID] {
			out = append(out, q)
		}
	}
	return out
}

// LatestRun returns the most recently exported run with the same ontology
// hash and input query, excluding excludeID. found is false when there is
// none.
func (s *Store) LatestRun(ctx context.Context, ontologyHash, inputQuery, excludeID string) (run Run, found bool, err error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE ontology_hash = ? AND input_query = ? AND id != ?
		ORDER BY seq DESC, id COLLATE BINARY DESC
		LIMIT 1
	`, ontologyHash, inputQuery, excludeID)

	run, err = scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, fmt.Errorf("latest run: %w", err)
	}
	return run, true, nil
}
