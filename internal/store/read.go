package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"
)

const runColumns = `id, seq, ontology_name, ontology_hash, input_query, answer_vars, query_count, steps, engine_version, exported_at`

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run        Run
		answerVars string
		exportedAt string
	)
	err := row.Scan(
		&run.ID,
		&run.Seq,
		&run.OntologyName,
		&run.OntologyHash,
		&run.InputQuery,
		&answerVars,
		&run.QueryCount,
		&run.Steps,
		&run.EngineVersion,
		&exportedAt,
	)
	if err != nil {
		return Run{}, err
	}

	run.AnswerVars, err = unmarshalNames(answerVars)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: %w", run.ID, err)
	}
	run.ExportedAt, err = time.Parse(time.RFC3339, exportedAt)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: exported_at: %w", run.ID, err)
	}
	return run, nil
}

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns every run in export order.
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRunQueries returns the union of a run in discovery order.
// Returns an empty slice (not nil) if the run has no queries or does not exist.
func (s *Store) ReadRunQueries(ctx context.Context, runID string) ([]RunQuery, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, query_id, seq, key, text, cypher
		FROM run_queries
		WHERE run_id = ?
		ORDER BY seq ASC, query_id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run queries: %w", err)
	}
	defer rows.Close()

	queries := []RunQuery{}
	for rows.Next() {
		var q RunQuery
		if err := rows.Scan(&q.RunID, &q.QueryID, &q.Seq, &q.Key, &q.Text, &q.Cypher); err != nil {
			return nil, fmt.Errorf("scan run query: %w", err)
		}
		queries = append(queries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run queries: %w", err)
	}
	return queries, nil
}

const derivationColumns = `id, run_id, parent_id, child_id, rule, detail, seq`

func scanDerivation(row scanner) (Derivation, error) {
	var d Derivation
	err := row.Scan(&d.ID, &d.RunID, &d.ParentID, &d.ChildID, &d.Rule, &d.Detail, &d.Seq)
	return d, err
}

// ReadDerivations returns the provenance edges of a run in discovery order.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ReadDerivations(ctx context.Context, runID string) ([]Derivation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+derivationColumns+`
		FROM derivations
		WHERE run_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query derivations: %w", err)
	}
	defer rows.Close()

	derivations := []Derivation{}
	for rows.Next() {
		d, err := scanDerivation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan derivation: %w", err)
		}
		derivations = append(derivations, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate derivations: %w", err)
	}
	return derivations, nil
}

// Lineage returns the chain of derivations that led from the run's first
// query to queryID, first step first. The first query of a run has an
// empty lineage. Returns sql.ErrNoRows (wrapped) if queryID is not part of
// the run.
func (s *Store) Lineage(ctx context.Context, runID, queryID string) ([]Derivation, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM run_queries WHERE run_id = ? AND query_id = ?
	`, runID, queryID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("lineage of %s: %w", queryID, err)
	}

	chain := []Derivation{}
	visited := map[string]bool{queryID: true}
	for current := queryID; ; {
		row := s.db.QueryRowContext(ctx, `
			SELECT `+derivationColumns+`
			FROM derivations
			WHERE run_id = ? AND child_id = ?
		`, runID, current)
		d, err := scanDerivation(row)
		if errors.Is(err, sql.ErrNoRows) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("lineage of %s: %w", queryID, err)
		}
		if visited[d.ParentID] {
			return nil, fmt.Errorf("lineage of %s: cycle at %s", queryID, d.ParentID)
		}
		visited[d.ParentID] = true
		chain = append(chain, d)
		current = d.ParentID
	}

	slices.Reverse(chain)
	return chain, nil
}
