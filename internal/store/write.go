package store

import (
	"context"
	"fmt"
	"time"
)

// WriteRun stores a run with its queries and derivations in one
// transaction. Returns inserted=false, and writes nothing, when a run with
// the same ID already exists.
//
// The run's Seq is assigned here as one more than the largest stored Seq;
// rec.Run.Seq and rec.Run.ExportedAt are ignored.
func (s *Store) WriteRun(ctx context.Context, rec RunRecord) (inserted bool, err error) {
	answerVars, err := marshalNames(rec.Run.AnswerVars)
	if err != nil {
		return false, fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	run := rec.Run
	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, ontology_name, ontology_hash, input_query, answer_vars, query_count, steps, engine_version, exported_at)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM runs), ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.OntologyName,
		run.OntologyHash,
		run.InputQuery,
		answerVars,
		run.QueryCount,
		run.Steps,
		run.EngineVersion,
		s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("write run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write run: rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	for _, q := range rec.Queries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_queries
			(run_id, query_id, seq, key, text, cypher)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, run.ID, q.QueryID, q.Seq, q.Key, q.Text, q.Cypher)
		if err != nil {
			return false, fmt.Errorf("write run: query %s: %w", q.QueryID, err)
		}
	}

	for _, d := range rec.Derivations {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO derivations
			(id, run_id, parent_id, child_id, rule, detail, seq)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, d.ID, run.ID, d.ParentID, d.ChildID, d.Rule, d.Detail, d.Seq)
		if err != nil {
			return false, fmt.Errorf("write run: derivation %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write run: commit: %w", err)
	}
	return true, nil
}
