package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/crpq/internal/engine"
	"github.com/roach88/crpq/internal/ontology"
	"github.com/roach88/crpq/internal/queryir"
	"github.com/roach88/crpq/internal/testutil"
)

// createTestStore creates a new store in a temp dir with a step clock.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithNow(testutil.NewStepClock().Now))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// rewrite runs the engine with derivations on and a fixed run ID.
func rewrite(t *testing.T, runID string, o *ontology.Ontology, q queryir.Query) *engine.Result {
	t.Helper()
	r := engine.New(o,
		engine.WithDerivations(true),
		engine.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(runID)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	res, err := r.Rewrite(context.Background(), q)
	require.NoError(t, err)
	return res
}

func universityRecord(t *testing.T, runID string) RunRecord {
	t.Helper()
	o := testutil.University()
	res := rewrite(t, runID, o, testutil.TeachesCourse())
	rec, err := NewRunRecord(o, res, []queryir.Term{queryir.Var("x")})
	require.NoError(t, err)
	return rec
}

func supervisionRecord(t *testing.T, runID string) RunRecord {
	t.Helper()
	o := testutil.Supervision()
	res := rewrite(t, runID, o, testutil.SupervisedByProfessor())
	rec, err := NewRunRecord(o, res, []queryir.Term{queryir.Var("x")})
	require.NoError(t, err)
	return rec
}

func writeRecord(t *testing.T, s *Store, rec RunRecord) {
	t.Helper()
	inserted, err := s.WriteRun(context.Background(), rec)
	require.NoError(t, err)
	require.True(t, inserted)
}
