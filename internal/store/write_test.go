package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crpq/internal/engine"
	"github.com/roach88/crpq/internal/ir"
	"github.com/roach88/crpq/internal/querycypher"
	"github.com/roach88/crpq/internal/queryir"
	"github.com/roach88/crpq/internal/testutil"
)

func TestNewRunRecord(t *testing.T) {
	o := testutil.University()
	res := rewrite(t, "run-1", o, testutil.TeachesCourse())
	x := queryir.Var("x")

	rec, err := NewRunRecord(o, res, []queryir.Term{x})
	require.NoError(t, err)

	assert.Equal(t, "run-1", rec.Run.ID)
	assert.Equal(t, "university", rec.Run.OntologyName)
	assert.Equal(t, ir.MustOntologyHash(o), rec.Run.OntologyHash)
	assert.Equal(t, testutil.TeachesCourse().String(), rec.Run.InputQuery)
	assert.Equal(t, []string{"x"}, rec.Run.AnswerVars)
	assert.Equal(t, 4, rec.Run.QueryCount)
	assert.Equal(t, res.Steps, rec.Run.Steps)
	assert.Equal(t, ir.EngineVersion, rec.Run.EngineVersion)

	require.Len(t, rec.Queries, 4)
	for i, q := range res.Queries {
		got := rec.Queries[i]
		assert.Equal(t, int64(i+1), got.Seq)
		assert.Equal(t, q.Key(), got.Key)
		assert.Equal(t, q.String(), got.Text)
		assert.Equal(t, ir.MustQueryID(q), got.QueryID)

		cypher, err := querycypher.TranslateQuery([]queryir.Term{x}, q)
		require.NoError(t, err)
		assert.Equal(t, cypher, got.Cypher)
	}

	require.Len(t, rec.Derivations, 3)
	for i, d := range rec.Derivations {
		assert.Equal(t, rec.Queries[i+1].QueryID, d.ChildID, "derivation %d", i)
		assert.Equal(t, string(res.Derivations[i].Rule), d.Rule)
		assert.Equal(t, res.Derivations[i].Detail, d.Detail)
		assert.Len(t, d.ID, 64)
	}
}

func TestNewRunRecord_UnknownParent(t *testing.T) {
	o := testutil.University()
	res := rewrite(t, "run-1", o, testutil.TeachesCourse())
	res.Derivations[0].Parent = "q():-nowhere(x)"

	_, err := NewRunRecord(o, res, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown parent")
}

func TestNewRunRecord_WithoutDerivations(t *testing.T) {
	o := testutil.University()
	res := rewrite(t, "run-1", o, testutil.TeachesCourse())
	res.Derivations = []engine.Derivation{}

	rec, err := NewRunRecord(o, res, nil)
	require.NoError(t, err)
	assert.Empty(t, rec.Derivations)
	assert.Empty(t, rec.Run.AnswerVars)
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rec := universityRecord(t, "run-1")

	inserted, err := s.WriteRun(ctx, rec)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.WriteRun(ctx, rec)
	require.NoError(t, err)
	assert.False(t, inserted)

	queries, err := s.ReadRunQueries(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, queries, 4)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestWriteRun_AssignsSeqAndTimestamp(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	writeRecord(t, s, universityRecord(t, "run-b"))
	writeRecord(t, s, universityRecord(t, "run-a"))

	b, err := s.ReadRun(ctx, "run-b")
	require.NoError(t, err)
	a, err := s.ReadRun(ctx, "run-a")
	require.NoError(t, err)

	assert.Equal(t, int64(1), b.Seq)
	assert.Equal(t, int64(2), a.Seq)
	assert.True(t, testutil.Epoch.Equal(b.ExportedAt))
	assert.True(t, testutil.Epoch.Add(time.Second).Equal(a.ExportedAt))
}

func TestWriteRun_Cancelled(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.WriteRun(ctx, universityRecord(t, "run-1"))
	require.Error(t, err)

	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestMarshalNames(t *testing.T) {
	got, err := marshalNames(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", got)

	got, err = marshalNames([]string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, `["x","y"]`, got)

	names, err := unmarshalNames(got)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, names)

	names, err = unmarshalNames("")
	require.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)

	_, err = unmarshalNames("{")
	assert.Error(t, err)
}
