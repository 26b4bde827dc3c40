package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeTranslate(t *testing.T, format string, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewTranslateCommand(&RootOptions{Format: format})
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestTranslate_MatchesGolden(t *testing.T) {
	out, errOut, err := executeTranslate(t, "text", "--ontology", writeOntology(t), "-q", teachesCourse)
	require.NoError(t, err)

	golden, err := os.ReadFile(filepath.Join("..", "harness", "testdata", "golden", "university.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(golden)+"\n", out)
	assert.Contains(t, errOut, "warning: ")
}

func TestTranslate_NoRewrite(t *testing.T) {
	out, _, err := executeTranslate(t, "text", "--ontology", writeOntology(t), "-q", "q(x) :- Professor(x)", "--no-rewrite")
	require.NoError(t, err)
	assert.Equal(t, "match (x)\nwhere (x:Professor)\nreturn distinct x as x\n", out)
}

func TestTranslate_JSON(t *testing.T) {
	out, _, err := executeTranslate(t, "json", "--ontology", writeOntology(t), "--query-name", "teachesCourse", "--answers", "")
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   TranslateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 4, resp.Data.Queries)
	assert.Contains(t, resp.Data.Cypher, "return distinct 1")
	assert.NotContains(t, resp.Data.Cypher, " as x")
}

func TestTranslate_NonConvergence(t *testing.T) {
	out, _, err := executeTranslate(t, "text", "--ontology", writeOntology(t), "-q", teachesCourse, "--max-steps", "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E008]")
}
