package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteError_Error(t *testing.T) {
	err := &RewriteError{Code: ErrCodeCancelled, Message: "rewriting cancelled", RunID: "run-1"}
	assert.Equal(t, "CANCELLED: rewriting cancelled (run=run-1)", err.Error())

	err.RunID = ""
	assert.Equal(t, "CANCELLED: rewriting cancelled", err.Error())
}

func TestNewNonConvergenceError(t *testing.T) {
	cause := &StepsExceededError{RunID: "run-1", Steps: 6, Limit: 5}
	err := NewNonConvergenceError("run-1", cause, 42)

	assert.Equal(t, ErrCodeNonConvergence, err.Code)
	assert.Equal(t, "rewriting did not converge within 5 steps", err.Message)
	assert.Equal(t, map[string]string{"steps": "6", "max_steps": "5", "known": "42"}, err.Details)
	assert.True(t, IsNonConvergence(err))
	assert.True(t, IsStepsExceededError(err), "cause is reachable through Unwrap")
	assert.False(t, IsCancelled(err))
}

func TestIsNonConvergence_MatchesBareQuotaError(t *testing.T) {
	assert.True(t, IsNonConvergence(&StepsExceededError{}))
}

func TestNewCancelledError(t *testing.T) {
	err := NewCancelledError("run-1", context.Canceled)

	assert.True(t, IsCancelled(err))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, IsInvalidQuery(err))
}

func TestNewInvalidQueryError(t *testing.T) {
	err := NewInvalidQueryError("run-1", []string{"query body is empty", "answer variable 1 is unbound"})

	assert.True(t, IsInvalidQuery(err))
	assert.Equal(t, "query body is empty; answer variable 1 is unbound", err.Message)
	assert.True(t, IsInvalidQuery(fmt.Errorf("rewrite: %w", err)))
}
