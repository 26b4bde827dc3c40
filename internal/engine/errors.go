package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// RewriteError reports why a run produced no result.
//
// A run either returns the complete union of rewritings or a RewriteError;
// partial unions are never returned.
type RewriteError struct {
	// Code identifies the error category.
	Code RewriteErrorCode

	// Message is a human-readable description.
	Message string

	// RunID identifies the failed run.
	RunID string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// RewriteErrorCode categorizes rewrite errors.
type RewriteErrorCode string

const (
	// ErrCodeNonConvergence indicates the step quota ran out before the
	// union of rewritings was complete.
	ErrCodeNonConvergence RewriteErrorCode = "NON_CONVERGENCE"

	// ErrCodeCancelled indicates the context was cancelled mid-run.
	ErrCodeCancelled RewriteErrorCode = "CANCELLED"

	// ErrCodeInvalidQuery indicates the input query failed validation.
	ErrCodeInvalidQuery RewriteErrorCode = "INVALID_QUERY"
)

func (e *RewriteError) Error() string {
	if e.RunID != "" {
		return fmt.Sprintf("%s: %s (run=%s)", e.Code, e.Message, e.RunID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RewriteError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code RewriteErrorCode) bool {
	var re *RewriteError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsNonConvergence reports whether the run gave up on the step quota.
// Matches both RewriteError with ErrCodeNonConvergence and StepsExceededError.
func IsNonConvergence(err error) bool {
	return hasCode(err, ErrCodeNonConvergence) || IsStepsExceededError(err)
}

// IsCancelled reports whether the run stopped because its context ended.
func IsCancelled(err error) bool {
	return hasCode(err, ErrCodeCancelled)
}

// IsInvalidQuery reports whether the input query was rejected.
func IsInvalidQuery(err error) bool {
	return hasCode(err, ErrCodeInvalidQuery)
}

// NewNonConvergenceError wraps a quota failure. known is the number of
// distinct queries discovered when the run stopped.
func NewNonConvergenceError(runID string, cause *StepsExceededError, known int) *RewriteError {
	return &RewriteError{
		Code:    ErrCodeNonConvergence,
		Message: fmt.Sprintf("rewriting did not converge within %d steps", cause.Limit),
		RunID:   runID,
		Details: map[string]string{
			"steps":     strconv.Itoa(cause.Steps),
			"max_steps": strconv.Itoa(cause.Limit),
			"known":     strconv.Itoa(known),
		},
		Err: cause,
	}
}

// NewCancelledError wraps a context error.
func NewCancelledError(runID string, cause error) *RewriteError {
	return &RewriteError{
		Code:    ErrCodeCancelled,
		Message: "rewriting cancelled",
		RunID:   runID,
		Err:     cause,
	}
}

// NewInvalidQueryError lists the validation errors of the input query.
func NewInvalidQueryError(runID string, problems []string) *RewriteError {
	return &RewriteError{
		Code:    ErrCodeInvalidQuery,
		Message: strings.Join(problems, "; "),
		RunID:   runID,
	}
}
