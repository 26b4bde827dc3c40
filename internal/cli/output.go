package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/crpq/internal/engine"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Scenario failure, validation failure or non-convergence
	ExitCommandError = 2 // Command error (invalid paths, unparsable query, etc.)
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code    int // ExitFailure or ExitCommandError
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the code of the first ExitError in err's chain,
// or ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the document a command prints with --format json.
type Response struct {
	Status string         `json:"status"` // "ok" or "error"
	RunID  string         `json:"run_id,omitempty"`
	Data   any            `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

// ResponseError describes why a command failed.
type ResponseError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// RunReport is what a rewriting run prints: the union, how each member was
// found, and what the run cost.
type RunReport struct {
	RunID    string      `json:"run_id"`
	Ontology string      `json:"ontology"`
	Input    string      `json:"input"`
	Members  []Member    `json:"members"`
	Stats    RunStats    `json:"stats"`
	Cypher   string      `json:"cypher,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
	Exported bool        `json:"exported,omitempty"`
	Previous *RunChanges `json:"previous,omitempty"`
}

// Member is one query of the union. Index counts from 1 in discovery order;
// From is the Index of the query it was derived from, 0 for the first.
type Member struct {
	Index  int    `json:"index"`
	Query  string `json:"query"`
	Key    string `json:"key"`
	From   int    `json:"from,omitempty"`
	Rule   string `json:"rule,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// RunStats summarizes the work of one run.
type RunStats struct {
	Queries    int   `json:"queries"`
	Steps      int   `json:"steps"`
	Workers    int   `json:"workers"`
	DurationMS int64 `json:"duration_ms"`
}

// newRunReport lists the members of res with their derivations.
func newRunReport(ontologyName string, workers int, res *engine.Result) RunReport {
	report := RunReport{
		RunID:    res.RunID,
		Ontology: ontologyName,
		Input:    res.Input.String(),
		Members:  make([]Member, len(res.Queries)),
		Stats: RunStats{
			Queries:    len(res.Queries),
			Steps:      res.Steps,
			Workers:    workers,
			DurationMS: res.Duration.Milliseconds(),
		},
	}
	for i, q := range res.Queries {
		report.Members[i] = Member{Index: i + 1, Query: q.String(), Key: q.Key()}
	}
	for _, d := range res.Derivations {
		if d.ChildIndex < 0 || d.ChildIndex >= len(report.Members) {
			continue
		}
		m := &report.Members[d.ChildIndex]
		m.From = d.ParentIndex + 1
		m.Rule = string(d.Rule)
		m.Detail = d.Detail
	}
	return report
}

// Queries returns the printed members in order.
func (r RunReport) Queries() []string {
	out := make([]string, len(r.Members))
	for i, m := range r.Members {
		out[i] = m.Query
	}
	return out
}

// OutputFormatter writes command output as text or as one JSON Response.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose lines and warnings; Writer when nil
	Verbose   bool
}

// Respond writes resp as indented JSON.
func (f *OutputFormatter) Respond(resp Response) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

// Error reports a failure in the configured format.
func (f *OutputFormatter) Error(code, message string, details map[string]string) error {
	if f.Format == "json" {
		return f.Respond(Response{
			Status: "error",
			Error:  &ResponseError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && len(details) > 0 {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Verbosef writes one diagnostic line when --verbose is set.
func (f *OutputFormatter) Verbosef(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.diag(), format+"\n", args...)
}

func (f *OutputFormatter) diag() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Report prints a rewriting run. In text the derivation of each member is
// shown with --verbose.
func (f *OutputFormatter) Report(r RunReport) error {
	if f.Format == "json" {
		return f.Respond(Response{Status: "ok", RunID: r.RunID, Data: r})
	}

	w := f.Writer
	fmt.Fprintf(w, "Rewriting of %s over %s\n", r.Input, r.Ontology)
	fmt.Fprintf(w, "%d queries, %d steps (run %s)\n\n", r.Stats.Queries, r.Stats.Steps, r.RunID)
	for _, m := range r.Members {
		fmt.Fprintf(w, "  [%d] %s\n", m.Index, m.Query)
		if f.Verbose && m.From > 0 {
			fmt.Fprintf(w, "      from [%d] by %s: %s\n", m.From, m.Rule, m.Detail)
		}
	}

	if r.Cypher != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, r.Cypher)
		for _, warning := range r.Warnings {
			fmt.Fprintf(w, "warning: %s\n", warning)
		}
	}

	if r.Exported {
		fmt.Fprintln(w)
		switch p := r.Previous; {
		case p == nil:
			fmt.Fprintln(w, "✓ Run exported")
		case len(p.Added) == 0 && len(p.Removed) == 0:
			fmt.Fprintf(w, "✓ Run exported (same union as run %s)\n", p.RunID)
		default:
			fmt.Fprintf(w, "✓ Run exported (%d added, %d removed since run %s)\n", len(p.Added), len(p.Removed), p.RunID)
			for _, q := range p.Added {
				fmt.Fprintf(w, "  + %s\n", q)
			}
			for _, q := range p.Removed {
				fmt.Fprintf(w, "  - %s\n", q)
			}
		}
	}
	return nil
}
