package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/crpq/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Diff     string // optional - run to compare with
	Lineage  int    // optional - 1-based query position
}

// RunSummary is one line of the run listing.
type RunSummary struct {
	ID         string `json:"id"`
	Seq        int64  `json:"seq"`
	Ontology   string `json:"ontology"`
	Input      string `json:"input"`
	Queries    int    `json:"queries"`
	Steps      int    `json:"steps"`
	ExportedAt string `json:"exported_at"`
}

// HistoryQuery is one query of a run with how it was first derived.
type HistoryQuery struct {
	Seq    int64  `json:"seq"`
	Text   string `json:"text"`
	Parent int64  `json:"parent,omitempty"`
	Rule   string `json:"rule,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// RunDetail is the full record of one run.
type RunDetail struct {
	Run     RunSummary     `json:"run"`
	Answers []string       `json:"answers"`
	Queries []HistoryQuery `json:"queries"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Inspect exported rewriting runs",
		Long: `Inspect the runs exported with "crpq rewrite --db".

Without a run ID, lists every run in export order. With a run ID, prints
the run's union in discovery order with the rule that first produced each
query.

  --lineage N  prints the chain of rules from the input to query N
  --diff ID    compares the run's union with another run's

Examples:
  crpq history --db runs.db
  crpq history --db runs.db 0190c3c4-...
  crpq history --db runs.db 0190c3c4-... --lineage 4
  crpq history --db runs.db 0190c3c4-... --diff 0190c3d0-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runHistory(opts, runID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Diff, "diff", "", "compare with this run")
	cmd.Flags().IntVar(&opts.Lineage, "lineage", 0, "print the derivation chain of the query at this position")

	return cmd
}

func runHistory(opts *HistoryOptions, runID string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	if runID == "" && (opts.Diff != "" || opts.Lineage != 0) {
		_ = formatter.Error(ErrCodeUsage, "--diff and --lineage need a run ID", nil)
		return NewExitError(ExitCommandError, "--diff and --lineage need a run ID")
	}

	// store.Open would create a missing database.
	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", opts.Database), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", opts.Database))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var data any
	switch {
	case runID == "":
		data, err = listRuns(ctx, st)
	case opts.Diff != "":
		data, err = diffRuns(ctx, st, runID, opts.Diff)
	case opts.Lineage != 0:
		data, err = queryLineage(ctx, st, runID, opts.Lineage)
	default:
		data, err = runDetail(ctx, st, runID)
	}
	if err != nil {
		code := ErrCodeDatabase
		if errors.Is(err, sql.ErrNoRows) {
			code = ErrCodeNotFound
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "history failed", err)
	}

	if opts.Format == "json" {
		return formatter.Respond(Response{Status: "ok", RunID: runID, Data: data})
	}
	outputHistoryText(formatter.Writer, data)
	return nil
}

func summarize(run store.Run) RunSummary {
	return RunSummary{
		ID:         run.ID,
		Seq:        run.Seq,
		Ontology:   run.OntologyName,
		Input:      run.InputQuery,
		Queries:    run.QueryCount,
		Steps:      run.Steps,
		ExportedAt: run.ExportedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func listRuns(ctx context.Context, st *store.Store) ([]RunSummary, error) {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RunSummary, len(runs))
	for i, r := range runs {
		out[i] = summarize(r)
	}
	return out, nil
}

func runDetail(ctx context.Context, st *store.Store, runID string) (*RunDetail, error) {
	run, err := st.ReadRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	queries, err := st.ReadRunQueries(ctx, runID)
	if err != nil {
		return nil, err
	}
	derivations, err := st.ReadDerivations(ctx, runID)
	if err != nil {
		return nil, err
	}

	seqOf := make(map[string]int64, len(queries))
	for _, q := range queries {
		seqOf[q.QueryID] = q.Seq
	}
	byChild := make(map[string]store.Derivation, len(derivations))
	for _, d := range derivations {
		byChild[d.ChildID] = d
	}

	detail := &RunDetail{Run: summarize(run), Answers: run.AnswerVars, Queries: make([]HistoryQuery, len(queries))}
	for i, q := range queries {
		hq := HistoryQuery{Seq: q.Seq, Text: q.Text}
		if d, ok := byChild[q.QueryID]; ok {
			hq.Parent = seqOf[d.ParentID]
			hq.Rule = d.Rule
			hq.Detail = d.Detail
		}
		detail.Queries[i] = hq
	}
	return detail, nil
}

// LineageResult is the derivation chain of one query.
type LineageResult struct {
	Query string         `json:"query"`
	Steps []HistoryQuery `json:"steps"`
}

func queryLineage(ctx context.Context, st *store.Store, runID string, pos int) (*LineageResult, error) {
	queries, err := st.ReadRunQueries(ctx, runID)
	if err != nil {
		return nil, err
	}
	if pos < 1 || pos > len(queries) {
		return nil, fmt.Errorf("run %s has %d queries, no query %d: %w", runID, len(queries), pos, sql.ErrNoRows)
	}
	target := queries[pos-1]

	chain, err := st.Lineage(ctx, runID, target.QueryID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]store.RunQuery, len(queries))
	for _, q := range queries {
		byID[q.QueryID] = q
	}
	result := &LineageResult{Query: target.Text, Steps: make([]HistoryQuery, len(chain))}
	for i, d := range chain {
		child := byID[d.ChildID]
		result.Steps[i] = HistoryQuery{
			Seq:    child.Seq,
			Text:   child.Text,
			Parent: byID[d.ParentID].Seq,
			Rule:   d.Rule,
			Detail: d.Detail,
		}
	}
	return result, nil
}

// DiffResult compares the unions of two runs.
type DiffResult struct {
	Base    string   `json:"base"`
	Other   string   `json:"other"`
	Same    bool     `json:"same"`
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

func diffRuns(ctx context.Context, st *store.Store, base, other string) (*DiffResult, error) {
	diff, err := st.DiffRuns(ctx, base, other)
	if err != nil {
		return nil, err
	}
	changes := newRunChanges(diff)
	return &DiffResult{
		Base:    diff.Base,
		Other:   diff.Other,
		Same:    diff.Same(),
		Added:   changes.Added,
		Removed: changes.Removed,
	}, nil
}

func outputHistoryText(w io.Writer, data any) {
	switch d := data.(type) {
	case []RunSummary:
		if len(d) == 0 {
			fmt.Fprintln(w, "No runs exported.")
			return
		}
		for _, r := range d {
			fmt.Fprintf(w, "%3d  %s  %s  %s  %d queries, %d steps\n", r.Seq, r.ID, r.ExportedAt, r.Ontology, r.Queries, r.Steps)
			fmt.Fprintf(w, "     %s\n", r.Input)
		}

	case *RunDetail:
		fmt.Fprintf(w, "Run %s (%s)\n", d.Run.ID, d.Run.Ontology)
		fmt.Fprintf(w, "Input: %s\n", d.Run.Input)
		fmt.Fprintf(w, "%d queries, %d steps\n\n", d.Run.Queries, d.Run.Steps)
		for _, q := range d.Queries {
			if q.Rule == "" {
				fmt.Fprintf(w, "  [%d] %s\n", q.Seq, q.Text)
				continue
			}
			fmt.Fprintf(w, "  [%d] %s  <- %s from [%d]\n", q.Seq, q.Text, q.Rule, q.Parent)
		}

	case *LineageResult:
		fmt.Fprintf(w, "Lineage of %s\n", d.Query)
		if len(d.Steps) == 0 {
			fmt.Fprintln(w, "  (input query)")
		}
		for _, s := range d.Steps {
			fmt.Fprintf(w, "  [%d] -%s-> [%d] %s\n", s.Parent, s.Rule, s.Seq, s.Text)
			if s.Detail != "" {
				fmt.Fprintf(w, "       %s\n", s.Detail)
			}
		}

	case *DiffResult:
		if d.Same {
			fmt.Fprintf(w, "✓ Runs %s and %s have the same union\n", d.Base, d.Other)
			return
		}
		fmt.Fprintf(w, "Runs %s and %s differ: %d added, %d removed\n", d.Base, d.Other, len(d.Added), len(d.Removed))
		for _, q := range d.Added {
			fmt.Fprintf(w, "  + %s\n", q)
		}
		for _, q := range d.Removed {
			fmt.Fprintf(w, "  - %s\n", q)
		}
	}
}
