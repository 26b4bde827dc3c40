package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/crpq/internal/engine"
	"github.com/roach88/crpq/internal/querycypher"
	"github.com/roach88/crpq/internal/store"
)

// RewriteOptions holds flags for the rewrite command.
type RewriteOptions struct {
	*RootOptions
	Input    InputOptions
	MaxSteps int
	Workers  int
	Database string
	Cypher   bool
	Watch    bool

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// RunChanges compares a run with the previous export of the same query
// over the same ontology.
type RunChanges struct {
	RunID   string   `json:"run_id"`
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// NewRewriteCommand creates the rewrite command.
func NewRewriteCommand(rootOpts *RootOptions) *cobra.Command {
	return newRewriteCommand(&RewriteOptions{RootOptions: rootOpts})
}

func newRewriteCommand(opts *RewriteOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Rewrite a query over an ontology",
		Long: `Compute the union of rewritings of a conjunctive regular path query
with respect to a DL-Lite_R ontology.

The ontology is a CUE file, a CUE package directory or an RDF/XML file.
Each query of the union is printed in discovery order. With --cypher the
union is also translated to one Cypher statement. With --db the run is
exported to a SQLite database and compared with the previous export of
the same query.

Exit codes:
  0 - Rewriting complete
  1 - Rewriting did not converge within --max-steps
  2 - Command error (bad paths, unparsable query, etc.)

Examples:
  crpq rewrite --ontology univ.cue -q "q(x) :- teaches(x,y), Course(y)"
  crpq rewrite --ontology univ.owl --query-file q.txt --cypher
  crpq rewrite --ontology ./ontologies --ontology-name university --query-name teachesCourse --db runs.db
  crpq rewrite --ontology univ.cue --query-file q.txt --watch`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input.resolve(cmd)
			return runRewrite(opts, cmd)
		},
	}

	opts.Input.register(cmd)
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", engine.DefaultMaxSteps, "maximum number of queries to expand (0 = unlimited)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 1, "queries of a frontier expanded in parallel")
	cmd.Flags().StringVar(&opts.Database, "db", "", "export the run to this SQLite database")
	cmd.Flags().BoolVar(&opts.Cypher, "cypher", false, "also print the union as Cypher")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "rewrite again whenever the ontology or query file changes")

	return cmd
}

func runRewrite(opts *RewriteOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if !opts.Watch {
		return rewriteOnce(ctx, opts, formatter, logger)
	}

	ctx, stop := signalContext(ctx)
	defer stop()

	w, err := newInputWatcher(opts.Input.watchedFiles())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to watch inputs", err)
	}
	defer w.Close()

	// A failed run is reported and the watch goes on.
	if err := rewriteOnce(ctx, opts, formatter, logger); err != nil {
		logger.Warn("rewrite failed", "error", err)
	}
	return w.Run(ctx, logger, func() {
		if err := rewriteOnce(ctx, opts, formatter, logger); err != nil {
			logger.Warn("rewrite failed", "error", err)
		}
	})
}

// rewriteOnce loads the inputs, rewrites, prints and optionally exports.
func rewriteOnce(ctx context.Context, opts *RewriteOptions, formatter *OutputFormatter, logger *slog.Logger) error {
	in, err := LoadInputs(&opts.Input)
	if err != nil {
		return failLoad(formatter, err)
	}
	formatter.Verbosef("Loaded ontology %s (%d axioms)", in.Spec.Ontology.Name, in.Spec.Ontology.Len())

	res, err := rewriteInputs(ctx, in, opts.MaxSteps, opts.Workers, true, opts.RunIDs, logger)
	if err != nil {
		return failRewrite(formatter, err)
	}
	report := newRunReport(in.Spec.Ontology.Name, max(opts.Workers, 1), res)

	if opts.Cypher {
		cypher, err := querycypher.Translate(in.Answers, res.Queries)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitFailure, "translation failed", err)
		}
		report.Cypher = cypher
		report.Warnings = querycypher.Validate(in.Answers, res.Queries)
	}

	if opts.Database != "" {
		changes, err := exportRun(ctx, opts.Database, in, res)
		if err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "export failed", err)
		}
		report.Exported = true
		report.Previous = changes
	}

	return formatter.Report(report)
}

// rewriteInputs runs the rewriter over loaded inputs.
func rewriteInputs(ctx context.Context, in *Inputs, maxSteps, workers int, derivations bool, runIDs engine.RunIDGenerator, logger *slog.Logger) (*engine.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	eopts := []engine.Option{
		engine.WithMaxSteps(maxSteps),
		engine.WithWorkers(workers),
		engine.WithLogger(logger),
		engine.WithDerivations(derivations),
	}
	if runIDs != nil {
		eopts = append(eopts, engine.WithRunIDGenerator(runIDs))
	}
	return engine.New(in.Spec.Ontology, eopts...).Rewrite(ctx, in.Query)
}

// failRewrite reports a rewriting error. Non-convergence and cancellation
// are failures; a query the rewriter refuses is a command error.
func failRewrite(formatter *OutputFormatter, err error) error {
	var details map[string]string
	var re *engine.RewriteError
	if errors.As(err, &re) {
		details = re.Details
	}
	_ = formatter.Error(ErrCodeRewrite, err.Error(), details)

	if engine.IsInvalidQuery(err) {
		return WrapExitError(ExitCommandError, "rewrite refused", err)
	}
	return WrapExitError(ExitFailure, "rewrite failed", err)
}

// exportRun writes the run to the database at path and compares it with
// the previous export of the same query over the same ontology.
func exportRun(ctx context.Context, path string, in *Inputs, res *engine.Result) (*RunChanges, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	rec, err := store.NewRunRecord(in.Spec.Ontology, res, in.Answers)
	if err != nil {
		return nil, err
	}
	if _, err := st.WriteRun(ctx, rec); err != nil {
		return nil, err
	}

	prev, found, err := st.LatestRun(ctx, rec.Run.OntologyHash, rec.Run.InputQuery, rec.Run.ID)
	if err != nil || !found {
		return nil, err
	}
	diff, err := st.DiffRuns(ctx, prev.ID, rec.Run.ID)
	if err != nil {
		return nil, err
	}
	return newRunChanges(diff), nil
}

func newRunChanges(diff store.RunDiff) *RunChanges {
	changes := &RunChanges{RunID: diff.Base, Added: []string{}, Removed: []string{}}
	for _, q := range diff.Added {
		changes.Added = append(changes.Added, q.Text)
	}
	for _, q := range diff.Removed {
		changes.Removed = append(changes.Removed, q.Text)
	}
	return changes
}

// newLogger builds the command logger: text on w, Debug with --verbose.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
