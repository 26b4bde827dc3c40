package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/crpq/internal/engine"
	"github.com/roach88/crpq/internal/querycypher"
	"github.com/roach88/crpq/internal/queryir"
)

// TranslateOptions holds flags for the translate command.
type TranslateOptions struct {
	*RootOptions
	Input     InputOptions
	MaxSteps  int
	Workers   int
	NoRewrite bool
}

// TranslateResult is the JSON payload of the translate command.
type TranslateResult struct {
	Queries  int      `json:"queries"`
	Cypher   string   `json:"cypher"`
	Warnings []string `json:"warnings,omitempty"`
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranslateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Print the rewriting of a query as Cypher",
		Long: `Rewrite a query over an ontology and print the union as one Cypher
statement, fragments joined by "union". Nothing else is printed on stdout,
so the output can be piped to a graph database shell.

With --no-rewrite the query is translated as given.

Examples:
  crpq translate --ontology univ.cue -q "q(x) :- teaches(x,y), Course(y)"
  crpq translate --ontology univ.cue -q "q() :- r*(x,y)" --no-rewrite
  crpq translate --ontology univ.cue --query-file q.txt --answers teacher`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input.resolve(cmd)
			return runTranslate(opts, cmd)
		},
	}

	opts.Input.register(cmd)
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", engine.DefaultMaxSteps, "maximum number of queries to expand (0 = unlimited)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 1, "queries of a frontier expanded in parallel")
	cmd.Flags().BoolVar(&opts.NoRewrite, "no-rewrite", false, "translate the query without rewriting it")

	return cmd
}

func runTranslate(opts *TranslateOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	in, err := LoadInputs(&opts.Input)
	if err != nil {
		return failLoad(formatter, err)
	}

	queries := []queryir.Query{in.Query}
	if !opts.NoRewrite {
		logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
		res, err := rewriteInputs(cmd.Context(), in, opts.MaxSteps, opts.Workers, false, nil, logger)
		if err != nil {
			return failRewrite(formatter, err)
		}
		queries = res.Queries
	}

	cypher, err := querycypher.Translate(in.Answers, queries)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "translation failed", err)
	}
	warnings := querycypher.Validate(in.Answers, queries)

	if opts.Format == "json" {
		return formatter.Respond(Response{
			Status: "ok",
			Data:   TranslateResult{Queries: len(queries), Cypher: cypher, Warnings: warnings},
		})
	}

	fmt.Fprintln(formatter.Writer, cypher)
	for _, w := range warnings {
		fmt.Fprintf(formatter.diag(), "warning: %s\n", w)
	}
	return nil
}
