package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/crpq/internal/compiler"
	"github.com/roach88/crpq/internal/querycypher"
	"github.com/roach88/crpq/internal/queryir"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool                       `json:"valid"`
	Ontologies []string                   `json:"ontologies"`
	Findings   []compiler.ValidationError `json:"findings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <ontology>",
		Short: "Check ontologies and declared queries",
		Long: `Check every ontology found at the path, and the queries declared next
to it, without rewriting anything.

Errors (E101 profile violations, E110 queries the rewriter would refuse)
fail the command. Warnings (E102 subsumption cycles, E111 suspicious
queries, E112 undeclared concepts, E120 Cypher notes) are reported only.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	specs, err := LoadOntologySpecs(path)
	if err != nil {
		return failLoad(formatter, err)
	}

	result := ValidationResult{Ontologies: make([]string, len(specs))}
	for i, spec := range specs {
		formatter.Verbosef("Validating ontology %s (%d axioms, %d queries)",
			spec.Ontology.Name, spec.Ontology.Len(), len(spec.Queries))
		result.Ontologies[i] = spec.Ontology.Name
		result.Findings = append(result.Findings, validateSpec(spec)...)
	}
	result.Valid = !compiler.HasErrors(result.Findings)

	if opts.Format == "json" {
		return outputValidateJSON(formatter, result)
	}
	return outputValidateText(formatter, result)
}

// validateSpec runs the compiler checks, then the translator checks on
// the saturated form of each declared query, the first query of its
// rewriting.
func validateSpec(spec *compiler.Spec) []compiler.ValidationError {
	findings := compiler.Validate(spec)
	for _, nq := range spec.Queries {
		seed := queryir.Tau(nq.Query.Saturate(spec.Ontology))
		for _, w := range querycypher.Validate(seed.Head, []queryir.Query{seed}) {
			findings = append(findings, compiler.ValidationError{
				Field:    "queries." + nq.Name,
				Message:  w,
				Code:     ErrCodeCypherNotice,
				Severity: compiler.SeverityWarning,
			})
		}
	}
	return findings
}

func outputValidateJSON(formatter *OutputFormatter, result ValidationResult) error {
	response := Response{Status: "ok", Data: result}
	if !result.Valid {
		first := firstError(result.Findings)
		response.Status = "error"
		response.Error = &ResponseError{Code: first.Code, Message: first.Message}
	}

	if err := formatter.Respond(response); err != nil {
		return err
	}
	if !result.Valid {
		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", countErrors(result.Findings)))
	}
	return nil
}

func outputValidateText(formatter *OutputFormatter, result ValidationResult) error {
	w := formatter.Writer
	if result.Valid {
		fmt.Fprintln(w, "✓ All ontologies valid")
	} else {
		fmt.Fprintln(w, "✗ Validation failed")
	}

	if len(result.Findings) > 0 {
		fmt.Fprintln(w)
	}
	for _, f := range result.Findings {
		fmt.Fprintf(w, "%s %s\n", f.Severity, f.Field)
		fmt.Fprintf(w, "  %s: %s\n\n", f.Code, f.Message)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", countErrors(result.Findings)))
	}
	return nil
}

func firstError(findings []compiler.ValidationError) compiler.ValidationError {
	for _, f := range findings {
		if f.IsError() {
			return f
		}
	}
	return compiler.ValidationError{}
}

func countErrors(findings []compiler.ValidationError) int {
	n := 0
	for _, f := range findings {
		if f.IsError() {
			n++
		}
	}
	return n
}
