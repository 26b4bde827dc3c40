package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/crpq/internal/compiler"
	"github.com/roach88/crpq/internal/engine"
	"github.com/roach88/crpq/internal/ontology"
	"github.com/roach88/crpq/internal/parser"
	"github.com/roach88/crpq/internal/querycypher"
	"github.com/roach88/crpq/internal/queryir"
	"github.com/roach88/crpq/internal/store"
	"github.com/roach88/crpq/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios with a fixed run ID and a stepping export clock.
type Harness struct {
	store  *store.Store
	onto   *ontology.Ontology
	runID  string
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
// 1. Load the ontology and parse the query
// 2. Rewrite with derivations recorded
// 3. Translate the union to Cypher
// 4. Export the run to the in-memory database
// 5. Evaluate assertions and return result with pass/fail and errors
//
// An error is returned only when the scenario cannot be set up; a failed
// rewriting or assertion is reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	spec, err := compiler.LoadOntology(scenario.Ontology, scenario.OntologyName)
	if err != nil {
		return nil, fmt.Errorf("failed to load ontology: %w", err)
	}

	runID := scenario.RunID
	if runID == "" {
		runID = DefaultRunID
	}

	q, err := scenarioQuery(scenario, spec)
	if err != nil {
		// The parser already rejects what the rewriter would refuse.
		var pe *parser.ParseError
		if scenario.ExpectError == ExpectInvalidQuery && errors.As(err, &pe) {
			return NewResult(runID), nil
		}
		return nil, err
	}

	st, err := store.Open(":memory:", store.WithNow(testutil.NewStepClock().Now))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		onto:   spec.Ontology,
		runID:  runID,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	result := NewResult(runID)
	if err := h.execute(ctx, scenario, q, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (h *Harness) execute(ctx context.Context, scenario *Scenario, q queryir.Query, result *Result) error {
	opts := []engine.Option{
		engine.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(h.runID)),
		engine.WithLogger(h.logger),
		engine.WithDerivations(true),
	}
	if scenario.MaxSteps > 0 {
		opts = append(opts, engine.WithMaxSteps(scenario.MaxSteps))
	}
	if scenario.Workers > 0 {
		opts = append(opts, engine.WithWorkers(scenario.Workers))
	}

	res, err := engine.New(h.onto, opts...).Rewrite(ctx, q)

	if scenario.ExpectError != "" {
		checkExpectedError(result, scenario.ExpectError, err)
		return nil
	}
	if err != nil {
		result.AddError(fmt.Sprintf("rewrite failed: %v", err))
		return nil
	}

	result.Queries = testutil.Keys(res.Queries)
	result.Steps = res.Steps

	answers := answerTerms(scenario.Answers, q)
	cypher, err := querycypher.Translate(answers, res.Queries)
	if err != nil {
		result.AddError(fmt.Sprintf("translate failed: %v", err))
		return nil
	}
	result.Cypher = cypher
	result.Warnings = querycypher.Validate(answers, res.Queries)

	rec, err := store.NewRunRecord(h.onto, res, answers)
	if err != nil {
		return fmt.Errorf("failed to build run record: %w", err)
	}
	if _, err := h.store.WriteRun(ctx, rec); err != nil {
		return fmt.Errorf("failed to export run: %w", err)
	}

	h.logger.Info("scenario rewritten",
		"scenario", scenario.Name,
		"queries", len(res.Queries),
		"steps", res.Steps,
	)

	actx := &AssertionContext{
		Store:    h.store,
		Ctx:      ctx,
		Ontology: h.onto,
		RunID:    h.runID,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return nil
}

// scenarioQuery parses the scenario's query text, or looks up the query
// declared under QueryName next to the ontology.
func scenarioQuery(scenario *Scenario, spec *compiler.Spec) (queryir.Query, error) {
	if scenario.QueryName != "" {
		for _, nq := range spec.Queries {
			if nq.Name == scenario.QueryName {
				return nq.Query, nil
			}
		}
		return queryir.Query{}, fmt.Errorf("query %q not declared in ontology %s", scenario.QueryName, spec.Ontology.Name)
	}

	q, err := parser.Parse(scenario.Query, spec.Ontology)
	if err != nil {
		return queryir.Query{}, fmt.Errorf("failed to parse query: %w", err)
	}
	return q, nil
}

// answerTerms maps answer names to variables, defaulting to the head.
func answerTerms(names []string, q queryir.Query) []queryir.Term {
	if names == nil {
		return q.Head
	}
	terms := make([]queryir.Term, len(names))
	for i, n := range names {
		terms[i] = queryir.Var(n)
	}
	return terms
}

func checkExpectedError(result *Result, want string, err error) {
	if err == nil {
		result.AddError(fmt.Sprintf("expected %s error, rewriting succeeded", want))
		return
	}
	var ok bool
	switch want {
	case ExpectNonConvergence:
		ok = engine.IsNonConvergence(err)
	case ExpectInvalidQuery:
		ok = engine.IsInvalidQuery(err)
	}
	if !ok {
		result.AddError(fmt.Sprintf("expected %s error, got: %v", want, err))
	}
}
