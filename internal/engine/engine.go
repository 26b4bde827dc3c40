package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/crpq/internal/ontology"
	"github.com/roach88/crpq/internal/queryir"
)

// DefaultMaxSteps is the default maximum number of queries a run expands.
const DefaultMaxSteps = 100000

// Rewriter computes the perfect rewriting of CRPQs over one ontology.
//
// Thread-safety model:
//   - Rewrite(): safe from any goroutine; each call is an independent run
//   - the ontology must not be modified while a run is in progress
//
// INVARIANTS:
//   - every query in a Result is the tau-normal form of a query derived
//     from the input by the five transformations
//   - no two queries in a Result have the same Key
//   - the set of keys does not depend on the number of workers
type Rewriter struct {
	onto        *ontology.Ontology
	maxSteps    int
	workers     int
	runIDs      RunIDGenerator
	logger      *slog.Logger
	derivations bool

	// names scopes the fresh-name source of each expanded query.
	names func(queryir.Query) queryir.FreshNames
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithMaxSteps sets the maximum number of queries a run may expand.
//
// Default: 100000 steps (DefaultMaxSteps). A value <= 0 removes the limit.
// Use WithMaxSteps(5) for testing non-convergence.
func WithMaxSteps(maxSteps int) Option {
	return func(r *Rewriter) {
		r.maxSteps = maxSteps
	}
}

// WithWorkers sets how many queries of a frontier are expanded in parallel.
// Default: 1 (sequential).
func WithWorkers(n int) Option {
	return func(r *Rewriter) {
		if n < 1 {
			n = 1
		}
		r.workers = n
	}
}

// WithRunIDGenerator sets the run ID source. Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(r *Rewriter) {
		r.runIDs = g
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Rewriter) {
		r.logger = l
	}
}

// WithDerivations turns on provenance recording in Result.Derivations.
func WithDerivations(on bool) Option {
	return func(r *Rewriter) {
		r.derivations = on
	}
}

// New creates a Rewriter for the ontology.
func New(o *ontology.Ontology, opts ...Option) *Rewriter {
	r := &Rewriter{
		onto:     o,
		maxSteps: DefaultMaxSteps,
		workers:  1,
		runIDs:   UUIDv7Generator{},
		logger:   slog.Default(),
		names:    newScopedNames,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Derivation records how a query was first discovered.
//
// ParentIndex and ChildIndex are positions in Result.Queries.
type Derivation struct {
	Parent      string // Key of the expanded query
	Child       string // Key of the produced query
	ParentIndex int
	ChildIndex  int
	Rule        Rule
	Detail      string
}

// Result is the complete union of rewritings of one input query.
type Result struct {
	RunID string

	// Input is the query as given; Queries[0] is its saturated tau form.
	Input queryir.Query

	// Queries in discovery order.
	Queries []queryir.Query

	// Derivations has one entry per query after the first, when enabled.
	Derivations []Derivation

	// Steps is the number of queries expanded.
	Steps int

	Duration time.Duration
}

// Rewrite computes the union of rewritings of q.
//
// The run starts from tau(saturate(q)) and expands queries frontier by
// frontier until no transformation yields a query with a new key. It
// returns a *RewriteError when q is invalid, when ctx ends, or when the
// step quota runs out.
func (r *Rewriter) Rewrite(ctx context.Context, q queryir.Query) (*Result, error) {
	start := time.Now()
	runID := r.runIDs.Generate()
	logger := r.logger.With("run_id", runID)

	check := queryir.Validate(q, r.onto)
	if !check.OK() {
		return nil, NewInvalidQueryError(runID, check.Errors)
	}
	for _, w := range check.Warnings {
		logger.Warn("query warning", "warning", w)
	}

	x := &expander{onto: r.onto, axioms: r.onto.Axioms(), names: r.names}

	logger.Info("rewrite starting",
		"query", q.String(),
		"axioms", len(x.axioms),
		"workers", r.workers,
	)

	seed := queryir.Tau(q.Saturate(r.onto))
	seen := NewSeenSet()
	seen.Add(seed.Key())
	res := &Result{RunID: runID, Input: q, Queries: []queryir.Query{seed}}

	work := newWorklist()
	work.Push(seed)
	quota := NewQuotaEnforcer(r.maxSteps)

	for level := 0; work.Len() > 0; level++ {
		if err := ctx.Err(); err != nil {
			logger.Warn("rewrite cancelled", "steps", quota.Current())
			return nil, NewCancelledError(runID, err)
		}

		frontier := work.Drain()
		logger.Debug("expanding frontier",
			"level", level,
			"size", len(frontier),
			"known", seen.Len(),
		)

		for range frontier {
			if err := quota.Check(runID); err != nil {
				se := err.(*StepsExceededError)
				logger.Error("max steps quota exceeded",
					"steps", se.Steps,
					"limit", se.Limit,
					"known", seen.Len(),
				)
				return nil, NewNonConvergenceError(runID, se, seen.Len())
			}
		}

		expansions, err := r.expandAll(ctx, x, frontier)
		if err != nil {
			return nil, NewCancelledError(runID, err)
		}

		for i, cands := range expansions {
			parent := frontier[i].Key()
			for _, c := range cands {
				key := c.query.Key()
				if !seen.Add(key) {
					continue
				}
				res.Queries = append(res.Queries, c.query)
				work.Push(c.query)
				if r.derivations {
					res.Derivations = append(res.Derivations, Derivation{
						Parent:      parent,
						Child:       key,
						ParentIndex: seen.Index(parent),
						ChildIndex:  seen.Index(key),
						Rule:        c.rule,
						Detail:      c.detail,
					})
				}
			}
		}
	}

	res.Steps = quota.Current()
	res.Duration = time.Since(start)

	logger.Info("rewrite finished",
		"queries", len(res.Queries),
		"steps", res.Steps,
		"duration", res.Duration,
	)
	return res, nil
}

// expandAll expands every query of a frontier, in parallel when configured.
// Results are indexed like frontier so the merge order never depends on
// scheduling.
func (r *Rewriter) expandAll(ctx context.Context, x *expander, frontier []queryir.Query) ([][]candidate, error) {
	out := make([][]candidate, len(frontier))

	if r.workers <= 1 || len(frontier) == 1 {
		for i, q := range frontier {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out[i] = x.expand(q)
		}
		return out, nil
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.workers)
	for i, q := range frontier {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int, q queryir.Query) {
			defer wg.Done()
			defer func() { <-sem }()
			out[i] = x.expand(q)
		}(i, q)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Ontology returns the ontology the rewriter works over.
func (r *Rewriter) Ontology() *ontology.Ontology {
	return r.onto
}

// MaxSteps returns the configured step quota.
func (r *Rewriter) MaxSteps() int {
	return r.maxSteps
}
