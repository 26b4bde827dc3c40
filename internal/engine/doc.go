// Package engine implements the perfect-rewriting fixpoint for CRPQs.
//
// The rewriter takes a query and an ontology and computes the finite union
// of queries whose answers over the raw graph are the certain answers of the
// original query under the ontology.
//
// ARCHITECTURE:
//
// Frontier Fixpoint:
// The run keeps a worklist of discovered queries and a seen-set of their
// keys. Each round drains the worklist (the frontier), expands every query
// in it, and pushes each produced query whose key is new.
//
//  1. seed = tau(saturate(q))
//  2. expand(q') applies, in order:
//     (a) every applicable axiom to every atom
//     (b) unification of every pair of atoms with equal labels
//     (c) concatenation of a role or path atom onto a path atom
//     (d) merging of two binary atoms on their shared roles
//     (e) dropping of a path atom with an unbound endpoint
//  3. every produced query goes through tau before its key is checked
//
// Parallelism:
// With WithWorkers(n) the queries of one frontier are expanded by up to n
// goroutines. The merge into the seen-set stays on the calling goroutine
// and walks the frontier in order, so the result is the same set of keys in
// the same discovery order for any n. Only the numbering of invented
// variables (v1, v2, ...) may differ, and it never shows in a key.
//
// CRITICAL PATTERNS:
//
// Fresh Names:
// All invented variables come from one atomic Clock per run.
//
// Termination:
// The seen-set stops re-expansion of known queries. The step quota
// (WithMaxSteps) turns a run that does not converge into a
// NON_CONVERGENCE RewriteError instead of running forever.
package engine
