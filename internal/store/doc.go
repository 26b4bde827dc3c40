// Package store exports finished rewriting runs to SQLite.
//
// A run is written once, with every query of its union and the derivation
// that first produced each query:
//   - runs: one row per run (ontology hash, input query, answer variables)
//   - run_queries: the union in discovery order, with Cypher per query
//   - derivations: provenance edges parent query → child query
//
// The store is an audit record. The rewriter never reads it back.
//
// # Critical Patterns
//
// Idempotent writes
//   - Run IDs, query IDs and derivation IDs are content-addressed or unique
//   - Every INSERT uses ON CONFLICT DO NOTHING; rewriting a run is a no-op
//
// Deterministic reads
//   - All queries include ORDER BY seq ASC, id ASC COLLATE BINARY
//   - runs.seq is a logical export counter; exported_at is display only
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Query and derivation IDs are computed by internal/ir.
package store
