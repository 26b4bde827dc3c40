// Package ir computes content-addressed identities for rewriting artifacts.
//
// Queries, ontologies and derivations are encoded as canonical JSON
// (RFC 8785 with NFC-normalized strings) and hashed with a domain prefix.
// The same query, written with atoms in any order, always gets the same ID
// on every machine; exported runs can therefore be compared by ID alone.
//
// Key design constraints:
//   - NO float values; numbers are int64
//   - object keys sort by UTF-16 code units, not UTF-8 bytes
//   - every hash domain carries a version suffix
package ir
