// Package queryir provides the query intermediate representation (IR) for
// ontology-mediated rewriting of conjunctive regular path queries (CRPQs).
//
// ARCHITECTURE:
//
// The IR sits between the query parser and the Cypher backend:
//
//	[query text] → [parser] → [Query IR] → [engine rewriting] → [Cypher]
//
// A Query is a head (ordered answer variables) and a body (a set of atoms).
// Atoms come in three kinds:
//   - ConceptAtom: (A|B)(x)       disjunction of class names on one term
//   - RoleAtom:    (r|s-)(x,y)    disjunction of roles, possibly inverse
//   - PathAtom:    (r|s)*(x,y)    zero-or-more hops over direct roles
//
// SEALED INTERFACES:
//
// Atom is a sealed interface using the marker method pattern. Only types in
// this package can implement it. Every consumer switches over the concrete
// variants exhaustively and panics on an unknown type, so adding a variant
// forces each switch to be revisited.
//
// IMMUTABILITY:
//
// Terms, atoms and queries are values. Every operation (saturation,
// substitution, tau, axiom replacement) returns a new value; nothing is
// updated in place, so atoms may be shared freely between queries and
// goroutines.
//
// EQUALITY:
//
// Two notions are used, deliberately kept apart:
//
//	identity  Term == Term             kind + name; used by the unifier,
//	                                   substitution and endpoint checks
//	key       Atom.Key(), Query.Key()  printed form; every unbound term
//	                                   prints as "_", and a RoleAtom's key is
//	                                   the smaller of its own and its
//	                                   inverse's printed form
//
// Keys are the only equality used for deduplication. They make
// r(x,_v1) and r(x,_v7) the same atom, and r(x,y) the same as r-(y,x).
package queryir
