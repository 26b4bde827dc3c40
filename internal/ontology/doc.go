// Package ontology models the DL-Lite_R fragment of OWL 2 QL consumed by the
// rewriting engine.
//
// An Ontology is a signature (class names and object property names) plus an
// ordered list of normalized axioms. Only the shapes needed for perfect
// rewriting are representable:
//
//	SubClassOf(B1, B2)      B ::= A | ∃R
//	Domain(r, B)            ∃r  ⊑ B
//	Range(r, B)             ∃r⁻ ⊑ B
//	SubPropertyOf(R1, R2)   R ::= p | p⁻
//	InverseOf(p, q)         p ≡ q⁻
//
// Axiom is a sealed interface. Consumers switch over the concrete variants
// exhaustively; adding a variant forces every switch to be revisited.
//
// LOADING:
//
// Ontologies arrive from two front ends:
//   - CUE specs, compiled by internal/compiler
//   - RDF/XML documents, parsed by LoadOWL in this package
//
// Both produce the same *Ontology. Validate performs the profile check; the
// rewriting engine is never invoked with an ontology that failed it.
//
// SATURATION QUERIES:
//
// SubConceptsOf, SubRolesOf and InversesOf answer the one-step questions the
// atom saturation in internal/queryir iterates to a fixpoint. They return
// direct (asserted) relations only and never allocate on a miss.
package ontology
