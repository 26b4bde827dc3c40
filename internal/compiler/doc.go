// Package compiler turns CUE ontology specs into ontologies the rewriter
// can use, and checks them.
//
// A spec file holds one or more ontologies under the top-level "ontology"
// field:
//
//	ontology: university: {
//		classes:    ["Professor", "Course"]
//		properties: ["teaches", "taughtBy"]
//		axioms: [
//			{subClassOf: {sub: "Assistant_Prof", sup: "Professor"}},
//			{subClassOf: {sub: "Professor", sup: {some: "teaches"}}},
//			{domain: {property: "teaches", class: "Professor"}},
//			{range: {property: "teaches", class: "Course"}},
//			{inverseOf: ["teaches", "taughtBy"]},
//		]
//		queries: {
//			teachesCourse: "q(x) :- teaches(x,y), Course(y)"
//		}
//	}
//
// Roles may be written "r-" for the inverse of r. Errors carry the CUE
// source position of the offending value.
package compiler
