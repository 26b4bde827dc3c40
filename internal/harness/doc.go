// Package harness runs conformance scenarios against the rewriter.
//
// A scenario names an ontology, a query and the assertions its rewriting
// must satisfy. The harness loads the ontology, rewrites the query with
// derivations recorded, translates the union to Cypher, exports the run to
// an in-memory database and evaluates the assertions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: university
//	description: "What this scenario validates"
//	ontology: ../ontologies/university.cue
//	query: "q(x) :- teaches(x,y), Course(y)"
//	golden: true
//	assertions:
//	  - type: query_count
//	    count: 4
//	  - type: contains_query
//	    query: "q(x) :- Professor(x)"
//	  - type: derived_by
//	    query: "q(x) :- Professor(x)"
//	    rule: unify
//	  - type: final_state
//	    table: runs
//	    where: { id: "test-run-default" }
//	    expect: { query_count: 4 }
//
// The ontology may be a .cue file, a CUE package directory or an RDF/XML
// file. query_name picks a query declared next to the ontology instead of
// inline query text.
//
// # Assertion Types
//
//   - query_count: the union has exactly N queries
//   - contains_query, excludes_query: membership, compared by key after
//     saturation and tau
//   - query_order: queries were discovered in the listed order
//   - derived_by: the lineage of a query applied the named rule
//   - cypher_contains: the translated Cypher contains a fragment
//   - final_state: queries an export table and verifies expected values
//
// A scenario with expect_error set passes only when the rewriting fails
// with that error ("non_convergence" or "invalid_query").
//
// # Deterministic Testing
//
// Every run uses a fixed run ID (run_id, or "test-run-default"), a stepping
// export clock and a fresh in-memory SQLite database, so the Cypher output
// can be compared against golden files.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/university.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
