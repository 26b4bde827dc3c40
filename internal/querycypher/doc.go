// Package querycypher renders a union of rewritten queries as Cypher.
//
// Each query becomes one fragment of MATCH clauses, an optional WHERE
// clause and a RETURN DISTINCT projection; fragments are joined with UNION.
// Evaluating the statement over the raw graph returns the certain answers
// of the original query, with no reasoning at query time.
//
// Mapping:
//
//	(A|B)(x)       match (x)                     where (x:A or x:B)
//	(r|s)(x,y)     match (x)-[:r|s]->(y)
//	(r-|s-)(x,y)   match (x)<-[:r|s]-(y)
//	(r|s-)(x,y)    match (x)-[r1:r|s]-(y)        where ((startnode(r1)=x and type(r1)="r") or ...)
//	(r|s)*(x,y)    match (x)-[:r|s*0..]->(y)
//
// Unbound terms become node variables prefixed with "_", so two distinct
// existential positions are never merged by Cypher.
//
// DETERMINISM:
//
// Output is a pure function of the input: labels are sorted, MATCH and WHERE
// parts of a fragment are sorted and deduplicated, and fragments keep the
// order of the input union with duplicates dropped. Golden files rely on it.
package querycypher
