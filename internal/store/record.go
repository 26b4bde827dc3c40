package store

import (
	"fmt"

	"github.com/roach88/crpq/internal/engine"
	"github.com/roach88/crpq/internal/ir"
	"github.com/roach88/crpq/internal/ontology"
	"github.com/roach88/crpq/internal/querycypher"
	"github.com/roach88/crpq/internal/queryir"
)

// NewRunRecord builds the export of a finished run. Each query is stored
// with its own Cypher fragment, projected on answers.
func NewRunRecord(o *ontology.Ontology, res *engine.Result, answers []queryir.Term) (RunRecord, error) {
	hash, err := ir.OntologyHash(o)
	if err != nil {
		return RunRecord{}, fmt.Errorf("new run record: %w", err)
	}

	names := make([]string, len(answers))
	for i, t := range answers {
		names[i] = t.Name
	}

	rec := RunRecord{
		Run: Run{
			ID:            res.RunID,
			OntologyName:  o.Name,
			OntologyHash:  hash,
			InputQuery:    res.Input.String(),
			AnswerVars:    names,
			QueryCount:    len(res.Queries),
			Steps:         res.Steps,
			EngineVersion: ir.EngineVersion,
		},
		Queries: make([]RunQuery, 0, len(res.Queries)),
	}

	ids := make(map[string]string, len(res.Queries)) // key -> query ID
	for i, q := range res.Queries {
		id, err := ir.QueryID(q)
		if err != nil {
			return RunRecord{}, fmt.Errorf("new run record: query %d: %w", i+1, err)
		}
		cypher, err := querycypher.TranslateQuery(answers, q)
		if err != nil {
			return RunRecord{}, fmt.Errorf("new run record: query %d: %w", i+1, err)
		}
		ids[q.Key()] = id
		rec.Queries = append(rec.Queries, RunQuery{
			RunID:   res.RunID,
			QueryID: id,
			Seq:     int64(i + 1),
			Key:     q.Key(),
			Text:    q.String(),
			Cypher:  cypher,
		})
	}

	for i, d := range res.Derivations {
		parent, ok := ids[d.Parent]
		if !ok {
			return RunRecord{}, fmt.Errorf("new run record: derivation %d: unknown parent %s", i+1, d.Parent)
		}
		child, ok := ids[d.Child]
		if !ok {
			return RunRecord{}, fmt.Errorf("new run record: derivation %d: unknown child %s", i+1, d.Child)
		}
		id, err := ir.DerivationID(res.RunID, parent, child, string(d.Rule), d.Detail)
		if err != nil {
			return RunRecord{}, fmt.Errorf("new run record: derivation %d: %w", i+1, err)
		}
		rec.Derivations = append(rec.Derivations, Derivation{
			ID:       id,
			RunID:    res.RunID,
			ParentID: parent,
			ChildID:  child,
			Rule:     string(d.Rule),
			Detail:   d.Detail,
			Seq:      int64(i + 1),
		})
	}

	return rec, nil
}
