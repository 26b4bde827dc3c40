package store

import "time"

// Run is one exported rewriting run.
type Run struct {
	ID string

	// Seq orders runs by export; assigned by WriteRun.
	Seq int64

	OntologyName  string
	OntologyHash  string
	InputQuery    string
	AnswerVars    []string
	QueryCount    int
	Steps         int
	EngineVersion string

	// ExportedAt is for display. Never order by it.
	ExportedAt time.Time
}

// RunQuery is one query of a run's union.
type RunQuery struct {
	RunID   string
	QueryID string
	Seq     int64 // 1-based discovery order
	Key     string
	Text    string
	Cypher  string
}

// Derivation is a provenance edge: the child query was first produced by
// applying Rule to the parent query.
type Derivation struct {
	ID       string
	RunID    string
	ParentID string
	ChildID  string
	Rule     string
	Detail   string
	Seq      int64
}

// RunRecord is everything WriteRun stores for one run.
type RunRecord struct {
	Run         Run
	Queries     []RunQuery
	Derivations []Derivation
}
