package testutil

// FixedRunIDGenerator returns the same run ID every time.
//
// Golden snapshots embed the run ID, so a scenario replayed with the same
// generator renders byte-identical output.
//
// Unlike engine.FixedGenerator, which hands out a list of IDs in order and
// then panics, this generator never runs out.
//
// Thread-safety: FixedRunIDGenerator is stateless and safe for concurrent use.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a generator for id.
// An empty id becomes "test-run-default".
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run ID.
// Implements engine.RunIDGenerator.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
