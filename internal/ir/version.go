package ir

// Version constants for identities and the rewriting engine.
const (
	// IDVersion is the version suffix of every hash domain.
	IDVersion = "v1"

	// EngineVersion is the crpq release.
	EngineVersion = "0.1.0"
)
