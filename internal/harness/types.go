package harness

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the run matched the expected outcome and every assertion held.
	Pass bool `json:"pass"`

	RunID string `json:"run_id"`

	// Queries holds the keys of the rewriting in discovery order.
	Queries []string `json:"queries"`

	// Cypher is the translated union; empty when the run failed.
	Cypher string `json:"cypher,omitempty"`

	// Warnings from the translator (mixed directions, missing heads).
	Warnings []string `json:"warnings,omitempty"`

	Steps int `json:"steps"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult(runID string) *Result {
	return &Result{
		Pass:    true,
		RunID:   runID,
		Queries: []string{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
