package compiler

import (
	"fmt"

	"github.com/roach88/crpq/internal/ontology"
	"github.com/roach88/crpq/internal/queryir"
)

// Validation codes (E100-E199)
const (
	// Ontology (E101-E109)
	ErrProfile          = "E101" // axiom or name outside DL-Lite_R
	ErrSubsumptionCycle = "E102" // classes or properties collapse into one

	// Queries (E110-E119)
	ErrQueryInvalid      = "E110" // the rewriter would refuse the query
	ErrQuerySuspicious   = "E111" // rewrites, but probably not what was meant
	ErrUndeclaredConcept = "E112" // concept the ontology never mentions
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationError is one finding about a compiled spec.
type ValidationError struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Code     string `json:"code"`
	Severity string `json:"severity"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// IsError reports whether the finding makes the spec unusable.
func (e ValidationError) IsError() bool {
	return e.Severity == SeverityError
}

// Validate checks a compiled spec. Returns all findings (does not
// fail-fast), errors before warnings within each part.
func Validate(spec *Spec) []ValidationError {
	var out []ValidationError
	o := spec.Ontology

	for _, err := range ontology.Validate(o) {
		out = append(out, ValidationError{
			Field:    "ontology." + o.Name,
			Message:  err.Error(),
			Code:     ErrProfile,
			Severity: SeverityError,
		})
	}
	for _, c := range FindSubsumptionCycles(o) {
		out = append(out, ValidationError{
			Field:    "ontology." + o.Name,
			Message:  c.Message,
			Code:     ErrSubsumptionCycle,
			Severity: SeverityWarning,
		})
	}

	for _, nq := range spec.Queries {
		field := "queries." + nq.Name
		check := queryir.Validate(nq.Query, o)
		for _, msg := range check.Errors {
			out = append(out, ValidationError{Field: field, Message: msg, Code: ErrQueryInvalid, Severity: SeverityError})
		}
		for _, msg := range check.Warnings {
			out = append(out, ValidationError{Field: field, Message: msg, Code: ErrQuerySuspicious, Severity: SeverityWarning})
		}
		for _, name := range nq.Declared {
			out = append(out, ValidationError{
				Field:    field,
				Message:  fmt.Sprintf("concept %s is not declared in the ontology", name),
				Code:     ErrUndeclaredConcept,
				Severity: SeverityWarning,
			})
		}
	}

	return out
}

// HasErrors reports whether any finding is an error.
func HasErrors(findings []ValidationError) bool {
	for _, f := range findings {
		if f.IsError() {
			return true
		}
	}
	return false
}
