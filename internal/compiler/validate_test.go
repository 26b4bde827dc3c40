package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileSpec(t *testing.T, src, path string) *Spec {
	t.Helper()
	spec, err := CompileSpec(compileValue(t, src, path))
	require.NoError(t, err)
	return spec
}

func TestValidate_Clean(t *testing.T) {
	spec := compileSpec(t, universitySrc, "ontology.university")
	findings := Validate(spec)
	assert.Empty(t, findings)
	assert.False(t, HasErrors(findings))
}

func TestValidate_Findings(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		code     string
		severity string
		field    string
		message  string
	}{
		{
			name:     "profile",
			src:      `ontology: o: { classes: ["1st"] }`,
			code:     ErrProfile,
			severity: SeverityError,
			field:    "ontology.o",
			message:  "not a valid identifier",
		},
		{
			name:     "cycle",
			src:      `ontology: o: { axioms: [{subClassOf: {sub: "A", sup: "B"}}, {subClassOf: {sub: "B", sup: "A"}}] }`,
			code:     ErrSubsumptionCycle,
			severity: SeverityWarning,
			field:    "ontology.o",
			message:  "A ⊑ B ⊑ A",
		},
		{
			name:     "answer variable not in body",
			src:      `ontology: o: { properties: ["r"], queries: { q1: "q(z) :- r(x,y)" } }`,
			code:     ErrQuerySuspicious,
			severity: SeverityWarning,
			field:    "queries.q1",
			message:  "answer variable z does not occur in the body",
		},
		{
			name:     "undeclared concept",
			src:      `ontology: o: { properties: ["r"], queries: { q1: "q(x) :- Lecturer(x), r(x,y)" } }`,
			code:     ErrUndeclaredConcept,
			severity: SeverityWarning,
			field:    "queries.q1",
			message:  "concept Lecturer is not declared",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := Validate(compileSpec(t, tt.src, "ontology.o"))
			require.Len(t, findings, 1)

			f := findings[0]
			assert.Equal(t, tt.code, f.Code)
			assert.Equal(t, tt.severity, f.Severity)
			assert.Equal(t, tt.field, f.Field)
			assert.Contains(t, f.Message, tt.message)
			assert.Equal(t, tt.severity == SeverityError, HasErrors(findings))
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	e := ValidationError{Field: "queries.q1", Message: "query body is empty", Code: ErrQueryInvalid, Severity: SeverityError}
	assert.Equal(t, "[E110] queries.q1: query body is empty", e.Error())
	assert.True(t, e.IsError())
}
