package ontology

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	assert.Empty(t, Validate(university()))
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name    string
		build   func(o *Ontology)
		wantMsg string
	}{
		{
			name:    "class starting with digit",
			build:   func(o *Ontology) { o.DeclareClass("1st") },
			wantMsg: "class 1st: name is not a valid identifier",
		},
		{
			name:    "property with dash",
			build:   func(o *Ontology) { o.DeclareProperty("taught-by") },
			wantMsg: "property taught-by: name is not a valid identifier",
		},
		{
			name: "class and property share a name",
			build: func(o *Ontology) {
				o.DeclareClass("teaches")
				o.DeclareProperty("teaches")
			},
			wantMsg: "teaches: name is used as both class and property",
		},
		{
			name:    "empty name in axiom",
			build:   func(o *Ontology) { o.Add(SubPropertyOf{Sub: Prop("r"), Sup: Prop("")}) },
			wantMsg: "axiom mentions an empty name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New("t")
			tt.build(o)

			errs := Validate(o)
			require.NotEmpty(t, errs)

			var msgs []string
			for _, err := range errs {
				assert.True(t, IsProfileError(err))
				msgs = append(msgs, err.Error())
			}
			assert.Contains(t, fmt.Sprint(msgs), tt.wantMsg)
		})
	}
}

func TestProfileError(t *testing.T) {
	err := &ProfileError{Subject: "r", Reason: "TransitiveProperty is not supported"}
	assert.Equal(t, "not in OWL 2 QL profile: r: TransitiveProperty is not supported", err.Error())
	assert.True(t, IsProfileError(fmt.Errorf("load: %w", err)))
	assert.False(t, IsProfileError(fmt.Errorf("plain")))
}

func TestIsIdentifier(t *testing.T) {
	for _, ok := range []string{"A", "Assistant_Prof", "_x", "r2", "Über"} {
		assert.True(t, isIdentifier(ok), ok)
	}
	for _, bad := range []string{"", "2r", "a-b", "a b", "a:b"} {
		assert.False(t, isIdentifier(bad), bad)
	}
}
