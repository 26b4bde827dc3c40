package ontology

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func university() *Ontology {
	o := New("university")
	o.DeclareClass("Student")
	o.Add(InverseOf{P: "teaches", Q: "taughtBy"})
	o.Add(SubClassOf{Sub: Class("Assistant_Prof"), Sup: Class("Professor")})
	o.Add(SubClassOf{Sub: Class("Professor"), Sup: Some(Prop("teaches"))})
	o.Add(Domain{Role: Prop("teaches"), Class: Class("Professor")})
	o.Add(Range{Role: Prop("teaches"), Class: Class("Course")})
	return o
}

func TestOntology_Signature(t *testing.T) {
	o := university()

	assert.Equal(t, []string{"Assistant_Prof", "Course", "Professor", "Student"}, o.Classes())
	assert.Equal(t, []string{"taughtBy", "teaches"}, o.Properties())
	assert.True(t, o.HasClass("Course"))
	assert.False(t, o.HasClass("teaches"))
	assert.True(t, o.HasProperty("taughtBy"))
	assert.False(t, o.HasProperty("advises"))
}

func TestOntology_Declare(t *testing.T) {
	o := New("t")
	assert.True(t, o.DeclareClass("A"))
	assert.False(t, o.DeclareClass("A"))
	assert.True(t, o.DeclareProperty("r"))
	assert.False(t, o.DeclareProperty("r"))
	assert.Equal(t, 0, o.Len())
}

func TestOntology_AddIgnoresDuplicates(t *testing.T) {
	o := New("t")
	ax := SubClassOf{Sub: Class("A"), Sup: Class("B")}
	o.Add(ax)
	o.Add(ax)

	assert.Equal(t, 1, o.Len())
	assert.Equal(t, []string{"A"}, o.SubConceptsOf("B"))
}

func TestOntology_AxiomsKeepOrder(t *testing.T) {
	o := university()

	axioms := o.Axioms()
	require.Len(t, axioms, 5)
	assert.Equal(t, InverseOf{P: "teaches", Q: "taughtBy"}, axioms[0])
	assert.Equal(t, Range{Role: Prop("teaches"), Class: Class("Course")}, axioms[4])

	// The result is a copy.
	axioms[0] = nil
	assert.NotNil(t, o.Axioms()[0])
}

func TestOntology_Indexes(t *testing.T) {
	o := university()
	o.Add(SubPropertyOf{Sub: Prop("lectures"), Sup: Prop("teaches")})

	assert.Equal(t, []string{"Assistant_Prof"}, o.SubConceptsOf("Professor"))
	assert.Empty(t, o.SubConceptsOf("Assistant_Prof"))
	assert.Equal(t, []Role{Prop("lectures")}, o.SubRolesOf(Prop("teaches")))
	assert.Empty(t, o.SubRolesOf(Prop("teaches").Inv()))
	assert.Equal(t, []string{"taughtBy"}, o.InversesOf("teaches"))
	assert.Equal(t, []string{"teaches"}, o.InversesOf("taughtBy"))
	assert.Equal(t, []BasicConcept{Class("Professor")}, o.DomainsOf(Prop("teaches")))
	assert.Equal(t, []BasicConcept{Class("Course")}, o.RangesOf(Prop("teaches")))
	assert.Empty(t, o.RangesOf(Prop("teaches").Inv()))
}

func TestOntology_SelfInverse(t *testing.T) {
	o := New("t")
	o.Add(InverseOf{P: "knows", Q: "knows"})
	assert.Equal(t, []string{"knows"}, o.InversesOf("knows"))
}

func TestOntology_ConcurrentDeclare(t *testing.T) {
	o := university()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.DeclareClass("Lecture")
			_ = o.HasClass("Professor")
			_ = o.Classes()
		}()
	}
	wg.Wait()

	assert.True(t, o.HasClass("Lecture"))
}
