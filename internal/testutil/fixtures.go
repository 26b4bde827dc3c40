package testutil

import (
	"github.com/roach88/crpq/internal/ontology"
	"github.com/roach88/crpq/internal/queryir"
)

// University is a small teaching ontology:
//
//	teaches ≡ taughtBy⁻
//	Assistant_Prof ⊑ Professor
//	Professor ⊑ ∃teaches
//	∃teaches ⊑ Professor
//	∃teaches⁻ ⊑ Course
func University() *ontology.Ontology {
	o := ontology.New("university")
	o.DeclareClass("Student")
	o.Add(ontology.InverseOf{P: "teaches", Q: "taughtBy"})
	o.Add(ontology.SubClassOf{Sub: ontology.Class("Assistant_Prof"), Sup: ontology.Class("Professor")})
	o.Add(ontology.SubClassOf{Sub: ontology.Class("Professor"), Sup: ontology.Some(ontology.Prop("teaches"))})
	o.Add(ontology.Domain{Role: ontology.Prop("teaches"), Class: ontology.Class("Professor")})
	o.Add(ontology.Range{Role: ontology.Prop("teaches"), Class: ontology.Class("Course")})
	return o
}

// TeachesCourse is q(x) :- teaches(x,y), Course(y).
func TeachesCourse() queryir.Query {
	x, y := queryir.Var("x"), queryir.Var("y")
	return queryir.NewQuery([]queryir.Term{x},
		queryir.Role(x, y, "teaches"),
		queryir.Concept(y, "Course"),
	)
}

// Supervision is a graduate supervision ontology with a professor
// hierarchy and one subproperty.
func Supervision() *ontology.Ontology {
	o := ontology.New("supervision")
	for _, sub := range []string{"AssistantProfessor", "AssociateProfessor", "FullProfessor"} {
		o.Add(ontology.SubClassOf{Sub: ontology.Class(sub), Sup: ontology.Class("Professor")})
	}
	o.Add(ontology.SubClassOf{Sub: ontology.Class("PhDStudent"), Sup: ontology.Class("GraduateStudent")})
	o.Add(ontology.SubPropertyOf{Sub: ontology.Prop("gradStudentSupervisedBy"), Sup: ontology.Prop("isSupervisedBy")})
	o.Add(ontology.Range{Role: ontology.Prop("gradStudentSupervisedBy"), Class: ontology.Class("Professor")})
	o.Add(ontology.SubClassOf{Sub: ontology.Class("GraduateStudent"), Sup: ontology.Some(ontology.Prop("gradStudentSupervisedBy"))})
	o.Add(ontology.Domain{Role: ontology.Prop("gradStudentSupervisedBy"), Class: ontology.Class("GraduateStudent")})
	o.Add(ontology.SubClassOf{Sub: ontology.Class("GraduateStudent"), Sup: ontology.Class("Student")})
	o.Add(ontology.SubClassOf{Sub: ontology.Class("Professor"), Sup: ontology.Class("Faculty")})
	return o
}

// SupervisedByProfessor is q(x) :- isSupervisedBy(x,y), Professor(y).
func SupervisedByProfessor() queryir.Query {
	x, y := queryir.Var("x"), queryir.Var("y")
	return queryir.NewQuery([]queryir.Term{x},
		queryir.Role(x, y, "isSupervisedBy"),
		queryir.Concept(y, "Professor"),
	)
}

// Paths relates the roles t, s and r:
//
//	s ⊑ r
//	∃r ⊑ ∃t⁻
func Paths() *ontology.Ontology {
	o := ontology.New("paths")
	o.Add(ontology.SubPropertyOf{Sub: ontology.Prop("s"), Sup: ontology.Prop("r")})
	o.Add(ontology.SubClassOf{Sub: ontology.Some(ontology.Prop("r")), Sup: ontology.Some(ontology.Prop("t").Inv())})
	return o
}

// ChainQuery is q(head) :- t(y,z1), s*(z1,z2), r(z2,x).
func ChainQuery(head ...queryir.Term) queryir.Query {
	x, y := queryir.Var("x"), queryir.Var("y")
	z1, z2 := queryir.Var("z1"), queryir.Var("z2")
	return queryir.NewQuery(head,
		queryir.Role(y, z1, "t"),
		queryir.Path(z1, z2, "s"),
		queryir.Role(z2, x, "r"),
	)
}

// Reach has a concept A whose members start an r edge, and a concept B
// covering both ends of every r edge.
//
//	A ⊑ ∃r
//	∃r ⊑ B
//	∃r⁻ ⊑ B
func Reach() *ontology.Ontology {
	o := ontology.New("reach")
	o.Add(ontology.SubClassOf{Sub: ontology.Class("A"), Sup: ontology.Some(ontology.Prop("r"))})
	o.Add(ontology.Domain{Role: ontology.Prop("r"), Class: ontology.Class("B")})
	o.Add(ontology.Range{Role: ontology.Prop("r"), Class: ontology.Class("B")})
	return o
}

// ReachQuery is q() :- A(x), r*(x,y), B(y).
func ReachQuery() queryir.Query {
	x, y := queryir.Var("x"), queryir.Var("y")
	return queryir.NewQuery(nil,
		queryir.Concept(x, "A"),
		queryir.Path(x, y, "r"),
		queryir.Concept(y, "B"),
	)
}

// Keys returns the keys of qs in order.
func Keys(qs []queryir.Query) []string {
	keys := make([]string, len(qs))
	for i, q := range qs {
		keys[i] = q.Key()
	}
	return keys
}
