package querycypher

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crpq/internal/engine"
	"github.com/roach88/crpq/internal/ontology"
	"github.com/roach88/crpq/internal/queryir"
	"github.com/roach88/crpq/internal/testutil"
)

var (
	x = queryir.Var("x")
	y = queryir.Var("y")
)

func TestTranslateQuery_Atoms(t *testing.T) {
	tests := []struct {
		name string
		atom queryir.Atom
		want string
	}{
		{
			name: "concept",
			atom: queryir.Concept(x, "B", "A"),
			want: "match (x)\nwhere (x:A or x:B)\nreturn distinct x as x",
		},
		{
			name: "direct roles",
			atom: queryir.Role(x, y, "s", "r"),
			want: "match (x)-[:r|s]->(y)\nreturn distinct x as x",
		},
		{
			name: "inverse roles",
			atom: queryir.Role(x, y, "r-", "s-"),
			want: "match (x)<-[:r|s]-(y)\nreturn distinct x as x",
		},
		{
			name: "mixed roles",
			atom: queryir.Role(x, y, "r", "s-"),
			want: "match (x)-[r1:r|s]-(y)\n" +
				`where ((startnode(r1)=x and type(r1)="r") or (startnode(r1)=y and type(r1)="s"))` + "\n" +
				"return distinct x as x",
		},
		{
			name: "one name both ways",
			atom: queryir.Role(x, y, "r", "r-"),
			want: "match (x)-[r1:r]-(y)\n" +
				`where ((startnode(r1)=x and type(r1)="r") or (startnode(r1)=y and type(r1)="r"))` + "\n" +
				"return distinct x as x",
		},
		{
			name: "path",
			atom: queryir.Path(x, y, "s", "r"),
			want: "match (x)-[:r|s*0..]->(y)\nreturn distinct x as x",
		},
		{
			name: "unbound endpoint",
			atom: queryir.Role(x, queryir.Anon("y"), "r"),
			want: "match (x)-[:r]->(_y)\nreturn distinct x as x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := queryir.NewQuery([]queryir.Term{x}, tt.atom)
			got, err := TranslateQuery([]queryir.Term{x}, q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslateQuery_ClausesSortedAndUnique(t *testing.T) {
	q := queryir.Query{
		Head: []queryir.Term{x},
		Body: []queryir.Atom{
			queryir.Concept(y, "B"),
			queryir.Role(x, y, "r"),
			queryir.Concept(x, "A"),
		},
	}
	got, err := TranslateQuery([]queryir.Term{x}, q)
	require.NoError(t, err)
	assert.Equal(t,
		"match (x)\nmatch (x)-[:r]->(y)\nmatch (y)\nwhere (x:A) and (y:B)\nreturn distinct x as x",
		got)
}

func TestTranslateQuery_RelationshipVariablesNumberedInBodyOrder(t *testing.T) {
	z := queryir.Var("z")
	q := queryir.Query{
		Body: []queryir.Atom{
			queryir.Role(x, y, "r", "s-"),
			queryir.Role(y, z, "t-", "u"),
		},
	}
	got, err := TranslateQuery(nil, q)
	require.NoError(t, err)
	assert.Equal(t,
		"match (x)-[r1:r|s]-(y)\n"+
			"match (y)-[r2:t|u]-(z)\n"+
			`where ((startnode(r1)=x and type(r1)="r") or (startnode(r1)=y and type(r1)="s")) and `+
			`((startnode(r2)=y and type(r2)="u") or (startnode(r2)=z and type(r2)="t"))`+"\n"+
			"return distinct 1",
		got)
}

func TestReturnClause(t *testing.T) {
	a, b := queryir.Var("a"), queryir.Var("b")
	tests := []struct {
		name    string
		answers []queryir.Term
		head    []queryir.Term
		want    string
	}{
		{"boolean", nil, nil, "return distinct 1"},
		{"boolean ignores head", nil, []queryir.Term{x}, "return distinct 1"},
		{"renamed head", []queryir.Term{x}, []queryir.Term{y}, "return distinct y as x"},
		{"two answers", []queryir.Term{a, b}, []queryir.Term{x, y}, "return distinct x as a, y as b"},
		{"short head", []queryir.Term{a, b}, []queryir.Term{x}, "return distinct x as a"},
		{"short answers", []queryir.Term{a}, []queryir.Term{x, y}, "return distinct x as a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, returnClause(tt.answers, tt.head))
		})
	}
}

func TestTranslate_EmptyUnion(t *testing.T) {
	_, err := Translate(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty union")
}

func TestTranslate_DropsDuplicateFragments(t *testing.T) {
	q1 := queryir.NewQuery([]queryir.Term{x}, queryir.Concept(x, "A"))
	q2 := queryir.NewQuery([]queryir.Term{x}, queryir.Role(x, y, "r"))

	got, err := Translate([]queryir.Term{x}, []queryir.Query{q1, q2, q1})
	require.NoError(t, err)
	assert.Equal(t,
		"match (x)\nwhere (x:A)\nreturn distinct x as x"+
			UnionSeparator+
			"match (x)-[:r]->(y)\nreturn distinct x as x",
		got)
}

func TestNodeVar(t *testing.T) {
	assert.Equal(t, "x", NodeVar(x))
	assert.Equal(t, "_x", NodeVar(queryir.Anon("x")))
}

func rewrite(t *testing.T, o *ontology.Ontology, q queryir.Query) []queryir.Query {
	t.Helper()
	r := engine.New(o, engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	res, err := r.Rewrite(context.Background(), q)
	require.NoError(t, err)
	return res.Queries
}

func TestTranslate_Golden(t *testing.T) {
	tests := []struct {
		name    string
		onto    *ontology.Ontology
		query   queryir.Query
		answers []queryir.Term
	}{
		{"university", testutil.University(), testutil.TeachesCourse(), []queryir.Term{x}},
		{"supervision", testutil.Supervision(), testutil.SupervisedByProfessor(), []queryir.Term{x}},
		{"chain_boolean", testutil.Paths(), testutil.ChainQuery(), nil},
		{"chain", testutil.Paths(), testutil.ChainQuery(x), []queryir.Term{x}},
		{"reach", testutil.Reach(), testutil.ReachQuery(), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Translate(tt.answers, rewrite(t, tt.onto, tt.query))
			require.NoError(t, err)

			g := goldie.New(t,
				goldie.WithFixtureDir("testdata/golden"),
				goldie.WithNameSuffix(".golden"),
			)
			g.Assert(t, tt.name, []byte(got))
		})
	}
}
