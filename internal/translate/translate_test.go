package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/corvid/internal/query"
	"github.com/aidanlsb/corvid/internal/search"
	"github.com/aidanlsb/corvid/internal/testutil"
)

func repo(t *testing.T) *testutil.NodeSet {
	t.Helper()
	return testutil.NewNodeSet(t).
		Add("people", "people", "folder").
		Child("people", "ada", "ada", "person", testutil.Str("full", "Ada Lovelace"), testutil.Num("born", "1815")).
		Child("people", "alan", "alan", "person", testutil.Str("full", "Alan Turing"), testutil.Num("born", "1912")).
		Add("projects", "projects", "folder").
		Child("projects", "engine", "engine", "project",
			testutil.Ref("owner", "ada"), testutil.Str("status", "Open"), testutil.Num("rank", "2")).
		WithBody("analytical engine notes").
		Child("projects", "bombe", "bombe", "project",
			testutil.Ref("owner", "alan"), testutil.Str("status", "closed"), testutil.Num("rank", "5")).
		WithBody("codebreaking machine").
		Child("projects", "ghost", "ghost", "project",
			testutil.Ref("owner", "nobody"), testutil.Num("rank", "9"))
}

func run(t *testing.T, ns *testutil.NodeSet, doc string) ([]int, *Plan) {
	t.Helper()
	root, err := query.DecodeString(doc)
	require.NoError(t, err)
	plan, err := Compile(root)
	require.NoError(t, err)

	hits, err := search.NewSearcher(ns.Snapshot()).Search(plan.Query)
	require.NoError(t, err)
	out := []int{}
	for _, h := range hits {
		out = append(out, h.Doc)
	}
	return out, plan
}

func TestCompileQueries(t *testing.T) {
	ns := repo(t)

	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{"everything", `select: ["@id"]`, []string{"people", "ada", "alan", "projects", "engine", "bombe", "ghost"}},
		{"child step", "from:\n  - child: projects\n  - child: '*'", []string{"engine", "bombe", "ghost"}},
		{"descendant by name", "from:\n  - descendant: ada", []string{"ada"}},
		{"type", `where: {type: person}`, []string{"ada", "alan"}},
		{"deref", "from:\n  - child: projects\n  - child: '*'\n  - deref: {property: owner}", []string{"ada", "alan"}},
		{"deref with name test", "from:\n  - child: projects\n  - child: '*'\n  - deref: {property: owner, name: alan}", []string{"alan"}},
		{"deref from filtered context", "from:\n  - descendant: '*'\n    where: {eq: {property: status, value: closed}}\n  - deref: {property: owner}", []string{"alan"}},
		{"deref with target predicate", "from:\n  - descendant: '*'\n  - deref: {property: owner}\nwhere: {gt: {property: born, value: 1900}}", []string{"alan"}},
		{"deref from root", "from:\n  - deref: {property: owner}", []string{"ada", "alan"}},
		{"numeric range", `where: {ge: {property: rank, value: 5}}`, []string{"bombe", "ghost"}},
		{"numeric upper", `where: {lt: {property: rank, value: 5}}`, []string{"engine"}},
		{"not equal", `where: {ne: {property: status, value: Open}}`, []string{"bombe"}},
		{"case-insensitive equal", `where: {eq: {property: status, value: open, function: lower}}`, []string{"engine"}},
		{"like", `where: {like: {property: full, pattern: "A% L%"}}`, []string{"ada"}},
		{"exists", `where: {exists: status}`, []string{"engine", "bombe"}},
		{"missing", `where: {and: [{type: project}, {missing: status}]}`, []string{"ghost"}},
		{"or", `where: {or: [{type: folder}, {exact: {property: status, value: closed}}]}`, []string{"people", "projects", "bombe"}},
		{"not", `where: {and: [{type: project}, {not: {contains: engine}}]}`, []string{"bombe", "ghost"}},
		{"contains", `where: {contains: "machine -analytical"}`, []string{"bombe"}},
		{"contains property", `where: {contains: {property: full, text: turing}}`, []string{"alan"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := run(t, ns, tt.doc)
			assert.Equal(t, ns.Docs(tt.want...), got)
		})
	}
}

func TestCompileColumnsAndOrder(t *testing.T) {
	_, plan := run(t, repo(t), `
select: [status, "@score"]
where: {type: project}
order:
  - {property: rank, descending: true}
  - {property: "@name"}
`)
	assert.Equal(t, []string{"status", "@score"}, plan.Columns)
	assert.Equal(t, []string{"rank", "@name"}, plan.OrderProperties)
	assert.Equal(t, []bool{true, false}, plan.OrderDescending)
}

func TestCompileDerefPlanShape(t *testing.T) {
	root, err := query.DecodeString("from:\n  - child: projects\n  - deref: {property: owner, name: '*'}")
	require.NoError(t, err)
	plan, err := Compile(root)
	require.NoError(t, err)

	d, ok := plan.Query.(*search.DerefQuery)
	require.True(t, ok)
	assert.Equal(t, "owner", d.RefProperty())
	assert.Empty(t, d.NameTest())
	c, ok := d.Context().(*search.ChildAxisQuery)
	require.True(t, ok)
	assert.Equal(t, "projects", c.NameTest())
	assert.Nil(t, c.Context())
}

func TestCompileRejectsMisplacedNodes(t *testing.T) {
	root := &query.Root{Location: &query.Path{Steps: []query.Step{
		&query.LocationStep{Predicates: []query.Node{&query.Order{}}},
	}}}
	_, err := Compile(root)
	require.ErrorIs(t, err, query.ErrUnsupportedNode)

	var une *query.UnsupportedNodeError
	require.ErrorAs(t, err, &une)
	assert.Equal(t, "order", une.Kind)
	assert.Equal(t, "predicate", une.Visitor)

	_, err = Predicate(&query.Path{})
	require.ErrorIs(t, err, query.ErrUnsupportedNode)
}
