package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/corvid/internal/model"
)

// kindRecorder implements the full contract and records visit order.
type kindRecorder struct {
	kinds []string
}

func (r *kindRecorder) rec(n Node) (any, error) {
	r.kinds = append(r.kinds, n.Kind())
	for _, c := range Children(n) {
		if _, err := c.Accept(r, nil); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (r *kindRecorder) VisitRoot(n *Root, _ any) (any, error)                 { return r.rec(n) }
func (r *kindRecorder) VisitOr(n *Or, _ any) (any, error)                     { return r.rec(n) }
func (r *kindRecorder) VisitAnd(n *And, _ any) (any, error)                   { return r.rec(n) }
func (r *kindRecorder) VisitNot(n *Not, _ any) (any, error)                   { return r.rec(n) }
func (r *kindRecorder) VisitExact(n *Exact, _ any) (any, error)               { return r.rec(n) }
func (r *kindRecorder) VisitNodeType(n *NodeType, _ any) (any, error)         { return r.rec(n) }
func (r *kindRecorder) VisitTextSearch(n *TextSearch, _ any) (any, error)     { return r.rec(n) }
func (r *kindRecorder) VisitPath(n *Path, _ any) (any, error)                 { return r.rec(n) }
func (r *kindRecorder) VisitLocationStep(n *LocationStep, _ any) (any, error) { return r.rec(n) }
func (r *kindRecorder) VisitRelation(n *Relation, _ any) (any, error)         { return r.rec(n) }
func (r *kindRecorder) VisitOrder(n *Order, _ any) (any, error)               { return r.rec(n) }
func (r *kindRecorder) VisitDeref(n *Deref, _ any) (any, error)               { return r.rec(n) }
func (r *kindRecorder) VisitPropertyFunction(n *PropertyFunction, _ any) (any, error) {
	return r.rec(n)
}

func everyKind() *Root {
	return &Root{
		Location: &Path{Steps: []Step{
			&LocationStep{NameTest: "projects", Predicates: []Node{
				&Or{Operands: []Node{
					&NodeType{Type: "folder"},
					&Exact{Property: "status", Value: "open"},
				}},
			}},
			&Deref{Property: "owner", Predicates: []Node{
				&Not{Operand: &And{Operands: []Node{
					&Not{Operand: &TextSearch{Text: "archived"}},
					&Relation{Property: "name", Op: OpEq, Value: "ada", Functions: []*PropertyFunction{{Name: FunctionLower}}},
				}}},
			}},
		}},
		Order: &Order{Specs: []OrderSpec{{Property: "rank"}}},
	}
}

func TestAcceptDispatchesEveryKind(t *testing.T) {
	r := &kindRecorder{}
	_, err := everyKind().Accept(r, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"root", "path", "locationstep", "or", "nodetype", "exact",
		"deref", "not", "and", "not", "textsearch", "relation", "propertyfunction", "order",
	}, r.kinds)
}

// typesOnly handles node types and nothing else.
type typesOnly struct {
	UnsupportedVisitor
}

func (typesOnly) VisitNodeType(n *NodeType, _ any) (any, error) { return n.Type, nil }

func TestUnsupportedVisitor(t *testing.T) {
	v := typesOnly{UnsupportedVisitor{Name: "types"}}

	got, err := (&NodeType{Type: "page"}).Accept(v, nil)
	require.NoError(t, err)
	assert.Equal(t, "page", got)

	var count int
	Walk(everyKind(), func(n Node) bool {
		count++
		if _, ok := n.(*NodeType); ok {
			return true
		}
		_, err := n.Accept(v, nil)
		require.ErrorIs(t, err, ErrUnsupportedNode, n.Kind())
		var une *UnsupportedNodeError
		require.ErrorAs(t, err, &une)
		assert.Equal(t, n.Kind(), une.Kind)
		assert.Equal(t, "types", une.Visitor)
		return true
	})
	assert.Equal(t, 14, count)
}

func TestNormalize(t *testing.T) {
	a := &NodeType{Type: "a"}
	b := &NodeType{Type: "b"}
	c := &NodeType{Type: "c"}

	tests := []struct {
		name string
		in   Node
		want Node
	}{
		{"flatten and", &And{Operands: []Node{a, &And{Operands: []Node{b, c}}}}, &And{Operands: []Node{a, b, c}}},
		{"flatten or", &Or{Operands: []Node{&Or{Operands: []Node{a, b}}, c}}, &Or{Operands: []Node{a, b, c}}},
		{"unwrap single", &And{Operands: []Node{&Or{Operands: []Node{a}}}}, a},
		{"double negation", &Not{Operand: &Not{Operand: a}}, a},
		{"nested in not", &Not{Operand: &And{Operands: []Node{a}}}, &Not{Operand: a}},
		{"mixed kinds kept", &And{Operands: []Node{a, &Or{Operands: []Node{b, c}}}}, &And{Operands: []Node{a, &Or{Operands: []Node{b, c}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := Normalize(got)
			require.NoError(t, err)
			assert.Same(t, got, again, "normalizing twice is a fixed point")
		})
	}
}

func TestNormalizeKeepsIdentityWhenUnchanged(t *testing.T) {
	root := everyKind()
	got, err := Normalize(root)
	require.NoError(t, err)
	assert.Same(t, root, got)
}

func TestNormalizeRebuildsChangedPath(t *testing.T) {
	first := &LocationStep{NameTest: "projects"}
	deref := &Deref{Property: "owner", NameTest: "ada", Predicates: []Node{
		&And{Operands: []Node{&NodeType{Type: "person"}, &Exact{Property: "x", Value: "y"}}},
	}}
	root := &Root{Location: &Path{Steps: []Step{first, deref}}, Columns: []string{"@id"}}

	got, err := Normalize(root)
	require.NoError(t, err)
	out := got.(*Root)
	assert.NotSame(t, root, out)
	assert.Equal(t, []string{"@id"}, out.Columns)
	require.Len(t, out.Location.Steps, 2)
	assert.Same(t, first, out.Location.Steps[0], "unchanged steps are shared")

	d := out.Location.Steps[1].(*Deref)
	assert.Equal(t, "owner", d.Property)
	assert.Equal(t, "ada", d.NameTest)
	assert.Len(t, d.Predicates, 2, "conjunctive predicates are spliced into the step")
}

func TestDump(t *testing.T) {
	out, err := Dump(everyKind())
	require.NoError(t, err)
	assert.Equal(t, `Root columns=[]
  Path
    LocationStep child::projects
      Or
        NodeType folder
        Exact @status = "open"
    Deref @owner -> *
      Not
        And
          Not
            TextSearch . "archived"
          Relation @name eq string("ada")
            PropertyFunction lower
  Order rank asc
`, out)
}

func TestOperation(t *testing.T) {
	for _, op := range []Operation{OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpLike, OpExists, OpMissing} {
		parsed, ok := ParseOperation(op.String())
		require.True(t, ok, op.String())
		assert.Equal(t, op, parsed)
	}
	_, ok := ParseOperation("between")
	assert.False(t, ok)
	assert.True(t, OpExists.Unary())
	assert.False(t, OpEq.Unary())
	assert.Equal(t, model.PropertyString, (&Relation{}).Type)
}
