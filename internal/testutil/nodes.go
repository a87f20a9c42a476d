package testutil

import (
	"strings"
	"testing"

	"github.com/aidanlsb/corvid/internal/index"
	"github.com/aidanlsb/corvid/internal/model"
)

// NodeSet builds a small tree of nodes for index and query tests.
// Nodes receive document identifiers in the order they are added.
type NodeSet struct {
	t     testing.TB
	nodes []*model.Node
	byID  map[string]*model.Node
}

// NewNodeSet creates an empty node set.
func NewNodeSet(t testing.TB) *NodeSet {
	t.Helper()
	return &NodeSet{t: t, byID: make(map[string]*model.Node)}
}

// Add adds a top-level node.
func (s *NodeSet) Add(id, name, typ string, props ...model.Property) *NodeSet {
	return s.Child("", id, name, typ, props...)
}

// Child adds a node under parentID. The parent must already be in the set.
func (s *NodeSet) Child(parentID, id, name, typ string, props ...model.Property) *NodeSet {
	s.t.Helper()
	path := "/" + name
	if parentID != "" {
		parent, ok := s.byID[parentID]
		if !ok {
			s.t.Fatalf("testutil: unknown parent %q", parentID)
		}
		path = strings.TrimSuffix(parent.Path, "/") + "/" + name
	}
	return s.Node(&model.Node{
		ID:         id,
		Name:       name,
		Type:       typ,
		ParentID:   parentID,
		Path:       path,
		Properties: props,
	})
}

// Node adds n as is.
func (s *NodeSet) Node(n *model.Node) *NodeSet {
	s.t.Helper()
	if _, dup := s.byID[n.ID]; dup {
		s.t.Fatalf("testutil: duplicate node id %q", n.ID)
	}
	s.nodes = append(s.nodes, n)
	s.byID[n.ID] = n
	return s
}

// WithBody sets the body of the most recently added node.
func (s *NodeSet) WithBody(body string) *NodeSet {
	s.t.Helper()
	if len(s.nodes) == 0 {
		s.t.Fatal("testutil: WithBody before any node")
	}
	s.nodes[len(s.nodes)-1].Body = body
	return s
}

// Nodes returns the nodes in insertion order.
func (s *NodeSet) Nodes() []*model.Node { return s.nodes }

// Snapshot indexes the nodes.
func (s *NodeSet) Snapshot() *index.Snapshot {
	b := index.NewBuilder(1)
	for _, n := range s.nodes {
		b.Add(n)
	}
	return b.Build()
}

// Doc returns the document identifier the node with id receives in Snapshot.
func (s *NodeSet) Doc(id string) int {
	s.t.Helper()
	for i, n := range s.nodes {
		if n.ID == id {
			return i
		}
	}
	s.t.Fatalf("testutil: unknown node %q", id)
	return -1
}

// Docs maps ids to document identifiers.
func (s *NodeSet) Docs(ids ...string) []int {
	s.t.Helper()
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = s.Doc(id)
	}
	return out
}

// Ref builds a reference property.
func Ref(name string, targets ...string) model.Property {
	return model.Property{Name: name, Type: model.PropertyReference, Values: targets}
}

// Str builds a string property.
func Str(name string, values ...string) model.Property {
	return model.Property{Name: name, Type: model.PropertyString, Values: values}
}

// Num builds a number property.
func Num(name string, values ...string) model.Property {
	return model.Property{Name: name, Type: model.PropertyNumber, Values: values}
}

// Bool builds a boolean property.
func Bool(name string, values ...string) model.Property {
	return model.Property{Name: name, Type: model.PropertyBoolean, Values: values}
}
