package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/corvid/internal/engine"
	"github.com/aidanlsb/corvid/internal/index"
	"github.com/aidanlsb/corvid/internal/model"
	"github.com/aidanlsb/corvid/internal/search"
	"github.com/aidanlsb/corvid/internal/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func projects(t *testing.T) *testutil.NodeSet {
	t.Helper()
	return testutil.NewNodeSet(t).
		Add("p1", "alice", "person").
		Add("p2", "bob", "person").
		Add("r1", "apollo", "project", testutil.Ref("owner", "p1"), testutil.Str("status", "active")).
		WithBody("launch plan").
		Add("r2", "gemini", "project", testutil.Ref("owner", "p2", "ghost"))
}

func scanIDs(t *testing.T, s *Store) []string {
	t.Helper()
	var ids []string
	require.NoError(t, s.Scan(context.Background(), func(n *model.Node) error {
		ids = append(ids, n.ID)
		return nil
	}))
	return ids
}

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.SaveNodes(ctx, projects(t).Nodes()))

	n, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "apollo", n.Name)
	assert.Equal(t, "project", n.Type)
	assert.Equal(t, "/apollo", n.Path)
	assert.Equal(t, "launch plan", n.Body)
	assert.Equal(t, []string{"p1"}, n.References("owner"))
	status, ok := n.Property("status")
	require.True(t, ok)
	assert.Equal(t, "active", status.First())

	p, err := s.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, p.Properties)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestSaveRejectsEmptyID(t *testing.T) {
	s := openTestStore(t)
	err := s.SaveNodes(context.Background(), []*model.Node{{Name: "nameless"}})
	assert.ErrorIs(t, err, ErrInvalidNode)
}

func TestScanKeepsStorageOrder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.SaveNodes(ctx, projects(t).Nodes()))
	assert.Equal(t, []string{"p1", "p2", "r1", "r2"}, scanIDs(t, s))

	// replacing a node keeps its position
	require.NoError(t, s.SaveNodes(ctx, []*model.Node{{ID: "p1", Name: "alicia", Type: "person", Path: "/alicia"}}))
	assert.Equal(t, []string{"p1", "p2", "r1", "r2"}, scanIDs(t, s))

	n, err := s.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "alicia", n.Name)
}

func TestGetMany(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.SaveNodes(ctx, projects(t).Nodes()))

	nodes, err := s.GetMany(ctx, []string{"r2", "p1", "nope"})
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "p1", nodes[0].ID)
	assert.Equal(t, "r2", nodes[1].ID)

	nodes, err = s.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestGenerationChangesOnWrite(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	g0, err := s.Generation(ctx)
	require.NoError(t, err)

	require.NoError(t, s.SaveNodes(ctx, projects(t).Nodes()))
	g1, err := s.Generation(ctx)
	require.NoError(t, err)
	assert.Greater(t, g1, g0)

	require.NoError(t, s.DeleteNode(ctx, "r2"))
	g2, err := s.Generation(ctx)
	require.NoError(t, err)
	assert.Greater(t, g2, g1)

	assert.ErrorIs(t, s.DeleteNode(ctx, "r2"), ErrNodeNotFound)
	g3, err := s.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, g2, g3)
}

func TestReferences(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.SaveNodes(ctx, projects(t).Nodes()))

	dangling, err := s.DanglingRefs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Ref{{SourceID: "r2", Property: "owner", TargetID: "ghost"}}, dangling)

	referrers, err := s.Referrers(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []Ref{{SourceID: "r1", Property: "owner", TargetID: "p1"}}, referrers)

	// rewriting a node replaces its outgoing references
	r2, err := s.Get(ctx, "r2")
	require.NoError(t, err)
	r2.SetProperty(testutil.Ref("owner", "p1"))
	require.NoError(t, s.SaveNodes(ctx, []*model.Node{r2}))

	dangling, err = s.DanglingRefs(ctx)
	require.NoError(t, err)
	assert.Empty(t, dangling)

	referrers, err = s.Referrers(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, referrers, 2)
}

func TestStatsAndClear(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.SaveNodes(ctx, projects(t).Nodes()))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Nodes)
	assert.Equal(t, 3, st.Refs)
	assert.Equal(t, 1, st.DanglingRefs)

	require.NoError(t, s.Clear(ctx))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpenOnDisk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.SaveNodes(ctx, projects(t).Nodes()))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestAcquireLock(t *testing.T) {
	dir := t.TempDir()

	lock, err := AcquireLock(dir)
	require.NoError(t, err)

	_, err = AcquireLock(dir)
	assert.ErrorIs(t, err, ErrStoreLocked)

	require.NoError(t, lock.Release())
	require.NoError(t, lock.Release())

	again, err := AcquireLock(dir)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestStoreBacksSearchIndex(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.SaveNodes(ctx, projects(t).Nodes()))

	x, err := engine.New(ctx, s, engine.Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, x.Stats().Documents)

	q := search.NewTermQuery(index.FieldPrimaryType, "person")
	hits, err := x.ExecuteQuery(ctx, search.NewSession("test"), q, nil, nil, engine.FetchAll)
	require.NoError(t, err)
	assert.Equal(t, 2, hits.Size())
	require.NoError(t, hits.Close())

	changed, err := x.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, s.DeleteNode(ctx, "r2"))
	changed, err = x.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 3, x.Stats().Documents)
}
