package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/corvid/internal/index"
	"github.com/aidanlsb/corvid/internal/model"
	"github.com/aidanlsb/corvid/internal/search"
	"github.com/aidanlsb/corvid/internal/testutil"
)

type fakeSource struct {
	nodes      []*model.Node
	generation int64
	scans      int
	err        error
}

func (s *fakeSource) Scan(ctx context.Context, fn func(*model.Node) error) error {
	s.scans++
	if s.err != nil {
		return s.err
	}
	for _, n := range s.nodes {
		if err := fn(n); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeSource) Generation(context.Context) (int64, error) { return s.generation, nil }

func tasks(t *testing.T) *testutil.NodeSet {
	t.Helper()
	return testutil.NewNodeSet(t).
		Add("t1", "write", "task", testutil.Num("priority", "2")).WithBody("report draft report").
		Add("t2", "review", "task", testutil.Num("priority", "10")).WithBody("report").
		Add("t3", "ship", "task", testutil.Num("priority", "2")).WithBody("release report").
		Add("t4", "plan", "task").WithBody("nothing")
}

func collect(t *testing.T, hits search.MultiColumnQueryHits) []*search.Hit {
	t.Helper()
	var out []*search.Hit
	for {
		h, err := hits.Next()
		require.NoError(t, err)
		if h == nil {
			return out
		}
		out = append(out, h)
	}
}

func ids(hits []*search.Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.NodeID
	}
	return out
}

func TestNewAndRefresh(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{nodes: tasks(t).Nodes(), generation: 1}

	x, err := New(ctx, src, Options{})
	require.NoError(t, err)
	assert.Equal(t, Stats{Generation: 1, Documents: 4}, x.Stats())
	assert.Equal(t, DefaultResultFetchSize, x.ResultFetchSize())

	changed, err := x.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, src.scans)

	pinned := x.Snapshot()
	src.nodes = src.nodes[:2]
	src.generation = 2
	changed, err = x.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 2, x.Stats().Documents)
	assert.Equal(t, 4, pinned.NumDocs(), "old snapshots stay intact")
}

func TestRefreshErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := New(context.Background(), &fakeSource{err: boom, generation: 1}, Options{})
	require.ErrorIs(t, err, boom)

	x := NewFromSnapshot(tasks(t).Snapshot(), Options{ResultFetchSize: 7})
	_, err = x.Refresh(context.Background())
	require.ErrorIs(t, err, ErrNoSource)
	assert.Equal(t, 7, x.ResultFetchSize())
}

func TestExecuteQueryRelevanceOrder(t *testing.T) {
	x := NewFromSnapshot(tasks(t).Snapshot(), Options{})
	hits, err := x.ExecuteQuery(context.Background(), search.NewSession("test"),
		search.NewTermQuery(index.FieldFulltext, "report"), nil, nil, 2)
	require.NoError(t, err)
	defer hits.Close()

	assert.Equal(t, 3, hits.Size())
	got := collect(t, hits)
	require.Len(t, got, 3)
	assert.Equal(t, "t1", got[0].NodeID, "highest term frequency first")
	assert.GreaterOrEqual(t, got[0].Score, got[1].Score)
	assert.GreaterOrEqual(t, got[1].Score, got[2].Score)
	assert.Equal(t, []string{"t2", "t3"}, ids(got[1:]), "equal scores keep document order")
	assert.Equal(t, 2, hits.(*queryHits).batches)
}

func TestExecuteQueryOrderProperties(t *testing.T) {
	x := NewFromSnapshot(tasks(t).Snapshot(), Options{})
	q := search.NewTermQuery(index.FieldPrimaryType, "task")

	tests := []struct {
		name  string
		props []string
		desc  []bool
		want  []string
	}{
		{"ascending numeric", []string{"priority"}, []bool{false}, []string{"t4", "t1", "t3", "t2"}},
		{"descending numeric", []string{"priority"}, []bool{true}, []string{"t2", "t1", "t3", "t4"}},
		{"then by name", []string{"priority", "@name"}, []bool{true, false}, []string{"t2", "t3", "t1", "t4"}},
		{"by name", []string{"@name"}, nil, []string{"t4", "t2", "t3", "t1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := x.ExecuteQuery(context.Background(), search.Session{}, q, tt.props, tt.desc, FetchAll)
			require.NoError(t, err)
			got := collect(t, hits)
			assert.Equal(t, tt.want, ids(got))
			assert.Len(t, got[0].Values, len(tt.props))
		})
	}
}

func TestExecuteQuerySkip(t *testing.T) {
	x := NewFromSnapshot(tasks(t).Snapshot(), Options{ResultFetchSize: 1})
	hits, err := x.ExecuteQuery(context.Background(), search.Session{},
		search.NewTermQuery(index.FieldPrimaryType, "task"), nil, nil, 0)
	require.NoError(t, err)

	require.NoError(t, hits.Skip(3))
	got := collect(t, hits)
	assert.Equal(t, []string{"t4"}, ids(got))
	require.NoError(t, hits.Skip(5))

	d, err := hits.Document(got[0].Doc)
	require.NoError(t, err)
	assert.Equal(t, "plan", d.Get(index.FieldLabel))
	require.NoError(t, hits.Close())
}

func TestExecuteQueryCancelled(t *testing.T) {
	x := NewFromSnapshot(tasks(t).Snapshot(), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := x.ExecuteQuery(ctx, search.Session{}, search.NewMatchAllQuery(), nil, nil, 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestExecuteQueryRejectsMismatchedOrder(t *testing.T) {
	x := NewFromSnapshot(tasks(t).Snapshot(), Options{})
	_, err := x.ExecuteQuery(context.Background(), search.Session{}, search.NewMatchAllQuery(), nil, []bool{true}, 1)
	require.Error(t, err)
}
