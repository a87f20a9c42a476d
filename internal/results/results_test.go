package results

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/corvid/internal/engine"
	"github.com/aidanlsb/corvid/internal/index"
	"github.com/aidanlsb/corvid/internal/search"
	"github.com/aidanlsb/corvid/internal/testutil"
)

// recordingExecutor records fetch hints and which documents get projected.
type recordingExecutor struct {
	*engine.SearchIndex
	fetchHints []int
	projected  []int
}

func (e *recordingExecutor) ExecuteQuery(ctx context.Context, s search.Session, q search.Query,
	props []string, desc []bool, fetch int) (search.MultiColumnQueryHits, error) {
	e.fetchHints = append(e.fetchHints, fetch)
	hits, err := e.SearchIndex.ExecuteQuery(ctx, s, q, props, desc, fetch)
	if err != nil {
		return nil, err
	}
	return &recordingHits{MultiColumnQueryHits: hits, exec: e}, nil
}

type recordingHits struct {
	search.MultiColumnQueryHits
	exec *recordingExecutor
}

func (h *recordingHits) Document(doc int) (*index.Document, error) {
	h.exec.projected = append(h.exec.projected, doc)
	return h.MultiColumnQueryHits.Document(doc)
}

// tenNodes builds n0..n9. The body of n_i repeats "word" 10-i times, so
// relevance order matches document order.
func tenNodes(t *testing.T) *testutil.NodeSet {
	t.Helper()
	ns := testutil.NewNodeSet(t)
	for i := 0; i < 10; i++ {
		body := ""
		for j := 0; j < 10-i; j++ {
			body += "word "
		}
		ns.Add(fmt.Sprintf("n%d", i), fmt.Sprintf("node%d", i), "page",
			testutil.Num("rank", fmt.Sprint(i%3))).WithBody(body)
	}
	return ns
}

func newExecutor(t *testing.T, ns *testutil.NodeSet, fetch int) *recordingExecutor {
	t.Helper()
	return &recordingExecutor{SearchIndex: engine.NewFromSnapshot(ns.Snapshot(), engine.Options{ResultFetchSize: fetch})}
}

func rows(t *testing.T, r *Result) []*Row {
	t.Helper()
	var out []*Row
	for row, err := range r.All() {
		require.NoError(t, err)
		out = append(out, row)
	}
	return out
}

func nodeIDs(rs []*Row) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.NodeID
	}
	return out
}

var wordQuery = search.NewTermQuery(index.FieldFulltext, "word")

func TestPaginationScenario(t *testing.T) {
	ns := tenNodes(t)
	for _, docOrder := range []bool{false, true} {
		t.Run(fmt.Sprintf("document order %v", docOrder), func(t *testing.T) {
			exec := newExecutor(t, ns, 2)
			r, err := New(context.Background(), exec, search.Session{}, wordQuery, Options{
				DocumentOrder: docOrder,
				Offset:        3,
				Limit:         4,
			})
			require.NoError(t, err)
			defer r.Close()

			assert.Equal(t, 4, r.Size())
			got := rows(t, r)
			assert.Equal(t, []string{"n3", "n4", "n5", "n6"}, nodeIDs(got), "hits 4 to 7")
			assert.Equal(t, ns.Docs("n3", "n4", "n5", "n6"), exec.projected, "skipped hits are never projected")
		})
	}
}

func TestFetchHintByMode(t *testing.T) {
	ns := tenNodes(t)

	exec := newExecutor(t, ns, 3)
	_, err := New(context.Background(), exec, search.Session{}, wordQuery, Options{})
	require.NoError(t, err)
	_, err = New(context.Background(), exec, search.Session{}, wordQuery, Options{FetchSize: 5})
	require.NoError(t, err)
	_, err = New(context.Background(), exec, search.Session{}, wordQuery, Options{DocumentOrder: true, FetchSize: 5})
	require.NoError(t, err)

	assert.Equal(t, []int{3, 5, math.MaxInt}, exec.fetchHints)
}

func TestOrderModesReturnSameHits(t *testing.T) {
	ns := tenNodes(t)
	q := search.NewBooleanQuery(
		search.BooleanClause{Query: search.NewTermQuery(index.FieldPrimaryType, "page"), Occur: search.Must},
		search.BooleanClause{Query: search.NewTermQuery(index.FieldFulltext, "word"), Occur: search.Should},
	)

	run := func(docOrder bool) []string {
		r, err := New(context.Background(), newExecutor(t, ns, 4), search.Session{}, q, Options{DocumentOrder: docOrder})
		require.NoError(t, err)
		return nodeIDs(rows(t, r))
	}
	relevance := run(false)
	document := run(true)

	assert.ElementsMatch(t, relevance, document)
	assert.Equal(t, []string{"n0", "n1", "n2", "n3", "n4", "n5", "n6", "n7", "n8", "n9"}, document)
}

func TestOrderByStableWithinMode(t *testing.T) {
	ns := tenNodes(t)
	opts := Options{OrderBy: []OrderSpec{{Column: "rank", Descending: true}}, Columns: []string{"@id", "rank"}}

	opts.DocumentOrder = true
	r, err := New(context.Background(), newExecutor(t, ns, 4), search.Session{}, wordQuery, opts)
	require.NoError(t, err)
	got := rows(t, r)
	assert.Equal(t, []string{"n2", "n5", "n8", "n1", "n4", "n7", "n0", "n3", "n6", "n9"}, nodeIDs(got))
	assert.Equal(t, []string{"n2", "2"}, got[0].Values)
	assert.Equal(t, "2", got[0].Value(1))
	assert.Equal(t, "", got[0].Value(5))
}

func TestPaginationBound(t *testing.T) {
	ns := tenNodes(t)
	tests := []struct {
		offset, limit, want int
	}{
		{0, 0, 10},
		{0, 3, 3},
		{8, 5, 2},
		{10, 5, 0},
		{15, 0, 0},
		{9, 0, 1},
	}
	for _, tt := range tests {
		for _, docOrder := range []bool{false, true} {
			t.Run(fmt.Sprintf("offset=%d limit=%d doc=%v", tt.offset, tt.limit, docOrder), func(t *testing.T) {
				r, err := New(context.Background(), newExecutor(t, ns, 3), search.Session{}, wordQuery,
					Options{Offset: tt.offset, Limit: tt.limit, DocumentOrder: docOrder})
				require.NoError(t, err)
				assert.Equal(t, tt.want, r.Size())
				assert.Len(t, rows(t, r), tt.want)
			})
		}
	}
}

func TestColumns(t *testing.T) {
	ns := testutil.NewNodeSet(t).
		Add("f", "folder", "folder").
		Child("f", "p", "page", "doc", testutil.Str("tags", "a", "b"))
	r, err := New(context.Background(), newExecutor(t, ns, 10), search.Session{},
		search.NewTermQuery(index.FieldUUID, "p"),
		Options{Columns: []string{"@id", "@name", "@path", "@type", "tags", "missing", "@score"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"@id", "@name", "@path", "@type", "tags", "missing", "@score"}, r.ColumnNames())

	got := rows(t, r)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"p", "page", "/folder/page", "doc", "a, b", "", search.FormatScore(got[0].Score)}, got[0].Values)

	def, err := New(context.Background(), newExecutor(t, ns, 10), search.Session{}, search.NewMatchAllQuery(), Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultColumns, def.ColumnNames())
}

type upperExcerpts struct{}

func (upperExcerpts) Excerpt(d *index.Document, q search.Query) (string, error) {
	return d.Get(index.FieldLabel) + " matched " + q.String(), nil
}

func TestExcerpt(t *testing.T) {
	ns := tenNodes(t)

	r, err := New(context.Background(), newExecutor(t, ns, 3), search.Session{}, wordQuery, Options{Limit: 1})
	require.NoError(t, err)
	row, err := r.Next()
	require.NoError(t, err)
	_, err = r.Excerpt(row)
	assert.ErrorIs(t, err, ErrExcerptUnavailable)

	r, err = New(context.Background(), newExecutor(t, ns, 3), search.Session{}, wordQuery,
		Options{Limit: 1, Excerpts: upperExcerpts{}})
	require.NoError(t, err)
	row, err = r.Next()
	require.NoError(t, err)
	ex, err := r.Excerpt(row)
	require.NoError(t, err)
	assert.Equal(t, "node0 matched "+wordQuery.String(), ex)

	row, err = r.Next()
	require.NoError(t, err)
	assert.Nil(t, row, "limit reached")
}

type failingExecutor struct{ err error }

func (e failingExecutor) ExecuteQuery(context.Context, search.Session, search.Query, []string, []bool, int) (search.MultiColumnQueryHits, error) {
	return nil, e.err
}

func (failingExecutor) ResultFetchSize() int { return 1 }

func TestNewErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := New(context.Background(), failingExecutor{boom}, search.Session{}, wordQuery, Options{})
	require.ErrorIs(t, err, boom)

	_, err = New(context.Background(), failingExecutor{boom}, search.Session{}, wordQuery, Options{Offset: -1})
	require.Error(t, err)
	assert.NotErrorIs(t, err, boom)
}
