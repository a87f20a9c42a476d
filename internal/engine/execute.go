package engine

import (
	"container/heap"
	"context"
	"fmt"
	"math"

	"github.com/aidanlsb/corvid/internal/index"
	"github.com/aidanlsb/corvid/internal/search"
)

// FetchAll is the fetch hint that retrieves every hit in one batch.
const FetchAll = math.MaxInt

// ExecuteQuery runs q on the current snapshot and returns its hits ordered
// by the order properties, then by descending score, then by document.
// Hits are released from the ordering heap in batches of fetchHint.
//
// The context is checked before and after scoring; scoring itself runs to
// completion.
func (x *SearchIndex) ExecuteQuery(
	ctx context.Context,
	session search.Session,
	q search.Query,
	orderProps []string,
	orderDesc []bool,
	fetchHint int,
) (search.MultiColumnQueryHits, error) {
	if len(orderDesc) > len(orderProps) {
		return nil, fmt.Errorf("%d order directions for %d order properties", len(orderDesc), len(orderProps))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fetchHint <= 0 {
		fetchHint = x.opts.ResultFetchSize
	}

	snap := x.Snapshot()
	sc, err := x.searcher(snap).Scorer(q)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}

	h := &hitHeap{desc: orderDesc}
	var readErr error
	err = search.ScoreAll(sc, func(doc int, score float32) {
		if readErr != nil {
			return
		}
		e := entry{doc: doc, score: score}
		if len(orderProps) > 0 {
			d, err := snap.Document(doc)
			if err != nil {
				readErr = err
				return
			}
			e.values = make([]string, len(orderProps))
			for i, p := range orderProps {
				e.values[i] = search.ColumnValue(d, p, score)
			}
		}
		h.entries = append(h.entries, e)
	})
	if err == nil {
		err = readErr
	}
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	heap.Init(h)

	x.opts.Logger.Debug("query executed",
		"session", session.ID,
		"user", session.User,
		"generation", snap.Generation(),
		"hits", h.Len(),
		"fetch", fetchHint)

	return &queryHits{
		reader:  snap,
		heap:    h,
		size:    h.Len(),
		fetch:   fetchHint,
		session: session,
		index:   x,
	}, nil
}

type entry struct {
	doc    int
	score  float32
	values []string
}

// hitHeap orders entries by values, then score descending, then doc.
// The order is total, so popping yields a stable ordering.
type hitHeap struct {
	entries []entry
	desc    []bool
}

func (h *hitHeap) Len() int { return len(h.entries) }

func (h *hitHeap) Less(i, j int) bool {
	a, b := &h.entries[i], &h.entries[j]
	if c := search.CompareValues(a.values, b.values, h.desc); c != 0 {
		return c < 0
	}
	if a.score != b.score {
		return a.score > b.score
	}
	return a.doc < b.doc
}

func (h *hitHeap) Swap(i, j int) { h.entries[i], h.entries[j] = h.entries[j], h.entries[i] }

func (h *hitHeap) Push(v any) { h.entries = append(h.entries, v.(entry)) }

func (h *hitHeap) Pop() any {
	n := len(h.entries)
	e := h.entries[n-1]
	h.entries = h.entries[:n-1]
	return e
}

// queryHits releases ordered hits in batches.
type queryHits struct {
	reader  index.Reader
	heap    *hitHeap
	batch   []entry
	size    int
	fetch   int
	session search.Session
	index   *SearchIndex
	batches int
	closed  bool
}

var _ search.MultiColumnQueryHits = (*queryHits)(nil)

func (h *queryHits) SelectorNames() []string { return []string{"node"} }

func (h *queryHits) Size() int { return h.size }

func (h *queryHits) Next() (*search.Hit, error) {
	e, ok := h.pop()
	if !ok {
		return nil, nil
	}
	d, err := h.reader.Document(e.doc)
	if err != nil {
		return nil, err
	}
	return &search.Hit{
		Doc:    e.doc,
		NodeID: d.Get(index.FieldUUID),
		Score:  e.score,
		Values: e.values,
	}, nil
}

// Skip discards hits without reading their documents.
func (h *queryHits) Skip(n int) error {
	for ; n > 0; n-- {
		if _, ok := h.pop(); !ok {
			return nil
		}
	}
	return nil
}

func (h *queryHits) pop() (entry, bool) {
	if h.closed {
		return entry{}, false
	}
	if len(h.batch) == 0 {
		h.fill()
	}
	if len(h.batch) == 0 {
		return entry{}, false
	}
	e := h.batch[0]
	h.batch = h.batch[1:]
	return e, true
}

func (h *queryHits) fill() {
	n := min(h.fetch, h.heap.Len())
	if n == 0 {
		return
	}
	h.batch = make([]entry, 0, n)
	for i := 0; i < n; i++ {
		h.batch = append(h.batch, heap.Pop(h.heap).(entry))
	}
	h.batches++
	h.index.opts.Logger.Debug("hit batch fetched",
		"session", h.session.ID,
		"batch", h.batches,
		"size", n,
		"remaining", h.heap.Len())
}

func (h *queryHits) Document(doc int) (*index.Document, error) {
	return h.reader.Document(doc)
}

func (h *queryHits) Close() error {
	h.closed = true
	h.batch = nil
	h.heap.entries = nil
	return nil
}
