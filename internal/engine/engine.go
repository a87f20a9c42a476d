// Package engine owns the current index snapshot and executes compiled
// queries against it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aidanlsb/corvid/internal/index"
	"github.com/aidanlsb/corvid/internal/search"
)

// DefaultResultFetchSize is the relevance-order batch size used when none is configured.
const DefaultResultFetchSize = 50

// ErrNoSource is returned by Refresh on an index built from a fixed snapshot.
var ErrNoSource = errors.New("search index has no node source")

// Source provides the nodes to index and the generation they belong to.
// The node store implements it.
type Source interface {
	index.NodeSource
	Generation(ctx context.Context) (int64, error)
}

// Options configures a SearchIndex.
type Options struct {
	// ResultFetchSize is the batch size for relevance-ordered execution.
	ResultFetchSize int
	Logger          *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.ResultFetchSize <= 0 {
		o.ResultFetchSize = DefaultResultFetchSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// SearchIndex executes queries against the latest snapshot of a source.
// Executions pin the snapshot current when they start, so Refresh never
// affects a running query.
type SearchIndex struct {
	src  Source
	opts Options

	mu       sync.RWMutex
	snapshot *index.Snapshot
}

// New builds the initial snapshot from src.
func New(ctx context.Context, src Source, opts Options) (*SearchIndex, error) {
	x := &SearchIndex{src: src, opts: opts.withDefaults()}
	if _, err := x.Refresh(ctx); err != nil {
		return nil, err
	}
	return x, nil
}

// NewFromSnapshot wraps a fixed snapshot. Refresh is not available.
func NewFromSnapshot(s *index.Snapshot, opts Options) *SearchIndex {
	return &SearchIndex{opts: opts.withDefaults(), snapshot: s}
}

// Refresh rebuilds the snapshot when the source generation has moved on.
// It reports whether a new snapshot was installed.
func (x *SearchIndex) Refresh(ctx context.Context) (bool, error) {
	if x.src == nil {
		return false, ErrNoSource
	}
	gen, err := x.src.Generation(ctx)
	if err != nil {
		return false, fmt.Errorf("read generation: %w", err)
	}
	if cur := x.Snapshot(); cur != nil && cur.Generation() == gen {
		return false, nil
	}

	start := time.Now()
	snap, err := index.FromSource(ctx, x.src, gen)
	if err != nil {
		return false, fmt.Errorf("build snapshot: %w", err)
	}

	x.mu.Lock()
	x.snapshot = snap
	x.mu.Unlock()

	x.opts.Logger.Debug("snapshot rebuilt",
		"generation", gen,
		"documents", snap.NumDocs(),
		"elapsed", time.Since(start))
	return true, nil
}

// Snapshot returns the current snapshot.
func (x *SearchIndex) Snapshot() *index.Snapshot {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.snapshot
}

// ResultFetchSize returns the configured relevance-order batch size.
func (x *SearchIndex) ResultFetchSize() int { return x.opts.ResultFetchSize }

// Stats describes the current snapshot.
type Stats struct {
	Generation int64 `json:"generation"`
	Documents  int   `json:"documents"`
}

// Stats returns statistics of the current snapshot.
func (x *SearchIndex) Stats() Stats {
	s := x.Snapshot()
	return Stats{Generation: s.Generation(), Documents: s.NumDocs()}
}

// Explain explains how doc scores for q on the current snapshot.
func (x *SearchIndex) Explain(ctx context.Context, q search.Query, doc int) (*search.Explanation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return x.searcher(x.Snapshot()).Explain(q, doc)
}

// Rewrite rewrites q against the current snapshot.
func (x *SearchIndex) Rewrite(q search.Query) (search.Query, error) {
	return x.searcher(x.Snapshot()).Rewrite(q)
}

func (x *SearchIndex) searcher(s *index.Snapshot) *search.Searcher {
	return search.NewSearcher(s, search.WithLogger(x.opts.Logger))
}
