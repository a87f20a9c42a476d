// Package results materializes executed queries into ordered, paginated,
// column-projected rows.
package results

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math"
	"sort"

	"github.com/aidanlsb/corvid/internal/index"
	"github.com/aidanlsb/corvid/internal/search"
)

// ErrExcerptUnavailable is returned by Excerpt when no excerpt provider is
// configured. It marks a missing optional feature, not a failure.
var ErrExcerptUnavailable = errors.New("excerpt not available")

// DefaultColumns are projected when no columns are requested.
var DefaultColumns = []string{search.PathColumn, search.NameColumn, search.TypeColumn}

// Executor runs compiled queries. The search index implements it.
type Executor interface {
	ExecuteQuery(ctx context.Context, session search.Session, q search.Query,
		orderProps []string, orderDesc []bool, fetchHint int) (search.MultiColumnQueryHits, error)
	ResultFetchSize() int
}

// ExcerptProvider renders an excerpt of a matching document.
type ExcerptProvider interface {
	Excerpt(d *index.Document, q search.Query) (string, error)
}

// OrderSpec orders rows by one column.
type OrderSpec struct {
	Column     string
	Descending bool
}

// Options configures a Result.
type Options struct {
	Columns []string
	OrderBy []OrderSpec

	// DocumentOrder retrieves every hit at once and returns them in storage
	// order instead of relevance order.
	DocumentOrder bool

	Offset int
	Limit  int // <= 0 means unlimited

	// FetchSize is the relevance-order batch size; <= 0 uses the executor's.
	FetchSize int

	Excerpts ExcerptProvider
	Logger   *slog.Logger
}

// Row is one projected hit.
type Row struct {
	Doc    int
	NodeID string
	Score  float32
	// Values holds one value per column, in Result.ColumnNames order.
	Values []string

	doc *index.Document
}

// Path returns the node path of the row.
func (r *Row) Path() string {
	if r.doc == nil {
		return ""
	}
	return r.doc.Get(index.FieldPath)
}

// Value returns the value of the i-th column.
func (r *Row) Value(i int) string {
	if i < 0 || i >= len(r.Values) {
		return ""
	}
	return r.Values[i]
}

// Result is a single-pass sequence of rows.
type Result struct {
	query   search.Query
	columns []string
	opts    Options
	logger  *slog.Logger

	hits      search.MultiColumnQueryHits
	ordered   []*search.Hit // document order only; already paged
	remaining int           // rows left to return; -1 is unlimited
	size      int
}

// New executes q through exec and prepares rows.
func New(ctx context.Context, exec Executor, session search.Session, q search.Query, opts Options) (*Result, error) {
	if opts.Offset < 0 {
		return nil, fmt.Errorf("negative offset %d", opts.Offset)
	}
	r := &Result{
		query:   q,
		columns: opts.Columns,
		opts:    opts,
		logger:  opts.Logger,
	}
	if len(r.columns) == 0 {
		r.columns = DefaultColumns
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	props := make([]string, len(opts.OrderBy))
	desc := make([]bool, len(opts.OrderBy))
	for i, o := range opts.OrderBy {
		props[i] = o.Column
		desc[i] = o.Descending
	}

	fetch := opts.FetchSize
	if opts.DocumentOrder {
		fetch = math.MaxInt
	} else if fetch <= 0 {
		fetch = exec.ResultFetchSize()
	}

	hits, err := exec.ExecuteQuery(ctx, session, q, props, desc, fetch)
	if err != nil {
		return nil, err
	}
	r.hits = hits

	total := hits.Size()
	if opts.DocumentOrder {
		if err := r.loadDocumentOrder(desc); err != nil {
			hits.Close()
			return nil, err
		}
		total = len(r.ordered)
		r.ordered = r.ordered[min(opts.Offset, total):]
	} else if opts.Offset > 0 {
		if err := hits.Skip(opts.Offset); err != nil {
			hits.Close()
			return nil, err
		}
	}

	r.size = -1
	if total >= 0 {
		r.size = max(0, total-opts.Offset)
		if opts.Limit > 0 {
			r.size = min(r.size, opts.Limit)
		}
	}
	r.remaining = -1
	if opts.Limit > 0 {
		r.remaining = opts.Limit
	}

	r.logger.Debug("result prepared",
		"session", session.ID,
		"document_order", opts.DocumentOrder,
		"fetch", fetch,
		"total", total,
		"offset", opts.Offset,
		"limit", opts.Limit)
	return r, nil
}

// loadDocumentOrder drains every hit and sorts them by document, then by
// the order values. Ties keep storage order.
func (r *Result) loadDocumentOrder(desc []bool) error {
	for {
		h, err := r.hits.Next()
		if err != nil {
			return err
		}
		if h == nil {
			break
		}
		r.ordered = append(r.ordered, h)
	}
	sort.Slice(r.ordered, func(i, j int) bool {
		return r.ordered[i].Doc < r.ordered[j].Doc
	})
	if len(desc) > 0 {
		sort.SliceStable(r.ordered, func(i, j int) bool {
			return search.CompareValues(r.ordered[i].Values, r.ordered[j].Values, desc) < 0
		})
	}
	return nil
}

// ColumnNames returns the projected columns.
func (r *Result) ColumnNames() []string { return r.columns }

// Size returns the number of rows the result yields, or -1 if unknown.
func (r *Result) Size() int { return r.size }

// Next returns the next row, or nil when the result is exhausted.
func (r *Result) Next() (*Row, error) {
	if r.remaining == 0 {
		return nil, nil
	}
	h, err := r.nextHit()
	if err != nil || h == nil {
		return nil, err
	}
	if r.remaining > 0 {
		r.remaining--
	}
	return r.project(h)
}

func (r *Result) nextHit() (*search.Hit, error) {
	if r.opts.DocumentOrder {
		if len(r.ordered) == 0 {
			return nil, nil
		}
		h := r.ordered[0]
		r.ordered = r.ordered[1:]
		return h, nil
	}
	return r.hits.Next()
}

func (r *Result) project(h *search.Hit) (*Row, error) {
	d, err := r.hits.Document(h.Doc)
	if err != nil {
		return nil, fmt.Errorf("project doc %d: %w", h.Doc, err)
	}
	row := &Row{
		Doc:    h.Doc,
		NodeID: h.NodeID,
		Score:  h.Score,
		Values: make([]string, len(r.columns)),
		doc:    d,
	}
	for i, c := range r.columns {
		row.Values[i] = search.ColumnValue(d, c, h.Score)
	}
	return row, nil
}

// All iterates the remaining rows. Iteration stops after the first error.
func (r *Result) All() iter.Seq2[*Row, error] {
	return func(yield func(*Row, error) bool) {
		for {
			row, err := r.Next()
			if err != nil {
				yield(nil, err)
				return
			}
			if row == nil || !yield(row, nil) {
				return
			}
		}
	}
}

// Excerpt returns an excerpt of row's document for the executed query.
func (r *Result) Excerpt(row *Row) (string, error) {
	if r.opts.Excerpts == nil {
		return "", ErrExcerptUnavailable
	}
	return r.opts.Excerpts.Excerpt(row.doc, r.query)
}

// Close releases the underlying hits.
func (r *Result) Close() error {
	r.ordered = nil
	return r.hits.Close()
}
