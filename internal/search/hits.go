package search

import (
	"github.com/google/uuid"

	"github.com/aidanlsb/corvid/internal/index"
)

// Session identifies the caller of a query execution.
type Session struct {
	ID   string
	User string
}

// NewSession creates a session with a fresh identifier.
func NewSession(user string) Session {
	return Session{ID: uuid.NewString(), User: user}
}

// Hit is one result of a multi-column query.
type Hit struct {
	Doc    int
	NodeID string
	Score  float32
	// Values holds the hit's order-property values, one per order column.
	Values []string
}

// MultiColumnQueryHits is a finite, single-pass sequence of hits. It can
// only be restarted by executing the query again.
type MultiColumnQueryHits interface {
	// SelectorNames names the selectors the hits were produced for.
	SelectorNames() []string
	// Size returns the total number of hits, or -1 if unknown.
	Size() int
	// Next returns the next hit, or nil when exhausted.
	Next() (*Hit, error)
	// Skip discards up to n hits.
	Skip(n int) error
	// Document returns the stored fields of a hit's document.
	Document(doc int) (*index.Document, error)
	Close() error
}
