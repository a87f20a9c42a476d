package search

import (
	"fmt"

	"github.com/aidanlsb/corvid/internal/index"
)

// SetQuery matches a precomputed set of documents with a constant score.
// Term-enumerating queries rewrite into a SetQuery. The set is bound to the
// snapshot it was computed from.
type SetQuery struct {
	set  *index.PostingSet
	desc string
}

// NewSetQuery wraps set. desc names the query in String and explanations.
func NewSetQuery(set *index.PostingSet, desc string) *SetQuery {
	if set == nil {
		set = index.NewPostingSet()
	}
	return &SetQuery{set: set, desc: desc}
}

// Set returns the matched documents. Callers must not modify it.
func (q *SetQuery) Set() *index.PostingSet { return q.set }

func (q *SetQuery) Rewrite(index.Reader) (Query, error) { return q, nil }
func (q *SetQuery) ExtractTerms(map[Term]struct{})     {}

func (q *SetQuery) String() string {
	return fmt.Sprintf("%s[%d docs]", q.desc, q.set.Len())
}

func (q *SetQuery) CreateWeight(*Searcher) (Weight, error) {
	return &setWeight{query: q}, nil
}

type setWeight struct {
	query *SetQuery
}

func (w *setWeight) Query() Query   { return w.query }
func (w *setWeight) Value() float32 { return 1 }

func (w *setWeight) Scorer(index.Reader) (Scorer, error) {
	return newSetScorer(w.query.set, 1), nil
}

func (w *setWeight) Explain(_ index.Reader, doc int) (*Explanation, error) {
	if !w.query.set.Contains(doc) {
		return noMatch(w.query.String()), nil
	}
	return &Explanation{Value: 1, Description: w.query.String()}, nil
}
