package search

import "github.com/aidanlsb/corvid/internal/index"

// MatchAllQuery matches every document with a score of 1.
type MatchAllQuery struct{}

// NewMatchAllQuery creates a query matching every document.
func NewMatchAllQuery() *MatchAllQuery { return &MatchAllQuery{} }

func (q *MatchAllQuery) Rewrite(index.Reader) (Query, error) { return q, nil }
func (q *MatchAllQuery) ExtractTerms(map[Term]struct{})     {}
func (q *MatchAllQuery) String() string                     { return "*:*" }

func (q *MatchAllQuery) CreateWeight(*Searcher) (Weight, error) {
	return &matchAllWeight{query: q}, nil
}

type matchAllWeight struct {
	query *MatchAllQuery
}

func (w *matchAllWeight) Query() Query   { return w.query }
func (w *matchAllWeight) Value() float32 { return 1 }

func (w *matchAllWeight) Scorer(r index.Reader) (Scorer, error) {
	return &allScorer{maxDoc: r.MaxDoc(), doc: -1}, nil
}

func (w *matchAllWeight) Explain(r index.Reader, doc int) (*Explanation, error) {
	if doc < 0 || doc >= r.MaxDoc() {
		return noMatch(w.query.String()), nil
	}
	return &Explanation{Value: 1, Description: w.query.String()}, nil
}

type allScorer struct {
	maxDoc int
	doc    int
}

func (s *allScorer) Next() (bool, error) {
	if s.doc == NoMoreDocs {
		return false, nil
	}
	return s.Advance(s.doc + 1)
}

func (s *allScorer) Advance(target int) (bool, error) {
	if target < 0 {
		target = 0
	}
	if target >= s.maxDoc {
		s.doc = NoMoreDocs
		return false, nil
	}
	s.doc = target
	return true, nil
}

func (s *allScorer) Doc() int       { return s.doc }
func (s *allScorer) Score() float32 { return 1 }
