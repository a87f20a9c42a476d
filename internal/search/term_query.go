package search

import (
	"fmt"

	"github.com/aidanlsb/corvid/internal/index"
)

// TermQuery matches documents containing a single term.
// Scores use tf-idf; keyword fields always have a term frequency of one.
type TermQuery struct {
	term Term
}

// NewTermQuery creates a query for text in field.
func NewTermQuery(field, text string) *TermQuery {
	return &TermQuery{term: Term{Field: field, Text: text}}
}

// Term returns the matched term.
func (q *TermQuery) Term() Term { return q.term }

func (q *TermQuery) Rewrite(index.Reader) (Query, error) { return q, nil }

func (q *TermQuery) ExtractTerms(terms map[Term]struct{}) {
	terms[q.term] = struct{}{}
}

func (q *TermQuery) String() string {
	return q.term.Field + ":" + printableTerm(q.term.Text)
}

func (q *TermQuery) CreateWeight(s *Searcher) (Weight, error) {
	r := s.Reader()
	df, err := r.DocFreq(q.term.Field, q.term.Text)
	if err != nil {
		return nil, fmt.Errorf("doc freq %s: %w", q, err)
	}
	return &termWeight{query: q, idf: idf(df, r.NumDocs())}, nil
}

type termWeight struct {
	query *TermQuery
	idf   float32
}

func (w *termWeight) Query() Query   { return w.query }
func (w *termWeight) Value() float32 { return w.idf }

func (w *termWeight) Scorer(r index.Reader) (Scorer, error) {
	postings, err := r.Postings(w.query.term.Field, w.query.term.Text)
	if err != nil {
		return nil, fmt.Errorf("postings %s: %w", w.query, err)
	}
	return &termScorer{
		setScorer: newSetScorer(postings, 0),
		reader:    r,
		term:      w.query.term,
		idf:       w.idf,
	}, nil
}

func (w *termWeight) Explain(r index.Reader, doc int) (*Explanation, error) {
	freq, err := r.TermFreq(w.query.term.Field, w.query.term.Text, doc)
	if err != nil {
		return nil, err
	}
	if freq == 0 {
		return noMatch(w.query.String()), nil
	}
	e := &Explanation{
		Value:       tfScore(freq) * w.idf,
		Description: fmt.Sprintf("weight(%s in %d), product of:", w.query, doc),
	}
	e.AddDetail(&Explanation{Value: tfScore(freq), Description: fmt.Sprintf("tf(termFreq=%d)", freq)})
	e.AddDetail(&Explanation{Value: w.idf, Description: "idf"})
	return e, nil
}

// termScorer reads the term frequency of each match as it is positioned.
type termScorer struct {
	*setScorer
	reader index.Reader
	term   Term
	idf    float32
}

func (s *termScorer) Next() (bool, error) {
	ok, _ := s.setScorer.Next()
	return s.scoreCurrent(ok)
}

func (s *termScorer) Advance(target int) (bool, error) {
	ok, _ := s.setScorer.Advance(target)
	return s.scoreCurrent(ok)
}

func (s *termScorer) scoreCurrent(ok bool) (bool, error) {
	if !ok {
		return false, nil
	}
	freq, err := s.reader.TermFreq(s.term.Field, s.term.Text, s.doc)
	if err != nil {
		return false, err
	}
	s.score = tfScore(freq) * s.idf
	return true, nil
}

// printableTerm renders named-value terms as name=value.
func printableTerm(text string) string {
	if name, value, ok := index.SplitNamedValue(text); ok {
		return name + "=" + value
	}
	return text
}
