package search

import (
	"fmt"
	"log/slog"

	"github.com/aidanlsb/corvid/internal/index"
)

const maxRewriteRounds = 64

// ScoreDoc is a matching document with its score.
type ScoreDoc struct {
	Doc   int
	Score float32
}

// Searcher executes queries against one index snapshot.
type Searcher struct {
	reader   index.Reader
	analyzer *index.Analyzer
	logger   *slog.Logger
}

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithLogger sets the logger used by operators during evaluation.
func WithLogger(l *slog.Logger) SearcherOption {
	return func(s *Searcher) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSearcher creates a searcher over r.
func NewSearcher(r index.Reader, opts ...SearcherOption) *Searcher {
	s := &Searcher{
		reader:   r,
		analyzer: index.NewAnalyzer(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reader returns the snapshot the searcher runs against.
func (s *Searcher) Reader() index.Reader { return s.reader }

// Analyzer returns the full-text analyzer.
func (s *Searcher) Analyzer() *index.Analyzer { return s.analyzer }

// Logger returns the searcher's logger.
func (s *Searcher) Logger() *slog.Logger { return s.logger }

// Rewrite rewrites q until it reaches a fixed point.
func (s *Searcher) Rewrite(q Query) (Query, error) {
	for i := 0; i < maxRewriteRounds; i++ {
		rewritten, err := q.Rewrite(s.reader)
		if err != nil {
			return nil, fmt.Errorf("rewrite %s: %w", q, err)
		}
		if rewritten == q {
			return q, nil
		}
		q = rewritten
	}
	return nil, ErrRewriteLoop
}

// Weight rewrites q and compiles it.
func (s *Searcher) Weight(q Query) (Weight, error) {
	rewritten, err := s.Rewrite(q)
	if err != nil {
		return nil, err
	}
	return rewritten.CreateWeight(s)
}

// Scorer rewrites and compiles q and returns a scorer over the snapshot.
func (s *Searcher) Scorer(q Query) (Scorer, error) {
	w, err := s.Weight(q)
	if err != nil {
		return nil, err
	}
	return w.Scorer(s.reader)
}

// Search returns every match of q in document order.
func (s *Searcher) Search(q Query) ([]ScoreDoc, error) {
	sc, err := s.Scorer(q)
	if err != nil {
		return nil, err
	}
	var out []ScoreDoc
	err = ScoreAll(sc, func(doc int, score float32) {
		out = append(out, ScoreDoc{Doc: doc, Score: score})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of matches of q.
func (s *Searcher) Count(q Query) (int, error) {
	sc, err := s.Scorer(q)
	if err != nil {
		return 0, err
	}
	n := 0
	err = ScoreAll(sc, func(int, float32) { n++ })
	return n, err
}

// Explain explains how doc scores for q.
func (s *Searcher) Explain(q Query, doc int) (*Explanation, error) {
	w, err := s.Weight(q)
	if err != nil {
		return nil, err
	}
	return w.Explain(s.reader, doc)
}

// explainByScoring explains constant-score weights by positioning a fresh scorer on doc.
func explainByScoring(w Weight, r index.Reader, doc int) (*Explanation, error) {
	sc, err := w.Scorer(r)
	if err != nil {
		return nil, err
	}
	ok, err := sc.Advance(doc)
	if err != nil {
		return nil, err
	}
	if !ok || sc.Doc() != doc {
		return noMatch(w.Query().String()), nil
	}
	return &Explanation{Value: sc.Score(), Description: w.Query().String()}, nil
}
