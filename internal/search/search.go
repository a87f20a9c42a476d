// Package search implements the query operator algebra evaluated against an
// index snapshot.
//
// Evaluation follows three steps: a Query is rewritten against a Reader
// until it reaches a fixed point, compiled into a Weight, and the Weight
// produces a Scorer that walks matching documents in ascending order.
package search

import (
	"errors"
	"math"

	"github.com/aidanlsb/corvid/internal/index"
)

// NoMoreDocs is the value of Scorer.Doc once iteration is exhausted.
const NoMoreDocs = math.MaxInt32

var (
	// ErrConcurrentScorerUse is returned when a scorer is entered from two
	// goroutines at once. Scorers serve a single executor.
	ErrConcurrentScorerUse = errors.New("scorer used concurrently")
	// ErrRewriteLoop is returned when rewriting does not reach a fixed point.
	ErrRewriteLoop = errors.New("query rewrite did not converge")
)

// Term identifies an indexed term.
type Term struct {
	Field string
	Text  string
}

// Query is an immutable operator tree node.
type Query interface {
	// Rewrite returns an equivalent query better suited for execution
	// against r. A query that has nothing to rewrite returns itself; a
	// composite whose children are unchanged must also return itself.
	Rewrite(r index.Reader) (Query, error)

	// CreateWeight compiles the query for s.
	CreateWeight(s *Searcher) (Weight, error)

	// ExtractTerms adds the terms the query matches on to terms.
	ExtractTerms(terms map[Term]struct{})

	String() string
}

// Weight is a compiled query bound to a searcher.
type Weight interface {
	Query() Query
	Value() float32

	// Scorer returns a fresh scorer over r.
	Scorer(r index.Reader) (Scorer, error)

	// Explain describes how doc was scored.
	Explain(r index.Reader, doc int) (*Explanation, error)
}

// Scorer walks matching documents in ascending identifier order.
//
// Doc is -1 before the first call to Next or Advance and NoMoreDocs after
// exhaustion. Advance positions the scorer on the first match >= target;
// composite scorers only support targets beyond the current document.
// A scorer belongs to one executor and is not safe for concurrent use.
type Scorer interface {
	Next() (bool, error)
	Advance(target int) (bool, error)
	Doc() int
	Score() float32
}

// Collector receives every match of a drained scorer.
type Collector func(doc int, score float32)

// ScoreAll drains s into collect.
func ScoreAll(s Scorer, collect Collector) error {
	for {
		ok, err := s.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		collect(s.Doc(), s.Score())
	}
}

// CollectSet drains s into a posting set.
func CollectSet(s Scorer) (*index.PostingSet, error) {
	set := index.NewPostingSet()
	err := ScoreAll(s, func(doc int, _ float32) {
		set.Add(doc)
	})
	return set, err
}

// idf is the inverse document frequency of a term matching docFreq of numDocs documents.
func idf(docFreq, numDocs int) float32 {
	return float32(math.Log(float64(numDocs)/float64(docFreq+1)) + 1.0)
}

func tfScore(freq int) float32 {
	return float32(math.Sqrt(float64(freq)))
}
