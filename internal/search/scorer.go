package search

import "github.com/aidanlsb/corvid/internal/index"

// setScorer walks a precomputed posting set with a constant score.
type setScorer struct {
	set   *index.PostingSet
	doc   int
	score float32
}

func newSetScorer(set *index.PostingSet, score float32) *setScorer {
	return &setScorer{set: set, doc: -1, score: score}
}

func (s *setScorer) Next() (bool, error) {
	if s.doc == NoMoreDocs {
		return false, nil
	}
	return s.position(s.set.NextMember(s.doc + 1)), nil
}

// Advance seeks to the first member >= target, in either direction.
func (s *setScorer) Advance(target int) (bool, error) {
	return s.position(s.set.NextMember(target)), nil
}

func (s *setScorer) position(next int) bool {
	if next < 0 {
		s.doc = NoMoreDocs
		return false
	}
	s.doc = next
	return true
}

func (s *setScorer) Doc() int       { return s.doc }
func (s *setScorer) Score() float32 { return s.score }

// emptyScorer matches nothing.
type emptyScorer struct {
	started bool
}

func (s *emptyScorer) Next() (bool, error) {
	s.started = true
	return false, nil
}

func (s *emptyScorer) Advance(int) (bool, error) {
	s.started = true
	return false, nil
}

func (s *emptyScorer) Doc() int {
	if !s.started {
		return -1
	}
	return NoMoreDocs
}

func (s *emptyScorer) Score() float32 { return 0 }
