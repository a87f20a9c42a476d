package index

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// PostingSet is a set of document identifiers backed by a roaring bitmap.
//
// Sets returned by a Reader are shared with the snapshot and must not be
// modified; Clone them first.
type PostingSet struct {
	bm *roaring.Bitmap
}

// NewPostingSet creates an empty set.
func NewPostingSet() *PostingSet {
	return &PostingSet{bm: roaring.New()}
}

// PostingSetOf creates a set holding the given documents.
func PostingSetOf(docs ...int) *PostingSet {
	s := NewPostingSet()
	for _, d := range docs {
		s.Add(d)
	}
	return s
}

// Add inserts a document.
func (s *PostingSet) Add(doc int) {
	s.bm.Add(uint32(doc))
}

// Contains reports whether doc is a member.
func (s *PostingSet) Contains(doc int) bool {
	if doc < 0 {
		return false
	}
	return s.bm.Contains(uint32(doc))
}

// Len returns the number of members.
func (s *PostingSet) Len() int {
	return int(s.bm.GetCardinality())
}

// IsEmpty reports whether the set has no members.
func (s *PostingSet) IsEmpty() bool {
	return s.bm.IsEmpty()
}

// Or adds every member of other to s.
func (s *PostingSet) Or(other *PostingSet) {
	if other == nil {
		return
	}
	s.bm.Or(other.bm)
}

// And keeps only the members of s that are also in other.
func (s *PostingSet) And(other *PostingSet) {
	if other == nil {
		s.bm.Clear()
		return
	}
	s.bm.And(other.bm)
}

// AndNot removes every member of other from s.
func (s *PostingSet) AndNot(other *PostingSet) {
	if other == nil {
		return
	}
	s.bm.AndNot(other.bm)
}

// Clear removes all members.
func (s *PostingSet) Clear() {
	s.bm.Clear()
}

// Clone returns an independent copy.
func (s *PostingSet) Clone() *PostingSet {
	return &PostingSet{bm: s.bm.Clone()}
}

// NextMember returns the smallest member >= k, or -1 when there is none.
func (s *PostingSet) NextMember(k int) int {
	if k < 0 {
		k = 0
	}
	it := s.bm.Iterator()
	it.AdvanceIfNeeded(uint32(k))
	if !it.HasNext() {
		return -1
	}
	return int(it.Next())
}

// ForEach calls fn for every member in ascending order until fn returns false.
func (s *PostingSet) ForEach(fn func(doc int) bool) {
	s.bm.Iterate(func(x uint32) bool {
		return fn(int(x))
	})
}

// Slice returns the members in ascending order.
func (s *PostingSet) Slice() []int {
	out := make([]int, 0, s.Len())
	s.ForEach(func(doc int) bool {
		out = append(out, doc)
		return true
	})
	return out
}

// Equals reports whether both sets hold the same members.
func (s *PostingSet) Equals(other *PostingSet) bool {
	if other == nil {
		return s.IsEmpty()
	}
	return s.bm.Equals(other.bm)
}
