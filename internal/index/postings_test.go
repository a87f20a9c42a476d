package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostingSetNextMember(t *testing.T) {
	s := PostingSetOf(2, 5, 9)

	tests := []struct {
		k    int
		want int
	}{
		{-3, 2},
		{0, 2},
		{2, 2},
		{3, 5},
		{6, 9},
		{9, 9},
		{10, -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.NextMember(tt.k), "NextMember(%d)", tt.k)
	}
	assert.Equal(t, -1, NewPostingSet().NextMember(0))
}

func TestPostingSetAlgebra(t *testing.T) {
	a := PostingSetOf(1, 2, 3)
	b := PostingSetOf(3, 4)

	union := a.Clone()
	union.Or(b)
	assert.Equal(t, []int{1, 2, 3, 4}, union.Slice())
	assert.Equal(t, []int{1, 2, 3}, a.Slice(), "Clone must not share storage")

	inter := a.Clone()
	inter.And(b)
	assert.Equal(t, []int{3}, inter.Slice())

	diff := a.Clone()
	diff.AndNot(b)
	assert.Equal(t, []int{1, 2}, diff.Slice())

	nilAnd := a.Clone()
	nilAnd.And(nil)
	assert.True(t, nilAnd.IsEmpty())

	assert.True(t, PostingSetOf(4, 3).Equals(b))
	assert.False(t, a.Contains(-1))
	assert.Equal(t, 3, a.Len())
}

func TestPostingSetAddIsIdempotent(t *testing.T) {
	s := NewPostingSet()
	s.Add(7)
	s.Add(7)
	assert.Equal(t, 1, s.Len())
}
