package index

import (
	"fmt"
	"sort"
	"strings"
)

type fieldIndex struct {
	terms    []string // sorted after Build
	postings map[string]*PostingSet
	freqs    map[string]map[int]int // term -> doc -> frequency; full-text fields only
}

func newFieldIndex() *fieldIndex {
	return &fieldIndex{postings: make(map[string]*PostingSet)}
}

// Snapshot is an immutable in-memory index. It implements Reader.
type Snapshot struct {
	generation int64
	docs       []*Document
	fields     map[string]*fieldIndex
}

var _ Reader = (*Snapshot)(nil)

// MaxDoc implements Reader.
func (s *Snapshot) MaxDoc() int { return len(s.docs) }

// NumDocs implements Reader.
func (s *Snapshot) NumDocs() int { return len(s.docs) }

// Generation implements Reader.
func (s *Snapshot) Generation() int64 { return s.generation }

// Document implements Reader.
func (s *Snapshot) Document(doc int) (*Document, error) {
	if doc < 0 || doc >= len(s.docs) {
		return nil, fmt.Errorf("doc %d: %w", doc, ErrDocumentOutOfRange)
	}
	return s.docs[doc], nil
}

// Postings implements Reader.
func (s *Snapshot) Postings(field, term string) (*PostingSet, error) {
	fi, ok := s.fields[field]
	if !ok {
		return NewPostingSet(), nil
	}
	p, ok := fi.postings[term]
	if !ok {
		return NewPostingSet(), nil
	}
	return p, nil
}

// Terms implements Reader.
func (s *Snapshot) Terms(field, prefix string, fn func(term string, postings *PostingSet) bool) error {
	fi, ok := s.fields[field]
	if !ok {
		return nil
	}
	for i := sort.SearchStrings(fi.terms, prefix); i < len(fi.terms); i++ {
		term := fi.terms[i]
		if !strings.HasPrefix(term, prefix) {
			break
		}
		if !fn(term, fi.postings[term]) {
			break
		}
	}
	return nil
}

// DocFreq implements Reader.
func (s *Snapshot) DocFreq(field, term string) (int, error) {
	p, err := s.Postings(field, term)
	if err != nil {
		return 0, err
	}
	return p.Len(), nil
}

// TermFreq implements Reader.
func (s *Snapshot) TermFreq(field, term string, doc int) (int, error) {
	fi, ok := s.fields[field]
	if !ok {
		return 0, nil
	}
	if fi.freqs != nil {
		return fi.freqs[term][doc], nil
	}
	if p, ok := fi.postings[term]; ok && p.Contains(doc) {
		return 1, nil
	}
	return 0, nil
}
