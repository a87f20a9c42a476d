package search

import (
	"fmt"
	"strings"

	"github.com/aidanlsb/corvid/internal/index"
)

// Transform is a case transformation applied to property values before comparison.
type Transform int

const (
	TransformNone Transform = iota
	TransformLower
	TransformUpper
)

func (t Transform) apply(s string) string {
	switch t {
	case TransformLower:
		return strings.ToLower(s)
	case TransformUpper:
		return strings.ToUpper(s)
	}
	return s
}

func (t Transform) wrap(s string) string {
	switch t {
	case TransformLower:
		return "lower(" + s + ")"
	case TransformUpper:
		return "upper(" + s + ")"
	}
	return s
}

// RangeQuery matches documents with a value of a property inside a term
// range. Bounds are index terms (see index.PropertyTerm); a nil bound is
// open. With a transform, bounds are compared against transformed values.
type RangeQuery struct {
	property     string
	lower, upper *string
	incLower     bool
	incUpper     bool
	transform    Transform
}

// NewRangeQuery creates a range query over property.
func NewRangeQuery(property string, lower, upper *string, incLower, incUpper bool, transform Transform) *RangeQuery {
	return &RangeQuery{
		property:  property,
		lower:     lower,
		upper:     upper,
		incLower:  incLower,
		incUpper:  incUpper,
		transform: transform,
	}
}

// Rewrite enumerates the property's terms into a SetQuery.
func (q *RangeQuery) Rewrite(r index.Reader) (Query, error) {
	set := index.NewPostingSet()
	prefix := index.NamedValuePrefix(q.property)
	err := r.Terms(index.FieldProperties, prefix, func(term string, postings *index.PostingSet) bool {
		value := q.transform.apply(term[len(prefix):])
		if q.lower != nil {
			c := strings.Compare(value, *q.lower)
			if c < 0 || (c == 0 && !q.incLower) {
				return true
			}
		}
		if q.upper != nil {
			c := strings.Compare(value, *q.upper)
			if c > 0 || (c == 0 && !q.incUpper) {
				// terms ascend, so nothing further can match untransformed values
				return q.transform != TransformNone
			}
		}
		set.Or(postings)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", q.property, err)
	}
	return NewSetQuery(set, q.String()), nil
}

func (q *RangeQuery) CreateWeight(s *Searcher) (Weight, error) {
	rewritten, err := s.Rewrite(q)
	if err != nil {
		return nil, err
	}
	return rewritten.CreateWeight(s)
}

func (q *RangeQuery) ExtractTerms(map[Term]struct{}) {}

func (q *RangeQuery) String() string {
	open, closing := "{", "}"
	if q.incLower {
		open = "["
	}
	if q.incUpper {
		closing = "]"
	}
	lo, hi := "*", "*"
	if q.lower != nil {
		lo = *q.lower
	}
	if q.upper != nil {
		hi = *q.upper
	}
	return fmt.Sprintf("%s:%s%s TO %s%s", q.transform.wrap("@"+q.property), open, lo, hi, closing)
}
