package search

import (
	"strings"

	"github.com/aidanlsb/corvid/internal/index"
)

// TextQuery is an analysed full-text predicate. Every word must match;
// words prefixed with '-' must not. With a property set, matching is
// scoped to that property's string values.
type TextQuery struct {
	property string
	text     string
}

// NewTextQuery creates a full-text query. property may be empty.
func NewTextQuery(property, text string) *TextQuery {
	return &TextQuery{property: property, text: text}
}

func (q *TextQuery) Property() string { return q.property }
func (q *TextQuery) Text() string     { return q.text }

// Rewrite expands the text into term queries over the full-text field.
func (q *TextQuery) Rewrite(index.Reader) (Query, error) {
	include, exclude := q.terms(index.NewAnalyzer())
	if len(include) == 0 {
		return NewSetQuery(nil, q.String()), nil
	}
	if len(include) == 1 && len(exclude) == 0 {
		return NewTermQuery(index.FieldFulltext, include[0]), nil
	}
	clauses := make([]BooleanClause, 0, len(include)+len(exclude))
	for _, t := range include {
		clauses = append(clauses, BooleanClause{Query: NewTermQuery(index.FieldFulltext, t), Occur: Must})
	}
	for _, t := range exclude {
		clauses = append(clauses, BooleanClause{Query: NewTermQuery(index.FieldFulltext, t), Occur: MustNot})
	}
	return NewBooleanQuery(clauses...), nil
}

func (q *TextQuery) CreateWeight(s *Searcher) (Weight, error) {
	rewritten, err := s.Rewrite(q)
	if err != nil {
		return nil, err
	}
	return rewritten.CreateWeight(s)
}

func (q *TextQuery) ExtractTerms(terms map[Term]struct{}) {
	include, _ := q.terms(index.NewAnalyzer())
	for _, t := range include {
		terms[Term{Field: index.FieldFulltext, Text: t}] = struct{}{}
	}
}

func (q *TextQuery) String() string {
	if q.property == "" {
		return "contains(., " + quote(q.text) + ")"
	}
	return "contains(@" + q.property + ", " + quote(q.text) + ")"
}

func (q *TextQuery) terms(a *index.Analyzer) (include, exclude []string) {
	seen := make(map[string]bool)
	for _, word := range strings.Fields(q.text) {
		negated := strings.HasPrefix(word, "-") && len(word) > 1
		if negated {
			word = word[1:]
		}
		for _, tok := range a.Tokens(word) {
			if q.property != "" {
				tok = index.NamedValue(q.property, tok)
			}
			key := tok
			if negated {
				key = "-" + tok
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			if negated {
				exclude = append(exclude, tok)
			} else {
				include = append(include, tok)
			}
		}
	}
	return include, exclude
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
