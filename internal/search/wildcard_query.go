package search

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aidanlsb/corvid/internal/index"
)

// WildcardQuery matches property values against a LIKE pattern where '%'
// matches any run of characters, '_' matches one character and '\' escapes.
type WildcardQuery struct {
	property  string
	pattern   string
	transform Transform
}

// NewWildcardQuery creates a LIKE query over property.
func NewWildcardQuery(property, pattern string, transform Transform) *WildcardQuery {
	return &WildcardQuery{property: property, pattern: pattern, transform: transform}
}

// Rewrite enumerates matching property terms into a SetQuery.
func (q *WildcardQuery) Rewrite(r index.Reader) (Query, error) {
	re, literal, err := compileLike(q.pattern)
	if err != nil {
		return nil, err
	}
	prefix := index.NamedValuePrefix(q.property)
	scan := prefix
	if q.transform == TransformNone {
		scan += literal
	}
	set := index.NewPostingSet()
	err = r.Terms(index.FieldProperties, scan, func(term string, postings *index.PostingSet) bool {
		if re.MatchString(q.transform.apply(term[len(prefix):])) {
			set.Or(postings)
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", q.property, err)
	}
	return NewSetQuery(set, q.String()), nil
}

func (q *WildcardQuery) CreateWeight(s *Searcher) (Weight, error) {
	rewritten, err := s.Rewrite(q)
	if err != nil {
		return nil, err
	}
	return rewritten.CreateWeight(s)
}

func (q *WildcardQuery) ExtractTerms(map[Term]struct{}) {}

func (q *WildcardQuery) String() string {
	return fmt.Sprintf("%s LIKE %s", q.transform.wrap("@"+q.property), quote(q.pattern))
}

// compileLike converts a LIKE pattern to an anchored regexp and returns the
// literal prefix before the first wildcard.
func compileLike(pattern string) (*regexp.Regexp, string, error) {
	var sb, lit strings.Builder
	sb.WriteString("^(?s:")
	inPrefix := true
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			escaped = false
			sb.WriteString(regexp.QuoteMeta(string(r)))
			if inPrefix {
				lit.WriteRune(r)
			}
		case r == '\\':
			escaped = true
		case r == '%':
			inPrefix = false
			sb.WriteString(".*")
		case r == '_':
			inPrefix = false
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
			if inPrefix {
				lit.WriteRune(r)
			}
		}
	}
	if escaped {
		sb.WriteString(regexp.QuoteMeta(`\`))
		if inPrefix {
			lit.WriteRune('\\')
		}
	}
	sb.WriteString(")$")
	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, "", fmt.Errorf("like pattern %q: %w", pattern, err)
	}
	return re, lit.String(), nil
}
