package search

import (
	"strconv"
	"strings"

	"github.com/aidanlsb/corvid/internal/index"
)

// Special columns usable in projections and order specs. Any other column
// names a node property.
const (
	IDColumn    = "@id"
	NameColumn  = "@name"
	PathColumn  = "@path"
	TypeColumn  = "@type"
	ScoreColumn = "@score"
)

// ColumnValue returns the value of column for a document with the given
// score. Multi-valued properties are joined with ", ".
func ColumnValue(d *index.Document, column string, score float32) string {
	switch column {
	case IDColumn:
		return d.Get(index.FieldUUID)
	case NameColumn:
		return d.Get(index.FieldLabel)
	case PathColumn:
		return d.Get(index.FieldPath)
	case TypeColumn:
		return d.Get(index.FieldPrimaryType)
	case ScoreColumn:
		return FormatScore(score)
	}
	return strings.Join(d.PropertyValues(column), ", ")
}

// CompareValues compares two rows of order values column by column.
// Values that both parse as numbers compare numerically, others as
// strings; an empty value sorts before any other. descending flips a
// column's direction; columns without a flag are ascending.
func CompareValues(a, b []string, descending []bool) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		c := compareValue(a[i], b[i])
		if c == 0 {
			continue
		}
		if i < len(descending) && descending[i] {
			return -c
		}
		return c
	}
	return 0
}

func compareValue(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return -1
	}
	if b == "" {
		return 1
	}
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}

// FormatScore renders a score the way order values and columns carry it.
func FormatScore(score float32) string {
	return strconv.FormatFloat(float64(score), 'g', -1, 32)
}
