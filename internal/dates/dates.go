// Package dates holds the date formats stored in date properties.
//
// Date values are kept in a canonical textual form whose lexical order is
// chronological, so range queries can compare index terms directly.
package dates

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	DatetimeLayout = "2006-01-02T15:04:05Z"
)

var dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// IsValidDate checks if a string is a valid YYYY-MM-DD date.
func IsValidDate(s string) bool {
	if !dateRegex.MatchString(s) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ParseDatetime parses RFC 3339 or a zoneless YYYY-MM-DDTHH:MM[:SS].
// Zoneless values are taken as UTC.
func ParseDatetime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("invalid datetime: empty")
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime: %q", s)
}

// Format renders t as a date when it falls on UTC midnight and as a UTC
// datetime otherwise.
func Format(t time.Time) string {
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(DateLayout)
	}
	return t.Format(DatetimeLayout)
}

// Canonical returns the canonical form of a date or datetime literal.
// ok is false when s is neither.
func Canonical(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if IsValidDate(s) {
		return s, true
	}
	t, err := ParseDatetime(s)
	if err != nil {
		return "", false
	}
	return Format(t), true
}
