package search

import (
	"fmt"
	"strings"
)

// Explanation describes the score of a document.
// The zero value is the empty explanation.
type Explanation struct {
	Value       float32        `json:"value"`
	Description string         `json:"description"`
	Details     []*Explanation `json:"details,omitempty"`
}

// IsMatch reports whether the explained document matched.
func (e *Explanation) IsMatch() bool {
	return e != nil && e.Value > 0
}

// AddDetail appends a child explanation.
func (e *Explanation) AddDetail(d *Explanation) {
	e.Details = append(e.Details, d)
}

func (e *Explanation) String() string {
	var sb strings.Builder
	e.write(&sb, 0)
	return sb.String()
}

func (e *Explanation) write(sb *strings.Builder, depth int) {
	if e == nil {
		return
	}
	sb.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(sb, "%g = %s\n", e.Value, e.Description)
	for _, d := range e.Details {
		d.write(sb, depth+1)
	}
}

func noMatch(desc string) *Explanation {
	return &Explanation{Value: 0, Description: "no match: " + desc}
}
