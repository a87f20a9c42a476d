package testutil

import (
	"testing"
)

// AssertRowCount fails the test unless a query result has expected rows.
func (r *CLIResult) AssertRowCount(t testing.TB, expected int) {
	t.Helper()
	rows := r.DataList("rows")
	if len(rows) != expected {
		t.Errorf("expected %d rows, got %d\nRaw output: %s", expected, len(rows), r.RawJSON)
	}
}

// Column returns one column of every query result row, in row order.
func (r *CLIResult) Column(name string) []string {
	var out []string
	for _, row := range r.DataList("rows") {
		m, ok := row.(map[string]any)
		if !ok {
			continue
		}
		values, _ := m["values"].(map[string]any)
		s, _ := values[name].(string)
		out = append(out, s)
	}
	return out
}
