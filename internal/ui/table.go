package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders aligned columns without borders, for key/value listings.
type Table struct {
	rows       [][]string
	colWidths  []int
	colPadding int
}

// NewTable creates a table with cols columns.
func NewTable(cols int) *Table {
	return &Table{
		colWidths:  make([]int, cols),
		colPadding: 2,
	}
}

// AddRow adds a row. Missing cells are blank; extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.colWidths))
	for i := 0; i < len(t.colWidths) && i < len(cells); i++ {
		row[i] = cells[i]
		if w := lipgloss.Width(cells[i]); w > t.colWidths[i] {
			t.colWidths[i] = w
		}
	}
	t.rows = append(t.rows, row)
}

// String renders the table, one line per row.
func (t *Table) String() string {
	var sb strings.Builder
	padding := strings.Repeat(" ", t.colPadding)
	for _, row := range t.rows {
		for i, cell := range row {
			if i > 0 {
				sb.WriteString(padding)
			}
			sb.WriteString(cell)
			if i < len(row)-1 {
				sb.WriteString(strings.Repeat(" ", t.colWidths[i]-lipgloss.Width(cell)))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
