package ui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Alignment represents column text alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// ColumnDef defines a column in a ResultsTable.
type ColumnDef struct {
	Name       string
	WidthRatio float64 // share of the flexible width; 0 means fixed at MinWidth
	MinWidth   int
	MaxWidth   int // 0 = no limit
	Align      Alignment
	Style      lipgloss.Style
}

// ColNum is the row number column.
var ColNum = ColumnDef{
	Name:     "#",
	MinWidth: 4,
	MaxWidth: 6,
	Align:    AlignRight,
	Style:    Muted,
}

// ResultsTable renders query results: a row number followed by one cell
// per result column.
type ResultsTable struct {
	display *DisplayContext
	columns []ColumnDef
	rows    [][]string
}

// NewResultsTable lays out the named result columns with equal shares of
// the terminal width. Path-like columns use the accent style.
func NewResultsTable(display *DisplayContext, names []string) *ResultsTable {
	columns := []ColumnDef{ColNum}
	for _, name := range names {
		col := ColumnDef{Name: name, WidthRatio: 1, MinWidth: 8}
		if name == "@path" {
			col.Style = Accent
		}
		columns = append(columns, col)
	}
	return &ResultsTable{display: display, columns: columns}
}

// AddRow appends a result row; num is 1-based.
func (t *ResultsTable) AddRow(num int, cells []string) {
	row := make([]string, len(t.columns))
	row[0] = strconv.Itoa(num)
	copy(row[1:], cells)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *ResultsTable) Len() int { return len(t.rows) }

func (t *ResultsTable) calculateWidths() []int {
	const columnPadding = 2
	widths := make([]int, len(t.columns))

	var totalRatio float64
	var fixed int
	for i, col := range t.columns {
		if col.WidthRatio == 0 {
			widths[i] = col.MinWidth
			if col.MaxWidth > 0 && widths[i] > col.MaxWidth {
				widths[i] = col.MaxWidth
			}
			fixed += widths[i]
		} else {
			totalRatio += col.WidthRatio
		}
	}

	available := t.display.TermWidth - fixed - (len(t.columns)-1)*columnPadding
	if available < 0 {
		available = 0
	}
	for i, col := range t.columns {
		if col.WidthRatio == 0 {
			continue
		}
		width := int(float64(available) * col.WidthRatio / totalRatio)
		if width < col.MinWidth {
			width = col.MinWidth
		}
		if col.MaxWidth > 0 && width > col.MaxWidth {
			width = col.MaxWidth
		}
		widths[i] = width
	}
	return widths
}

// Render generates the table with a header row.
func (t *ResultsTable) Render() string {
	if len(t.rows) == 0 {
		return ""
	}
	widths := t.calculateWidths()

	headers := make([]string, len(t.columns))
	for i, col := range t.columns {
		headers[i] = col.Name
	}

	tbl := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(false).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col >= len(t.columns) {
				return lipgloss.NewStyle()
			}
			def := t.columns[col]
			style := def.Style
			if row == table.HeaderRow {
				style = Bold
			}
			style = style.Width(widths[col]).MaxHeight(1)
			if def.Align == AlignRight {
				style = style.Align(lipgloss.Right)
			} else {
				style = style.Align(lipgloss.Left)
			}
			if col < len(t.columns)-1 {
				style = style.PaddingRight(2)
			}
			return style
		}).
		Rows(t.rows...)

	return tbl.Render()
}
