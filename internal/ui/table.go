package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Alignment represents column text alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Column defines a table column.
type Column struct {
	Header   string
	Align    Alignment
	MaxWidth int // 0 = no limit
	Style    lipgloss.Style
}

// Table renders rows with a minimal border: a header rule and no column
// separators.
type Table struct {
	display *DisplayContext
	columns []Column
	rows    [][]string
}

// NewTable creates a table for the given display and columns.
func NewTable(display *DisplayContext, columns ...Column) *Table {
	return &Table{display: display, columns: columns}
}

// AddRow adds a row. Missing cells render empty; extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.columns))
	for i := range row {
		if i < len(cells) {
			row[i] = TruncateWithEllipsis(cells[i], t.columns[i].MaxWidth)
		}
	}
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render generates the table output as a string.
func (t *Table) Render() string {
	if len(t.rows) == 0 {
		return ""
	}

	headers := make([]string, len(t.columns))
	for i, c := range t.columns {
		headers[i] = c.Header
	}

	tbl := table.New().
		Border(lipgloss.Border{Top: "─", Bottom: "─", Middle: "─"}).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(true).
		BorderRow(false).
		BorderColumn(false).
		BorderStyle(Muted).
		Width(t.width()).
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

// width is the natural width of the table, capped to the terminal.
func (t *Table) width() int {
	natural := 0
	for i, c := range t.columns {
		w := lipgloss.Width(c.Header)
		for _, row := range t.rows {
			if cw := lipgloss.Width(row[i]); cw > w {
				w = cw
			}
		}
		natural += w + 2
	}
	if max := t.display.TermWidth - 2; max > 0 && natural > max {
		return max
	}
	return natural
}

// TruncateWithEllipsis truncates a string to maxLen runes, adding an
// ellipsis if needed. It tries to break at word boundaries. A maxLen of
// zero means no limit.
func TruncateWithEllipsis(s string, maxLen int) string {
	runes := []rune(s)
	if maxLen <= 0 || len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}

	truncated := string(runes[:maxLen-3])
	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > len(truncated)/2 {
		truncated = truncated[:lastSpace]
	}
	return truncated + "..."
}
