package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
)

// reportMargin indents rendered reports from the terminal edge.
const reportMargin = 2

// MarkdownRenderer renders saved Markdown reports for the terminal.
type MarkdownRenderer struct {
	term *glamour.TermRenderer
}

// NewMarkdownRenderer builds a renderer wrapping at width columns. A
// non-positive width uses DefaultTermWidth.
func NewMarkdownRenderer(width int) (*MarkdownRenderer, error) {
	if width <= 0 {
		width = DefaultTermWidth
	}
	term, err := glamour.NewTermRenderer(
		glamour.WithStyles(reportStyle()),
		glamour.WithWordWrap(width-reportMargin),
	)
	if err != nil {
		return nil, err
	}
	return &MarkdownRenderer{term: term}, nil
}

// Render returns the styled report ending in exactly one newline.
func (r *MarkdownRenderer) Render(md string) (string, error) {
	out, err := r.term.Render(md)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}

// RenderMarkdown renders md once at the given width.
func RenderMarkdown(md string, width int) (string, error) {
	r, err := NewMarkdownRenderer(width)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

// reportStyle styles the pieces a lorecheck report uses: headings per
// validator, summary and quality tables, and issue bullets whose kind is
// bold.
func reportStyle() ansi.StyleConfig {
	muted := ptr("8")
	var accent *string
	if color, ok := AccentColor(); ok {
		accent = ptr(color)
	}

	heading := func(prefix string, underline bool) ansi.StyleBlock {
		return ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Prefix: prefix, Underline: ptr(underline)}}
	}

	return ansi.StyleConfig{
		Document: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{BlockPrefix: "\n", BlockSuffix: "\n"},
			Margin:         ptr(uint(reportMargin)),
		},
		Heading: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{BlockSuffix: "\n", Color: accent, Bold: ptr(true)},
		},
		H1:   heading("", true),
		H2:   heading("", true),
		H3:   heading("› ", false),
		List: ansi.StyleList{LevelIndent: 2},
		Item: ansi.StylePrimitive{BlockPrefix: "• "},
		Enumeration: ansi.StylePrimitive{
			BlockPrefix: ". ",
		},
		Strong: ansi.StylePrimitive{Bold: ptr(true)},
		Emph:   ansi.StylePrimitive{Italic: ptr(true)},
		Code: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: ptr("203")},
		},
		CodeBlock: ansi.StyleCodeBlock{
			StyleBlock: ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Color: muted}},
			Theme:      codeTheme,
		},
		BlockQuote: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: muted},
			Indent:         ptr(uint(1)),
			IndentToken:    ptr("│ "),
		},
		HorizontalRule: ansi.StylePrimitive{Color: muted, Format: "\n────────\n"},
		Link:           ansi.StylePrimitive{Color: muted, Underline: ptr(true)},
		Table: ansi.StyleTable{
			CenterSeparator: ptr("┼"),
			ColumnSeparator: ptr("│"),
			RowSeparator:    ptr("─"),
		},
	}
}

func ptr[T any](v T) *T { return &v }
