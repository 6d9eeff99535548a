package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/aidanlsb/lorecheck/internal/issue"
	"github.com/aidanlsb/lorecheck/internal/quality"
)

// Markdown renders r as a Markdown document.
func Markdown(r *Run) []byte {
	var b bytes.Buffer
	rep := r.Report
	s := rep.Summary

	status := "PASS"
	if !s.IsValid {
		status = "FAIL"
	}

	fmt.Fprintf(&b, "# lorecheck report: %s\n\n", status)
	fmt.Fprintf(&b, "- Run: `%s`\n", r.ID)
	fmt.Fprintf(&b, "- Started: %s\n", r.StartedAt().UTC().Format("2006-01-02 15:04:05 UTC"))
	if r.Root != "" {
		fmt.Fprintf(&b, "- Root: `%s`\n", r.Root)
	}
	fmt.Fprintf(&b, "- Fingerprint: `%s`\n", r.Fingerprint)
	fmt.Fprintf(&b, "- Mode: %s\n\n", rep.Mode)

	b.WriteString("## Summary\n\n")
	b.WriteString("| validators | passed | failed | skipped | errors | warnings | duration |\n")
	b.WriteString("|---:|---:|---:|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d | %dms |\n\n",
		s.Total, s.Passed, s.Failed, s.Skipped, s.Errors, s.Warnings, s.DurationMs)

	for _, v := range rep.Validators {
		state := "pass"
		switch {
		case v.Skipped:
			state = "skipped"
		case !v.IsValid:
			state = "fail"
		}
		fmt.Fprintf(&b, "## %s (%s)\n\n", v.Name, state)
		if v.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", v.Description)
		}
		if v.Skipped {
			continue
		}
		if len(v.Issues) == 0 && len(v.Warnings) == 0 {
			b.WriteString("No issues.\n\n")
			continue
		}
		writeIssues(&b, "Errors", v.Issues)
		writeIssues(&b, "Warnings", v.Warnings)
	}

	if q := r.Quality(); q != nil {
		writeQuality(&b, q)
	}
	return b.Bytes()
}

func writeIssues(b *bytes.Buffer, heading string, issues []issue.Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", heading)
	for _, i := range issues {
		fmt.Fprintf(b, "- **%s**: %s\n", i.Kind, escape(i.Message))
	}
	b.WriteString("\n")
}

func writeQuality(b *bytes.Buffer, q *quality.Report) {
	b.WriteString("## Quality\n\n")
	fmt.Fprintf(b, "Overall score: **%.2f**\n\n", q.Overall)
	b.WriteString("| type | entities | valid | completeness | consistency | score | top |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---|\n")
	for _, s := range q.Types {
		fmt.Fprintf(b, "| %s | %d | %d | %.1f%% | %.2f | %.2f | %s |\n",
			s.Type, s.Total, s.Valid, s.Completeness, s.Consistency, s.Score, escape(topIDs(s.Top)))
	}
	b.WriteString("\n")
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "`", "\\`")

func escape(s string) string {
	return markdownEscaper.Replace(s)
}

// HTML converts a Markdown report to a standalone HTML page.
func HTML(md []byte, title string) ([]byte, error) {
	conv := goldmark.New(
		goldmark.WithExtensions(extension.Table),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithXHTML()),
	)

	var body bytes.Buffer
	if err := conv.Convert(md, &body); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\" />\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", htmlEscaper.Replace(title))
	page.WriteString("<style>body{font-family:sans-serif;max-width:60rem;margin:2rem auto}" +
		"table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:.25rem .5rem}</style>\n")
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
