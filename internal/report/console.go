package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aidanlsb/lorecheck/internal/issue"
	"github.com/aidanlsb/lorecheck/internal/orchestrator"
	"github.com/aidanlsb/lorecheck/internal/quality"
	"github.com/aidanlsb/lorecheck/internal/ui"
)

// ConsoleOptions tunes the console renderer.
type ConsoleOptions struct {
	// Quality appends the per-type quality table.
	Quality bool
	// MaxIssues caps the issues listed per validator; 0 lists all.
	MaxIssues int
}

// Console writes a human-readable summary of r.
func Console(w io.Writer, r *Run, display *ui.DisplayContext, opts ConsoleOptions) {
	rep := r.Report

	fmt.Fprintf(w, "%s %s\n", ui.Header("lorecheck"), ui.Hint(r.Root+"  "+rep.Mode))
	fmt.Fprintln(w)

	width := 0
	for _, v := range rep.Validators {
		if len(v.Name) > width {
			width = len(v.Name)
		}
	}

	for i := range rep.Validators {
		writeValidator(w, &rep.Validators[i], width, opts.MaxIssues)
	}

	if opts.Quality {
		if q := r.Quality(); q != nil {
			fmt.Fprintln(w)
			fmt.Fprintln(w, ui.Header("Quality"))
			fmt.Fprintln(w, QualityTable(q, display).Render())
			fmt.Fprintln(w, ui.Hint(fmt.Sprintf("overall score %.2f", q.Overall)))
		}
	}

	s := rep.Summary
	fmt.Fprintln(w)
	line := fmt.Sprintf("%d passed, %d failed, %d skipped", s.Passed, s.Failed, s.Skipped)
	if counts := ui.ErrorWarningCounts(s.Errors, s.Warnings); counts != "" {
		line += " " + counts
	}
	if s.IsValid {
		fmt.Fprintf(w, "%s %s\n", ui.Success(line), ui.Duration(s.DurationMs))
	} else {
		fmt.Fprintf(w, "%s %s\n", ui.Error(line), ui.Duration(s.DurationMs))
	}
}

func writeValidator(w io.Writer, v *orchestrator.ValidatorReport, width, maxIssues int) {
	symbol := ui.StatusSymbol(v.IsValid, v.Skipped, len(v.Warnings))
	name := ui.Accent.Render(fmt.Sprintf("%-*s", width, v.Name))

	if v.Skipped {
		fmt.Fprintf(w, "%s %s %s\n", symbol, name, ui.Hint("skipped"))
		return
	}

	line := fmt.Sprintf("%s %s", symbol, name)
	if counts := ui.ErrorWarningCounts(len(v.Issues), len(v.Warnings)); counts != "" {
		line += " " + counts
	}
	fmt.Fprintf(w, "%s %s\n", line, ui.Duration(v.DurationMs))

	listed := 0
	list := func(issues []issue.Issue, symbol string) {
		for _, i := range issues {
			if maxIssues > 0 && listed >= maxIssues {
				return
			}
			fmt.Fprintf(w, "    %s %s %s\n", symbol, i.Message, ui.Hint(string(i.Kind)))
			listed++
		}
	}
	list(v.Issues, ui.SymbolError)
	list(v.Warnings, ui.SymbolWarning)

	if total := len(v.Issues) + len(v.Warnings); listed < total {
		fmt.Fprintf(w, "    %s\n", ui.Hint(fmt.Sprintf("... %d more", total-listed)))
	}
}

// QualityTable builds the per-type quality table.
func QualityTable(q *quality.Report, display *ui.DisplayContext) *ui.Table {
	tbl := ui.NewTable(display,
		ui.Column{Header: "type", Style: ui.Accent},
		ui.Column{Header: "entities", Align: ui.AlignRight},
		ui.Column{Header: "valid", Align: ui.AlignRight},
		ui.Column{Header: "complete", Align: ui.AlignRight},
		ui.Column{Header: "consistency", Align: ui.AlignRight},
		ui.Column{Header: "score", Align: ui.AlignRight},
		ui.Column{Header: "top", MaxWidth: 40, Style: ui.Muted},
	)
	for _, s := range q.Types {
		tbl.AddRow(
			s.Type,
			strconv.Itoa(s.Total),
			strconv.Itoa(s.Valid),
			fmt.Sprintf("%.1f%%", s.Completeness),
			fmt.Sprintf("%.2f", s.Consistency),
			fmt.Sprintf("%.2f", s.Score),
			topIDs(s.Top),
		)
	}
	return tbl
}

func topIDs(top []quality.Ranked) string {
	ids := make([]string, len(top))
	for i, r := range top {
		ids[i] = r.ID
	}
	return strings.Join(ids, ", ")
}
