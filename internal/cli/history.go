package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/lorecheck/internal/history"
	"github.com/aidanlsb/lorecheck/internal/ui"
)

var (
	historyLimit int
	historyKeep  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs",
	Long: `List runs recorded in .lorecheck/history.db, newest first.

Examples:
  lorecheck history
  lorecheck history --limit 5 --json
  lorecheck history show <run-id>`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		db, err := history.Open(projectRoot)
		if err != nil {
			return handleError(out, ErrDatabaseError, err, "")
		}
		defer db.Close()

		runs, err := db.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return handleError(out, ErrDatabaseError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(out, runs, &Meta{Count: len(runs)})
			return nil
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, ui.Hint("No runs recorded yet."))
			return nil
		}

		t := ui.NewTable(ui.NewDisplayContext(os.Stdout),
			ui.Column{Header: ""},
			ui.Column{Header: "RUN", MaxWidth: 8},
			ui.Column{Header: "STARTED"},
			ui.Column{Header: "MODE"},
			ui.Column{Header: "PASSED", Align: ui.AlignRight},
			ui.Column{Header: "FAILED", Align: ui.AlignRight},
			ui.Column{Header: "ERRORS", Align: ui.AlignRight},
			ui.Column{Header: "DURATION", Align: ui.AlignRight},
		)
		for _, r := range runs {
			t.AddRow(
				ui.StatusSymbol(r.Status == "pass", false, r.Warnings),
				r.ID,
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Mode,
				fmt.Sprint(r.Passed),
				fmt.Sprint(r.Failed),
				fmt.Sprint(r.Errors),
				fmt.Sprintf("%dms", r.DurationMs),
			)
		}
		fmt.Fprintln(out, t.Render())
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		db, err := history.Open(projectRoot)
		if err != nil {
			return handleError(out, ErrDatabaseError, err, "")
		}
		defer db.Close()

		run, err := db.Get(cmd.Context(), args[0])
		if errors.Is(err, history.ErrRunNotFound) {
			return handleError(out, ErrRunNotFound, err, "Run 'lorecheck history' to list run ids")
		}
		if err != nil {
			return handleError(out, ErrDatabaseError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(out, run, nil)
			return nil
		}

		fmt.Fprintf(out, "%s %s\n", ui.Header("Run "+run.ID), ui.Hint(run.StartedAt.Local().Format("2006-01-02 15:04:05")))
		fmt.Fprintf(out, "  %s  %s  %s\n", run.Status, run.Mode, ui.Duration(run.DurationMs))
		fmt.Fprintf(out, "  %s\n\n", ui.Hint("fingerprint "+run.Fingerprint))
		for _, v := range run.Validators {
			symbol := ui.StatusSymbol(v.Status != "fail", v.Status == "skipped", v.Warnings)
			line := fmt.Sprintf("%s %s", symbol, v.Name)
			if counts := ui.ErrorWarningCounts(v.Errors, v.Warnings); counts != "" {
				line += " " + counts
			}
			fmt.Fprintf(out, "  %s %s\n", line, ui.Duration(v.DurationMs))
		}
		return nil
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the most recent runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		db, err := history.Open(projectRoot)
		if err != nil {
			return handleError(out, ErrDatabaseError, err, "")
		}
		defer db.Close()

		removed, err := db.Prune(cmd.Context(), historyKeep)
		if err != nil {
			return handleError(out, ErrDatabaseError, err, "")
		}
		if isJSONOutput() {
			outputSuccess(out, map[string]int{"removed": removed, "kept": historyKeep}, nil)
			return nil
		}
		fmt.Fprintln(out, ui.Successf("Pruned history %s", ui.Count(removed, "run removed", "runs removed")))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum runs to list")
	historyPruneCmd.Flags().IntVar(&historyKeep, "keep", 50, "Runs to keep")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}
