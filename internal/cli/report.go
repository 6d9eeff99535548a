package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/lorecheck/internal/ui"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Work with saved report artifacts",
}

var reportShowCmd = &cobra.Command{
	Use:   "show <file.md>",
	Short: "Render a saved Markdown report in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		data, err := os.ReadFile(args[0])
		if err != nil {
			return handleError(out, ErrFileReadError, err, "Reports are written by 'lorecheck check --report'")
		}

		if isJSONOutput() {
			outputSuccess(out, map[string]any{"path": args[0], "markdown": string(data)}, nil)
			return nil
		}

		display := ui.NewDisplayContext(os.Stdout)
		if !display.IsTTY {
			_, err := out.Write(data)
			return err
		}
		rendered, err := ui.RenderMarkdown(string(data), display.TermWidth)
		if err != nil {
			return handleError(out, ErrInternal, err, "")
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

func init() {
	reportCmd.AddCommand(reportShowCmd)
	rootCmd.AddCommand(reportCmd)
}
