package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/lorecheck/internal/config"
	"github.com/aidanlsb/lorecheck/internal/ui"
)

// InitResult lists what `lorecheck init` wrote or left alone.
type InitResult struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped,omitempty"`
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create lorecheck.toml and lorecheck.yaml",
	Long: `Write a commented lorecheck.toml at the project root and the default
lorecheck.yaml in the content root. Existing files are left unchanged.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		var result InitResult

		path, err := config.CreateDefault(projectRoot)
		switch {
		case err == nil:
			result.Created = append(result.Created, path)
		case path != "":
			result.Skipped = append(result.Skipped, path)
		default:
			return handleError(out, ErrFileWriteError, err, "")
		}

		path, err = writeDefaultSchema()
		switch {
		case err == nil:
			result.Created = append(result.Created, path)
		case path != "":
			result.Skipped = append(result.Skipped, path)
		default:
			return handleError(out, ErrFileWriteError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(out, result, nil)
			return nil
		}
		for _, p := range result.Created {
			fmt.Fprintln(out, ui.Successf("Created %s", p))
		}
		for _, p := range result.Skipped {
			fmt.Fprintln(out, ui.Warning(p+" already exists, left unchanged"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
