package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/lorecheck/internal/schema"
	"github.com/aidanlsb/lorecheck/internal/ui"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the effective validation schema",
	Long: `Print the schema in effect as YAML: lorecheck.yaml from the content
root, or the built-in defaults when the file does not exist.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		sch, err := loadSchema(cmd)
		if err != nil {
			return err
		}
		data, err := schema.Marshal(sch)
		if err != nil {
			return handleError(out, ErrInternal, err, "")
		}

		path := filepath.Join(cfg.ContentDir(projectRoot), schema.FileName)
		_, statErr := os.Stat(path)
		builtin := errors.Is(statErr, os.ErrNotExist)

		if isJSONOutput() {
			outputSuccess(out, map[string]any{
				"path":    path,
				"builtin": builtin,
				"types":   sch.EntityTypes(),
				"yaml":    string(data),
			}, nil)
			return nil
		}
		if builtin {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.Hint("# built-in schema; run 'lorecheck schema init' to customize"))
		}
		_, err = out.Write(data)
		return err
	},
}

var schemaInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default lorecheck.yaml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		path, err := writeDefaultSchema()
		if err != nil {
			code := ErrFileWriteError
			if path != "" {
				code = ErrFileExists
			}
			return handleError(out, code, err, "")
		}
		if isJSONOutput() {
			outputSuccess(out, map[string]any{"path": path}, nil)
			return nil
		}
		fmt.Fprintln(out, ui.Successf("Created %s", path))
		return nil
	},
}

func writeDefaultSchema() (string, error) {
	dir := cfg.ContentDir(projectRoot)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create content directory: %w", err)
	}
	return schema.CreateDefault(dir)
}

func init() {
	schemaCmd.AddCommand(schemaInitCmd)
	rootCmd.AddCommand(schemaCmd)
}
