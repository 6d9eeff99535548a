package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/lorecheck/internal/config"
	"github.com/aidanlsb/lorecheck/internal/logging"
	"github.com/aidanlsb/lorecheck/internal/schema"
	"github.com/aidanlsb/lorecheck/internal/ui"
)

var (
	rootFlag   string
	configFlag string
	verbose    bool
	quiet      bool

	// Loaded in PersistentPreRunE and shared by every command.
	projectRoot string
	cfg         *config.Config
	logger      *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lorecheck",
	Short: "Certify a content root of JSON documents",
	Long: `lorecheck validates a content root of interlinked JSON documents.

It loads every document, extracts the entities declared in lorecheck.yaml,
and runs a suite of validators over one frozen snapshot: document loading,
identity, references, controlled redundancy and quality scoring.

Running lorecheck with no subcommand runs the check suite. The exit code is
0 only when no validator failed.`,
	Args:              cobra.NoArgs,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runCheck,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "Project root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file (default: <root>/lorecheck.toml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug detail to stderr")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	addCheckFlags(rootCmd)
}

// setup resolves the project root, loads the config and configures logging
// and the terminal theme.
func setup(cmd *cobra.Command, args []string) error {
	logger = logging.New(cmd.ErrOrStderr(), logging.LevelFor(verbose, quiet))

	root, err := resolveRoot(rootFlag)
	if err != nil {
		return handleError(cmd.OutOrStdout(), ErrRootNotFound, err, "Pass --root with an existing directory")
	}
	projectRoot = root

	loaded, err := config.Load(root, configFlag)
	if err != nil {
		return handleError(cmd.OutOrStdout(), ErrConfigInvalid, err, "Check "+config.ResolvePath(root, configFlag))
	}
	cfg = loaded
	ui.ConfigureTheme(cfg.UI.Accent)
	ui.ConfigureCodeTheme(cfg.UI.CodeTheme)

	logger.Debug("config loaded", "root", root, "content", cfg.ContentDir(root))
	return nil
}

func resolveRoot(flag string) (string, error) {
	root := flag
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("root not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("root is not a directory: %s", abs)
	}
	return abs, nil
}

// loadSchema loads and validates lorecheck.yaml from the content directory.
func loadSchema(cmd *cobra.Command) (*schema.Schema, error) {
	s, err := schema.Load(cfg.ContentDir(projectRoot))
	if err != nil {
		return nil, handleError(cmd.OutOrStdout(), ErrSchemaInvalid, err, "Fix lorecheck.yaml or run 'lorecheck schema init'")
	}
	return s, nil
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !isSilent(err) {
		fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
	}
	return err
}
