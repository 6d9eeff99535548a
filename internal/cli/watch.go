package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/lorecheck/internal/config"
	"github.com/aidanlsb/lorecheck/internal/schema"
	"github.com/aidanlsb/lorecheck/internal/ui"
	"github.com/aidanlsb/lorecheck/internal/watcher"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the suite whenever content changes",
	Long: `Watch the project root and re-run the check suite when JSON, YAML or
TOML files change. Changes are debounced; each run reads a fresh snapshot.
lorecheck.toml and lorecheck.yaml are reloaded before every run.

Press Ctrl+C to stop.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	if isJSONOutput() {
		return handleErrorMsg(cmd.OutOrStdout(), ErrInvalidInput, "watch does not support --json", "Use --format json for one report per run")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd.SetContext(ctx)

	rerun := func(ctx context.Context, paths []string) {
		for _, p := range paths {
			logger.Debug("changed", "path", p)
		}
		if err := watchRun(cmd); err != nil && !isSilent(err) {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.Error(err.Error()))
		}
	}

	w, err := watcher.New(watcher.Config{
		Root:          projectRoot,
		DebounceDelay: watchDebounce,
		Logger:        logger,
		OnChange:      rerun,
	})
	if err != nil {
		return err
	}

	rerun(ctx, nil)
	fmt.Fprintln(cmd.ErrOrStderr(), ui.Hint("watching "+projectRoot+" (Ctrl+C to stop)"))

	err = w.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// watchRun reloads config and schema, then runs the suite once.
func watchRun(cmd *cobra.Command) error {
	if loaded, err := config.Load(projectRoot, configFlag); err != nil {
		logger.Warn("keeping previous config", "path", config.ResolvePath(projectRoot, configFlag), "error", err)
	} else {
		cfg = loaded
	}

	sch, err := schema.Load(cfg.ContentDir(projectRoot))
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Join(cfg.ContentDir(projectRoot), schema.FileName), err)
	}
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}

	if selectedFormat() == formatConsole {
		fmt.Fprintln(cmd.OutOrStdout())
		fmt.Fprintln(cmd.OutOrStdout(), ui.Hint(time.Now().Format("15:04:05")))
	}
	_, err = checkOnce(cmd, sch, settings)
	return err
}

func init() {
	addCheckFlags(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "Quiet period before a re-run")
	rootCmd.AddCommand(watchCmd)
}
