package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/lorecheck/internal/content"
	"github.com/aidanlsb/lorecheck/internal/history"
	"github.com/aidanlsb/lorecheck/internal/logging"
	"github.com/aidanlsb/lorecheck/internal/orchestrator"
	"github.com/aidanlsb/lorecheck/internal/report"
	"github.com/aidanlsb/lorecheck/internal/schema"
	"github.com/aidanlsb/lorecheck/internal/snapshot"
	"github.com/aidanlsb/lorecheck/internal/suite"
	"github.com/aidanlsb/lorecheck/internal/ui"
)

var (
	checkSerial      bool
	checkConcurrency int
	checkTimeout     time.Duration
	checkReport      bool
	checkReportDir   string
	checkReportLabel string
	checkHTML        bool
	checkOnly        []string
	checkSkip        []string
	checkQuality     bool
	checkNoHistory   bool
	checkFormat      outputFormat
	checkMinScore    float64
	checkFuzzyUsage  bool
	checkMaxIssues   int
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the validator suite (the default command)",
	Long: `Run every enabled validator over one snapshot of the content root.

Validators run in batches of --concurrency (default 3) or one at a time with
--serial. Each validator is bounded by --timeout. The exit code is 1 when any
validator failed.

Examples:
  lorecheck check
  lorecheck check --serial --quality
  lorecheck check --only references,identity
  lorecheck check --report --html --report-label nightly
  lorecheck check --format markdown > report.md`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	addCheckFlags(checkCmd)
	rootCmd.AddCommand(checkCmd)
}

// addCheckFlags registers the check flags. The root command carries them
// too, since running lorecheck bare runs the check.
func addCheckFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&checkSerial, "serial", false, "Run validators one at a time")
	f.IntVar(&checkConcurrency, "concurrency", 0, "Validators per batch (default from config, 3)")
	f.DurationVar(&checkTimeout, "timeout", 0, "Per-validator timeout, e.g. 10s (default from config, 30s)")
	f.BoolVar(&checkReport, "report", false, "Write JSON and Markdown report artifacts")
	f.StringVar(&checkReportDir, "report-dir", "", "Directory for report artifacts (default .lorecheck/reports)")
	f.StringVar(&checkReportLabel, "report-label", "", "Label appended to artifact file names")
	f.BoolVar(&checkHTML, "html", false, "Also write an HTML report (implies --report)")
	f.StringSliceVar(&checkOnly, "only", nil, "Run only these validators")
	f.StringSliceVar(&checkSkip, "skip", nil, "Skip these validators")
	f.BoolVar(&checkQuality, "quality", false, "Show the quality table")
	f.BoolVar(&checkNoHistory, "no-history", false, "Do not record the run in history")
	f.Var(&checkFormat, "format", "Output format: console, json, markdown")
	f.Float64Var(&checkMinScore, "min-score", 0, "Fail quality when a type scores below this")
	f.BoolVar(&checkFuzzyUsage, "fuzzy-usage", false, "Count free-text mentions when ranking entities")
	f.IntVar(&checkMaxIssues, "max-issues", 0, "Issues listed per validator in console output (0 = all)")
}

// runSettings is the merged flag/config view for one run.
type runSettings struct {
	serial      bool
	concurrency int
	timeout     time.Duration
	minScore    float64
	fuzzyUsage  bool
	enabled     map[string]bool
}

// resolveSettings applies flag > config > default precedence.
func resolveSettings(cmd *cobra.Command) (runSettings, error) {
	s := runSettings{
		serial:      cfg.Run.Serial,
		concurrency: cfg.Run.Concurrency,
		timeout:     cfg.Timeout(),
		minScore:    cfg.Quality.MinScore,
		fuzzyUsage:  cfg.Quality.FuzzyUsage,
	}
	flags := cmd.Flags()
	if flags.Changed("serial") {
		s.serial = checkSerial
	}
	if flags.Changed("concurrency") {
		s.concurrency = max(checkConcurrency, 1)
	}
	if flags.Changed("timeout") {
		if checkTimeout < 0 {
			return s, fmt.Errorf("--timeout must not be negative")
		}
		s.timeout = checkTimeout
	}
	if flags.Changed("min-score") {
		s.minScore = checkMinScore
	}
	if flags.Changed("fuzzy-usage") {
		s.fuzzyUsage = checkFuzzyUsage
	}

	enabled, err := suite.Select(cfg.EnabledValidators(), checkOnly, checkSkip)
	if err != nil {
		return s, err
	}
	s.enabled = enabled
	return s, nil
}

// enabledCount is the number of validators a run will execute.
func (s runSettings) enabledCount() int {
	n := 0
	for _, on := range s.enabled {
		if on {
			n++
		}
	}
	return n
}

// buildSnapshot opens a fresh store and cache and freezes the content root.
func buildSnapshot(ctx context.Context, sch *schema.Schema) (*snapshot.Snapshot, error) {
	store, err := content.Open(cfg.ContentDir(projectRoot), content.Options{
		Include: cfg.Include,
		Exclude: cfg.Exclude,
		Cache:   content.NewCache(),
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	snap, err := snapshot.Build(ctx, store, sch)
	if err != nil {
		return nil, err
	}
	stats := store.Cache().Stats()
	logger.Debug("snapshot built", "documents", len(snap.DocumentNames()),
		"fingerprint", snap.Fingerprint, "cache", fmt.Sprintf("%+v", stats))
	return snap, nil
}

// executeRun builds a snapshot and runs the suite once. observer may be nil.
func executeRun(ctx context.Context, sch *schema.Schema, s runSettings, observer orchestrator.Observer) (*report.Run, error) {
	snap, err := buildSnapshot(ctx, sch)
	if err != nil {
		return nil, err
	}

	opts := []orchestrator.Option{
		orchestrator.WithConcurrency(s.concurrency),
		orchestrator.WithTimeout(s.timeout),
		orchestrator.WithLogger(logger),
	}
	if s.serial {
		opts = append(opts, orchestrator.WithSerial())
	}
	if observer != nil {
		opts = append(opts, orchestrator.WithObserver(observer))
	}
	orch, err := suite.New(suite.Options{
		MinScore:   s.minScore,
		FuzzyUsage: s.fuzzyUsage,
		Enabled:    s.enabled,
	}, opts...)
	if err != nil {
		return nil, err
	}

	rep, err := orch.Run(ctx, snap)
	if err != nil {
		return nil, err
	}
	return report.NewRun(projectRoot, snap.Fingerprint, rep), nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	sch, err := loadSchema(cmd)
	if err != nil {
		return err
	}
	settings, err := resolveSettings(cmd)
	if err != nil {
		code := ErrInvalidInput
		if errors.Is(err, suite.ErrUnknownValidator) {
			code = ErrValidatorNotFound
		}
		return handleError(cmd.OutOrStdout(), code, err, "Run 'lorecheck validators' to list validator names")
	}

	run, err := checkOnce(cmd, sch, settings)
	if err != nil {
		return err
	}
	if !run.Report.Summary.IsValid {
		return errValidationFailed
	}
	return nil
}

func selectedFormat() outputFormat {
	if isJSONOutput() {
		return formatJSON
	}
	if checkFormat == "" {
		return formatConsole
	}
	return checkFormat
}

// checkOnce runs the suite and handles every output of the run: rendering,
// history and artifacts.
func checkOnce(cmd *cobra.Command, sch *schema.Schema, settings runSettings) (*report.Run, error) {
	out := cmd.OutOrStdout()
	format := selectedFormat()

	var progress *ui.Progress
	var observer orchestrator.Observer
	if format == formatConsole && !quiet {
		progress = ui.NewProgress(cmd.ErrOrStderr(), ui.NewDisplayContext(os.Stderr), settings.enabledCount())
		observer = func(e orchestrator.Event) {
			if e.Validator != nil {
				progress.Settle()
				return
			}
			progress.SetStatus(e.State.String())
		}
		progress.Start()
	}

	run, err := executeRun(cmd.Context(), sch, settings, observer)
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return nil, handleError(out, ErrInternal, err, "")
	}
	ctx := logging.WithRunID(cmd.Context(), run.ID)
	log := logging.FromContext(ctx, logger)
	log.Info("run finished", "status", run.Status(), "mode", run.Report.Mode,
		"duration_ms", run.Report.Summary.DurationMs)

	if err := renderRun(out, run, format); err != nil {
		return nil, handleError(out, ErrInternal, err, "")
	}

	if !checkNoHistory {
		if err := recordHistory(ctx, run); err != nil {
			log.Warn("failed to record run history", "error", err)
		}
	}

	if checkReport || checkHTML || cmd.Flags().Changed("report-dir") {
		if err := writeArtifacts(cmd.ErrOrStderr(), run); err != nil {
			return nil, handleError(out, ErrFileWriteError, err, "")
		}
	}
	return run, nil
}

func renderRun(w io.Writer, run *report.Run, format outputFormat) error {
	switch format {
	case formatJSON:
		data, err := report.JSON(run)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case formatMarkdown:
		_, err := w.Write(report.Markdown(run))
		return err
	default:
		display := ui.NewDisplayContext(os.Stdout)
		report.Console(w, run, display, report.ConsoleOptions{
			Quality:   checkQuality,
			MaxIssues: checkMaxIssues,
		})
		return nil
	}
}

func recordHistory(ctx context.Context, run *report.Run) error {
	db, err := history.Open(projectRoot)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Record(ctx, run)
}

func writeArtifacts(w io.Writer, run *report.Run) error {
	dir := cfg.ReportPath(projectRoot)
	if checkReportDir != "" {
		dir = checkReportDir
	}
	paths, err := report.WriteArtifacts(dir, run, report.ArtifactOptions{
		HTML:  checkHTML,
		Label: checkReportLabel,
	})
	if err != nil {
		return err
	}
	if !isJSONOutput() && !quiet {
		for _, p := range paths {
			fmt.Fprintln(w, ui.Hint("wrote "+p))
		}
	}
	return nil
}
