package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/lorecheck/internal/quality"
	"github.com/aidanlsb/lorecheck/internal/report"
	"github.com/aidanlsb/lorecheck/internal/ui"
)

var qualityFuzzy bool

var qualityCmd = &cobra.Command{
	Use:   "quality [type]",
	Short: "Show per-type quality scores",
	Long: `Score entity quality without running the rest of the suite.

With no argument, prints one row per entity type. With a type, prints its
field distributions, missing required fields and top-ranked entities.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuality,
}

func runQuality(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	sch, err := loadSchema(cmd)
	if err != nil {
		return err
	}
	snap, err := buildSnapshot(cmd.Context(), sch)
	if err != nil {
		return handleError(out, ErrInternal, err, "")
	}

	fuzzy := cfg.Quality.FuzzyUsage
	if cmd.Flags().Changed("fuzzy-usage") {
		fuzzy = qualityFuzzy
	}
	q := quality.Score(snap, quality.Options{FuzzyUsage: fuzzy})

	if len(args) == 0 {
		if isJSONOutput() {
			outputSuccess(out, q, &Meta{Count: len(q.Types)})
			return nil
		}
		display := ui.NewDisplayContext(os.Stdout)
		fmt.Fprintln(out, report.QualityTable(&q, display).Render())
		fmt.Fprintln(out, ui.Hint(fmt.Sprintf("overall score %.2f", q.Overall)))
		return nil
	}

	typeName := args[0]
	stats, ok := q.Lookup(typeName)
	if !ok {
		return handleErrorMsg(out, ErrTypeNotFound,
			fmt.Sprintf("unknown entity type %q", typeName),
			"Known types: "+strings.Join(sch.EntityTypes(), ", "))
	}
	if isJSONOutput() {
		outputSuccess(out, stats, nil)
		return nil
	}
	writeTypeStats(cmd, stats)
	return nil
}

func writeTypeStats(cmd *cobra.Command, s quality.Stats) {
	out := cmd.OutOrStdout()
	display := ui.NewDisplayContext(os.Stdout)

	fmt.Fprintf(out, "%s %s\n", ui.Header(s.Type), ui.Hint(fmt.Sprintf("score %.2f", s.Score)))
	fmt.Fprintf(out, "  %d valid of %d, coverage %.2f, completeness %.2f, consistency %.2f\n",
		s.Valid, s.Total, s.Coverage, s.Completeness, s.Consistency)

	if len(s.MissingRequired) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, ui.Header("Missing required fields"))
		for _, field := range sortedKeys(s.MissingRequired) {
			fmt.Fprintf(out, "  %s %s\n", field, ui.Hint(ui.Count(s.MissingRequired[field], "entity", "entities")))
		}
	}

	for _, field := range sortedKeys(s.Distribution) {
		fmt.Fprintln(out)
		fmt.Fprintln(out, ui.Header("Distribution of "+field))
		buckets := s.Distribution[field]
		for _, bucket := range sortedKeys(buckets) {
			fmt.Fprintf(out, "  %-20s %d\n", bucket, buckets[bucket])
		}
	}

	if len(s.Top) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, ui.Header("Top"))
		t := ui.NewTable(display,
			ui.Column{Header: "ID"},
			ui.Column{Header: "TITLE", MaxWidth: 40},
			ui.Column{Header: "VALUE", Align: ui.AlignRight},
			ui.Column{Header: "BY"},
		)
		for _, r := range s.Top {
			t.AddRow(r.ID, r.Title, strconv.FormatFloat(r.Value, 'f', -1, 64), r.Source)
		}
		fmt.Fprintln(out, t.Render())
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	qualityCmd.Flags().BoolVar(&qualityFuzzy, "fuzzy-usage", false, "Count free-text mentions when ranking entities")
	rootCmd.AddCommand(qualityCmd)
}
