package suite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/lorecheck/internal/issue"
	"github.com/aidanlsb/lorecheck/internal/orchestrator"
	"github.com/aidanlsb/lorecheck/internal/snapshot"
	"github.com/aidanlsb/lorecheck/internal/snapshot/snapshottest"
	"github.com/aidanlsb/lorecheck/internal/testutil"
)

func run(t *testing.T, snap *snapshot.Snapshot, opts Options, orchOpts ...orchestrator.Option) *orchestrator.Report {
	t.Helper()
	o, err := New(opts, orchOpts...)
	require.NoError(t, err)
	report, err := o.Run(context.Background(), snap)
	require.NoError(t, err)
	return report
}

func TestScenarioEndToEnd(t *testing.T) {
	snap := snapshottest.Build(t, testutil.ScenarioDocuments(), "")

	for _, orchOpts := range [][]orchestrator.Option{
		{orchestrator.WithSerial()},
		{orchestrator.WithConcurrency(2)},
		{orchestrator.WithConcurrency(5)},
	} {
		report := run(t, snap, Options{}, orchOpts...)

		assert.Equal(t, Names(), func() []string {
			var names []string
			for _, v := range report.Validators {
				names = append(names, v.Name)
			}
			return names
		}())
		assert.Equal(t, 5, report.Summary.Total)
		assert.Equal(t, 4, report.Summary.Passed)
		assert.Equal(t, 1, report.Summary.Failed)
		assert.False(t, report.Summary.IsValid)

		refs, ok := report.Validator(References)
		require.True(t, ok)
		assert.False(t, refs.IsValid)
		assert.Equal(t, []string{"unresolved character C_unknown referenced by P2"}, issue.Messages(refs.Issues))
		assert.Zero(t, report.Summary.Warnings)
	}
}

func TestCleanFixturePasses(t *testing.T) {
	snap := snapshottest.Build(t, testutil.CleanDocuments(), "")
	report := run(t, snap, Options{})

	assert.True(t, report.Summary.IsValid)
	assert.Equal(t, 5, report.Summary.Passed)
	assert.Zero(t, report.Summary.Errors)

	docs, _ := report.Validator(Documents)
	status, ok := docs.Details.(DocumentStatus)
	require.True(t, ok)
	assert.Equal(t, []string{"characters", "poems", "scenes"}, status.Loaded)
	assert.Contains(t, status.Missing, "themes")
}

func TestDocumentsValidator(t *testing.T) {
	t.Run("missing required document fails", func(t *testing.T) {
		docs := testutil.CleanDocuments()
		delete(docs, "poems")
		snap := snapshottest.Build(t, docs, "")

		res, err := validateDocuments(context.Background(), snap)
		require.NoError(t, err)
		assert.False(t, res.IsValid)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, issue.DataLoad, res.Errors[0].Kind)
		assert.Equal(t, "poems", res.Errors[0].Document)
		assert.Equal(t, `required document "poems" not found`, res.Errors[0].Message)
	})

	t.Run("corrupt optional document warns", func(t *testing.T) {
		docs := testutil.CleanDocuments()
		docs["themes"] = `{"themes": [`
		snap := snapshottest.Build(t, docs, "")

		res, err := validateDocuments(context.Background(), snap)
		require.NoError(t, err)
		assert.True(t, res.IsValid)
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, "themes", res.Warnings[0].Document)
		assert.Equal(t, []string{"themes"}, res.Details.(DocumentStatus).Corrupt)
	})
}

func TestIdentityValidator(t *testing.T) {
	docs := testutil.CleanDocuments()
	docs["scenes"] = `{"scenes": [
    {"id": "S1", "name": "Moonlit courtyard", "poem_id": "P1"},
    {"id": "S1", "name": "Second courtyard", "poem_id": "P2"},
    {"name": "Nameless", "poem_id": "P3"}
  ]}`
	snap := snapshottest.Build(t, docs, "")

	res, err := validateIdentity(context.Background(), snap)
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Equal(t, 1, res.CountsByKind[issue.DuplicateID])
	assert.Equal(t, 1, res.CountsByKind[issue.MissingID])
	assert.Contains(t, issue.Messages(res.Errors), "duplicate scene id S1 at positions 0, 1 in scenes")

	counts := res.Details.(map[string]int)
	assert.Equal(t, 3, counts["poem"])
	assert.Equal(t, 2, counts["character"])
}

func TestQualityThresholdFailsRun(t *testing.T) {
	snap := snapshottest.Build(t, testutil.CleanDocuments(), "")

	report := run(t, snap, Options{MinScore: 99})
	q, _ := report.Validator(Quality)
	assert.False(t, q.IsValid)
	assert.Positive(t, q.CountsByKind[issue.QualityThreshold])

	report = run(t, snap, Options{MinScore: 50})
	q, _ = report.Validator(Quality)
	assert.True(t, q.IsValid)
}

func TestDisabledValidator(t *testing.T) {
	snap := snapshottest.Build(t, testutil.ScenarioDocuments(), "")
	report := run(t, snap, Options{Enabled: map[string]bool{References: false}})

	refs, _ := report.Validator(References)
	assert.True(t, refs.Skipped)
	assert.True(t, report.Summary.IsValid)
	assert.Equal(t, 4, report.Summary.Total)
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name       string
		configured map[string]bool
		only, skip []string
		want       []string
		wantErr    bool
	}{
		{name: "defaults", want: Names()},
		{
			name:       "config disables",
			configured: map[string]bool{Quality: false},
			want:       []string{Documents, Identity, References, Redundancy},
		},
		{
			name:       "only overrides config",
			configured: map[string]bool{Quality: false},
			only:       []string{Quality, References},
			want:       []string{References, Quality},
		},
		{
			name: "skip wins",
			only: []string{Quality, References},
			skip: []string{Quality},
			want: []string{References},
		},
		{name: "unknown only", only: []string{"spelling"}, wantErr: true},
		{name: "unknown config", configured: map[string]bool{"spelling": true}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Select(tt.configured, tt.only, tt.skip)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownValidator)
				return
			}
			require.NoError(t, err)

			var enabled []string
			for _, name := range Names() {
				if got[name] {
					enabled = append(enabled, name)
				}
			}
			assert.Equal(t, tt.want, enabled)
		})
	}
}
