package history

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/aidanlsb/lorecheck/internal/issue"
	"github.com/aidanlsb/lorecheck/internal/orchestrator"
	"github.com/aidanlsb/lorecheck/internal/report"
)

func testRun(id string, started time.Time, valid bool) *report.Run {
	refs := orchestrator.ValidatorReport{Name: "references", IsValid: valid, DurationMs: 3}
	if !valid {
		refs.Issues = []issue.Issue{issue.Errorf(issue.UnresolvedReference, "unresolved")}
	}
	failed := 0
	if !valid {
		failed = 1
	}
	return &report.Run{
		ID:          id,
		Fingerprint: "abc123",
		Report: &orchestrator.Report{
			StartedAt: started,
			Mode:      "batched(3)",
			Validators: []orchestrator.ValidatorReport{
				{Name: "documents", IsValid: true, DurationMs: 1},
				refs,
				{Name: "quality", IsValid: true, Skipped: true},
			},
			Summary: orchestrator.Summary{
				Total: 2, Passed: 2 - failed, Failed: failed, Skipped: 1,
				Errors: failed, DurationMs: 7, IsValid: valid,
			},
		},
	}
}

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndGet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	started := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	if err := db.Record(ctx, testRun("run-1", started, false)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := db.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != "fail" || got.Failed != 1 || got.Errors != 1 || got.Skipped != 1 {
		t.Errorf("unexpected run record: %+v", got)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("expected started %s, got %s", started, got.StartedAt)
	}
	if got.Mode != "batched(3)" || got.Fingerprint != "abc123" {
		t.Errorf("unexpected mode/fingerprint: %q %q", got.Mode, got.Fingerprint)
	}

	if len(got.Validators) != 3 {
		t.Fatalf("expected 3 validator rows, got %d", len(got.Validators))
	}
	wantStatus := []string{"pass", "fail", "skipped"}
	for i, v := range got.Validators {
		if v.Position != i || v.Status != wantStatus[i] {
			t.Errorf("validator %d: got %+v, want status %s", i, v, wantStatus[i])
		}
	}
	if got.Validators[1].Errors != 1 {
		t.Errorf("expected references error count 1, got %d", got.Validators[1].Errors)
	}
}

func TestGetUnknownRun(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Get(context.Background(), "missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestRecentAndPrune(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c", "d"} {
		if err := db.Record(ctx, testRun(id, base.Add(time.Duration(i)*time.Hour), i%2 == 0)); err != nil {
			t.Fatalf("Record %s failed: %v", id, err)
		}
	}

	runs, err := db.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	if len(ids) != 3 || ids[0] != "d" || ids[1] != "c" || ids[2] != "b" {
		t.Fatalf("expected newest first [d c b], got %v", ids)
	}

	removed, err := db.Prune(ctx, 2)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 runs pruned, got %d", removed)
	}
	if _, err := db.Get(ctx, "a"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected run a pruned, got %v", err)
	}

	var orphaned int
	if err := db.db.QueryRow("SELECT COUNT(*) FROM validator_results WHERE run_id = 'a'").Scan(&orphaned); err != nil {
		t.Fatal(err)
	}
	if orphaned != 0 {
		t.Errorf("expected validator rows of pruned runs to cascade, got %d", orphaned)
	}
}

func TestOpenCreatesDataDir(t *testing.T) {
	root := t.TempDir()
	db, err := Open(root)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if err := db.Record(context.Background(), testRun("r", time.Now(), true)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := os.Stat(Path(root)); err != nil {
		t.Fatalf("expected history database at %s: %v", Path(root), err)
	}

	// Reopening keeps the version row valid.
	db2, err := Open(root)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	db2.Close()
}
