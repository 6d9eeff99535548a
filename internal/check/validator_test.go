package check

import (
	"context"
	"strings"
	"testing"

	"github.com/aidanlsb/lorecheck/internal/issue"
	"github.com/aidanlsb/lorecheck/internal/snapshot"
	"github.com/aidanlsb/lorecheck/internal/snapshot/snapshottest"
	"github.com/aidanlsb/lorecheck/internal/testutil"
)

func validate(t *testing.T, snap *snapshot.Snapshot) issue.Result {
	t.Helper()
	res, err := NewValidator(snap).Validate(context.Background())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return res
}

func TestValidatorCleanFixture(t *testing.T) {
	snap := snapshottest.Build(t, testutil.CleanDocuments(), "")

	res := validate(t, snap)
	if !res.IsValid {
		t.Errorf("expected valid, got errors: %v", res.Errors)
	}
	if len(res.Errors) != 0 || len(res.Warnings) != 0 {
		t.Errorf("expected no issues, got %v / %v", res.Errors, res.Warnings)
	}

	summary := res.Details.(Summary)
	if summary.Tokens == 0 || summary.Tokens != summary.Resolved {
		t.Errorf("expected every token to resolve: %+v", summary)
	}
	if summary.ByVia["object-id"] != 1 {
		t.Errorf("expected one embedded-object resolution, got %v", summary.ByVia)
	}
}

func TestValidatorScenario(t *testing.T) {
	snap := snapshottest.Build(t, testutil.ScenarioDocuments(), "")

	res := validate(t, snap)
	if res.IsValid {
		t.Fatal("expected invalid result")
	}
	got := issue.Messages(res.Errors)
	want := []string{"unresolved character C_unknown referenced by P2"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("errors = %q, want %q", got, want)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", res.Warnings)
	}

	e := res.Errors[0]
	if e.Kind != issue.UnresolvedReference || e.EntityID != "P2" || e.Field != "characters" || e.Token != "C_unknown" {
		t.Errorf("unexpected issue location: %+v", e)
	}
	if res.CountsByKind[issue.UnresolvedReference] != 1 {
		t.Errorf("unexpected counts %v", res.CountsByKind)
	}

	missing := res.Details.(Summary).MissingRefs
	if len(missing) != 1 || missing[0].Token != "C_unknown" || missing[0].Sources[0] != "poem P2.characters" {
		t.Errorf("unexpected missing refs %+v", missing)
	}
}

func TestValidatorDanglingReference(t *testing.T) {
	docs := testutil.CleanDocuments()
	docs["characters"] = `{"characters": {"poets": [
  {"id": "C1", "name": "Li Bai", "poems": ["P1"]}
]}}`

	res := validate(t, snapshottest.Build(t, docs, ""))

	if res.IsValid {
		t.Fatal("expected invalid result")
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected exactly one error, got %v", issue.Messages(res.Errors))
	}
	msg := res.Errors[0].Message
	if !strings.Contains(msg, "C2") || !strings.Contains(msg, "P3") {
		t.Errorf("error should name C2 and P3: %q", msg)
	}
}

func TestValidatorCaseDriftedIDIsUnresolved(t *testing.T) {
	docs := testutil.CleanDocuments()
	docs["poems"] = strings.Replace(docs["poems"], `"characters": [],`, `"characters": ["c1"],`, 1)

	res := validate(t, snapshottest.Build(t, docs, ""))

	if res.IsValid {
		t.Fatal("expected invalid result")
	}
	var found bool
	for _, e := range res.Errors {
		if e.Kind == issue.UnresolvedReference && e.EntityID == "P2" && e.Token == "c1" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected unresolved reference for c1 on P2, got %v", issue.Messages(res.Errors))
	}
}

func TestValidatorBidirectionalDrift(t *testing.T) {
	docs := testutil.CleanDocuments()
	docs["characters"] = `{"characters": {
  "poets": [{"id": "C1", "name": "Li Bai", "poems": []}],
  "travellers": [{"id": "C2", "name": "Traveller", "poems": ["P3"]}]
}}`

	res := validate(t, snapshottest.Build(t, docs, ""))
	if !res.IsValid {
		t.Fatalf("bidirectional drift must not invalidate: %v", res.Errors)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %v", issue.Messages(res.Warnings))
	}
	w := res.Warnings[0]
	if w.Kind != issue.BidirectionalMismatch {
		t.Errorf("unexpected kind %s", w.Kind)
	}
	want := "poem P1 lists character C1 in characters, but character C1 does not list P1 in poems"
	if w.Message != want {
		t.Errorf("message = %q, want %q", w.Message, want)
	}

	// Adding the mirror entry back clears the warning.
	res = validate(t, snapshottest.Build(t, testutil.CleanDocuments(), ""))
	if len(res.Warnings) != 0 {
		t.Errorf("expected zero warnings, got %v", issue.Messages(res.Warnings))
	}
}

func TestValidatorSymmetricPair(t *testing.T) {
	schemaYAML := `entities:
  term:
    document: terminology
    path: terms
    title_field: term
    references:
      related_terms: term
bidirectional:
  - source: term.related_terms
    target: term.related_terms
`
	docs := map[string]string{
		"terminology": `{"terms": [
  {"id": "T1", "term": "Yijing", "related_terms": ["T2"]},
  {"id": "T2", "term": "Qing", "related_terms": ["T1", "T3"]},
  {"id": "T3", "term": "Jing"}
]}`,
	}

	res := validate(t, snapshottest.Build(t, docs, schemaYAML))
	if len(res.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", issue.Messages(res.Warnings))
	}
	if !strings.HasPrefix(res.Warnings[0].Message, "term T2 lists term T3") {
		t.Errorf("unexpected warning %q", res.Warnings[0].Message)
	}
}

func TestValidatorOrphans(t *testing.T) {
	docs := testutil.CleanDocuments()
	docs["scenes"] = `{"scenes": [
  {"id": "S1", "name": "Moonlit courtyard", "poem_id": "P1"},
  {"id": "S2", "name": "Empty stage", "poem_id": "P9"}
]}`

	res := validate(t, snapshottest.Build(t, docs, ""))

	kinds := issue.CountByKind(res.Errors)
	if kinds[issue.OrphanReference] != 1 {
		t.Errorf("expected one orphan error, got %v", issue.Messages(res.Errors))
	}
	if kinds[issue.UnresolvedReference] != 1 {
		t.Errorf("expected unresolved poem P9, got %v", issue.Messages(res.Errors))
	}
	for _, e := range res.Errors {
		if e.Kind == issue.OrphanReference && e.Message != "orphan scene S2 is not referenced by poem.locations" {
			t.Errorf("unexpected orphan message %q", e.Message)
		}
	}
}

func TestValidatorExclusiveOrphanRule(t *testing.T) {
	docs := testutil.CleanDocuments()
	docs["poems"] = `{"poems": [
  {"id": "P1", "title": "Quiet Night Thought", "characters": ["C1"], "locations": ["S1"]},
  {"id": "P3", "title": "Climbing Stork Tower", "characters": ["C2"], "locations": ["S1"]}
]}`

	res := validate(t, snapshottest.Build(t, docs, ""))

	var exclusive []issue.Issue
	for _, e := range res.Errors {
		if e.Kind == issue.ExclusiveReference {
			exclusive = append(exclusive, e)
		}
	}
	if len(exclusive) != 1 {
		t.Fatalf("expected one exclusive-reference error, got %v", issue.Messages(res.Errors))
	}
	want := "scene S1 is referenced by 2 entities (poem P1, poem P3), expected exactly one"
	if exclusive[0].Message != want {
		t.Errorf("message = %q, want %q", exclusive[0].Message, want)
	}
}

func TestValidatorAmbiguousTitle(t *testing.T) {
	docs := testutil.CleanDocuments()
	docs["scenes"] = `{"scenes": [
  {"id": "S1", "name": "Moonlit courtyard", "poem_id": "P1", "characters": ["Twin"]}
]}`
	docs["characters"] = `{"characters": {"poets": [
  {"id": "C1", "name": "Twin", "poems": ["P1"]},
  {"id": "C2", "name": "twin!", "poems": ["P3"]}
]}}`

	res := validate(t, snapshottest.Build(t, docs, ""))

	if res.CountsByKind[issue.AmbiguousReference] != 1 {
		t.Fatalf("expected one ambiguous reference, got %v", issue.Messages(res.Errors))
	}
	for _, e := range res.Errors {
		if e.Kind == issue.AmbiguousReference && !strings.Contains(e.Message, "matches: C1, C2") {
			t.Errorf("unexpected message %q", e.Message)
		}
	}
}

func TestValidatorIsDeterministic(t *testing.T) {
	snap := snapshottest.Build(t, testutil.ScenarioDocuments(), "")

	first := validate(t, snap)
	second := validate(t, snap)

	if strings.Join(issue.Messages(first.Errors), "|") != strings.Join(issue.Messages(second.Errors), "|") {
		t.Error("repeated validation produced different errors")
	}
}

func TestValidatorHonorsCancellation(t *testing.T) {
	snap := snapshottest.Build(t, testutil.CleanDocuments(), "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewValidator(snap).Validate(ctx); err == nil {
		t.Fatal("expected context error")
	}
}
