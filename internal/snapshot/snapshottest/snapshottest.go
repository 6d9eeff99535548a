// Package snapshottest builds snapshots from in-memory fixtures for tests.
package snapshottest

import (
	"context"
	"testing"

	"github.com/aidanlsb/lorecheck/internal/content"
	"github.com/aidanlsb/lorecheck/internal/schema"
	"github.com/aidanlsb/lorecheck/internal/snapshot"
	"github.com/aidanlsb/lorecheck/internal/testutil"
)

// Build writes docs (and schemaYAML, when non-empty) into a temporary
// content root and returns its snapshot.
func Build(t *testing.T, docs map[string]string, schemaYAML string) *snapshot.Snapshot {
	t.Helper()

	root := testutil.NewTestContent(t).WithDocuments(docs)
	if schemaYAML != "" {
		root.WithSchema(schemaYAML)
	}
	root.Build()

	return FromRoot(t, root.Path)
}

// FromRoot snapshots an existing content root.
func FromRoot(t *testing.T, path string) *snapshot.Snapshot {
	t.Helper()

	s, err := schema.Load(path)
	if err != nil {
		t.Fatalf("failed to load schema: %v", err)
	}
	store, err := content.Open(path, content.Options{Cache: content.NewCache()})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	snap, err := snapshot.Build(context.Background(), store, s)
	if err != nil {
		t.Fatalf("failed to build snapshot: %v", err)
	}
	return snap
}
