package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/lorecheck/internal/content"
	"github.com/aidanlsb/lorecheck/internal/schema"
	"github.com/aidanlsb/lorecheck/internal/testutil"
)

func build(t *testing.T, root *testutil.TestContent) *Snapshot {
	t.Helper()
	s, err := schema.Load(root.Path)
	require.NoError(t, err)
	store, err := content.Open(root.Path, content.Options{})
	require.NoError(t, err)
	snap, err := Build(context.Background(), store, s)
	require.NoError(t, err)
	return snap
}

func TestBuild(t *testing.T) {
	root := testutil.NewTestContent(t).
		WithDocuments(testutil.ScenarioDocuments()).
		WithDocument("extra/notes", `{"anything": true}`).
		WithDocument("themes", `{"themes": [`).
		Build()

	snap := build(t, root)

	assert.Equal(t, []string{"characters", "extra/notes", "poems", "scenes"}, snap.DocumentNames())
	assert.Len(t, snap.Collections.Entities("poem"), 3)
	assert.True(t, snap.Index.Exists("character", "C2"))
	assert.NotEmpty(t, snap.Fingerprint)

	// Declared-but-absent documents are missing; a corrupt one still exists.
	assert.False(t, snap.HasDocument("terminology"))
	assert.True(t, snap.HasDocument("themes"))
	assert.True(t, snap.HasDocument("extra/notes"))

	err, ok := snap.LoadError("terminology")
	require.True(t, ok)
	assert.True(t, content.IsMissing(err))

	err, ok = snap.LoadError("themes")
	require.True(t, ok)
	assert.False(t, content.IsMissing(err))
	assert.ErrorIs(t, err, content.ErrDataLoad)

	// themes (corrupt) plus the four absent optional documents.
	assert.Len(t, snap.LoadErrors(), 5)
}

func TestFingerprintTracksContent(t *testing.T) {
	root := testutil.NewTestContent(t).
		WithDocuments(testutil.CleanDocuments()).
		Build()

	first := build(t, root)
	second := build(t, root)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)

	root.WriteDocument("scenes", `{"scenes": []}`)
	third := build(t, root)
	assert.NotEqual(t, first.Fingerprint, third.Fingerprint)
}

func TestDocumentsIsACopy(t *testing.T) {
	root := testutil.NewTestContent(t).
		WithDocuments(testutil.CleanDocuments()).
		Build()
	snap := build(t, root)

	docs := snap.Documents()
	delete(docs, "poems")

	_, ok := snap.Document("poems")
	assert.True(t, ok)
}
