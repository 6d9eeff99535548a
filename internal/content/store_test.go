package content

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aidanlsb/lorecheck/internal/testutil"
)

func TestStoreLoad(t *testing.T) {
	root := testutil.NewTestContent(t).
		WithDocument("poems", `{"poems": [{"id": "P1"}]}`).
		WithDocument("framework/core", `{"version": "1.0"}`).
		WithDocument("broken", `{"poems": [`).
		Build()

	store, err := Open(root.Path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()

	t.Run("loads a document", func(t *testing.T) {
		doc, err := store.Load(ctx, "poems")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if doc.Name != "poems" || doc.Hash == "" || doc.Size == 0 {
			t.Errorf("unexpected document metadata: %+v", doc)
		}
		if got := doc.Lookup("poems.0.id"); len(got) != 1 || got[0] != "P1" {
			t.Errorf("unexpected lookup result: %v", got)
		}
	})

	t.Run("nested names", func(t *testing.T) {
		doc, err := store.Load(ctx, "framework/core")
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if v, ok := doc.LookupOne("version"); !ok || v != "1.0" {
			t.Errorf("unexpected version %v", v)
		}
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := store.Load(ctx, "nope")
		var loadErr *LoadError
		if !errors.As(err, &loadErr) || loadErr.Kind != LoadMissing {
			t.Fatalf("expected missing LoadError, got %v", err)
		}
		if !errors.Is(err, ErrDataLoad) {
			t.Error("LoadError should match ErrDataLoad")
		}
	})

	t.Run("corrupt document", func(t *testing.T) {
		_, err := store.Load(ctx, "broken")
		var loadErr *LoadError
		if !errors.As(err, &loadErr) || loadErr.Kind != LoadCorrupt {
			t.Fatalf("expected corrupt LoadError, got %v", err)
		}
	})

	t.Run("names cannot escape the root", func(t *testing.T) {
		_, err := store.Load(ctx, "../outside")
		if !errors.Is(err, ErrOutsideRoot) {
			t.Fatalf("expected ErrOutsideRoot, got %v", err)
		}
	})
}

func TestStoreLoadManyToleratesFailures(t *testing.T) {
	root := testutil.NewTestContent(t).
		WithDocument("poems", `{"poems": []}`).
		WithDocument("broken", `not json`).
		Build()

	store, err := Open(root.Path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	docs, errs := store.LoadMany(context.Background(), []string{"poems", "broken", "missing"})
	if len(docs) != 3 {
		t.Fatalf("expected 3 keys, got %d", len(docs))
	}
	if docs["poems"] == nil {
		t.Error("expected poems to load")
	}
	if docs["broken"] != nil || docs["missing"] != nil {
		t.Error("failed documents should map to nil")
	}
	if len(errs) != 2 {
		t.Errorf("expected 2 load errors, got %v", errs)
	}
}

func TestStoreCache(t *testing.T) {
	root := testutil.NewTestContent(t).
		WithDocument("poems", `{"poems": [{"id": "P1"}]}`).
		Build()

	cache := NewCache()
	store, err := Open(root.Path, Options{Cache: cache})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()

	first, err := store.Load(ctx, "poems")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Changing the file does not affect a cached read.
	root.WriteDocument("poems", `{"poems": []}`)
	second, err := store.Load(ctx, "poems")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first != second {
		t.Error("expected cached document on second load")
	}
	if stats := cache.Stats(); stats.Hits != 1 || stats.Entries != 1 {
		t.Errorf("unexpected cache stats: %+v", stats)
	}

	store.ClearCache()
	third, err := store.Load(ctx, "poems")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if third == first {
		t.Error("expected a fresh document after ClearCache")
	}
	if len(third.Lookup("poems.*")) != 0 {
		t.Error("expected the rewritten document")
	}
}

func TestStoreDiscover(t *testing.T) {
	root := testutil.NewTestContent(t).
		WithDocument("poems", `{}`).
		WithDocument("framework/core", `{}`).
		WithDocument("drafts/wip", `{}`).
		WithFile("notes.txt", "not a document").
		WithFile(".lorecheck/reports/old.json", `{}`).
		Build()

	store, err := Open(root.Path, Options{Exclude: []string{"drafts/**"}})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	names, err := store.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{"framework/core", "poems"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("got %v, want %v", names, want)
		}
	}
}

func TestOpenRejectsBadRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.json")
	if err := os.WriteFile(file, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(filepath.Join(dir, "missing"), Options{}); err == nil {
		t.Error("expected error for missing root")
	}
	if _, err := Open(file, Options{}); err == nil {
		t.Error("expected error for file root")
	}
	if _, err := Open(dir, Options{Include: []string{"[invalid"}}); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestNameFor(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	name, ok := store.NameFor(filepath.Join(dir, "framework", "core.json"))
	if !ok || name != "framework/core" {
		t.Errorf("got %q (%v)", name, ok)
	}
	if _, ok := store.NameFor(filepath.Join(dir, "notes.txt")); ok {
		t.Error("non-json file should not map to a document name")
	}
}
