package atomicfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileCreatesParents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports", "nested", "out.json")

	if err := WriteFile(path, []byte(`{"ok":true}`), 0); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read back: %v", err)
	}
	if string(got) != `{"ok":true}` {
		t.Errorf("unexpected content %q", got)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected no leftover temp files, got %d entries", len(entries))
	}
}

func TestWriteFileReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.md")
	if err := WriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(path, []byte("new"), 0); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "new" {
		t.Errorf("expected replaced content, got %q", got)
	}
}

func TestWriteSetRollsBack(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("file, not dir"), 0o644); err != nil {
		t.Fatal(err)
	}

	ok := filepath.Join(dir, "a.json")
	bad := filepath.Join(blocker, "b.md")
	_, err := WriteSet(map[string][]byte{ok: []byte("a"), bad: []byte("b")}, 0)
	if err == nil {
		t.Fatal("expected error writing under a regular file")
	}
	if _, statErr := os.Stat(ok); !os.IsNotExist(statErr) {
		t.Errorf("expected %s to be rolled back", ok)
	}
}

func TestWriteSetOrder(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteSet(map[string][]byte{
		filepath.Join(dir, "r.md"):   []byte("md"),
		filepath.Join(dir, "r.json"): []byte("json"),
	}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 || filepath.Base(paths[0]) != "r.json" || filepath.Base(paths[1]) != "r.md" {
		t.Errorf("unexpected paths %v", paths)
	}
}
