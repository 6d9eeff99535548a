// Package testutil provides reusable helpers for building content roots in tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// TestContent is a temporary content root for tests.
type TestContent struct {
	Path   string
	t      *testing.T
	schema string
	files  map[string]string
}

// NewTestContent creates a new content root builder.
// Call Build() to create the directory.
func NewTestContent(t *testing.T) *TestContent {
	t.Helper()
	return &TestContent{
		t:     t,
		files: make(map[string]string),
	}
}

// WithSchema sets the lorecheck.yaml content.
func (c *TestContent) WithSchema(yaml string) *TestContent {
	c.schema = yaml
	return c
}

// WithDocument adds a JSON document by logical name ("poems", "framework/core").
func (c *TestContent) WithDocument(name, content string) *TestContent {
	c.files[name+".json"] = content
	return c
}

// WithDocuments adds several documents at once.
func (c *TestContent) WithDocuments(docs map[string]string) *TestContent {
	for name, content := range docs {
		c.WithDocument(name, content)
	}
	return c
}

// WithValue adds a document by marshalling a Go value.
func (c *TestContent) WithValue(name string, v any) *TestContent {
	c.t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		c.t.Fatalf("failed to marshal document %s: %v", name, err)
	}
	return c.WithDocument(name, string(data))
}

// WithFile adds an arbitrary file relative to the root.
func (c *TestContent) WithFile(path, content string) *TestContent {
	c.files[path] = content
	return c
}

// Build writes the content root and returns the builder for chaining.
func (c *TestContent) Build() *TestContent {
	c.t.Helper()

	c.Path = c.t.TempDir()

	if c.schema != "" {
		c.writeFile("lorecheck.yaml", c.schema)
	}
	for path, content := range c.files {
		c.writeFile(path, content)
	}

	return c
}

// WriteDocument (re)writes a document after Build.
func (c *TestContent) WriteDocument(name, content string) {
	c.t.Helper()
	c.writeFile(name+".json", content)
}

// RemoveDocument deletes a document after Build.
func (c *TestContent) RemoveDocument(name string) {
	c.t.Helper()
	if err := os.Remove(filepath.Join(c.Path, filepath.FromSlash(name)+".json")); err != nil {
		c.t.Fatalf("failed to remove document %s: %v", name, err)
	}
}

func (c *TestContent) writeFile(relPath, content string) {
	c.t.Helper()
	fullPath := filepath.Join(c.Path, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		c.t.Fatalf("failed to create directory for %s: %v", relPath, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		c.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}
}

// ReadFile reads a file relative to the root.
func (c *TestContent) ReadFile(relPath string) string {
	c.t.Helper()
	data, err := os.ReadFile(filepath.Join(c.Path, filepath.FromSlash(relPath)))
	if err != nil {
		c.t.Fatalf("failed to read file %s: %v", relPath, err)
	}
	return string(data)
}

// FileExists checks if a file exists relative to the root.
func (c *TestContent) FileExists(relPath string) bool {
	c.t.Helper()
	_, err := os.Stat(filepath.Join(c.Path, filepath.FromSlash(relPath)))
	return err == nil
}
