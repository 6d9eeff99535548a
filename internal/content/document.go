package content

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
)

// Document is a parsed JSON document. A Document is immutable once loaded;
// callers must not modify Data.
type Document struct {
	// Name is the logical document name ("poems", "framework/core").
	Name string
	// Path is the absolute file path the document was read from.
	Path string
	// Data is the decoded JSON value. Numbers decode as json.Number.
	Data any
	// Size is the raw byte length.
	Size int
	// Hash is the hex blake3 digest of the raw bytes.
	Hash string
}

// Parse decodes raw JSON bytes into a Document.
func Parse(name string, raw []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, err
	}
	// Trailing content after the first value is corrupt input.
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected trailing data")
	}

	sum := blake3.Sum256(raw)
	return &Document{
		Name: name,
		Data: data,
		Size: len(raw),
		Hash: hex.EncodeToString(sum[:]),
	}, nil
}

// Root returns the top-level object, or nil when the document is not an object.
func (d *Document) Root() map[string]any {
	m, _ := d.Data.(map[string]any)
	return m
}

// Lookup walks a dotted path inside the document. See Walk for syntax.
func (d *Document) Lookup(path string) []any {
	return Walk(d.Data, SplitPath(path))
}

// LookupOne returns the first value at path.
func (d *Document) LookupOne(path string) (any, bool) {
	matches := d.Lookup(path)
	if len(matches) == 0 {
		return nil, false
	}
	return matches[0], true
}
