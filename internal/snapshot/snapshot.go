// Package snapshot freezes one validation run's view of a content root:
// loaded documents, extracted entities and the reference index.
package snapshot

import (
	"context"
	"encoding/hex"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/zeebo/blake3"

	"github.com/aidanlsb/lorecheck/internal/content"
	"github.com/aidanlsb/lorecheck/internal/extract"
	"github.com/aidanlsb/lorecheck/internal/resolver"
	"github.com/aidanlsb/lorecheck/internal/schema"
)

// Snapshot is immutable after Build. Validators read it concurrently and
// must never modify documents, entities or the index.
type Snapshot struct {
	Root        string
	Schema      *schema.Schema
	Collections *extract.Collections
	Index       *resolver.Index
	// Fingerprint is a blake3 digest over document names and content
	// hashes. Two snapshots of identical content share a fingerprint.
	Fingerprint string
	BuiltAt     time.Time

	documents  map[string]*content.Document
	loadErrors map[string]error
}

// Build loads every document named by the schema plus every discovered
// document, then extracts and indexes entities. Individual load failures
// are recorded, not returned; only discovery and schema problems fail the
// build.
func Build(ctx context.Context, store *content.Store, s *schema.Schema) (*Snapshot, error) {
	discovered, err := store.Discover(ctx)
	if err != nil {
		return nil, err
	}

	loadErrors := make(map[string]error)
	seen := make(map[string]bool)
	var names []string
	for _, name := range discovered {
		seen[name] = true
		names = append(names, name)
	}
	for _, name := range s.Documents() {
		if seen[name] {
			continue
		}
		seen[name] = true
		// Declared but absent documents are recorded without a load
		// attempt; whether that matters depends on the declaration.
		if !store.Exists(name) {
			loadErrors[name] = &content.LoadError{Name: name, Kind: content.LoadMissing, Err: fs.ErrNotExist}
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	docs, errs := store.LoadMany(ctx, names)
	for name, err := range errs {
		loadErrors[name] = err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalizer, err := resolver.NewNormalizer(s.Normalization)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrSchemaInvalid, err)
	}

	cols := extract.Extract(docs, s)
	return &Snapshot{
		Root:        store.Root(),
		Schema:      s,
		Collections: cols,
		Index:       resolver.Build(cols, normalizer),
		Fingerprint: fingerprint(docs),
		BuiltAt:     time.Now(),
		documents:   docs,
		loadErrors:  loadErrors,
	}, nil
}

func fingerprint(docs map[string]*content.Document) string {
	names := make([]string, 0, len(docs))
	for name, doc := range docs {
		if doc != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	h := blake3.New()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(docs[name].Hash))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Document returns a loaded document.
func (s *Snapshot) Document(name string) (*content.Document, bool) {
	doc := s.documents[name]
	return doc, doc != nil
}

// HasDocument reports whether a document exists in the content root, even
// if it failed to parse.
func (s *Snapshot) HasDocument(name string) bool {
	if s.documents[name] != nil {
		return true
	}
	err, failed := s.loadErrors[name]
	return failed && !content.IsMissing(err)
}

// Documents returns the loaded documents keyed by name. Failed documents
// are absent. The returned map is a copy.
func (s *Snapshot) Documents() map[string]*content.Document {
	out := make(map[string]*content.Document, len(s.documents))
	for name, doc := range s.documents {
		if doc != nil {
			out[name] = doc
		}
	}
	return out
}

// DocumentNames returns the names of loaded documents, sorted.
func (s *Snapshot) DocumentNames() []string {
	names := make([]string, 0, len(s.documents))
	for name, doc := range s.documents {
		if doc != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// LoadErrors returns the failed documents and their errors, sorted by name.
func (s *Snapshot) LoadErrors() []error {
	names := make([]string, 0, len(s.loadErrors))
	for name := range s.loadErrors {
		names = append(names, name)
	}
	sort.Strings(names)

	errs := make([]error, 0, len(names))
	for _, name := range names {
		errs = append(errs, s.loadErrors[name])
	}
	return errs
}

// LoadError returns the load failure of a document, if any.
func (s *Snapshot) LoadError(name string) (error, bool) {
	err, ok := s.loadErrors[name]
	return err, ok
}
