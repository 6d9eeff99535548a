// Package content loads named JSON documents from a content root.
package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DataDir is the directory under the content root reserved for lorecheck
// state (history, reports). It never contains documents.
const DataDir = ".lorecheck"

// DefaultInclude is the discovery pattern used when none is configured.
var DefaultInclude = []string{"**/*.json"}

// ErrOutsideRoot is returned for document names that escape the content root.
var ErrOutsideRoot = errors.New("document name resolves outside content root")

// Options configures a Store.
type Options struct {
	// Include and Exclude are doublestar patterns matched against
	// slash-separated paths relative to the root.
	Include []string
	Exclude []string

	// Cache enables read-through caching. Nil disables it.
	Cache *Cache

	Logger *slog.Logger
}

// Store resolves logical document names to parsed documents under a root
// directory. The store never writes to the content root.
type Store struct {
	root    string
	include []string
	exclude []string
	cache   *Cache
	logger  *slog.Logger
}

// Open creates a store over root, which must be an existing directory.
func Open(root string, opts Options) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve content root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("content root not found: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content root %s is not a directory", abs)
	}

	for _, pattern := range append(append([]string{}, opts.Include...), opts.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid document pattern %q", pattern)
		}
	}

	include := opts.Include
	if len(include) == 0 {
		include = DefaultInclude
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		root:    abs,
		include: include,
		exclude: opts.Exclude,
		cache:   opts.Cache,
		logger:  logger,
	}, nil
}

// Root returns the absolute content root.
func (s *Store) Root() string {
	return s.root
}

// Cache returns the store's cache (nil when caching is disabled).
func (s *Store) Cache() *Cache {
	return s.cache
}

// Path returns the file path for a document name.
func (s *Store) Path(name string) (string, error) {
	clean := strings.TrimSuffix(strings.TrimSpace(name), ".json")
	if clean == "" {
		return "", fmt.Errorf("empty document name")
	}
	full := filepath.Join(s.root, filepath.FromSlash(clean)+".json")
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return full, nil
}

// NameFor converts an absolute or root-relative file path into a document name.
func (s *Store) NameFor(path string) (string, bool) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil || strings.HasPrefix(rel, "..") || !strings.HasSuffix(rel, ".json") {
		return "", false
	}
	return strings.TrimSuffix(filepath.ToSlash(rel), ".json"), true
}

// Discover lists every document name matched by the include patterns and
// not matched by the exclude patterns, sorted.
func (s *Store) Discover(ctx context.Context) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != s.root && (d.Name() == DataDir || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasSuffix(rel, ".json") || !s.matches(rel) {
			return nil
		}
		names = append(names, strings.TrimSuffix(rel, ".json"))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking content root: %w", err)
	}

	sort.Strings(names)
	return names, nil
}

func (s *Store) matches(rel string) bool {
	included := false
	for _, pattern := range s.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, pattern := range s.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	return true
}

// Exists reports whether a document exists, without parsing it.
func (s *Store) Exists(name string) bool {
	if s.cache != nil && s.cache.Has(name) {
		return true
	}
	path, err := s.Path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load reads and parses a document. Failures are *LoadError values.
func (s *Store) Load(ctx context.Context, name string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if doc, ok := s.cache.Get(name); ok {
			return doc, nil
		}
	}

	path, err := s.Path(name)
	if err != nil {
		return nil, &LoadError{Name: name, Kind: LoadInvalid, Err: err}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Name: name, Kind: LoadMissing, Err: err}
		}
		return nil, &LoadError{Name: name, Kind: LoadInvalid, Err: err}
	}

	doc, err := Parse(name, raw)
	if err != nil {
		return nil, &LoadError{Name: name, Kind: LoadCorrupt, Err: err}
	}
	doc.Path = path

	if s.cache != nil {
		s.cache.Put(doc)
	}
	s.logger.Debug("loaded document", "name", name, "bytes", doc.Size)
	return doc, nil
}

// LoadMany loads every named document. A failed document maps to nil and
// its error is reported in the second map; one failure never aborts the
// batch.
func (s *Store) LoadMany(ctx context.Context, names []string) (map[string]*Document, map[string]error) {
	docs := make(map[string]*Document, len(names))
	errs := make(map[string]error)
	for _, name := range names {
		if _, seen := docs[name]; seen {
			continue
		}
		doc, err := s.Load(ctx, name)
		if err != nil {
			s.logger.Warn("failed to load document", "name", name, "error", err)
			docs[name] = nil
			errs[name] = err
			continue
		}
		docs[name] = doc
	}
	return docs, errs
}

// ClearCache empties the store's cache, if any.
func (s *Store) ClearCache() {
	if s.cache != nil {
		s.cache.Clear()
	}
}
