// Package watcher re-runs validation when content, schema or config files
// change under a project root.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aidanlsb/lorecheck/internal/content"
)

// DefaultDebounce is how long the tree must be quiet before a re-run.
const DefaultDebounce = 200 * time.Millisecond

// Watcher monitors a directory tree and reports settled batches of changes.
type Watcher struct {
	root          string
	debounceDelay time.Duration
	extensions    map[string]bool
	logger        *slog.Logger
	onChange      func(ctx context.Context, paths []string)

	fsWatcher *fsnotify.Watcher
	mu        sync.Mutex
	pending   map[string]struct{}
	lastEvent time.Time
}

// Config holds configuration options for the Watcher.
type Config struct {
	Root          string
	DebounceDelay time.Duration // Default: DefaultDebounce
	// Extensions lists the file extensions that trigger a re-run.
	// Default: .json, .yaml, .toml
	Extensions []string
	Logger     *slog.Logger
	// OnChange receives the sorted changed paths once the tree is quiet.
	// Calls never overlap.
	OnChange func(ctx context.Context, paths []string)
}

// New creates a Watcher.
func New(cfg Config) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("watch root is required")
	}
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("change callback is required")
	}

	debounce := cfg.DebounceDelay
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = []string{".json", ".yaml", ".toml"}
	}
	extensions := make(map[string]bool, len(exts))
	for _, e := range exts {
		extensions[strings.ToLower(e)] = true
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		root:          cfg.Root,
		debounceDelay: debounce,
		extensions:    extensions,
		logger:        logger,
		onChange:      cfg.OnChange,
		pending:       make(map[string]struct{}),
	}, nil
}

// Start watches until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.fsWatcher.Close()

	if err := w.addWatchRecursive(w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}
	w.logger.Debug("watching", "root", w.root, "debounce", w.debounceDelay)

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if w.shouldIgnore(path) {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.fsWatcher != nil {
				_ = w.addWatchRecursive(path)
			}
			return
		}
	}
	if !w.extensions[strings.ToLower(filepath.Ext(path))] {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	w.logger.Debug("change", "op", event.Op.String(), "path", path)
	w.mu.Lock()
	w.pending[path] = struct{}{}
	w.lastEvent = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(w.debounceDelay / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if paths := w.takeSettled(time.Now()); len(paths) > 0 {
				w.onChange(ctx, paths)
			}
		}
	}
}

// takeSettled drains the pending set once no event arrived for the
// debounce delay.
func (w *Watcher) takeSettled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) == 0 || now.Sub(w.lastEvent) < w.debounceDelay {
		return nil
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	w.pending = make(map[string]struct{})
	return paths
}

func (w *Watcher) addWatchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && shouldIgnoreDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			w.logger.Debug("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) shouldIgnore(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if shouldIgnoreDir(part) {
			return true
		}
	}
	// Editors write temp files next to the real one.
	base := filepath.Base(path)
	return strings.HasSuffix(base, "~") || strings.Contains(base, ".tmp-")
}

func shouldIgnoreDir(name string) bool {
	return name == content.DataDir || name == ".git" || name == "node_modules"
}
