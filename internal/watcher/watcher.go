// Package watcher re-runs an import when markdown files under a source
// folder change. Bursts of events are debounced into one change batch.
package watcher

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
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Config.Debounce is zero.
const DefaultDebounce = 250 * time.Millisecond

// ChangeFunc handles one debounced batch of changed paths, relative to the
// source folder and sorted.
type ChangeFunc func(ctx context.Context, changed []string) error

// Config configures a Watcher.
type Config struct {
	Source   string
	Debounce time.Duration
	Logger   *slog.Logger
	OnChange ChangeFunc
}

// Watcher monitors a source folder.
type Watcher struct {
	source   string
	debounce time.Duration
	logger   *slog.Logger
	onChange ChangeFunc

	fsWatcher *fsnotify.Watcher

	mu       sync.Mutex
	pending  map[string]struct{}
	lastSeen time.Time
}

// New validates cfg and creates a Watcher. Nothing is watched until Run.
func New(cfg Config) (*Watcher, error) {
	if cfg.Source == "" {
		return nil, errors.New("watcher: source folder is required")
	}
	if cfg.OnChange == nil {
		return nil, errors.New("watcher: change handler is required")
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		source:   cfg.Source,
		debounce: debounce,
		logger:   logger,
		onChange: cfg.OnChange,
		pending:  make(map[string]struct{}),
	}, nil
}

// Run watches until ctx is done. A failing change handler is logged and
// watching continues.
func (w *Watcher) Run(ctx context.Context) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer w.fsWatcher.Close()

	if err := w.addRecursive(w.source); err != nil {
		return fmt.Errorf("watch %s: %w", w.source, err)
	}
	w.logger.Info("watching", "source", w.source, "debounce", w.debounce)

	ticker := time.NewTicker(w.debounce / 4)
	defer ticker.Stop()

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
			w.logger.Warn("watch error", "error", err)

		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if ignored(w.source, path) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				w.logger.Warn("watch directory", "path", path, "error", err)
			}
			// files created with the directory carry no events of their own
			w.schedule(path)
			return
		}
	}

	// a removed directory takes its pages with it
	if !strings.HasSuffix(path, ".md") && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	w.logger.Debug("watch event", "op", event.Op.String(), "path", path)
	w.schedule(path)
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rel, err := filepath.Rel(w.source, path)
	if err != nil {
		rel = path
	}
	w.pending[filepath.ToSlash(rel)] = struct{}{}
	w.lastSeen = time.Now()
}

// flush runs the change handler once no event has arrived for the
// debounce delay.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	changed := w.takeReady(now)
	if len(changed) == 0 {
		return
	}
	if err := w.onChange(ctx, changed); err != nil {
		w.logger.Error("change handler failed", "changed", len(changed), "error", err)
	}
}

func (w *Watcher) takeReady(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 || now.Sub(w.lastSeen) < w.debounce {
		return nil
	}
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	sort.Strings(changed)
	clear(w.pending)
	return changed
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignored(w.source, path) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			w.logger.Warn("watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// ignored reports whether path lies in a hidden entry below source, the
// same entries an import skips.
func ignored(source, path string) bool {
	rel, err := filepath.Rel(source, path)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != ".." {
			return true
		}
	}
	return false
}
