package excelparser

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a spreadsheet must stay unchanged before it
// is rebuilt.
const DefaultDebounce = 500 * time.Millisecond

// Watcher calls a function whenever a spreadsheet changes.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger

	// hash of the content last handed to the callback
	hash string
}

// NewWatcher creates a watcher for the file at path.
func NewWatcher(path string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{path: abs, debounce: debounce, logger: logger}, nil
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string { return w.path }

// Run calls fn once, then again after every change of the file content,
// until ctx is cancelled. The directory is watched rather than the file so
// that editors replacing the file are followed. Errors from fn are logged
// and watching goes on. Calls never overlap.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context) error) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("Watching spreadsheet", "path", w.path, "debounce", w.debounce)

	w.rebuild(ctx, fn)

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	var pending bool
	var lastEvent time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			w.logger.Debug("Spreadsheet change detected", "path", w.path, "op", event.Op.String())
			pending, lastEvent = true, time.Now()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			if pending && time.Since(lastEvent) >= w.debounce {
				pending = false
				w.rebuild(ctx, fn)
			}
		}
	}
}

// rebuild calls fn if the file content differs from the last build.
func (w *Watcher) rebuild(ctx context.Context, fn func(context.Context) error) {
	content, err := os.ReadFile(w.path)
	if errors.Is(err, os.ErrNotExist) {
		w.logger.Debug("Spreadsheet missing, waiting for it", "path", w.path)
		return
	}
	if err != nil {
		w.logger.Warn("Failed to read spreadsheet", "path", w.path, "error", err)
		return
	}

	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])
	if hash == w.hash {
		w.logger.Debug("Spreadsheet content unchanged", "path", w.path)
		return
	}
	w.hash = hash

	if err := fn(ctx); err != nil {
		w.logger.Error("Rebuild failed", "path", w.path, "error", err)
	}
}
