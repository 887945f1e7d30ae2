// Package watcher invalidates scan-cache entries when notes change on disk.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/NathanJKW/calmdown/internal/scancache"
)

// Watcher maps fsnotify events on a note root to cache invalidations.
type Watcher struct {
	root   string
	cache  *scancache.Cache
	logger *log.Logger
	fsw    *fsnotify.Watcher
}

// New creates a watcher over root. Call Run to start receiving events.
func New(root string, cache *scancache.Cache, logger *log.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{root: root, cache: cache, logger: logger, fsw: fsw}
	if err := w.addDirs(root); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("add directories to watcher: %w", err)
	}
	return w, nil
}

// addDirs recursively registers directories, skipping hidden ones.
func (w *Watcher) addDirs(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// Run blocks processing events until ctx is cancelled or the watcher closes.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "err", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// New directories need to be watched too (e.g. a fresh ISO-week folder).
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !strings.HasPrefix(filepath.Base(event.Name), ".") {
				if err := w.addDirs(event.Name); err != nil {
					w.logger.Warn("watch new directory", "path", event.Name, "err", err)
				}
			}
			return
		}
	}

	if !strings.HasSuffix(strings.ToLower(event.Name), ".md") {
		return
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0:
		w.logger.Debug("note changed", "path", rel, "op", event.Op.String())
		w.cache.Invalidate(rel)
	}
}

// Close stops the underlying file watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
