// Package watcher watches the interpreter source tree and triggers
// regeneration when a scanned file actually changes.
//
// Events are debounced so an editor save burst or a git checkout produces
// one regeneration, and file contents are hashed so touch-only events (mtime
// changes with identical bytes) are ignored.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"

	symerrors "github.com/conneroisu/symgen/internal/errors"
	"github.com/conneroisu/symgen/internal/logging"
)

// FileFilter determines if a changed path is relevant.
type FileFilter func(path string) bool

// ChangeHandler is invoked with the batch of changed paths after debouncing.
type ChangeHandler func(ctx context.Context, paths []string) error

// FileWatcher watches directories for changes with debouncing and
// content-hash change detection.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	filters  []FileFilter
	handler  ChangeHandler
	logger   logging.Logger

	mutex  sync.Mutex
	hashes map[string]uint64
}

// New creates a watcher with the given debounce window.
func New(debounce time.Duration, logger logging.Logger) (*FileWatcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, symerrors.NewIOError("creating file watcher", err)
	}

	return &FileWatcher{
		watcher:  fsWatcher,
		debounce: debounce,
		logger:   logger.WithComponent("watcher"),
		hashes:   make(map[string]uint64),
	}, nil
}

// AddFilter appends a path filter. A path is relevant only if every filter
// accepts it.
func (fw *FileWatcher) AddFilter(filter FileFilter) {
	fw.filters = append(fw.filters, filter)
}

// SetHandler sets the regeneration callback.
func (fw *FileWatcher) SetHandler(handler ChangeHandler) {
	fw.handler = handler
}

// AddRecursive watches root and every directory below it.
func (fw *FileWatcher) AddRecursive(root string) error {
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		return fw.watcher.Add(path)
	})
	if err != nil {
		return symerrors.NewIOError("watching "+root, err)
	}

	return nil
}

// Start blocks processing events until the context is cancelled.
func (fw *FileWatcher) Start(ctx context.Context) error {
	var (
		pending = make(map[string]struct{})
		timer   *time.Timer
		timerC  <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return fw.watcher.Close()

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			if !fw.relevant(event) {
				continue
			}
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(fw.debounce)
			} else {
				timer.Reset(fw.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			paths := fw.changedPaths(pending)
			pending = make(map[string]struct{})
			if len(paths) == 0 {
				continue
			}
			fw.logger.Info(ctx, "source changed", "files", len(paths))
			if fw.handler != nil {
				if err := fw.handler(ctx, paths); err != nil {
					fw.logger.Error(ctx, err, "regeneration failed")
				}
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			fw.logger.Warn(ctx, err, "watch error")
		}
	}
}

// relevant applies the event mask and the filters.
func (fw *FileWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	for _, filter := range fw.filters {
		if !filter(event.Name) {
			return false
		}
	}
	return true
}

// changedPaths keeps only paths whose content hash differs from the last
// seen value. Deleted paths always count as changed.
func (fw *FileWatcher) changedPaths(pending map[string]struct{}) []string {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()

	var changed []string
	for path := range pending {
		content, err := os.ReadFile(path)
		if err != nil {
			delete(fw.hashes, path)
			changed = append(changed, path)
			continue
		}

		sum := xxhash.Sum64(content)
		if prev, ok := fw.hashes[path]; ok && prev == sum {
			continue
		}
		fw.hashes[path] = sum
		changed = append(changed, path)
	}

	return changed
}

// CSourceFilter accepts C sources and headers.
func CSourceFilter(path string) bool {
	switch filepath.Ext(path) {
	case ".c", ".h":
		return true
	default:
		return false
	}
}
