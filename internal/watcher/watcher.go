package watcher

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/noteseek/noteseek/internal/config"
	seekerrors "github.com/noteseek/noteseek/internal/errors"
)

// Watcher observes create/modify/delete/move events under the notes root,
// filtered to recognized extensions, and feeds them through the per-path
// debouncer. When the underlying path cannot be observed, New returns an
// error and the caller falls back to periodic re-scans.
type Watcher struct {
	root       string
	fsw        *fsnotify.Watcher
	deb        *Debouncer
	extensions map[string]struct{}
	exclude    map[string]struct{}
	logger     *slog.Logger
	done       chan struct{}
}

// New creates a watcher over root. dispatch receives one action per
// settled path.
func New(root string, paths config.PathsConfig, debounce time.Duration,
	dispatch DispatchFunc, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, seekerrors.New(seekerrors.ErrCodeInvalidPath, "resolve root", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, seekerrors.IOError("create filesystem watcher", err)
	}

	w := &Watcher{
		root:       absRoot,
		fsw:        fsw,
		deb:        NewDebouncer(debounce, dispatch),
		extensions: make(map[string]struct{}, len(paths.Extensions)),
		exclude:    make(map[string]struct{}, len(paths.Exclude)),
		logger:     logger,
		done:       make(chan struct{}),
	}
	for _, ext := range paths.Extensions {
		w.extensions[strings.ToLower(ext)] = struct{}{}
	}
	for _, name := range paths.Exclude {
		w.exclude[name] = struct{}{}
	}

	if err := w.watchTree(absRoot); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// watchTree registers root and every non-excluded subdirectory. fsnotify
// watches are not recursive.
func (w *Watcher) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if _, ok := w.exclude[d.Name()]; ok && path != root {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return seekerrors.IOError("watch directory", addErr).WithDetail("path", path)
		}
		return nil
	})
}

// Start runs the event loop until Close is called.
func (w *Watcher) Start() {
	go w.loop()
	w.logger.Info("watcher_started", "root", w.root)
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher_error", "error", err.Error())
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	// New directories must be added to the watch set before events inside
	// them can be seen.
	if event.Op.Has(fsnotify.Create) && !w.isExcluded(filepath.Base(event.Name)) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watchTree(event.Name); err != nil {
				w.logger.Warn("watch_subtree_failed", "path", event.Name, "error", err.Error())
			}
			return
		}
	}

	ext := strings.ToLower(filepath.Ext(event.Name))
	if _, ok := w.extensions[ext]; !ok {
		return
	}
	if w.pathExcluded(event.Name) {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		w.deb.Observe(event.Name, ActionRemove)
	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		w.deb.Observe(event.Name, ActionIndex)
	}
}

func (w *Watcher) isExcluded(name string) bool {
	_, ok := w.exclude[name]
	return ok
}

// pathExcluded reports whether any path component under root is an
// excluded directory name.
func (w *Watcher) pathExcluded(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.Dir(rel), string(filepath.Separator)) {
		if w.isExcluded(part) {
			return true
		}
	}
	return false
}

// Close stops the event loop and cancels pending debounce timers.
func (w *Watcher) Close() error {
	close(w.done)
	w.deb.Close()
	return w.fsw.Close()
}
