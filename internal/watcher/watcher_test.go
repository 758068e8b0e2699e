package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteseek/noteseek/internal/config"
)

func newTestWatcher(t *testing.T, root string, rec *recorder) *Watcher {
	t.Helper()
	w, err := New(root, config.DefaultConfig().Paths, 20*time.Millisecond, rec.dispatch, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	w.Start()
	return w
}

func TestWatcher_DispatchesIndexOnCreate(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	newTestWatcher(t, root, rec)

	path := filepath.Join(root, "new.md")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	waitFor(t, func() bool {
		paths, actions := rec.snapshot()
		return len(paths) > 0 && paths[0] == path && actions[0] == ActionIndex
	})
}

func TestWatcher_DispatchesRemoveOnDelete(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "doomed.md")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	rec := &recorder{}
	newTestWatcher(t, root, rec)

	require.NoError(t, os.Remove(path))

	waitFor(t, func() bool {
		paths, actions := rec.snapshot()
		for i := range paths {
			if paths[i] == path && actions[i] == ActionRemove {
				return true
			}
		}
		return false
	})
}

func TestWatcher_IgnoresUnrecognizedExtensions(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	newTestWatcher(t, root, rec)

	require.NoError(t, os.WriteFile(filepath.Join(root, "image.png"), []byte{1, 2}, 0o644))
	time.Sleep(80 * time.Millisecond)

	paths, _ := rec.snapshot()
	assert.Empty(t, paths)
}

func TestWatcher_WatchesNewSubdirectories(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	newTestWatcher(t, root, rec)

	sub := filepath.Join(root, "projects")
	require.NoError(t, os.Mkdir(sub, 0o755))

	// Give the watcher a moment to register the new directory.
	time.Sleep(50 * time.Millisecond)

	path := filepath.Join(sub, "plan.md")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	waitFor(t, func() bool {
		paths, _ := rec.snapshot()
		for _, p := range paths {
			if p == path {
				return true
			}
		}
		return false
	})
}

func TestWatcher_IgnoresExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	hidden := filepath.Join(root, ".noteseek")
	require.NoError(t, os.Mkdir(hidden, 0o755))

	rec := &recorder{}
	newTestWatcher(t, root, rec)

	require.NoError(t, os.WriteFile(filepath.Join(hidden, "internal.md"), []byte("x"), 0o644))
	time.Sleep(80 * time.Millisecond)

	paths, _ := rec.snapshot()
	assert.Empty(t, paths)
}
