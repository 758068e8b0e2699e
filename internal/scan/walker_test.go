package scan

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteseek/noteseek/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestEnumerateFiles_FiltersByExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "alpha")
	writeFile(t, filepath.Join(root, "b.txt"), "beta")
	writeFile(t, filepath.Join(root, "c.pdf"), "gamma")
	writeFile(t, filepath.Join(root, "d.MD"), "delta")

	files, err := EnumerateFiles(root, config.DefaultConfig().Paths)
	require.NoError(t, err)
	require.Len(t, files, 3)
	for _, f := range files {
		assert.NotContains(t, f, "c.pdf")
	}
}

func TestEnumerateFiles_SkipsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.md"), "keep")
	writeFile(t, filepath.Join(root, ".noteseek", "internal.md"), "hidden")
	writeFile(t, filepath.Join(root, ".git", "notes.md"), "hidden")
	writeFile(t, filepath.Join(root, "sub", "nested.md"), "nested")

	files, err := EnumerateFiles(root, config.DefaultConfig().Paths)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Contains(t, files[0]+files[1], "keep.md")
	assert.Contains(t, files[0]+files[1], "nested.md")
}

func TestEnumerateFiles_SortedLexicographically(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"zz.md", "aa.md", "mm.md"} {
		writeFile(t, filepath.Join(root, name), "x")
	}

	files, err := EnumerateFiles(root, config.DefaultConfig().Paths)
	require.NoError(t, err)
	assert.True(t, sort.StringsAreSorted(files))
}

func TestEnumerateFiles_MaxFileSize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "small.md"), "ok")
	writeFile(t, filepath.Join(root, "big.md"), "this content is too large")

	paths := config.DefaultConfig().Paths
	paths.MaxFileSize = 10

	files, err := EnumerateFiles(root, paths)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0], "small.md")
}

func TestEnumerateFiles_ReturnsAbsolutePaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.md"), "x")

	files, err := EnumerateFiles(root, config.DefaultConfig().Paths)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, filepath.IsAbs(files[0]))
}
