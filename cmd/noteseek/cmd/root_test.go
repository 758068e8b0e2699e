package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI with args against a fresh root command and returns
// combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func writeNote(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRootCmd_ShowsHelp(t *testing.T) {
	// When: executing with --help
	output, err := execute(t, "--help")

	// Then: it should show usage information
	require.NoError(t, err)
	assert.Contains(t, output, "noteseek")
	assert.Contains(t, output, "Usage:")
}

func TestRootCmd_ShowsVersion(t *testing.T) {
	output, err := execute(t, "--version")

	require.NoError(t, err)
	assert.Contains(t, output, "noteseek version")
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	cmd := NewRootCmd()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	assert.Contains(t, names, "index")
	assert.Contains(t, names, "resume")
	assert.Contains(t, names, "search")
	assert.Contains(t, names, "watch")
	assert.Contains(t, names, "status")
	assert.Contains(t, names, "version")
}

func TestIndexCmd_HasFullFlag(t *testing.T) {
	cmd := NewRootCmd()
	index, _, err := cmd.Find([]string{"index"})
	require.NoError(t, err)

	flag := index.Flags().Lookup("full")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "search", "--root", dir)

	assert.Error(t, err)
}

func TestIndexThenSearch_EndToEnd(t *testing.T) {
	// Given: a notes folder with two notes. The default offline embedding
	// provider has no vocabulary configured, so indexing and search run
	// keyword-only; that path must still work end to end.
	dir := t.TempDir()
	writeNote(t, dir, "garden.md", "# Garden Plan\n\nPlant tomatoes in the raised bed this spring.")
	writeNote(t, dir, "travel.md", "# Travel Ideas\n\nVisit the coast in autumn.")

	// When: indexing then searching
	out, err := execute(t, "index", "--root", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 2 files")

	out, err = execute(t, "search", "--root", dir, "tomatoes")

	// Then: the matching note is returned with its path
	require.NoError(t, err)
	assert.Contains(t, out, "Garden Plan")
	assert.Contains(t, out, "garden.md")
	assert.NotContains(t, out, "travel.md")
}

func TestIndexCmd_IncrementalSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, "note.md", "# Note\n\nSome content here.")

	_, err := execute(t, "index", "--root", dir)
	require.NoError(t, err)

	// A second run without changes processes nothing.
	out, err := execute(t, "index", "--root", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 0 files")
	assert.Contains(t, out, "1 unchanged")
}

func TestStatusCmd_ReportsIndexState(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, "note.md", "# Note\n\nSome content here.")

	_, err := execute(t, "index", "--root", dir)
	require.NoError(t, err)

	out, err := execute(t, "status", "--root", dir)

	require.NoError(t, err)
	assert.Contains(t, out, "Documents:     1")
	assert.Contains(t, out, "Last scan:     completed")
}

func TestStatusCmd_BeforeAnyScan(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "status", "--root", dir)

	require.NoError(t, err)
	assert.Contains(t, out, "Last scan:     never")
}

func TestResumeCmd_WithoutInterruptedScan(t *testing.T) {
	// Resume with no interrupted scan falls back to an incremental scan.
	dir := t.TempDir()
	writeNote(t, dir, "note.md", "# Note\n\nSome content here.")

	out, err := execute(t, "resume", "--root", dir)

	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 1 files")
}
