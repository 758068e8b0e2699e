package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLexical(t *testing.T) *LexicalIndex {
	t.Helper()
	l, err := NewLexicalIndex("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestLexicalIndex_PrefixMatching(t *testing.T) {
	l := newTestLexical(t)
	ctx := context.Background()

	require.NoError(t, l.IndexDocument(ctx, "d1",
		"Project Planning", "quarterly planning meeting for the roadmap",
		"planning.md", "/notes/planning.md"))
	require.NoError(t, l.IndexDocument(ctx, "d2",
		"Groceries", "milk eggs bread", "groceries.md", "/notes/groceries.md"))

	// A partially typed word still matches via prefix translation.
	results, err := l.Search(ctx, "plann", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "d1", results[0].DocID)
	assert.Equal(t, "Project Planning", results[0].Title)
	assert.Equal(t, "/notes/planning.md", results[0].Path)
	assert.Equal(t, MatchKeyword, results[0].Match)
	assert.Positive(t, results[0].Score)
}

func TestLexicalIndex_AllWordsMustMatch(t *testing.T) {
	l := newTestLexical(t)
	ctx := context.Background()

	require.NoError(t, l.IndexDocument(ctx, "d1",
		"Roadmap", "quarterly planning meeting", "roadmap.md", "/notes/roadmap.md"))

	results, err := l.Search(ctx, "quarterly meeting", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = l.Search(ctx, "quarterly zeppelin", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestLexicalIndex_MatchesFileName(t *testing.T) {
	l := newTestLexical(t)
	ctx := context.Background()

	require.NoError(t, l.IndexDocument(ctx, "d1",
		"Untitled", "nothing relevant in the body", "standup-notes.md", "/notes/standup-notes.md"))

	results, err := l.Search(ctx, "standup", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "d1", results[0].DocID)
}

func TestLexicalIndex_BodyHitsProduceSnippets(t *testing.T) {
	l := newTestLexical(t)
	ctx := context.Background()

	require.NoError(t, l.IndexDocument(ctx, "d1",
		"Title", "the retrospective covered deployment incidents in detail",
		"retro.md", "/notes/retro.md"))

	results, err := l.Search(ctx, "deployment", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Snippet, "deployment")
}

func TestLexicalIndex_ReindexReplacesContent(t *testing.T) {
	l := newTestLexical(t)
	ctx := context.Background()

	require.NoError(t, l.IndexDocument(ctx, "d1", "Old", "alpha content", "n.md", "/n.md"))
	require.NoError(t, l.IndexDocument(ctx, "d1", "New", "beta content", "n.md", "/n.md"))

	results, err := l.Search(ctx, "alpha", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = l.Search(ctx, "beta", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestLexicalIndex_RemoveDocument(t *testing.T) {
	l := newTestLexical(t)
	ctx := context.Background()

	require.NoError(t, l.IndexDocument(ctx, "d1", "T", "searchable text", "n.md", "/n.md"))
	require.NoError(t, l.RemoveDocument(ctx, "d1"))

	results, err := l.Search(ctx, "searchable", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	// Removing an absent id is not an error.
	assert.NoError(t, l.RemoveDocument(ctx, "ghost"))
}

func TestLexicalIndex_EmptyQuery(t *testing.T) {
	l := newTestLexical(t)

	results, err := l.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestLexicalIndex_ClosedRejectsOperations(t *testing.T) {
	l := newTestLexical(t)
	require.NoError(t, l.Close())

	assert.Error(t, l.IndexDocument(context.Background(), "d1", "t", "b", "f", "/p"))
	_, err := l.Search(context.Background(), "q", 10)
	assert.Error(t, err)
}
