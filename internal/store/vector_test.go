package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunk(docID string, ordinal int, text string, vec []float32) Chunk {
	return Chunk{DocID: docID, Ordinal: ordinal, Text: text, Vector: vec}
}

func TestVectorIndex_SimilarityIsDotProduct(t *testing.T) {
	v := NewVectorIndex(3)
	v.UpsertChunks("doc1", []Chunk{chunk("doc1", 0, "exact", []float32{1, 0, 0})})
	v.UpsertChunks("doc2", []Chunk{chunk("doc2", 0, "orthogonal", []float32{0, 1, 0})})

	results, err := v.Search(context.Background(), []float32{1, 0, 0}, 10, 0.3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc1", results[0].DocID)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-6)
	assert.Equal(t, MatchSemantic, results[0].Match)
}

func TestVectorIndex_MinScoreFilters(t *testing.T) {
	v := NewVectorIndex(2)
	v.UpsertChunks("high", []Chunk{chunk("high", 0, "", []float32{1, 0})})
	v.UpsertChunks("low", []Chunk{chunk("low", 0, "", []float32{0.2, 0.9797958})})

	results, err := v.Search(context.Background(), []float32{1, 0}, 10, 0.3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "high", results[0].DocID)
}

func TestVectorIndex_DeduplicatesPerDocumentKeepingBestChunk(t *testing.T) {
	v := NewVectorIndex(2)
	v.UpsertChunks("doc1", []Chunk{
		chunk("doc1", 0, "weak chunk", []float32{0.6, 0.8}),
		chunk("doc1", 1, "strong chunk", []float32{1, 0}),
		chunk("doc1", 2, "weaker chunk", []float32{0.5, 0.8660254}),
	})

	results, err := v.Search(context.Background(), []float32{1, 0}, 10, 0.3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "strong chunk", results[0].Snippet)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-6)
}

func TestVectorIndex_RankedAndTruncatedToTopK(t *testing.T) {
	v := NewVectorIndex(2)
	v.UpsertChunks("a", []Chunk{chunk("a", 0, "", []float32{1, 0})})
	v.UpsertChunks("b", []Chunk{chunk("b", 0, "", []float32{0.9, 0.43588990})})
	v.UpsertChunks("c", []Chunk{chunk("c", 0, "", []float32{0.8, 0.6})})
	v.UpsertChunks("d", []Chunk{chunk("d", 0, "", []float32{0.7, 0.71414284})})

	results, err := v.Search(context.Background(), []float32{1, 0}, 2, 0.3)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].DocID)
	assert.Equal(t, "b", results[1].DocID)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestVectorIndex_DeleteDocumentRemovesAllChunks(t *testing.T) {
	v := NewVectorIndex(2)
	v.UpsertChunks("doc1", []Chunk{
		chunk("doc1", 0, "", []float32{1, 0}),
		chunk("doc1", 1, "", []float32{0, 1}),
	})
	require.Equal(t, 2, v.Size())

	v.DeleteDocument("doc1")
	assert.Zero(t, v.Size())

	results, err := v.Search(context.Background(), []float32{1, 0}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestVectorIndex_UpsertReplacesPriorChunks(t *testing.T) {
	v := NewVectorIndex(2)
	v.UpsertChunks("doc1", []Chunk{
		chunk("doc1", 0, "", []float32{1, 0}),
		chunk("doc1", 1, "", []float32{0, 1}),
	})
	v.UpsertChunks("doc1", []Chunk{chunk("doc1", 0, "", []float32{0, 1})})

	assert.Equal(t, 1, v.Size())

	results, err := v.Search(context.Background(), []float32{1, 0}, 10, 0.3)
	require.NoError(t, err)
	assert.Empty(t, results, "replaced vectors must not match the old direction")
}

func TestVectorIndex_LoadWarmsFromStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := testDoc("/notes/a.md")
	require.NoError(t, s.UpsertDocument(ctx, doc, []Chunk{
		chunk(doc.ID, 0, "warm", []float32{1, 0, 0, 0}),
	}))

	v := NewVectorIndex(4)
	require.NoError(t, v.Load(ctx, s))
	assert.Equal(t, 1, v.Size())

	results, err := v.Search(ctx, []float32{1, 0, 0, 0}, 10, 0.3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, doc.ID, results[0].DocID)
	assert.Equal(t, "warm", results[0].Snippet)
}

func TestVectorIndex_EmptyQueryAndEmptyIndex(t *testing.T) {
	v := NewVectorIndex(2)

	results, err := v.Search(context.Background(), []float32{1, 0}, 10, 0.3)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = v.Search(context.Background(), nil, 10, 0.3)
	require.NoError(t, err)
	assert.Empty(t, results)
}
