package embed

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder records how many inference calls reach it.
type countingEmbedder struct {
	embeds atomic.Int32
	model  string
}

func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	c.embeds.Add(1)
	return normalizeVector([]float32{float32(len(text)), 1}), nil
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, _ := c.Embed(ctx, t)
		out[i] = v
	}
	return out, nil
}

func (c *countingEmbedder) Dimensions() int                { return 2 }
func (c *countingEmbedder) ModelName() string              { return c.model }
func (c *countingEmbedder) Available(context.Context) bool { return true }
func (c *countingEmbedder) Close() error                   { return nil }

func TestCachedEmbedder_RepeatedQueryHitsCache(t *testing.T) {
	inner := &countingEmbedder{model: "m1"}
	c := NewCachedEmbedder(inner, 16)

	a, err := c.Embed(context.Background(), "project planning")
	require.NoError(t, err)
	b, err := c.Embed(context.Background(), "project planning")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, int32(1), inner.embeds.Load())
}

func TestCachedEmbedder_BatchOnlyComputesMisses(t *testing.T) {
	inner := &countingEmbedder{model: "m1"}
	c := NewCachedEmbedder(inner, 16)

	_, err := c.Embed(context.Background(), "alpha")
	require.NoError(t, err)

	out, err := c.EmbedBatch(context.Background(), []string{"alpha", "beta", "alpha"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, out[0], out[2])

	// One call for "alpha" up front, one for the "beta" miss.
	assert.Equal(t, int32(2), inner.embeds.Load())
}

func TestCachedEmbedder_KeyIncludesModelName(t *testing.T) {
	a := NewCachedEmbedder(&countingEmbedder{model: "m1"}, 16)
	b := NewCachedEmbedder(&countingEmbedder{model: "m2"}, 16)

	assert.NotEqual(t, a.cacheKey("same text"), b.cacheKey("same text"))
}

func TestCachedEmbedder_EmptyBatch(t *testing.T) {
	c := NewCachedEmbedder(&countingEmbedder{model: "m"}, 16)
	out, err := c.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
