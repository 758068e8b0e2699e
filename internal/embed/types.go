// Package embed turns chunk text into fixed-dimension, unit-normalized
// vectors. The Engine wraps a tokenizer and an encoder backend; alternative
// backends (offline hash encoder, OpenAI-compatible HTTP endpoint) satisfy
// the same Embedder contract.
package embed

import (
	"context"
	"math"
	"time"
)

const (
	// DefaultDimensions is the embedding width of the all-MiniLM family.
	DefaultDimensions = 384

	// DefaultMaxSequence is the token budget per chunk, including the
	// [CLS] and [SEP] sentinels.
	DefaultMaxSequence = 256

	// DefaultInitTimeout bounds model loading so a hung load cannot wedge
	// the initialization guard.
	DefaultInitTimeout = 60 * time.Second

	// DefaultConcurrency is the number of in-flight inference calls the
	// engine admits; the encoder session is the backpressure point.
	DefaultConcurrency = 2
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates a unit-normalized embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available reports whether the embedder is ready to serve. Search
	// degrades to lexical-only when this returns false.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// normalizeVector scales v to unit L2 norm in place-allocated copy.
// A zero vector is returned unchanged.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
