package embed

import (
	"context"
	"encoding/binary"
	"hash/fnv"

	"github.com/noteseek/noteseek/internal/token"
)

// Encoder is the forward pass of a sentence encoder: one tokenized sequence
// in, one hidden vector per token position out. The Engine owns pooling and
// normalization; encoders only produce hidden states.
type Encoder interface {
	// Forward returns a hidden vector for every position in enc.IDs,
	// including padded positions (the attention mask excludes those
	// during pooling).
	Forward(ctx context.Context, enc token.Encoding) ([][]float32, error)

	// HiddenSize returns the width of each hidden vector.
	HiddenSize() int

	// Close releases encoder resources.
	Close() error
}

// hashEncoder is a deterministic offline encoder: each token id maps to a
// fixed pseudo-random hidden vector derived from an FNV hash of the id.
// It has no semantic quality but exercises the full tokenize/pool/normalize
// pipeline without a model download, and keeps indexing functional when no
// model endpoint is configured.
type hashEncoder struct {
	dims int
}

// newHashEncoder creates an offline encoder with the given hidden size.
func newHashEncoder(dims int) *hashEncoder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &hashEncoder{dims: dims}
}

func (h *hashEncoder) Forward(_ context.Context, enc token.Encoding) ([][]float32, error) {
	hidden := make([][]float32, len(enc.IDs))
	for i, id := range enc.IDs {
		hidden[i] = h.tokenVector(id)
	}
	return hidden, nil
}

// tokenVector derives a deterministic vector for one token id. Components
// come from successive FNV-1a hashes of the id, mapped into [-1, 1).
func (h *hashEncoder) tokenVector(id int64) []float32 {
	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], uint64(id))

	v := make([]float32, h.dims)
	state := fnv.New64a()
	state.Write(seed[:])
	acc := state.Sum64()

	for i := range v {
		// xorshift step keeps successive components decorrelated.
		acc ^= acc << 13
		acc ^= acc >> 7
		acc ^= acc << 17
		v[i] = float32(float64(acc>>11)/float64(1<<52)) - 1.0
	}
	return v
}

func (h *hashEncoder) HiddenSize() int { return h.dims }

func (h *hashEncoder) Close() error { return nil }
