package embed

import (
	"context"
	"time"

	openai "github.com/sashabaranov/go-openai"

	seekerrors "github.com/noteseek/noteseek/internal/errors"
)

// availabilityProbeTimeout bounds the readiness check so a down endpoint
// fails fast into lexical-only search.
const availabilityProbeTimeout = 3 * time.Second

// OpenAIEmbedder talks to an OpenAI-compatible embeddings endpoint, such as
// Ollama's /v1 API serving all-minilm. The server pools and returns one
// vector per input; this embedder only validates dimensions and normalizes.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	dims   int
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates an embedder against the given base URL. apiKey
// may be empty for local servers that do not authenticate.
func NewOpenAIEmbedder(endpoint, apiKey, model string, dims int) *OpenAIEmbedder {
	if apiKey == "" {
		apiKey = "unused"
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = endpoint

	if dims <= 0 {
		dims = DefaultDimensions
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		dims:   dims,
	}
}

// Embed generates an embedding for a single text.
func (o *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch sends all texts in one request and returns vectors in input
// order.
func (o *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(o.model),
	})
	if err != nil {
		return nil, seekerrors.New(seekerrors.ErrCodeEmbedFailed,
			"embeddings request failed", err).
			WithDetail("model", o.model)
	}
	if len(resp.Data) != len(texts) {
		return nil, seekerrors.New(seekerrors.ErrCodeEmbedFailed,
			"embeddings response count mismatch", nil)
	}

	results := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(results) {
			return nil, seekerrors.New(seekerrors.ErrCodeEmbedFailed,
				"embeddings response index out of range", nil)
		}
		if len(item.Embedding) != o.dims {
			return nil, seekerrors.New(seekerrors.ErrCodeEmbedFailed,
				"embedding has unexpected dimension", nil).
				WithDetail("model", o.model)
		}
		results[item.Index] = normalizeVector(item.Embedding)
	}
	return results, nil
}

// Dimensions returns the embedding dimension.
func (o *OpenAIEmbedder) Dimensions() int { return o.dims }

// ModelName returns the model identifier.
func (o *OpenAIEmbedder) ModelName() string { return o.model }

// Available probes the endpoint with a minimal request.
func (o *OpenAIEmbedder) Available(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, availabilityProbeTimeout)
	defer cancel()

	_, err := o.EmbedBatch(probeCtx, []string{"ping"})
	return err == nil
}

// Close releases resources. The HTTP client holds none.
func (o *OpenAIEmbedder) Close() error { return nil }
