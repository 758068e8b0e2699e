package embed

import (
	"log/slog"

	"github.com/noteseek/noteseek/internal/config"
	seekerrors "github.com/noteseek/noteseek/internal/errors"
	"github.com/noteseek/noteseek/internal/token"
)

// NewFromConfig builds the configured embedder, wrapped in the query cache.
//
// Provider "openai" talks to an OpenAI-compatible endpoint (Ollama's /v1
// serves this locally). Provider "offline" runs the hash encoder over the
// WordPiece tokenizer, which needs the vocabulary file.
func NewFromConfig(cfg config.EmbeddingsConfig, logger *slog.Logger) (Embedder, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		inner := NewOpenAIEmbedder(cfg.Endpoint, cfg.APIKey, cfg.Model, cfg.Dimensions)
		return NewCachedEmbedder(inner, DefaultCacheSize), nil

	case config.ProviderOffline:
		vocab, err := token.LoadVocabFile(cfg.VocabPath)
		if err != nil {
			return nil, seekerrors.ModelError("load vocabulary", err).
				WithDetail("path", cfg.VocabPath)
		}
		engine := NewOfflineEngine(token.NewTokenizer(vocab), Options{
			Dimensions:  cfg.Dimensions,
			MaxSequence: cfg.MaxSequence,
			Concurrency: cfg.Concurrency,
			InitTimeout: cfg.InitTimeout,
			ModelName:   "offline-hash",
		}, logger)
		return NewCachedEmbedder(engine, DefaultCacheSize), nil

	default:
		return nil, seekerrors.New(seekerrors.ErrCodeConfigInvalid,
			"unknown embeddings provider", nil).
			WithDetail("provider", cfg.Provider)
	}
}
