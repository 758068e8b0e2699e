package embed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	seekerrors "github.com/noteseek/noteseek/internal/errors"
	"github.com/noteseek/noteseek/internal/token"
)

// EncoderFactory loads an encoder backend. Loading may block (model
// download, session warm-up); the engine bounds it with InitTimeout.
type EncoderFactory func(ctx context.Context) (Encoder, error)

// Options configures an Engine.
type Options struct {
	// Dimensions is the embedding width the engine produces.
	Dimensions int

	// MaxSequence is the tokenizer output length per text.
	MaxSequence int

	// Concurrency bounds in-flight Forward calls.
	Concurrency int

	// InitTimeout bounds a single encoder load attempt.
	InitTimeout time.Duration

	// ModelName identifies the backing model.
	ModelName string
}

// WithDefaults fills zero-valued fields with defaults.
func (o Options) WithDefaults() Options {
	if o.Dimensions <= 0 {
		o.Dimensions = DefaultDimensions
	}
	if o.MaxSequence <= 0 {
		o.MaxSequence = DefaultMaxSequence
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.InitTimeout <= 0 {
		o.InitTimeout = DefaultInitTimeout
	}
	if o.ModelName == "" {
		o.ModelName = "offline-hash"
	}
	return o
}

// Engine is the embedding pipeline: tokenize, forward, masked mean pool,
// L2 normalize. Initialization is lazy, idempotent, and mutually exclusive;
// concurrent first calls collapse to a single encoder load. A failed load is
// not sticky: the next call retries.
type Engine struct {
	opts    Options
	tok     *token.Tokenizer
	factory EncoderFactory
	sem     chan struct{}
	logger  *slog.Logger

	mu      sync.Mutex
	encoder Encoder
	closed  bool
}

var _ Embedder = (*Engine)(nil)

// NewEngine creates an engine over the given tokenizer and encoder factory.
func NewEngine(tok *token.Tokenizer, factory EncoderFactory, opts Options, logger *slog.Logger) *Engine {
	opts = opts.WithDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		opts:    opts,
		tok:     tok,
		factory: factory,
		sem:     make(chan struct{}, opts.Concurrency),
		logger:  logger,
	}
}

// NewOfflineEngine creates an engine backed by the deterministic hash
// encoder. Used when no model endpoint is configured.
func NewOfflineEngine(tok *token.Tokenizer, opts Options, logger *slog.Logger) *Engine {
	opts = opts.WithDefaults()
	factory := func(context.Context) (Encoder, error) {
		return newHashEncoder(opts.Dimensions), nil
	}
	return NewEngine(tok, factory, opts, logger)
}

// ensureReady returns the loaded encoder, loading it on first use. The
// mutex makes concurrent initialization collapse to one load; the timeout
// keeps a hung load from wedging the guard forever.
func (e *Engine) ensureReady(ctx context.Context) (Encoder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, seekerrors.ModelError("embedding engine is closed", nil)
	}
	if e.encoder != nil {
		return e.encoder, nil
	}

	loadCtx, cancel := context.WithTimeout(ctx, e.opts.InitTimeout)
	defer cancel()

	start := time.Now()
	enc, err := e.factory(loadCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, seekerrors.New(seekerrors.ErrCodeModelLoadTimeout,
				"encoder load timed out", err).
				WithDetail("timeout", e.opts.InitTimeout.String())
		}
		return nil, seekerrors.ModelError("encoder load failed", err)
	}

	e.logger.Info("encoder_loaded",
		"model", e.opts.ModelName,
		"dimensions", e.opts.Dimensions,
		"duration_ms", time.Since(start).Milliseconds())

	e.encoder = enc
	return enc, nil
}

// Embed generates a unit-normalized embedding for text.
func (e *Engine) Embed(ctx context.Context, text string) ([]float32, error) {
	enc, err := e.ensureReady(ctx)
	if err != nil {
		return nil, err
	}

	// The encoder session is the backpressure point, not the pipeline.
	select {
	case e.sem <- struct{}{}:
		defer func() { <-e.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	encoding := e.tok.Tokenize(text, e.opts.MaxSequence)

	hidden, err := enc.Forward(ctx, encoding)
	if err != nil {
		return nil, seekerrors.New(seekerrors.ErrCodeEmbedFailed,
			"encoder forward pass failed", err)
	}

	pooled := meanPool(hidden, encoding.AttentionMask, enc.HiddenSize())
	return normalizeVector(pooled), nil
}

// EmbedBatch embeds each text in order. The first failure aborts the batch.
func (e *Engine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		results[i] = vec
	}
	return results, nil
}

// Dimensions returns the embedding dimension.
func (e *Engine) Dimensions() int { return e.opts.Dimensions }

// ModelName returns the model identifier.
func (e *Engine) ModelName() string { return e.opts.ModelName }

// Available reports whether the encoder is loaded or loadable.
func (e *Engine) Available(ctx context.Context) bool {
	_, err := e.ensureReady(ctx)
	return err == nil
}

// Close releases the encoder. Subsequent Embed calls fail.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	if e.encoder == nil {
		return nil
	}
	err := e.encoder.Close()
	e.encoder = nil
	return err
}

// meanPool averages hidden vectors over positions with attention mask 1.
// Zero contributing positions yields a zero vector, never a division by
// zero.
func meanPool(hidden [][]float32, mask []int64, dims int) []float32 {
	pooled := make([]float32, dims)

	var count int
	for i, m := range mask {
		if m == 0 || i >= len(hidden) {
			continue
		}
		count++
		for j, h := range hidden[i] {
			if j >= dims {
				break
			}
			pooled[j] += h
		}
	}

	if count == 0 {
		return pooled
	}

	inv := 1.0 / float32(count)
	for j := range pooled {
		pooled[j] *= inv
	}
	return pooled
}
