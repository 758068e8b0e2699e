package cmd

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/noteseek/noteseek/internal/config"
	"github.com/noteseek/noteseek/internal/embed"
	"github.com/noteseek/noteseek/internal/logging"
	"github.com/noteseek/noteseek/internal/scan"
	"github.com/noteseek/noteseek/internal/search"
	"github.com/noteseek/noteseek/internal/store"
)

// metadataFileName is the SQLite database under the data directory.
const metadataFileName = "metadata.db"

// lexicalDirName is the bleve index directory under the data directory.
const lexicalDirName = "lexical.bleve"

// app wires the configured stores, embedder, and scan manager for one
// notes root. Commands open it, run, and Close it.
type app struct {
	root     string
	cfg      *config.Config
	logger   *slog.Logger
	cleanup  func()
	docs     *store.SQLiteStore
	vectors  *store.VectorIndex
	lexical  *store.LexicalIndex
	embedder embed.Embedder
	mgr      *scan.Manager
}

// openApp resolves the notes root, loads configuration, and opens every
// component. An unavailable embedder is not fatal: indexing and search
// degrade to lexical-only.
func openApp(ctx context.Context, root string) (*app, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(absRoot)
	if err != nil {
		return nil, err
	}

	dataDir := config.DataDir(absRoot)
	cleanup, err := logging.SetupDefault(dataDir, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := slog.Default()

	docs, err := store.NewSQLiteStore(filepath.Join(dataDir, metadataFileName),
		cfg.Embeddings.Dimensions, logger)
	if err != nil {
		cleanup()
		return nil, err
	}

	lexical, err := store.NewLexicalIndex(filepath.Join(dataDir, lexicalDirName), logger)
	if err != nil {
		_ = docs.Close()
		cleanup()
		return nil, err
	}

	vectors := store.NewVectorIndex(cfg.Embeddings.Dimensions)
	if err := vectors.Load(ctx, docs); err != nil {
		_ = lexical.Close()
		_ = docs.Close()
		cleanup()
		return nil, err
	}

	embedder, err := embed.NewFromConfig(cfg.Embeddings, logger)
	if err != nil {
		logger.Warn("embedder_unavailable",
			"provider", cfg.Embeddings.Provider,
			"error", err.Error())
		embedder = nil
	}

	mgr := scan.NewManager(absRoot, cfg, docs, docs, vectors, lexical, embedder, logger)

	return &app{
		root:     absRoot,
		cfg:      cfg,
		logger:   logger,
		cleanup:  cleanup,
		docs:     docs,
		vectors:  vectors,
		lexical:  lexical,
		embedder: embedder,
		mgr:      mgr,
	}, nil
}

// searcher builds the hybrid coordinator over the opened components.
func (a *app) searcher() *search.Coordinator {
	return search.New(a.embedder, a.vectors, a.lexical, a.docs, a.cfg.Search, a.logger)
}

// Close releases every component in reverse open order.
func (a *app) Close() {
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
	_ = a.lexical.Close()
	_ = a.docs.Close()
	a.cleanup()
}
