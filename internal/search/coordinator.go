// Package search fuses vector similarity and keyword retrieval into one
// ranked result list.
package search

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/noteseek/noteseek/internal/config"
	"github.com/noteseek/noteseek/internal/embed"
	"github.com/noteseek/noteseek/internal/store"
)

// Coordinator runs the semantic and lexical queries concurrently and merges
// their results. Semantic results always rank above keyword-only results
// for the same corpus: keyword hits carry a fixed score below the semantic
// floor.
type Coordinator struct {
	embedder embed.Embedder
	vectors  *store.VectorIndex
	lexical  *store.LexicalIndex
	docs     store.DocumentStore
	cfg      config.SearchConfig
	logger   *slog.Logger
}

// New creates a coordinator. embedder may be nil; search is then
// lexical-only.
func New(embedder embed.Embedder, vectors *store.VectorIndex, lexical *store.LexicalIndex,
	docs store.DocumentStore, cfg config.SearchConfig, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		embedder: embedder,
		vectors:  vectors,
		lexical:  lexical,
		docs:     docs,
		cfg:      cfg,
		logger:   logger,
	}
}

// Search returns up to limit fused results for the free-text query.
// limit <= 0 uses the configured default.
//
// Neither retrieval branch can fail the whole search: an unavailable
// embedder degrades to lexical-only results, a broken lexical index to
// semantic-only. Both branches failing yields an empty result set, not an
// error; failures are logged.
func (c *Coordinator) Search(ctx context.Context, query string, limit int) ([]store.SearchResult, error) {
	if limit <= 0 {
		limit = c.cfg.MaxResults
	}

	var (
		semantic []store.SearchResult
		lexical  []store.SearchResult
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		semantic = c.semanticSearch(gctx, query, limit)
		return nil
	})

	g.Go(func() error {
		results, err := c.lexical.Search(gctx, query, limit)
		if err != nil {
			c.logger.Warn("lexical_search_failed", "error", err.Error())
			return nil
		}
		lexical = results
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return c.fuse(ctx, semantic, lexical, limit), nil
}

// semanticSearch embeds the query and scans the vector index. Any failure
// degrades to an empty result set so lexical results still come back.
func (c *Coordinator) semanticSearch(ctx context.Context, query string, limit int) []store.SearchResult {
	if c.embedder == nil {
		return nil
	}

	queryVec, err := c.embedder.Embed(ctx, query)
	if err != nil {
		c.logger.Warn("semantic_search_degraded", "error", err.Error())
		return nil
	}

	results, err := c.vectors.Search(ctx, queryVec, limit, c.cfg.MinScore)
	if err != nil {
		c.logger.Warn("semantic_search_degraded", "error", err.Error())
		return nil
	}
	return results
}

// fuse merges the two result lists. Semantic results go first in score
// order; a document found by both paths keeps its semantic score and is
// tagged MatchBoth. Lexical-only documents are appended in lexical rank
// order at the fixed keyword score.
func (c *Coordinator) fuse(ctx context.Context, semantic, lexical []store.SearchResult, limit int) []store.SearchResult {
	lexByDoc := make(map[string]store.SearchResult, len(lexical))
	for _, r := range lexical {
		lexByDoc[r.DocID] = r
	}

	merged := make([]store.SearchResult, 0, len(semantic)+len(lexical))
	seen := make(map[string]struct{}, len(semantic))

	for _, r := range semantic {
		seen[r.DocID] = struct{}{}
		if lex, ok := lexByDoc[r.DocID]; ok {
			r.Match = store.MatchBoth
			if r.Snippet == "" {
				r.Snippet = lex.Snippet
			}
		}
		c.hydrate(ctx, &r)
		merged = append(merged, r)
	}

	for _, r := range lexical {
		if _, ok := seen[r.DocID]; ok {
			continue
		}
		r.Score = c.cfg.KeywordScore
		r.Match = store.MatchKeyword
		merged = append(merged, r)
	}

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// hydrate fills path and title on semantic results from the document
// store; lexical results already carry them from stored fields.
func (c *Coordinator) hydrate(ctx context.Context, r *store.SearchResult) {
	if r.Path != "" && r.Title != "" {
		return
	}
	doc, err := c.docs.GetDocument(ctx, r.DocID)
	if err != nil || doc == nil {
		return
	}
	r.Path = doc.Path
	r.Title = doc.Title
}
