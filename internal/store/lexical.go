package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	seekerrors "github.com/noteseek/noteseek/internal/errors"
)

// LexicalIndex wraps a bleve index for keyword retrieval over note titles,
// bodies, and file names. Free-text queries are translated to per-word
// prefix matching so partially typed words still hit.
type LexicalIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
	logger *slog.Logger
}

// lexicalDoc is the bleve document shape.
type lexicalDoc struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	FileName string `json:"file_name"`
	Path     string `json:"path"`
}

// NewLexicalIndex opens or creates a bleve index at path. An empty path
// creates an in-memory index for tests. A corrupted on-disk index is
// cleared and recreated; the next scan repopulates it.
func NewLexicalIndex(path string, logger *slog.Logger) (*LexicalIndex, error) {
	if logger == nil {
		logger = slog.Default()
	}

	im := buildMapping()

	var (
		idx bleve.Index
		err error
	)
	if path == "" {
		idx, err = bleve.NewMemOnly(im)
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, seekerrors.IOError("create index directory", mkErr)
		}

		if validErr := validateBleveIntegrity(path); validErr != nil {
			logger.Warn("lexical_index_corrupted",
				"path", path,
				"error", validErr.Error())
			if rmErr := os.RemoveAll(path); rmErr != nil {
				return nil, seekerrors.New(seekerrors.ErrCodeCorruptIndex,
					"lexical index corrupted and cannot be cleared", rmErr)
			}
			logger.Info("lexical_index_cleared", "path", path)
		}

		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, im)
		}
	}
	if err != nil {
		return nil, seekerrors.IOError("open lexical index", err)
	}

	return &LexicalIndex{index: idx, path: path, logger: logger}, nil
}

// buildMapping indexes title, body, and file_name with the standard
// analyzer (no stemming, so prefix terms match what was indexed) and
// stores title and path for result hydration.
func buildMapping() *mapping.IndexMappingImpl {
	text := bleve.NewTextFieldMapping()
	text.Store = true

	pathField := bleve.NewKeywordFieldMapping()
	pathField.Store = true
	pathField.Index = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("title", text)
	doc.AddFieldMappingsAt("body", text)
	doc.AddFieldMappingsAt("file_name", text)
	doc.AddFieldMappingsAt("path", pathField)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	return im
}

// validateBleveIntegrity checks the index metadata before opening.
func validateBleveIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing")
	}
	if err != nil {
		return fmt.Errorf("stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("read index_meta.json: %w", err)
	}
	var meta map[string]any
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}
	return nil
}

// IndexDocument adds or replaces one document in the index.
func (l *LexicalIndex) IndexDocument(ctx context.Context, id, title, body, fileName, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return seekerrors.IOError("lexical index is closed", nil)
	}

	doc := lexicalDoc{Title: title, Body: body, FileName: fileName, Path: path}
	if err := l.index.Index(id, doc); err != nil {
		return seekerrors.IOError("index document", err)
	}
	return nil
}

// RemoveDocument deletes one document from the index. Removing an absent
// id is not an error.
func (l *LexicalIndex) RemoveDocument(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return seekerrors.IOError("lexical index is closed", nil)
	}
	if err := l.index.Delete(id); err != nil {
		return seekerrors.IOError("remove document", err)
	}
	return nil
}

// Search translates the free-text query into per-word prefix matching and
// returns ranked hits with highlighted body fragments. All words must
// match; each word may match in the title, body, or file name.
func (l *LexicalIndex) Search(ctx context.Context, queryStr string, limit int) ([]SearchResult, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, seekerrors.IOError("lexical index is closed", nil)
	}

	words := strings.Fields(strings.ToLower(queryStr))
	if len(words) == 0 || limit <= 0 {
		return nil, nil
	}

	conjuncts := make([]query.Query, 0, len(words))
	for _, word := range words {
		perField := make([]query.Query, 0, 3)
		for _, field := range []string{"title", "body", "file_name"} {
			pq := bleve.NewPrefixQuery(word)
			pq.SetField(field)
			perField = append(perField, pq)
		}
		conjuncts = append(conjuncts, bleve.NewDisjunctionQuery(perField...))
	}

	req := bleve.NewSearchRequest(bleve.NewConjunctionQuery(conjuncts...))
	req.Size = limit
	req.Fields = []string{"title", "path"}
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField("body")

	res, err := l.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, seekerrors.IOError("lexical search", err)
	}

	results := make([]SearchResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		r := SearchResult{
			DocID: hit.ID,
			Score: float32(hit.Score),
			Match: MatchKeyword,
		}
		if title, ok := hit.Fields["title"].(string); ok {
			r.Title = title
		}
		if p, ok := hit.Fields["path"].(string); ok {
			r.Path = p
		}
		if frags, ok := hit.Fragments["body"]; ok && len(frags) > 0 {
			r.Snippet = frags[0]
		}
		results = append(results, r)
	}
	return results, nil
}

// DocCount returns the number of indexed documents.
func (l *LexicalIndex) DocCount() (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return 0, seekerrors.IOError("lexical index is closed", nil)
	}
	return l.index.DocCount()
}

// Close closes the index.
func (l *LexicalIndex) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.index.Close()
}
