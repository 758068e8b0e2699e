// Package store persists documents, chunks, and scan checkpoints, and
// serves the two retrieval paths: brute-force vector similarity and bleve
// full-text search.
package store

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"path/filepath"
	"strings"
	"time"
)

// Scan status values for Checkpoint.Status.
const (
	ScanInProgress = "in_progress"
	ScanCompleted  = "completed"
	ScanFailed     = "failed"
)

// MatchKind tags how a search result was found.
type MatchKind string

const (
	// MatchSemantic means the result came from vector similarity only.
	MatchSemantic MatchKind = "semantic"
	// MatchKeyword means the result came from the lexical index only.
	MatchKeyword MatchKind = "keyword"
	// MatchBoth means both retrieval paths found the document.
	MatchBoth MatchKind = "both"
)

// Document type tags.
const (
	DocTypeMarkdown = "markdown"
	DocTypePlain    = "plain"
)

// Document is one indexed note file.
type Document struct {
	// ID is the hex MD5 of the absolute file path. Stable across content
	// changes, so re-indexing a file updates in place.
	ID   string
	Path string
	// Name is the file's base name, used for display.
	Name  string
	Title string
	// Body is the cleaned text the chunks were cut from.
	Body string
	// DocType is DocTypeMarkdown or DocTypePlain, from the extension.
	DocType   string
	Tags      []string
	Links     []string
	WordCount int
	// Size is the file size in bytes at index time.
	Size int64
	// ModTime is the file's content-modification time, truncated to
	// seconds; the unchanged-file short-circuit compares against it.
	ModTime   time.Time
	IndexedAt time.Time
}

// Chunk is one embedded slice of a document body.
type Chunk struct {
	DocID string
	// Ordinal is the position within the document, contiguous from 0.
	Ordinal int
	Text    string
	// Vector is unit-normalized before persistence, so similarity is a
	// plain dot product.
	Vector    []float32
	CreatedAt time.Time
}

// Checkpoint is the singleton scan progress record.
type Checkpoint struct {
	ScanID string
	Status string
	// Root is the notes folder the scan ran against. A checkpoint written
	// for a different folder must not be resumed.
	Root string
	// LastProcessedPath is the lexicographic resume cursor; resume
	// continues from the first eligible path strictly greater than it.
	LastProcessedPath string
	ProcessedCount    int
	TotalCount        int
	StartedAt         time.Time
	UpdatedAt         time.Time
	ErrorMessage      string
}

// SearchResult is one ranked hit from either retrieval path.
type SearchResult struct {
	DocID   string
	Path    string
	Title   string
	Score   float32
	Snippet string
	Match   MatchKind
}

// DocumentStore persists documents and their chunks transactionally.
type DocumentStore interface {
	// UpsertDocument writes the document and its full chunk set in one
	// transaction; prior chunks for the document are replaced.
	UpsertDocument(ctx context.Context, doc *Document, chunks []Chunk) error

	// GetDocument returns the document by id, or nil when absent.
	GetDocument(ctx context.Context, id string) (*Document, error)

	// GetDocumentByPath returns the document by absolute path, or nil.
	GetDocumentByPath(ctx context.Context, path string) (*Document, error)

	// DeleteDocument removes the document and all its chunks atomically.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns all documents ordered by path.
	ListDocuments(ctx context.Context) ([]*Document, error)

	// AllChunks streams every stored chunk, used to warm the vector index.
	AllChunks(ctx context.Context) ([]Chunk, error)

	// Stats returns document and chunk counts.
	Stats(ctx context.Context) (docs, chunks int, err error)

	// Clear removes all documents and chunks. Full scans start here.
	Clear(ctx context.Context) error

	Close() error
}

// CheckpointStore persists the singleton scan checkpoint.
type CheckpointStore interface {
	// GetCheckpoint returns the checkpoint, or nil when none exists.
	GetCheckpoint(ctx context.Context) (*Checkpoint, error)

	// SaveCheckpoint overwrites the singleton checkpoint record.
	SaveCheckpoint(ctx context.Context, cp *Checkpoint) error

	// ClearCheckpoint removes the checkpoint record.
	ClearCheckpoint(ctx context.Context) error
}

// DocumentID derives the stable document id for an absolute file path.
func DocumentID(path string) string {
	sum := md5.Sum([]byte(path))
	return hex.EncodeToString(sum[:])
}

// DocTypeForPath classifies a file by extension.
func DocTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return DocTypeMarkdown
	default:
		return DocTypePlain
	}
}
