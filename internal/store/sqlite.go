package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	"github.com/noteseek/noteseek/internal/embed"
	seekerrors "github.com/noteseek/noteseek/internal/errors"
)

// SQLiteStore persists documents, chunks, and the scan checkpoint in one
// SQLite database under the data directory.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	dims   int
	logger *slog.Logger
}

var (
	_ DocumentStore   = (*SQLiteStore)(nil)
	_ CheckpointStore = (*SQLiteStore)(nil)
)

// NewSQLiteStore opens or creates the store database. path may be empty for
// an in-memory store in tests. dims is the expected vector width; stored
// blobs of any other width are rejected as corrupt on read.
func NewSQLiteStore(path string, dims int, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dims <= 0 {
		dims = embed.DefaultDimensions
	}

	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, seekerrors.IOError("create data directory", err)
		}

		if err := validateIntegrity(path); err != nil {
			logger.Warn("store_corrupted",
				"path", path,
				"error", err.Error())

			// Auto-clear and reindex rather than refuse to start.
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				return nil, seekerrors.New(seekerrors.ErrCodeCorruptIndex,
					"store corrupted and cannot be cleared", rmErr)
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")
			logger.Info("store_cleared", "path", path)
		}

		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, seekerrors.IOError("open store database", err)
	}

	// Single writer; WAL readers do not block on it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// modernc.org/sqlite ignores DSN pragma params; set them explicitly.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, seekerrors.IOError("set pragma", err)
		}
	}

	s := &SQLiteStore{db: db, path: path, dims: dims, logger: logger}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, seekerrors.IOError("initialize schema", err)
	}
	return s, nil
}

// validateIntegrity runs a quick integrity check before opening for real.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS documents (
		id          TEXT PRIMARY KEY,
		path        TEXT NOT NULL UNIQUE,
		name        TEXT NOT NULL DEFAULT '',
		title       TEXT NOT NULL,
		body        TEXT NOT NULL DEFAULT '',
		doc_type    TEXT NOT NULL DEFAULT 'plain',
		tags        TEXT NOT NULL DEFAULT '[]',
		links       TEXT NOT NULL DEFAULT '[]',
		word_count  INTEGER NOT NULL DEFAULT 0,
		size        INTEGER NOT NULL DEFAULT 0,
		mod_time    INTEGER NOT NULL,
		indexed_at  INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chunks (
		doc_id     TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		ordinal    INTEGER NOT NULL,
		text       TEXT NOT NULL,
		vector     BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (doc_id, ordinal)
	);

	-- Singleton: id is always 1.
	CREATE TABLE IF NOT EXISTS checkpoint (
		id                  INTEGER PRIMARY KEY CHECK (id = 1),
		scan_id             TEXT NOT NULL,
		status              TEXT NOT NULL,
		root                TEXT NOT NULL DEFAULT '',
		last_processed_path TEXT NOT NULL DEFAULT '',
		processed_count     INTEGER NOT NULL DEFAULT 0,
		total_count         INTEGER NOT NULL DEFAULT 0,
		started_at          INTEGER NOT NULL,
		updated_at          INTEGER NOT NULL,
		error_message       TEXT NOT NULL DEFAULT ''
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// UpsertDocument writes the document and its chunks in one transaction.
// An observer never sees a document without its chunks or stale chunks
// from a previous version.
func (s *SQLiteStore) UpsertDocument(ctx context.Context, doc *Document, chunks []Chunk) error {
	tags, err := json.Marshal(doc.Tags)
	if err != nil {
		return seekerrors.InternalError("marshal tags", err)
	}
	links, err := json.Marshal(doc.Links)
	if err != nil {
		return seekerrors.InternalError("marshal links", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return seekerrors.IOError("begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, path, name, title, body, doc_type, tags, links,
			word_count, size, mod_time, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path = excluded.path,
			name = excluded.name,
			title = excluded.title,
			body = excluded.body,
			doc_type = excluded.doc_type,
			tags = excluded.tags,
			links = excluded.links,
			word_count = excluded.word_count,
			size = excluded.size,
			mod_time = excluded.mod_time,
			indexed_at = excluded.indexed_at`,
		doc.ID, doc.Path, doc.Name, doc.Title, doc.Body, doc.DocType,
		string(tags), string(links), doc.WordCount, doc.Size,
		doc.ModTime.Unix(), doc.IndexedAt.Unix())
	if err != nil {
		return seekerrors.IOError("upsert document", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE doc_id = ?`, doc.ID); err != nil {
		return seekerrors.IOError("clear prior chunks", err)
	}

	for _, c := range chunks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO chunks (doc_id, ordinal, text, vector, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			doc.ID, c.Ordinal, c.Text, embed.EncodeVector(c.Vector), c.CreatedAt.Unix())
		if err != nil {
			return seekerrors.IOError("insert chunk", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return seekerrors.IOError("commit document", err)
	}
	return nil
}

// GetDocument returns the document by id, or nil when absent.
func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	return s.getDocument(ctx, `WHERE id = ?`, id)
}

// GetDocumentByPath returns the document by absolute path, or nil.
func (s *SQLiteStore) GetDocumentByPath(ctx context.Context, path string) (*Document, error) {
	return s.getDocument(ctx, `WHERE path = ?`, path)
}

func (s *SQLiteStore) getDocument(ctx context.Context, where string, arg any) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, path, name, title, body, doc_type, tags, links,
		       word_count, size, mod_time, indexed_at
		FROM documents `+where, arg)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, seekerrors.IOError("read document", err)
	}
	return doc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var (
		doc       Document
		tags      string
		links     string
		modTime   int64
		indexedAt int64
	)
	err := row.Scan(&doc.ID, &doc.Path, &doc.Name, &doc.Title, &doc.Body,
		&doc.DocType, &tags, &links, &doc.WordCount, &doc.Size,
		&modTime, &indexedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &doc.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal([]byte(links), &doc.Links); err != nil {
		return nil, fmt.Errorf("decode links: %w", err)
	}
	doc.ModTime = time.Unix(modTime, 0)
	doc.IndexedAt = time.Unix(indexedAt, 0)
	return &doc, nil
}

// DeleteDocument removes the document; chunks cascade in the same
// statement's transaction.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return seekerrors.IOError("delete document", err)
	}
	return nil
}

// ListDocuments returns all documents ordered by path.
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, name, title, body, doc_type, tags, links,
		       word_count, size, mod_time, indexed_at
		FROM documents ORDER BY path`)
	if err != nil {
		return nil, seekerrors.IOError("list documents", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, seekerrors.IOError("read document row", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// AllChunks returns every stored chunk with its decoded vector. A chunk
// whose stored vector fails to decode is treated as having no embedding:
// it is logged and excluded rather than failing the whole load, so one
// corrupt blob cannot keep the engine from starting.
func (s *SQLiteStore) AllChunks(ctx context.Context) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_id, ordinal, text, vector, created_at
		FROM chunks ORDER BY doc_id, ordinal`)
	if err != nil {
		return nil, seekerrors.IOError("list chunks", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var (
			c         Chunk
			blob      []byte
			createdAt int64
		)
		if err := rows.Scan(&c.DocID, &c.Ordinal, &c.Text, &blob, &createdAt); err != nil {
			return nil, seekerrors.IOError("read chunk row", err)
		}
		c.Vector, err = embed.DecodeVector(blob, s.dims)
		if err != nil {
			s.logger.Warn("chunk_vector_corrupt",
				"doc_id", c.DocID,
				"ordinal", c.Ordinal,
				"error", err.Error())
			continue
		}
		c.CreatedAt = time.Unix(createdAt, 0)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Stats returns document and chunk counts.
func (s *SQLiteStore) Stats(ctx context.Context) (int, int, error) {
	var docs, chunks int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&docs); err != nil {
		return 0, 0, seekerrors.IOError("count documents", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&chunks); err != nil {
		return 0, 0, seekerrors.IOError("count chunks", err)
	}
	return docs, chunks, nil
}

// Clear removes all documents and chunks. The checkpoint survives; full
// scans overwrite it separately.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return seekerrors.IOError("clear documents", err)
	}
	return nil
}

// GetCheckpoint returns the singleton checkpoint, or nil when none exists.
func (s *SQLiteStore) GetCheckpoint(ctx context.Context) (*Checkpoint, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT scan_id, status, root, last_processed_path, processed_count,
		       total_count, started_at, updated_at, error_message
		FROM checkpoint WHERE id = 1`)

	var (
		cp        Checkpoint
		startedAt int64
		updatedAt int64
	)
	err := row.Scan(&cp.ScanID, &cp.Status, &cp.Root, &cp.LastProcessedPath,
		&cp.ProcessedCount, &cp.TotalCount, &startedAt, &updatedAt, &cp.ErrorMessage)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, seekerrors.IOError("read checkpoint", err)
	}

	cp.StartedAt = time.Unix(startedAt, 0)
	cp.UpdatedAt = time.Unix(updatedAt, 0)
	return &cp, nil
}

// SaveCheckpoint overwrites the singleton checkpoint record.
func (s *SQLiteStore) SaveCheckpoint(ctx context.Context, cp *Checkpoint) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoint (id, scan_id, status, root, last_processed_path,
			processed_count, total_count, started_at, updated_at, error_message)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			scan_id = excluded.scan_id,
			status = excluded.status,
			root = excluded.root,
			last_processed_path = excluded.last_processed_path,
			processed_count = excluded.processed_count,
			total_count = excluded.total_count,
			started_at = excluded.started_at,
			updated_at = excluded.updated_at,
			error_message = excluded.error_message`,
		cp.ScanID, cp.Status, cp.Root, cp.LastProcessedPath, cp.ProcessedCount,
		cp.TotalCount, cp.StartedAt.Unix(), cp.UpdatedAt.Unix(), cp.ErrorMessage)
	if err != nil {
		return seekerrors.IOError("save checkpoint", err)
	}
	return nil
}

// ClearCheckpoint removes the checkpoint record.
func (s *SQLiteStore) ClearCheckpoint(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoint WHERE id = 1`); err != nil {
		return seekerrors.IOError("clear checkpoint", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
