package scan

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/noteseek/noteseek/internal/chunk"
	"github.com/noteseek/noteseek/internal/config"
	"github.com/noteseek/noteseek/internal/embed"
	seekerrors "github.com/noteseek/noteseek/internal/errors"
	"github.com/noteseek/noteseek/internal/note"
	"github.com/noteseek/noteseek/internal/store"
)

// lockFileName is the cross-process scan lock under the data directory.
const lockFileName = "index.lock"

// Progress is one throttled progress notification.
type Progress struct {
	ScanID    string
	Processed int
	Total     int
	LastPath  string
	Done      bool
}

// ProgressFunc receives throttled progress notifications during a scan.
type ProgressFunc func(p Progress)

// Summary describes a finished scan run.
type Summary struct {
	ScanID    string
	Total     int
	Processed int
	Skipped   int
	Failed    int
	Removed   int
	Duration  time.Duration
}

// Manager orchestrates indexing runs. Per-document processing is
// serialized through keyed locks; across documents the worker pool runs in
// parallel. A flock under the data directory keeps concurrent processes
// from scanning the same index.
type Manager struct {
	root     string
	cfg      *config.Config
	docs     store.DocumentStore
	cps      store.CheckpointStore
	vectors  *store.VectorIndex
	lexical  *store.LexicalIndex
	embedder embed.Embedder
	logger   *slog.Logger
	progress ProgressFunc
	retry    seekerrors.RetryConfig
	lock     *flock.Flock

	docLocks sync.Map // absolute path -> *sync.Mutex
}

// NewManager creates a scan manager rooted at the notes folder.
func NewManager(root string, cfg *config.Config, docs store.DocumentStore, cps store.CheckpointStore,
	vectors *store.VectorIndex, lexical *store.LexicalIndex, embedder embed.Embedder, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		root:     root,
		cfg:      cfg,
		docs:     docs,
		cps:      cps,
		vectors:  vectors,
		lexical:  lexical,
		embedder: embedder,
		logger:   logger,
		retry:    seekerrors.DefaultRetryConfig(),
		lock:     flock.New(filepath.Join(config.DataDir(root), lockFileName)),
	}
}

// SetProgressFunc installs the throttled progress callback. Must be set
// before starting a scan.
func (m *Manager) SetProgressFunc(fn ProgressFunc) { m.progress = fn }

// FullScan clears all indexed state and reprocesses every eligible file.
func (m *Manager) FullScan(ctx context.Context) (*Summary, error) {
	files, err := EnumerateFiles(m.root, m.cfg.Paths)
	if err != nil {
		return nil, err
	}

	if err := m.clearAll(ctx); err != nil {
		return nil, err
	}

	cp := &store.Checkpoint{
		ScanID:    uuid.NewString(),
		Status:    store.ScanInProgress,
		Root:      m.root,
		StartedAt: time.Now(),
	}
	m.logger.Info("scan_started", "scan_id", cp.ScanID, "mode", "full", "files", len(files))
	return m.run(ctx, files, cp, false)
}

// IncrementalScan processes every eligible file (unchanged files
// short-circuit inside processFile) and removes documents whose backing
// file no longer exists.
func (m *Manager) IncrementalScan(ctx context.Context) (*Summary, error) {
	files, err := EnumerateFiles(m.root, m.cfg.Paths)
	if err != nil {
		return nil, err
	}

	cp := &store.Checkpoint{
		ScanID:    uuid.NewString(),
		Status:    store.ScanInProgress,
		Root:      m.root,
		StartedAt: time.Now(),
	}
	m.logger.Info("scan_started", "scan_id", cp.ScanID, "mode", "incremental", "files", len(files))
	return m.run(ctx, files, cp, true)
}

// Resume continues an interrupted scan from its checkpoint. With no
// checkpoint, a completed one, or one written for a different notes root,
// it behaves like an incremental scan. Only files with paths strictly
// greater than the checkpoint cursor are processed; the prior processed
// count carries forward.
func (m *Manager) Resume(ctx context.Context) (*Summary, error) {
	cp, err := m.cps.GetCheckpoint(ctx)
	if err != nil {
		return nil, err
	}
	if cp == nil || cp.Status == store.ScanCompleted {
		return m.IncrementalScan(ctx)
	}
	if cp.Root != m.root {
		// A cursor from another folder would skip files here.
		m.logger.Warn("checkpoint_root_mismatch",
			"checkpoint_root", cp.Root,
			"root", m.root)
		return m.IncrementalScan(ctx)
	}

	files, err := EnumerateFiles(m.root, m.cfg.Paths)
	if err != nil {
		return nil, err
	}

	// Strictly greater: the cursor path itself was already processed.
	remaining := files
	for i, path := range files {
		if path > cp.LastProcessedPath {
			remaining = files[i:]
			break
		}
		if i == len(files)-1 {
			remaining = nil
		}
	}

	cp.Status = store.ScanInProgress
	cp.ErrorMessage = ""
	m.logger.Info("scan_resumed",
		"scan_id", cp.ScanID,
		"cursor", cp.LastProcessedPath,
		"remaining", len(remaining),
		"prior_processed", cp.ProcessedCount)
	return m.run(ctx, remaining, cp, true)
}

// RunPeriodic runs incremental scans on a fixed interval until the context
// is cancelled. This is the fallback policy when the filesystem watcher is
// unavailable.
func (m *Manager) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = m.cfg.Scan.RescanInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := m.IncrementalScan(ctx); err != nil {
				m.logger.Warn("periodic_scan_failed", "error", err.Error())
			}
		}
	}
}

// clearAll removes all indexed state ahead of a full scan.
func (m *Manager) clearAll(ctx context.Context) error {
	docs, err := m.docs.ListDocuments(ctx)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		m.vectors.DeleteDocument(doc.ID)
		if err := m.lexical.RemoveDocument(ctx, doc.ID); err != nil {
			return err
		}
	}
	return m.docs.Clear(ctx)
}

// run is the shared scan loop: a bounded worker pool processes files while
// a watermark tracks the longest contiguous prefix of finished paths. Only
// watermark progress is checkpointed, so resume never skips an unfinished
// file that a faster later worker happened to pass.
func (m *Manager) run(ctx context.Context, files []string, cp *store.Checkpoint, removeMissing bool) (*Summary, error) {
	if err := os.MkdirAll(config.DataDir(m.root), 0o755); err != nil {
		return nil, seekerrors.IOError("create data directory", err)
	}

	locked, err := m.lock.TryLock()
	if err != nil {
		return nil, seekerrors.IOError("acquire scan lock", err)
	}
	if !locked {
		return nil, seekerrors.New(seekerrors.ErrCodeLockHeld,
			"another process is scanning this index", nil)
	}
	defer m.lock.Unlock()

	start := time.Now()
	cp.TotalCount = cp.ProcessedCount + len(files)
	cp.UpdatedAt = start
	if err := m.cps.SaveCheckpoint(ctx, cp); err != nil {
		return nil, err
	}

	tr := newTracker(m, cp, files)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Scan.Workers)

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			out, procErr := m.processWithRetry(gctx, path)
			tr.finish(gctx, i, out, procErr)
			return nil
		})
	}
	_ = g.Wait()

	summary := &Summary{
		ScanID:    cp.ScanID,
		Total:     len(files),
		Processed: tr.processed,
		Skipped:   tr.skipped,
		Failed:    tr.failed,
		Duration:  time.Since(start),
	}

	// An interrupted scan leaves the checkpoint in_progress for resume.
	if ctx.Err() != nil {
		m.logger.Warn("scan_interrupted",
			"scan_id", cp.ScanID, "processed", cp.ProcessedCount)
		return summary, ctx.Err()
	}

	if removeMissing {
		removed, err := m.removeMissing(ctx, files)
		if err != nil {
			return summary, err
		}
		summary.Removed = removed
	}

	if tr.failed > 0 {
		cp.Status = store.ScanFailed
		cp.ErrorMessage = strconv.Itoa(tr.failed) + " files failed after retries"
		cp.UpdatedAt = time.Now()
		if err := m.cps.SaveCheckpoint(ctx, cp); err != nil {
			return summary, err
		}
		tr.notify(true)
		return summary, seekerrors.New(seekerrors.ErrCodeScanFailed, cp.ErrorMessage, nil).
			WithDetail("scan_id", cp.ScanID)
	}

	cp.Status = store.ScanCompleted
	cp.UpdatedAt = time.Now()
	if err := m.cps.SaveCheckpoint(ctx, cp); err != nil {
		return summary, err
	}
	tr.notify(true)

	m.logger.Info("scan_completed",
		"scan_id", cp.ScanID,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"removed", summary.Removed,
		"duration_ms", summary.Duration.Milliseconds())
	return summary, nil
}

// removeMissing deletes documents whose backing file is no longer
// eligible.
func (m *Manager) removeMissing(ctx context.Context, files []string) (int, error) {
	current := make(map[string]struct{}, len(files))
	for _, path := range files {
		current[path] = struct{}{}
	}

	docs, err := m.docs.ListDocuments(ctx)
	if err != nil {
		return 0, err
	}

	var removed int
	for _, doc := range docs {
		if _, ok := current[doc.Path]; ok {
			continue
		}
		if err := m.RemoveFile(ctx, doc.Path); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// outcome classifies one file's processing result.
type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeSkipped
	outcomeFailed
)

// processWithRetry retries transient failures with backoff; parse errors
// skip the file without retrying.
func (m *Manager) processWithRetry(ctx context.Context, path string) (outcome, error) {
	var out outcome
	err := seekerrors.Retry(ctx, m.retry, func() error {
		var procErr error
		out, procErr = m.processFile(ctx, path)
		return procErr
	})
	if err != nil {
		if seekerrors.GetCode(err) == seekerrors.ErrCodeParseFailed {
			m.logger.Warn("file_skipped", "path", path, "error", err.Error())
			return outcomeSkipped, nil
		}
		m.logger.Error("file_failed", "path", path, "error", err.Error())
		return outcomeFailed, err
	}
	return out, nil
}

// pathLock returns the per-document mutex for a path. No two goroutines
// write the same document concurrently.
func (m *Manager) pathLock(path string) *sync.Mutex {
	mu, _ := m.docLocks.LoadOrStore(path, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// processFile indexes one file end to end: parse, chunk, embed, persist,
// mirror into the vector and lexical indexes.
func (m *Manager) processFile(ctx context.Context, path string) (outcome, error) {
	mu := m.pathLock(path)
	mu.Lock()
	defer mu.Unlock()

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		// Deleted mid-scan; nothing to index.
		return outcomeSkipped, nil
	}
	if err != nil {
		return outcomeFailed, seekerrors.IOError("stat file", err).WithDetail("path", path)
	}

	id := store.DocumentID(path)
	modTime := info.ModTime().Truncate(time.Second)

	existing, err := m.docs.GetDocument(ctx, id)
	if err != nil {
		return outcomeFailed, err
	}
	if existing != nil && !modTime.After(existing.ModTime) {
		return outcomeSkipped, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return outcomeFailed, seekerrors.IOError("read file", err).WithDetail("path", path)
	}

	parsed, err := note.Parse(raw, filepath.Base(path))
	if err != nil {
		return outcomeFailed, err
	}

	texts := chunk.Split(parsed.Body, m.cfg.Chunking.MaxChunkSize, m.cfg.Chunking.Overlap)

	chunks, err := m.embedChunks(ctx, id, texts)
	if err != nil {
		return outcomeFailed, err
	}

	doc := &store.Document{
		ID:        id,
		Path:      path,
		Name:      filepath.Base(path),
		Title:     parsed.Title,
		Body:      parsed.Body,
		DocType:   store.DocTypeForPath(path),
		Tags:      parsed.Tags,
		Links:     parsed.Links,
		WordCount: parsed.WordCount,
		Size:      info.Size(),
		ModTime:   modTime,
		IndexedAt: time.Now(),
	}

	if err := m.docs.UpsertDocument(ctx, doc, chunks); err != nil {
		return outcomeFailed, err
	}
	m.vectors.UpsertChunks(id, chunks)

	if err := m.lexical.IndexDocument(ctx, id, parsed.Title, parsed.Body, filepath.Base(path), path); err != nil {
		return outcomeFailed, err
	}
	return outcomeProcessed, nil
}

// embedChunks produces the chunk records. A retryable embedding failure
// propagates so the retry loop can try again; a non-retryable one degrades
// to lexical-only indexing for this document.
func (m *Manager) embedChunks(ctx context.Context, docID string, texts []string) ([]store.Chunk, error) {
	if m.embedder == nil || len(texts) == 0 {
		return nil, nil
	}

	vecs, err := m.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		if seekerrors.IsRetryable(err) {
			return nil, err
		}
		m.logger.Warn("semantic_indexing_degraded", "doc_id", docID, "error", err.Error())
		return nil, nil
	}

	now := time.Now()
	chunks := make([]store.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = store.Chunk{
			DocID:     docID,
			Ordinal:   i,
			Text:      text,
			Vector:    vecs[i],
			CreatedAt: now,
		}
	}
	return chunks, nil
}

// ProcessFile indexes a single file outside a scan run, used by the change
// watcher. Unchanged files short-circuit the same way scans do.
func (m *Manager) ProcessFile(ctx context.Context, path string) error {
	out, err := m.processWithRetry(ctx, path)
	if err != nil {
		return err
	}
	if out == outcomeProcessed {
		m.logger.Info("file_indexed", "path", path)
	}
	return nil
}

// RemoveFile deletes a document and all its chunks from every index.
func (m *Manager) RemoveFile(ctx context.Context, path string) error {
	mu := m.pathLock(path)
	mu.Lock()
	defer mu.Unlock()

	id := store.DocumentID(path)
	if err := m.docs.DeleteDocument(ctx, id); err != nil {
		return err
	}
	m.vectors.DeleteDocument(id)
	if err := m.lexical.RemoveDocument(ctx, id); err != nil {
		return err
	}
	m.logger.Info("file_removed", "path", path)
	return nil
}
