package scan

import (
	"context"
	"sync"
	"time"

	"github.com/noteseek/noteseek/internal/store"
)

// tracker accumulates per-file results and advances the checkpoint cursor.
// Workers finish out of order; the cursor only follows the watermark, the
// longest contiguous prefix of finished files, so a resume never skips a
// file an out-of-order worker had not finished.
//
// Checkpoint writes and progress notifications are throttled: every N
// files, every T elapsed, or on the final file, never per file.
type tracker struct {
	m     *Manager
	cp    *store.Checkpoint
	files []string

	mu            sync.Mutex
	done          []bool
	watermark     int
	baseProcessed int
	processed     int
	skipped       int
	failed        int
	sinceEmit     int
	lastEmit      time.Time
}

func newTracker(m *Manager, cp *store.Checkpoint, files []string) *tracker {
	return &tracker{
		m:             m,
		cp:            cp,
		files:         files,
		done:          make([]bool, len(files)),
		baseProcessed: cp.ProcessedCount,
		lastEmit:      time.Now(),
	}
}

// finish records one file's result and emits a throttled checkpoint update
// when due.
func (t *tracker) finish(ctx context.Context, i int, out outcome, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.done[i] = true
	switch out {
	case outcomeProcessed:
		t.processed++
	case outcomeSkipped:
		t.skipped++
	case outcomeFailed:
		t.failed++
	}

	for t.watermark < len(t.files) && t.done[t.watermark] {
		t.watermark++
	}
	if t.watermark > 0 {
		t.cp.LastProcessedPath = t.files[t.watermark-1]
	}
	t.cp.ProcessedCount = t.baseProcessed + t.watermark

	t.sinceEmit++
	final := t.watermark == len(t.files)
	due := t.sinceEmit >= t.m.cfg.Scan.ProgressEvery ||
		time.Since(t.lastEmit) >= t.m.cfg.Scan.ProgressInterval

	if !due && !final {
		return
	}

	t.cp.UpdatedAt = time.Now()
	if saveErr := t.m.cps.SaveCheckpoint(ctx, t.cp); saveErr != nil {
		t.m.logger.Warn("checkpoint_save_failed", "error", saveErr.Error())
	}
	t.notifyLocked(false)
	t.sinceEmit = 0
	t.lastEmit = time.Now()
}

// notify emits a progress notification outside the scan loop.
func (t *tracker) notify(done bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.notifyLocked(done)
}

func (t *tracker) notifyLocked(done bool) {
	if t.m.progress == nil {
		return
	}
	t.m.progress(Progress{
		ScanID:    t.cp.ScanID,
		Processed: t.cp.ProcessedCount,
		Total:     t.cp.TotalCount,
		LastPath:  t.cp.LastProcessedPath,
		Done:      done,
	})
}
