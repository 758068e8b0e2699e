// Package watcher observes filesystem changes under the notes folder and
// coalesces them into index and remove actions.
package watcher

import (
	"sync"
	"time"
)

// Action is the processing decision for a settled file event.
type Action int

const (
	// ActionIndex re-indexes the file (create, modify, move-in).
	ActionIndex Action = iota
	// ActionRemove removes the file from the index (delete, move-out).
	ActionRemove
)

// DefaultDebounce is the per-path quiet window. Editor autosave bursts
// within the window collapse into one action.
const DefaultDebounce = 500 * time.Millisecond

// DispatchFunc receives exactly one action per settled path.
type DispatchFunc func(path string, action Action)

// Debouncer maintains one pending timer per path. A new event for the same
// path cancels and restarts the timer, keeping only the newest action.
type Debouncer struct {
	window   time.Duration
	dispatch DispatchFunc

	mu      sync.Mutex
	pending map[string]*pendingEvent
	closed  bool
}

type pendingEvent struct {
	timer  *time.Timer
	action Action
}

// NewDebouncer creates a debouncer with the given quiet window.
func NewDebouncer(window time.Duration, dispatch DispatchFunc) *Debouncer {
	if window <= 0 {
		window = DefaultDebounce
	}
	return &Debouncer{
		window:   window,
		dispatch: dispatch,
		pending:  make(map[string]*pendingEvent),
	}
}

// Observe records an event for path, superseding any pending action for
// the same path.
func (d *Debouncer) Observe(path string, action Action) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	if prev, ok := d.pending[path]; ok {
		// Stop may lose the race with an expired timer; the fire callback
		// checks map identity before dispatching, so a superseded timer
		// that already fired becomes a no-op.
		prev.timer.Stop()
	}

	ev := &pendingEvent{action: action}
	ev.timer = time.AfterFunc(d.window, func() { d.fire(path, ev) })
	d.pending[path] = ev
}

// fire dispatches a settled event unless it was superseded or the
// debouncer closed while the timer was in flight.
func (d *Debouncer) fire(path string, ev *pendingEvent) {
	d.mu.Lock()
	if d.closed || d.pending[path] != ev {
		d.mu.Unlock()
		return
	}
	delete(d.pending, path)
	d.mu.Unlock()

	d.dispatch(path, ev.action)
}

// PendingCount returns the number of paths with an undispatched action.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Close cancels all pending timers. Nothing dispatches after Close
// returns.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	for path, ev := range d.pending {
		ev.timer.Stop()
		delete(d.pending, path)
	}
}
