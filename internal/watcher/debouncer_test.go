package watcher

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects dispatched actions.
type recorder struct {
	mu      sync.Mutex
	actions []Action
	paths   []string
}

func (r *recorder) dispatch(path string, action Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	r.actions = append(r.actions, action)
}

func (r *recorder) snapshot() ([]string, []Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...), append([]Action(nil), r.actions...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestDebouncer_RapidEventsCoalesceToOneAction(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(30*time.Millisecond, rec.dispatch)
	defer d.Close()

	// Editor autosave burst: five writes in quick succession.
	for i := 0; i < 5; i++ {
		d.Observe("/n/a.md", ActionIndex)
		time.Sleep(5 * time.Millisecond)
	}

	waitFor(t, func() bool { paths, _ := rec.snapshot(); return len(paths) > 0 })
	time.Sleep(60 * time.Millisecond)

	paths, actions := rec.snapshot()
	require.Len(t, paths, 1, "burst must collapse to exactly one dispatch")
	assert.Equal(t, "/n/a.md", paths[0])
	assert.Equal(t, ActionIndex, actions[0])
}

func TestDebouncer_PerPathTimersAreIndependent(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(20*time.Millisecond, rec.dispatch)
	defer d.Close()

	d.Observe("/n/a.md", ActionIndex)
	d.Observe("/n/b.md", ActionIndex)

	waitFor(t, func() bool { paths, _ := rec.snapshot(); return len(paths) == 2 })

	paths, _ := rec.snapshot()
	assert.ElementsMatch(t, []string{"/n/a.md", "/n/b.md"}, paths)
}

func TestDebouncer_NewerActionSupersedesPending(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(30*time.Millisecond, rec.dispatch)
	defer d.Close()

	// A write immediately followed by a delete dispatches only the remove.
	d.Observe("/n/a.md", ActionIndex)
	d.Observe("/n/a.md", ActionRemove)

	waitFor(t, func() bool { paths, _ := rec.snapshot(); return len(paths) > 0 })
	time.Sleep(60 * time.Millisecond)

	paths, actions := rec.snapshot()
	require.Len(t, paths, 1)
	assert.Equal(t, ActionRemove, actions[0])
}

func TestDebouncer_CloseCancelsPending(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(30*time.Millisecond, rec.dispatch)

	d.Observe("/n/a.md", ActionIndex)
	require.Equal(t, 1, d.PendingCount())

	d.Close()
	time.Sleep(60 * time.Millisecond)

	paths, _ := rec.snapshot()
	assert.Empty(t, paths, "nothing dispatches after Close")
	assert.Zero(t, d.PendingCount())
}

func TestDebouncer_ObserveAfterCloseIsIgnored(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(10*time.Millisecond, rec.dispatch)
	d.Close()

	d.Observe("/n/a.md", ActionIndex)
	time.Sleep(30 * time.Millisecond)

	paths, _ := rec.snapshot()
	assert.Empty(t, paths)
}
