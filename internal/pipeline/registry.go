package pipeline

import (
	"sync"
	"sync/atomic"
	"time"
)

// Registry tracks the active run per owner. At most one run may be active
// for an owner at a time; this is the only concurrency invariant in the
// system.
type Registry struct {
	mu   sync.Mutex
	runs map[int64]*Handle
}

// NewRegistry creates an empty run registry.
func NewRegistry() *Registry {
	return &Registry{runs: make(map[int64]*Handle)}
}

// TryAcquire registers a new run for owner. It fails with
// ErrAlreadyRunning if the owner already has an active run.
func (r *Registry) TryAcquire(owner int64, label string) (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[owner]; ok {
		return nil, ErrAlreadyRunning
	}
	h := &Handle{owner: owner, label: label, startedAt: time.Now()}
	r.runs[owner] = h
	return h, nil
}

// Release frees the owner's run slot so a new run can start.
func (r *Registry) Release(owner int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runs, owner)
}

// Active returns the owner's current run handle, if any.
func (r *Registry) Active(owner int64) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.runs[owner]
	return h, ok
}

// Handle is the ephemeral state of one run: the cooperative stop flag and
// live counters for status display. The stop flag is polled only at the
// top of the per-item loop; in-flight operations are never interrupted.
type Handle struct {
	owner     int64
	label     string
	startedAt time.Time

	stop      atomic.Bool
	cursor    atomic.Int64
	total     atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
}

// Stop requests a cooperative stop. The run terminates before starting
// the next item.
func (h *Handle) Stop() { h.stop.Store(true) }

// Stopped reports whether a stop has been requested.
func (h *Handle) Stopped() bool { return h.stop.Load() }

// Progress is a point-in-time snapshot of a run.
type Progress struct {
	Label     string
	StartedAt time.Time
	Cursor    int
	Total     int
	Processed int
	Failed    int
	Skipped   int
}

// Snapshot returns the run's current progress.
func (h *Handle) Snapshot() Progress {
	return Progress{
		Label:     h.label,
		StartedAt: h.startedAt,
		Cursor:    int(h.cursor.Load()),
		Total:     int(h.total.Load()),
		Processed: int(h.processed.Load()),
		Failed:    int(h.failed.Load()),
		Skipped:   int(h.skipped.Load()),
	}
}
