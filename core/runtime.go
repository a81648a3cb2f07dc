package core

import (
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"code.hybscloud.com/atomix"
)

// Runtime is the process-wide thread service: it issues thread ids and names,
// owns the native backend and the registry that answers Current, and carries
// the logger, metrics and panic handler every Thread reports to.
//
// Construct one with NewRuntime and pass it where threads are created; the
// root package keeps a default instance for code that prefers package-level
// functions.
type Runtime struct {
	backend         Backend
	priorities      PriorityTable
	registry        *Registry
	logger          Logger
	metrics         Metrics
	panicHandler    PanicHandler
	namePrefix      string
	defaultPriority Priority
	history         *threadHistory

	// ids is the source of thread ids, MakeName and UniqueID.
	ids atomix.Uint32

	started         atomic.Int64
	finished        atomic.Int64
	spawnFailures   atomic.Int64
	priorityRejects atomic.Int64
	joinTimeouts    atomic.Int64
	panics          atomic.Int64
}

// NewRuntime creates a Runtime. A nil cfg uses DefaultRuntimeConfig; zero
// fields of a non-nil cfg are filled with their defaults.
func NewRuntime(cfg *RuntimeConfig) *Runtime {
	defaults := DefaultRuntimeConfig()
	if cfg == nil {
		cfg = defaults
	}

	r := &Runtime{
		backend:         cfg.Backend,
		registry:        NewRegistry(),
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
		panicHandler:    cfg.PanicHandler,
		namePrefix:      cfg.NamePrefix,
		defaultPriority: cfg.DefaultPriority,
	}
	if r.backend == nil {
		r.backend = defaults.Backend
	}
	if r.logger == nil {
		r.logger = defaults.Logger
	}
	if r.metrics == nil {
		r.metrics = defaults.Metrics
	}
	if r.namePrefix == "" {
		r.namePrefix = defaults.NamePrefix
	}
	if !r.defaultPriority.Valid() {
		r.defaultPriority = PriorityNormal
	}
	r.priorities = r.backend.Priorities()
	r.history = newThreadHistory(cfg.HistorySize)
	return r
}

// NewThread creates a thread with a generated name. Call Start to run it.
func (r *Runtime) NewThread() *Thread {
	id := r.UniqueID()
	return newThread(r, id, r.namePrefix+strconv.Itoa(id))
}

// NewNamedThread creates a named thread. Call Start to run it.
func (r *Runtime) NewNamedThread(name string) *Thread {
	if name == "" {
		return r.NewThread()
	}
	return newThread(r, r.UniqueID(), name)
}

// Go creates a thread with a generated name and starts fn on it.
func (r *Runtime) Go(fn func()) (*Thread, error) {
	t := r.NewThread()
	if err := t.StartFunc(fn); err != nil {
		return nil, err
	}
	return t, nil
}

// UniqueID returns a fresh id. Ids increase monotonically and are never
// reused within the Runtime.
func (r *Runtime) UniqueID() int {
	return int(r.ids.Add(1))
}

// MakeName returns a name no other generated name of this Runtime shares.
func (r *Runtime) MakeName() string {
	return r.namePrefix + strconv.Itoa(r.UniqueID())
}

// Sleep suspends the calling thread for d. d <= 0 returns immediately.
func (r *Runtime) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	r.backend.Sleep(d)
}

// Yield lets other threads run.
func (r *Runtime) Yield() {
	r.backend.Yield()
}

// Current returns the Thread running the caller, or nil if the caller is not
// a thread started by this Runtime (e.g. the main goroutine) or its handle has
// been closed.
func (r *Runtime) Current() *Thread {
	return r.registry.Lookup(r.backend.CurrentID())
}

// Local returns the calling thread's local storage.
func (r *Runtime) Local() (*LocalStorage, error) {
	t := r.Current()
	if t == nil {
		return nil, fmt.Errorf("%w: caller is not a managed thread", ErrIllegalState)
	}
	return t.Local()
}

// Threads returns the threads currently registered as running.
func (r *Runtime) Threads() []*Thread {
	return r.registry.Threads()
}

// RecentThreads returns up to limit finished threads, newest first.
func (r *Runtime) RecentThreads(limit int) []ThreadRecord {
	return r.history.Recent(limit)
}

// Logger returns the runtime's logger.
func (r *Runtime) Logger() Logger {
	return r.logger
}

// Stats returns a snapshot of runtime counters.
func (r *Runtime) Stats() RuntimeStats {
	stats := RuntimeStats{
		Started:          r.started.Load(),
		Finished:         r.finished.Load(),
		Live:             r.registry.Len(),
		SpawnFailures:    r.spawnFailures.Load(),
		PriorityRejected: r.priorityRejects.Load(),
		JoinTimeouts:     r.joinTimeouts.Load(),
		Panics:           r.panics.Load(),
	}
	if last, ok := r.history.Last(); ok {
		stats.LastThreadName = last.Name
		stats.LastThreadEndedAt = last.FinishedAt
	}
	return stats
}

// =============================================================================
// Lifecycle reporting
// =============================================================================

func (r *Runtime) threadStarted(t *Thread, priority Priority) {
	r.started.Add(1)
	r.metrics.RecordThreadStarted(priority)
	r.logger.Debug("thread started", F("thread", t.Name()), F("id", t.ID()), F("priority", priority.String()))
}

func (r *Runtime) threadFinished(record ThreadRecord) {
	r.finished.Add(1)
	if record.Panicked {
		r.panics.Add(1)
	}
	r.history.Add(record)
	r.metrics.RecordThreadFinished(record.Priority, record.Duration, record.Panicked)
	r.logger.Debug("thread finished",
		F("thread", record.Name),
		F("id", record.ID),
		F("duration", record.Duration.String()),
		F("panicked", record.Panicked),
	)
}

func (r *Runtime) spawnFailed(name string, err error) {
	r.spawnFailures.Add(1)
	reason := "backend"
	if errors.Is(err, ErrThreadLimit) {
		reason = "thread_limit"
	}
	r.metrics.RecordSpawnFailure(reason)
	r.logger.Warn("thread spawn failed", F("thread", name), F("error", err))
}

func (r *Runtime) priorityRejected(name string, p Priority, err error) {
	r.priorityRejects.Add(1)
	r.metrics.RecordPriorityRejected(p)
	r.logger.Debug("thread priority not applied", F("thread", name), F("priority", p.String()), F("error", err))
}

func (r *Runtime) joinTimedOut() {
	r.joinTimeouts.Add(1)
	r.metrics.RecordJoinTimeout()
}
