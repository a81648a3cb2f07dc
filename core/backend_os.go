package core

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// OSBackendConfig configures an OSBackend.
type OSBackendConfig struct {
	// MaxThreads caps the number of live spawned threads (0 = unlimited).
	// Spawning beyond the cap fails with ErrThreadLimit.
	MaxThreads int
}

// OSBackend runs every spawned thread on a goroutine locked to its own OS thread.
// The goroutine never unlocks, so when it exits the Go runtime terminates the
// OS thread rather than handing it back to the scheduler: one spawn, one kernel
// thread, for exactly the lifetime of the entry procedure.
type OSBackend struct {
	maxThreads int
	live       atomic.Int64
	priorities PriorityTable
}

var _ Backend = (*OSBackend)(nil)

// NewOSBackend creates a backend for the current platform.
func NewOSBackend(cfg OSBackendConfig) *OSBackend {
	return &OSBackend{
		maxThreads: cfg.MaxThreads,
		priorities: platformPriorities,
	}
}

// Spawn starts entry on a new locked OS thread.
func (b *OSBackend) Spawn(entry func()) (NativeThread, error) {
	if entry == nil {
		return nil, errors.New("nil entry procedure")
	}

	n := b.live.Add(1)
	if b.maxThreads > 0 && n > int64(b.maxThreads) {
		b.live.Add(-1)
		return nil, ErrThreadLimit
	}

	t := &osThread{done: make(chan struct{})}
	go t.run(entry, &b.live)
	return t, nil
}

// CurrentID returns the calling thread's native identity.
func (b *OSBackend) CurrentID() int64 {
	return currentThreadID()
}

// Sleep suspends the calling thread. Non-positive durations return immediately.
func (b *OSBackend) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}

// Yield lets other goroutines (and therefore other threads) run.
func (b *OSBackend) Yield() {
	runtime.Gosched()
}

// Priorities returns the platform mapping.
func (b *OSBackend) Priorities() PriorityTable {
	return b.priorities
}

// LiveThreads returns the number of spawned threads that have not exited yet.
func (b *OSBackend) LiveThreads() int {
	return int(b.live.Load())
}

// =============================================================================
// osThread: NativeThread for OSBackend
// =============================================================================

type osThread struct {
	mu       sync.Mutex
	tid      int64
	started  bool
	exited   bool
	detached bool

	// Priority requested before the thread reported its tid.
	pending    int
	hasPending bool

	done chan struct{}
}

func (t *osThread) run(entry func(), live *atomic.Int64) {
	// Never unlocked on purpose: the OS thread exits with this goroutine.
	runtime.LockOSThread()

	tid := currentThreadID()

	t.mu.Lock()
	t.tid = tid
	t.started = true
	if t.hasPending {
		// Startup priority failures degrade silently; callers that care
		// re-apply through SetPriority and observe the error there.
		_ = setThreadPriority(tid, t.pending)
		t.hasPending = false
	}
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.exited = true
		t.mu.Unlock()

		live.Add(-1)
		close(t.done)
	}()

	entry()
}

func (t *osThread) Join() {
	<-t.done
}

func (t *osThread) JoinTimeout(d time.Duration) bool {
	if d <= 0 {
		select {
		case <-t.done:
			return true
		default:
			return false
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-t.done:
		return true
	case <-timer.C:
		return false
	}
}

func (t *osThread) Done() <-chan struct{} {
	return t.done
}

func (t *osThread) SetPriority(value int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.detached:
		return ErrIllegalState
	case t.exited:
		// The tid may already belong to another thread.
		return nil
	case !t.started:
		t.pending = value
		t.hasPending = true
		return nil
	}
	return setThreadPriority(t.tid, value)
}

func (t *osThread) Detach() {
	t.mu.Lock()
	t.detached = true
	t.mu.Unlock()
}
