package core

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// Thread is a handle to one operating-system thread.
//
// Every Thread gets a process-unique id from its Runtime and a name that can be
// changed at any time. A Thread is started at most once; Join, JoinTimeout,
// TryJoin and JoinContext wait for it to finish. A Thread must not be copied.
//
// Lifecycle of a started thread, on the thread itself:
//  1. apply the recorded priority
//  2. register in the Runtime's registry (Current starts resolving it)
//  3. run the Runnable
//  4. clear thread-local storage
//  5. deregister
//  6. mark Finished; joiners are released after this
type Thread struct {
	rt *Runtime
	id int

	// mu guards the fields below. It is held for single field accesses and
	// never across a wait on the thread.
	mu         sync.Mutex
	name       string
	priority   Priority
	native     NativeThread
	closed     bool
	target     Runnable
	nativeID   int64
	ref        slotRef
	registered bool
	startedAt  time.Time
	finishedAt time.Time

	state atomic.Int32

	// tls is confined to the running thread.
	tls *LocalStorage
}

func newThread(rt *Runtime, id int, name string) *Thread {
	return &Thread{
		rt:       rt,
		id:       id,
		name:     name,
		priority: rt.defaultPriority,
	}
}

// ID returns the unique thread id.
func (t *Thread) ID() int {
	return t.id
}

// Name returns the thread's name.
func (t *Thread) Name() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.name
}

// SetName sets the thread's name.
func (t *Thread) SetName(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.name = name
}

// Priority returns the last requested priority, whether or not the platform
// honored it.
func (t *Thread) Priority() Priority {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.priority
}

// SetPriority records p and forwards it to the native thread if there is one.
// Before Start the level is applied by the new thread before its Runnable runs.
//
// Some platforms only allow raising a thread's priority with special
// privileges. A rejected change is not an error: p stays recorded, the
// effective OS priority keeps its previous value.
// SetPriority only fails for an undefined level.
func (t *Thread) SetPriority(p Priority) error {
	if !p.Valid() {
		return fmt.Errorf("invalid thread priority %d", int(p))
	}

	t.mu.Lock()
	t.priority = p
	var err error
	if t.native != nil {
		err = t.native.SetPriority(t.rt.priorities.Value(p))
	}
	name := t.name
	t.mu.Unlock()

	if err != nil {
		t.rt.priorityRejected(name, p, err)
	}
	return nil
}

// State returns the current lifecycle state.
func (t *Thread) State() RunState {
	return RunState(t.state.Load())
}

// IsRunning reports whether the thread has been started and not yet finished.
// It is a snapshot; use Join to synchronize with completion.
func (t *Thread) IsRunning() bool {
	return t.State() == StateRunning
}

// Start runs r on a new native thread.
//
// Start fails with ErrIllegalState if the thread was already started or
// closed, and with *SpawnError if the backend cannot create the thread; in
// that case the thread stays NotStarted and Start may be called again.
func (t *Thread) Start(r Runnable) error {
	if r == nil {
		return fmt.Errorf("%w: nil runnable", ErrIllegalState)
	}

	t.mu.Lock()
	name := t.name
	if t.closed {
		t.mu.Unlock()
		return fmt.Errorf("%w: thread %q is closed", ErrIllegalState, name)
	}
	if t.State() != StateNotStarted {
		t.mu.Unlock()
		return fmt.Errorf("%w: thread %q already started", ErrIllegalState, name)
	}

	t.target = r
	t.state.Store(int32(StateRunning))

	// Backend.Spawn does not wait for the new thread, so holding mu here is
	// bounded. The new thread blocks on mu until native is recorded.
	native, err := t.rt.backend.Spawn(t.run)
	if err != nil {
		t.target = nil
		t.state.Store(int32(StateNotStarted))
		t.mu.Unlock()

		t.rt.spawnFailed(name, err)
		return &SpawnError{Thread: name, Err: err}
	}
	t.native = native
	t.startedAt = time.Now()
	priority := t.priority
	t.mu.Unlock()

	t.rt.threadStarted(t, priority)
	return nil
}

// StartFunc runs fn on a new native thread. See Start.
func (t *Thread) StartFunc(fn func()) error {
	if fn == nil {
		return fmt.Errorf("%w: nil runnable", ErrIllegalState)
	}
	return t.Start(RunnableFunc(fn))
}

// run is the entry procedure executed on the spawned thread.
func (t *Thread) run() {
	rt := t.rt
	nativeID := rt.backend.CurrentID()

	t.mu.Lock()
	t.nativeID = nativeID
	native := t.native
	priority := t.priority
	target := t.target
	name := t.name
	var prioErr error
	if native != nil && priority != PriorityNormal {
		prioErr = native.SetPriority(rt.priorities.Value(priority))
	}
	t.mu.Unlock()

	if prioErr != nil {
		rt.priorityRejected(name, priority, prioErr)
	}

	ref := rt.registry.register(nativeID, t)

	t.mu.Lock()
	t.ref = ref
	t.registered = true
	closed := t.closed
	t.mu.Unlock()

	if closed {
		rt.registry.invalidate(ref)
	}

	// panicked stays true if Run does not return normally.
	panicked := true
	defer t.finish(nativeID, ref, time.Now(), target, &panicked)

	if h := rt.panicHandler; h != nil {
		defer func() {
			if rec := recover(); rec != nil {
				h.HandlePanic(t, rec, debug.Stack())
			}
		}()
	}

	target.Run()
	panicked = false
}

// finish performs the post-run steps in their required order: TLS is gone
// before the registry forgets the thread, and both happen before Finished.
func (t *Thread) finish(nativeID int64, ref slotRef, startedAt time.Time, target Runnable, panicked *bool) {
	t.clearTLS()
	t.rt.registry.deregister(nativeID, ref)

	finishedAt := time.Now()

	t.mu.Lock()
	t.registered = false
	t.finishedAt = finishedAt
	t.target = nil
	record := ThreadRecord{
		ID:         t.id,
		Name:       t.name,
		Target:     resolveTargetName(target),
		Priority:   t.priority,
		NativeID:   nativeID,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Duration:   finishedAt.Sub(startedAt),
		Panicked:   *panicked,
	}
	t.mu.Unlock()

	t.state.Store(int32(StateFinished))
	t.rt.threadFinished(record)
}

// joinTarget returns the native thread to wait on.
func (t *Thread) joinTarget() (NativeThread, error) {
	if t.isCurrent() {
		return nil, fmt.Errorf("%w: thread %q cannot join itself", ErrIllegalState, t.Name())
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, fmt.Errorf("%w: thread %q is closed", ErrIllegalState, t.name)
	}
	if t.native == nil {
		return nil, fmt.Errorf("%w: thread %q not started", ErrIllegalState, t.name)
	}
	return t.native, nil
}

// Join waits until the thread completes execution.
// If multiple goroutines join the same thread, only one join is guaranteed
// to be race-free.
func (t *Thread) Join() error {
	native, err := t.joinTarget()
	if err != nil {
		return err
	}
	native.Join()
	return nil
}

// JoinTimeout waits at most d for the thread to complete.
// It returns an error wrapping ErrTimeout if the thread is still running; the
// thread is not affected and the join may be retried.
func (t *Thread) JoinTimeout(d time.Duration) error {
	native, err := t.joinTarget()
	if err != nil {
		return err
	}
	if !native.JoinTimeout(d) {
		t.rt.joinTimedOut()
		return fmt.Errorf("%w: thread %q still running after %v", ErrTimeout, t.Name(), d)
	}
	return nil
}

// TryJoin waits at most d for the thread to complete and reports whether it has.
// It returns false for a thread that was never started.
func (t *Thread) TryJoin(d time.Duration) bool {
	native, err := t.joinTarget()
	if err != nil {
		return t.State() == StateFinished
	}
	return native.JoinTimeout(d)
}

// JoinContext waits until the thread completes or ctx is done.
func (t *Thread) JoinContext(ctx context.Context) error {
	native, err := t.joinTarget()
	if err != nil {
		return err
	}
	select {
	case <-native.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close destroys the handle.
//
// A running thread is detached: it keeps running to completion on its own,
// but Current no longer resolves it and the handle can no longer be started or
// joined. Closing a finished or never-started thread just invalidates the
// handle. Close is idempotent.
func (t *Thread) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	native := t.native
	t.native = nil
	ref, registered := t.ref, t.registered
	name := t.name
	t.mu.Unlock()

	if registered {
		t.rt.registry.invalidate(ref)
	}
	if native != nil {
		if t.IsRunning() {
			t.rt.logger.Debug("detaching running thread", F("thread", name), F("id", t.id))
		}
		native.Detach()
	}
	return nil
}

// Stats returns a snapshot of the thread's state.
func (t *Thread) Stats() ThreadStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	return ThreadStats{
		ID:         t.id,
		Name:       t.name,
		Priority:   t.priority,
		State:      t.State(),
		NativeID:   t.nativeID,
		Closed:     t.closed,
		StartedAt:  t.startedAt,
		FinishedAt: t.finishedAt,
	}
}

// =============================================================================
// Thread-local storage
// =============================================================================

// isCurrent reports whether the caller is running on this thread.
func (t *Thread) isCurrent() bool {
	t.mu.Lock()
	registered, nativeID := t.registered, t.nativeID
	t.mu.Unlock()

	return registered && t.rt.backend.CurrentID() == nativeID
}

// Local returns the thread's local storage, creating it on first use.
// It fails with ErrIllegalState unless called from the thread itself.
func (t *Thread) Local() (*LocalStorage, error) {
	if !t.isCurrent() {
		return nil, fmt.Errorf("%w: local storage of thread %q used from another thread", ErrIllegalState, t.Name())
	}
	if t.tls == nil {
		t.tls = newLocalStorage(t.rt.logger)
	}
	return t.tls, nil
}

// ClearLocal empties the thread's local storage.
// Like Local it may only be called from the thread itself.
func (t *Thread) ClearLocal() error {
	if !t.isCurrent() {
		return fmt.Errorf("%w: local storage of thread %q cleared from another thread", ErrIllegalState, t.Name())
	}
	if t.tls != nil {
		t.tls.Clear()
	}
	return nil
}

func (t *Thread) clearTLS() {
	if t.tls != nil {
		t.tls.Clear()
		t.tls = nil
	}
}
