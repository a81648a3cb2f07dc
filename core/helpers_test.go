package core

import (
	"errors"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/iox"
)

var (
	errSpawnRefused = errors.New("spawn refused")
	errNotPermitted = errors.New("operation not permitted")
)

// waitUntil polls cond with adaptive backoff until it holds or timeout passes.
func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	var bo iox.Backoff
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %v", timeout)
		}
		bo.Wait()
	}
}

func newTestRuntime(cfg *RuntimeConfig) *Runtime {
	if cfg == nil {
		cfg = &RuntimeConfig{}
	}
	if cfg.Logger == nil {
		cfg.Logger = NewNoOpLogger()
	}
	return NewRuntime(cfg)
}

// flakyBackend refuses the first failures spawns, then delegates to OSBackend.
type flakyBackend struct {
	*OSBackend

	mu       sync.Mutex
	failures int
}

func (b *flakyBackend) Spawn(entry func()) (NativeThread, error) {
	b.mu.Lock()
	if b.failures > 0 {
		b.failures--
		b.mu.Unlock()
		return nil, errSpawnRefused
	}
	b.mu.Unlock()
	return b.OSBackend.Spawn(entry)
}

// unprivilegedBackend spawns real threads whose priority can never be changed.
type unprivilegedBackend struct {
	*OSBackend
}

func (b *unprivilegedBackend) Spawn(entry func()) (NativeThread, error) {
	native, err := b.OSBackend.Spawn(entry)
	if err != nil {
		return nil, err
	}
	return unprivilegedThread{NativeThread: native}, nil
}

type unprivilegedThread struct {
	NativeThread
}

func (unprivilegedThread) SetPriority(int) error {
	return errNotPermitted
}

// recordingMetrics counts Metrics calls.
type recordingMetrics struct {
	mu               sync.Mutex
	started          int
	finished         int
	panicked         int
	spawnFailures    []string
	priorityRejected []Priority
	joinTimeouts     int
}

func (m *recordingMetrics) RecordThreadStarted(priority Priority) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started++
}

func (m *recordingMetrics) RecordThreadFinished(priority Priority, duration time.Duration, panicked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished++
	if panicked {
		m.panicked++
	}
}

func (m *recordingMetrics) RecordSpawnFailure(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spawnFailures = append(m.spawnFailures, reason)
}

func (m *recordingMetrics) RecordPriorityRejected(priority Priority) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.priorityRejected = append(m.priorityRejected, priority)
}

func (m *recordingMetrics) RecordJoinTimeout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joinTimeouts++
}

// recordingPanicHandler stores recovered panics.
type recordingPanicHandler struct {
	mu     sync.Mutex
	values []any
	stacks [][]byte
}

func (h *recordingPanicHandler) HandlePanic(thread *Thread, panicInfo any, stackTrace []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.values = append(h.values, panicInfo)
	h.stacks = append(h.stacks, stackTrace)
}

func (h *recordingPanicHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.values)
}
