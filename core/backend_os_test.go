package core

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// TestOSBackend_DistinctThreads tests that every spawn gets its own OS thread
// Main test items:
// 1. Concurrently live spawned entries observe distinct native ids
// 2. None of them shares the caller's id
func TestOSBackend_DistinctThreads(t *testing.T) {
	b := NewOSBackend(OSBackendConfig{})
	self := b.CurrentID()

	const n = 16
	var (
		mu      sync.Mutex
		ids     = make(map[int64]bool)
		ready   sync.WaitGroup
		release = make(chan struct{})
	)
	ready.Add(n)

	natives := make([]NativeThread, 0, n)
	for range n {
		native, err := b.Spawn(func() {
			id := b.CurrentID()
			mu.Lock()
			ids[id] = true
			mu.Unlock()
			ready.Done()
			<-release
		})
		if err != nil {
			t.Fatalf("Spawn failed: %v", err)
		}
		natives = append(natives, native)
	}

	ready.Wait()
	close(release)
	for _, native := range natives {
		native.Join()
	}

	if len(ids) != n {
		t.Errorf("observed %d distinct ids, want %d", len(ids), n)
	}
	if ids[self] {
		t.Error("spawned thread shares the caller's identity")
	}
	if b.LiveThreads() != 0 {
		t.Errorf("LiveThreads = %d after join, want 0", b.LiveThreads())
	}
}

func TestOSBackend_MaxThreads(t *testing.T) {
	b := NewOSBackend(OSBackendConfig{MaxThreads: 1})

	release := make(chan struct{})
	first, err := b.Spawn(func() { <-release })
	if err != nil {
		t.Fatalf("first Spawn failed: %v", err)
	}

	if _, err := b.Spawn(func() {}); !errors.Is(err, ErrThreadLimit) {
		t.Fatalf("second Spawn error = %v, want ErrThreadLimit", err)
	}

	close(release)
	first.Join()

	second, err := b.Spawn(func() {})
	if err != nil {
		t.Fatalf("Spawn after slot freed failed: %v", err)
	}
	second.Join()
}

func TestOSBackend_JoinTimeout(t *testing.T) {
	b := NewOSBackend(OSBackendConfig{})

	release := make(chan struct{})
	native, err := b.Spawn(func() { <-release })
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	if native.JoinTimeout(0) {
		t.Error("JoinTimeout(0) on a blocked thread should be false")
	}
	if native.JoinTimeout(10 * time.Millisecond) {
		t.Error("JoinTimeout on a blocked thread should be false")
	}

	close(release)
	if !native.JoinTimeout(5 * time.Second) {
		t.Fatal("JoinTimeout should succeed once released")
	}
	select {
	case <-native.Done():
	default:
		t.Error("Done not closed after join")
	}
}

func TestOSBackend_SetPriorityAfterExitAndDetach(t *testing.T) {
	b := NewOSBackend(OSBackendConfig{})

	native, err := b.Spawn(func() {})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	native.Join()

	if err := native.SetPriority(b.Priorities().Value(PriorityLow)); err != nil {
		t.Errorf("SetPriority on exited thread = %v, want nil", err)
	}

	native.Detach()
	if err := native.SetPriority(0); !errors.Is(err, ErrIllegalState) {
		t.Errorf("SetPriority on detached thread = %v, want ErrIllegalState", err)
	}
}

func TestOSBackend_SleepNonPositive(t *testing.T) {
	b := NewOSBackend(OSBackendConfig{})

	start := time.Now()
	b.Sleep(0)
	b.Sleep(-time.Second)
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("non-positive Sleep took %v", elapsed)
	}
}
