package core

import (
	"time"
)

// =============================================================================
// Backend: Native thread primitives
// =============================================================================

// Backend is the platform primitive a Thread is built on.
// Thread never calls the operating system directly; everything native goes
// through a Backend so that platforms (and tests) can swap it out.
type Backend interface {
	// Spawn creates a native thread that calls entry.
	// Spawn must return without waiting for entry to run.
	Spawn(entry func()) (NativeThread, error)

	// CurrentID returns the native identity of the calling thread.
	// It is only meaningful on threads that cannot migrate, i.e. threads
	// created by Spawn; other callers get an identity no spawned thread holds.
	CurrentID() int64

	// Sleep suspends the calling thread.
	Sleep(d time.Duration)

	// Yield hints the scheduler to run other threads.
	Yield()

	// Priorities returns the platform priority mapping.
	Priorities() PriorityTable
}

// NativeThread is the backend's reference to one spawned thread.
type NativeThread interface {
	// Join blocks until the thread's entry procedure has returned.
	Join()

	// JoinTimeout waits at most d and reports whether the thread finished.
	JoinTimeout(d time.Duration) bool

	// Done is closed once the entry procedure has returned.
	Done() <-chan struct{}

	// SetPriority changes the native priority. Privilege failures are
	// returned to the caller, which decides how to degrade.
	SetPriority(value int) error

	// Detach gives up the reference; the thread runs to completion on its own.
	Detach()
}
