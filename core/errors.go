package core

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalState is returned when an operation is not valid in the thread's
	// current lifecycle state: starting twice, joining before start, using a
	// closed handle, or touching thread-local storage from another thread.
	ErrIllegalState = errors.New("illegal thread state")

	// ErrTimeout is returned by JoinTimeout when the thread did not finish in time.
	// The thread keeps running and the join may be retried.
	ErrTimeout = errors.New("thread join timed out")

	// ErrThreadLimit is the SpawnError cause when the backend's live-thread
	// limit is reached.
	ErrThreadLimit = errors.New("thread limit reached")

	// ErrPriorityUnsupported is returned by backends that cannot change native
	// thread priority. Thread.SetPriority treats it like a privilege failure.
	ErrPriorityUnsupported = errors.New("thread priority not supported on this platform")
)

// SpawnError reports that the native backend could not create a thread.
// The handle stays in the NotStarted state, so Start may be retried.
type SpawnError struct {
	Thread string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn thread %q: %v", e.Thread, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
