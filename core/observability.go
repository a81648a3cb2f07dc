package core

import "time"

// RunState is the lifecycle state of a Thread.
// Transitions only go forward: NotStarted -> Running -> Finished.
type RunState int32

const (
	StateNotStarted RunState = iota
	StateRunning
	StateFinished
)

func (s RunState) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// ThreadStats represents a snapshot of one thread's observable state.
type ThreadStats struct {
	ID         int
	Name       string
	Priority   Priority
	State      RunState
	NativeID   int64
	Closed     bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// ThreadRecord captures a finished thread execution.
type ThreadRecord struct {
	ID         int
	Name       string
	Target     string
	Priority   Priority
	NativeID   int64
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	Panicked   bool
}

// RuntimeStats represents runtime observability state for a Runtime.
type RuntimeStats struct {
	Started           int64
	Finished          int64
	Live              int
	SpawnFailures     int64
	PriorityRejected  int64
	JoinTimeouts      int64
	Panics            int64
	LastThreadName    string
	LastThreadEndedAt time.Time
}
