package osthread

import "github.com/Swind/go-osthread/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the osthread package for most use cases.

// Thread is a handle to one operating-system thread
type Thread = core.Thread

// Runtime issues ids and names and tracks running threads
type Runtime = core.Runtime

// RuntimeConfig configures a Runtime
type RuntimeConfig = core.RuntimeConfig

// Runnable is the work a thread executes
type Runnable = core.Runnable

// RunnableFunc adapts a function to Runnable
type RunnableFunc = core.RunnableFunc

// Priority is a thread scheduling priority
type Priority = core.Priority

// RunState is the lifecycle state of a thread
type RunState = core.RunState

// LocalStorage is a thread's private key/value store
type LocalStorage = core.LocalStorage

// LocalKey is a typed thread-local key
type LocalKey[T any] = core.LocalKey[T]

// SpawnError reports a failed thread creation
type SpawnError = core.SpawnError

// Priority constants
const (
	PriorityLowest  Priority = core.PriorityLowest
	PriorityLow     Priority = core.PriorityLow
	PriorityNormal  Priority = core.PriorityNormal
	PriorityHigh    Priority = core.PriorityHigh
	PriorityHighest Priority = core.PriorityHighest
)

// Lifecycle states
const (
	StateNotStarted RunState = core.StateNotStarted
	StateRunning    RunState = core.StateRunning
	StateFinished   RunState = core.StateFinished
)

// Errors
var (
	ErrIllegalState        = core.ErrIllegalState
	ErrTimeout             = core.ErrTimeout
	ErrThreadLimit         = core.ErrThreadLimit
	ErrPriorityUnsupported = core.ErrPriorityUnsupported
)

// Constructors and helpers
var (
	NewRuntime           = core.NewRuntime
	DefaultRuntimeConfig = core.DefaultRuntimeConfig
	ParsePriority        = core.ParsePriority
)

// NewLocalKey creates a typed thread-local key.
func NewLocalKey[T any](name string, init func() T) *LocalKey[T] {
	return core.NewLocalKey(name, init)
}
