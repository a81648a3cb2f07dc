package core

import (
	"time"
)

// =============================================================================
// Runnable: the unit of work a Thread executes
// =============================================================================

// Runnable is executed exactly once by a started Thread.
type Runnable interface {
	Run()
}

// RunnableFunc adapts an ordinary function to Runnable.
type RunnableFunc func()

// Run calls f.
func (f RunnableFunc) Run() {
	f()
}

// =============================================================================
// PanicHandler: Interface for handling runnable panics
// =============================================================================

// PanicHandler is called when a runnable panics.
// Without a handler the panic is not intercepted and crashes the process, as
// an uncaught panic in any goroutine does. With a handler the panic is
// recovered and the thread finishes normally.
//
// Implementations should be thread-safe as they may be called concurrently.
type PanicHandler interface {
	// HandlePanic is called on the panicking thread after recovery.
	//
	// Parameters:
	// - thread: The thread whose runnable panicked
	// - panicInfo: The panic value recovered from the runnable
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(thread *Thread, panicInfo any, stackTrace []byte)
}

// LoggingPanicHandler recovers panics and reports them through a Logger.
type LoggingPanicHandler struct {
	Logger Logger
}

// HandlePanic logs the panic with its stack trace.
func (h *LoggingPanicHandler) HandlePanic(thread *Thread, panicInfo any, stackTrace []byte) {
	h.Logger.Error("thread panicked",
		F("thread", thread.Name()),
		F("id", thread.ID()),
		F("panic", panicInfo),
		F("stack", string(stackTrace)),
	)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting thread lifecycle metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods should be non-blocking and fast; they run on the started threads and
// on callers of Start, SetPriority and JoinTimeout.
type Metrics interface {
	// RecordThreadStarted records a successful Start.
	RecordThreadStarted(priority Priority)

	// RecordThreadFinished records how long a thread's runnable ran.
	//
	// Parameters:
	// - priority: The thread priority when it finished
	// - duration: Time from entering the thread to the runnable returning
	// - panicked: Whether the runnable panicked (only observable with a PanicHandler)
	RecordThreadFinished(priority Priority, duration time.Duration, panicked bool)

	// RecordSpawnFailure records that the backend refused to create a thread.
	RecordSpawnFailure(reason string)

	// RecordPriorityRejected records that the backend did not apply a priority change.
	RecordPriorityRejected(priority Priority)

	// RecordJoinTimeout records that a JoinTimeout deadline passed.
	RecordJoinTimeout()
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordThreadStarted is a no-op.
func (m *NilMetrics) RecordThreadStarted(priority Priority) {
}

// RecordThreadFinished is a no-op.
func (m *NilMetrics) RecordThreadFinished(priority Priority, duration time.Duration, panicked bool) {
}

// RecordSpawnFailure is a no-op.
func (m *NilMetrics) RecordSpawnFailure(reason string) {
}

// RecordPriorityRejected is a no-op.
func (m *NilMetrics) RecordPriorityRejected(priority Priority) {
}

// RecordJoinTimeout is a no-op.
func (m *NilMetrics) RecordJoinTimeout() {
}

// =============================================================================
// RuntimeConfig: Configuration for Runtime
// =============================================================================

// DefaultNamePrefix is prepended to the unique id of generated thread names.
const DefaultNamePrefix = "#"

// RuntimeConfig holds configuration options for Runtime.
// All fields are optional; zero values are replaced by defaults.
type RuntimeConfig struct {
	// Backend creates native threads. Defaults to NewOSBackend with no limit.
	Backend Backend

	// Logger receives lifecycle diagnostics. Defaults to NoOpLogger.
	Logger Logger

	// Metrics records lifecycle metrics. Defaults to NilMetrics.
	Metrics Metrics

	// PanicHandler recovers runnable panics. Nil lets panics crash the process.
	PanicHandler PanicHandler

	// NamePrefix is used by MakeName and generated thread names. Defaults to "#".
	NamePrefix string

	// DefaultPriority is the initial priority of new threads. Defaults to PriorityNormal.
	DefaultPriority Priority

	// HistorySize is how many finished threads RecentThreads remembers. Defaults to 100.
	HistorySize int
}

// DefaultRuntimeConfig returns a config with default handlers.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		Backend:         NewOSBackend(OSBackendConfig{}),
		Logger:          NewNoOpLogger(),
		Metrics:         &NilMetrics{},
		NamePrefix:      DefaultNamePrefix,
		DefaultPriority: PriorityNormal,
		HistorySize:     defaultThreadHistoryCapacity,
	}
}
