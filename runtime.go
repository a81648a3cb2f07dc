package osthread

import (
	"sync"
	"time"

	"github.com/Swind/go-osthread/core"
)

// =============================================================================
// Default Runtime (Singleton)
// =============================================================================

var (
	defaultRuntime *Runtime
	defaultMu      sync.Mutex
)

// InitRuntime replaces the default runtime with one built from cfg.
// It must be called before the default runtime is first used; later calls
// return false and leave the existing runtime in place.
func InitRuntime(cfg *RuntimeConfig) bool {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultRuntime != nil {
		return false // Already initialized
	}

	defaultRuntime = core.NewRuntime(cfg)
	return true
}

// Default returns the default runtime, creating it with DefaultRuntimeConfig
// on first use.
func Default() *Runtime {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultRuntime == nil {
		defaultRuntime = core.NewRuntime(nil)
	}
	return defaultRuntime
}

// NewThread creates a thread with a generated name on the default runtime.
func NewThread() *Thread {
	return Default().NewThread()
}

// NewNamedThread creates a named thread on the default runtime.
func NewNamedThread(name string) *Thread {
	return Default().NewNamedThread(name)
}

// Go starts fn on a new thread of the default runtime.
func Go(fn func()) (*Thread, error) {
	return Default().Go(fn)
}

// Current returns the thread running the caller, or nil.
func Current() *Thread {
	return Default().Current()
}

// Local returns the calling thread's local storage.
func Local() (*LocalStorage, error) {
	return Default().Local()
}

// Sleep suspends the calling thread for d.
func Sleep(d time.Duration) {
	Default().Sleep(d)
}

// Yield lets other threads run.
func Yield() {
	Default().Yield()
}

// UniqueID returns a fresh id from the default runtime.
func UniqueID() int {
	return Default().UniqueID()
}

// MakeName returns a fresh generated thread name.
func MakeName() string {
	return Default().MakeName()
}
