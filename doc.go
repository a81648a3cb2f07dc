// Package osthread provides handles to operating-system threads for Go.
//
// A Thread runs one Runnable on its own OS thread: the goroutine executing it
// is locked to the thread for its whole life, so thread identity, scheduling
// priority and thread-local storage behave as they do for native threads.
//
// # Quick Start
//
// Start a function on a new thread and wait for it:
//
//	t, err := osthread.Go(func() {
//		fmt.Println("running on", osthread.Current().Name())
//	})
//	if err != nil {
//		return err
//	}
//	t.Join()
//
// # Key Concepts
//
// Thread: created NotStarted, started at most once, then Running and finally
// Finished. Join, JoinTimeout, TryJoin and JoinContext wait for completion.
// Close detaches a running thread and invalidates the handle.
//
// Priority: five levels from PriorityLowest to PriorityHighest, mapped to
// native values by the backend. Raising priority usually needs privileges; a
// refused change is recorded but not reported as an error.
//
// Runtime: issues unique ids and names and answers Current. The package-level
// functions use a default Runtime created on first use; call InitRuntime
// before that to configure it.
//
// Thread-local storage: Local returns the calling thread's LocalStorage.
// LocalKey gives typed access. Values are cleared, and closed if they
// implement io.Closer, when the thread's Runnable returns.
//
// # Example
//
//	import (
//		osthread "github.com/Swind/go-osthread"
//	)
//
//	var requests = osthread.NewLocalKey[int]("requests", nil)
//
//	func main() {
//		t := osthread.NewNamedThread("worker")
//		t.SetPriority(osthread.PriorityLow)
//		t.StartFunc(func() {
//			ls, _ := osthread.Local()
//			requests.Set(ls, requests.Get(ls)+1)
//		})
//		if err := t.JoinTimeout(time.Second); err != nil {
//			log.Println(err)
//		}
//	}
package osthread
