package core

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
)

// slotRef is a generation-checked reference into the registry's slot table.
// A ref stays valid only while the slot's generation matches; releasing a slot
// bumps its generation, so a stale ref can never resolve to a later occupant.
type slotRef struct {
	index uint32
	gen   uint32
}

type registrySlot struct {
	gen    uint32
	thread *Thread
}

// Registry maps native thread identities to the Thread handles running on them.
//
// Entries are added and removed by the spawned threads themselves. The identity
// index is a lock-free map; the slot table holds the only references to
// handles and is guarded by a short-held mutex.
type Registry struct {
	byNative *xsync.Map[int64, slotRef]

	mu    sync.RWMutex
	slots []registrySlot
	free  []uint32
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byNative: xsync.NewMap[int64, slotRef](),
	}
}

// register binds nativeID to t and returns the reference the caller must hand
// back to deregister.
func (r *Registry) register(nativeID int64, t *Thread) slotRef {
	r.mu.Lock()
	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		idx = uint32(len(r.slots))
		r.slots = append(r.slots, registrySlot{})
	}
	r.slots[idx].thread = t
	ref := slotRef{index: idx, gen: r.slots[idx].gen}
	r.mu.Unlock()

	r.byNative.Store(nativeID, ref)
	return ref
}

// deregister removes nativeID's entry and releases ref's slot if still held.
func (r *Registry) deregister(nativeID int64, ref slotRef) {
	r.byNative.Compute(nativeID, func(old slotRef, loaded bool) (slotRef, xsync.ComputeOp) {
		if loaded && old == ref {
			return old, xsync.DeleteOp
		}
		return old, xsync.CancelOp
	})
	r.release(ref)
}

// invalidate releases ref's slot while leaving the identity entry in place.
// Lookups through the stale entry report no thread until deregister runs.
func (r *Registry) invalidate(ref slotRef) {
	r.release(ref)
}

func (r *Registry) release(ref slotRef) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if int(ref.index) >= len(r.slots) {
		return
	}
	slot := &r.slots[ref.index]
	if slot.gen != ref.gen {
		return
	}
	slot.thread = nil
	slot.gen++
	r.free = append(r.free, ref.index)
}

// Lookup returns the thread registered for nativeID, or nil.
func (r *Registry) Lookup(nativeID int64) *Thread {
	ref, ok := r.byNative.Load(nativeID)
	if !ok {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if int(ref.index) >= len(r.slots) {
		return nil
	}
	slot := r.slots[ref.index]
	if slot.gen != ref.gen {
		return nil
	}
	return slot.thread
}

// Len returns the number of live registered threads.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots) - len(r.free)
}

// Threads returns a snapshot of the live registered threads.
func (r *Registry) Threads() []*Thread {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Thread, 0, len(r.slots)-len(r.free))
	for _, slot := range r.slots {
		if slot.thread != nil {
			out = append(out, slot.thread)
		}
	}
	return out
}
