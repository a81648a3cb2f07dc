package core

import (
	"reflect"
	"runtime"
	"sync"
)

const defaultThreadHistoryCapacity = 100

type threadHistory struct {
	mu    sync.Mutex
	items []ThreadRecord
	head  int
	count int
}

func newThreadHistory(capacity int) *threadHistory {
	if capacity < 1 {
		capacity = defaultThreadHistoryCapacity
	}
	return &threadHistory{items: make([]ThreadRecord, capacity)}
}

func (h *threadHistory) Add(record ThreadRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items[h.head] = record
	h.head = (h.head + 1) % len(h.items)
	if h.count < len(h.items) {
		h.count++
	}
}

// Recent returns up to limit records, newest first. limit <= 0 returns all.
func (h *threadHistory) Recent(limit int) []ThreadRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return nil
	}
	if limit <= 0 || limit > h.count {
		limit = h.count
	}

	out := make([]ThreadRecord, 0, limit)
	for i := range limit {
		idx := (h.head - 1 - i + len(h.items)) % len(h.items)
		out = append(out, h.items[idx])
	}
	return out
}

func (h *threadHistory) Last() (ThreadRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return ThreadRecord{}, false
	}

	idx := (h.head - 1 + len(h.items)) % len(h.items)
	return h.items[idx], true
}

// resolveTargetName names a runnable for records: the function name for
// RunnableFunc, the dynamic type otherwise.
func resolveTargetName(r Runnable) string {
	if r == nil {
		return "anonymous"
	}

	fn, ok := r.(RunnableFunc)
	if !ok {
		return reflect.TypeOf(r).String()
	}

	pc := reflect.ValueOf(fn).Pointer()
	if pc == 0 {
		return "anonymous"
	}

	f := runtime.FuncForPC(pc)
	if f == nil || f.Name() == "" {
		return "anonymous"
	}
	return f.Name()
}
