package core

import (
	"io"
)

// LocalStorage is a thread's private key/value store.
//
// It is reachable only from the thread that owns it (Thread.Local,
// Runtime.Local) and is cleared when the thread's run function returns.
// Values are owned by the storage: Clear closes values implementing io.Closer.
// LocalStorage is not safe for use by more than one goroutine, and never needs
// to be.
type LocalStorage struct {
	values map[any]any
	logger Logger
}

func newLocalStorage(logger Logger) *LocalStorage {
	return &LocalStorage{
		values: make(map[any]any),
		logger: logger,
	}
}

// Len returns the number of stored values.
func (s *LocalStorage) Len() int {
	return len(s.values)
}

// Get returns the value stored under key.
func (s *LocalStorage) Get(key any) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (s *LocalStorage) Set(key, value any) {
	s.values[key] = value
}

// Delete removes key without closing its value.
func (s *LocalStorage) Delete(key any) {
	delete(s.values, key)
}

// Clear removes every value, closing those that implement io.Closer.
func (s *LocalStorage) Clear() {
	for key, v := range s.values {
		if c, ok := v.(io.Closer); ok {
			if err := c.Close(); err != nil {
				s.logger.Warn("thread-local value close failed", F("error", err))
			}
		}
		delete(s.values, key)
	}
}

// =============================================================================
// LocalKey: typed thread-local slot
// =============================================================================

// LocalKey is a typed key into LocalStorage. Keys compare by identity, so two
// keys created with the same name are still distinct slots.
//
// Example:
//
//	var requestCount = core.NewLocalKey[int]("request-count", nil)
//
//	thread.StartFunc(func() {
//	    ls, _ := thread.Local()
//	    requestCount.Set(ls, requestCount.Get(ls)+1)
//	})
type LocalKey[T any] struct {
	name string
	init func() T
}

// NewLocalKey creates a key. init, if non-nil, produces the value Get returns
// the first time a thread reads the key.
func NewLocalKey[T any](name string, init func() T) *LocalKey[T] {
	return &LocalKey[T]{name: name, init: init}
}

// Name returns the key's descriptive name.
func (k *LocalKey[T]) Name() string {
	return k.name
}

// Get returns the thread's value, creating it on first access.
func (k *LocalKey[T]) Get(s *LocalStorage) T {
	if v, ok := k.Lookup(s); ok {
		return v
	}
	var v T
	if k.init != nil {
		v = k.init()
	}
	s.values[k] = v
	return v
}

// Lookup returns the thread's value without creating it.
func (k *LocalKey[T]) Lookup(s *LocalStorage) (T, bool) {
	v, ok := s.values[k]
	if !ok {
		var zero T
		return zero, false
	}
	t, _ := v.(T)
	return t, true
}

// Set stores v for the thread.
func (k *LocalKey[T]) Set(s *LocalStorage, v T) {
	s.values[k] = v
}

// Delete removes the thread's value without closing it.
func (k *LocalKey[T]) Delete(s *LocalStorage) {
	delete(s.values, k)
}
