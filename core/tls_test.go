package core

import (
	"errors"
	"testing"
)

func TestLocalStorage_SetGetDelete(t *testing.T) {
	ls := newLocalStorage(NewNoOpLogger())

	ls.Set("a", 1)
	ls.Set("b", "two")

	if v, ok := ls.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %v, %v", v, ok)
	}
	if ls.Len() != 2 {
		t.Errorf("Len = %d, want 2", ls.Len())
	}

	ls.Delete("a")
	if _, ok := ls.Get("a"); ok {
		t.Error("value still present after Delete")
	}
}

// TestLocalStorage_ClearClosesValues tests teardown
// Main test items:
// 1. Clear closes io.Closer values, including failing ones
// 2. Delete does not close
// 3. The storage is empty afterwards
func TestLocalStorage_ClearClosesValues(t *testing.T) {
	ls := newLocalStorage(NewNoOpLogger())

	kept := &closeRecorder{}
	deleted := &closeRecorder{}
	ls.Set("kept", kept)
	ls.Set("deleted", deleted)
	ls.Set("failing", failingCloser{})
	ls.Set("plain", 42)

	ls.Delete("deleted")
	ls.Clear()

	if !kept.closed.Load() {
		t.Error("Clear did not close the stored closer")
	}
	if deleted.closed.Load() {
		t.Error("Delete closed the value")
	}
	if ls.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", ls.Len())
	}
}

// TestLocalKey tests typed keys
// Main test items:
// 1. Get creates the value with init on first access
// 2. Lookup does not create
// 3. Keys with the same name are distinct slots
func TestLocalKey(t *testing.T) {
	ls := newLocalStorage(NewNoOpLogger())

	calls := 0
	key := NewLocalKey("buffer", func() []byte {
		calls++
		return make([]byte, 0, 16)
	})
	other := NewLocalKey[[]byte]("buffer", nil)

	if _, ok := key.Lookup(ls); ok {
		t.Fatal("Lookup created a value")
	}

	buf := key.Get(ls)
	if cap(buf) != 16 {
		t.Errorf("init value cap = %d, want 16", cap(buf))
	}
	key.Get(ls)
	if calls != 1 {
		t.Errorf("init called %d times, want 1", calls)
	}

	if _, ok := other.Lookup(ls); ok {
		t.Error("keys with the same name share a slot")
	}

	key.Set(ls, []byte("x"))
	if got := string(key.Get(ls)); got != "x" {
		t.Errorf("Get after Set = %q", got)
	}

	key.Delete(ls)
	if _, ok := key.Lookup(ls); ok {
		t.Error("value present after Delete")
	}
	if key.Name() != "buffer" {
		t.Errorf("Name = %q", key.Name())
	}
}

func TestLocalKey_ZeroValueWithoutInit(t *testing.T) {
	ls := newLocalStorage(NewNoOpLogger())
	key := NewLocalKey[error]("last-error", nil)

	if got := key.Get(ls); got != nil {
		t.Errorf("Get = %v, want nil", got)
	}
	if _, ok := key.Lookup(ls); !ok {
		t.Error("Get did not store the zero value")
	}
}

// TestLocalKey_PerThread tests that each thread sees its own value.
func TestLocalKey_PerThread(t *testing.T) {
	rt := newTestRuntime(nil)
	counter := NewLocalKey[int]("counter", nil)

	const n = 8
	results := make([]int, n)
	threads := make([]*Thread, n)
	for i := range n {
		threads[i] = rt.NewThread()
		if err := threads[i].StartFunc(func() {
			ls, err := rt.Local()
			if err != nil {
				t.Errorf("Local failed: %v", err)
				return
			}
			for range i + 1 {
				counter.Set(ls, counter.Get(ls)+1)
			}
			results[i] = counter.Get(ls)
		}); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
	}
	for _, th := range threads {
		if err := th.Join(); err != nil {
			t.Fatalf("Join failed: %v", err)
		}
	}

	for i, got := range results {
		if got != i+1 {
			t.Errorf("thread %d counted %d, want %d", i, got, i+1)
		}
	}
}

type failingCloser struct{}

func (failingCloser) Close() error {
	return errors.New("close failed")
}
