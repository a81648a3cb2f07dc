package osthread

import (
	"errors"
	"strings"
	"testing"
)

// TestDefaultRuntime tests the package-level singleton
// Main test items:
// 1. Default creates the runtime on first use and returns the same one afterwards
// 2. InitRuntime after first use is refused
// 3. Package functions run on the default runtime
func TestDefaultRuntime(t *testing.T) {
	rt := Default()
	if rt != Default() {
		t.Fatal("Default returned different runtimes")
	}
	if InitRuntime(&RuntimeConfig{NamePrefix: "late-"}) {
		t.Error("InitRuntime succeeded after the default runtime was used")
	}

	var current *Thread
	th, err := Go(func() { current = Current() })
	if err != nil {
		t.Fatalf("Go failed: %v", err)
	}
	if err := th.Join(); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if current != th {
		t.Error("Current inside the thread did not return its handle")
	}
	if Current() != nil {
		t.Error("Current on the test goroutine should be nil")
	}
	if !strings.HasPrefix(th.Name(), "#") {
		t.Errorf("generated name %q", th.Name())
	}
}

func TestPackageHelpers(t *testing.T) {
	if a, b := UniqueID(), UniqueID(); a >= b {
		t.Errorf("UniqueID not increasing: %d, %d", a, b)
	}
	if MakeName() == MakeName() {
		t.Error("MakeName returned the same name twice")
	}
	Sleep(0)
	Yield()

	if _, err := Local(); !errors.Is(err, ErrIllegalState) {
		t.Errorf("Local outside a thread error = %v, want ErrIllegalState", err)
	}
	if th := NewNamedThread("named"); th.Name() != "named" {
		t.Errorf("NewNamedThread name = %q", th.Name())
	}
}
