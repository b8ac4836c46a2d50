package auth

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/authkit/wire"
)

// setupGlobal binds the ambient API to the given auth type and resets the
// global context before and after the test.
func setupGlobal(t *testing.T, authType string) {
	t.Helper()
	setTestConfig(t, authType)
	resetGlobal()
	t.Cleanup(resetGlobal)
}

func TestInitIdempotent(t *testing.T) {
	registerFake(t, "ambient")
	setupGlobal(t, "ambient")

	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	first := globalCtx.Load()
	if err := Init(); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	if globalCtx.Load() != first {
		t.Error("second Init replaced the global context")
	}
}

func TestConcurrentFirstUse(t *testing.T) {
	m := registerFake(t, "race")
	setupGlobal(t, "race")

	const n = 64
	var wg sync.WaitGroup
	creds := make([]Credential, n)
	errs := make([]error, n)

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			creds[i], errs[i] = Alloc()
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("Alloc[%d]: %v", i, errs[i])
		}
		if creds[i] == nil {
			t.Fatalf("Alloc[%d] returned nil credential", i)
		}
	}

	// Exactly one context construction: the racing first calls must fold
	// into a single mechanism load, so the registered factory ran once.
	if got := m.factoryCalls.Load(); got != 1 {
		t.Errorf("mechanism factory ran %d times, want 1", got)
	}
	if got := m.allocs.Load(); got != n {
		t.Errorf("mechanism saw %d allocs, want %d", got, n)
	}
}

func TestAmbientLifecycle(t *testing.T) {
	registerFake(t, "ambientfull")
	setupGlobal(t, "ambientfull")

	cred, err := Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if err := Activate(cred, time.Minute); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if err := Verify(cred); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if uid := UID(cred); uid != 1000 {
		t.Errorf("UID = %d, want 1000", uid)
	}
	if gid := GID(cred); gid != 1000 {
		t.Errorf("GID = %d, want 1000", gid)
	}

	buf := wire.NewBuffer()
	if err := Pack(cred, buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	fresh, err := Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if err := Unpack(fresh, buf); err != nil {
		t.Fatalf("Unpack: %v", err)
	}

	var out bytes.Buffer
	Print(cred, &out)
	if out.Len() == 0 {
		t.Error("Print wrote nothing")
	}

	Free(cred)
	Free(fresh)
}

func TestAmbientDegradedWhenInitFails(t *testing.T) {
	// No mechanism registered under this type: initialization fails and
	// every ambient operation degrades to its defined failure value.
	setupGlobal(t, "unregistered")

	cred, err := Alloc()
	if err == nil || cred != nil {
		t.Errorf("Alloc = (%v, %v), want (nil, error)", cred, err)
	}
	if err := Activate("x", time.Minute); err == nil {
		t.Error("Activate should fail when uninitialized")
	}
	if err := Verify("x"); err == nil {
		t.Error("Verify should fail when uninitialized")
	}
	if uid := UID("x"); uid != NobodyUID {
		t.Errorf("UID = %d, want nobody (%d)", uid, NobodyUID)
	}
	if gid := GID("x"); gid != NobodyGID {
		t.Errorf("GID = %d, want nobody (%d)", gid, NobodyGID)
	}
	if err := Unpack("x", wire.NewBuffer()); err == nil {
		t.Error("Unpack should fail when uninitialized")
	}

	// Free, Pack, and Print silently no-op.
	Free("x")
	buf := wire.NewBuffer()
	if err := Pack("x", buf); err != nil {
		t.Errorf("Pack while uninitialized = %v, want silent no-op", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Pack appended %d bytes while uninitialized", buf.Len())
	}
	var out bytes.Buffer
	Print("x", &out)
	if out.Len() != 0 {
		t.Errorf("Print wrote %q while uninitialized", out.String())
	}
}

func TestInitFailureIsRetryable(t *testing.T) {
	setupGlobal(t, "late")

	if err := Init(); err == nil {
		t.Fatal("expected Init to fail with no mechanism registered")
	}
	if globalCtx.Load() != nil {
		t.Fatal("failed Init must leave the global binding unset")
	}

	registerFake(t, "late")
	if err := Init(); err != nil {
		t.Fatalf("Init after registration: %v", err)
	}
	if _, err := Alloc(); err != nil {
		t.Errorf("Alloc after recovered Init: %v", err)
	}
}
