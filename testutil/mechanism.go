package testutil

import (
	"testing"
	"time"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/wire"
)

// AssertRoundTrip exercises the full credential lifecycle: alloc, activate,
// pack, unpack into a fresh credential, verify.
func AssertRoundTrip(t *testing.T, m auth.Mechanism) {
	t.Helper()

	cred, err := m.Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	defer m.Free(cred)

	if err := m.Activate(cred, time.Minute); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	buf := wire.NewBuffer()
	if err := m.Pack(cred, buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}

	fresh, err := m.Alloc()
	if err != nil {
		t.Fatalf("Alloc fresh: %v", err)
	}
	defer m.Free(fresh)

	if err := m.Unpack(fresh, buf); err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if err := m.Verify(fresh); err != nil {
		t.Fatalf("Verify after round-trip: %v", err)
	}
}

// AssertFreeIdempotent checks that double release and foreign release do
// not corrupt the mechanism.
func AssertFreeIdempotent(t *testing.T, m auth.Mechanism) {
	t.Helper()

	cred, err := m.Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	m.Free(cred)
	m.Free(cred)
	m.Free(nil)
	m.Free("not a credential of this mechanism")

	if _, err := m.Alloc(); err != nil {
		t.Errorf("Alloc after double free: %v", err)
	}
}

// AssertIdentityGated checks that uid/gid stay at the nobody sentinel until
// Verify succeeds for the credential.
func AssertIdentityGated(t *testing.T, m auth.Mechanism) {
	t.Helper()

	cred, err := m.Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	defer m.Free(cred)

	if err := m.Activate(cred, time.Minute); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	if uid := m.UID(cred); uid != auth.NobodyUID {
		t.Errorf("UID before Verify = %d, want nobody (%d)", uid, auth.NobodyUID)
	}
	if gid := m.GID(cred); gid != auth.NobodyGID {
		t.Errorf("GID before Verify = %d, want nobody (%d)", gid, auth.NobodyGID)
	}

	if err := m.Verify(cred); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if uid := m.UID(cred); uid == auth.NobodyUID {
		t.Error("UID after successful Verify still nobody")
	}
}

// AssertRejectsMalformed checks that Unpack fails cleanly on truncated
// input instead of panicking or accepting it.
func AssertRejectsMalformed(t *testing.T, m auth.Mechanism) {
	t.Helper()

	cred, err := m.Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	defer m.Free(cred)

	if err := m.Activate(cred, time.Minute); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	buf := wire.NewBuffer()
	if err := m.Pack(cred, buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}

	raw := buf.Bytes()
	if len(raw) == 0 {
		t.Skip("mechanism packs a zero-length payload; nothing to truncate")
	}

	fresh, err := m.Alloc()
	if err != nil {
		t.Fatalf("Alloc fresh: %v", err)
	}
	defer m.Free(fresh)

	truncated := wire.FromBytes(raw[:len(raw)/2])
	if err := m.Unpack(fresh, truncated); err == nil {
		t.Error("Unpack accepted truncated input")
	}
}
