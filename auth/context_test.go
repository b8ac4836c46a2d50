package auth

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/plugrack"
	"github.com/kbukum/authkit/wire"
)

func TestCreateEmptyType(t *testing.T) {
	for _, typ := range []string{"", "   "} {
		if _, err := Create(typ); !errors.IsCode(err, errors.ErrCodeInvalidArgument) {
			t.Errorf("Create(%q) error = %v, want INVALID_ARGUMENT", typ, err)
		}
	}
}

func TestCreateThenDestroyWithoutDispatch(t *testing.T) {
	c, err := Create("none")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := c.Destroy(); err != nil {
		t.Errorf("Destroy without dispatch: %v", err)
	}
}

func TestResolveUnknownType(t *testing.T) {
	c, err := Create("no-such-mechanism", WithPluginDir(t.TempDir()))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := c.Resolve(); !errors.IsCode(err, errors.ErrCodePluginNotFound) {
		t.Errorf("Resolve error = %v, want PLUGIN_NOT_FOUND", err)
	}
}

func TestResolveIncompletePlugin(t *testing.T) {
	m := &fakeMechanism{}
	plugrack.Register(Category, "stale", func(conf map[string]any) (plugrack.Plugin, error) {
		return newPartialPlugin("stale", m, SymPrint), nil
	})
	t.Cleanup(func() { plugrack.Unregister(Category, "stale") })

	c, err := Create("stale", WithPluginDir(t.TempDir()))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	err = c.Resolve()
	if !errors.IsCode(err, errors.ErrCodeIncompletePlugin) {
		t.Fatalf("Resolve error = %v, want INCOMPLETE_PLUGIN", err)
	}

	// The partially resolved mechanism must have been released: the rack
	// is not busy and the context destroys cleanly.
	if err := c.Destroy(); err != nil {
		t.Errorf("Destroy after incomplete resolution: %v", err)
	}
}

func TestResolveRetriesAfterFailure(t *testing.T) {
	c, err := Create("latecomer", WithPluginDir(t.TempDir()))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := c.Resolve(); err == nil {
		t.Fatal("expected first Resolve to fail")
	}

	registerFake(t, "latecomer")
	if err := c.Resolve(); err != nil {
		t.Errorf("Resolve after registration: %v", err)
	}
	t.Cleanup(func() { _ = c.Destroy() })
}

func TestDispatchLifecycle(t *testing.T) {
	registerFake(t, "lifecycle")

	c, err := Create("lifecycle", WithPluginDir(t.TempDir()))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { _ = c.Destroy() })

	cred, err := c.Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if err := c.Activate(cred, time.Minute); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if err := c.Verify(cred); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if uid := c.UID(cred); uid != 1000 {
		t.Errorf("UID = %d, want 1000", uid)
	}
	if gid := c.GID(cred); gid != 1000 {
		t.Errorf("GID = %d, want 1000", gid)
	}

	var out bytes.Buffer
	c.Print(cred, &out)
	if !strings.Contains(out.String(), "uid=1000") {
		t.Errorf("Print output %q missing identity", out.String())
	}

	c.Free(cred)
}

func TestIdentityGatedOnVerify(t *testing.T) {
	registerFake(t, "gated")

	c, err := Create("gated", WithPluginDir(t.TempDir()))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { _ = c.Destroy() })

	cred, err := c.Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	if uid := c.UID(cred); uid != NobodyUID {
		t.Errorf("UID before Verify = %d, want nobody (%d)", uid, NobodyUID)
	}
	if gid := c.GID(cred); gid != NobodyGID {
		t.Errorf("GID before Verify = %d, want nobody (%d)", gid, NobodyGID)
	}

	if err := c.Verify(cred); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if uid := c.UID(cred); uid != 1000 {
		t.Errorf("UID after Verify = %d, want 1000", uid)
	}
}

func TestVerifyFailureKeepsNobody(t *testing.T) {
	m := registerFake(t, "untrusting")
	m.failVerify = true

	c, err := Create("untrusting", WithPluginDir(t.TempDir()))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { _ = c.Destroy() })

	cred, _ := c.Alloc()
	if err := c.Verify(cred); !errors.IsCode(err, errors.ErrCodeUnverified) {
		t.Errorf("Verify error = %v, want UNVERIFIED", err)
	}
	if uid := c.UID(cred); uid != NobodyUID {
		t.Errorf("UID after failed Verify = %d, want nobody", uid)
	}
}

func TestFreeIdempotent(t *testing.T) {
	registerFake(t, "freeable")

	c, err := Create("freeable", WithPluginDir(t.TempDir()))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { _ = c.Destroy() })

	cred, err := c.Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	c.Free(cred)
	c.Free(cred) // double release must not corrupt anything
	c.Free(nil)

	// The context stays usable.
	if _, err := c.Alloc(); err != nil {
		t.Errorf("Alloc after double free: %v", err)
	}
}

func TestRoundTripTrivialMechanism(t *testing.T) {
	registerFake(t, "trivial")

	c, err := Create("trivial", WithPluginDir(t.TempDir()))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { _ = c.Destroy() })

	cred, err := c.Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}

	buf := wire.NewBuffer()
	if err := c.Pack(cred, buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}

	fresh, err := c.Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if err := c.Unpack(fresh, buf); err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if err := c.Verify(fresh); err != nil {
		t.Errorf("Verify after round-trip: %v", err)
	}
}

func TestNilTolerance(t *testing.T) {
	registerFake(t, "niltolerant")

	var nilCtx *Context
	if _, err := nilCtx.Alloc(); !errors.IsCode(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("nil context Alloc error = %v", err)
	}
	if err := nilCtx.Verify("x"); !errors.IsCode(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("nil context Verify error = %v", err)
	}
	if uid := nilCtx.UID("x"); uid != NobodyUID {
		t.Errorf("nil context UID = %d, want nobody", uid)
	}
	nilCtx.Free("x")       // must not panic
	nilCtx.Print("x", nil) // must not panic
	if err := nilCtx.Destroy(); !errors.IsCode(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("nil context Destroy error = %v", err)
	}

	c, err := Create("niltolerant", WithPluginDir(t.TempDir()))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { _ = c.Destroy() })

	if err := c.Verify(nil); !errors.IsCode(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("nil credential Verify error = %v", err)
	}
	if err := c.Activate(nil, time.Minute); !errors.IsCode(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("nil credential Activate error = %v", err)
	}
	cred, _ := c.Alloc()
	if err := c.Pack(cred, nil); !errors.IsCode(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("nil buffer Pack error = %v", err)
	}
	if err := c.Unpack(cred, nil); !errors.IsCode(err, errors.ErrCodeInvalidArgument) {
		t.Errorf("nil buffer Unpack error = %v", err)
	}
	if uid := c.UID(nil); uid != NobodyUID {
		t.Errorf("nil credential UID = %d, want nobody", uid)
	}
}

func TestUnsupportedCapability(t *testing.T) {
	// A context whose table lost a slot after resolution models a
	// mechanism that does not provide the capability.
	m := &fakeMechanism{}
	c := &Context{authType: "partial"}
	ops, _ := resolveOps(NewPlugin("partial", m))
	ops.activate = nil
	c.ops = ops
	c.resolved.Store(true)

	cred, err := c.Alloc()
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if err := c.Activate(cred, time.Minute); !errors.IsCode(err, errors.ErrCodeUnsupported) {
		t.Errorf("Activate error = %v, want UNSUPPORTED", err)
	}
}

func TestDestroyBusySharedRack(t *testing.T) {
	registerFake(t, "shared-a")
	registerFake(t, "shared-b")

	rack, err := plugrack.New()
	if err != nil {
		t.Fatalf("plugrack.New: %v", err)
	}
	rack.SetCategory(Category)

	// A second activation the context does not own keeps the rack busy.
	other, ok := rack.ActivateByType("shared-b")
	if !ok {
		t.Fatal("activate shared-b")
	}

	c, err := Create("shared-a", WithRack(rack), WithPluginDir(t.TempDir()))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := c.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if err := c.Destroy(); !errors.IsCode(err, errors.ErrCodeRegistryBusy) {
		t.Fatalf("Destroy error = %v, want REGISTRY_BUSY", err)
	}

	rack.Release(other)
	if err := c.Destroy(); err != nil {
		t.Errorf("Destroy after releasing outstanding plugin: %v", err)
	}
}
