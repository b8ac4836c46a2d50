package auth

import (
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/authkit/config"
	"github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/plugrack"
	"github.com/kbukum/authkit/wire"
)

// fakeCred is the mechanism-private credential used by fakeMechanism.
type fakeCred struct {
	uid, gid  uint32
	expiresAt time.Time
	verified  bool
	freed     bool
}

// fakeMechanism is an always-trust mechanism whose Pack writes a
// zero-length payload.
type fakeMechanism struct {
	failVerify   bool
	allocs       atomic.Int32
	factoryCalls atomic.Int32
}

func (m *fakeMechanism) Alloc() (Credential, error) {
	m.allocs.Add(1)
	return &fakeCred{uid: 1000, gid: 1000}, nil
}

func (m *fakeMechanism) Free(cred Credential) {
	c, ok := cred.(*fakeCred)
	if !ok || c.freed {
		return
	}
	c.freed = true
}

func (m *fakeMechanism) Activate(cred Credential, ttl time.Duration) error {
	c, ok := cred.(*fakeCred)
	if !ok {
		return errors.InvalidArgument("credential", "foreign credential")
	}
	c.expiresAt = time.Now().Add(ttl)
	return nil
}

func (m *fakeMechanism) Verify(cred Credential) error {
	c, ok := cred.(*fakeCred)
	if !ok {
		return errors.Unverified("foreign credential")
	}
	if m.failVerify {
		return errors.Unverified("")
	}
	c.verified = true
	return nil
}

func (m *fakeMechanism) UID(cred Credential) uint32 {
	if c, ok := cred.(*fakeCred); ok && c.verified {
		return c.uid
	}
	return NobodyUID
}

func (m *fakeMechanism) GID(cred Credential) uint32 {
	if c, ok := cred.(*fakeCred); ok && c.verified {
		return c.gid
	}
	return NobodyGID
}

func (m *fakeMechanism) Pack(cred Credential, buf *wire.Buffer) error {
	return buf.AppendBytes(nil)
}

func (m *fakeMechanism) Unpack(cred Credential, buf *wire.Buffer) error {
	_, err := buf.ExtractBytes()
	if err != nil {
		return errors.Unverified("malformed credential payload")
	}
	return nil
}

func (m *fakeMechanism) Print(cred Credential, w io.Writer) {
	c, ok := cred.(*fakeCred)
	if !ok {
		return
	}
	fmt.Fprintf(w, "fake credential uid=%d gid=%d verified=%v\n", c.uid, c.gid, c.verified)
}

// registerFake registers a fakeMechanism under the given type name for the
// duration of the test and returns it. The mechanism counts how many times
// its factory runs, so tests can assert on mechanism-load multiplicity.
func registerFake(t *testing.T, typ string) *fakeMechanism {
	t.Helper()
	m := &fakeMechanism{}
	plugrack.Register(Category, typ, func(conf map[string]any) (plugrack.Plugin, error) {
		m.factoryCalls.Add(1)
		return NewPlugin(typ, m), nil
	})
	t.Cleanup(func() { plugrack.Unregister(Category, typ) })
	return m
}

// partialPlugin exposes only the symbols it is given.
type partialPlugin struct {
	typ  string
	syms map[string]any
}

func (p *partialPlugin) Type() string { return p.typ }
func (p *partialPlugin) Lookup(symbol string) (any, bool) {
	v, ok := p.syms[symbol]
	return v, ok
}

// newPartialPlugin wraps a mechanism but drops the named symbols, modeling
// a stale module built against a shorter capability list.
func newPartialPlugin(typ string, m Mechanism, drop ...string) plugrack.Plugin {
	full := NewPlugin(typ, m)
	syms := make(map[string]any)
	for _, sym := range CapabilitySymbols() {
		if v, ok := full.Lookup(sym); ok {
			syms[sym] = v
		}
	}
	for _, sym := range drop {
		delete(syms, sym)
	}
	return &partialPlugin{typ: typ, syms: syms}
}

// setTestConfig points the cached process configuration at the given auth
// type for the duration of the test.
func setTestConfig(t *testing.T, authType string) {
	t.Helper()
	config.SetCached(config.Config{AuthType: authType, PluginDir: t.TempDir()})
	t.Cleanup(config.ResetCache)
}
