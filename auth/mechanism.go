package auth

import (
	"io"
	"time"

	"github.com/kbukum/authkit/plugrack"
	"github.com/kbukum/authkit/wire"
)

// Credential is an opaque capability representing an authenticated identity
// claim. Its concrete representation is owned and defined exclusively by
// the mechanism that allocated it; the dispatch layer only moves the handle
// between capabilities and never inspects it.
type Credential any

// Nobody is the identity sentinel returned for credentials that cannot be
// trusted: unverified, malformed, or dispatched through an uninitialized
// context.
const (
	NobodyUID uint32 = 99
	NobodyGID uint32 = 99
)

// Mechanism is the capability set every authentication mechanism
// implements.
//
// UID and GID results are meaningful only after Verify has succeeded for
// the same credential; mechanisms return the Nobody sentinels otherwise.
// Whether one credential may be used from multiple goroutines at once is
// mechanism-defined; the dispatch layer adds no serialization of its own.
type Mechanism interface {
	// Alloc produces a new, inactive credential.
	Alloc() (Credential, error)

	// Free releases a credential. It is idempotent: freeing an
	// already-freed or foreign credential is a no-op.
	Free(cred Credential)

	// Activate binds a validity window to the credential. The duration is
	// a logical validity input consumed by the mechanism, not a timer.
	Activate(cred Credential, ttl time.Duration) error

	// Verify checks the authenticity of the credential. It has no side
	// effects beyond the ok/fail determination.
	Verify(cred Credential) error

	// UID returns the verified user identity, or NobodyUID.
	UID(cred Credential) uint32

	// GID returns the verified group identity, or NobodyGID.
	GID(cred Credential) uint32

	// Pack appends the mechanism-private representation to the transport
	// buffer.
	Pack(cred Credential, buf *wire.Buffer) error

	// Unpack reconstructs the credential from the transport buffer.
	// Malformed or truncated input is rejected with an error, never a
	// panic.
	Unpack(cred Credential, buf *wire.Buffer) error

	// Print writes a human-readable diagnostic dump of the credential.
	Print(cred Credential, w io.Writer)
}

// Capability symbol names. The order of capabilitySymbols is an ABI
// contract with independently built mechanism modules: append only, never
// reorder or insert.
const (
	SymAlloc    = "auth_cred_alloc"
	SymFree     = "auth_cred_free"
	SymActivate = "auth_cred_activate"
	SymVerify   = "auth_cred_verify"
	SymGetUID   = "auth_cred_get_uid"
	SymGetGID   = "auth_cred_get_gid"
	SymPack     = "auth_cred_pack"
	SymUnpack   = "auth_cred_unpack"
	SymPrint    = "auth_cred_print"
)

var capabilitySymbols = [...]string{
	SymAlloc,
	SymFree,
	SymActivate,
	SymVerify,
	SymGetUID,
	SymGetGID,
	SymPack,
	SymUnpack,
	SymPrint,
}

// NumCapabilities is the size of a complete operation table.
const NumCapabilities = len(capabilitySymbols)

// CapabilitySymbols returns the required capability names in resolution
// order.
func CapabilitySymbols() []string {
	out := make([]string, NumCapabilities)
	copy(out, capabilitySymbols[:])
	return out
}

// Category is the plugin category the dispatch core activates mechanisms
// from.
const Category = "auth"

// mechanismPlugin exposes a Mechanism through the plugin capability table.
type mechanismPlugin struct {
	typ  string
	syms map[string]any
}

// NewPlugin wraps a Mechanism as a rack plugin exposing the nine standard
// capabilities. Mechanism packages use it in their registered factories:
//
//	plugrack.Register(auth.Category, "none", func(conf map[string]any) (plugrack.Plugin, error) {
//	    return auth.NewPlugin("none", New()), nil
//	})
func NewPlugin(typ string, m Mechanism) plugrack.Plugin {
	return &mechanismPlugin{
		typ: typ,
		syms: map[string]any{
			SymAlloc:    m.Alloc,
			SymFree:     m.Free,
			SymActivate: m.Activate,
			SymVerify:   m.Verify,
			SymGetUID:   m.UID,
			SymGetGID:   m.GID,
			SymPack:     m.Pack,
			SymUnpack:   m.Unpack,
			SymPrint:    m.Print,
		},
	}
}

func (p *mechanismPlugin) Type() string { return p.typ }

func (p *mechanismPlugin) Lookup(symbol string) (any, bool) {
	v, ok := p.syms[symbol]
	return v, ok
}
