// Package sharedsecret implements a MUNGE-style authentication mechanism.
//
// A credential claims the issuing process's uid/gid plus a validity
// window, sealed with an HMAC over the claim under a cluster-wide shared
// key. Any node holding the same key can verify the seal; nobody else can
// forge it. Replay within the validity window is accepted, like MUNGE:
// the mechanism authenticates identity, it does not provide uniqueness.
package sharedsecret

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	naclauth "golang.org/x/crypto/nacl/auth"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/config"
	"github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/plugrack"
	"github.com/kbukum/authkit/wire"
)

// Type is the mechanism type name.
const Type = "sharedsecret"

func init() {
	plugrack.Register(auth.Category, Type, func(conf map[string]any) (plugrack.Plugin, error) {
		cfg := &Config{}
		if err := config.DecodeSection(conf, cfg); err != nil {
			return nil, err
		}
		m, err := New(cfg)
		if err != nil {
			return nil, err
		}
		return auth.NewPlugin(Type, m), nil
	})
}

// credential is the mechanism-private representation.
type credential struct {
	id        uuid.UUID
	uid, gid  uint32
	issuedAt  time.Time
	expiresAt time.Time
	mac       []byte
	verified  bool
}

// Mechanism implements auth.Mechanism with a shared-key HMAC seal.
type Mechanism struct {
	key        [KeySize]byte
	defaultTTL time.Duration
}

// New creates a shared-secret mechanism from configuration.
func New(cfg *Config) (*Mechanism, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Mechanism{
		key:        cfg.key(),
		defaultTTL: cfg.DefaultTTL,
	}, nil
}

// Alloc produces an unsealed credential claiming the calling process
// identity.
func (m *Mechanism) Alloc() (auth.Credential, error) {
	return &credential{
		id:  uuid.New(),
		uid: uint32(os.Getuid()),
		gid: uint32(os.Getgid()),
	}, nil
}

// Free releases a credential. Idempotent by construction.
func (m *Mechanism) Free(cred auth.Credential) {}

// Activate seals the credential for the given validity window. A
// non-positive ttl uses the configured default.
func (m *Mechanism) Activate(cred auth.Credential, ttl time.Duration) error {
	c, ok := cred.(*credential)
	if !ok {
		return errors.InvalidArgument("credential", "credential was not issued by this mechanism")
	}
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	c.issuedAt = time.Now().Truncate(time.Second)
	c.expiresAt = c.issuedAt.Add(ttl)

	payload, err := c.claimBytes()
	if err != nil {
		return err
	}
	sum := naclauth.Sum(payload, &m.key)
	c.mac = sum[:]
	c.verified = false
	return nil
}

// Verify checks the seal and the validity window.
func (m *Mechanism) Verify(cred auth.Credential) error {
	c, ok := cred.(*credential)
	if !ok {
		return errors.Unverified("credential was not issued by this mechanism")
	}
	if len(c.mac) == 0 {
		return errors.Unverified("credential was never activated")
	}

	payload, err := c.claimBytes()
	if err != nil {
		return errors.Unverified("credential claim cannot be reconstructed").WithCause(err)
	}
	if !naclauth.Verify(c.mac, payload, &m.key) {
		return errors.Unverified("credential seal does not match the shared key")
	}

	now := time.Now()
	if now.Before(c.issuedAt) {
		return errors.Unverified("credential issued in the future")
	}
	if now.After(c.expiresAt) {
		return errors.Unverified("credential validity window has expired")
	}

	c.verified = true
	return nil
}

// UID returns the sealed user identity once verified.
func (m *Mechanism) UID(cred auth.Credential) uint32 {
	if c, ok := cred.(*credential); ok && c.verified {
		return c.uid
	}
	return auth.NobodyUID
}

// GID returns the sealed group identity once verified.
func (m *Mechanism) GID(cred auth.Credential) uint32 {
	if c, ok := cred.(*credential); ok && c.verified {
		return c.gid
	}
	return auth.NobodyGID
}

// Pack appends the sealed claim to the transport buffer.
func (m *Mechanism) Pack(cred auth.Credential, buf *wire.Buffer) error {
	c, ok := cred.(*credential)
	if !ok {
		return errors.InvalidArgument("credential", "credential was not issued by this mechanism")
	}
	if err := buf.AppendBytes(c.id[:]); err != nil {
		return err
	}
	if err := buf.AppendUint32(c.uid); err != nil {
		return err
	}
	if err := buf.AppendUint32(c.gid); err != nil {
		return err
	}
	if err := buf.AppendInt64(c.issuedAt.Unix()); err != nil {
		return err
	}
	if err := buf.AppendInt64(c.expiresAt.Unix()); err != nil {
		return err
	}
	return buf.AppendBytes(c.mac)
}

// Unpack reconstructs the sealed claim from the transport buffer. The
// credential stays untrusted until Verify checks the seal.
func (m *Mechanism) Unpack(cred auth.Credential, buf *wire.Buffer) error {
	c, ok := cred.(*credential)
	if !ok {
		return errors.InvalidArgument("credential", "credential was not issued by this mechanism")
	}

	idRaw, err := buf.ExtractBytes()
	if err != nil {
		return errors.Unverified("malformed credential payload").WithCause(err)
	}
	id, err := uuid.FromBytes(idRaw)
	if err != nil {
		return errors.Unverified("malformed credential id").WithCause(err)
	}
	uid, err := buf.ExtractUint32()
	if err != nil {
		return errors.Unverified("malformed credential payload").WithCause(err)
	}
	gid, err := buf.ExtractUint32()
	if err != nil {
		return errors.Unverified("malformed credential payload").WithCause(err)
	}
	issued, err := buf.ExtractInt64()
	if err != nil {
		return errors.Unverified("malformed credential payload").WithCause(err)
	}
	expires, err := buf.ExtractInt64()
	if err != nil {
		return errors.Unverified("malformed credential payload").WithCause(err)
	}
	mac, err := buf.ExtractBytes()
	if err != nil {
		return errors.Unverified("malformed credential payload").WithCause(err)
	}

	c.id = id
	c.uid = uid
	c.gid = gid
	c.issuedAt = time.Unix(issued, 0)
	c.expiresAt = time.Unix(expires, 0)
	c.mac = mac
	c.verified = false
	return nil
}

// Print writes a diagnostic dump of the credential.
func (m *Mechanism) Print(cred auth.Credential, w io.Writer) {
	c, ok := cred.(*credential)
	if !ok {
		return
	}
	fmt.Fprintf(w, "auth/sharedsecret: id=%s uid=%d gid=%d issued=%s expires=%s sealed=%v verified=%v\n",
		c.id, c.uid, c.gid,
		c.issuedAt.Format(time.RFC3339), c.expiresAt.Format(time.RFC3339),
		len(c.mac) > 0, c.verified)
}

// claimBytes builds the canonical byte representation the seal covers.
func (c *credential) claimBytes() ([]byte, error) {
	buf := wire.NewBuffer()
	if err := buf.AppendBytes(c.id[:]); err != nil {
		return nil, err
	}
	if err := buf.AppendUint32(c.uid); err != nil {
		return nil, err
	}
	if err := buf.AppendUint32(c.gid); err != nil {
		return nil, err
	}
	if err := buf.AppendInt64(c.issuedAt.Unix()); err != nil {
		return nil, err
	}
	if err := buf.AppendInt64(c.expiresAt.Unix()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
