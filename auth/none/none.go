// Package none implements the null authentication mechanism.
//
// Credentials carry the caller's own uid/gid and every credential
// verifies. This is the default mechanism: it provides the credential
// plumbing with no authenticity guarantee, suitable for single-user
// development clusters and tests.
package none

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/plugrack"
	"github.com/kbukum/authkit/wire"
)

// Type is the mechanism type name.
const Type = "none"

func init() {
	plugrack.Register(auth.Category, Type, func(conf map[string]any) (plugrack.Plugin, error) {
		return auth.NewPlugin(Type, New()), nil
	})
}

// credential is the mechanism-private representation.
type credential struct {
	uid, gid  uint32
	expiresAt time.Time
	verified  bool
}

// Mechanism implements auth.Mechanism with unconditional trust.
type Mechanism struct{}

// New creates the null mechanism.
func New() *Mechanism {
	return &Mechanism{}
}

// Alloc produces a credential claiming the calling process identity.
func (m *Mechanism) Alloc() (auth.Credential, error) {
	return &credential{
		uid: uint32(os.Getuid()),
		gid: uint32(os.Getgid()),
	}, nil
}

// Free releases a credential. Nothing to release; idempotent by
// construction.
func (m *Mechanism) Free(cred auth.Credential) {}

// Activate records the validity window on the credential.
func (m *Mechanism) Activate(cred auth.Credential, ttl time.Duration) error {
	c, ok := cred.(*credential)
	if !ok {
		return errors.InvalidArgument("credential", "credential was not issued by this mechanism")
	}
	c.expiresAt = time.Now().Add(ttl)
	return nil
}

// Verify accepts every credential issued by this mechanism.
func (m *Mechanism) Verify(cred auth.Credential) error {
	c, ok := cred.(*credential)
	if !ok {
		return errors.Unverified("credential was not issued by this mechanism")
	}
	c.verified = true
	return nil
}

// UID returns the claimed user identity once verified.
func (m *Mechanism) UID(cred auth.Credential) uint32 {
	if c, ok := cred.(*credential); ok && c.verified {
		return c.uid
	}
	return auth.NobodyUID
}

// GID returns the claimed group identity once verified.
func (m *Mechanism) GID(cred auth.Credential) uint32 {
	if c, ok := cred.(*credential); ok && c.verified {
		return c.gid
	}
	return auth.NobodyGID
}

// Pack appends the claimed identity to the transport buffer.
func (m *Mechanism) Pack(cred auth.Credential, buf *wire.Buffer) error {
	c, ok := cred.(*credential)
	if !ok {
		return errors.InvalidArgument("credential", "credential was not issued by this mechanism")
	}
	if err := buf.AppendUint32(c.uid); err != nil {
		return err
	}
	return buf.AppendUint32(c.gid)
}

// Unpack reconstructs the claimed identity from the transport buffer.
func (m *Mechanism) Unpack(cred auth.Credential, buf *wire.Buffer) error {
	c, ok := cred.(*credential)
	if !ok {
		return errors.InvalidArgument("credential", "credential was not issued by this mechanism")
	}
	uid, err := buf.ExtractUint32()
	if err != nil {
		return errors.Unverified("malformed credential payload").WithCause(err)
	}
	gid, err := buf.ExtractUint32()
	if err != nil {
		return errors.Unverified("malformed credential payload").WithCause(err)
	}
	c.uid = uid
	c.gid = gid
	c.verified = false
	return nil
}

// Print writes a diagnostic dump of the credential.
func (m *Mechanism) Print(cred auth.Credential, w io.Writer) {
	c, ok := cred.(*credential)
	if !ok {
		return
	}
	fmt.Fprintf(w, "auth/none: uid=%d gid=%d verified=%v expires=%s\n",
		c.uid, c.gid, c.verified, c.expiresAt.Format(time.RFC3339))
}
