// Package jwt implements a token-based authentication mechanism.
//
// Activation signs an HMAC JWT carrying the caller's uid/gid as custom
// claims; verification re-parses the token under the shared secret and
// validates signature, issuer, and expiry. Only the token string travels
// on the wire, so any node holding the same secret can verify.
package jwt

import (
	"fmt"
	"io"
	"os"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/config"
	"github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/plugrack"
	"github.com/kbukum/authkit/wire"
)

// Type is the mechanism type name.
const Type = "jwt"

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

// identityClaims is the claims payload carried by every token.
type identityClaims struct {
	gojwt.RegisteredClaims
	UID uint32 `json:"uid"`
	GID uint32 `json:"gid"`
}

// credential is the mechanism-private representation.
type credential struct {
	uid, gid uint32
	token    string
	verified bool
}

// Mechanism implements auth.Mechanism over signed JWTs.
type Mechanism struct {
	cfg Config
}

// New creates a JWT mechanism from configuration.
func New(cfg *Config) (*Mechanism, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Mechanism{cfg: *cfg}, nil
}

// Alloc produces an unsigned credential claiming the calling process
// identity.
func (m *Mechanism) Alloc() (auth.Credential, error) {
	return &credential{
		uid: uint32(os.Getuid()),
		gid: uint32(os.Getgid()),
	}, nil
}

// Free releases a credential. Idempotent by construction.
func (m *Mechanism) Free(cred auth.Credential) {}

// Activate signs a token for the credential's claimed identity. A
// non-positive ttl uses the configured default.
func (m *Mechanism) Activate(cred auth.Credential, ttl time.Duration) error {
	c, ok := cred.(*credential)
	if !ok {
		return errors.InvalidArgument("credential", "credential was not issued by this mechanism")
	}
	if ttl <= 0 {
		ttl = m.cfg.DefaultTTL
	}

	now := time.Now()
	claims := &identityClaims{
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.cfg.Issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
		UID: c.uid,
		GID: c.gid,
	}
	signed, err := gojwt.NewWithClaims(m.cfg.signingMethod(), claims).
		SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	c.token = signed
	c.verified = false
	return nil
}

// Verify parses and validates the token, adopting its identity claims on
// success.
func (m *Mechanism) Verify(cred auth.Credential) error {
	c, ok := cred.(*credential)
	if !ok {
		return errors.Unverified("credential was not issued by this mechanism")
	}
	if c.token == "" {
		return errors.Unverified("credential was never activated")
	}

	claims := &identityClaims{}
	token, err := gojwt.ParseWithClaims(c.token, claims, m.keyFunc,
		gojwt.WithValidMethods([]string{m.cfg.signingMethod().Alg()}),
		gojwt.WithIssuer(m.cfg.Issuer),
		gojwt.WithIssuedAt(),
	)
	if err != nil {
		return errors.Unverified("token rejected").WithCause(err)
	}
	if !token.Valid {
		return errors.Unverified("token is not valid")
	}

	c.uid = claims.UID
	c.gid = claims.GID
	c.verified = true
	return nil
}

// UID returns the token's user identity once verified.
func (m *Mechanism) UID(cred auth.Credential) uint32 {
	if c, ok := cred.(*credential); ok && c.verified {
		return c.uid
	}
	return auth.NobodyUID
}

// GID returns the token's group identity once verified.
func (m *Mechanism) GID(cred auth.Credential) uint32 {
	if c, ok := cred.(*credential); ok && c.verified {
		return c.gid
	}
	return auth.NobodyGID
}

// Pack appends the signed token to the transport buffer.
func (m *Mechanism) Pack(cred auth.Credential, buf *wire.Buffer) error {
	c, ok := cred.(*credential)
	if !ok {
		return errors.InvalidArgument("credential", "credential was not issued by this mechanism")
	}
	return buf.AppendString(c.token)
}

// Unpack reads a signed token from the transport buffer. The credential
// stays untrusted until Verify re-validates the token.
func (m *Mechanism) Unpack(cred auth.Credential, buf *wire.Buffer) error {
	c, ok := cred.(*credential)
	if !ok {
		return errors.InvalidArgument("credential", "credential was not issued by this mechanism")
	}
	token, err := buf.ExtractString()
	if err != nil {
		return errors.Unverified("malformed credential payload").WithCause(err)
	}
	c.token = token
	c.verified = false
	return nil
}

// Print writes a diagnostic dump of the credential. The token itself is
// redacted since it is a bearer secret.
func (m *Mechanism) Print(cred auth.Credential, w io.Writer) {
	c, ok := cred.(*credential)
	if !ok {
		return
	}
	fmt.Fprintf(w, "auth/jwt: uid=%d gid=%d signed=%v verified=%v\n",
		c.uid, c.gid, c.token != "", c.verified)
}

// keyFunc is the gojwt.Keyfunc used during token parsing.
func (m *Mechanism) keyFunc(token *gojwt.Token) (any, error) {
	expected := m.cfg.signingMethod()
	if token.Method.Alg() != expected.Alg() {
		return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
	}
	return []byte(m.cfg.Secret), nil
}
