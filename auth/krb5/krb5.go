// Package krb5 implements a Kerberos authentication mechanism.
//
// Activation obtains a service ticket for the configured SPN and wraps it
// in an AP-REQ; verification decrypts the AP-REQ against the service
// keytab and maps the authenticated principal to a local uid/gid through
// a static identity map. Only the raw AP-REQ travels on the wire.
package krb5

import (
	"fmt"
	"io"
	"os"
	"time"

	krb5client "github.com/jcmturner/gokrb5/v8/client"
	krb5config "github.com/jcmturner/gokrb5/v8/config"
	"github.com/jcmturner/gokrb5/v8/credentials"
	"github.com/jcmturner/gokrb5/v8/keytab"
	"github.com/jcmturner/gokrb5/v8/messages"
	"github.com/jcmturner/gokrb5/v8/service"
	"github.com/jcmturner/gokrb5/v8/types"

	"github.com/kbukum/authkit/auth"
	"github.com/kbukum/authkit/config"
	"github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/plugrack"
	"github.com/kbukum/authkit/wire"
)

// Type is the mechanism type name.
const Type = "krb5"

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
	apReq     []byte
	principal string
	realm     string
	uid, gid  uint32
	verified  bool
}

// Mechanism implements auth.Mechanism over Kerberos AP-REQ exchange.
type Mechanism struct {
	cfg    Config
	kt     *keytab.Keytab     // nil when the node only issues
	client *krb5client.Client // nil when the node only verifies
}

// New creates a Kerberos mechanism from configuration, loading the
// service keytab and, when client credentials are configured, creating a
// Kerberos client for issuing.
func New(cfg *Config) (*Mechanism, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Mechanism{cfg: *cfg}

	if cfg.KeytabPath != "" {
		kt, err := loadKeytab(cfg.KeytabPath)
		if err != nil {
			return nil, err
		}
		m.kt = kt
	}

	if cfg.clientConfigured() {
		cl, err := newClient(cfg)
		if err != nil {
			return nil, err
		}
		m.client = cl
	}

	return m, nil
}

// Alloc produces an empty credential awaiting activation or unpacking.
func (m *Mechanism) Alloc() (auth.Credential, error) {
	return &credential{}, nil
}

// Free releases a credential.
func (m *Mechanism) Free(cred auth.Credential) {
	if c, ok := cred.(*credential); ok {
		c.apReq = nil
	}
}

// Activate obtains a service ticket and builds an AP-REQ for it. The ttl
// is advisory only: ticket lifetime is governed by the KDC.
func (m *Mechanism) Activate(cred auth.Credential, ttl time.Duration) error {
	c, ok := cred.(*credential)
	if !ok {
		return errors.InvalidArgument("credential", "credential was not issued by this mechanism")
	}
	if m.client == nil {
		return errors.Unsupported("activate").
			WithDetail("reason", "no client credentials configured on this node")
	}

	if err := m.client.Login(); err != nil {
		return errors.Unverified("kerberos login failed").WithCause(err)
	}
	tkt, sessionKey, err := m.client.GetServiceTicket(m.cfg.ServicePrincipal)
	if err != nil {
		return errors.Unverified("obtain service ticket").WithCause(err)
	}

	auther, err := types.NewAuthenticator(m.client.Credentials.Domain(), m.client.Credentials.CName())
	if err != nil {
		return errors.Unverified("build authenticator").WithCause(err)
	}
	apReq, err := messages.NewAPReq(tkt, sessionKey, auther)
	if err != nil {
		return errors.Unverified("build AP-REQ").WithCause(err)
	}
	raw, err := apReq.Marshal()
	if err != nil {
		return errors.Unverified("marshal AP-REQ").WithCause(err)
	}

	c.apReq = raw
	c.verified = false
	return nil
}

// Verify decrypts the AP-REQ against the service keytab and resolves the
// authenticated principal through the identity map.
func (m *Mechanism) Verify(cred auth.Credential) error {
	c, ok := cred.(*credential)
	if !ok {
		return errors.Unverified("credential was not issued by this mechanism")
	}
	if len(c.apReq) == 0 {
		return errors.Unverified("credential was never activated")
	}
	if m.kt == nil {
		return errors.Unsupported("verify").
			WithDetail("reason", "no service keytab configured on this node")
	}

	var apReq messages.APReq
	if err := apReq.Unmarshal(c.apReq); err != nil {
		return errors.Unverified("malformed AP-REQ").WithCause(err)
	}

	settings := service.NewSettings(
		m.kt,
		service.MaxClockSkew(m.cfg.MaxClockSkew),
		service.DecodePAC(false),
		service.KeytabPrincipal(m.cfg.ServicePrincipal),
	)
	ok, creds, err := service.VerifyAPREQ(&apReq, settings)
	if err != nil {
		return errors.Unverified("AP-REQ rejected").WithCause(err)
	}
	if !ok {
		return errors.Unverified("AP-REQ verification failed")
	}

	name := creds.CName().PrincipalNameString()
	realm := creds.Domain()
	id, mapped := m.cfg.mapPrincipal(name, realm)
	if !mapped {
		return errors.Unverified("no identity mapping for principal").
			WithDetail("principal", name+"@"+realm)
	}

	c.principal = name
	c.realm = realm
	c.uid = id.UID
	c.gid = id.GID
	c.verified = true
	return nil
}

// UID returns the mapped user identity once verified.
func (m *Mechanism) UID(cred auth.Credential) uint32 {
	if c, ok := cred.(*credential); ok && c.verified {
		return c.uid
	}
	return auth.NobodyUID
}

// GID returns the mapped group identity once verified.
func (m *Mechanism) GID(cred auth.Credential) uint32 {
	if c, ok := cred.(*credential); ok && c.verified {
		return c.gid
	}
	return auth.NobodyGID
}

// Pack appends the raw AP-REQ to the transport buffer.
func (m *Mechanism) Pack(cred auth.Credential, buf *wire.Buffer) error {
	c, ok := cred.(*credential)
	if !ok {
		return errors.InvalidArgument("credential", "credential was not issued by this mechanism")
	}
	return buf.AppendBytes(c.apReq)
}

// Unpack reads a raw AP-REQ from the transport buffer. The credential
// stays untrusted until Verify decrypts it.
func (m *Mechanism) Unpack(cred auth.Credential, buf *wire.Buffer) error {
	c, ok := cred.(*credential)
	if !ok {
		return errors.InvalidArgument("credential", "credential was not issued by this mechanism")
	}
	raw, err := buf.ExtractBytes()
	if err != nil {
		return errors.Unverified("malformed credential payload").WithCause(err)
	}
	c.apReq = raw
	c.principal = ""
	c.realm = ""
	c.verified = false
	return nil
}

// Print writes a diagnostic dump of the credential.
func (m *Mechanism) Print(cred auth.Credential, w io.Writer) {
	c, ok := cred.(*credential)
	if !ok {
		return
	}
	fmt.Fprintf(w, "auth/krb5: principal=%s realm=%s uid=%d gid=%d apreq_len=%d verified=%v\n",
		c.principal, c.realm, c.uid, c.gid, len(c.apReq), c.verified)
}

// loadKeytab reads and parses a keytab file.
func loadKeytab(path string) (*keytab.Keytab, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.InvalidArgument("keytab_path", "read keytab file").WithCause(err)
	}
	kt := keytab.New()
	if err := kt.Unmarshal(data); err != nil {
		return nil, errors.InvalidArgument("keytab_path", "parse keytab").WithCause(err)
	}
	return kt, nil
}

// newClient creates a Kerberos client from whichever credential source is
// configured, preferring keytab, then credential cache, then password.
func newClient(cfg *Config) (*krb5client.Client, error) {
	conf, err := krb5config.Load(cfg.Krb5ConfPath)
	if err != nil {
		return nil, errors.InvalidArgument("krb5_conf_path", "parse krb5.conf").WithCause(err)
	}

	switch {
	case cfg.ClientKeytabPath != "":
		kt, err := loadKeytab(cfg.ClientKeytabPath)
		if err != nil {
			return nil, err
		}
		return krb5client.NewWithKeytab(cfg.ClientPrincipal, cfg.Realm, kt, conf,
			krb5client.DisablePAFXFAST(true)), nil
	case cfg.CCachePath != "":
		cc, err := credentials.LoadCCache(cfg.CCachePath)
		if err != nil {
			return nil, errors.InvalidArgument("ccache_path", "load credential cache").WithCause(err)
		}
		cl, err := krb5client.NewFromCCache(cc, conf, krb5client.DisablePAFXFAST(true))
		if err != nil {
			return nil, errors.InvalidArgument("ccache_path", "create client from ccache").WithCause(err)
		}
		return cl, nil
	default:
		return krb5client.NewWithPassword(cfg.ClientPrincipal, cfg.Realm, cfg.ClientPassword, conf,
			krb5client.DisablePAFXFAST(true)), nil
	}
}
