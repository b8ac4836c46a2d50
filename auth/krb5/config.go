package krb5

import (
	"time"

	"github.com/kbukum/authkit/errors"
)

// Identity is a local uid/gid pair a Kerberos principal maps to.
type Identity struct {
	UID uint32 `mapstructure:"uid"`
	GID uint32 `mapstructure:"gid"`
}

// Config configures the Kerberos authentication mechanism.
//
// A node acting as a verifier needs ServicePrincipal and KeytabPath. A
// node issuing credentials additionally needs the client fields; exactly
// one of ClientKeytabPath, CCachePath, or ClientPassword selects how the
// client obtains its ticket-granting ticket.
type Config struct {
	// ServicePrincipal is the SPN credentials are issued for and
	// verified against (required).
	ServicePrincipal string `mapstructure:"service_principal"`

	// KeytabPath is the service keytab used to verify AP-REQs. Nodes
	// that only issue credentials may leave it empty.
	KeytabPath string `mapstructure:"keytab_path"`

	// Krb5ConfPath is the Kerberos client configuration
	// (default: /etc/krb5.conf).
	Krb5ConfPath string `mapstructure:"krb5_conf_path"`

	// Realm is the Kerberos realm for client logins.
	Realm string `mapstructure:"realm"`

	// ClientPrincipal is the principal used to issue credentials.
	ClientPrincipal string `mapstructure:"client_principal"`

	// ClientKeytabPath is a keytab holding ClientPrincipal's key.
	ClientKeytabPath string `mapstructure:"client_keytab_path"`

	// CCachePath is a credential cache to issue from (e.g. after kinit).
	CCachePath string `mapstructure:"ccache_path"`

	// ClientPassword is ClientPrincipal's password. Prefer a keytab or
	// credential cache.
	ClientPassword string `mapstructure:"client_password"`

	// MaxClockSkew is the tolerated clock drift during verification
	// (default: 5m).
	MaxClockSkew time.Duration `mapstructure:"max_clock_skew"`

	// IdentityMap maps verified principals ("user@REALM", with a bare
	// "user" fallback) to local identities. Principals without a mapping
	// fail verification.
	IdentityMap map[string]Identity `mapstructure:"identity_map"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Krb5ConfPath == "" {
		c.Krb5ConfPath = "/etc/krb5.conf"
	}
	if c.MaxClockSkew <= 0 {
		c.MaxClockSkew = 5 * time.Minute
	}
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.ServicePrincipal == "" {
		return errors.InvalidArgument("service_principal", "service principal is required")
	}
	if c.KeytabPath == "" && !c.clientConfigured() {
		return errors.InvalidArgument("keytab_path",
			"either a service keytab (verifier) or client credentials (issuer) must be configured")
	}
	if (c.ClientKeytabPath != "" || c.ClientPassword != "") && c.ClientPrincipal == "" {
		return errors.InvalidArgument("client_principal",
			"client principal is required with a client keytab or password")
	}
	return nil
}

// clientConfigured reports whether the mechanism can issue credentials.
func (c *Config) clientConfigured() bool {
	return c.ClientKeytabPath != "" || c.CCachePath != "" || c.ClientPassword != ""
}

// mapPrincipal resolves a verified principal to a local identity.
func (c *Config) mapPrincipal(name, realm string) (Identity, bool) {
	if id, ok := c.IdentityMap[name+"@"+realm]; ok {
		return id, true
	}
	id, ok := c.IdentityMap[name]
	return id, ok
}
