package auth

import (
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/authkit/config"
	"github.com/kbukum/authkit/errors"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/plugrack"
	"github.com/kbukum/authkit/wire"
)

// Context binds one authentication-type name to one resolved mechanism.
//
// The plugin rack is demand-loaded: Create allocates no registry; the
// first Resolve (explicit or implied by a dispatch call) creates the rack,
// scans the mechanism search path, activates the mechanism, and resolves
// its operation table all-or-nothing. The context owns its rack and
// releases it in Destroy.
//
// Dispatch methods are safe for concurrent use once resolution has
// succeeded. Destroy is not safe to call concurrently with in-flight
// dispatch calls on the same context; that ordering is the caller's
// responsibility.
type Context struct {
	authType  string
	pluginDir string

	mu       sync.Mutex
	rack     plugrack.Rack
	plugin   plugrack.Plugin
	ops      opsTable
	resolved atomic.Bool

	log *logger.Logger
}

// Option configures a Context at creation time.
type Option func(*Context)

// WithRack injects a pre-built plugin rack instead of the builtin one.
// The context takes ownership and destroys the rack in Destroy.
func WithRack(r plugrack.Rack) Option {
	return func(c *Context) { c.rack = r }
}

// WithPluginDir overrides the mechanism search path for this context.
// The default comes from the cached process configuration.
func WithPluginDir(dir string) Option {
	return func(c *Context) { c.pluginDir = dir }
}

// Create allocates a context for the given authentication type. The
// mechanism itself is resolved on first use.
func Create(authType string, opts ...Option) (*Context, error) {
	if strings.TrimSpace(authType) == "" {
		return nil, errors.InvalidArgument("auth_type", "authentication type must not be empty")
	}

	c := &Context{
		authType: authType,
		log:      logger.WithComponent("auth"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// AuthType returns the authentication-type name the context was created
// with.
func (c *Context) AuthType() string {
	if c == nil {
		return ""
	}
	return c.authType
}

// Resolve binds the context to its mechanism: create and scan the rack if
// needed, activate the mechanism matching the auth type, and resolve the
// full operation table. Resolve is idempotent and safe for concurrent use;
// a failed resolution leaves the context unresolved so a later call can
// retry.
func (c *Context) Resolve() error {
	if c == nil {
		return errors.InvalidArgument("context", "context must not be nil")
	}
	if c.resolved.Load() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.resolved.Load() {
		return nil
	}

	if c.rack == nil {
		rack, err := plugrack.New()
		if err != nil {
			return errors.RegistryUnavailable(err)
		}
		rack.SetCategory(Category)
		rack.SetLoadPolicy(plugrack.PolicyNone)

		dir := c.pluginDir
		if dir == "" {
			dir = config.Cached().PluginDir
		}
		if err := rack.Scan(dir); err != nil {
			_ = rack.Destroy()
			return errors.RegistryUnavailable(err)
		}
		c.rack = rack
	}

	plugin, ok := c.rack.ActivateByType(c.authType)
	if !ok {
		return errors.PluginNotFound(c.authType)
	}

	ops, n := resolveOps(plugin)
	if n < NumCapabilities {
		c.rack.Release(plugin)
		return errors.IncompletePlugin(c.authType, n, NumCapabilities)
	}

	c.plugin = plugin
	c.ops = ops
	c.resolved.Store(true)

	c.log.Debug("mechanism resolved",
		logger.Fields(logger.FieldAuthType, c.authType, logger.FieldCapability, n))
	return nil
}

// Destroy releases the mechanism and the owned rack. It fails with
// RegistryBusy when the rack still has activated mechanisms outstanding
// (for example an injected rack shared with another context) rather than
// leaking it; the caller may retry after releasing them.
func (c *Context) Destroy() error {
	if c == nil {
		return errors.InvalidArgument("context", "context must not be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.plugin != nil && c.rack != nil {
		c.rack.Release(c.plugin)
	}
	c.plugin = nil
	c.resolved.Store(false)
	c.ops = opsTable{}

	if c.rack != nil {
		if err := c.rack.Destroy(); err != nil {
			return errors.RegistryBusy(err)
		}
		c.rack = nil
	}
	return nil
}

// --- Explicit-context dispatch ---
//
// Every operation tolerates a nil context, credential, buffer, or sink and
// degrades to the operation's defined failure value. This lets callers
// thread possibly-not-yet-ready contexts through staged startup sequences
// without special-casing each call site.

// Alloc produces a new credential from the bound mechanism.
func (c *Context) Alloc() (Credential, error) {
	if c == nil {
		return nil, errors.InvalidArgument("context", "context must not be nil")
	}
	if err := c.Resolve(); err != nil {
		return nil, err
	}
	if c.ops.alloc == nil {
		return nil, errors.Unsupported(SymAlloc)
	}
	return c.ops.alloc()
}

// Free releases a credential. Freeing through a nil or unresolvable
// context, or freeing a nil credential, is a no-op.
func (c *Context) Free(cred Credential) {
	if c == nil || cred == nil {
		return
	}
	if c.Resolve() != nil || c.ops.free == nil {
		return
	}
	c.ops.free(cred)
}

// Activate binds a validity window to the credential.
func (c *Context) Activate(cred Credential, ttl time.Duration) error {
	if c == nil {
		return errors.InvalidArgument("context", "context must not be nil")
	}
	if cred == nil {
		return errors.InvalidArgument("credential", "credential must not be nil")
	}
	if err := c.Resolve(); err != nil {
		return err
	}
	if c.ops.activate == nil {
		return errors.Unsupported(SymActivate)
	}
	return c.ops.activate(cred, ttl)
}

// Verify checks the authenticity of the credential.
func (c *Context) Verify(cred Credential) error {
	if c == nil {
		return errors.InvalidArgument("context", "context must not be nil")
	}
	if cred == nil {
		return errors.InvalidArgument("credential", "credential must not be nil")
	}
	if err := c.Resolve(); err != nil {
		return err
	}
	if c.ops.verify == nil {
		return errors.Unsupported(SymVerify)
	}
	return c.ops.verify(cred)
}

// UID returns the verified user identity, or NobodyUID when the context or
// credential cannot be trusted.
func (c *Context) UID(cred Credential) uint32 {
	if c == nil || cred == nil {
		return NobodyUID
	}
	if c.Resolve() != nil || c.ops.getUID == nil {
		return NobodyUID
	}
	return c.ops.getUID(cred)
}

// GID returns the verified group identity, or NobodyGID when the context
// or credential cannot be trusted.
func (c *Context) GID(cred Credential) uint32 {
	if c == nil || cred == nil {
		return NobodyGID
	}
	if c.Resolve() != nil || c.ops.getGID == nil {
		return NobodyGID
	}
	return c.ops.getGID(cred)
}

// Pack appends the credential's mechanism-private bytes to the transport
// buffer.
func (c *Context) Pack(cred Credential, buf *wire.Buffer) error {
	if c == nil {
		return errors.InvalidArgument("context", "context must not be nil")
	}
	if cred == nil {
		return errors.InvalidArgument("credential", "credential must not be nil")
	}
	if buf == nil {
		return errors.InvalidArgument("buffer", "buffer must not be nil")
	}
	if err := c.Resolve(); err != nil {
		return err
	}
	if c.ops.pack == nil {
		return errors.Unsupported(SymPack)
	}
	return c.ops.pack(cred, buf)
}

// Unpack reconstructs the credential from the transport buffer.
func (c *Context) Unpack(cred Credential, buf *wire.Buffer) error {
	if c == nil {
		return errors.InvalidArgument("context", "context must not be nil")
	}
	if cred == nil {
		return errors.InvalidArgument("credential", "credential must not be nil")
	}
	if buf == nil {
		return errors.InvalidArgument("buffer", "buffer must not be nil")
	}
	if err := c.Resolve(); err != nil {
		return err
	}
	if c.ops.unpack == nil {
		return errors.Unsupported(SymUnpack)
	}
	return c.ops.unpack(cred, buf)
}

// Print writes a human-readable diagnostic dump of the credential.
func (c *Context) Print(cred Credential, w io.Writer) {
	if c == nil || cred == nil || w == nil {
		return
	}
	if c.Resolve() != nil || c.ops.print == nil {
		return
	}
	c.ops.print(cred, w)
}
