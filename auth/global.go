package auth

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/authkit/config"
	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/version"
	"github.com/kbukum/authkit/wire"
)

// The global binding: one process-wide context, constructed lazily on the
// first ambient dispatch call. The mutex guards the entire construction
// sequence (read cached configuration, create context, resolve operations)
// so concurrent first calls cannot race into two contexts or load a
// mechanism module twice. Dispatch after a successful initialization is a
// lock-free atomic load. sync.Once is deliberately not used here: a failed
// initialization must stay retryable.
var (
	globalMu  sync.Mutex
	globalCtx atomic.Pointer[Context]
)

// Init initializes the global binding from the cached process
// configuration. It is idempotent; concurrent callers construct at most
// one context. On failure the binding stays unset and the error is
// returned, so a later call retries once the underlying condition clears.
func Init() error {
	if globalCtx.Load() != nil {
		return nil
	}

	globalMu.Lock()
	defer globalMu.Unlock()

	if globalCtx.Load() != nil {
		return nil
	}

	cfg := config.Cached()
	log := logger.WithComponent("auth")

	c, err := Create(cfg.AuthType, WithPluginDir(cfg.PluginDir))
	if err != nil {
		log.Warn("cannot create authentication context",
			logger.Fields(logger.FieldAuthType, cfg.AuthType, logger.FieldError, err.Error()))
		return err
	}
	if err := c.Resolve(); err != nil {
		log.Warn("cannot resolve mechanism operations",
			logger.Fields(logger.FieldAuthType, cfg.AuthType, logger.FieldError, err.Error()))
		_ = c.Destroy()
		return err
	}

	globalCtx.Store(c)
	log.Info("authentication initialized",
		logger.Fields(logger.FieldAuthType, cfg.AuthType, logger.FieldVersion, version.Short()))
	return nil
}

// resetGlobal clears the global binding. Tests only.
func resetGlobal() {
	globalMu.Lock()
	if c := globalCtx.Load(); c != nil {
		_ = c.Destroy()
	}
	globalCtx.Store(nil)
	globalMu.Unlock()
}

// ensureInitialized returns the global context, initializing it if needed.
func ensureInitialized() (*Context, error) {
	if c := globalCtx.Load(); c != nil {
		return c, nil
	}
	if err := Init(); err != nil {
		return nil, err
	}
	return globalCtx.Load(), nil
}

// --- Ambient dispatch ---
//
// The ambient API mirrors the nine Context operations on the global
// binding. When initialization fails, each operation degrades to its
// defined failure value: nothing is trusted and nothing crashes.

// Alloc produces a new credential from the globally bound mechanism.
func Alloc() (Credential, error) {
	c, err := ensureInitialized()
	if err != nil {
		return nil, err
	}
	return c.Alloc()
}

// Free releases a credential. A no-op when the binding is uninitialized.
func Free(cred Credential) {
	c, err := ensureInitialized()
	if err != nil {
		return
	}
	c.Free(cred)
}

// Activate binds a validity window to the credential.
func Activate(cred Credential, ttl time.Duration) error {
	c, err := ensureInitialized()
	if err != nil {
		return err
	}
	return c.Activate(cred, ttl)
}

// Verify checks the authenticity of the credential.
func Verify(cred Credential) error {
	c, err := ensureInitialized()
	if err != nil {
		return err
	}
	return c.Verify(cred)
}

// UID returns the verified user identity, or NobodyUID.
func UID(cred Credential) uint32 {
	c, err := ensureInitialized()
	if err != nil {
		return NobodyUID
	}
	return c.UID(cred)
}

// GID returns the verified group identity, or NobodyGID.
func GID(cred Credential) uint32 {
	c, err := ensureInitialized()
	if err != nil {
		return NobodyGID
	}
	return c.GID(cred)
}

// Pack appends the credential's mechanism-private bytes to the transport
// buffer. When the binding is uninitialized it is a silent no-op: nothing
// is appended and no error is reported, matching Free and Print.
func Pack(cred Credential, buf *wire.Buffer) error {
	c, err := ensureInitialized()
	if err != nil {
		return nil
	}
	return c.Pack(cred, buf)
}

// Unpack reconstructs the credential from the transport buffer.
func Unpack(cred Credential, buf *wire.Buffer) error {
	c, err := ensureInitialized()
	if err != nil {
		return err
	}
	return c.Unpack(cred, buf)
}

// Print writes a human-readable diagnostic dump of the credential. A no-op
// when the binding is uninitialized.
func Print(cred Credential, w io.Writer) {
	c, err := ensureInitialized()
	if err != nil {
		return
	}
	c.Print(cred, w)
}
