package plugrack

import (
	"fmt"
	"os"
	"sync"
	"syscall"

	"github.com/kbukum/authkit/config"
	"github.com/kbukum/authkit/logger"
)

// Factory constructs a Plugin from its mechanism-private configuration
// section. Mechanism packages register factories at import time.
type Factory func(conf map[string]any) (Plugin, error)

var (
	regMu     sync.RWMutex
	factories = make(map[string]Factory)
)

// Register adds a mechanism factory under a category and type name.
// It panics on duplicate registration, which indicates two mechanism
// packages claiming the same type name.
func Register(category, typ string, f Factory) {
	key := category + "/" + typ
	regMu.Lock()
	defer regMu.Unlock()
	if _, dup := factories[key]; dup {
		panic(fmt.Sprintf("plugrack: duplicate registration for %s", key))
	}
	factories[key] = f
}

// Unregister removes a mechanism factory. Intended for tests.
func Unregister(category, typ string) {
	regMu.Lock()
	defer regMu.Unlock()
	delete(factories, category+"/"+typ)
}

// Registered returns the type names registered under a category.
func Registered(category string) []string {
	prefix := category + "/"
	regMu.RLock()
	defer regMu.RUnlock()
	var names []string
	for key := range factories {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			names = append(names, key[len(prefix):])
		}
	}
	return names
}

func lookupFactory(category, typ string) (Factory, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	f, ok := factories[category+"/"+typ]
	return f, ok
}

// Option configures a builtin rack.
type Option func(*builtinRack)

// WithConfSource overrides where the rack reads mechanism-private
// configuration sections from. The default is the process-wide cached
// configuration.
func WithConfSource(fn func(typ string) map[string]any) Option {
	return func(r *builtinRack) { r.confSource = fn }
}

// builtinRack satisfies Rack with compile-time registered factories.
type builtinRack struct {
	mu         sync.Mutex
	category   string
	policy     LoadPolicy
	active     map[Plugin]struct{}
	confSource func(typ string) map[string]any
	log        *logger.Logger
}

// New creates a builtin rack.
func New(opts ...Option) (Rack, error) {
	r := &builtinRack{
		active: make(map[Plugin]struct{}),
		confSource: func(typ string) map[string]any {
			cfg := config.Cached()
			return cfg.Mechanism(typ)
		},
		log: logger.WithComponent("plugrack"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *builtinRack) SetCategory(category string) {
	r.mu.Lock()
	r.category = category
	r.mu.Unlock()
}

func (r *builtinRack) SetLoadPolicy(policy LoadPolicy) {
	r.mu.Lock()
	r.policy = policy
	r.mu.Unlock()
}

func (r *builtinRack) Scan(dir string) error {
	r.mu.Lock()
	policy := r.policy
	category := r.category
	r.mu.Unlock()

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			// Compiled-in mechanisms need no files on disk.
			r.log.Debug("mechanism search path absent, using compiled-in mechanisms",
				logger.Fields(logger.FieldPluginDir, dir))
			return nil
		}
		return fmt.Errorf("plugrack: scan %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("plugrack: scan %s: not a directory", dir)
	}
	if policy == PolicyOwnedDir {
		if info.Mode().Perm()&0o002 != 0 {
			return fmt.Errorf("plugrack: scan %s: world-writable search path rejected", dir)
		}
		if st, ok := info.Sys().(*syscall.Stat_t); ok && int(st.Uid) != os.Getuid() {
			return fmt.Errorf("plugrack: scan %s: search path owned by uid %d, not the current user", dir, st.Uid)
		}
	}

	r.log.Debug("scanned mechanism search path",
		logger.Fields(logger.FieldPluginDir, dir, "registered", len(Registered(category))))
	return nil
}

func (r *builtinRack) ActivateByType(typ string) (Plugin, bool) {
	r.mu.Lock()
	category := r.category
	confSource := r.confSource
	r.mu.Unlock()

	factory, ok := lookupFactory(category, typ)
	if !ok {
		return nil, false
	}

	p, err := factory(confSource(typ))
	if err != nil {
		r.log.Warn("mechanism factory failed",
			logger.Fields(logger.FieldAuthType, typ, logger.FieldError, err.Error()))
		return nil, false
	}

	r.mu.Lock()
	r.active[p] = struct{}{}
	r.mu.Unlock()
	return p, true
}

func (r *builtinRack) Release(p Plugin) {
	if p == nil {
		return
	}
	r.mu.Lock()
	delete(r.active, p)
	r.mu.Unlock()
}

func (r *builtinRack) Destroy() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.active); n > 0 {
		return fmt.Errorf("plugrack: %d mechanism(s) still active", n)
	}
	r.active = nil
	return nil
}
