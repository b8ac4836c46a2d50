package plugrack

// LoadPolicy controls how suspicious a rack is of its mechanism search path.
type LoadPolicy int

const (
	// PolicyNone is the least-restrictive policy: any registered mechanism
	// is eligible regardless of search-path ownership.
	PolicyNone LoadPolicy = iota

	// PolicyOwnedDir additionally requires the search path to be owned by
	// the current user and not world-writable.
	PolicyOwnedDir
)

// Plugin is one activated mechanism exposed through its capability table.
type Plugin interface {
	// Type returns the mechanism type name the plugin was registered under.
	Type() string

	// Lookup resolves a named capability. The second return is false when
	// the plugin does not provide the capability.
	Lookup(symbol string) (any, bool)
}

// Rack discovers and activates mechanism plugins by type name.
type Rack interface {
	// SetCategory restricts the rack to one plugin category (e.g. "auth").
	SetCategory(category string)

	// SetLoadPolicy sets the search-path trust policy.
	SetLoadPolicy(policy LoadPolicy)

	// Scan inspects the mechanism search path. A missing path is not an
	// error (compiled-in mechanisms live in the process image); a path that
	// exists but violates the load policy or cannot be read is.
	Scan(dir string) error

	// ActivateByType activates the plugin registered under the given type
	// name. The second return is false when no such plugin exists.
	ActivateByType(typ string) (Plugin, bool)

	// Release returns an activated plugin to the rack.
	Release(p Plugin)

	// Destroy releases the rack. It fails when activated plugins are still
	// outstanding.
	Destroy() error
}

// Resolve looks up the named capabilities in order. The returned slice is
// index-aligned with symbols (nil for unresolved entries); the count is the
// number of capabilities that resolved.
func Resolve(p Plugin, symbols []string) ([]any, int) {
	out := make([]any, len(symbols))
	count := 0
	for i, sym := range symbols {
		v, ok := p.Lookup(sym)
		if !ok || v == nil {
			continue
		}
		out[i] = v
		count++
	}
	return out, count
}
