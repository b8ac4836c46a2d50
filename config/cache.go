package config

import "sync"

// Process-wide configuration snapshot. Read at most once; the lock covers
// the whole load so two racing callers cannot load twice.
var (
	cacheMu     sync.Mutex
	cached      *Config
	cacheLoaded bool
)

// Cached returns the process-wide configuration snapshot, loading it on
// first call. Load failures are not fatal here: the snapshot degrades to
// defaults so the authentication core can still come up fail-closed.
func Cached() Config {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if !cacheLoaded {
		cfg, err := Load()
		if err != nil {
			cfg = &Config{}
			cfg.ApplyDefaults()
		}
		cached = cfg
		cacheLoaded = true
	}
	return *cached
}

// SetCached installs an explicit configuration snapshot. Embedding daemons
// that own their configuration lifecycle call this once at startup before
// any dispatch call.
func SetCached(cfg Config) {
	cfg.ApplyDefaults()
	cacheMu.Lock()
	cached = &cfg
	cacheLoaded = true
	cacheMu.Unlock()
}

// ResetCache clears the snapshot so the next Cached call loads again.
// Intended for tests.
func ResetCache() {
	cacheMu.Lock()
	cached = nil
	cacheLoaded = false
	cacheMu.Unlock()
}
