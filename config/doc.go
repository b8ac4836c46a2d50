// Package config loads and caches the authentication configuration.
//
// Configuration follows the module-wide convention: a Config struct with
// mapstructure tags, ApplyDefaults, and Validate. Load reads a YAML file
// plus AUTHKIT_-prefixed environment variables (optionally seeded from a
// .env file) through viper.
//
// The global binding in package auth never loads configuration itself; it
// reads the process-wide snapshot returned by Cached, which is populated at
// most once under a dedicated lock. When nothing has been loaded, Cached
// falls back to defaults (auth type "none", the stock plugin directory) so
// a daemon with no config file still authenticates, albeit as nobody
// trusted.
package config
