package sharedsecret

import (
	"encoding/base64"
	"errors"
	"time"
)

// KeySize is the required length of the decoded shared key.
const KeySize = 32

// Config configures the shared-secret mechanism.
type Config struct {
	// Key is the base64-encoded 32-byte shared key. Every node of the
	// cluster must be provisioned with the same key.
	Key string `mapstructure:"key"`

	// DefaultTTL is the validity window applied when Activate is called
	// with a non-positive duration (default: 5m).
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.DefaultTTL == 0 {
		c.DefaultTTL = 5 * time.Minute
	}
}

// Validate checks that the shared key is present and well-formed.
func (c *Config) Validate() error {
	if c.Key == "" {
		return errors.New("sharedsecret: key is required")
	}
	raw, err := base64.StdEncoding.DecodeString(c.Key)
	if err != nil {
		return errors.New("sharedsecret: key must be base64-encoded")
	}
	if len(raw) != KeySize {
		return errors.New("sharedsecret: key must decode to exactly 32 bytes")
	}
	return nil
}

// key returns the decoded shared key. Validate must have succeeded.
func (c *Config) key() (out [KeySize]byte) {
	raw, _ := base64.StdEncoding.DecodeString(c.Key)
	copy(out[:], raw)
	return out
}
