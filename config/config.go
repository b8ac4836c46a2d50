package config

import (
	"fmt"
	"strings"

	"github.com/kbukum/authkit/logger"
)

// DefaultAuthType is the mechanism used when configuration names none.
const DefaultAuthType = "none"

// DefaultPluginDir is the stock mechanism search path.
const DefaultPluginDir = "/usr/local/lib/authkit"

// Config contains the authentication core configuration.
type Config struct {
	// AuthType names the active authentication mechanism (e.g. "none",
	// "sharedsecret", "jwt", "krb5").
	AuthType string `yaml:"auth_type" mapstructure:"auth_type"`

	// PluginDir is the mechanism search path handed to the plugin registry.
	PluginDir string `yaml:"plugin_dir" mapstructure:"plugin_dir"`

	// Logging configures the structured logger.
	Logging logger.Config `yaml:"logging" mapstructure:"logging"`

	// Mechanisms holds mechanism-private configuration keyed by auth type.
	// The core never interprets these values; each mechanism picks up its
	// own section at registration time.
	Mechanisms map[string]map[string]any `yaml:"mechanisms" mapstructure:"mechanisms"`
}

// ApplyDefaults applies default values to the configuration.
func (c *Config) ApplyDefaults() {
	if c.AuthType == "" {
		c.AuthType = DefaultAuthType
	}
	if c.PluginDir == "" {
		c.PluginDir = DefaultPluginDir
	}
	c.Logging.ApplyDefaults()
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AuthType) == "" {
		return fmt.Errorf("config.auth_type must not be empty")
	}
	if strings.TrimSpace(c.PluginDir) == "" {
		return fmt.Errorf("config.plugin_dir must not be empty")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

// Mechanism returns the private configuration section for one auth type.
// Returns an empty map when the section is absent.
func (c *Config) Mechanism(authType string) map[string]any {
	if c.Mechanisms == nil {
		return map[string]any{}
	}
	m, ok := c.Mechanisms[authType]
	if !ok {
		return map[string]any{}
	}
	return m
}
