package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/authkit/logger"
)

// envPrefix is the environment variable prefix (AUTHKIT_AUTH_TYPE, ...).
const envPrefix = "AUTHKIT"

// LoaderConfig holds optional file overrides for Load.
type LoaderConfig struct {
	ConfigFile string // direct config file path (optional)
	EnvFile    string // direct .env file path (optional)
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// Load reads configuration from a YAML file and the environment.
//
// Precedence, lowest to highest: defaults, config file, environment
// variables. Missing files are not an error; defaults still apply so a
// bare process comes up with auth type "none".
func Load(opts ...LoaderOption) (*Config, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}

	if lc.ConfigFile == "" {
		lc.ConfigFile = findConfigFile()
	}
	if lc.EnvFile == "" && exists(".env") {
		lc.EnvFile = ".env"
	}

	if lc.EnvFile != "" && exists(lc.EnvFile) {
		if err := godotenv.Load(lc.EnvFile); err != nil {
			logger.Warn("failed to load .env file", logger.ErrorFields("load_env", err))
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if lc.ConfigFile != "" && exists(lc.ConfigFile) {
		v.SetConfigFile(lc.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", lc.ConfigFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// bindEnvKeys binds the known keys so AutomaticEnv sees them even when the
// config file omits the section entirely.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"auth_type",
		"plugin_dir",
		"logging.level",
		"logging.format",
		"logging.output",
	} {
		_ = v.BindEnv(key)
	}
}

// findConfigFile searches standard locations for authkit.yml.
func findConfigFile() string {
	searchPaths := []string{
		"./authkit.yml",
		"./config/authkit.yml",
		"/etc/authkit/authkit.yml",
	}
	for _, path := range searchPaths {
		if exists(path) {
			return path
		}
	}
	return ""
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
