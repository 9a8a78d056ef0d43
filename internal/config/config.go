// Package config handles reading and writing ~/.casefile/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level structure for config.yaml.
type Config struct {
	Version int           `yaml:"version"`
	Store   StoreConfig   `yaml:"store"`
	Crypto  CryptoConfig  `yaml:"crypto"`
	Keyring KeyringConfig `yaml:"keyring"`
}

// StoreConfig locates the session store and sets creation defaults.
type StoreConfig struct {
	Root        string `yaml:"root"`         // session store directory; empty means ~/.casefile/sessions
	DefaultMode string `yaml:"default_mode"` // mode recorded on new sessions when --mode is omitted
}

// CryptoConfig sets the key-derivation cost for newly created sessions.
// Existing sessions always use the cost recorded beside their salt.
type CryptoConfig struct {
	Iterations int `yaml:"iterations"`
}

// KeyringConfig controls OS keyring caching of session passphrases.
type KeyringConfig struct {
	Enabled bool `yaml:"enabled"`
}

const configDirName = ".casefile"
const configFile = "config.yaml"

// Dir returns the per-user configuration directory, honoring
// CASEFILE_HOME for tests and portable setups.
func Dir() (string, error) {
	if override := os.Getenv("CASEFILE_HOME"); override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// Load reads config.yaml from the casefile directory. A missing file is not
// an error; defaults are returned instead.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return ReadConfig(dir)
}

// ReadConfig reads config.yaml from the given directory, falling back to
// defaults when the file does not exist.
func ReadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, configFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			cfg.Store.Root = filepath.Join(dir, "sessions")
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Store.Root == "" {
		cfg.Store.Root = filepath.Join(dir, "sessions")
	}
	if cfg.Crypto.Iterations <= 0 {
		cfg.Crypto.Iterations = DefaultConfig().Crypto.Iterations
	}
	return cfg, nil
}

// WriteConfig writes cfg to config.yaml in the given directory, creating the
// directory if needed.
func WriteConfig(dir string, cfg *Config) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	path := filepath.Join(dir, configFile)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Store: StoreConfig{
			DefaultMode: "interactive",
		},
		Crypto: CryptoConfig{
			Iterations: 100000,
		},
		Keyring: KeyringConfig{
			Enabled: true,
		},
	}
}
