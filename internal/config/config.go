// Package config loads the moot TOML configuration file and supplies
// defaults when no file exists.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/mootlabs/moot/internal/consensus"
)

// Config is the top-level moot configuration.
type Config struct {
	Defaults consensus.Config `toml:"defaults"`
	Server   ServerConfig     `toml:"server"`
	LLM      LLMConfig        `toml:"llm"`
	Roles    RolesConfig      `toml:"roles"`
	Storage  StorageConfig    `toml:"storage"`
}

// ServerConfig configures the REST/WebSocket server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LLMConfig configures the model backend used as response producer.
type LLMConfig struct {
	BaseURL     string  `toml:"base_url"`
	Model       string  `toml:"model"`
	APIKeyEnv   string  `toml:"api_key_env"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
	TimeoutSecs int     `toml:"timeout_seconds"`
}

// RolesConfig points to an optional user role pack.
type RolesConfig struct {
	PackPath string `toml:"pack_path"`
}

// StorageConfig configures session persistence. An empty path disables it.
type StorageConfig struct {
	Path string `toml:"path"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Defaults: consensus.DefaultConfig(),
		Server:   ServerConfig{Host: "127.0.0.1", Port: 7411},
		LLM: LLMConfig{
			BaseURL:     "http://localhost:8000/v1",
			Model:       "default",
			APIKeyEnv:   "MOOT_API_KEY",
			MaxTokens:   1024,
			Temperature: 0.7,
			TimeoutSecs: 120,
		},
	}
}

// DefaultPath returns the conventional config location.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "moot", "moot.toml")
	}
	return "moot.toml"
}

// Load reads a TOML config. A missing file at the default path is not an
// error: defaults apply. An explicitly requested file must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s: unknown keys: %v", path, undecoded)
	}

	if err := cfg.Defaults.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: defaults: %w", path, err)
	}
	return cfg, nil
}

// APIKey resolves the backend API key from the configured environment
// variable. Empty when unset.
func (c *Config) APIKey() string {
	if c.LLM.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.LLM.APIKeyEnv)
}
