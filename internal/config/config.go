// Package config loads server configuration from defaults, an optional TOML
// file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultBaseURL    = "https://api.deepseek.com"
	DefaultModel      = "deepseek-reasoner"
	DefaultTitleModel = "deepseek-chat"
	DefaultPort       = 8080
)

type Config struct {
	// Interface to bind the HTTP server to (e.g. "0.0.0.0").
	BindAddr string `toml:"bind_addr"`

	// Listening port. The PORT environment variable overrides it.
	Port int `toml:"port"`

	// DBPath is the sqlite DSN for the conversation store. ":memory:" keeps
	// everything in-process, which is the default: transcripts are not meant
	// to survive a restart.
	DBPath string `toml:"db_path"`

	// Upstream chat-completions endpoint base URL.
	BaseURL string `toml:"base_url"`

	// Model used for chat turns.
	Model string `toml:"model"`

	// Model used to title new conversations.
	TitleModel string `toml:"title_model"`

	// Per-request deadline for upstream calls. Reasoning models are slow, so
	// the default is generous, but it is never unbounded.
	RequestTimeout time.Duration `toml:"-"`

	// RequestTimeoutSeconds is the file/flag representation of RequestTimeout.
	RequestTimeoutSeconds int `toml:"request_timeout_seconds"`

	Debug bool `toml:"debug"`

	// APIKey comes from DEEPSEEK_API_KEY only, never from the file.
	APIKey string `toml:"-"`
}

func Default() Config {
	return Config{
		BindAddr:              "0.0.0.0",
		Port:                  DefaultPort,
		DBPath:                ":memory:",
		BaseURL:               DefaultBaseURL,
		Model:                 DefaultModel,
		TitleModel:            DefaultTitleModel,
		RequestTimeoutSeconds: 120,
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("DEEPSEEK_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	cfg.APIKey = os.Getenv("DEEPSEEK_API_KEY")

	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("DEEPSEEK_API_KEY environment variable is not set")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %v", c.RequestTimeout)
	}
	return nil
}

// ListenAddr is the address handed to the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.BindAddr, c.Port)
}
