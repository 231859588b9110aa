// Package config holds the on-disk configuration for agentdraft.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lumastack/agentdraft/internal/llm"
)

// ProviderConfig selects the model-call collaborator.
type ProviderConfig struct {
	// Type is "anthropic", "openai" or "openai_compatible".
	Type string `json:"type"`
	// Model is the model id sent on every synthesis call.
	Model string `json:"model"`
	// BaseURL overrides the provider endpoint (openai_compatible gateways).
	BaseURL string `json:"base_url,omitempty"`
	// APIKeyEnv names the environment variable holding the API key. If
	// empty, the provider-conventional variable is used.
	APIKeyEnv string `json:"api_key_env,omitempty"`
}

// RetryConfig overrides the retry policy for model calls. Zero fields keep
// the defaults (3 retries, 1s initial delay, 8s cap).
type RetryConfig struct {
	MaxRetries     int `json:"max_retries,omitempty"`
	InitialDelayMs int `json:"initial_delay_ms,omitempty"`
	MaxDelayMs     int `json:"max_delay_ms,omitempty"`
}

// Config is the on-disk configuration for agentdraft.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `json:"addr,omitempty"`

	Provider ProviderConfig `json:"provider"`

	Retry RetryConfig `json:"retry,omitempty"`

	// DataDir is the state directory (design store, audit log). If empty,
	// ~/.agentdraft is used.
	DataDir string `json:"data_dir,omitempty"`

	// LogFormat is "json" or "text".
	LogFormat string `json:"log_format,omitempty"`
	// LogLevel is "debug|info|warn|error".
	LogLevel string `json:"log_level,omitempty"`
}

const defaultAddr = "127.0.0.1:8787"

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	switch strings.ToLower(strings.TrimSpace(c.Provider.Type)) {
	case "anthropic", "openai", "openai_compatible":
	case "":
		return errors.New("missing provider.type")
	default:
		return fmt.Errorf("unsupported provider.type %q", c.Provider.Type)
	}
	if strings.TrimSpace(c.Provider.Model) == "" {
		return errors.New("missing provider.model")
	}
	if c.Retry.MaxRetries < 0 || c.Retry.InitialDelayMs < 0 || c.Retry.MaxDelayMs < 0 {
		return errors.New("retry values must not be negative")
	}
	return nil
}

// ListenAddr returns the configured listen address or the default.
func (c *Config) ListenAddr() string {
	if addr := strings.TrimSpace(c.Addr); addr != "" {
		return addr
	}
	return defaultAddr
}

// StateDir returns the configured data directory or ~/.agentdraft.
func (c *Config) StateDir() string {
	if dir := strings.TrimSpace(c.DataDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return ".agentdraft"
	}
	return filepath.Join(home, ".agentdraft")
}

// APIKey resolves the provider API key from the environment.
func (c *Config) APIKey() string {
	if env := strings.TrimSpace(c.Provider.APIKeyEnv); env != "" {
		return strings.TrimSpace(os.Getenv(env))
	}
	switch strings.ToLower(strings.TrimSpace(c.Provider.Type)) {
	case "anthropic":
		return strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	default:
		return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
}

// RetryPolicy materializes the retry overrides over the defaults.
func (c *Config) RetryPolicy() llm.RetryPolicy {
	policy := llm.DefaultRetryPolicy()
	if c.Retry.MaxRetries > 0 {
		policy.MaxRetries = c.Retry.MaxRetries
	}
	if c.Retry.InitialDelayMs > 0 {
		policy.InitialDelay = time.Duration(c.Retry.InitialDelayMs) * time.Millisecond
	}
	if c.Retry.MaxDelayMs > 0 {
		policy.MaxDelay = time.Duration(c.Retry.MaxDelayMs) * time.Millisecond
	}
	return policy
}

// DefaultConfigPath returns the default config path:
//
//	~/.agentdraft/config.json
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return "agentdraft.config.json"
	}
	return filepath.Join(home, ".agentdraft", "config.json")
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	// Write atomically.
	tmp := path + ".tmp"
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
