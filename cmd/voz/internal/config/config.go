// Package config provides the voz configuration, loaded once at startup
// from a YAML file and immutable for the process lifetime.
//
// The default location is os.UserConfigDir()/voz/config.yaml:
//
//	~/Library/Application Support/voz/config.yaml   (macOS)
//	~/.config/voz/config.yaml                       (Linux)
//	%AppData%/voz/config.yaml                       (Windows)
//
// A missing file yields the built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
)

const (
	appDir     = "voz"
	configFile = "config.yaml"
)

// Config is the full voz configuration.
type Config struct {
	// Assistant is the assistant's display name; its lowercase form is
	// the default activation phrase.
	Assistant string `yaml:"assistant"`

	// ActivationPhrase overrides the default activation phrase.
	ActivationPhrase string `yaml:"activation_phrase,omitempty"`

	// UserName is how the assistant addresses the user. The hashed form
	// of this name keys all persisted state.
	UserName string `yaml:"user_name"`

	// ResponseDelay is the idle time before an active assistant goes
	// dormant.
	ResponseDelay time.Duration `yaml:"response_delay,omitempty"`

	// ActiveListenTimeout is the per-utterance listen timeout while
	// active. Zero keeps the built-in default.
	ActiveListenTimeout time.Duration `yaml:"active_listen_timeout,omitempty"`

	// DormantListenTimeout is the short listen timeout used while
	// dormant. Zero keeps the built-in default.
	DormantListenTimeout time.Duration `yaml:"dormant_listen_timeout,omitempty"`

	// QuietAfter is how long the assistant must be idle before dormant
	// polling backs off. Zero keeps the built-in default.
	QuietAfter time.Duration `yaml:"quiet_after,omitempty"`

	// DataDir holds the preference store. Empty means
	// os.UserConfigDir()/voz/data.
	DataDir string `yaml:"data_dir,omitempty"`

	// RecognizerURL points at a speech-recognition daemon
	// (e.g. "ws://127.0.0.1:8765/listen"). Empty means console input.
	RecognizerURL string `yaml:"recognizer_url,omitempty"`

	// Model configures the generative backend.
	Model Model `yaml:"model"`

	// path is where the config was loaded from, for display.
	path string
}

// Model selects and configures the generative backend.
type Model struct {
	// Backend is "openai" (any OpenAI-compatible endpoint) or "gemini".
	Backend string `yaml:"backend"`

	// BaseURL is the endpoint root for the openai backend. Point it at a
	// local server (e.g. "http://127.0.0.1:11434/v1") for local
	// inference.
	BaseURL string `yaml:"base_url,omitempty"`

	// APIKey authenticates the backend client.
	APIKey string `yaml:"api_key,omitempty"`

	// Name is the model name to request.
	Name string `yaml:"name"`

	// Timeout bounds each generation call.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Assistant:     "Jarvis",
		UserName:      "friend",
		ResponseDelay: 90 * time.Second,
		Model: Model{
			Backend: "openai",
			BaseURL: "http://127.0.0.1:11434/v1",
			Name:    "gemma:2b",
			Timeout: 5 * time.Second,
		},
	}
}

// Load reads the config from the default location. A missing file is not
// an error; it yields Default.
func Load() (*Config, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("config: cannot determine config directory: %w", err)
	}
	return LoadFrom(filepath.Join(base, appDir, configFile))
}

// LoadFrom reads the config from an explicit path. A missing file yields
// Default; a malformed file is an error.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Assistant == "" {
		cfg.Assistant = "Jarvis"
	}
	if cfg.UserName == "" {
		cfg.UserName = "friend"
	}
	return cfg, nil
}

// Path returns where the config was loaded from (or would be).
func (c *Config) Path() string { return c.path }

// ResolveDataDir returns the preference store directory, creating it if
// needed.
func (c *Config) ResolveDataDir() (string, error) {
	dir := c.DataDir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("config: cannot determine config directory: %w", err)
		}
		dir = filepath.Join(base, appDir, "data")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("config: create data dir: %w", err)
	}
	return dir, nil
}
