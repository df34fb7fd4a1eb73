// Package config loads the process configuration of the flowstudio CLI.
//
// Precedence, lowest first: built-in defaults, the config file (YAML or JSON),
// FLOWSTUDIO_* environment variables, then command-line flags (applied by the CLI).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables.
const (
	EnvConfig      = "FLOWSTUDIO_CONFIG"
	EnvAPIURL      = "FLOWSTUDIO_API_URL"
	EnvAssistantID = "FLOWSTUDIO_ASSISTANT_ID"
	EnvLogLevel    = "FLOWSTUDIO_LOG_LEVEL"
	EnvRedisAddr   = "FLOWSTUDIO_REDIS_ADDR"
	EnvRedisDB     = "FLOWSTUDIO_REDIS_DB"
	EnvServeAddr   = "FLOWSTUDIO_ADDR"
	EnvEncryptKey  = "FLOWSTUDIO_ENCRYPTION_KEY"
)

// DefaultAPIURL is the backend used when nothing else is configured.
const DefaultAPIURL = "http://localhost:8000"

// Config is the process configuration.
type Config struct {
	APIURL      string         `yaml:"api_url" json:"api_url"`
	AssistantID string         `yaml:"assistant_id" json:"assistant_id"`
	LogLevel    string         `yaml:"log_level" json:"log_level"`
	Serve       ServeConfig    `yaml:"serve" json:"serve"`
	Sanitize    SanitizeConfig `yaml:"sanitize" json:"sanitize"`
}

// ServeConfig configures the dev backend.
type ServeConfig struct {
	Addr           string      `yaml:"addr" json:"addr"`
	PublicURL      string      `yaml:"public_url" json:"public_url"`
	Backend        string      `yaml:"backend" json:"backend"` // "memory" or "redis"
	AllowedOrigins []string    `yaml:"allowed_origins" json:"allowed_origins"`
	Redis          RedisConfig `yaml:"redis" json:"redis"`

	// EncryptionKey is a base64 AES-256 key. When set, credential data is
	// encrypted at rest; FallbackKeys still decrypt after a rotation.
	EncryptionKey string   `yaml:"encryption_key" json:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys" json:"fallback_keys"`
}

// RedisConfig configures the redis repository.
type RedisConfig struct {
	Addr     string   `yaml:"addr" json:"addr"`
	Password string   `yaml:"password" json:"password"`
	DB       int      `yaml:"db" json:"db"`
	Prefix   string   `yaml:"prefix" json:"prefix"`
	FlowTTL  Duration `yaml:"flow_ttl" json:"flow_ttl"`
}

// SanitizeConfig extends the component sanitizer deny-list.
type SanitizeConfig struct {
	DenyKeys     []string `yaml:"deny_keys" json:"deny_keys"`
	DenyPatterns []string `yaml:"deny_patterns" json:"deny_patterns"`
}

// Duration is a time.Duration written as "30s", "24h" in config files.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		LogLevel: "info",
		Serve: ServeConfig{
			Addr:           ":8000",
			PublicURL:      "http://localhost:8000",
			Backend:        "memory",
			AllowedOrigins: []string{"*"},
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "flowstudio:",
			},
		},
	}
}

// Load builds the configuration from defaults, the file at path and the environment.
// When path is empty, FLOWSTUDIO_CONFIG is used; when both are empty no file is read.
// A path that was given but does not exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.mergeEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		return nil
	}
	// Default to YAML
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (c *Config) mergeEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		c.APIURL = v
	}
	if v, ok := lookup(EnvAssistantID); ok && v != "" {
		c.AssistantID = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvServeAddr); ok && v != "" {
		c.Serve.Addr = v
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		c.Serve.Redis.Addr = v
		c.Serve.Backend = "redis"
	}
	if v, ok := lookup(EnvRedisDB); ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil || db < 0 {
			return fmt.Errorf("%s must be a non-negative integer, got %q", EnvRedisDB, v)
		}
		c.Serve.Redis.DB = db
	}
	if v, ok := lookup(EnvEncryptKey); ok && v != "" {
		c.Serve.EncryptionKey = v
	}
	return nil
}

// Validate checks the values that cannot be fixed later.
func (c Config) Validate() error {
	switch c.Serve.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("serve.backend must be memory or redis, got %q", c.Serve.Backend)
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("api_url must be an http(s) URL, got %q", c.APIURL)
	}
	return nil
}
