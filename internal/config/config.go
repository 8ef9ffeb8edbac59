// Package config loads kennel settings with precedence
// defaults → YAML file → environment. .env and .env.local are read first so
// variables set in the real environment always win.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and safe for concurrent reads.
type Config struct {
	API       APIConfig           `yaml:"api"`
	Debug     bool                `yaml:"debug"`
	Log       LogConfig           `yaml:"log"`
	Routes    map[string][]string `yaml:"routes"`
	DevServer DevServerConfig     `yaml:"devserver"`
}

// APIConfig contains the kennel API connection settings.
type APIConfig struct {
	URL     string   `yaml:"url"`
	Token   string   `yaml:"-"` // env-only, never in YAML
	Timeout Duration `yaml:"timeout"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DevServerConfig contains settings for `kennel serve`.
type DevServerConfig struct {
	Port  int    `yaml:"port"`
	Token string `yaml:"-"` // env-only
	Seed  bool   `yaml:"seed"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	loadDotEnv()
	cfg := newDefaults()

	configPath := getEnv("KENNEL_CONFIG_PATH", "config/kennel.yaml")

	// Missing file is not an error
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		DevServer: DevServerConfig{
			Port: 8080,
		},
	}
}

// loadDotEnv reads .env and .env.local if present. godotenv never overrides
// variables that are already set.
func loadDotEnv() {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", name, err)
		}
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// API (API_URL is accepted for compatibility with existing deployments)
	if v := os.Getenv("API_URL"); v != "" {
		cfg.API.URL = v
	}
	if v := os.Getenv("KENNEL_API_URL"); v != "" {
		cfg.API.URL = v
	}
	if v := os.Getenv("KENNEL_API_TOKEN"); v != "" {
		cfg.API.Token = v
	}
	if v := os.Getenv("KENNEL_API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.API.Timeout = Duration(d)
		}
	}

	if v := os.Getenv("KENNEL_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}

	// Log
	if v := os.Getenv("KENNEL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("KENNEL_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	// Dev server
	if v := os.Getenv("KENNEL_DEVSERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.DevServer.Port = port
		}
	}
	if v := os.Getenv("KENNEL_DEVSERVER_TOKEN"); v != "" {
		cfg.DevServer.Token = v
	}
}

// validate checks values that are set. A missing API URL is reported by
// RequireAPI, since `kennel serve` runs without one.
func (c *Config) validate() error {
	if c.API.URL != "" {
		u, err := url.Parse(c.API.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("api.url %q must be an absolute URL", c.API.URL)
		}
	}
	if c.API.Timeout < 0 {
		return errors.New("api.timeout must not be negative")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q must be json or text", c.Log.Format)
	}
	if c.DevServer.Port <= 0 || c.DevServer.Port > 65535 {
		return fmt.Errorf("devserver.port %d out of range", c.DevServer.Port)
	}
	return nil
}

// RequireAPI returns an error unless an API URL is configured.
func (c *Config) RequireAPI() error {
	if c.API.URL == "" {
		return errors.New("KENNEL_API_URL is required")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
