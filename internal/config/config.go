// Package config provides configuration helpers for puffd commands.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vapefi/puffd/pkg/tracking"
)

// Default service configuration.
const (
	DefaultPort        = "8080"
	DefaultLogLevel    = "info"
	DefaultPuffsTable  = "puff_events"
	DefaultQueueSize   = 256
	DefaultStaticDir   = "./web"
	DefaultMaxSessions = 64
)

// Config holds all configuration for the puffd service.
// Flag parsing is done in cmd/puffd/main.go; this struct is data only.
type Config struct {
	Port     string
	LogLevel string
	Debug    bool

	// StaticDir is served at / for the dashboard page.
	StaticDir string

	// MaxSessions caps concurrent tracking sessions (one per camera).
	MaxSessions int

	// Supabase REST sink; empty URL keeps events in memory only.
	SupabaseURL string
	SupabaseKey string
	PuffsTable  string
	QueueSize   int

	// Preset selects the base tracking config (see tracking.PresetNames).
	Preset string

	// ThresholdsFile is an optional YAML overlay on the preset.
	ThresholdsFile string

	Tracking tracking.Config
}

// Default returns sensible defaults for the service.
func Default() Config {
	return Config{
		Port:        DefaultPort,
		LogLevel:    DefaultLogLevel,
		StaticDir:   DefaultStaticDir,
		MaxSessions: DefaultMaxSessions,
		PuffsTable:  DefaultPuffsTable,
		QueueSize:   DefaultQueueSize,
		Preset:      tracking.PresetDefault,
		Tracking:    tracking.DefaultConfig(),
	}
}

// LoadEnv applies environment overrides.
// Call this before flag parsing so flags win over the environment.
func (c *Config) LoadEnv() {
	c.Port = Env("PUFFD_PORT", c.Port)
	c.LogLevel = Env("PUFFD_LOG_LEVEL", c.LogLevel)
	c.StaticDir = Env("PUFFD_STATIC_DIR", c.StaticDir)
	c.SupabaseURL = strings.TrimRight(Env("SUPABASE_URL", c.SupabaseURL), "/")
	c.SupabaseKey = Env("SUPABASE_KEY", c.SupabaseKey)
	c.PuffsTable = Env("PUFFD_PUFFS_TABLE", c.PuffsTable)
	c.Preset = Env("PUFFD_PRESET", c.Preset)
	c.ThresholdsFile = Env("PUFFD_THRESHOLDS", c.ThresholdsFile)
}

// Load resolves the preset and reads the thresholds file, if any, on top of it.
func (c *Config) Load() error {
	if c.Preset != "" {
		cfg, err := tracking.GetPreset(c.Preset)
		if err != nil {
			return &ConfigError{Field: "Preset", Message: err.Error(), Err: err}
		}
		c.Tracking = cfg
	}
	if c.ThresholdsFile == "" {
		return nil
	}
	cfg, err := LoadTracking(c.ThresholdsFile, c.Tracking)
	if err != nil {
		return err
	}
	c.Tracking = cfg
	return nil
}

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	if c.Port == "" {
		return &ConfigError{Field: "Port", Message: "port must not be empty"}
	}
	if c.SupabaseURL != "" && c.SupabaseKey == "" {
		return &ConfigError{Field: "SupabaseKey", Message: "SUPABASE_KEY is required when SUPABASE_URL is set"}
	}
	if c.MaxSessions <= 0 {
		return &ConfigError{Field: "MaxSessions", Message: "max sessions must be positive"}
	}
	if err := c.Tracking.Validate(); err != nil {
		return &ConfigError{Field: "Tracking", Message: err.Error(), Err: err}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Env returns the named environment variable, or def if unset.
func Env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// LoadTracking reads a YAML tracking config from path, overlaying base.
// Fields absent from the file keep their base values.
func LoadTracking(path string, base tracking.Config) (tracking.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read thresholds: %w", err)
	}
	return ParseTracking(data, base)
}

// ParseTracking decodes YAML over base and validates the result.
func ParseTracking(data []byte, base tracking.Config) (tracking.Config, error) {
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("parse thresholds: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

// MarshalTracking encodes a tracking config as YAML.
func MarshalTracking(cfg tracking.Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
