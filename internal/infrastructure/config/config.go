package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// FileEnv names the optional config file read before the environment.
const FileEnv = "MSGSLOT_CONFIG"

// Config holds all application configuration.
//
// Values are layered: Default, then the file named by MSGSLOT_CONFIG
// (YAML or TOML by extension), then environment variables.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Device    DeviceConfig    `yaml:"device" toml:"device"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" yaml:"port" toml:"port"`
	Host string `envconfig:"HOST" yaml:"host" toml:"host"`
	// MaxConns caps concurrently accepted connections, 0 = unlimited.
	MaxConns int `envconfig:"MSGSLOT_MAX_CONNS" yaml:"max_conns" toml:"max_conns"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// DeviceConfig holds message slot device limits.
type DeviceConfig struct {
	MaxSlots    uint32 `envconfig:"MSGSLOT_MAX_SLOTS" yaml:"max_slots" toml:"max_slots"`
	MaxSessions int    `envconfig:"MSGSLOT_MAX_SESSIONS" yaml:"max_sessions" toml:"max_sessions"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" yaml:"development" toml:"development"`
	File        string `envconfig:"LOG_FILE" yaml:"file" toml:"file"`
	Rotate      bool   `envconfig:"LOG_ROTATE" yaml:"rotate" toml:"rotate"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" yaml:"rps" toml:"rps"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" yaml:"enabled" toml:"enabled"`
	// Global shares one bucket across all clients instead of one per IP.
	Global bool `envconfig:"RATE_LIMIT_GLOBAL" yaml:"global" toml:"global"`
}

// Load loads configuration from MSGSLOT_CONFIG (if set) and the environment.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(FileEnv))
}

// LoadFile layers path (may be empty) and the environment over Default.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		return fmt.Errorf("unsupported config file extension %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Validate rejects limits the device cannot honor.
func (c *Config) Validate() error {
	if c.Device.MaxSlots == 0 {
		return fmt.Errorf("invalid config: MSGSLOT_MAX_SLOTS must be positive")
	}
	if c.Device.MaxSessions < 0 {
		return fmt.Errorf("invalid config: MSGSLOT_MAX_SESSIONS must not be negative")
	}
	if c.Server.MaxConns < 0 {
		return fmt.Errorf("invalid config: MSGSLOT_MAX_CONNS must not be negative")
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("invalid config: RATE_LIMIT_RPS must be positive when rate limiting is enabled")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Device: DeviceConfig{
			MaxSlots:    256,
			MaxSessions: 4096,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
