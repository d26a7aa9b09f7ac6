package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Transports the server can speak
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config holds all application configuration.
//
// Defaults live in Default. Environment variables are applied on top of the
// defaults (or of a config file) and only override what they set.
type Config struct {
	Transport string          `envconfig:"TRANSPORT" yaml:"transport" toml:"transport"`
	Server    ServerConfig    `yaml:"server" toml:"server"`
	GRPC      GRPCConfig      `yaml:"grpc" toml:"grpc"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" yaml:"port" toml:"port"`
	Host string `envconfig:"HOST" yaml:"host" toml:"host"`
}

// Addr returns the HTTP listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// GRPCConfig holds gRPC server configuration.
type GRPCConfig struct {
	Address string `envconfig:"GRPC_ADDR" yaml:"address" toml:"address"`
	Enabled bool   `envconfig:"GRPC_ENABLED" yaml:"enabled" toml:"enabled"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string   `envconfig:"LOG_LEVEL" yaml:"level" toml:"level"`
	Development bool     `envconfig:"LOG_DEV" yaml:"development" toml:"development"`
	Output      []string `envconfig:"LOG_OUTPUT" yaml:"output" toml:"output"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" yaml:"enabled" toml:"enabled"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// LoadFile loads a YAML or TOML file, chosen by extension, over the defaults
// and then applies environment variables.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Transport: TransportStdio,
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		GRPC: GRPCConfig{
			Address: ":50061",
			Enabled: false,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
			Output:      []string{"stderr"},
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Validate checks the configuration for values the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		errs = append(errs, fmt.Errorf("transport must be %q or %q, got %q", TransportStdio, TransportHTTP, c.Transport))
	}

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %q", c.Server.Port))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error", "dpanic", "panic", "fatal":
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("rate limit requires positive requests_per_second and burst"))
	}

	if c.GRPC.Enabled && c.GRPC.Address == "" {
		errs = append(errs, errors.New("grpc enabled without an address"))
	}

	return errors.Join(errs...)
}
