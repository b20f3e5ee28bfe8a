package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort       = 9091
	DefaultGroupTTL       = 24 * time.Hour
	DefaultStreamInterval = 5 * time.Second
	DefaultAuthHeader     = "x-api-key"
)

// Config holds the server-side configuration parsed from the `server:` section
// of config.yaml. The `agent:` key in the same file is ignored.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port for pushes, the exposition, the REST API and the
	// WebSocket hub (default 9091, the Pushgateway port).
	HTTPPort int `yaml:"http_port"`

	// Auth configures how the server authenticates pushing clients.
	Auth AuthConfig `yaml:"auth"`

	// GroupTTL is how long a pushed group stays live after its last push.
	// Zero keeps groups until they are deleted. Default: 24h.
	GroupTTL time.Duration `yaml:"group_ttl"`

	// StreamInterval is the WebSocket broadcast period. Default: 5s.
	StreamInterval time.Duration `yaml:"stream_interval"`
}

// AuthConfig controls client authentication on the server side.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	// Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header name to read the key from.
	// Defaults to "x-api-key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return DefaultAuthHeader
}

// Load reads and parses the config file at path, returning the server configuration.
// Missing fields are filled with sensible defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML document, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a Config pre-populated with default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:       DefaultHTTPPort,
			GroupTTL:       DefaultGroupTTL,
			StreamInterval: DefaultStreamInterval,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey":
		if cfg.Server.Auth.KeyEnv == "" {
			return fmt.Errorf("server.auth.key_env is required for mode apikey")
		}
	case "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Server.GroupTTL < 0 {
		return fmt.Errorf("server.group_ttl must not be negative")
	}
	if cfg.Server.StreamInterval <= 0 {
		return fmt.Errorf("server.stream_interval must be positive")
	}
	return nil
}
