// Package config provides unified configuration for chatwire clients and
// commands.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (CHATWIRE_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for a chatwire client.
type Config struct {
	// Provider selects the vendor profile (openai, azure, vllm, ...).
	Provider string `yaml:"provider"` // default: "openai"

	// BaseURL overrides the profile's service root. Required for vendors
	// without a public endpoint (azure).
	BaseURL string `yaml:"base_url"`

	// APIVersion overrides the profile's version path segment.
	APIVersion string `yaml:"api_version"`

	// Model is the default model for commands that build requests.
	Model string `yaml:"model"`

	// ModelMapping rewrites model names before they are sent.
	ModelMapping map[string]string `yaml:"model_mapping"`

	Timeout      time.Duration `yaml:"timeout"`       // default: 120s, non-streaming calls only
	StreamBuffer int           `yaml:"stream_buffer"` // default: 16

	Auth    AuthConfig    `yaml:"auth"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	MCP     MCPConfig     `yaml:"mcp"`
}

// AuthConfig holds credential settings.
type AuthConfig struct {
	// Type overrides the profile's scheme: "bearer", "header", "jwt" or
	// "none". Empty uses the profile default.
	Type string `yaml:"type"`

	APIKey     string `yaml:"api_key"`
	APIKeyFile string `yaml:"api_key_file"` // _file variant for api_key

	// Header is the header name for type "header" (e.g., "api-key").
	Header string `yaml:"header"`

	// Organization is sent as OpenAI-Organization when set.
	Organization string `yaml:"organization"`

	// TTL is the lifetime of minted tokens for type "jwt". Default: 1h.
	TTL time.Duration `yaml:"ttl"`
}

// LogConfig holds logging settings. CHATWIRE_LOG_LEVEL and CHATWIRE_DEBUG
// take precedence over these values.
type LogConfig struct {
	Level string `yaml:"level"` // default: "INFO"
	Debug string `yaml:"debug"` // comma-separated debug categories
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"` // default: true
}

// LedgerConfig holds usage ledger settings.
type LedgerConfig struct {
	Type     string         `yaml:"type"`     // "none", "memory" or "postgres", default: "none"
	MaxSize  int            `yaml:"max_size"` // for memory ledger, default: 10000
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 4
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// MCPConfig holds MCP (Model Context Protocol) server settings.
type MCPConfig struct {
	Servers []MCPServerConfig `yaml:"servers"`
}

// MCPServerConfig describes a single MCP server connection.
type MCPServerConfig struct {
	Name      string            `yaml:"name" json:"name"`
	Transport string            `yaml:"transport" json:"transport"` // "sse" or "streamable-http"
	URL       string            `yaml:"url" json:"url"`
	Headers   map[string]string `yaml:"headers" json:"headers"`
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Provider:     "openai",
		Timeout:      120 * time.Second,
		StreamBuffer: 16,
		Auth: AuthConfig{
			TTL: 1 * time.Hour,
		},
		Log: LogConfig{
			Level: "INFO",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Ledger: LedgerConfig{
			Type:    "none",
			MaxSize: 10000,
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
	}
}
