package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rhuss/chatwire/pkg/debug"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, CHATWIRE_CONFIG env, ./chatwire.yaml, /etc/chatwire/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
		debug.Log(debug.Config, "loaded config file", "path", filePath)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. CHATWIRE_CONFIG environment variable
// 3. ./chatwire.yaml in the current directory
// 4. /etc/chatwire/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("CHATWIRE_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"chatwire.yaml",
		"/etc/chatwire/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps CHATWIRE_* environment variables to config fields.
// Malformed numeric, duration and JSON values are reported, not ignored.
func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"CHATWIRE_PROVIDER":    &cfg.Provider,
		"CHATWIRE_BASE_URL":    &cfg.BaseURL,
		"CHATWIRE_API_VERSION": &cfg.APIVersion,
		"CHATWIRE_MODEL":       &cfg.Model,
		"CHATWIRE_API_KEY":     &cfg.Auth.APIKey,
		"CHATWIRE_AUTH_TYPE":   &cfg.Auth.Type,
		"CHATWIRE_LEDGER":      &cfg.Ledger.Type,
		"CHATWIRE_LEDGER_DSN":  &cfg.Ledger.Postgres.DSN,
	}
	for name, field := range strs {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}

	if v := os.Getenv("CHATWIRE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CHATWIRE_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("CHATWIRE_STREAM_BUFFER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHATWIRE_STREAM_BUFFER: %w", err)
		}
		cfg.StreamBuffer = n
	}
	if v := os.Getenv("CHATWIRE_LEDGER_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHATWIRE_LEDGER_SIZE: %w", err)
		}
		cfg.Ledger.MaxSize = n
	}
	if v := os.Getenv("CHATWIRE_METRICS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CHATWIRE_METRICS: %w", err)
		}
		cfg.Metrics.Enabled = b
	}

	// CHATWIRE_MCP_SERVERS: JSON array of MCP server configs.
	if v := os.Getenv("CHATWIRE_MCP_SERVERS"); v != "" {
		servers, err := parseMCPServersJSON(v)
		if err != nil {
			return err
		}
		cfg.MCP.Servers = servers
	}
	return nil
}

// parseMCPServersJSON parses a JSON array of MCP server configurations.
func parseMCPServersJSON(jsonStr string) ([]MCPServerConfig, error) {
	var servers []MCPServerConfig
	if err := json.Unmarshal([]byte(jsonStr), &servers); err != nil {
		return nil, fmt.Errorf("parsing MCP servers JSON: %w", err)
	}
	return servers, nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// auth.api_key_file -> auth.api_key
	if cfg.Auth.APIKeyFile != "" && cfg.Auth.APIKey == "" {
		val, err := readSecretFile(cfg.Auth.APIKeyFile)
		if err != nil {
			return fmt.Errorf("auth.api_key_file: %w", err)
		}
		cfg.Auth.APIKey = val
	}

	// ledger.postgres.dsn_file -> ledger.postgres.dsn
	if cfg.Ledger.Postgres.DSNFile != "" && cfg.Ledger.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Ledger.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("ledger.postgres.dsn_file: %w", err)
		}
		cfg.Ledger.Postgres.DSN = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
