package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/rhuss/chatwire/pkg/provider"
)

// Validate checks the configuration for required fields and valid values.
// All problems are reported together, each with its field path.
func (c *Config) Validate() error {
	var errs []error

	profile, known := provider.Lookup(c.Provider)
	if !known {
		errs = append(errs, fmt.Errorf("provider must be one of %q, got %q", provider.Names(), c.Provider))
	}

	// base_url is required when the profile has no default.
	if c.BaseURL == "" {
		if known && profile.BaseURL == "" {
			errs = append(errs, fmt.Errorf("base_url is required for provider %q", c.Provider))
		}
	} else if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("base_url must be an absolute http(s) URL, got %q", c.BaseURL))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must be >= 0, got %s", c.Timeout))
	}
	if c.StreamBuffer < 0 {
		errs = append(errs, fmt.Errorf("stream_buffer must be >= 0, got %d", c.StreamBuffer))
	}

	// auth.type must be a known value.
	authType := c.Auth.Type
	if authType == "" && known {
		authType = string(profile.Auth)
	}
	switch provider.AuthKind(authType) {
	case provider.AuthBearer, provider.AuthNone, "":
		// valid
	case provider.AuthHeader:
		if c.Auth.Header == "" && (!known || profile.AuthHeader == "") {
			errs = append(errs, fmt.Errorf("auth.header is required when auth.type is \"header\""))
		}
	case provider.AuthJWT:
		if c.Auth.APIKey == "" && c.Auth.APIKeyFile == "" {
			errs = append(errs, fmt.Errorf("auth.api_key is required when auth.type is \"jwt\""))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"bearer\", \"header\", \"jwt\", or \"none\", got %q", c.Auth.Type))
	}

	// ledger.type must be a known value.
	switch c.Ledger.Type {
	case "none", "memory", "":
		// valid
	case "postgres":
		if c.Ledger.Postgres.DSN == "" && c.Ledger.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("ledger.postgres.dsn or ledger.postgres.dsn_file is required when ledger.type is \"postgres\""))
		}
	default:
		errs = append(errs, fmt.Errorf("ledger.type must be \"none\", \"memory\" or \"postgres\", got %q", c.Ledger.Type))
	}

	for i, s := range c.MCP.Servers {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("mcp.servers[%d].name is required", i))
		}
		if s.URL == "" {
			errs = append(errs, fmt.Errorf("mcp.servers[%d].url is required", i))
		}
		switch s.Transport {
		case "sse", "streamable-http", "":
			// valid
		default:
			errs = append(errs, fmt.Errorf("mcp.servers[%d].transport must be \"sse\" or \"streamable-http\", got %q", i, s.Transport))
		}
	}

	return errors.Join(errs...)
}
