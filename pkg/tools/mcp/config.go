package mcp

import (
	"github.com/rhuss/chatwire/pkg/auth"
	"github.com/rhuss/chatwire/pkg/config"
)

// Transport types.
const (
	TransportSSE            = "sse"
	TransportStreamableHTTP = "streamable-http"
)

// ServerConfig describes a single MCP server connection.
type ServerConfig struct {
	// Name identifies the server in logs and tool routing.
	Name string

	// Transport is "sse" or "streamable-http" (default).
	Transport string

	// URL is the MCP server endpoint URL.
	URL string

	// Headers are sent with every request to the server.
	Headers map[string]string

	// Auth, when set, authorizes every request to the server after the
	// static headers are applied.
	Auth auth.Authenticator
}

// ServersFromConfig converts the configured MCP servers.
func ServersFromConfig(cfg config.MCPConfig) []ServerConfig {
	servers := make([]ServerConfig, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		servers = append(servers, ServerConfig{
			Name:      s.Name,
			Transport: s.Transport,
			URL:       s.URL,
			Headers:   s.Headers,
		})
	}
	return servers
}
