package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rhuss/chatwire/pkg/auth"
	"github.com/rhuss/chatwire/pkg/debug"
	"github.com/rhuss/chatwire/pkg/schema"
	"github.com/rhuss/chatwire/pkg/tools"
)

// ErrNotConnected is returned by operations on a client without a session.
var ErrNotConnected = errors.New("mcp client not connected")

// Client wraps an MCP SDK client session for a single server. It handles
// connection lifecycle, tool discovery, and tool execution.
type Client struct {
	cfg     ServerConfig
	session *mcp.ClientSession

	mu         sync.Mutex
	functions  []schema.Function
	discovered bool
}

// NewClient creates a client for the given server. Call Connect to
// establish the session.
func NewClient(cfg ServerConfig) *Client {
	return &Client{cfg: cfg}
}

// Name returns the configured server name.
func (c *Client) Name() string { return c.cfg.Name }

// Connect establishes the MCP session, performing the protocol handshake
// over the transport named in the server configuration.
func (c *Client) Connect(ctx context.Context) error {
	t, err := c.createTransport()
	if err != nil {
		return fmt.Errorf("creating transport for %q: %w", c.cfg.Name, err)
	}
	return c.ConnectWithTransport(ctx, t)
}

// ConnectWithTransport establishes the MCP session over transport.
func (c *Client) ConnectWithTransport(ctx context.Context, transport mcp.Transport) error {
	client := mcp.NewClient(
		&mcp.Implementation{Name: "chatwire", Version: "1.0.0"},
		&mcp.ClientOptions{Capabilities: &mcp.ClientCapabilities{}},
	)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return fmt.Errorf("connecting to MCP server %q: %w", c.cfg.Name, err)
	}
	c.session = session
	debug.Log(debug.MCP, "connected to MCP server", "server", c.cfg.Name)
	return nil
}

func (c *Client) createTransport() (mcp.Transport, error) {
	httpClient := c.buildHTTPClient()

	switch c.cfg.Transport {
	case TransportSSE:
		return &mcp.SSEClientTransport{Endpoint: c.cfg.URL, HTTPClient: httpClient}, nil
	case TransportStreamableHTTP, "":
		return &mcp.StreamableClientTransport{Endpoint: c.cfg.URL, HTTPClient: httpClient}, nil
	default:
		return nil, fmt.Errorf("unsupported transport type %q", c.cfg.Transport)
	}
}

// buildHTTPClient returns nil when neither headers nor an authenticator
// are configured, which makes the SDK use its default client.
func (c *Client) buildHTTPClient() *http.Client {
	if len(c.cfg.Headers) == 0 && c.cfg.Auth == nil {
		return nil
	}
	return &http.Client{
		Transport: &authTransport{
			base:    http.DefaultTransport,
			headers: c.cfg.Headers,
			auth:    c.cfg.Auth,
		},
	}
}

// authTransport adds static headers and authenticator headers to every
// request.
type authTransport struct {
	base    http.RoundTripper
	headers map[string]string
	auth    auth.Authenticator
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	if t.auth != nil {
		if err := t.auth.Authorize(req.Context(), req.Header); err != nil {
			return nil, fmt.Errorf("authorizing MCP request: %w", err)
		}
	}
	return t.base.RoundTrip(req)
}

// DiscoverFunctions lists the server's tools and converts each input schema
// into a validated function definition. Results are cached; a tool whose
// schema does not validate fails discovery.
func (c *Client) DiscoverFunctions(ctx context.Context) ([]schema.Function, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.discovered {
		return c.functions, nil
	}
	if c.session == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotConnected, c.cfg.Name)
	}

	var fns []schema.Function
	for tool, err := range c.session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("listing tools from %q: %w", c.cfg.Name, err)
		}
		fn, err := ConvertTool(tool)
		if err != nil {
			return nil, fmt.Errorf("converting tool %q from %q: %w", tool.Name, c.cfg.Name, err)
		}
		fns = append(fns, fn)
	}

	c.functions = fns
	c.discovered = true
	return fns, nil
}

// Call executes a tool call on the server. Invalid arguments and failed
// MCP calls are reported as error results for the model.
func (c *Client) Call(ctx context.Context, call schema.ToolCall) (*tools.Result, error) {
	if c.session == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotConnected, c.cfg.Name)
	}

	args, err := call.ParseArguments()
	if err != nil {
		return tools.ErrorResult(call.ID, "invalid arguments JSON: %v", err), nil
	}

	result, err := c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      call.Function.Name,
		Arguments: map[string]any(args),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return tools.ErrorResult(call.ID, "MCP tool call error: %v", err), nil
	}
	return convertResult(call.ID, result), nil
}

// Close closes the MCP session.
func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

// ConvertTool converts an MCP tool into a function definition. The input
// schema goes through schema.Parameters validation, so malformed remote
// schemas are rejected with a *schema.BuildError.
func ConvertTool(t *mcp.Tool) (schema.Function, error) {
	b := schema.NewFunction().WithName(t.Name).WithDescription(t.Description)
	if t.InputSchema != nil {
		data, err := json.Marshal(t.InputSchema)
		if err != nil {
			return schema.Function{}, fmt.Errorf("marshaling input schema: %w", err)
		}
		var params schema.Parameters
		if err := json.Unmarshal(data, &params); err != nil {
			return schema.Function{}, fmt.Errorf("input schema: %w", err)
		}
		b = b.WithParameters(params)
	}
	return b.Build()
}

func convertResult(callID string, result *mcp.CallToolResult) *tools.Result {
	var parts []string
	for _, content := range result.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return &tools.Result{
		CallID:  callID,
		Output:  strings.Join(parts, "\n"),
		IsError: result.IsError,
	}
}
