package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rhuss/chatwire/pkg/schema"
	"github.com/rhuss/chatwire/pkg/tools"
)

// Executor routes tool calls to the MCP server that provides each tool.
// Tools are discovered once, on first use.
type Executor struct {
	mu sync.RWMutex

	clients []*Client

	// toolToClient maps tool name to the client that provides it.
	toolToClient map[string]*Client
	functions    []schema.Function
	discovered   bool
}

var _ tools.Executor = (*Executor)(nil)

// NewExecutor creates an executor over connected clients. When two servers
// provide the same tool name, the first client wins.
func NewExecutor(clients ...*Client) *Executor {
	return &Executor{
		clients:      clients,
		toolToClient: make(map[string]*Client),
	}
}

// Connect connects to every server and returns an executor over them.
// On failure, the servers connected so far are closed.
func Connect(ctx context.Context, servers []ServerConfig) (*Executor, error) {
	clients := make([]*Client, 0, len(servers))
	for _, cfg := range servers {
		c := NewClient(cfg)
		if err := c.Connect(ctx); err != nil {
			for _, done := range clients {
				_ = done.Close()
			}
			return nil, err
		}
		clients = append(clients, c)
	}
	return NewExecutor(clients...), nil
}

// Functions returns the tools of all servers as function definitions, in
// client order.
func (e *Executor) Functions(ctx context.Context) ([]schema.Function, error) {
	if err := e.discover(ctx); err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.functions, nil
}

// Tools returns the request tool entries for all discovered functions.
func (e *Executor) Tools(ctx context.Context) ([]schema.Tool, error) {
	fns, err := e.Functions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]schema.Tool, len(fns))
	for i, fn := range fns {
		out[i] = fn.Tool()
	}
	return out, nil
}

// CanExecute reports whether a connected server provides the named tool.
// Discovery runs on first use; if it fails, CanExecute returns false.
func (e *Executor) CanExecute(name string) bool {
	if err := e.discover(context.Background()); err != nil {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.toolToClient[name]
	return ok
}

// Call routes one tool call to its server.
func (e *Executor) Call(ctx context.Context, call schema.ToolCall) (*tools.Result, error) {
	if err := e.discover(ctx); err != nil {
		return nil, err
	}
	e.mu.RLock()
	client, ok := e.toolToClient[call.Function.Name]
	e.mu.RUnlock()
	if !ok {
		return tools.ErrorResult(call.ID, "no MCP server provides tool %q", call.Function.Name), nil
	}
	return client.Call(ctx, call)
}

// Execute runs the merged tool calls of a response and returns the tool
// messages that answer them, ready for the next request.
func (e *Executor) Execute(ctx context.Context, calls []schema.ToolCall) ([]schema.Message, error) {
	return tools.Run(ctx, e, calls, nil)
}

// Close closes all client sessions.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	for _, c := range e.clients {
		if err := c.Close(); err != nil {
			slog.Warn("failed to close MCP client", "server", c.Name(), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Executor) discover(ctx context.Context) error {
	e.mu.RLock()
	done := e.discovered
	e.mu.RUnlock()
	if done {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.discovered {
		return nil
	}

	e.toolToClient = make(map[string]*Client)
	e.functions = nil
	for _, c := range e.clients {
		fns, err := c.DiscoverFunctions(ctx)
		if err != nil {
			return fmt.Errorf("discovering MCP tools: %w", err)
		}
		for _, fn := range fns {
			if _, exists := e.toolToClient[fn.Name()]; exists {
				slog.Warn("duplicate MCP tool name, using first provider",
					"tool", fn.Name(),
					"server", c.Name(),
				)
				continue
			}
			e.toolToClient[fn.Name()] = c
			e.functions = append(e.functions, fn)
		}
		slog.Info("discovered MCP tools", "server", c.Name(), "count", len(fns))
	}

	e.discovered = true
	return nil
}
