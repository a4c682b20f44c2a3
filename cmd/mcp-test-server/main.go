// Command mcp-test-server runs a small MCP server for trying the chatwire
// MCP tool bridge. It provides the "add_number" and "echo" tools over
// streamable HTTP on /mcp.
//
// Configuration:
//
//	PORT - Listen port (default: 8080)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AddInput are the arguments of add_number.
type AddInput struct {
	A float64 `json:"a" jsonschema:"the first addend"`
	B float64 `json:"b" jsonschema:"the second addend"`
}

// EchoInput are the arguments of echo.
type EchoInput struct {
	Message string `json:"message" jsonschema:"the message to echo back"`
}

func newServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "chatwire-test-mcp", Version: "v1.0.0"},
		nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_number",
		Description: "Adds two numbers and returns the sum",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in AddInput) (*mcp.CallToolResult, struct{}, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprint(in.A + in.B)},
			},
		}, struct{}{}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "echo",
		Description: "Echoes the provided message back",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in EchoInput) (*mcp.CallToolResult, struct{}, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: "Echo: " + in.Message},
			},
		}, struct{}{}, nil
	})

	return server
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := newServer()
	handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, nil)

	mux := http.NewServeMux()
	mux.Handle("/mcp", handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})

	slog.Info("MCP test server starting", "port", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		slog.Error("MCP test server failed", "error", err)
		os.Exit(1)
	}
}
