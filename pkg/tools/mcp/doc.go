// Package mcp bridges Model Context Protocol servers into chat completion
// tool calling. It connects to MCP servers, imports their tools as
// validated schema.Function definitions to send with a request, and
// executes the tool calls a model emits against the server that provides
// each tool.
//
// The package wraps the official MCP Go SDK (github.com/modelcontextprotocol/go-sdk).
// Servers are reached over SSE or streamable HTTP; tests use the SDK's
// in-memory transports.
package mcp
