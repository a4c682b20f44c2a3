// Package tools runs the tool calls a model emits and turns their results
// into tool role messages for the next request of the conversation.
//
// Executors are pluggable. The mcp subpackage provides one backed by Model
// Context Protocol servers.
package tools
