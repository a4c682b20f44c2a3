// Package transport defines the narrow interface through which chatwire
// talks to a chat completion service, plus the middleware that wraps it.
//
// A [Transport] sends one serialized request and returns the status,
// headers and body. For streaming requests the body is handed over unread;
// the stream engine owns it from then on.
//
// # Middleware
//
// [Middleware] wraps a Transport with cross-cutting concerns. Built-in
// middleware provides panic recovery, request ID assignment (X-Request-ID)
// and structured logging via log/slog. Metrics middleware lives in
// pkg/observability. Middleware never retries a call.
//
// The net/http implementation lives in the http subpackage.
package transport
