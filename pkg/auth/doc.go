// Package auth attaches vendor credentials to outgoing requests.
//
// An [Authenticator] mutates the request headers right before the request
// is sent. Implementations live in subpackages: apikey (static keys in the
// Authorization header or a vendor-specific header), jwt (short-lived
// tokens minted from an "id.secret" key) and noop (no credentials, for local
// servers). [Chain] combines several of them.
//
// [Middleware] plugs an Authenticator into the transport middleware chain.
package auth
