// Package apikey provides an authenticator that sends a static API key,
// either as a bearer token or in a vendor-specific header.
package apikey

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rhuss/chatwire/pkg/auth"
)

// Authenticator sends a static key.
type Authenticator struct {
	key    string
	header string
	scheme string
}

var _ auth.Authenticator = (*Authenticator)(nil)

// New creates an authenticator sending "Authorization: Bearer <key>".
func New(key string) *Authenticator {
	return &Authenticator{key: key, header: "Authorization", scheme: "Bearer"}
}

// NewHeader creates an authenticator sending the raw key in the named header,
// e.g. Azure's "api-key".
func NewHeader(header, key string) *Authenticator {
	return &Authenticator{key: key, header: header}
}

// Authorize sets the key header. A key set with auth.ContextWithAPIKey takes
// precedence over the configured one. An existing header is overwritten with
// a warning.
func (a *Authenticator) Authorize(ctx context.Context, h http.Header) error {
	key := auth.APIKeyFromContext(ctx)
	if key == "" {
		key = a.key
	}
	if key == "" {
		return fmt.Errorf("%s header: %w", a.header, auth.ErrNoCredentials)
	}

	value := key
	if a.scheme != "" {
		value = a.scheme + " " + key
	}
	if h.Get(a.header) != "" {
		slog.Warn("auth header exists and is overwritten", "header", a.header)
	}
	h.Set(a.header, value)
	return nil
}
