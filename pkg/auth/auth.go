package auth

import (
	"context"
	"errors"
	"net/http"
)

// Authenticator attaches credentials to an outgoing request. Authorize is
// called once per request, before it is sent, and may block (for example to
// mint a token).
type Authenticator interface {
	Authorize(ctx context.Context, h http.Header) error
}

// AuthenticatorFunc is an adapter that allows using an ordinary function as
// an Authenticator.
type AuthenticatorFunc func(ctx context.Context, h http.Header) error

// Authorize calls f(ctx, h).
func (f AuthenticatorFunc) Authorize(ctx context.Context, h http.Header) error {
	return f(ctx, h)
}

// ErrNoCredentials is returned when an authenticator has no key to send.
var ErrNoCredentials = errors.New("no credentials configured")

// Chain applies authenticators in order and stops at the first error. It is
// used to combine a key with additional headers such as an organization ID.
type Chain []Authenticator

// Authorize runs every authenticator in the chain.
func (c Chain) Authorize(ctx context.Context, h http.Header) error {
	for _, a := range c {
		if err := a.Authorize(ctx, h); err != nil {
			return err
		}
	}
	return nil
}

// StaticHeader returns an Authenticator that sets a fixed header, e.g.
// OpenAI-Organization.
func StaticHeader(name, value string) Authenticator {
	return AuthenticatorFunc(func(_ context.Context, h http.Header) error {
		h.Set(name, value)
		return nil
	})
}
