// Package noop provides an authenticator that sends no credentials.
// Used for local servers such as vLLM without an API key.
package noop

import (
	"context"
	"net/http"

	"github.com/rhuss/chatwire/pkg/auth"
)

// Authenticator leaves the request untouched.
type Authenticator struct{}

var _ auth.Authenticator = Authenticator{}

func (Authenticator) Authorize(_ context.Context, _ http.Header) error {
	return nil
}
