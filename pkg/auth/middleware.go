package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rhuss/chatwire/pkg/debug"
	"github.com/rhuss/chatwire/pkg/transport"
)

// Middleware returns transport middleware that authorizes every request
// with a before it is sent. A failing authenticator aborts the call.
func Middleware(a Authenticator) transport.Middleware {
	return func(next transport.Transport) transport.Transport {
		return transport.TransportFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			if req.Header == nil {
				req.Header = make(http.Header)
			}
			if err := a.Authorize(ctx, req.Header); err != nil {
				debug.Log(debug.Auth, "authorization failed",
					"request_id", transport.RequestIDFromContext(ctx), "error", err)
				return nil, fmt.Errorf("authorizing request: %w", err)
			}
			return next.Send(ctx, req)
		})
	}
}
