package transport

import (
	"context"

	"github.com/rhuss/chatwire/pkg/api"
)

// HeaderRequestID is the header carrying the request ID.
const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

// ContextWithRequestID pins the ID the RequestID middleware will send.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the pinned request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestID returns middleware that assigns a request ID to each call. An ID
// already present in the context or in the X-Request-ID header is kept;
// otherwise a new one is generated. The ID is sent in the X-Request-ID header
// and stored in the context for later middleware.
func RequestID() Middleware {
	return func(next Transport) Transport {
		return TransportFunc(func(ctx context.Context, req *Request) (*Response, error) {
			id := RequestIDFromContext(ctx)
			if id == "" && req.Header != nil {
				id = req.Header.Get(HeaderRequestID)
			}
			if id == "" {
				id = api.NewRequestID()
			}
			ctx = ContextWithRequestID(ctx, id)

			if req.Header == nil {
				req.Header = make(map[string][]string)
			}
			req.Header.Set(HeaderRequestID, id)
			return next.Send(ctx, req)
		})
	}
}
