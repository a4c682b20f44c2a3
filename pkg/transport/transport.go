package transport

import (
	"context"
	"io"
	"net/http"
)

// Request is one outbound call to a chat completion service. Body is the
// serialized request; Provider and Model are carried for logging and
// metrics only.
type Request struct {
	Method   string
	URL      string
	Header   http.Header
	Body     []byte
	Stream   bool
	Provider string
	Model    string
}

// Response is the service's reply. For streaming requests Body is the live
// event stream and is owned by whoever consumes it; it must be closed.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// Transport performs a request. Implementations return an error only when
// no response was received; non-2xx statuses are returned as responses.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc is an adapter that allows using an ordinary function as a
// Transport.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Send calls f(ctx, req).
func (f TransportFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
