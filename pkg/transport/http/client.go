// Package http provides the net/http implementation of transport.Transport
// and the SSE writer used by test and mock servers.
package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rhuss/chatwire/pkg/api"
	"github.com/rhuss/chatwire/pkg/debug"
	"github.com/rhuss/chatwire/pkg/transport"
)

// DefaultTimeout bounds non-streaming requests when no timeout is configured.
const DefaultTimeout = 120 * time.Second

// Transport sends requests with net/http.
//
// Non-streaming requests use a client with a fixed timeout. Streaming
// requests use a client without timeout sharing the same RoundTripper,
// because a stream can legitimately outlive any fixed timeout; the request
// context controls their lifetime instead.
type Transport struct {
	client       *http.Client
	streamClient *http.Client
}

var _ transport.Transport = (*Transport)(nil)

// Option configures a Transport.
type Option func(*Transport)

// WithRoundTripper sets the RoundTripper shared by both clients.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(t *Transport) {
		t.client.Transport = rt
		t.streamClient.Transport = rt
	}
}

// New creates a Transport. A zero timeout selects DefaultTimeout.
func New(timeout time.Duration, opts ...Option) *Transport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	t := &Transport{
		client:       &http.Client{Timeout: timeout},
		streamClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send performs the request. The response body is returned unread; callers
// must close it. A failure to reach the server is reported as
// *api.ConnectionError, a cancelled context as the context's error.
func (t *Transport) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, &api.ConnectionError{URL: req.URL, Err: err}
	}

	for k, v := range req.Header {
		httpReq.Header[k] = append([]string(nil), v...)
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	client := t.client
	if req.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
		client = t.streamClient
	}

	debug.Log(debug.Transport, "sending request", "method", method, "url", req.URL, "stream", req.Stream)
	debug.Trace(debug.Transport, "request body", "body", string(req.Body))

	httpResp, err := client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &api.ConnectionError{URL: req.URL, Err: err}
	}

	debug.Log(debug.Transport, "received response", "status", httpResp.StatusCode, "url", req.URL)

	return &transport.Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       httpResp.Body,
	}, nil
}

// CloseIdleConnections releases pooled connections of both clients.
func (t *Transport) CloseIdleConnections() {
	t.client.CloseIdleConnections()
	t.streamClient.CloseIdleConnections()
}
