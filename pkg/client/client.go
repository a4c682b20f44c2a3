package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/rhuss/chatwire/pkg/api"
	"github.com/rhuss/chatwire/pkg/debug"
	"github.com/rhuss/chatwire/pkg/observability"
	"github.com/rhuss/chatwire/pkg/provider"
	"github.com/rhuss/chatwire/pkg/storage"
	"github.com/rhuss/chatwire/pkg/stream"
	"github.com/rhuss/chatwire/pkg/transport"
)

// ErrClosed is returned by calls on a closed client.
var ErrClosed = errors.New("client closed")

// maxErrorBody bounds how much of a rejected streaming response is read.
const maxErrorBody = 1 << 20

// closeTimeout bounds how long Close waits for cancelled streams.
const closeTimeout = 10 * time.Second

type idleCloser interface {
	CloseIdleConnections()
}

// Client sends chat completion requests to one service. It is safe for
// concurrent use.
type Client struct {
	base      *url.URL
	profile   provider.Profile
	transport transport.Transport
	idle      idleCloser
	recorder  storage.UsageStore
	mapper    provider.ModelMapper
	engine    stream.Engine
	metrics   bool
	logger    *slog.Logger
	inflight  *transport.InFlightRegistry

	// closeRecorder is set when the client created the recorder itself.
	closeRecorder bool
	streamSeq     atomic.Uint64
	closed        atomic.Bool
}

// Profile returns the vendor profile in use.
func (c *Client) Profile() provider.Profile { return c.profile }

// BaseURL returns the versioned service root.
func (c *Client) BaseURL() string { return c.base.String() }

// Recorder returns the usage ledger, or nil when usage is not recorded.
func (c *Client) Recorder() storage.UsageStore { return c.recorder }

// Call dispatches on the request's stream flag: a streaming request yields a
// ResultStreaming result, any other a ResultComplete one.
func (c *Client) Call(ctx context.Context, req api.ChatCompletionRequest) (*Result, error) {
	if req.Stream() {
		s, err := c.Stream(ctx, req)
		if err != nil {
			return nil, err
		}
		return &Result{kind: ResultStreaming, stream: s}, nil
	}
	resp, err := c.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	return &Result{kind: ResultComplete, response: resp}, nil
}

// Complete sends req without streaming and decodes the full response.
func (c *Client) Complete(ctx context.Context, req api.ChatCompletionRequest) (*api.Response, error) {
	req = req.WithStreaming(false)
	ctx, id := withRequestID(ctx)

	tresp, treq, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer tresp.Body.Close()

	body, err := io.ReadAll(tresp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &api.ConnectionError{URL: treq.URL, Err: err}
	}
	debug.Trace(debug.Transport, "response body", "request_id", id, "body", debug.Truncate(string(body), 4096))

	resp, err := api.DecodeResponse(tresp.StatusCode, body)
	if err != nil {
		return nil, err
	}

	if c.metrics {
		observability.RecordUsage(treq.Provider, treq.Model, resp.Usage)
	}
	c.record(ctx, id, treq, false, api.StateCompleted, resp)
	return resp, nil
}

// Stream sends req with streaming enabled and returns the consumer handle.
// A rejected request fails here with the decoded *api.APIError; failures
// after the stream opened are delivered through the stream.
//
// The stream lives until it terminates, the caller closes it, ctx is
// cancelled or the client is closed.
func (c *Client) Stream(ctx context.Context, req api.ChatCompletionRequest) (*stream.Stream, error) {
	req = req.WithStreaming(true)
	ctx, id := withRequestID(ctx)

	streamCtx, cancel := context.WithCancel(ctx)
	tresp, treq, err := c.send(streamCtx, req)
	if err != nil {
		cancel()
		return nil, err
	}

	if err := checkStreamResponse(tresp); err != nil {
		tresp.Body.Close()
		cancel()
		return nil, err
	}

	key := fmt.Sprintf("%s#%d", id, c.streamSeq.Add(1))
	if !c.inflight.Register(key, cancel) {
		// Close ran after send.
		tresp.Body.Close()
		cancel()
		return nil, ErrClosed
	}
	if c.metrics {
		observability.StreamStarted()
	}

	recordCtx := context.WithoutCancel(ctx)
	eng := c.engine
	eng.OnFinish = func(o stream.Outcome) {
		defer c.inflight.Remove(key)
		if c.metrics {
			observability.RecordStreamOutcome(treq.Provider, treq.Model, o)
		}
		c.record(recordCtx, id, treq, true, o.State, o.Response)
	}

	s := eng.Start(streamCtx, stream.NewSSEReader(tresp.Body), tresp.Body)
	go func() {
		<-s.Done()
		cancel()
	}()
	return s, nil
}

// checkStreamResponse turns a rejected or non-SSE streaming response into
// an error. The body is left open.
func checkStreamResponse(resp *transport.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return api.DecodeError(resp.StatusCode, body)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil || mediaType != "application/json" {
		return nil
	}
	// Some services answer a streaming request with a plain JSON error.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if _, err := api.DecodeResponse(resp.StatusCode, body); err != nil {
		return err
	}
	return &api.MalformedResponseError{Detail: "expected an event stream, got a complete JSON response"}
}

// Models lists the models offered by the service.
func (c *Client) Models(ctx context.Context) (*api.ModelList, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	ctx, _ = withRequestID(ctx)

	treq := &transport.Request{
		Method:   http.MethodGet,
		URL:      c.profile.ModelsURL(c.base),
		Header:   make(http.Header),
		Provider: c.profile.Name,
	}
	tresp, err := c.transport.Send(ctx, treq)
	if err != nil {
		return nil, err
	}
	defer tresp.Body.Close()

	body, err := io.ReadAll(tresp.Body)
	if err != nil {
		return nil, &api.ConnectionError{URL: treq.URL, Err: err}
	}
	return api.DecodeModels(tresp.StatusCode, body)
}

// Close cancels every open stream, waits for them to record their usage and
// releases idle connections. A recorder created by FromConfig is closed
// last. Close is idempotent.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	n, err := c.inflight.Shutdown(ctx)
	if n > 0 {
		c.logger.Info("cancelled open streams", "count", n)
	}
	if err != nil {
		c.logger.Warn("open streams still running at close", "error", err)
	}
	if c.idle != nil {
		c.idle.CloseIdleConnections()
	}
	if c.closeRecorder && c.recorder != nil {
		return c.recorder.Close()
	}
	return nil
}

// send validates req against the profile, encodes it and sends it through
// the transport chain.
func (c *Client) send(ctx context.Context, req api.ChatCompletionRequest) (*transport.Response, *transport.Request, error) {
	if c.closed.Load() {
		return nil, nil, ErrClosed
	}
	if err := provider.ValidateCapabilities(c.profile.Capabilities, req); err != nil {
		return nil, nil, err
	}

	wireModel := c.mapper.Map(req.Model())
	body, err := api.EncodeRequest(req, c.profile.EncodeOptions(wireModel))
	if err != nil {
		return nil, nil, fmt.Errorf("encoding request: %w", err)
	}

	treq := &transport.Request{
		Method:   http.MethodPost,
		URL:      c.profile.ChatURL(c.base, wireModel),
		Header:   make(http.Header),
		Body:     body,
		Stream:   req.Stream(),
		Provider: c.profile.Name,
		Model:    wireModel,
	}
	debug.Trace(debug.Transport, "request body", "url", treq.URL, "body", debug.Truncate(string(body), 4096))

	resp, err := c.transport.Send(ctx, treq)
	if err != nil {
		return nil, treq, err
	}
	return resp, treq, nil
}

// record stores the usage of a finished exchange. Ledger failures are
// logged and never fail the call.
func (c *Client) record(ctx context.Context, requestID string, treq *transport.Request, streamed bool, state api.StreamState, resp *api.Response) {
	if c.recorder == nil {
		return
	}
	rec := storage.NewUsageRecord(requestID, treq.Provider, streamed, state, resp)
	if rec.Model == "" {
		rec.Model = treq.Model
	}
	if err := c.recorder.SaveUsage(ctx, rec); err != nil {
		c.logger.Warn("recording usage failed", "request_id", requestID, "error", err)
	}
}

// withRequestID makes sure the context carries a request ID, so that the
// transport chain and the usage record agree on it.
func withRequestID(ctx context.Context) (context.Context, string) {
	if id := transport.RequestIDFromContext(ctx); id != "" {
		return ctx, id
	}
	id := api.NewRequestID()
	return transport.ContextWithRequestID(ctx, id), id
}
