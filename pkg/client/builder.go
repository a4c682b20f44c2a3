package client

import (
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"time"

	"github.com/rhuss/chatwire/pkg/auth"
	"github.com/rhuss/chatwire/pkg/observability"
	"github.com/rhuss/chatwire/pkg/provider"
	"github.com/rhuss/chatwire/pkg/schema"
	"github.com/rhuss/chatwire/pkg/storage"
	"github.com/rhuss/chatwire/pkg/stream"
	"github.com/rhuss/chatwire/pkg/transport"
	transporthttp "github.com/rhuss/chatwire/pkg/transport/http"
)

// Builder assembles a Client. Like the request builders, every method
// returns a modified copy and Build validates the result.
type Builder struct {
	baseURL     string
	version     *string
	auth        auth.Authenticator
	transport   transport.Transport
	middlewares []transport.Middleware
	profile     *provider.Profile
	recorder    storage.UsageStore
	mapper      provider.ModelMapper
	buffer      int
	snapshots   bool
	timeout     time.Duration
	noMetrics   bool
	logger      *slog.Logger
}

// NewBuilder returns an empty client builder.
func NewBuilder() Builder {
	return Builder{}
}

// WithBaseURL sets the service root, e.g. "https://api.openai.com". When
// unset, the profile's base URL is used.
func (b Builder) WithBaseURL(raw string) Builder {
	b.baseURL = raw
	return b
}

// WithVersion sets the path segment joined to the base URL ("v1"). It
// overrides the profile's version; an empty version joins nothing.
func (b Builder) WithVersion(version string) Builder {
	b.version = &version
	return b
}

// WithAuthenticator sets how credentials are attached. Use noop.Authenticator
// for services without authentication.
func (b Builder) WithAuthenticator(a auth.Authenticator) Builder {
	b.auth = a
	return b
}

// WithTransport replaces the default net/http transport.
func (b Builder) WithTransport(t transport.Transport) Builder {
	b.transport = t
	return b
}

// WithMiddleware adds transport middleware. It runs inside the built-in
// request ID, logging and metrics middleware and outside authentication.
func (b Builder) WithMiddleware(mw ...transport.Middleware) Builder {
	b.middlewares = append(slices.Clip(b.middlewares), mw...)
	return b
}

// WithProfile selects the vendor profile. Without one, the client talks the
// reference protocol (provider.Generic).
func (b Builder) WithProfile(p provider.Profile) Builder {
	b.profile = &p
	return b
}

// WithRecorder records the usage of every finished exchange in store.
func (b Builder) WithRecorder(store storage.UsageStore) Builder {
	b.recorder = store
	return b
}

// WithModelMapper rewrites model names before they are sent.
func (b Builder) WithModelMapper(m provider.ModelMapper) Builder {
	b.mapper = m
	return b
}

// WithStreamBuffer sets the delivery channel capacity of streams.
func (b Builder) WithStreamBuffer(n int) Builder {
	b.buffer = n
	return b
}

// WithSnapshots attaches a merged snapshot to every streamed chunk.
func (b Builder) WithSnapshots(enabled bool) Builder {
	b.snapshots = enabled
	return b
}

// WithTimeout bounds non-streaming calls of the default transport.
func (b Builder) WithTimeout(d time.Duration) Builder {
	b.timeout = d
	return b
}

// WithMetrics enables or disables Prometheus metrics. Default: enabled.
func (b Builder) WithMetrics(enabled bool) Builder {
	b.noMetrics = !enabled
	return b
}

// WithLogger sets the logger of the logging middleware. Default: slog.Default().
func (b Builder) WithLogger(l *slog.Logger) Builder {
	b.logger = l
	return b
}

// Build validates the configuration and returns the client.
func (b Builder) Build() (*Client, error) {
	profile := provider.Generic()
	if b.profile != nil {
		profile = *b.profile
	}

	raw := b.baseURL
	if raw == "" {
		raw = profile.BaseURL
	}
	if raw == "" {
		return nil, schema.MissingField("base_url")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, schema.InvalidValue("base_url", err.Error())
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, schema.InvalidValue("base_url", fmt.Sprintf("%q is not an absolute http(s) URL", raw))
	}
	base.RawQuery, base.Fragment = "", ""

	version := profile.Version
	if b.version != nil {
		version = *b.version
	}
	if version != "" {
		base = base.JoinPath(version)
	}

	if b.auth == nil {
		return nil, schema.MissingField("authenticator")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	next := b.transport
	if next == nil {
		next = transporthttp.New(b.timeout)
	}
	idle, _ := next.(idleCloser)

	var metrics transport.Middleware
	if !b.noMetrics {
		metrics = observability.Metrics()
	}
	mws := []transport.Middleware{
		transport.Recovery(),
		transport.RequestID(),
		transport.Logging(logger),
		metrics,
	}
	mws = append(mws, b.middlewares...)
	mws = append(mws, auth.Middleware(b.auth))

	return &Client{
		base:      base,
		profile:   profile,
		transport: transport.Wrap(next, mws...),
		idle:      idle,
		recorder:  b.recorder,
		mapper:    b.mapper,
		engine:    stream.Engine{Buffer: b.buffer, Snapshots: b.snapshots},
		metrics:   !b.noMetrics,
		logger:    logger,
		inflight:  transport.NewInFlightRegistry(),
	}, nil
}
