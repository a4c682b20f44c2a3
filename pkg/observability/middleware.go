package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/rhuss/chatwire/pkg/api"
	"github.com/rhuss/chatwire/pkg/stream"
	"github.com/rhuss/chatwire/pkg/transport"
)

// Metrics returns transport middleware that records request metrics.
//
// It captures:
//   - chatwire_requests_total (counter): per request with provider, model and status class labels
//   - chatwire_request_duration_seconds (histogram): time to response headers
func Metrics() transport.Middleware {
	return func(next transport.Transport) transport.Transport {
		return transport.TransportFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			start := time.Now()
			resp, err := next.Send(ctx, req)

			status := "error"
			if err == nil {
				status = statusClass(resp.StatusCode)
			}
			model := labelOrUnknown(req.Model)
			RequestsTotal.WithLabelValues(req.Provider, model, status).Inc()
			RequestDuration.WithLabelValues(req.Provider, model).Observe(time.Since(start).Seconds())
			return resp, err
		})
	}
}

// statusClass builds a status class label like "2xx", "4xx", "5xx".
func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}

func labelOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// StreamStarted marks a stream as open. Pair it with RecordStreamOutcome.
func StreamStarted() {
	StreamsActive.Inc()
}

// RecordStreamOutcome closes the stream opened by StreamStarted and records
// its chunk count, terminal state and any usage it reported.
func RecordStreamOutcome(provider, model string, o stream.Outcome) {
	StreamsActive.Dec()
	model = labelOrUnknown(model)
	StreamChunksTotal.WithLabelValues(provider, model).Add(float64(o.Chunks))
	StreamOutcomesTotal.WithLabelValues(provider, model, string(o.State)).Inc()
	if o.Response != nil {
		RecordUsage(provider, model, o.Response.Usage)
	}
}

// RecordUsage adds the token counts of one exchange. A nil usage is ignored.
func RecordUsage(provider, model string, usage *api.Usage) {
	if usage == nil {
		return
	}
	model = labelOrUnknown(model)
	TokensTotal.WithLabelValues(provider, model, "input").Add(float64(usage.PromptTokens))
	TokensTotal.WithLabelValues(provider, model, "output").Add(float64(usage.CompletionTokens))
}
