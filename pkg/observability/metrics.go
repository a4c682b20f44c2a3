// Package observability provides Prometheus metrics for chatwire clients
// and the transport middleware that records them.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts requests sent to vendors by status class.
	// Transport failures are counted with status "error".
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatwire_requests_total",
			Help: "Total requests",
		},
		[]string{"provider", "model", "status"},
	)

	// RequestDuration records the time until response headers arrived.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatwire_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "model"},
	)

	// StreamsActive tracks the number of open streams.
	StreamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatwire_streams_active",
			Help: "Active streams",
		},
	)

	// StreamChunksTotal counts chunks merged across all streams.
	StreamChunksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatwire_stream_chunks_total",
			Help: "Stream chunks",
		},
		[]string{"provider", "model"},
	)

	// StreamOutcomesTotal counts finished streams by terminal state.
	StreamOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatwire_stream_outcomes_total",
			Help: "Stream outcomes",
		},
		[]string{"provider", "model", "state"},
	)

	// TokensTotal counts tokens by direction (input/output).
	TokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatwire_tokens_total",
			Help: "Token count",
		},
		[]string{"provider", "model", "direction"},
	)

	// ToolExecutionsTotal counts MCP tool executions by name and outcome.
	ToolExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatwire_tool_executions_total",
			Help: "Tool executions",
		},
		[]string{"tool_name", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamsActive,
		StreamChunksTotal,
		StreamOutcomesTotal,
		TokensTotal,
		ToolExecutionsTotal,
	)
}
