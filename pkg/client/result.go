package client

import (
	"github.com/rhuss/chatwire/pkg/api"
	"github.com/rhuss/chatwire/pkg/stream"
)

// ResultKind tells which half of a Result is set.
type ResultKind int

const (
	ResultComplete ResultKind = iota
	ResultStreaming
)

func (k ResultKind) String() string {
	switch k {
	case ResultComplete:
		return "complete"
	case ResultStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// Result is the outcome of Call: a complete response or an open stream,
// never both.
type Result struct {
	kind     ResultKind
	response *api.Response
	stream   *stream.Stream
}

// Kind reports which accessor returns a value.
func (r *Result) Kind() ResultKind { return r.kind }

// Response returns the complete response, or nil for a streaming result.
func (r *Result) Response() *api.Response { return r.response }

// Stream returns the open stream, or nil for a complete result.
func (r *Result) Stream() *stream.Stream { return r.stream }

// Wait returns the complete response. A streaming result is drained and
// merged first.
func (r *Result) Wait() (*api.Response, error) {
	if r.kind == ResultStreaming {
		return r.stream.Result()
	}
	return r.response, nil
}
