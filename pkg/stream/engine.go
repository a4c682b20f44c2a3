package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rhuss/chatwire/pkg/api"
	"github.com/rhuss/chatwire/pkg/debug"
)

// DefaultBuffer is the delivery channel capacity used when Engine.Buffer is
// not positive.
const DefaultBuffer = 16

// Sentinel is the fragment that ends a stream successfully.
const Sentinel = "[DONE]"

// ErrStreamClosed is the terminal error of a stream closed by its consumer.
var ErrStreamClosed = errors.New("stream closed by consumer")

// Event is one item delivered to the consumer. Exactly one of Chunk and Err
// is set. Snapshot is set alongside Chunk when the engine takes snapshots.
type Event struct {
	Chunk    *api.StreamChunk
	Snapshot *api.Response
	Err      error
}

// Outcome describes how a stream ended. Response holds the merged state at
// the time of termination, which is partial unless State is Completed.
type Outcome struct {
	State    api.StreamState
	Response *api.Response
	Err      error
	Chunks   int
	Duration time.Duration
}

// Engine configures streaming merges. The zero value is ready to use.
type Engine struct {
	// Buffer is the capacity of the delivery channel.
	Buffer int

	// Snapshots attaches a read-only copy of the merged state to every
	// delivered chunk.
	Snapshots bool

	// OnFinish is called once by the producer after the terminal transition,
	// after the transport was released.
	OnFinish func(Outcome)
}

// Stream is the consumer handle of one streaming request.
type Stream struct {
	events   chan Event
	done     chan struct{}
	finished chan struct{}

	closeOnce sync.Once
	bodyOnce  sync.Once
	body      io.Closer

	mu     sync.Mutex
	state  api.StreamState
	result *api.Response
	err    error
}

// Start begins reading frags in a new goroutine and returns the consumer
// handle. body is closed on every terminal transition. Cancelling ctx
// terminates the stream with ctx.Err().
func (e Engine) Start(ctx context.Context, frags Fragments, body io.Closer) *Stream {
	buf := e.Buffer
	if buf <= 0 {
		buf = DefaultBuffer
	}
	s := &Stream{
		events:   make(chan Event, buf),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		body:     body,
		state:    api.StateIdle,
	}
	s.transition(api.StateStreaming)
	go s.run(ctx, e, frags)
	return s
}

func (s *Stream) run(ctx context.Context, e Engine, frags Fragments) {
	defer close(s.finished)
	defer close(s.events)

	acc := NewAccumulator()
	start := time.Now()

	finish := func(state api.StreamState, err error) {
		s.closeBody()

		var result *api.Response
		if state == api.StateCompleted {
			result = acc.Finalize()
		}
		s.mu.Lock()
		s.result, s.err = result, err
		s.mu.Unlock()
		s.transition(state)

		debug.Log(debug.Streaming, "stream finished",
			"state", state, "chunks", acc.Chunks(), "error", err)

		if e.OnFinish != nil {
			partial := result
			if partial == nil {
				partial = acc.Snapshot()
			}
			e.OnFinish(Outcome{
				State:    state,
				Response: partial,
				Err:      err,
				Chunks:   acc.Chunks(),
				Duration: time.Since(start),
			})
		}

		if err != nil && !errors.Is(err, ErrStreamClosed) {
			_ = s.send(ctx, Event{Err: err})
		}
	}

	for {
		// Cooperative cancellation: check before every blocking read.
		if err := s.stopped(ctx); err != nil {
			finish(api.StateErrored, err)
			return
		}

		frag, err := frags.Next()
		if err != nil {
			if stopErr := s.stopped(ctx); stopErr != nil {
				finish(api.StateErrored, stopErr)
			} else if errors.Is(err, io.EOF) {
				finish(api.StateTruncated, api.ErrStreamTruncated)
			} else {
				finish(api.StateErrored, fmt.Errorf("reading stream: %w", err))
			}
			return
		}

		frag = strings.TrimSpace(frag)
		if frag == "" {
			continue
		}
		if frag == Sentinel {
			finish(api.StateCompleted, nil)
			return
		}

		debug.Trace(debug.Streaming, "stream fragment", "data", debug.Truncate(frag, 512))

		chunk, err := api.DecodeChunk([]byte(frag))
		if err != nil {
			finish(api.StateErrored, err)
			return
		}
		acc.Merge(chunk)

		ev := Event{Chunk: chunk}
		if e.Snapshots {
			ev.Snapshot = acc.Snapshot()
		}
		if err := s.send(ctx, ev); err != nil {
			finish(api.StateErrored, err)
			return
		}
	}
}

// stopped returns the reason the producer must stop, if any.
func (s *Stream) stopped(ctx context.Context) error {
	select {
	case <-s.done:
		return ErrStreamClosed
	default:
	}
	return ctx.Err()
}

func (s *Stream) send(ctx context.Context, ev Event) error {
	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return ErrStreamClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Stream) closeBody() {
	s.bodyOnce.Do(func() {
		if s.body == nil {
			return
		}
		if err := s.body.Close(); err != nil {
			debug.Log(debug.Streaming, "closing stream body", "error", err)
		}
	})
}

func (s *Stream) transition(to api.StreamState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := api.ValidateStreamTransition(s.state, to); err != nil {
		slog.Warn("ignoring stream state change", "error", err)
		return
	}
	s.state = to
}

// Events returns the delivery channel. It is closed after the terminal event;
// a failed stream delivers one final Event carrying the error.
func (s *Stream) Events() <-chan Event {
	return s.events
}

// Recv returns the next chunk. It returns io.EOF after a completed stream,
// and after yielding the terminal error of a failed stream once.
func (s *Stream) Recv() (*api.StreamChunk, error) {
	ev, ok := <-s.events
	if !ok {
		return nil, io.EOF
	}
	if ev.Err != nil {
		return nil, ev.Err
	}
	return ev.Chunk, nil
}

// Close stops the producer, releases the transport and waits for the
// producer to exit. It is safe to call more than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		// Unblocks a producer waiting on the transport.
		s.closeBody()
	})
	<-s.finished
	return nil
}

// Result consumes the rest of the stream and returns the merged response.
// It returns the terminal error instead when the stream did not complete.
func (s *Stream) Result() (*api.Response, error) {
	for range s.events {
	}
	<-s.finished

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.err
}

// Done is closed once the producer has exited, after the terminal event
// was delivered or the consumer closed the stream.
func (s *Stream) Done() <-chan struct{} {
	return s.finished
}

// State returns the current state.
func (s *Stream) State() api.StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
