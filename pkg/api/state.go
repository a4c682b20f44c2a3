package api

import (
	"errors"
	"fmt"
)

// StreamState is the lifecycle state of one streaming request.
type StreamState string

const (
	StateIdle      StreamState = "idle"
	StateStreaming StreamState = "streaming"
	StateCompleted StreamState = "completed"
	StateErrored   StreamState = "errored"
	StateTruncated StreamState = "truncated"
)

// Terminal reports whether no further transition is allowed from s.
func (s StreamState) Terminal() bool {
	return s == StateCompleted || s == StateErrored || s == StateTruncated
}

// ErrInvalidTransition is wrapped by ValidateStreamTransition failures.
var ErrInvalidTransition = errors.New("invalid stream state transition")

// ValidateStreamTransition checks whether a stream may move from one state to
// another. Terminal states do not allow outgoing transitions.
func ValidateStreamTransition(from, to StreamState) error {
	valid := map[StreamState][]StreamState{
		StateIdle:      {StateStreaming, StateErrored},
		StateStreaming: {StateCompleted, StateErrored, StateTruncated},
	}

	for _, s := range valid[from] {
		if s == to {
			return nil
		}
	}

	return fmt.Errorf("%w: from %s to %s", ErrInvalidTransition, from, to)
}
