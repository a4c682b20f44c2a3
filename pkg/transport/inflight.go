package transport

import (
	"context"
	"sync"
)

// InFlightRegistry tracks open streams by request ID so they can be
// cancelled individually or all at once when the client shuts down.
//
// All methods are safe for concurrent access.
type InFlightRegistry struct {
	mu      sync.Mutex
	entries map[string]context.CancelFunc

	// pending holds registered streams until Remove, even after they were
	// cancelled, so Shutdown can wait for them to wind down.
	pending map[string]struct{}
	drained chan struct{}
	closed  bool
}

// NewInFlightRegistry creates a new empty registry.
func NewInFlightRegistry() *InFlightRegistry {
	return &InFlightRegistry{
		entries: make(map[string]context.CancelFunc),
		pending: make(map[string]struct{}),
	}
}

// Register adds an open stream to the registry. It returns false once
// Shutdown was called; the caller then owns cancelling the stream.
func (r *InFlightRegistry) Register(id string, cancel context.CancelFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.entries[id] = cancel
	r.pending[id] = struct{}{}
	return true
}

// Cancel cancels an open stream. Returns false if the ID was not registered
// (already finished or never existed).
func (r *InFlightRegistry) Cancel(id string) bool {
	r.mu.Lock()
	cancel, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()

	if !ok {
		return false
	}
	cancel()
	return true
}

// Remove removes a stream from the registry without cancelling it.
// Called when a stream finishes on its own.
func (r *InFlightRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
	if _, ok := r.pending[id]; !ok {
		return
	}
	delete(r.pending, id)
	if len(r.pending) == 0 && r.drained != nil {
		close(r.drained)
		r.drained = nil
	}
}

// Shutdown refuses further registrations, cancels every registered stream
// and waits until each of them was removed or ctx is done. It returns how
// many streams it cancelled.
func (r *InFlightRegistry) Shutdown(ctx context.Context) (int, error) {
	r.mu.Lock()
	r.closed = true
	entries := r.entries
	r.entries = make(map[string]context.CancelFunc)
	var drained chan struct{}
	if len(r.pending) > 0 {
		if r.drained == nil {
			r.drained = make(chan struct{})
		}
		drained = r.drained
	}
	r.mu.Unlock()

	for _, cancel := range entries {
		cancel()
	}
	if drained == nil {
		return len(entries), nil
	}
	select {
	case <-drained:
		return len(entries), nil
	case <-ctx.Done():
		return len(entries), ctx.Err()
	}
}

// Len returns the number of open streams.
func (r *InFlightRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
