package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// ErrWriterDone is returned by SSEWriter after the [DONE] sentinel was sent.
var ErrWriterDone = errors.New("sse writer: stream already finished")

// SSEWriter emits chat completion chunks as server-sent events. It is used by
// the mock backend and by tests that stand in for a vendor service.
type SSEWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController

	mu      sync.Mutex
	started bool
	done    bool
}

// NewSSEWriter wraps w. Headers are written with the first event.
func NewSSEWriter(w http.ResponseWriter) *SSEWriter {
	return &SSEWriter{w: w, rc: http.NewResponseController(w)}
}

// WriteJSON sends v as one data event:
//
//	data: {json}\n
//	\n
func (s *SSEWriter) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return s.WriteData(string(data))
}

// WriteData sends a raw data payload, unmodified.
func (s *SSEWriter) WriteData(data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write("data: " + data + "\n\n")
}

// WriteComment sends a comment line, which clients ignore. Vendors use them
// as keep-alives.
func (s *SSEWriter) WriteComment(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(": " + text + "\n\n")
}

// WriteDone sends the [DONE] sentinel. Further writes fail.
func (s *SSEWriter) WriteDone() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write("data: [DONE]\n\n"); err != nil {
		return err
	}
	s.done = true
	return nil
}

func (s *SSEWriter) write(frame string) error {
	if s.done {
		return ErrWriterDone
	}
	if !s.started {
		s.w.Header().Set("Content-Type", "text/event-stream")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.Header().Set("Connection", "keep-alive")
		s.started = true
	}
	if _, err := fmt.Fprint(s.w, frame); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}
