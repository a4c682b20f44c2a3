package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestNewStatusError(t *testing.T) {
	tests := []struct {
		status   int
		wantType ErrorType
	}{
		{http.StatusBadRequest, ErrorTypeInvalidRequest},
		{http.StatusUnauthorized, ErrorTypeAuthentication},
		{http.StatusForbidden, ErrorTypeAuthentication},
		{http.StatusNotFound, ErrorTypeNotFound},
		{http.StatusTooManyRequests, ErrorTypeTooManyRequests},
		{http.StatusInternalServerError, ErrorTypeServerError},
		{http.StatusServiceUnavailable, ErrorTypeServerError},
		{http.StatusTeapot, ErrorTypeServerError},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := NewStatusError(tt.status, "")
			if err.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", err.Type, tt.wantType)
			}
			if err.Message == "" {
				t.Error("Message is empty, want a default")
			}
			if !strings.Contains(err.Error(), fmt.Sprintf("HTTP %d", tt.status)) {
				t.Errorf("Error() = %q, want status", err.Error())
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	var err error = &ConnectionError{URL: "http://x", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("ConnectionError does not unwrap")
	}

	err = fmt.Errorf("reading stream: %w", ErrStreamTruncated)
	if !errors.Is(err, ErrStreamTruncated) {
		t.Error("ErrStreamTruncated does not match through wrapping")
	}

	decErr := &StreamDecodeError{Fragment: strings.Repeat("x", 500), Err: cause}
	if len(decErr.Error()) > 300 {
		t.Errorf("Error() not truncated: %d bytes", len(decErr.Error()))
	}
}
