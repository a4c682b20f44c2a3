package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// ErrorType represents the category of an API error.
type ErrorType string

const (
	ErrorTypeServerError     ErrorType = "server_error"
	ErrorTypeInvalidRequest  ErrorType = "invalid_request_error"
	ErrorTypeAuthentication  ErrorType = "authentication_error"
	ErrorTypeNotFound        ErrorType = "not_found_error"
	ErrorTypeTooManyRequests ErrorType = "rate_limit_error"
)

// APIError is an error reported by the service, either through its error
// envelope or through a bare non-2xx status.
type APIError struct {
	StatusCode int       `json:"-"`
	Type       ErrorType `json:"type"`
	Code       string    `json:"code,omitempty"`
	Param      string    `json:"param,omitempty"`
	Message    string    `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	if e.Param != "" {
		msg += fmt.Sprintf(" (param: %s)", e.Param)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("HTTP %d: %s", e.StatusCode, msg)
	}
	return msg
}

// UnmarshalJSON accepts vendor envelopes where code is a number or null.
func (e *APIError) UnmarshalJSON(data []byte) error {
	var w struct {
		Type    ErrorType       `json:"type"`
		Code    json.RawMessage `json:"code"`
		Param   *string         `json:"param"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.Type = w.Type
	e.Message = w.Message
	if w.Param != nil {
		e.Param = *w.Param
	}
	e.Code = rawCode(w.Code)
	return nil
}

func rawCode(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(raw)
}

// ErrorResponse is the service's error envelope.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// NewStatusError creates an APIError for a non-2xx response that carried no
// error envelope. message may be empty.
func NewStatusError(status int, message string) *APIError {
	e := &APIError{StatusCode: status, Message: message}
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e.Type = ErrorTypeInvalidRequest
		if message == "" {
			e.Message = "invalid request"
		}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Type = ErrorTypeAuthentication
		if message == "" {
			e.Message = "authentication failed"
		}
	case status == http.StatusNotFound:
		e.Type = ErrorTypeNotFound
		if message == "" {
			e.Message = "resource not found"
		}
	case status == http.StatusTooManyRequests:
		e.Type = ErrorTypeTooManyRequests
		if message == "" {
			e.Message = "rate limit exceeded"
		}
	case status >= http.StatusInternalServerError:
		e.Type = ErrorTypeServerError
		if message == "" {
			e.Message = "server error (HTTP " + strconv.Itoa(status) + ")"
		}
	default:
		e.Type = ErrorTypeServerError
		if message == "" {
			e.Message = "unexpected response (HTTP " + strconv.Itoa(status) + ")"
		}
	}
	return e
}

// MalformedResponseError means a body matched neither the success shape nor
// the error envelope.
type MalformedResponseError struct {
	Detail string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	return "malformed response: " + e.Detail
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// StreamDecodeError means a stream fragment could not be decoded. The stream
// is terminated; later fragments are never merged.
type StreamDecodeError struct {
	Fragment string
	Err      error
}

func (e *StreamDecodeError) Error() string {
	frag := e.Fragment
	if len(frag) > 120 {
		frag = frag[:120] + "..."
	}
	return fmt.Sprintf("stream decode error: %v (fragment %q)", e.Err, frag)
}

func (e *StreamDecodeError) Unwrap() error { return e.Err }

// ErrStreamTruncated is returned when the transport closes a stream before
// the [DONE] sentinel arrived.
var ErrStreamTruncated = errors.New("stream truncated: transport closed before [DONE]")

// ConnectionError wraps a network level failure (connection refused, DNS,
// reset) encountered while talking to the service.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error for %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
