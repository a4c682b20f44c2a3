package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
)

// okTransport answers every request with an empty 200 response.
var okTransport = TransportFunc(func(ctx context.Context, req *Request) (*Response, error) {
	return &Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: io.NopCloser(strings.NewReader(""))}, nil
})

func TestChainAppliesMiddlewareInOrder(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next Transport) Transport {
			return TransportFunc(func(ctx context.Context, req *Request) (*Response, error) {
				order = append(order, name+":before")
				resp, err := next.Send(ctx, req)
				order = append(order, name+":after")
				return resp, err
			})
		}
	}

	base := TransportFunc(func(ctx context.Context, req *Request) (*Response, error) {
		order = append(order, "transport")
		return okTransport.Send(ctx, req)
	})

	wrapped := Chain(mw("first"), mw("second"), mw("third"))(base)
	if _, err := wrapped.Send(context.Background(), &Request{}); err != nil {
		t.Fatal(err)
	}

	expected := []string{
		"first:before", "second:before", "third:before",
		"transport",
		"third:after", "second:after", "first:after",
	}

	if len(order) != len(expected) {
		t.Fatalf("execution order length = %d, want %d: %v", len(order), len(expected), order)
	}
	for i, got := range order {
		if got != expected[i] {
			t.Errorf("order[%d] = %q, want %q", i, got, expected[i])
		}
	}
}

func TestRecoveryCatchesPanic(t *testing.T) {
	base := TransportFunc(func(ctx context.Context, req *Request) (*Response, error) {
		panic("test panic")
	})

	resp, err := Recovery()(base).Send(context.Background(), &Request{})
	if err == nil {
		t.Fatal("expected error after panic, got nil")
	}
	if resp != nil {
		t.Errorf("response = %+v, want nil", resp)
	}
	if !strings.Contains(err.Error(), "test panic") {
		t.Errorf("error = %q, should contain %q", err.Error(), "test panic")
	}
}

func TestRecoveryPassesThroughNormalExecution(t *testing.T) {
	resp, err := Recovery()(okTransport).Send(context.Background(), &Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestRequestIDGeneratesNewID(t *testing.T) {
	var capturedID, header string

	base := TransportFunc(func(ctx context.Context, req *Request) (*Response, error) {
		capturedID = RequestIDFromContext(ctx)
		header = req.Header.Get(HeaderRequestID)
		return okTransport.Send(ctx, req)
	})

	RequestID()(base).Send(context.Background(), &Request{})

	if !strings.HasPrefix(capturedID, "req_") {
		t.Errorf("request ID = %q, want req_ prefix", capturedID)
	}
	if header != capturedID {
		t.Errorf("X-Request-ID = %q, want %q", header, capturedID)
	}
}

func TestRequestIDPropagatesExisting(t *testing.T) {
	tests := []struct {
		name   string
		ctx    context.Context
		header http.Header
	}{
		{"from context", ContextWithRequestID(context.Background(), "existing-id-123"), nil},
		{"from header", context.Background(), http.Header{HeaderRequestID: []string{"existing-id-123"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var capturedID, header string
			base := TransportFunc(func(ctx context.Context, req *Request) (*Response, error) {
				capturedID = RequestIDFromContext(ctx)
				header = req.Header.Get(HeaderRequestID)
				return okTransport.Send(ctx, req)
			})

			RequestID()(base).Send(tt.ctx, &Request{Header: tt.header})

			if capturedID != "existing-id-123" {
				t.Errorf("request ID = %q, want %q", capturedID, "existing-id-123")
			}
			if header != "existing-id-123" {
				t.Errorf("X-Request-ID = %q, want %q", header, "existing-id-123")
			}
		})
	}
}

func TestRequestIDUniqueness(t *testing.T) {
	ids := make(map[string]bool)
	base := TransportFunc(func(ctx context.Context, req *Request) (*Response, error) {
		ids[RequestIDFromContext(ctx)] = true
		return okTransport.Send(ctx, req)
	})

	wrapped := RequestID()(base)
	for i := 0; i < 100; i++ {
		wrapped.Send(context.Background(), &Request{})
	}

	if len(ids) != 100 {
		t.Errorf("expected 100 unique IDs, got %d", len(ids))
	}
}

func TestLoggingEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx := ContextWithRequestID(context.Background(), "req-log-test")
	Logging(logger)(okTransport).Send(ctx, &Request{Provider: "vllm", Model: "test-model", Stream: true})

	output := buf.String()
	for _, expected := range []string{"request_id=req-log-test", "provider=vllm", "model=test-model", "stream=true", "status=200", "request completed"} {
		if !strings.Contains(output, expected) {
			t.Errorf("log output missing %q in:\n%s", expected, output)
		}
	}
}

func TestLoggingEmitsErrorOnFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	base := TransportFunc(func(ctx context.Context, req *Request) (*Response, error) {
		return nil, errors.New("test failure")
	})

	Logging(logger)(base).Send(context.Background(), &Request{Model: "test"})

	output := buf.String()
	if !strings.Contains(output, "request failed") {
		t.Errorf("log output missing 'request failed' in:\n%s", output)
	}
	if !strings.Contains(output, "test failure") {
		t.Errorf("log output missing error message in:\n%s", output)
	}
}

func TestLoggingWarnsOnErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	base := TransportFunc(func(ctx context.Context, req *Request) (*Response, error) {
		return &Response{StatusCode: http.StatusTooManyRequests}, nil
	})

	Logging(logger)(base).Send(context.Background(), &Request{Model: "test"})

	output := buf.String()
	if !strings.Contains(output, "level=WARN") || !strings.Contains(output, "status=429") {
		t.Errorf("log output should warn with status 429:\n%s", output)
	}
}

func TestChainSkipsNilMiddleware(t *testing.T) {
	var calls int
	count := func(next Transport) Transport {
		return TransportFunc(func(ctx context.Context, req *Request) (*Response, error) {
			calls++
			return next.Send(ctx, req)
		})
	}

	wrapped := Wrap(okTransport, nil, count, nil)
	if _, err := wrapped.Send(context.Background(), &Request{}); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("middleware calls = %d, want 1", calls)
	}
}
