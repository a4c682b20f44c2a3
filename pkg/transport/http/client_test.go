package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rhuss/chatwire/pkg/api"
	"github.com/rhuss/chatwire/pkg/stream"
	"github.com/rhuss/chatwire/pkg/transport"
)

func TestSendNonStreaming(t *testing.T) {
	var gotMethod, gotCT, gotAuth, gotAccept string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotCT = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	tr := New(5 * time.Second)
	resp, err := tr.Send(context.Background(), &transport.Request{
		URL:    srv.URL + "/v1/chat/completions",
		Header: http.Header{"Authorization": []string{"Bearer sk-test"}},
		Body:   []byte(`{"model":"m"}`),
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	defer resp.Body.Close()

	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotCT != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotCT)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotAccept == "text/event-stream" {
		t.Error("non-streaming request should not ask for an event stream")
	}
	if string(gotBody) != `{"model":"m"}` {
		t.Errorf("body = %s", gotBody)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	data, _ := io.ReadAll(resp.Body)
	if string(data) != `{"ok":true}` {
		t.Errorf("response body = %s", data)
	}
}

func TestSendReturnsErrorStatusAsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		transport.WriteAPIError(w, api.NewStatusError(http.StatusTooManyRequests, "slow down"))
	}))
	defer srv.Close()

	resp, err := New(0).Send(context.Background(), &transport.Request{URL: srv.URL, Body: []byte(`{}`)})
	if err != nil {
		t.Fatalf("Send() error = %v, want a response", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", resp.StatusCode)
	}
}

func TestSendGetWithoutBody(t *testing.T) {
	var gotMethod, gotCT string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotCT = r.Header.Get("Content-Type")
		io.WriteString(w, `{"object":"list","data":[]}`)
	}))
	defer srv.Close()

	resp, err := New(0).Send(context.Background(), &transport.Request{Method: http.MethodGet, URL: srv.URL + "/v1/models"})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if gotMethod != http.MethodGet {
		t.Errorf("method = %q, want GET", gotMethod)
	}
	if gotCT != "" {
		t.Errorf("Content-Type = %q, want none for a bodiless request", gotCT)
	}
}

func TestSendConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(time.Second).Send(context.Background(), &transport.Request{URL: url, Body: []byte(`{}`)})
	var connErr *api.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("Send() error = %v, want *api.ConnectionError", err)
	}
	if connErr.URL != url {
		t.Errorf("URL = %q, want %q", connErr.URL, url)
	}
}

func TestSendContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(0).Send(ctx, &transport.Request{URL: "http://127.0.0.1:1", Body: []byte(`{}`)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Send() error = %v, want context.Canceled", err)
	}
}

func TestSendStreamingOutlivesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("Accept = %q, want text/event-stream", r.Header.Get("Accept"))
		}
		sse := NewSSEWriter(w)
		sse.WriteJSON(map[string]any{
			"id":      "c1",
			"choices": []any{map[string]any{"index": 0, "delta": map[string]any{"content": "Hel"}}},
		})
		time.Sleep(150 * time.Millisecond)
		sse.WriteJSON(map[string]any{
			"id":      "c1",
			"choices": []any{map[string]any{"index": 0, "delta": map[string]any{"content": "lo"}, "finish_reason": "stop"}},
		})
		sse.WriteDone()
	}))
	defer srv.Close()

	// The non-streaming timeout is shorter than the stream.
	tr := New(50 * time.Millisecond)
	resp, err := tr.Send(context.Background(), &transport.Request{URL: srv.URL, Body: []byte(`{}`), Stream: true})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	s := stream.Engine{}.Start(context.Background(), stream.NewSSEReader(resp.Body), resp.Body)
	got, err := s.Result()
	if err != nil {
		t.Fatalf("Result() error = %v", err)
	}
	if got.Text() != "Hello" {
		t.Errorf("Text() = %q, want %q", got.Text(), "Hello")
	}
}

func TestSendDoesNotMutateCallerHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	h := http.Header{"X-Custom": []string{"v"}}
	resp, err := New(0).Send(context.Background(), &transport.Request{URL: srv.URL, Header: h, Body: []byte(`{}`), Stream: true})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(h) != 1 || h.Get("Accept") != "" {
		t.Errorf("caller header mutated: %v", h)
	}
}
