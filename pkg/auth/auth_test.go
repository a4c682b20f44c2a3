package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/rhuss/chatwire/pkg/transport"
)

func TestChainAppliesInOrder(t *testing.T) {
	var order []string
	step := func(name string) Authenticator {
		return AuthenticatorFunc(func(_ context.Context, h http.Header) error {
			order = append(order, name)
			h.Add("X-Steps", name)
			return nil
		})
	}

	h := http.Header{}
	if err := (Chain{step("a"), step("b")}).Authorize(context.Background(), h); err != nil {
		t.Fatal(err)
	}
	if got := h.Values("X-Steps"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("X-Steps = %v, want [a b]", got)
	}
}

func TestChainStopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	called := false
	chain := Chain{
		AuthenticatorFunc(func(context.Context, http.Header) error { return boom }),
		AuthenticatorFunc(func(context.Context, http.Header) error { called = true; return nil }),
	}

	if err := chain.Authorize(context.Background(), http.Header{}); !errors.Is(err, boom) {
		t.Errorf("Authorize() error = %v, want %v", err, boom)
	}
	if called {
		t.Error("authenticator after a failure should not run")
	}
}

func TestStaticHeader(t *testing.T) {
	h := http.Header{}
	StaticHeader("OpenAI-Organization", "org-1").Authorize(context.Background(), h)
	if got := h.Get("OpenAI-Organization"); got != "org-1" {
		t.Errorf("OpenAI-Organization = %q, want org-1", got)
	}
}

func TestContextAPIKey(t *testing.T) {
	if got := APIKeyFromContext(context.Background()); got != "" {
		t.Errorf("APIKeyFromContext(empty) = %q", got)
	}
	ctx := ContextWithAPIKey(context.Background(), "sk-1")
	if got := APIKeyFromContext(ctx); got != "sk-1" {
		t.Errorf("APIKeyFromContext() = %q, want sk-1", got)
	}
}

func TestMiddlewareSetsHeaderBeforeSend(t *testing.T) {
	var seen string
	base := transport.TransportFunc(func(_ context.Context, req *transport.Request) (*transport.Response, error) {
		seen = req.Header.Get("Authorization")
		return &transport.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(""))}, nil
	})
	authn := AuthenticatorFunc(func(_ context.Context, h http.Header) error {
		h.Set("Authorization", "Bearer sk-mw")
		return nil
	})

	if _, err := Middleware(authn)(base).Send(context.Background(), &transport.Request{}); err != nil {
		t.Fatal(err)
	}
	if seen != "Bearer sk-mw" {
		t.Errorf("Authorization = %q, want %q", seen, "Bearer sk-mw")
	}
}

func TestMiddlewareAbortsOnFailure(t *testing.T) {
	sent := false
	base := transport.TransportFunc(func(context.Context, *transport.Request) (*transport.Response, error) {
		sent = true
		return nil, nil
	})
	authn := AuthenticatorFunc(func(context.Context, http.Header) error { return ErrNoCredentials })

	_, err := Middleware(authn)(base).Send(context.Background(), &transport.Request{})
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("Send() error = %v, want ErrNoCredentials", err)
	}
	if sent {
		t.Error("request should not be sent when authorization fails")
	}
}
