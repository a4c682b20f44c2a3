package apikey

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rhuss/chatwire/pkg/auth"
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name       string
		authn      *Authenticator
		ctx        context.Context
		wantHeader string
		wantValue  string
	}{
		{
			name:       "bearer",
			authn:      New("sk-test-key-1"),
			ctx:        context.Background(),
			wantHeader: "Authorization",
			wantValue:  "Bearer sk-test-key-1",
		},
		{
			name:       "custom header",
			authn:      NewHeader("api-key", "azure-key"),
			ctx:        context.Background(),
			wantHeader: "api-key",
			wantValue:  "azure-key",
		},
		{
			name:       "context override",
			authn:      New("sk-test-key-1"),
			ctx:        auth.ContextWithAPIKey(context.Background(), "sk-per-call"),
			wantHeader: "Authorization",
			wantValue:  "Bearer sk-per-call",
		},
		{
			name:       "context key without configured key",
			authn:      New(""),
			ctx:        auth.ContextWithAPIKey(context.Background(), "sk-per-call"),
			wantHeader: "Authorization",
			wantValue:  "Bearer sk-per-call",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if err := tt.authn.Authorize(tt.ctx, h); err != nil {
				t.Fatalf("Authorize() error = %v", err)
			}
			if got := h.Get(tt.wantHeader); got != tt.wantValue {
				t.Errorf("%s = %q, want %q", tt.wantHeader, got, tt.wantValue)
			}
		})
	}
}

func TestAuthorizeOverwritesExistingHeader(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer stale")

	if err := New("sk-fresh").Authorize(context.Background(), h); err != nil {
		t.Fatal(err)
	}
	if got := h.Values("Authorization"); len(got) != 1 || got[0] != "Bearer sk-fresh" {
		t.Errorf("Authorization = %v, want [Bearer sk-fresh]", got)
	}
}

func TestAuthorizeWithoutKey(t *testing.T) {
	err := New("").Authorize(context.Background(), http.Header{})
	if !errors.Is(err, auth.ErrNoCredentials) {
		t.Errorf("Authorize() error = %v, want ErrNoCredentials", err)
	}
}
