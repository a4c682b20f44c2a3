// Package jwt provides an authenticator for vendors that expect short-lived
// HS256 tokens derived from an "id.secret" API key, such as Zhipu.
//
// Tokens carry the api_key, exp and timestamp claims (milliseconds) and a
// sign_type: SIGN header. A minted token is reused until shortly before it
// expires.
package jwt

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/rhuss/chatwire/pkg/auth"
	"github.com/rhuss/chatwire/pkg/debug"
	"github.com/rhuss/chatwire/pkg/schema"
)

// Config holds the JWT authenticator configuration.
type Config struct {
	// APIKey is the vendor key in "id.secret" form.
	APIKey string

	// TTL is the lifetime of minted tokens. Default: 1 hour.
	TTL time.Duration

	// RefreshBefore is how long before expiry a cached token is replaced.
	// Default: 30 seconds.
	RefreshBefore time.Duration

	// Now returns the current time. Defaults to time.Now; tests override it.
	Now func() time.Time
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.TTL == 0 {
		c.TTL = 1 * time.Hour
	}
	if c.RefreshBefore == 0 {
		c.RefreshBefore = 30 * time.Second
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Authenticator mints and caches bearer tokens.
type Authenticator struct {
	config Config
	id     string
	secret []byte

	mu      sync.Mutex
	token   string
	expires time.Time
}

var _ auth.Authenticator = (*Authenticator)(nil)

// New creates a JWT authenticator. A key without exactly one "." separating
// a non-empty id and secret fails with an invalid api_key error.
func New(cfg Config) (*Authenticator, error) {
	cfg.applyDefaults()
	id, secret, err := splitKey(cfg.APIKey)
	if err != nil {
		return nil, err
	}
	return &Authenticator{config: cfg, id: id, secret: []byte(secret)}, nil
}

func splitKey(key string) (string, string, error) {
	id, secret, ok := strings.Cut(key, ".")
	if !ok || id == "" || secret == "" || strings.Contains(secret, ".") {
		return "", "", schema.InvalidValue("api_key", `expected "id.secret"`)
	}
	return id, secret, nil
}

// Authorize sets "Authorization: Bearer <token>", minting a new token when
// none is cached or the cached one is about to expire. A key set with
// auth.ContextWithAPIKey is signed directly and not cached.
func (a *Authenticator) Authorize(ctx context.Context, h http.Header) error {
	if key := auth.APIKeyFromContext(ctx); key != "" {
		id, secret, err := splitKey(key)
		if err != nil {
			return err
		}
		token, _, err := a.mint(id, []byte(secret))
		if err != nil {
			return err
		}
		h.Set("Authorization", "Bearer "+token)
		return nil
	}

	token, err := a.cachedToken()
	if err != nil {
		return err
	}
	h.Set("Authorization", "Bearer "+token)
	return nil
}

func (a *Authenticator) cachedToken() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && a.config.Now().Before(a.expires.Add(-a.config.RefreshBefore)) {
		return a.token, nil
	}

	token, expires, err := a.mint(a.id, a.secret)
	if err != nil {
		return "", err
	}
	a.token, a.expires = token, expires
	debug.Log(debug.Auth, "minted token", "id", a.id, "expires", expires)
	return token, nil
}

func (a *Authenticator) mint(id string, secret []byte) (string, time.Time, error) {
	now := a.config.Now()
	expires := now.Add(a.config.TTL)

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"api_key":   id,
		"exp":       expires.UnixMilli(),
		"timestamp": now.UnixMilli(),
	})
	token.Header["sign_type"] = "SIGN"

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, expires, nil
}
