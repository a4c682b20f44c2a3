package client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rhuss/chatwire/pkg/auth"
	"github.com/rhuss/chatwire/pkg/auth/apikey"
	"github.com/rhuss/chatwire/pkg/auth/jwt"
	"github.com/rhuss/chatwire/pkg/auth/noop"
	"github.com/rhuss/chatwire/pkg/config"
	"github.com/rhuss/chatwire/pkg/provider"
	"github.com/rhuss/chatwire/pkg/storage"
	"github.com/rhuss/chatwire/pkg/storage/memory"
	"github.com/rhuss/chatwire/pkg/storage/postgres"
)

// organizationHeader carries the OpenAI organization ID.
const organizationHeader = "OpenAI-Organization"

// FromConfig builds a client from a loaded configuration. The returned
// client owns the ledger it creates; Close releases it.
func FromConfig(ctx context.Context, cfg *config.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	profile, err := provider.Resolve(cfg.Provider)
	if err != nil {
		return nil, err
	}

	authenticator, err := newAuthenticator(cfg.Auth, profile)
	if err != nil {
		return nil, err
	}

	b := NewBuilder().
		WithProfile(profile).
		WithBaseURL(cfg.BaseURL).
		WithAuthenticator(authenticator).
		WithTimeout(cfg.Timeout).
		WithStreamBuffer(cfg.StreamBuffer).
		WithMetrics(cfg.Metrics.Enabled)
	if cfg.APIVersion != "" {
		b = b.WithVersion(cfg.APIVersion)
	}
	if len(cfg.ModelMapping) > 0 {
		b = b.WithModelMapper(provider.MapModels(cfg.ModelMapping))
	}

	store, err := newLedger(ctx, cfg.Ledger)
	if err != nil {
		return nil, err
	}
	if store != nil {
		b = b.WithRecorder(store)
	}

	c, err := b.Build()
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	c.closeRecorder = store != nil

	slog.Debug("client configured",
		"provider", profile.Name,
		"base_url", c.BaseURL(),
		"auth", authKind(cfg.Auth, profile),
		"ledger", cfg.Ledger.Type,
	)
	return c, nil
}

func authKind(cfg config.AuthConfig, profile provider.Profile) provider.AuthKind {
	if cfg.Type != "" {
		return provider.AuthKind(cfg.Type)
	}
	return profile.Auth
}

// newAuthenticator picks the credential scheme from auth.type, falling back
// to the profile's scheme.
func newAuthenticator(cfg config.AuthConfig, profile provider.Profile) (auth.Authenticator, error) {
	var a auth.Authenticator
	switch kind := authKind(cfg, profile); kind {
	case provider.AuthBearer, "":
		a = apikey.New(cfg.APIKey)
	case provider.AuthHeader:
		header := cfg.Header
		if header == "" {
			header = profile.AuthHeader
		}
		a = apikey.NewHeader(header, cfg.APIKey)
	case provider.AuthJWT:
		j, err := jwt.New(jwt.Config{APIKey: cfg.APIKey, TTL: cfg.TTL})
		if err != nil {
			return nil, err
		}
		a = j
	case provider.AuthNone:
		a = noop.Authenticator{}
	default:
		return nil, fmt.Errorf("unknown auth type %q", kind)
	}

	if cfg.Organization != "" {
		return auth.Chain{a, auth.StaticHeader(organizationHeader, cfg.Organization)}, nil
	}
	return a, nil
}

// newLedger creates the usage store selected by ledger.type. It returns nil
// for "none".
func newLedger(ctx context.Context, cfg config.LedgerConfig) (storage.UsageStore, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "memory":
		return memory.New(cfg.MaxSize), nil
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("creating postgres ledger: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown ledger type %q", cfg.Type)
	}
}
