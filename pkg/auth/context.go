package auth

import "context"

// apiKeyKey is a private type for the API key context key.
type apiKeyKey struct{}

// ContextWithAPIKey overrides the configured key for calls made with ctx.
// Key-based authenticators prefer it over their own key.
func ContextWithAPIKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, apiKeyKey{}, key)
}

// APIKeyFromContext returns the key override, or an empty string.
func APIKeyFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(apiKeyKey{}).(string); ok {
		return v
	}
	return ""
}
