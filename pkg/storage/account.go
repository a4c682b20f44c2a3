package storage

import "context"

// accountKey is a private type for the account context key.
type accountKey struct{}

// SetAccount injects an account identifier into the context. Records saved
// under this context are attributed to the account, and reads only see
// the account's own records.
func SetAccount(ctx context.Context, account string) context.Context {
	return context.WithValue(ctx, accountKey{}, account)
}

// GetAccount extracts the account identifier from the context.
// Returns an empty string if no account is set, which disables scoping.
func GetAccount(ctx context.Context) string {
	if v, ok := ctx.Value(accountKey{}).(string); ok {
		return v
	}
	return ""
}
