package storage

import (
	"context"
	"testing"
)

func TestSetGetAccount(t *testing.T) {
	ctx := context.Background()

	if got := GetAccount(ctx); got != "" {
		t.Errorf("GetAccount(empty ctx) = %q, want %q", got, "")
	}

	ctx = SetAccount(ctx, "team-a")
	if got := GetAccount(ctx); got != "team-a" {
		t.Errorf("GetAccount = %q, want %q", got, "team-a")
	}

	ctx = SetAccount(ctx, "team-b")
	if got := GetAccount(ctx); got != "team-b" {
		t.Errorf("GetAccount = %q, want %q", got, "team-b")
	}
}

func TestGetAccount_NoCollision(t *testing.T) {
	type otherKey string
	ctx := context.WithValue(context.Background(), otherKey("account"), "wrong")
	if got := GetAccount(ctx); got != "" {
		t.Errorf("GetAccount should not match a foreign key, got %q", got)
	}
}
