package ports

import (
	"context"
	"time"
)

// TokenRevoker tracks session tokens invalidated by logout.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
