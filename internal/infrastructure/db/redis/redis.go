// Package redis backs the token revocation list with Redis so that logouts
// are honoured by every API replica.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultDialTimeout = 5 * time.Second
	// Revocation checks sit on every authenticated request.
	defaultOpTimeout = 500 * time.Millisecond
)

type Config struct {
	Addr     string
	Password string
	DB       int

	DialTimeout time.Duration
	OpTimeout   time.Duration
}

// Connect opens a client and pings it. The service does not start when the
// configured revocation store is unreachable.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	dial := cfg.DialTimeout
	if dial <= 0 {
		dial = defaultDialTimeout
	}
	op := cfg.OpTimeout
	if op <= 0 {
		op = defaultOpTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dial,
		ReadTimeout:  op,
		WriteTimeout: op,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dial)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("revocation store %s: %w", cfg.Addr, err)
	}
	return client, nil
}
