package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRevocationList_Key(t *testing.T) {
	r := NewRevocationList(nil)
	if got := r.key("abc"); got != "revoked:abc" {
		t.Fatalf("key = %q", got)
	}
}

func TestRevocationList_ExpiredTokenSkipsRedis(t *testing.T) {
	// Unreachable address: any round trip would fail.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond})
	defer client.Close()
	r := NewRevocationList(client)

	if err := r.Revoke(context.Background(), "abc", 0); err != nil {
		t.Fatalf("expired token revoke: %v", err)
	}
	if err := r.Revoke(context.Background(), "abc", -time.Second); err != nil {
		t.Fatalf("negative ttl revoke: %v", err)
	}
}

func TestRevocationList_UnreachableStoreReportsError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	r := NewRevocationList(client)

	if _, err := r.IsRevoked(context.Background(), "abc"); err == nil {
		t.Fatal("expected error from unreachable store")
	}
}
