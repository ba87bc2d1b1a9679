package memory

import (
	"context"
	"sync"
	"time"
)

// RevocationList is the in-process TokenRevoker used when no Redis address is configured.
type RevocationList struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewRevocationList() *RevocationList {
	return &RevocationList{revoked: make(map[string]time.Time), now: time.Now}
}

func (r *RevocationList) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for id, exp := range r.revoked {
		if !exp.After(now) {
			delete(r.revoked, id)
		}
	}
	r.revoked[tokenID] = now.Add(ttl)
	return nil
}

func (r *RevocationList) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.revoked[tokenID]
	return ok && exp.After(r.now()), nil
}
