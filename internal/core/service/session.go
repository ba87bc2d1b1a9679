package service

import (
	"context"
	"errors"
	"sync"

	"github.com/servicedesk/service-desk/internal/core/domain"
)

// ErrSessionClosed is returned by a Session after Close.
var ErrSessionClosed = errors.New("session closed")

// identityProvider is the subset of ports.AccessService a Session needs.
type identityProvider interface {
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	Identify(ctx context.Context, userID string) (*domain.User, error)
	Logout(ctx context.Context, user *domain.User)
}

// Session holds the identity of at most one authenticated user.
//
// Transitions: Anonymous → Authenticated on a successful Authenticate;
// Authenticated → Anonymous on Logout, or when Revalidate finds the record
// inactive or gone. A failed Authenticate leaves the state unchanged.
type Session struct {
	provider identityProvider

	mu      sync.RWMutex
	current *domain.User
	closed  bool
}

// NewSession returns an anonymous session backed by provider.
func NewSession(provider identityProvider) *Session {
	return &Session{provider: provider}
}

func (s *Session) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	if s.isClosed() {
		return nil, ErrSessionClosed
	}
	u, err := s.provider.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = u
	s.mu.Unlock()

	out := u.Clone()
	return &out, nil
}

// Revalidate reloads the current record. An inactive or deleted account ends
// the session; storage faults are returned without changing state.
func (s *Session) Revalidate(ctx context.Context) error {
	cur := s.Current()
	if cur == nil {
		return nil
	}
	u, err := s.provider.Identify(ctx, cur.ID)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()
		return err
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = u
	s.mu.Unlock()
	return nil
}

// Current returns a copy of the authenticated user, or nil.
func (s *Session) Current() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	out := s.current.Clone()
	return &out
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

func (s *Session) HasPermission(perm domain.Permission) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.HasPermission(s.current, perm)
}

func (s *Session) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.IsAdmin(s.current)
}

// Logout clears the session identity. Calling it on an anonymous session is a no-op.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	cur := s.current
	s.current = nil
	s.mu.Unlock()

	if cur != nil {
		s.provider.Logout(ctx, cur)
	}
}

// Close logs out and makes the session unusable.
func (s *Session) Close(ctx context.Context) {
	s.Logout(ctx)
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
