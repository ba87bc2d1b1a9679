package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/servicedesk/service-desk/internal/core/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenClaims is the identity carried by a session token.
type TokenClaims struct {
	TokenID   string
	UserID    string
	Username  string
	Role      string
	ExpiresAt time.Time
}

// TokenService issues and verifies HS256 session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL is the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

func (s *TokenService) Issue(user *domain.User) (string, *TokenClaims, error) {
	now := s.now()
	tc := &TokenClaims{
		TokenID:   uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		Role:      string(user.Role),
		ExpiresAt: now.Add(s.ttl),
	}
	claims := jwt.MapClaims{
		"jti":      tc.TokenID,
		"sub":      tc.UserID,
		"username": tc.Username,
		"role":     tc.Role,
		"iat":      now.Unix(),
		"exp":      tc.ExpiresAt.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, tc, nil
}

func (s *TokenService) Parse(token string) (*TokenClaims, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}

	tc := &TokenClaims{}
	tc.TokenID, _ = claims["jti"].(string)
	tc.UserID, _ = claims["sub"].(string)
	tc.Username, _ = claims["username"].(string)
	tc.Role, _ = claims["role"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		tc.ExpiresAt = exp.Time
	}
	if tc.UserID == "" || tc.TokenID == "" {
		return nil, ErrInvalidToken
	}
	return tc, nil
}
