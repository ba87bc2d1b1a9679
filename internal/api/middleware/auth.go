package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/servicedesk/service-desk/internal/core/domain"
	"github.com/servicedesk/service-desk/internal/core/ports"
	"github.com/servicedesk/service-desk/internal/core/service"
)

// Context keys set by the middleware in this package.
const (
	ClaimsKey    = "claims"
	RequesterKey = "requester"
)

// TokenParser validates a bearer token and returns its claims.
type TokenParser interface {
	Parse(token string) (*service.TokenClaims, error)
}

// Identifier resolves a token subject to its current stored record.
type Identifier interface {
	Identify(ctx context.Context, userID string) (*domain.User, error)
}

// Auth validates the bearer token, rejects revoked tokens, and injects the
// claims into the context under ClaimsKey.
func Auth(tokens TokenParser, revoker ports.TokenRevoker, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := tokens.Parse(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			revoked, err := revoker.IsRevoked(c.Request().Context(), claims.TokenID)
			if err != nil {
				log.Error().Err(err).Str("token_id", claims.TokenID).Msg("revocation lookup failed")
				return echo.NewHTTPError(http.StatusServiceUnavailable, "session store unavailable")
			}
			if revoked {
				return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
			}

			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

// LoadRequester replaces the token's identity with the freshly stored record,
// so deactivation and role changes take effect on the next request.
func LoadRequester(ids Identifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(ClaimsKey).(*service.TokenClaims)
			if !ok || claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			user, err := ids.Identify(c.Request().Context(), claims.UserID)
			if err != nil {
				return err
			}

			c.Set(RequesterKey, user)
			return next(c)
		}
	}
}
