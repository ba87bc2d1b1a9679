package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/servicedesk/service-desk/internal/core/domain"
)

// RequirePermission is a coarse route gate: it rejects requesters whose
// loaded record holds none of perms. Services re-check against the store.
func RequirePermission(perms ...domain.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, _ := c.Get(RequesterKey).(*domain.User)
			if !domain.HasAnyPermission(user, perms...) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
			}
			return next(c)
		}
	}
}
