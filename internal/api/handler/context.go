package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/servicedesk/service-desk/internal/api/middleware"
	"github.com/servicedesk/service-desk/internal/core/domain"
	"github.com/servicedesk/service-desk/internal/core/service"
)

// ctxRequester returns the stored record loaded by middleware.LoadRequester.
// Its absence means the route was mounted without the auth chain.
func ctxRequester(c echo.Context) (*domain.User, error) {
	u, _ := c.Get(middleware.RequesterKey).(*domain.User)
	if u == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return u, nil
}

func ctxClaims(c echo.Context) (*service.TokenClaims, error) {
	claims, _ := c.Get(middleware.ClaimsKey).(*service.TokenClaims)
	if claims == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, nil
}

// bindAndValidate decodes the request body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
