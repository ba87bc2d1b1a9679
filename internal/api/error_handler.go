package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/servicedesk/service-desk/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// errorMapping binds a domain error to its HTTP rendering. An empty message
// means the wrapped error text is safe to show.
type errorMapping struct {
	target  error
	status  int
	message string
}

// domainErrors is matched in order with errors.Is.
var domainErrors = []errorMapping{
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
	{domain.ErrUnauthorized, http.StatusForbidden, "insufficient permissions"},
	{domain.ErrDuplicateUsername, http.StatusConflict, "username already exists"},
	{domain.ErrNotFound, http.StatusNotFound, "not found"},
	{domain.ErrProtectedAccount, http.StatusForbidden, "the administrator account cannot be changed this way"},
	{domain.ErrSelfDeletion, http.StatusForbidden, domain.ErrSelfDeletion.Error()},
	{domain.ErrInvalidTransition, http.StatusUnprocessableEntity, ""},
	{domain.ErrInvalidInput, http.StatusBadRequest, ""},
}

// NewHTTPErrorHandler renders every error as {"error": "<message>"}.
// Storage faults and unmapped errors are logged and reported as a bare 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, msg := resolveError(err)
		if code == http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("request failed")
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}
	// Storage errors may wrap other kinds and carry driver detail.
	if errors.Is(err, domain.ErrStorage) {
		return http.StatusInternalServerError, "internal server error"
	}
	for _, m := range domainErrors {
		if errors.Is(err, m.target) {
			if m.message == "" {
				return m.status, err.Error()
			}
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, "internal server error"
}
