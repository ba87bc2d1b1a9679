package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/servicedesk/service-desk/internal/core/domain"
	"github.com/servicedesk/service-desk/internal/core/ports"
	"github.com/servicedesk/service-desk/internal/core/service"
)

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *domain.User) (string, *service.TokenClaims, error)
}

type AuthHandler struct {
	access  ports.AccessService
	tokens  TokenIssuer
	revoker ports.TokenRevoker
	log     zerolog.Logger
}

func NewAuthHandler(access ports.AccessService, tokens TokenIssuer, revoker ports.TokenRevoker, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{access: access, tokens: tokens, revoker: revoker, log: log}
}

// Login authenticates a user and returns a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.access.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	token, claims, err := h.tokens.Issue(user)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{
		Token:            token,
		ExpiresAt:        claims.ExpiresAt,
		User:             user,
		RotationRequired: user.CredentialRotationRequired,
	})
}

// Logout revokes the presented token.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}
	user, err := ctxRequester(c)
	if err != nil {
		return err
	}

	ttl := time.Until(claims.ExpiresAt)
	if err := h.revoker.Revoke(c.Request().Context(), claims.TokenID, ttl); err != nil {
		h.log.Error().Err(err).Str("token_id", claims.TokenID).Msg("token revocation failed")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "session store unavailable")
	}

	h.access.Logout(c.Request().Context(), user)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's current record.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := ctxRequester(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ChangePassword rotates the authenticated user's own password.
//
// @Summary      Change own password
// @Tags         auth
// @Accept       json
// @Security     BearerAuth
// @Param        body  body  changePasswordRequest  true  "Current and new password"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /auth/password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	user, err := ctxRequester(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.access.ChangePassword(c.Request().Context(), user, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
