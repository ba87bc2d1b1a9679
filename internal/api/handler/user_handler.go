package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/servicedesk/service-desk/internal/core/ports"
)

// UserHandler exposes user administration over HTTP.
type UserHandler struct {
	access ports.AccessService
}

func NewUserHandler(access ports.AccessService) *UserHandler {
	return &UserHandler{access: access}
}

// List handles GET /v1/users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        q     query     string  false  "Search display name, username, email or department"
// @Param        role  query     string  false  "Exact role"  Enums(admin, manager, user)
// @Success      200   {object}  userListResponse
// @Failure      403   {object}  map[string]string
// @Router       /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}
	users, err := h.access.ListUsers(c.Request().Context(), requester, ports.ListUsersFilter{
		Query: c.QueryParam("q"),
		Role:  c.QueryParam("role"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userListResponse{Users: users, Total: len(users)})
}

// Create handles POST /v1/users.
//
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "New user"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /v1/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.access.CreateUser(c.Request().Context(), requester, req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// Get handles GET /v1/users/:id.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  domain.User
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}
	user, err := h.access.GetUser(c.Request().Context(), requester, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Update handles PATCH /v1/users/:id. Permissions in the body are ignored;
// they always follow the role.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /v1/users/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.access.UpdateUser(c.Request().Context(), requester, c.Param("id"), req.toPatch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Delete handles DELETE /v1/users/:id.
//
// @Summary      Delete a user
// @Tags         users
// @Security     BearerAuth
// @Param        id   path  string  true  "User id"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}
	if err := h.access.DeleteUser(c.Request().Context(), requester, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Export handles GET /v1/users/export.
//
// @Summary      Export all users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      403  {object}  map[string]string
// @Router       /v1/users/export [get]
func (h *UserHandler) Export(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}
	users, err := h.access.ExportUsers(c.Request().Context(), requester)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="users.json"`)
	return c.JSON(http.StatusOK, users)
}

// Stats handles GET /v1/users/stats.
//
// @Summary      User statistics
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.UserStats
// @Failure      403  {object}  map[string]string
// @Router       /v1/users/stats [get]
func (h *UserHandler) Stats(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}
	stats, err := h.access.UserStats(c.Request().Context(), requester)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
