package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/servicedesk/service-desk/internal/core/ports"
)

type createDepartmentRequest struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description"`
}

type createCategoryRequest struct {
	Name         string `json:"name"          validate:"required,max=100"`
	Description  string `json:"description"`
	DepartmentID string `json:"department_id" validate:"required"`
}

// CatalogHandler serves departments and categories.
type CatalogHandler struct {
	service ports.CatalogService
}

func NewCatalogHandler(service ports.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ListDepartments handles GET /v1/departments.
//
// @Summary      List departments
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Department
// @Router       /v1/departments [get]
func (h *CatalogHandler) ListDepartments(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}
	deps, err := h.service.ListDepartments(c.Request().Context(), requester)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deps)
}

// CreateDepartment handles POST /v1/departments.
//
// @Summary      Create a department
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createDepartmentRequest  true  "Department"
// @Success      201   {object}  domain.Department
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /v1/departments [post]
func (h *CatalogHandler) CreateDepartment(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}
	var req createDepartmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	dep, err := h.service.CreateDepartment(c.Request().Context(), requester, req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dep)
}

// DeleteDepartment handles DELETE /v1/departments/:id.
//
// @Summary      Delete a department
// @Tags         catalog
// @Security     BearerAuth
// @Param        id   path  string  true  "Department id"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/departments/{id} [delete]
func (h *CatalogHandler) DeleteDepartment(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteDepartment(c.Request().Context(), requester, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListCategories handles GET /v1/categories.
//
// @Summary      List categories
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        department_id  query  string  false  "Only categories of this department"
// @Success      200            {array}  ports.CategoryView
// @Router       /v1/categories [get]
func (h *CatalogHandler) ListCategories(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}
	cats, err := h.service.ListCategories(c.Request().Context(), requester, c.QueryParam("department_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cats)
}

// CreateCategory handles POST /v1/categories.
//
// @Summary      Create a category
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createCategoryRequest  true  "Category"
// @Success      201   {object}  domain.Category
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /v1/categories [post]
func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}
	var req createCategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	cat, err := h.service.CreateCategory(c.Request().Context(), requester, req.DepartmentID, req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cat)
}

// DeleteCategory handles DELETE /v1/categories/:id.
//
// @Summary      Delete a category
// @Tags         catalog
// @Security     BearerAuth
// @Param        id   path  string  true  "Category id"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/categories/{id} [delete]
func (h *CatalogHandler) DeleteCategory(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteCategory(c.Request().Context(), requester, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
