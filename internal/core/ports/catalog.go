package ports

import (
	"context"

	"github.com/servicedesk/service-desk/internal/core/domain"
)

// CatalogRepository persists departments and categories.
type CatalogRepository interface {
	CreateDepartment(ctx context.Context, d *domain.Department) error
	FindDepartment(ctx context.Context, id string) (*domain.Department, error)
	ListDepartments(ctx context.Context) ([]*domain.Department, error)
	DeleteDepartment(ctx context.Context, id string) error

	CreateCategory(ctx context.Context, c *domain.Category) error
	// ListCategories returns all categories, or those of one department when departmentID is non-empty.
	ListCategories(ctx context.Context, departmentID string) ([]*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// CategoryView is a category joined with its department name.
type CategoryView struct {
	domain.Category
	DepartmentName string `json:"department_name"`
}

// CatalogService defines use-case operations over departments and categories.
type CatalogService interface {
	ListDepartments(ctx context.Context, requester *domain.User) ([]*domain.Department, error)
	CreateDepartment(ctx context.Context, requester *domain.User, name, description string) (*domain.Department, error)
	DeleteDepartment(ctx context.Context, requester *domain.User, id string) error

	ListCategories(ctx context.Context, requester *domain.User, departmentID string) ([]CategoryView, error)
	CreateCategory(ctx context.Context, requester *domain.User, departmentID, name, description string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, requester *domain.User, id string) error
}
