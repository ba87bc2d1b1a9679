package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/servicedesk/service-desk/internal/core/domain"
	"github.com/servicedesk/service-desk/internal/core/ports"
)

// unknownDepartment labels categories whose department no longer exists.
const unknownDepartment = "Unknown"

// CatalogService manages departments and their ticket categories.
type CatalogService struct {
	repo   ports.CatalogRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewCatalogService(repo ports.CatalogRepository, logger zerolog.Logger) *CatalogService {
	return &CatalogService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *CatalogService) ListDepartments(ctx context.Context, requester *domain.User) ([]*domain.Department, error) {
	if requester == nil {
		return nil, domain.ErrUnauthorized
	}
	deps, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w: %v", domain.ErrStorage, err)
	}
	return deps, nil
}

func (s *CatalogService) CreateDepartment(ctx context.Context, requester *domain.User, name, description string) (*domain.Department, error) {
	if !domain.HasPermission(requester, domain.PermManageDepartments) {
		return nil, domain.ErrUnauthorized
	}
	return s.createDepartment(ctx, name, description)
}

func (s *CatalogService) DeleteDepartment(ctx context.Context, requester *domain.User, id string) error {
	if !domain.HasPermission(requester, domain.PermManageDepartments) {
		return domain.ErrUnauthorized
	}
	if err := s.repo.DeleteDepartment(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete department: %w: %v", domain.ErrStorage, err)
	}
	s.logger.Info().Str("department_id", id).Str("actor", requester.Username).Msg("department deleted")
	return nil
}

// ListCategories returns categories joined with their department name.
func (s *CatalogService) ListCategories(ctx context.Context, requester *domain.User, departmentID string) ([]ports.CategoryView, error) {
	if requester == nil {
		return nil, domain.ErrUnauthorized
	}
	cats, err := s.repo.ListCategories(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w: %v", domain.ErrStorage, err)
	}
	deps, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w: %v", domain.ErrStorage, err)
	}
	names := make(map[string]string, len(deps))
	for _, d := range deps {
		names[d.ID] = d.Name
	}

	out := make([]ports.CategoryView, 0, len(cats))
	for _, c := range cats {
		name, ok := names[c.DepartmentID]
		if !ok {
			name = unknownDepartment
		}
		out = append(out, ports.CategoryView{Category: *c, DepartmentName: name})
	}
	return out, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, requester *domain.User, departmentID, name, description string) (*domain.Category, error) {
	if !domain.HasPermission(requester, domain.PermManageCategories) {
		return nil, domain.ErrUnauthorized
	}
	if _, err := s.repo.FindDepartment(ctx, departmentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("create category: %w: unknown department %q", domain.ErrInvalidInput, departmentID)
		}
		return nil, fmt.Errorf("create category: %w: %v", domain.ErrStorage, err)
	}
	return s.createCategory(ctx, departmentID, name, description)
}

func (s *CatalogService) DeleteCategory(ctx context.Context, requester *domain.User, id string) error {
	if !domain.HasPermission(requester, domain.PermManageCategories) {
		return domain.ErrUnauthorized
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete category: %w: %v", domain.ErrStorage, err)
	}
	s.logger.Info().Str("category_id", id).Str("actor", requester.Username).Msg("category deleted")
	return nil
}

// SeedSampleData creates a starter catalog when no department exists yet.
func (s *CatalogService) SeedSampleData(ctx context.Context) error {
	deps, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return fmt.Errorf("seed catalog: %w: %v", domain.ErrStorage, err)
	}
	if len(deps) > 0 {
		return nil
	}

	it, err := s.createDepartment(ctx, "IT", "Information technology")
	if err != nil {
		return err
	}
	hr, err := s.createDepartment(ctx, "HR", "Human resources")
	if err != nil {
		return err
	}
	samples := []struct{ dep, name, desc string }{
		{it.ID, "Computer problems", "Desktop and laptop faults"},
		{it.ID, "Network problems", "Internet and local network issues"},
		{hr.ID, "Vacations", "Vacation requests"},
	}
	for _, c := range samples {
		if _, err := s.createCategory(ctx, c.dep, c.name, c.desc); err != nil {
			return err
		}
	}
	s.logger.Info().Int("departments", 2).Int("categories", len(samples)).Msg("sample catalog seeded")
	return nil
}

func (s *CatalogService) createDepartment(ctx context.Context, name, description string) (*domain.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("create department: %w: name is required", domain.ErrInvalidInput)
	}
	d := &domain.Department{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   s.now(),
	}
	if err := s.repo.CreateDepartment(ctx, d); err != nil {
		return nil, fmt.Errorf("create department: %w: %v", domain.ErrStorage, err)
	}
	s.logger.Info().Str("department_id", d.ID).Str("name", d.Name).Msg("department created")
	return d, nil
}

func (s *CatalogService) createCategory(ctx context.Context, departmentID, name, description string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("create category: %w: name is required", domain.ErrInvalidInput)
	}
	c := &domain.Category{
		ID:           uuid.NewString(),
		Name:         name,
		Description:  strings.TrimSpace(description),
		DepartmentID: departmentID,
		CreatedAt:    s.now(),
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w: %v", domain.ErrStorage, err)
	}
	s.logger.Info().Str("category_id", c.ID).Str("name", c.Name).Msg("category created")
	return c, nil
}
