package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/servicedesk/service-desk/internal/core/domain"
)

type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) CreateDepartment(ctx context.Context, d *domain.Department) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO departments (id, name, description, created_at) VALUES (?, ?, ?, ?)`,
		d.ID, d.Name, d.Description, formatTime(d.CreatedAt))
	return err
}

func (r *CatalogRepository) FindDepartment(ctx context.Context, id string) (*domain.Department, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, description, created_at FROM departments WHERE id = ?`, id)
	d, err := scanDepartment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return d, err
}

func (r *CatalogRepository) ListDepartments(ctx context.Context) ([]*domain.Department, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description, created_at FROM departments ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Department, 0)
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) DeleteDepartment(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *CatalogRepository) CreateCategory(ctx context.Context, c *domain.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, description, department_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, c.DepartmentID, formatTime(c.CreatedAt))
	return err
}

func (r *CatalogRepository) ListCategories(ctx context.Context, departmentID string) ([]*domain.Category, error) {
	query := `SELECT id, name, description, department_id, created_at FROM categories`
	var args []any
	if departmentID != "" {
		query += ` WHERE department_id = ?`
		args = append(args, departmentID)
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Category, 0)
	for rows.Next() {
		var (
			c         domain.Category
			createdAt string
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.DepartmentID, &createdAt); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func scanDepartment(s scanner) (*domain.Department, error) {
	var (
		d         domain.Department
		createdAt string
	)
	if err := s.Scan(&d.ID, &d.Name, &d.Description, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &d, nil
}
