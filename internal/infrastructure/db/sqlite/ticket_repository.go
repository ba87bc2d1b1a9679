package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/servicedesk/service-desk/internal/core/domain"
	"github.com/servicedesk/service-desk/internal/core/ports"
)

const ticketColumns = `id, title, description, department_id, category_id, priority, status,
	created_by, assigned_to, created_at, updated_at`

type TicketRepository struct {
	db *sql.DB
}

func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(ctx context.Context, t *domain.Ticket) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO tickets (`+ticketColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Description, t.DepartmentID, t.CategoryID, string(t.Priority), string(t.Status),
		t.CreatedBy, t.AssignedTo, formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	return err
}

func (r *TicketRepository) FindByID(ctx context.Context, id string) (*domain.Ticket, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id)
	t, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return t, err
}

// List returns tickets matching every non-empty filter field, newest first.
func (r *TicketRepository) List(ctx context.Context, f ports.ListTicketsFilter) ([]*domain.Ticket, error) {
	var (
		where []string
		args  []any
	)
	add := func(column, value string) {
		if value != "" {
			where = append(where, column+" = ?")
			args = append(args, value)
		}
	}
	add("created_by", f.CreatedBy)
	add("status", f.Status)
	add("priority", f.Priority)
	add("department_id", f.DepartmentID)

	query := `SELECT ` + ticketColumns + ` FROM tickets`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*domain.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

func (r *TicketRepository) Update(ctx context.Context, t *domain.Ticket) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tickets SET title = ?, description = ?, department_id = ?,
		category_id = ?, priority = ?, status = ?, assigned_to = ?, updated_at = ? WHERE id = ?`,
		t.Title, t.Description, t.DepartmentID, t.CategoryID, string(t.Priority), string(t.Status),
		t.AssignedTo, formatTime(t.UpdatedAt), t.ID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *TicketRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tickets WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTicket(s scanner) (*domain.Ticket, error) {
	var (
		t                    domain.Ticket
		priority, status     string
		createdAt, updatedAt string
	)
	if err := s.Scan(&t.ID, &t.Title, &t.Description, &t.DepartmentID, &t.CategoryID, &priority, &status,
		&t.CreatedBy, &t.AssignedTo, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	t.Priority = domain.TicketPriority(priority)
	t.Status = domain.TicketStatus(status)

	var err error
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("ticket %s created_at: %w", t.ID, err)
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("ticket %s updated_at: %w", t.ID, err)
	}
	return &t, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
