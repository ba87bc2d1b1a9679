package sqlite

import (
	"context"
	"database/sql"

	"github.com/servicedesk/service-desk/internal/core/domain"
)

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) InsertEvent(ctx context.Context, e *domain.AuditEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_events (actor, action, target, details, occurred_at) VALUES (?, ?, ?, ?, ?)`,
		e.Actor, string(e.Action), e.Target, e.Details, formatTime(e.OccurredAt))
	return err
}
