package ports

import (
	"context"

	"github.com/servicedesk/service-desk/internal/core/domain"
)

// AuditRepository persists audit events.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuditEvent) error
}

// AuditRecorder accepts audit events for eventual persistence. Implementations
// must not block the caller on I/O.
type AuditRecorder interface {
	Record(event domain.AuditEvent)
}

// NopAuditRecorder discards every event.
type NopAuditRecorder struct{}

func (NopAuditRecorder) Record(domain.AuditEvent) {}
