package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/servicedesk/service-desk/internal/core/domain"
)

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAuditEvents)}
}

// InsertEvent appends an event to the audit_events collection.
func (r *AuditRepository) InsertEvent(ctx context.Context, event *domain.AuditEvent) error {
	_, err := r.col.InsertOne(ctx, event)
	return err
}
