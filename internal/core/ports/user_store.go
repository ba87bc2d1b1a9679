package ports

import (
	"context"

	"github.com/servicedesk/service-desk/internal/core/domain"
)

// UserStore is the durable persistence capability for user records.
//
// SaveAll must commit the full record set atomically: either every record
// in users is durable when it returns nil, or the previously committed set
// is left untouched.
type UserStore interface {
	LoadAll(ctx context.Context) ([]domain.User, error)
	SaveAll(ctx context.Context, users []domain.User) error
}
