// Package memory provides process-local implementations of the storage
// ports. Data does not survive a restart; it backs STORAGE_BACKEND=memory and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/servicedesk/service-desk/internal/core/domain"
	"github.com/servicedesk/service-desk/internal/core/ports"
)

// UserStore keeps the committed record set behind a mutex. SaveAll swaps in
// a private copy, so a caller can never observe a partial commit.
type UserStore struct {
	mu    sync.RWMutex
	users []domain.User
}

func NewUserStore(seed ...domain.User) *UserStore {
	return &UserStore{users: domain.CloneUsers(seed)}
}

func (s *UserStore) LoadAll(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneUsers(s.users), nil
}

func (s *UserStore) SaveAll(ctx context.Context, users []domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next := domain.CloneUsers(users)
	s.mu.Lock()
	s.users = next
	s.mu.Unlock()
	return nil
}

// TicketRepository implements ports.TicketRepository in memory.
type TicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]domain.Ticket
}

func NewTicketRepository() *TicketRepository {
	return &TicketRepository{tickets: make(map[string]domain.Ticket)}
}

func (r *TicketRepository) Create(_ context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[t.ID] = *t
	return nil
}

func (r *TicketRepository) FindByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

// List applies the same filters the persistent repositories use, newest first.
func (r *TicketRepository) List(_ context.Context, f ports.ListTicketsFilter) ([]*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Ticket, 0, len(r.tickets))
	for _, t := range r.tickets {
		if f.CreatedBy != "" && t.CreatedBy != f.CreatedBy {
			continue
		}
		if f.Status != "" && string(t.Status) != f.Status {
			continue
		}
		if f.Priority != "" && string(t.Priority) != f.Priority {
			continue
		}
		if f.DepartmentID != "" && t.DepartmentID != f.DepartmentID {
			continue
		}
		clone := t
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *TicketRepository) Update(_ context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[t.ID]; !ok {
		return domain.ErrNotFound
	}
	r.tickets[t.ID] = *t
	return nil
}

func (r *TicketRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.tickets, id)
	return nil
}

// CatalogRepository implements ports.CatalogRepository in memory.
type CatalogRepository struct {
	mu          sync.RWMutex
	departments []domain.Department
	categories  []domain.Category
}

func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{}
}

func (r *CatalogRepository) CreateDepartment(_ context.Context, d *domain.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.departments = append(r.departments, *d)
	return nil
}

func (r *CatalogRepository) FindDepartment(_ context.Context, id string) (*domain.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.departments {
		if d.ID == id {
			clone := d
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *CatalogRepository) ListDepartments(_ context.Context) ([]*domain.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Department, 0, len(r.departments))
	for _, d := range r.departments {
		clone := d
		out = append(out, &clone)
	}
	return out, nil
}

func (r *CatalogRepository) DeleteDepartment(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, d := range r.departments {
		if d.ID == id {
			r.departments = append(r.departments[:i], r.departments[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *CatalogRepository) CreateCategory(_ context.Context, c *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories = append(r.categories, *c)
	return nil
}

func (r *CatalogRepository) ListCategories(_ context.Context, departmentID string) ([]*domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Category, 0, len(r.categories))
	for _, c := range r.categories {
		if departmentID != "" && c.DepartmentID != departmentID {
			continue
		}
		clone := c
		out = append(out, &clone)
	}
	return out, nil
}

func (r *CatalogRepository) DeleteCategory(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.categories {
		if c.ID == id {
			r.categories = append(r.categories[:i], r.categories[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// AuditRepository keeps audit events in insertion order.
type AuditRepository struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) InsertEvent(_ context.Context, e *domain.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *AuditRepository) Events() []domain.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuditEvent(nil), r.events...)
}
