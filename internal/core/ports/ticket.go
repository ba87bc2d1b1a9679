package ports

import (
	"context"

	"github.com/servicedesk/service-desk/internal/core/domain"
)

// ListTicketsFilter carries query parameters for listing tickets.
// CreatedBy is always enforced by the service layer for requesters limited to own tickets.
type ListTicketsFilter struct {
	CreatedBy    string // empty = no filter
	Status       string // optional
	Priority     string // optional
	DepartmentID string // optional
}

// TicketRepository defines persistence operations for tickets.
type TicketRepository interface {
	Create(ctx context.Context, t *domain.Ticket) error
	FindByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter ListTicketsFilter) ([]*domain.Ticket, error)
	Update(ctx context.Context, t *domain.Ticket) error
	Delete(ctx context.Context, id string) error
}

// CreateTicketInput carries the data for a new ticket.
type CreateTicketInput struct {
	Title        string
	Description  string
	DepartmentID string
	CategoryID   string
	Priority     string // empty = medium
}

// UpdateTicketPatch carries optional ticket changes.
type UpdateTicketPatch struct {
	Title       *string
	Description *string
	CategoryID  *string
	Priority    *string
	Status      *string
	AssignedTo  *string
}

// TicketService defines use-case operations for tickets.
type TicketService interface {
	CreateTicket(ctx context.Context, requester *domain.User, in CreateTicketInput) (*domain.Ticket, error)
	GetTicket(ctx context.Context, requester *domain.User, id string) (*domain.Ticket, error)
	ListTickets(ctx context.Context, requester *domain.User, filter ListTicketsFilter) ([]*domain.Ticket, error)
	UpdateTicket(ctx context.Context, requester *domain.User, id string, patch UpdateTicketPatch) (*domain.Ticket, error)
	DeleteTicket(ctx context.Context, requester *domain.User, id string) error
	TicketStats(ctx context.Context, requester *domain.User) (*domain.TicketStats, error)
}
