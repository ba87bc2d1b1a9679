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
	"github.com/servicedesk/service-desk/internal/pkg/metrics"
)

type TicketService struct {
	repo    ports.TicketRepository
	catalog ports.CatalogRepository
	logger  zerolog.Logger
	now     func() time.Time
}

func NewTicketService(repo ports.TicketRepository, catalog ports.CatalogRepository, logger zerolog.Logger) *TicketService {
	return &TicketService{
		repo:    repo,
		catalog: catalog,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateTicket opens a new ticket on behalf of requester.
func (s *TicketService) CreateTicket(ctx context.Context, requester *domain.User, in ports.CreateTicketInput) (*domain.Ticket, error) {
	if !domain.HasAnyPermission(requester, domain.PermCreateTickets, domain.PermManageTickets) {
		return nil, domain.ErrUnauthorized
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("create ticket: %w: title is required", domain.ErrInvalidInput)
	}
	priority := domain.TicketPriority(in.Priority)
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("create ticket: %w: unknown priority %q", domain.ErrInvalidInput, in.Priority)
	}
	if err := s.checkClassification(ctx, in.DepartmentID, in.CategoryID); err != nil {
		return nil, err
	}

	now := s.now()
	ticket := &domain.Ticket{
		ID:           uuid.NewString(),
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		DepartmentID: in.DepartmentID,
		CategoryID:   in.CategoryID,
		Priority:     priority,
		Status:       domain.TicketOpen,
		CreatedBy:    requester.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, ticket); err != nil {
		s.logger.Error().Err(err).Msg("failed to create ticket")
		return nil, fmt.Errorf("create ticket: %w: %v", domain.ErrStorage, err)
	}

	metrics.TicketsCreatedTotal.WithLabelValues(string(priority)).Inc()
	s.logger.Info().Str("ticket_id", ticket.ID).Str("created_by", requester.Username).Msg("ticket created")
	return ticket, nil
}

// GetTicket returns a ticket visible to requester. Invisible tickets are reported as not found.
func (s *TicketService) GetTicket(ctx context.Context, requester *domain.User, id string) (*domain.Ticket, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(requester, t) {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

// ListTickets returns all tickets for ticket managers and own tickets otherwise.
func (s *TicketService) ListTickets(ctx context.Context, requester *domain.User, filter ports.ListTicketsFilter) ([]*domain.Ticket, error) {
	switch {
	case domain.HasPermission(requester, domain.PermManageTickets):
	case domain.HasPermission(requester, domain.PermViewOwnTickets):
		filter.CreatedBy = requester.ID
	default:
		return nil, domain.ErrUnauthorized
	}

	tickets, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w: %v", domain.ErrStorage, err)
	}
	return tickets, nil
}

func (s *TicketService) UpdateTicket(ctx context.Context, requester *domain.User, id string, patch ports.UpdateTicketPatch) (*domain.Ticket, error) {
	t, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(requester, t) {
		return nil, domain.ErrNotFound
	}
	if !canEdit(requester, t) {
		return nil, domain.ErrUnauthorized
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, fmt.Errorf("update ticket: %w: title is required", domain.ErrInvalidInput)
		}
		t.Title = title
	}
	if patch.Description != nil {
		t.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.CategoryID != nil {
		if err := s.checkClassification(ctx, t.DepartmentID, *patch.CategoryID); err != nil {
			return nil, err
		}
		t.CategoryID = *patch.CategoryID
	}
	if patch.Priority != nil {
		p := domain.TicketPriority(*patch.Priority)
		if !p.Valid() {
			return nil, fmt.Errorf("update ticket: %w: unknown priority %q", domain.ErrInvalidInput, *patch.Priority)
		}
		t.Priority = p
	}
	if patch.AssignedTo != nil {
		if !domain.HasAnyPermission(requester, domain.PermAssignTickets, domain.PermManageTickets) {
			return nil, domain.ErrUnauthorized
		}
		t.AssignedTo = *patch.AssignedTo
	}
	if patch.Status != nil {
		next := domain.TicketStatus(*patch.Status)
		if !next.Valid() {
			return nil, fmt.Errorf("update ticket: %w: unknown status %q", domain.ErrInvalidInput, *patch.Status)
		}
		if next == domain.TicketClosed && t.Status != domain.TicketClosed &&
			!domain.HasAnyPermission(requester, domain.PermCloseTickets, domain.PermManageTickets) {
			return nil, domain.ErrUnauthorized
		}
		if !t.Status.CanTransitionTo(next) {
			return nil, fmt.Errorf("update ticket: %w (from %s to %s)", domain.ErrInvalidTransition, t.Status, next)
		}
		t.Status = next
	}
	t.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, t); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update ticket: %w: %v", domain.ErrStorage, err)
	}

	s.logger.Info().Str("ticket_id", t.ID).Str("status", string(t.Status)).Str("actor", requester.Username).Msg("ticket updated")
	return t, nil
}

func (s *TicketService) DeleteTicket(ctx context.Context, requester *domain.User, id string) error {
	if !domain.HasPermission(requester, domain.PermManageTickets) {
		return domain.ErrUnauthorized
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete ticket: %w: %v", domain.ErrStorage, err)
	}
	s.logger.Info().Str("ticket_id", id).Str("actor", requester.Username).Msg("ticket deleted")
	return nil
}

// TicketStats counts all tickets by status.
func (s *TicketService) TicketStats(ctx context.Context, requester *domain.User) (*domain.TicketStats, error) {
	if !domain.HasPermission(requester, domain.PermViewReports) {
		return nil, domain.ErrUnauthorized
	}
	tickets, err := s.repo.List(ctx, ports.ListTicketsFilter{})
	if err != nil {
		return nil, fmt.Errorf("ticket stats: %w: %v", domain.ErrStorage, err)
	}

	stats := &domain.TicketStats{Total: len(tickets)}
	for _, t := range tickets {
		switch t.Status {
		case domain.TicketOpen:
			stats.Open++
		case domain.TicketInProgress:
			stats.InProgress++
		case domain.TicketResolved:
			stats.Resolved++
		case domain.TicketClosed:
			stats.Closed++
		}
	}
	return stats, nil
}

func (s *TicketService) find(ctx context.Context, id string) (*domain.Ticket, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find ticket: %w: %v", domain.ErrStorage, err)
	}
	return t, nil
}

// checkClassification verifies that departmentID exists and that categoryID,
// when set, belongs to it. Empty ids are allowed.
func (s *TicketService) checkClassification(ctx context.Context, departmentID, categoryID string) error {
	if departmentID == "" {
		if categoryID != "" {
			return fmt.Errorf("%w: category requires a department", domain.ErrInvalidInput)
		}
		return nil
	}
	if _, err := s.catalog.FindDepartment(ctx, departmentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: unknown department %q", domain.ErrInvalidInput, departmentID)
		}
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if categoryID == "" {
		return nil
	}
	cats, err := s.catalog.ListCategories(ctx, departmentID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	for _, c := range cats {
		if c.ID == categoryID {
			return nil
		}
	}
	return fmt.Errorf("%w: category %q is not in department %q", domain.ErrInvalidInput, categoryID, departmentID)
}

func canView(u *domain.User, t *domain.Ticket) bool {
	if domain.HasPermission(u, domain.PermManageTickets) {
		return true
	}
	return u != nil && t.CreatedBy == u.ID && domain.HasPermission(u, domain.PermViewOwnTickets)
}

func canEdit(u *domain.User, t *domain.Ticket) bool {
	if domain.HasAnyPermission(u, domain.PermManageTickets, domain.PermEditTickets) {
		return true
	}
	return u != nil && t.CreatedBy == u.ID && domain.HasPermission(u, domain.PermEditOwnTickets)
}
