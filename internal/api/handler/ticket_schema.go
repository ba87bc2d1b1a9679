package handler

import (
	"github.com/servicedesk/service-desk/internal/core/domain"
	"github.com/servicedesk/service-desk/internal/core/ports"
)

type createTicketRequest struct {
	Title        string `json:"title"         validate:"required,max=200"`
	Description  string `json:"description"`
	DepartmentID string `json:"department_id"`
	CategoryID   string `json:"category_id"`
	Priority     string `json:"priority"      validate:"omitempty,ticket_priority"`
}

func (r createTicketRequest) toInput() ports.CreateTicketInput {
	return ports.CreateTicketInput{
		Title:        r.Title,
		Description:  r.Description,
		DepartmentID: r.DepartmentID,
		CategoryID:   r.CategoryID,
		Priority:     r.Priority,
	}
}

type updateTicketRequest struct {
	Title       *string `json:"title"       validate:"omitempty,max=200"`
	Description *string `json:"description"`
	CategoryID  *string `json:"category_id"`
	Priority    *string `json:"priority"    validate:"omitempty,ticket_priority"`
	Status      *string `json:"status"      validate:"omitempty,ticket_status"`
	AssignedTo  *string `json:"assigned_to"`
}

func (r updateTicketRequest) toPatch() ports.UpdateTicketPatch {
	return ports.UpdateTicketPatch{
		Title:       r.Title,
		Description: r.Description,
		CategoryID:  r.CategoryID,
		Priority:    r.Priority,
		Status:      r.Status,
		AssignedTo:  r.AssignedTo,
	}
}

type ticketListResponse struct {
	Tickets []*domain.Ticket `json:"tickets"`
	Total   int              `json:"total"`
}
