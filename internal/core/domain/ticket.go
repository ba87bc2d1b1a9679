package domain

import (
	"errors"
	"time"
)

// TicketStatus represents the lifecycle state of a ticket.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in-progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

// TicketPriority orders tickets by urgency.
type TicketPriority string

const (
	PriorityLow      TicketPriority = "low"
	PriorityMedium   TicketPriority = "medium"
	PriorityHigh     TicketPriority = "high"
	PriorityCritical TicketPriority = "critical"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// validTransitions defines the allowed ticket state machine transitions.
var validTransitions = map[TicketStatus][]TicketStatus{
	TicketOpen:       {TicketInProgress, TicketResolved, TicketClosed},
	TicketInProgress: {TicketOpen, TicketResolved, TicketClosed},
	TicketResolved:   {TicketInProgress, TicketClosed, TicketOpen},
	TicketClosed:     {TicketOpen},
}

// CanTransitionTo reports whether a transition from the current status to next is valid.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Ticket is a service desk request.
type Ticket struct {
	ID           string         `json:"id"                    bson:"_id"`
	Title        string         `json:"title"                 bson:"title"`
	Description  string         `json:"description"           bson:"description"`
	DepartmentID string         `json:"department_id"         bson:"department_id"`
	CategoryID   string         `json:"category_id"           bson:"category_id"`
	Priority     TicketPriority `json:"priority"              bson:"priority"`
	Status       TicketStatus   `json:"status"                bson:"status"`
	CreatedBy    string         `json:"created_by"            bson:"created_by"`
	AssignedTo   string         `json:"assigned_to,omitempty" bson:"assigned_to,omitempty"`
	CreatedAt    time.Time      `json:"created_at"            bson:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"            bson:"updated_at"`
}

// TicketStats counts tickets by status.
type TicketStats struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
	Closed     int `json:"closed"`
}

// Department groups categories and tickets.
type Department struct {
	ID          string    `json:"id"          bson:"_id"`
	Name        string    `json:"name"        bson:"name"`
	Description string    `json:"description" bson:"description"`
	CreatedAt   time.Time `json:"created_at"  bson:"created_at"`
}

// Category classifies tickets within a department.
type Category struct {
	ID           string    `json:"id"            bson:"_id"`
	Name         string    `json:"name"          bson:"name"`
	Description  string    `json:"description"   bson:"description"`
	DepartmentID string    `json:"department_id" bson:"department_id"`
	CreatedAt    time.Time `json:"created_at"    bson:"created_at"`
}
