package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/servicedesk/service-desk/internal/core/ports"
)

// TicketHandler handles HTTP requests for ticket operations.
type TicketHandler struct {
	service ports.TicketService
}

func NewTicketHandler(service ports.TicketService) *TicketHandler {
	return &TicketHandler{service: service}
}

// List handles GET /v1/tickets. Requesters without manage_tickets only see their own.
//
// @Summary      List tickets
// @Tags         tickets
// @Produce      json
// @Security     BearerAuth
// @Param        status         query     string  false  "Status"    Enums(open, in-progress, resolved, closed)
// @Param        priority       query     string  false  "Priority"  Enums(low, medium, high, critical)
// @Param        department_id  query     string  false  "Department id"
// @Success      200            {object}  ticketListResponse
// @Failure      403            {object}  map[string]string
// @Router       /v1/tickets [get]
func (h *TicketHandler) List(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.Request().Context(), requester, ports.ListTicketsFilter{
		Status:       c.QueryParam("status"),
		Priority:     c.QueryParam("priority"),
		DepartmentID: c.QueryParam("department_id"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ticketListResponse{Tickets: tickets, Total: len(tickets)})
}

// Create handles POST /v1/tickets.
//
// @Summary      Open a ticket
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createTicketRequest  true  "Ticket"
// @Success      201   {object}  domain.Ticket
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /v1/tickets [post]
func (h *TicketHandler) Create(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}
	var req createTicketRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ticket, err := h.service.CreateTicket(c.Request().Context(), requester, req.toInput())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderLocation, "/v1/tickets/"+ticket.ID)
	return c.JSON(http.StatusCreated, ticket)
}

// Get handles GET /v1/tickets/:id.
//
// @Summary      Get a ticket
// @Tags         tickets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Ticket id"
// @Success      200  {object}  domain.Ticket
// @Failure      404  {object}  map[string]string
// @Router       /v1/tickets/{id} [get]
func (h *TicketHandler) Get(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.Request().Context(), requester, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ticket)
}

// Update handles PATCH /v1/tickets/:id.
//
// @Summary      Update a ticket
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Ticket id"
// @Param        body  body      updateTicketRequest  true  "Fields to change"
// @Success      200   {object}  domain.Ticket
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/tickets/{id} [patch]
func (h *TicketHandler) Update(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}
	var req updateTicketRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ticket, err := h.service.UpdateTicket(c.Request().Context(), requester, c.Param("id"), req.toPatch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ticket)
}

// Delete handles DELETE /v1/tickets/:id.
//
// @Summary      Delete a ticket
// @Tags         tickets
// @Security     BearerAuth
// @Param        id   path  string  true  "Ticket id"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/tickets/{id} [delete]
func (h *TicketHandler) Delete(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteTicket(c.Request().Context(), requester, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Stats handles GET /v1/reports/tickets.
//
// @Summary      Ticket statistics
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.TicketStats
// @Failure      403  {object}  map[string]string
// @Router       /v1/reports/tickets [get]
func (h *TicketHandler) Stats(c echo.Context) error {
	requester, err := ctxRequester(c)
	if err != nil {
		return err
	}
	stats, err := h.service.TicketStats(c.Request().Context(), requester)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
