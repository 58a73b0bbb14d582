package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets. Public submission endpoint; store
// internals are never surfaced to the requester.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.Create(c.Context(), service.TicketCreateInput{
		RequestorName:  req.RequestorName,
		RequestorEmail: req.RequestorEmail,
		Subject:        req.Subject,
		Message:        req.Message,
		RequestType:    req.RequestType,
		Impact:         req.Impact,
		Urgency:        req.Urgency,
	})
	if err != nil {
		if util.HasCode(err, "STORE_CORRUPT") || util.HasCode(err, "STORE_UNAVAILABLE") {
			return util.NewDomainError("TRY_AGAIN_LATER", "unable to accept your request right now, please try again later",
				http.StatusServiceUnavailable, nil)
		}
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"id": ticket.ID}})
}

// ListTickets GET /tickets. Technician-only; returns all non-closed
// records.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.service.ListActive(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id. Technician-only.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// UpdateStatus POST /tickets/:id/status/:status. Technician-only; the
// target value is validated before any mutation happens.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("technician required")
	}
	ticket, err := h.service.ChangeStatus(c.Context(), principal.Username, c.Params("id"), domain.TicketStatus(c.Params("status")))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// AddNote POST /tickets/:id/notes. Open to requesters; a signed-in
// technician's note is attributed to their username.
func (h *TicketsHandler) AddNote(c *fiber.Ctx) error {
	var req dto.AddNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	author := ""
	if principal, ok := auth.PrincipalFromContext(c); ok {
		author = principal.Username
	}
	ticket, err := h.service.AddNote(c.Context(), author, c.Params("id"), req.Text)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket)})
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:            ticket.ID,
		RequestorName: ticket.RequestorName,
		Subject:       ticket.Subject,
		RequestType:   ticket.RequestType,
		Impact:        ticket.Impact,
		Urgency:       ticket.Urgency,
		Status:        ticket.Status,
		CreatedAt:     ticket.CreatedAt,
		NoteCount:     len(ticket.Notes),
	}
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetailResponse {
	notes := make([]dto.NoteResponse, 0, len(ticket.Notes))
	for _, note := range ticket.Notes {
		notes = append(notes, dto.NoteResponse{
			Author:    note.Author,
			Text:      note.Text,
			CreatedAt: note.CreatedAt,
		})
	}
	return dto.TicketDetailResponse{
		ID:             ticket.ID,
		RequestorName:  ticket.RequestorName,
		RequestorEmail: ticket.RequestorEmail,
		Subject:        ticket.Subject,
		Message:        ticket.Message,
		RequestType:    ticket.RequestType,
		Impact:         ticket.Impact,
		Urgency:        ticket.Urgency,
		Status:         ticket.Status,
		CreatedAt:      ticket.CreatedAt,
		ClosedBy:       ticket.ClosedBy,
		ClosedAt:       ticket.ClosedAt,
		Notes:          notes,
	}
}
