package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/store"
	"github.com/spec-kit/helpdesk/internal/ticketid"
	"github.com/spec-kit/helpdesk/pkg/util"
)

// TicketService coordinates ticket workflows. Every mutation goes
// through the store's Mutate so concurrent actors (request handlers,
// the mail poller) never lose an update.
type TicketService struct {
	tickets    *store.TicketStore
	ids        *ticketid.Generator
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      *store.TicketStore
	IDs        *ticketid.Generator
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// TicketCreateInput describes the submission payload. All fields are
// immutable once the ticket exists.
type TicketCreateInput struct {
	RequestorName  string
	RequestorEmail string
	Subject        string
	Message        string
	RequestType    string
	Impact         string
	Urgency        string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.Store,
		ids:        deps.IDs,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// Create registers a new ticket from a submission and emits exactly one
// ticket_created event.
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	input.RequestorName = strings.TrimSpace(input.RequestorName)
	input.RequestorEmail = strings.TrimSpace(input.RequestorEmail)
	input.Subject = strings.TrimSpace(input.Subject)
	if input.RequestorName == "" || input.RequestorEmail == "" || input.Subject == "" || strings.TrimSpace(input.Message) == "" {
		return nil, util.NewValidationError("requestor_name, requestor_email, subject, message required", nil)
	}

	id, err := s.ids.Next(ctx)
	if err != nil {
		return nil, err
	}

	ticket := domain.Ticket{
		ID:             id,
		RequestorName:  input.RequestorName,
		RequestorEmail: input.RequestorEmail,
		Subject:        input.Subject,
		Message:        input.Message,
		RequestType:    input.RequestType,
		Impact:         input.Impact,
		Urgency:        input.Urgency,
		Status:         domain.TicketStatusOpen,
		CreatedAt:      s.now(),
		Notes:          []domain.Note{},
	}

	if _, err := s.tickets.Mutate(ctx, func(tickets []domain.Ticket) ([]domain.Ticket, error) {
		return append(tickets, ticket), nil
	}); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Subject:        ticket.Subject,
			RequestorName:  ticket.RequestorName,
			RequestorEmail: ticket.RequestorEmail,
			Message:        ticket.Message,
		},
	})
	return &ticket, nil
}

// ListActive returns all tickets whose status is not Closed.
func (s *TicketService) ListActive(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.tickets.Load(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.Status != domain.TicketStatusClosed {
			active = append(active, t)
		}
	}
	return active, nil
}

// Get returns a single ticket by identifier.
func (s *TicketService) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	tickets, err := s.tickets.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		if tickets[i].ID == id {
			return &tickets[i], nil
		}
	}
	return nil, util.NewNotFound("ticket", map[string]any{"id": id})
}

// ChangeStatus applies a status transition on behalf of a technician.
// The target value is validated before any mutation; entering Closed
// stamps closed_by and closed_at, while entering any other state leaves
// those fields untouched (a reopened ticket keeps its prior closure
// attribution until it is closed again).
func (s *TicketService) ChangeStatus(ctx context.Context, technician, id string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if !domain.ValidStatus(newStatus) {
		return nil, util.NewInvalidStatus(string(newStatus))
	}

	var updated domain.Ticket
	var oldStatus domain.TicketStatus
	found := false
	if _, err := s.tickets.Mutate(ctx, func(tickets []domain.Ticket) ([]domain.Ticket, error) {
		for i := range tickets {
			if tickets[i].ID != id {
				continue
			}
			found = true
			oldStatus = tickets[i].Status
			tickets[i].Status = newStatus
			if newStatus == domain.TicketStatusClosed {
				now := s.now()
				tickets[i].ClosedBy = technician
				tickets[i].ClosedAt = &now
			}
			updated = tickets[i]
			break
		}
		return tickets, nil
	}); err != nil {
		return nil, err
	}
	if !found {
		return nil, util.NewNotFound("ticket", map[string]any{"id": id})
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: id,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Actor:     technician,
		},
	})
	return &updated, nil
}

// AddNote appends a note to a ticket. Notes are append-only; nothing
// ever shortens the sequence.
func (s *TicketService) AddNote(ctx context.Context, author, id, text string) (*domain.Ticket, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, util.NewValidationError("text required", nil)
	}

	var updated domain.Ticket
	found := false
	if _, err := s.tickets.Mutate(ctx, func(tickets []domain.Ticket) ([]domain.Ticket, error) {
		for i := range tickets {
			if tickets[i].ID != id {
				continue
			}
			found = true
			tickets[i].Notes = append(tickets[i].Notes, domain.Note{
				Author:    author,
				Text:      text,
				CreatedAt: s.now(),
			})
			updated = tickets[i]
			break
		}
		return tickets, nil
	}); err != nil {
		return nil, err
	}
	if !found {
		return nil, util.NewNotFound("ticket", map[string]any{"id": id})
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketNoteAdded,
		TicketID: id,
		Payload: events.TicketNoteAddedPayload{
			Author:      author,
			BodyPreview: stringPreview(text, 120),
		},
	})
	return &updated, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
