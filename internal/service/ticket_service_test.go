package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/store"
	"github.com/spec-kit/helpdesk/internal/ticketid"
	"github.com/spec-kit/helpdesk/pkg/util"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func newTestService(t *testing.T) (*TicketService, *store.TicketStore, *recordingDispatcher) {
	t.Helper()
	dir := t.TempDir()
	tickets := store.NewTicketStore(filepath.Join(dir, "tickets.json"), zap.NewNop())
	dispatcher := &recordingDispatcher{}
	svc := NewTicketService(TicketDependencies{
		Store:      tickets,
		IDs:        ticketid.NewGenerator(filepath.Join(dir, "counter.json")),
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	})
	return svc, tickets, dispatcher
}

func submitTicket(t *testing.T, svc *TicketService) *domain.Ticket {
	t.Helper()
	ticket, err := svc.Create(context.Background(), TicketCreateInput{
		RequestorName:  "Ada",
		RequestorEmail: "a@b.com",
		Subject:        "printer",
		Message:        "paper jam on floor 2",
		RequestType:    "Incident",
		Impact:         "Low",
		Urgency:        "Low",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return ticket
}

func TestCreateSubmission(t *testing.T) {
	svc, tickets, dispatcher := newTestService(t)
	ticket := submitTicket(t, svc)

	want := fmt.Sprintf("TKT-%s-0001", time.Now().Format("2006"))
	if ticket.ID != want {
		t.Fatalf("ticket id = %q, want %q", ticket.ID, want)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("new ticket status = %q, want Open", ticket.Status)
	}

	stored, err := tickets.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("store has %d tickets, want 1", len(stored))
	}

	created := dispatcher.byType(events.EventTicketCreated)
	if len(created) != 1 {
		t.Fatalf("expected exactly one ticket_created event, got %d", len(created))
	}
	payload := created[0].Payload.(events.TicketCreatedPayload)
	if payload.RequestorEmail != "a@b.com" {
		t.Fatalf("created payload email = %q", payload.RequestorEmail)
	}
}

func TestCreateRejectsIncompleteSubmission(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Create(context.Background(), TicketCreateInput{Subject: "no requestor"})
	if !util.HasCode(err, "VALIDATION_FAILED") {
		t.Fatalf("expected VALIDATION_FAILED, got %v", err)
	}
}

func TestChangeStatusRejectsUnknownValue(t *testing.T) {
	svc, tickets, _ := newTestService(t)
	ticket := submitTicket(t, svc)

	_, err := svc.ChangeStatus(context.Background(), "tech", ticket.ID, "Pending")
	if !util.HasCode(err, "INVALID_STATUS") {
		t.Fatalf("expected INVALID_STATUS, got %v", err)
	}

	stored, _ := tickets.Load(context.Background())
	if stored[0].Status != domain.TicketStatusOpen {
		t.Fatalf("stored status changed to %q on rejected transition", stored[0].Status)
	}
}

func TestCloseStampsAttribution(t *testing.T) {
	svc, _, dispatcher := newTestService(t)
	ticket := submitTicket(t, svc)

	closed, err := svc.ChangeStatus(context.Background(), "gooby", ticket.ID, domain.TicketStatusClosed)
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if closed.ClosedBy != "gooby" {
		t.Fatalf("closed_by = %q, want gooby", closed.ClosedBy)
	}
	if closed.ClosedAt == nil {
		t.Fatal("closed_at not stamped")
	}

	changed := dispatcher.byType(events.EventTicketStatusChanged)
	if len(changed) != 1 {
		t.Fatalf("expected one status event, got %d", len(changed))
	}
}

func TestReopenKeepsPriorClosure(t *testing.T) {
	svc, _, _ := newTestService(t)
	ticket := submitTicket(t, svc)

	closed, err := svc.ChangeStatus(context.Background(), "gooby", ticket.ID, domain.TicketStatusClosed)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	closedAt := *closed.ClosedAt

	reopened, err := svc.ChangeStatus(context.Background(), "other", ticket.ID, domain.TicketStatusOpen)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %q after reopen", reopened.Status)
	}
	if reopened.ClosedBy != "gooby" || reopened.ClosedAt == nil || !reopened.ClosedAt.Equal(closedAt) {
		t.Fatalf("reopen modified closure attribution: %+v", reopened)
	}
}

func TestAddNoteGrowsSequence(t *testing.T) {
	svc, _, _ := newTestService(t)
	ticket := submitTicket(t, svc)

	for i := 1; i <= 3; i++ {
		updated, err := svc.AddNote(context.Background(), "tech", ticket.ID, fmt.Sprintf("note %d", i))
		if err != nil {
			t.Fatalf("AddNote #%d: %v", i, err)
		}
		if len(updated.Notes) != i {
			t.Fatalf("notes length = %d after %d appends", len(updated.Notes), i)
		}
	}
}

func TestAddNoteRejectsEmptyText(t *testing.T) {
	svc, _, _ := newTestService(t)
	ticket := submitTicket(t, svc)

	if _, err := svc.AddNote(context.Background(), "tech", ticket.ID, "   "); !util.HasCode(err, "VALIDATION_FAILED") {
		t.Fatalf("expected VALIDATION_FAILED, got %v", err)
	}
}

func TestListActiveExcludesClosed(t *testing.T) {
	svc, _, _ := newTestService(t)
	first := submitTicket(t, svc)
	submitTicket(t, svc)

	if _, err := svc.ChangeStatus(context.Background(), "tech", first.ID, domain.TicketStatusClosed); err != nil {
		t.Fatalf("close: %v", err)
	}

	active, err := svc.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 active ticket, got %d", len(active))
	}
	if active[0].ID == first.ID {
		t.Fatal("closed ticket still listed as active")
	}
}

func TestGetUnknownTicket(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.Get(context.Background(), "TKT-2025-9999"); !util.HasCode(err, "NOT_FOUND") {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
