package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
)

type countingEmailSender struct {
	sent    atomic.Int64
	lastTo  string
	lastSub string
}

func (s *countingEmailSender) Send(ctx context.Context, to, subject, body string) error {
	s.sent.Add(1)
	s.lastTo = to
	s.lastSub = subject
	return nil
}

func TestCreatedEventSendsConfirmationAndWebhook(t *testing.T) {
	var webhookCalls atomic.Int64
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		webhookCalls.Add(1)
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &received)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	dispatcher := events.NewInMemoryDispatcher()
	email := &countingEmailSender{}
	svc := NewNotificationService(dispatcher, email, config.NotificationConfig{WebhookURL: server.URL}, zap.NewNop())
	svc.RegisterHandlers()

	_ = dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketCreated,
		TicketID: "TKT-2025-0001",
		Payload: events.TicketCreatedPayload{
			Subject:        "printer",
			RequestorEmail: "a@b.com",
			Message:        "paper jam",
		},
	})

	if email.sent.Load() != 1 {
		t.Fatalf("confirmation emails sent = %d, want 1", email.sent.Load())
	}
	if email.lastTo != "a@b.com" {
		t.Fatalf("confirmation recipient = %q", email.lastTo)
	}
	if email.lastSub != "TKT-2025-0001 - printer" {
		t.Fatalf("confirmation subject = %q; replies must lead with the identifier", email.lastSub)
	}
	if webhookCalls.Load() != 1 {
		t.Fatalf("webhook calls = %d, want 1", webhookCalls.Load())
	}
	if _, ok := received["embeds"]; !ok {
		t.Fatalf("webhook payload missing embeds: %v", received)
	}
}

func TestStatusChangeSendsWebhookOnly(t *testing.T) {
	var webhookCalls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		webhookCalls.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	dispatcher := events.NewInMemoryDispatcher()
	email := &countingEmailSender{}
	svc := NewNotificationService(dispatcher, email, config.NotificationConfig{WebhookURL: server.URL}, zap.NewNop())
	svc.RegisterHandlers()

	_ = dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: "TKT-2025-0001",
		Payload: events.TicketStatusChangedPayload{
			OldStatus: "Open",
			NewStatus: "In-Progress",
			Actor:     "gooby",
		},
	})

	if webhookCalls.Load() != 1 {
		t.Fatalf("webhook calls = %d, want 1", webhookCalls.Load())
	}
	if email.sent.Load() != 0 {
		t.Fatalf("status change must not email the requester, sent = %d", email.sent.Load())
	}
}

func TestMissingWebhookURLDisablesDelivery(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewNotificationService(dispatcher, nil, config.NotificationConfig{}, zap.NewNop())
	svc.RegisterHandlers()

	// Must not panic or error with no collaborators configured.
	_ = dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketCreated,
		TicketID: "TKT-2025-0001",
		Payload:  events.TicketCreatedPayload{RequestorEmail: "a@b.com"},
	})
}
