package correlation

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/store"
	"github.com/spec-kit/helpdesk/pkg/util"
)

type fakeSource struct {
	messages []InboundMessage
	err      error
}

func (s *fakeSource) Fetch(ctx context.Context) ([]InboundMessage, error) {
	return s.messages, s.err
}

type fakeSeenCache struct {
	seen map[string]bool
}

func (c *fakeSeenCache) Seen(ctx context.Context, messageID string) (bool, error) {
	return c.seen[messageID], nil
}

func (c *fakeSeenCache) MarkSeen(ctx context.Context, messageID string) error {
	c.seen[messageID] = true
	return nil
}

func seededStore(t *testing.T, tickets ...domain.Ticket) *store.TicketStore {
	t.Helper()
	s := store.NewTicketStore(filepath.Join(t.TempDir(), "tickets.json"), zap.NewNop())
	if len(tickets) > 0 {
		if err := s.Save(context.Background(), tickets); err != nil {
			t.Fatalf("seed store: %v", err)
		}
	}
	return s
}

func openTicket(id string) domain.Ticket {
	return domain.Ticket{
		ID:             id,
		RequestorName:  "Ada",
		RequestorEmail: "ada@example.com",
		Subject:        "printer",
		Status:         domain.TicketStatusOpen,
		CreatedAt:      time.Now(),
		Notes:          []domain.Note{},
	}
}

func TestRunCycleAppendsMatchingReply(t *testing.T) {
	tickets := seededStore(t, openTicket("TKT-2025-0001"))
	source := &fakeSource{messages: []InboundMessage{{
		MessageID: "<m1@mail>",
		From:      "ada@example.com",
		Subject:   "Re: TKT-2025-0001 - need update",
		Body:      "still waiting",
	}}}
	metrics := observability.NewMetrics()
	engine := NewEngine(source, tickets, nil, nil, metrics, zap.NewNop())

	if err := engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	stored, err := tickets.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(stored[0].Notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(stored[0].Notes))
	}
	note := stored[0].Notes[0]
	if note.Text != "still waiting" || note.Author != "ada@example.com" {
		t.Fatalf("unexpected note: %+v", note)
	}
	_, _, matched, _ := metrics.MailStats()
	if matched != 1 {
		t.Fatalf("matched counter = %d, want 1", matched)
	}
}

func TestRunCycleIgnoresNonTicketMail(t *testing.T) {
	tickets := seededStore(t, openTicket("TKT-2025-0001"))
	source := &fakeSource{messages: []InboundMessage{{
		From:    "spam@example.com",
		Subject: "special offer just for you",
		Body:    "buy now",
	}}}
	engine := NewEngine(source, tickets, nil, nil, observability.NewMetrics(), zap.NewNop())

	if err := engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	stored, _ := tickets.Load(context.Background())
	if len(stored[0].Notes) != 0 {
		t.Fatalf("non-ticket mail mutated the store: %+v", stored[0].Notes)
	}
}

func TestRunCycleCountsUnmatchedReply(t *testing.T) {
	tickets := seededStore(t, openTicket("TKT-2025-0001"))
	source := &fakeSource{messages: []InboundMessage{{
		From:    "ada@example.com",
		Subject: "Re: TKT-2025-0042",
		Body:    "wrong ticket",
	}}}
	metrics := observability.NewMetrics()
	engine := NewEngine(source, tickets, nil, nil, metrics, zap.NewNop())

	if err := engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	stored, _ := tickets.Load(context.Background())
	if len(stored[0].Notes) != 0 {
		t.Fatal("unmatched reply mutated an unrelated ticket")
	}
	_, _, matched, unmatched := metrics.MailStats()
	if matched != 0 || unmatched != 1 {
		t.Fatalf("counters matched=%d unmatched=%d, want 0/1", matched, unmatched)
	}
}

func TestRunCycleAbortsOnSourceFailure(t *testing.T) {
	tickets := seededStore(t, openTicket("TKT-2025-0001"))
	source := &fakeSource{err: errors.New("imap: connection refused")}
	metrics := observability.NewMetrics()
	engine := NewEngine(source, tickets, nil, nil, metrics, zap.NewNop())

	err := engine.RunCycle(context.Background())
	if !util.HasCode(err, "MAIL_SOURCE") {
		t.Fatalf("expected MAIL_SOURCE error, got %v", err)
	}
	cycles, cycleErrors, _, _ := metrics.MailStats()
	if cycles != 1 || cycleErrors != 1 {
		t.Fatalf("cycle counters = %d/%d, want 1/1", cycles, cycleErrors)
	}
}

func TestRunCycleSkipsAlreadyProcessedMessage(t *testing.T) {
	tickets := seededStore(t, openTicket("TKT-2025-0001"))
	msg := InboundMessage{
		MessageID: "<dup@mail>",
		From:      "ada@example.com",
		Subject:   "Re: TKT-2025-0001",
		Body:      "still waiting",
	}
	source := &fakeSource{messages: []InboundMessage{msg}}
	seen := &fakeSeenCache{seen: map[string]bool{}}
	engine := NewEngine(source, tickets, seen, nil, observability.NewMetrics(), zap.NewNop())

	// First cycle appends and records the Message-ID; a redelivery in
	// the second cycle must not append again.
	for i := 0; i < 2; i++ {
		if err := engine.RunCycle(context.Background()); err != nil {
			t.Fatalf("RunCycle #%d: %v", i, err)
		}
	}

	stored, _ := tickets.Load(context.Background())
	if len(stored[0].Notes) != 1 {
		t.Fatalf("expected 1 note after redelivery, got %d", len(stored[0].Notes))
	}
}
