package correlation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/store"
	"github.com/spec-kit/helpdesk/pkg/util"
)

// InboundMessage is one unseen message pulled from the mail source,
// already decoded down to the fields the engine correlates on.
type InboundMessage struct {
	MessageID string
	From      string
	Subject   string
	Body      string
}

// Source pulls unseen messages from the inbound mailbox. Fetching must
// mark messages seen on the source so each message is delivered to the
// engine at most once across cycles.
type Source interface {
	Fetch(ctx context.Context) ([]InboundMessage, error)
}

// SeenCache optionally records processed Message-IDs so a message
// redelivered by the source (e.g. after a crash between fetch and
// persist) is not appended twice.
type SeenCache interface {
	Seen(ctx context.Context, messageID string) (bool, error)
	MarkSeen(ctx context.Context, messageID string) error
}

// Engine reconciles inbound email replies with ticket records. Each
// cycle pulls unseen mail, extracts a ticket identifier from the subject
// and appends the message body as a note to the matching record.
type Engine struct {
	source     Source
	tickets    *store.TicketStore
	seen       SeenCache
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewEngine constructs the engine. seen may be nil, in which case the
// engine relies on the source's own seen-state alone.
func NewEngine(source Source, tickets *store.TicketStore, seen SeenCache, dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger) *Engine {
	return &Engine{
		source:     source,
		tickets:    tickets,
		seen:       seen,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
	}
}

// RunCycle performs one poll cycle. A source connect/auth/fetch failure
// aborts the whole cycle; everything after that is scoped to the single
// message, so one bad reply never blocks the rest of the batch.
func (e *Engine) RunCycle(ctx context.Context) error {
	messages, err := e.source.Fetch(ctx)
	if err != nil {
		e.metrics.RecordMailCycle(false)
		return util.NewMailSourceError(err)
	}

	for _, msg := range messages {
		e.processMessage(ctx, msg)
	}
	e.metrics.RecordMailCycle(true)
	return nil
}

func (e *Engine) processMessage(ctx context.Context, msg InboundMessage) {
	if e.alreadyProcessed(ctx, msg.MessageID) {
		return
	}

	id, ok := ExtractTicketID(msg.Subject)
	if !ok {
		// Not a ticket reply; skip without marking an error.
		e.logger.Debug("no ticket id in subject", zap.String("subject", msg.Subject))
		return
	}

	matched := false
	_, err := e.tickets.Mutate(ctx, func(tickets []domain.Ticket) ([]domain.Ticket, error) {
		for i := range tickets {
			if tickets[i].ID == id {
				tickets[i].Notes = append(tickets[i].Notes, domain.Note{
					Author:    msg.From,
					Text:      msg.Body,
					CreatedAt: time.Now(),
				})
				matched = true
				break
			}
		}
		return tickets, nil
	})
	if err != nil {
		e.logger.Error("failed to persist reply",
			zap.String("ticket_id", id), zap.Error(err))
		return
	}

	if !matched {
		e.metrics.RecordUnmatchedReply()
		e.logger.Warn("reply matched no ticket",
			zap.String("ticket_id", id), zap.String("from", msg.From))
		return
	}

	e.metrics.RecordMatchedReply()
	e.logger.Info("appended reply to ticket",
		zap.String("ticket_id", id), zap.String("from", msg.From))
	e.publishNoteAdded(ctx, id, msg)
	e.markProcessed(ctx, msg.MessageID)
}

func (e *Engine) alreadyProcessed(ctx context.Context, messageID string) bool {
	if e.seen == nil || messageID == "" {
		return false
	}
	seen, err := e.seen.Seen(ctx, messageID)
	if err != nil {
		e.logger.Warn("seen cache lookup failed", zap.Error(err))
		return false
	}
	return seen
}

func (e *Engine) markProcessed(ctx context.Context, messageID string) {
	if e.seen == nil || messageID == "" {
		return
	}
	if err := e.seen.MarkSeen(ctx, messageID); err != nil {
		e.logger.Warn("seen cache store failed", zap.Error(err))
	}
}

func (e *Engine) publishNoteAdded(ctx context.Context, ticketID string, msg InboundMessage) {
	if e.dispatcher == nil {
		return
	}
	preview := msg.Body
	if len(preview) > 120 {
		preview = preview[:117] + "..."
	}
	_ = e.dispatcher.Publish(ctx, events.Event{
		Type:      events.EventTicketNoteAdded,
		TicketID:  ticketID,
		Timestamp: time.Now(),
		Payload: events.TicketNoteAddedPayload{
			Author:      msg.From,
			BodyPreview: preview,
		},
	})
}
