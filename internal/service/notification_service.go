package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
)

// EmailSender delivers a plain-text email to a single recipient.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NotificationService drives the notification collaborators off domain
// events: a confirmation email to the requester on creation, and a chat
// webhook on creation and on every status change. Delivery failures are
// logged and never propagate back into the mutation that emitted the
// event.
type NotificationService struct {
	dispatcher events.Dispatcher
	email      EmailSender
	httpClient *http.Client
	cfg        config.NotificationConfig
	logger     *zap.Logger
}

// NewNotificationService creates the service. email may be nil when no
// outbound mail host is configured.
func NewNotificationService(dispatcher events.Dispatcher, email EmailSender, cfg config.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		email:      email,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cfg:        cfg,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID))

	n.sendConfirmationEmail(ctx, event.TicketID, payload)
	n.sendWebhook(ctx, webhookMessage{
		Username: "Helpdesk",
		Embeds: []webhookEmbed{{
			Title:       fmt.Sprintf("New Ticket Created: %s", event.TicketID),
			Description: fmt.Sprintf("**Details:** %s", payload.Message),
			Color:       5814783,
		}},
	})
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	n.logger.Info("TicketStatusChanged",
		zap.String("ticket_id", event.TicketID),
		zap.String("new_status", string(payload.NewStatus)))

	n.sendWebhook(ctx, webhookMessage{
		Username: "Helpdesk",
		Embeds: []webhookEmbed{{
			Title: fmt.Sprintf("Ticket %s updated to %s.", event.TicketID, payload.NewStatus),
			Color: 16776960,
		}},
	})
	return nil
}

// sendConfirmationEmail tells the requester their tracking identifier.
// The subject leads with the identifier so a straight reply correlates
// back to the ticket.
func (n *NotificationService) sendConfirmationEmail(ctx context.Context, ticketID string, payload events.TicketCreatedPayload) {
	if n.email == nil {
		return
	}
	subject := fmt.Sprintf("%s - %s", ticketID, payload.Subject)
	body := fmt.Sprintf("Thank you for your request. Your new Ticket ID is %s. You have provided the following details... %s",
		ticketID, payload.Message)
	if err := n.email.Send(ctx, payload.RequestorEmail, subject, body); err != nil {
		n.logger.Error("confirmation email failed",
			zap.String("ticket_id", ticketID), zap.Error(err))
		return
	}
	n.logger.Info("confirmation email sent", zap.String("ticket_id", ticketID))
}

type webhookMessage struct {
	Username string         `json:"username"`
	Embeds   []webhookEmbed `json:"embeds"`
}

type webhookEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Color       int    `json:"color"`
}

func (n *NotificationService) sendWebhook(ctx context.Context, msg webhookMessage) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		n.logger.Error("webhook payload marshal failed", zap.Error(err))
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(data))
	if err != nil {
		n.logger.Error("webhook request build failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Error("webhook delivery failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		n.logger.Warn("webhook returned unexpected status", zap.Int("status", resp.StatusCode))
	}
}
