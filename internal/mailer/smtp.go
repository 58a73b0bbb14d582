package mailer

import (
	"context"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
)

// ConfirmationSender delivers requester-facing email over SMTP with
// STARTTLS and plain auth.
type ConfirmationSender struct {
	cfg    config.MailConfig
	logger *zap.Logger
}

// NewConfirmationSender constructs the sender.
func NewConfirmationSender(cfg config.MailConfig, logger *zap.Logger) *ConfirmationSender {
	return &ConfirmationSender{cfg: cfg, logger: logger}
}

// Send delivers a plain-text message to a single recipient.
func (s *ConfirmationSender) Send(ctx context.Context, to, subject, body string) error {
	client, err := gomail.NewClient(s.cfg.SMTPServer,
		gomail.WithPort(s.cfg.SMTPPort),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.Account),
		gomail.WithPassword(s.cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	msg := gomail.NewMsg()
	if err := msg.From(s.cfg.Account); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	return client.DialAndSendWithContext(ctx, msg)
}
