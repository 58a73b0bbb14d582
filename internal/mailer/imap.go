package mailer

import (
	"context"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/correlation"
)

// IMAPSource pulls unseen messages from the inbound mailbox over IMAP.
// The client is stateless between cycles: each Fetch dials, logs in,
// searches UNSEEN and logs out, so a transient network loss only costs
// one cycle. Fetching the body (non-peek) flags the message seen on the
// server, which is what keeps each message out of later cycles.
type IMAPSource struct {
	cfg    config.MailConfig
	logger *zap.Logger
}

// NewIMAPSource constructs the source.
func NewIMAPSource(cfg config.MailConfig, logger *zap.Logger) *IMAPSource {
	return &IMAPSource{cfg: cfg, logger: logger}
}

// Fetch implements correlation.Source.
func (s *IMAPSource) Fetch(ctx context.Context) ([]correlation.InboundMessage, error) {
	c, err := client.DialTLS(imapAddr(s.cfg.IMAPServer), nil)
	if err != nil {
		return nil, err
	}
	defer c.Logout() //nolint:errcheck

	if deadline, ok := ctx.Deadline(); ok {
		c.Timeout = time.Until(deadline)
	}

	if err := c.Login(s.cfg.Account, s.cfg.Password); err != nil {
		return nil, err
	}
	if _, err := c.Select("INBOX", false); err != nil {
		return nil, err
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	seqNums, err := c.Search(criteria)
	if err != nil {
		return nil, err
	}
	if len(seqNums) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(seqNums...)
	section := &imap.BodySectionName{}
	items := []imap.FetchItem{section.FetchItem()}

	ch := make(chan *imap.Message, len(seqNums))
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, items, ch)
	}()

	var out []correlation.InboundMessage
	for msg := range ch {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		parsed, err := ParseMessage(body, s.logger)
		if err != nil {
			// One broken message never aborts the batch.
			s.logger.Warn("failed to parse inbound message", zap.Error(err))
			continue
		}
		out = append(out, parsed)
	}
	if err := <-done; err != nil {
		return nil, err
	}
	return out, nil
}

func imapAddr(server string) string {
	if strings.Contains(server, ":") {
		return server
	}
	return server + ":993"
}
