package mailer

import (
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/correlation"
)

// ParseMessage decodes one raw RFC 822 message down to the fields the
// correlation engine needs. The subject is decoded from RFC 2047
// encoded words. The plain-text body is preferred; text/html is a
// fallback only when no plain part yielded text. Attachment parts are
// skipped entirely, and a part that fails to decode is logged and
// skipped rather than aborting the message.
func ParseMessage(r io.Reader, logger *zap.Logger) (correlation.InboundMessage, error) {
	mr, err := mail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return correlation.InboundMessage{}, err
	}

	var out correlation.InboundMessage
	// Best-effort header decode: a bad encoded word still yields the
	// raw value, which the identifier search can often use anyway.
	out.Subject, _ = mr.Header.Subject()
	out.MessageID, _ = mr.Header.MessageID()
	if addrs, err := mr.Header.AddressList("From"); err == nil && len(addrs) > 0 {
		out.From = addrs[0].Address
	}

	var plain, html string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) || message.IsUnknownEncoding(err) {
				logger.Warn("skipping undecodable message part", zap.Error(err))
				continue
			}
			// Structurally broken from here on; keep what we have.
			break
		}

		switch header := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := header.ContentType()
			data, err := io.ReadAll(part.Body)
			if err != nil {
				logger.Warn("failed to read message part", zap.Error(err))
				continue
			}
			text := strings.TrimSpace(string(data))
			switch contentType {
			case "text/plain":
				if plain == "" {
					plain = text
				}
			case "text/html":
				if html == "" {
					html = text
				}
			}
		case *mail.AttachmentHeader:
			// Attachment handling is out of scope.
			continue
		}
	}

	out.Body = plain
	if out.Body == "" {
		out.Body = html
	}
	return out, nil
}
