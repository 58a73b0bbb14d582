package correlation

import (
	"regexp"
	"strings"
)

// Subjects are free text, so the identifier is found by substring search
// rather than an anchored parse: reply prefixes like "Re:" or trailing
// text never prevent a match.
var ticketIDPattern = regexp.MustCompile(`(?i)TKT-\d{4}-\d+`)

// ExtractTicketID scans a decoded subject line for a ticket identifier.
// Matching is case-insensitive; when a subject contains more than one
// candidate the first match wins. The returned identifier is uppercased
// to the canonical form. ok is false when the subject holds no
// identifier, which marks the message as not a ticket reply.
func ExtractTicketID(subject string) (id string, ok bool) {
	match := ticketIDPattern.FindString(subject)
	if match == "" {
		return "", false
	}
	return strings.ToUpper(match), true
}
