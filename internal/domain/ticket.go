package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In-Progress"
	TicketStatusClosed     TicketStatus = "Closed"
)

// ValidStatus reports whether s is one of the accepted lifecycle states.
// Any transition between accepted states is allowed, including reopening
// a closed ticket; values outside the set are rejected before mutation.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

// Note is a single annotation on a ticket. Notes are append-only;
// insertion order is the display and audit order.
type Note struct {
	Author    string    `json:"author,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Ticket is the aggregate for support requests. Fields supplied at
// creation are immutable; only Status, ClosedBy, ClosedAt and Notes
// change over the ticket's lifetime.
type Ticket struct {
	ID             string       `json:"id"`
	RequestorName  string       `json:"requestor_name"`
	RequestorEmail string       `json:"requestor_email"`
	Subject        string       `json:"subject"`
	Message        string       `json:"message"`
	RequestType    string       `json:"request_type"`
	Impact         string       `json:"impact"`
	Urgency        string       `json:"urgency"`
	Status         TicketStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	ClosedBy       string       `json:"closed_by,omitempty"`
	ClosedAt       *time.Time   `json:"closed_at,omitempty"`
	Notes          []Note       `json:"notes"`
}
