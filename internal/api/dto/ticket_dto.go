package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	RequestorName  string `json:"requestor_name"`
	RequestorEmail string `json:"requestor_email"`
	Subject        string `json:"subject"`
	Message        string `json:"message"`
	RequestType    string `json:"request_type"`
	Impact         string `json:"impact"`
	Urgency        string `json:"urgency"`
}

// AddNoteRequest payload.
type AddNoteRequest struct {
	Text string `json:"text"`
}

// TicketSummary response for dashboard listings.
type TicketSummary struct {
	ID            string              `json:"id"`
	RequestorName string              `json:"requestor_name"`
	Subject       string              `json:"subject"`
	RequestType   string              `json:"request_type"`
	Impact        string              `json:"impact"`
	Urgency       string              `json:"urgency"`
	Status        domain.TicketStatus `json:"status"`
	CreatedAt     time.Time           `json:"created_at"`
	NoteCount     int                 `json:"note_count"`
}

// TicketDetailResponse provides the full record.
type TicketDetailResponse struct {
	ID             string              `json:"id"`
	RequestorName  string              `json:"requestor_name"`
	RequestorEmail string              `json:"requestor_email"`
	Subject        string              `json:"subject"`
	Message        string              `json:"message"`
	RequestType    string              `json:"request_type"`
	Impact         string              `json:"impact"`
	Urgency        string              `json:"urgency"`
	Status         domain.TicketStatus `json:"status"`
	CreatedAt      time.Time           `json:"created_at"`
	ClosedBy       string              `json:"closed_by,omitempty"`
	ClosedAt       *time.Time          `json:"closed_at,omitempty"`
	Notes          []NoteResponse      `json:"notes"`
}

// NoteResponse represents one note entry.
type NoteResponse struct {
	Author    string    `json:"author,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
