package events

import (
	"time"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketDegraded     EventType = "ticket_degraded"
	EventTicketUpdated      EventType = "ticket_updated"
	EventTicketUpdateFailed EventType = "ticket_update_failed"
	EventPageLoadFailed     EventType = "page_load_failed"
)

// Event is a notification emitted by the triage engine.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Category string                `json:"category"`
	Priority domain.TicketPriority `json:"priority"`
	Solution string                `json:"solution,omitempty"`
}

// TicketDegradedPayload explains why a ticket was created without classification.
type TicketDegradedPayload struct {
	Reason string `json:"reason"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	Before domain.Ticket `json:"before"`
	After  domain.Ticket `json:"after"`
}

// TicketUpdateFailedPayload carries the message shown to the editor.
type TicketUpdateFailedPayload struct {
	Message string `json:"message"`
}

// PageLoadFailedPayload payload.
type PageLoadFailedPayload struct {
	FirstPage bool   `json:"first_page"`
	Message   string `json:"message"`
}
