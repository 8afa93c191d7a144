package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// Source is the paginated ticket API the triage engine consumes.
type Source interface {
	FetchTickets(ctx context.Context, pageToken string) (domain.Page, error)
	CreateTicket(ctx context.Context, problem string) (domain.Ticket, error)
	UpdateTicket(ctx context.Context, id string, patch domain.TicketPatch) (domain.Ticket, error)
}

// ErrUnavailable wraps transport failures talking to the ticket API.
var ErrUnavailable = errors.New("ticket api unavailable")

// StatusError is a non-success response from the ticket API.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("ticket api returned %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("ticket api returned %d: %s", e.StatusCode, e.Message)
}
