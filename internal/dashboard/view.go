package dashboard

import (
	"time"

	"github.com/spec-kit/ticket-triage/internal/api/dto"
	"github.com/spec-kit/ticket-triage/internal/domain"
)

// TicketView is a ticket decorated for display.
type TicketView struct {
	dto.TicketResponse
	CategoryName string              `json:"category_name"`
	Tone         domain.CategoryTone `json:"tone"`
	DisplayTime  time.Time           `json:"display_time"`
}

// FilterOptions lists the values each filter control offers.
type FilterOptions struct {
	Status   []string `json:"status"`
	Category []string `json:"category"`
	Priority []string `json:"priority"`
}

// ListView is the response of GET /dashboard/tickets.
type ListView struct {
	Tickets []TicketView  `json:"tickets"`
	Total   int           `json:"total"`
	Shown   int           `json:"shown"`
	HasMore bool          `json:"has_more"`
	Loading bool          `json:"loading"`
	Error   string        `json:"error,omitempty"`
	Filters FilterOptions `json:"filters"`
}

// CreateView is the response of POST /dashboard/tickets.
type CreateView struct {
	Ticket   TicketView `json:"ticket"`
	Degraded bool       `json:"degraded"`
	Reason   string     `json:"reason,omitempty"`
}

// CreateCategoryRequest payload. Solutions holds one canned solution per line.
type CreateCategoryRequest struct {
	Name      string `json:"name"`
	Solutions string `json:"solutions"`
}

func ticketView(t domain.Ticket, now time.Time) TicketView {
	name, ok := domain.CategoryLabels[t.Category]
	if !ok {
		name = t.Category
	}
	return TicketView{
		TicketResponse: dto.TicketFromDomain(t),
		CategoryName:   name,
		Tone:           domain.ToneFor(t.Category),
		DisplayTime:    t.DisplayTime(now),
	}
}
