package dto

import (
	"time"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Problem string `json:"problem"`
}

// UpdateTicketRequest carries the editable ticket fields.
type UpdateTicketRequest struct {
	Category *string                `json:"category,omitempty"`
	Priority *domain.TicketPriority `json:"priority,omitempty"`
	Status   *domain.TicketStatus   `json:"status,omitempty"`
	Solution *string                `json:"solution,omitempty"`
}

// TicketResponse is the wire shape of a ticket.
type TicketResponse struct {
	ID        string                `json:"id"`
	Problem   string                `json:"problem"`
	Solution  string                `json:"solution,omitempty"`
	Category  string                `json:"category,omitempty"`
	Priority  domain.TicketPriority `json:"priority,omitempty"`
	Status    domain.TicketStatus   `json:"status,omitempty"`
	CreatedAt *time.Time            `json:"created_at,omitempty"`
}

// TicketPageResponse is one page of the ticket listing.
type TicketPageResponse struct {
	Tickets       []TicketResponse `json:"tickets"`
	NextPageToken *string          `json:"next_page_token,omitempty"`
}

// CategorizeRequest payload.
type CategorizeRequest struct {
	Problem string `json:"problem"`
}

// CategorizeResponse describes a classifier decision.
type CategorizeResponse struct {
	Problem      string  `json:"problem"`
	Category     string  `json:"category"`
	CategoryName string  `json:"category_name"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning"`
}

// TicketFromDomain converts a ticket to its wire shape.
func TicketFromDomain(t domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:        t.ID,
		Problem:   t.Problem,
		Solution:  t.Solution,
		Category:  t.Category,
		Priority:  t.Priority,
		Status:    t.Status,
		CreatedAt: t.CreatedAt,
	}
}

// ToDomain converts the wire shape to a ticket with defaults applied.
func (r TicketResponse) ToDomain() domain.Ticket {
	return domain.Ticket{
		ID:        r.ID,
		Problem:   r.Problem,
		Solution:  r.Solution,
		Category:  r.Category,
		Priority:  r.Priority,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}.Normalize()
}

// PageFromDomain converts a page to its wire shape.
func PageFromDomain(p domain.Page) TicketPageResponse {
	items := make([]TicketResponse, 0, len(p.Tickets))
	for _, t := range p.Tickets {
		items = append(items, TicketFromDomain(t))
	}
	resp := TicketPageResponse{Tickets: items}
	if p.NextPageToken != "" {
		token := p.NextPageToken
		resp.NextPageToken = &token
	}
	return resp
}

// ToDomain converts the wire page, normalizing every ticket.
func (r TicketPageResponse) ToDomain() domain.Page {
	tickets := make([]domain.Ticket, 0, len(r.Tickets))
	for _, t := range r.Tickets {
		tickets = append(tickets, t.ToDomain())
	}
	page := domain.Page{Tickets: tickets}
	if r.NextPageToken != nil {
		page.NextPageToken = *r.NextPageToken
	}
	return page
}

// PatchFromDomain converts a patch to the update payload.
func PatchFromDomain(p domain.TicketPatch) UpdateTicketRequest {
	return UpdateTicketRequest{
		Category: p.Category,
		Priority: p.Priority,
		Status:   p.Status,
		Solution: p.Solution,
	}
}

// ToPatch converts the update payload to a patch.
func (r UpdateTicketRequest) ToPatch() domain.TicketPatch {
	return domain.TicketPatch{
		Category: r.Category,
		Priority: r.Priority,
		Status:   r.Status,
		Solution: r.Solution,
	}
}
