package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates triage states for tickets.
type TicketStatus string

const (
	TicketStatusOpen     TicketStatus = "open"
	TicketStatusInReview TicketStatus = "in review"
	TicketStatusResolved TicketStatus = "resolved"
)

// TicketPriority enumerates triage urgency.
type TicketPriority string

const (
	TicketPriorityCritical TicketPriority = "critical"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityLow      TicketPriority = "low"
)

// DefaultCategory is assigned to tickets the classifier left unlabelled.
const DefaultCategory = "technical"

// Statuses lists every known status in display order.
var Statuses = []TicketStatus{TicketStatusOpen, TicketStatusInReview, TicketStatusResolved}

// Priorities lists every known priority from most to least urgent.
var Priorities = []TicketPriority{TicketPriorityCritical, TicketPriorityHigh, TicketPriorityMedium, TicketPriorityLow}

// Weight orders priorities for sorting. Unknown or empty priorities weigh the same as low.
func (p TicketPriority) Weight() int {
	switch p {
	case TicketPriorityCritical:
		return 4
	case TicketPriorityHigh:
		return 3
	case TicketPriorityMedium:
		return 2
	default:
		return 1
	}
}

// Valid reports whether p is one of the known priorities.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityCritical, TicketPriorityHigh, TicketPriorityMedium, TicketPriorityLow:
		return true
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInReview, TicketStatusResolved:
		return true
	}
	return false
}

// Ticket is a unit of support work awaiting triage.
type Ticket struct {
	ID        string         `json:"id"`
	Problem   string         `json:"problem"`
	Solution  string         `json:"solution,omitempty"`
	Category  string         `json:"category"`
	Priority  TicketPriority `json:"priority"`
	Status    TicketStatus   `json:"status"`
	CreatedAt *time.Time     `json:"created_at,omitempty"`
}

// Normalize fills the fields a backend may omit. Every path that brings a
// ticket into the process goes through here so the defaults stay in one place.
func (t Ticket) Normalize() Ticket {
	t.Problem = strings.TrimSpace(t.Problem)
	if strings.TrimSpace(t.Category) == "" {
		t.Category = DefaultCategory
	}
	if t.Priority == "" {
		t.Priority = TicketPriorityMedium
	}
	if t.Status == "" {
		t.Status = TicketStatusOpen
	}
	return t
}

// DisplayTime returns the creation time, treating a missing one as now.
func (t Ticket) DisplayTime(now time.Time) time.Time {
	if t.CreatedAt == nil {
		return now
	}
	return *t.CreatedAt
}

// TicketPatch carries the editable fields of a ticket. Nil fields are left unchanged.
type TicketPatch struct {
	Category *string         `json:"category,omitempty"`
	Priority *TicketPriority `json:"priority,omitempty"`
	Status   *TicketStatus   `json:"status,omitempty"`
	Solution *string         `json:"solution,omitempty"`
}

// Apply returns t with the patch merged in. The ticket id is never touched.
func (p TicketPatch) Apply(t Ticket) Ticket {
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Solution != nil {
		t.Solution = *p.Solution
	}
	return t
}

// Revert undoes this patch on current. A patched field goes back to its value
// in before only while current still holds what the patch wrote, so edits
// made by anyone else since are kept.
func (p TicketPatch) Revert(current, before Ticket) Ticket {
	if p.Category != nil && current.Category == *p.Category {
		current.Category = before.Category
	}
	if p.Priority != nil && current.Priority == *p.Priority {
		current.Priority = before.Priority
	}
	if p.Status != nil && current.Status == *p.Status {
		current.Status = before.Status
	}
	if p.Solution != nil && current.Solution == *p.Solution {
		current.Solution = before.Solution
	}
	return current
}

// IsEmpty reports whether the patch changes nothing.
func (p TicketPatch) IsEmpty() bool {
	return p.Category == nil && p.Priority == nil && p.Status == nil && p.Solution == nil
}

// Page is one slice of a paginated ticket listing. An empty NextPageToken ends the stream.
type Page struct {
	Tickets       []Ticket
	NextPageToken string
}

// HasMore reports whether another page can be requested.
func (p Page) HasMore() bool {
	return p.NextPageToken != ""
}
