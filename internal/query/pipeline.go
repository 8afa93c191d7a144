package query

import (
	"sort"
	"strings"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// All is the wildcard filter value.
const All = "all"

// Spec describes the dashboard's search and filter state. Empty filters behave like All.
type Spec struct {
	SearchTerm     string
	StatusFilter   string
	CategoryFilter string
	PriorityFilter string
}

// Normalize replaces empty filters with the wildcard.
func (s Spec) Normalize() Spec {
	if s.StatusFilter == "" {
		s.StatusFilter = All
	}
	if s.CategoryFilter == "" {
		s.CategoryFilter = All
	}
	if s.PriorityFilter == "" {
		s.PriorityFilter = All
	}
	return s
}

// Matches reports whether t passes every filter of the spec.
func (s Spec) Matches(t domain.Ticket) bool {
	s = s.Normalize()
	if !strings.Contains(strings.ToLower(t.Problem), strings.ToLower(s.SearchTerm)) {
		return false
	}
	if s.StatusFilter != All && string(t.Status) != s.StatusFilter {
		return false
	}
	if s.CategoryFilter != All && t.Category != s.CategoryFilter {
		return false
	}
	if s.PriorityFilter != All && string(t.Priority) != s.PriorityFilter {
		return false
	}
	return true
}

// Apply filters tickets by spec and orders the survivors from most to least
// urgent. Equal priorities keep their input order. The input is not modified.
func Apply(tickets []domain.Ticket, spec Spec) []domain.Ticket {
	spec = spec.Normalize()
	out := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if spec.Matches(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Weight() > out[j].Priority.Weight()
	})
	return out
}

// CategoryOptions lists the wildcard followed by each distinct category of
// the loaded tickets in first-seen order.
func CategoryOptions(tickets []domain.Ticket) []string {
	options := []string{All}
	seen := map[string]bool{}
	for _, t := range tickets {
		if t.Category == "" || seen[t.Category] {
			continue
		}
		seen[t.Category] = true
		options = append(options, t.Category)
	}
	return options
}

// StatusOptions lists the wildcard followed by every status.
func StatusOptions() []string {
	options := []string{All}
	for _, s := range domain.Statuses {
		options = append(options, string(s))
	}
	return options
}

// PriorityOptions lists the wildcard followed by every priority.
func PriorityOptions() []string {
	options := []string{All}
	for _, p := range domain.Priorities {
		options = append(options, string(p))
	}
	return options
}
