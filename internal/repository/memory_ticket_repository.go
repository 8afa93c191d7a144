package repository

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/ticket-triage/internal/domain"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

type memoryRow struct {
	seq    int64
	ticket domain.Ticket
}

type memoryTicketRepository struct {
	mu   sync.RWMutex
	seq  int64
	rows []memoryRow
	byID map[string]int
	now  func() time.Time
}

// NewMemoryTicketRepository returns a process-local repository used when no database is configured.
func NewMemoryTicketRepository() TicketRepository {
	return &memoryTicketRepository{byID: map[string]int{}, now: time.Now}
}

func (r *memoryTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[ticket.ID]; exists {
		return apperrors.NewConflict("ticket already exists", map[string]any{"id": ticket.ID})
	}
	if ticket.CreatedAt == nil {
		now := r.now().UTC()
		ticket.CreatedAt = &now
	}
	r.seq++
	r.byID[ticket.ID] = len(r.rows)
	r.rows = append(r.rows, memoryRow{seq: r.seq, ticket: *ticket})
	return nil
}

func (r *memoryTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.byID[ticket.ID]
	if !ok {
		return ErrTicketNotFound
	}
	stored := r.rows[idx].ticket
	stored.Solution = ticket.Solution
	stored.Category = ticket.Category
	stored.Priority = ticket.Priority
	stored.Status = ticket.Status
	r.rows[idx].ticket = stored
	return nil
}

func (r *memoryTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.byID[id]
	if !ok {
		return nil, ErrTicketNotFound
	}
	ticket := r.rows[idx].ticket
	return &ticket, nil
}

func (r *memoryTicketRepository) ListAfter(ctx context.Context, afterSeq int64, limit int) (TicketPage, error) {
	if limit <= 0 {
		limit = 20
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var page TicketPage
	for _, row := range r.rows {
		if row.seq <= afterSeq {
			continue
		}
		if len(page.Tickets) == limit {
			page.HasMore = true
			break
		}
		page.Tickets = append(page.Tickets, row.ticket)
		page.LastSeq = row.seq
	}
	return page, nil
}
