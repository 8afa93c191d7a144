package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-triage/internal/domain"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

// ErrTicketNotFound is returned when no ticket has the requested id.
var ErrTicketNotFound = apperrors.NewNotFound("ticket", nil)

// TicketPage is one keyset page of tickets in insertion order.
type TicketPage struct {
	Tickets []domain.Ticket
	// LastSeq is the cursor to resume after; meaningful only when HasMore is set.
	LastSeq int64
	HasMore bool
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListAfter(ctx context.Context, afterSeq int64, limit int) (TicketPage, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, problem, solution, category, priority, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING created_at`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.Problem,
		ticket.Solution,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
	).Scan(&createdAt); err != nil {
		return err
	}
	ticket.CreatedAt = &createdAt
	return nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET solution=$1, category=$2, priority=$3, status=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Solution,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTicketNotFound
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT seq, id, problem, solution, category, priority, status, created_at
        FROM tickets WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	ticket, _, err := scanTicket(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListAfter(ctx context.Context, afterSeq int64, limit int) (TicketPage, error) {
	const query = `
        SELECT seq, id, problem, solution, category, priority, status, created_at
        FROM tickets WHERE seq > $1 ORDER BY seq ASC LIMIT $2`
	if limit <= 0 {
		limit = 20
	}

	// One extra row tells us whether another page exists.
	rows, err := r.pool.Query(ctx, query, afterSeq, limit+1)
	if err != nil {
		return TicketPage{}, err
	}
	defer rows.Close()

	var page TicketPage
	for rows.Next() {
		ticket, seq, err := scanTicket(rows)
		if err != nil {
			return TicketPage{}, err
		}
		if len(page.Tickets) == limit {
			page.HasMore = true
			break
		}
		page.Tickets = append(page.Tickets, ticket)
		page.LastSeq = seq
	}
	return page, rows.Err()
}

func scanTicket(row pgx.Row) (domain.Ticket, int64, error) {
	var (
		ticket domain.Ticket
		seq    int64
	)
	if err := row.Scan(
		&seq,
		&ticket.ID,
		&ticket.Problem,
		&ticket.Solution,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.CreatedAt,
	); err != nil {
		return domain.Ticket{}, 0, err
	}
	return ticket, seq, nil
}
