package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// Source is a mock for remote.Source.
type Source struct {
	mock.Mock
}

func (m *Source) FetchTickets(ctx context.Context, pageToken string) (domain.Page, error) {
	args := m.Called(ctx, pageToken)
	if page, ok := args.Get(0).(domain.Page); ok {
		return page, args.Error(1)
	}
	return domain.Page{}, args.Error(1)
}

func (m *Source) CreateTicket(ctx context.Context, problem string) (domain.Ticket, error) {
	args := m.Called(ctx, problem)
	if ticket, ok := args.Get(0).(domain.Ticket); ok {
		return ticket, args.Error(1)
	}
	return domain.Ticket{}, args.Error(1)
}

func (m *Source) UpdateTicket(ctx context.Context, id string, patch domain.TicketPatch) (domain.Ticket, error) {
	args := m.Called(ctx, id, patch)
	if ticket, ok := args.Get(0).(domain.Ticket); ok {
		return ticket, args.Error(1)
	}
	return domain.Ticket{}, args.Error(1)
}
