package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/repository"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util/errorutil"
)

func newTestService(pageSize int) *TicketService {
	return NewTicketService(TicketDependencies{
		TicketRepo:      repository.NewMemoryTicketRepository(),
		DefaultPageSize: pageSize,
		MaxPageSize:     pageSize * 2,
	})
}

func TestCreateTicketClassifies(t *testing.T) {
	svc := newTestService(10)

	ticket, err := svc.CreateTicket(context.Background(), "  Please refund my payment  ")
	require.NoError(t, err)
	require.NotEmpty(t, ticket.ID)
	require.Equal(t, "Please refund my payment", ticket.Problem)
	require.Equal(t, domain.CategoryPayment, ticket.Category)
	require.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	require.Equal(t, domain.TicketStatusOpen, ticket.Status)
	require.NotNil(t, ticket.CreatedAt)

	stored, err := svc.GetTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Equal(t, ticket.ID, stored.ID)
}

func TestCreateTicketRejectsBlankProblem(t *testing.T) {
	svc := newTestService(10)
	_, err := svc.CreateTicket(context.Background(), "   ")
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestListTicketsWalksAllPages(t *testing.T) {
	svc := newTestService(2)
	ctx := context.Background()
	for _, problem := range []string{"one", "two", "three", "four", "five"} {
		_, err := svc.CreateTicket(ctx, problem)
		require.NoError(t, err)
	}

	var problems []string
	token := ""
	pages := 0
	for {
		page, err := svc.ListTickets(ctx, token, 0)
		require.NoError(t, err)
		pages++
		for _, ticket := range page.Tickets {
			problems = append(problems, ticket.Problem)
		}
		if !page.HasMore() {
			break
		}
		token = page.NextPageToken
	}
	require.Equal(t, 3, pages)
	require.Equal(t, []string{"one", "two", "three", "four", "five"}, problems)
}

func TestListTicketsCapsPageSize(t *testing.T) {
	svc := newTestService(2)
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		_, err := svc.CreateTicket(ctx, "problem")
		require.NoError(t, err)
	}
	page, err := svc.ListTickets(ctx, "", 100)
	require.NoError(t, err)
	require.Len(t, page.Tickets, 4)
	require.True(t, page.HasMore())
}

func TestListTicketsEmpty(t *testing.T) {
	page, err := newTestService(5).ListTickets(context.Background(), "", 0)
	require.NoError(t, err)
	require.NotNil(t, page.Tickets)
	require.Empty(t, page.Tickets)
	require.False(t, page.HasMore())
}

func TestListTicketsRejectsMalformedToken(t *testing.T) {
	_, err := newTestService(5).ListTickets(context.Background(), "%%%not-a-token", 0)
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestUpdateTicket(t *testing.T) {
	svc := newTestService(5)
	ctx := context.Background()
	ticket, err := svc.CreateTicket(ctx, "The host is rude")
	require.NoError(t, err)

	priority := domain.TicketPriorityCritical
	status := domain.TicketStatusInReview
	updated, err := svc.UpdateTicket(ctx, ticket.ID, domain.TicketPatch{Priority: &priority, Status: &status})
	require.NoError(t, err)
	require.Equal(t, priority, updated.Priority)
	require.Equal(t, status, updated.Status)
	require.Equal(t, domain.CategoryHost, updated.Category)
}

func TestUpdateTicketValidates(t *testing.T) {
	svc := newTestService(5)
	ctx := context.Background()
	ticket, err := svc.CreateTicket(ctx, "crash")
	require.NoError(t, err)

	bad := domain.TicketPriority("urgent")
	_, err = svc.UpdateTicket(ctx, ticket.ID, domain.TicketPatch{Priority: &bad})
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	blank := " "
	_, err = svc.UpdateTicket(ctx, ticket.ID, domain.TicketPatch{Category: &blank})
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestUpdateUnknownTicket(t *testing.T) {
	status := domain.TicketStatusResolved
	_, err := newTestService(5).UpdateTicket(context.Background(), "missing", domain.TicketPatch{Status: &status})
	require.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestCategorizeRejectsBlank(t *testing.T) {
	_, err := newTestService(5).Categorize("")
	require.Error(t, err)
	verdict, err := newTestService(5).Categorize("billing problem")
	require.NoError(t, err)
	require.Equal(t, domain.CategoryPayment, verdict.Category)
}
