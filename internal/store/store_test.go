package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-triage/internal/cache"
	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/observability"
	"github.com/spec-kit/ticket-triage/internal/remote/mocks"
	"github.com/spec-kit/ticket-triage/internal/store"
)

func ticket(id string, priority domain.TicketPriority) domain.Ticket {
	return domain.Ticket{
		ID:       id,
		Problem:  "problem " + id,
		Category: domain.DefaultCategory,
		Priority: priority,
		Status:   domain.TicketStatusOpen,
	}
}

func page(token string, tickets ...domain.Ticket) domain.Page {
	return domain.Page{Tickets: tickets, NextPageToken: token}
}

func ids(tickets []domain.Ticket) []string {
	out := make([]string, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.ID)
	}
	return out
}

func TestLoadFirstThenNextPage(t *testing.T) {
	ctx := context.Background()
	t1, t2, t3 := ticket("t1", domain.TicketPriorityHigh), ticket("t2", domain.TicketPriorityLow), ticket("t3", domain.TicketPriorityMedium)

	src := &mocks.Source{}
	src.On("FetchTickets", ctx, "").Return(page("p2", t1, t2), nil).Once()
	src.On("FetchTickets", ctx, "p2").Return(page("", t3), nil).Once()

	s := store.New(store.Dependencies{Source: src})
	require.NoError(t, s.LoadFirstPage(ctx))
	require.True(t, s.HasMore())

	require.NoError(t, s.LoadNextPage(ctx))
	require.Equal(t, []string{"t1", "t2", "t3"}, ids(s.Tickets()))
	require.False(t, s.HasMore())

	require.NoError(t, s.LoadNextPage(ctx))
	require.NoError(t, s.LoadNextPage(ctx))
	require.Equal(t, 3, s.Len())
	src.AssertExpectations(t)
	src.AssertNumberOfCalls(t, "FetchTickets", 2)
}

func TestPaginationGrowsUntilTokenRunsOut(t *testing.T) {
	ctx := context.Background()
	src := &mocks.Source{}
	src.On("FetchTickets", ctx, "").Return(page("p1", ticket("a0", ""), ticket("a1", "")), nil).Once()
	for i := 1; i <= 3; i++ {
		next := fmt.Sprintf("p%d", i+1)
		if i == 3 {
			next = ""
		}
		src.On("FetchTickets", ctx, fmt.Sprintf("p%d", i)).
			Return(page(next, ticket(fmt.Sprintf("b%d-0", i), ""), ticket(fmt.Sprintf("b%d-1", i), "")), nil).Once()
	}

	s := store.New(store.Dependencies{Source: src})
	require.NoError(t, s.LoadFirstPage(ctx))

	prev := s.Len()
	for s.HasMore() {
		require.NoError(t, s.LoadNextPage(ctx))
		require.Equal(t, prev+2, s.Len())
		prev = s.Len()
	}
	require.Equal(t, 8, s.Len())

	require.NoError(t, s.LoadNextPage(ctx))
	require.Equal(t, 8, s.Len())
	src.AssertExpectations(t)
}

func TestRefreshReplacesCollection(t *testing.T) {
	ctx := context.Background()
	src := &mocks.Source{}
	src.On("FetchTickets", ctx, "").Return(page("p2", ticket("t1", ""), ticket("t2", "")), nil).Twice()
	src.On("FetchTickets", ctx, "p2").Return(page("", ticket("t3", "")), nil).Once()

	s := store.New(store.Dependencies{Source: src})
	require.NoError(t, s.LoadFirstPage(ctx))
	require.NoError(t, s.LoadNextPage(ctx))
	require.Equal(t, 3, s.Len())

	require.NoError(t, s.LoadFirstPage(ctx))
	require.Equal(t, []string{"t1", "t2"}, ids(s.Tickets()))
	require.True(t, s.HasMore())
	require.Equal(t, uint64(2), s.Generation())
}

func TestFailedRefreshKeepsExistingCollection(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("ticket api unavailable")
	dispatcher := events.NewInMemoryDispatcher()
	var failures []events.PageLoadFailedPayload
	dispatcher.Subscribe(events.EventPageLoadFailed, func(ctx context.Context, e events.Event) error {
		failures = append(failures, e.Payload.(events.PageLoadFailedPayload))
		return nil
	})

	src := &mocks.Source{}
	src.On("FetchTickets", ctx, "").Return(page("", ticket("t1", "")), nil).Once()
	src.On("FetchTickets", ctx, "").Return(nil, boom).Once()

	metrics := observability.NewMetrics()
	s := store.New(store.Dependencies{Source: src, Dispatcher: dispatcher, Metrics: metrics})
	require.NoError(t, s.LoadFirstPage(ctx))

	err := s.LoadFirstPage(ctx)
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, s.Err(), boom)
	require.Equal(t, []string{"t1"}, ids(s.Tickets()))
	require.Len(t, failures, 1)
	require.True(t, failures[0].FirstPage)
	require.Equal(t, int64(1), metrics.EventCount(observability.EventPageFailed))
}

func TestFailedRefreshOnEmptyStore(t *testing.T) {
	ctx := context.Background()
	src := &mocks.Source{}
	src.On("FetchTickets", ctx, "").Return(nil, errors.New("connection refused")).Once()
	src.On("FetchTickets", ctx, "").Return(page("", ticket("t1", "")), nil).Once()

	s := store.New(store.Dependencies{Source: src})
	require.Error(t, s.LoadFirstPage(ctx))
	require.Zero(t, s.Len())

	require.NoError(t, s.LoadFirstPage(ctx))
	require.NoError(t, s.Err())
	require.Equal(t, 1, s.Len())
}

func TestLoadMoreFailureStopsPagination(t *testing.T) {
	ctx := context.Background()
	src := &mocks.Source{}
	src.On("FetchTickets", ctx, "").Return(page("p2", ticket("t1", "")), nil).Once()
	src.On("FetchTickets", ctx, "p2").Return(nil, errors.New("timeout")).Once()

	s := store.New(store.Dependencies{Source: src})
	require.NoError(t, s.LoadFirstPage(ctx))
	require.Error(t, s.LoadNextPage(ctx))
	require.False(t, s.HasMore())
	require.Equal(t, 1, s.Len())

	require.NoError(t, s.LoadNextPage(ctx))
	src.AssertNumberOfCalls(t, "FetchTickets", 2)
}

func TestStaleNextPageIsDiscarded(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})

	src := &mocks.Source{}
	src.On("FetchTickets", ctx, "").Return(page("p2", ticket("t1", ""), ticket("t2", "")), nil).Once()
	src.On("FetchTickets", ctx, "p2").Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(page("", ticket("t3", "")), nil).Once()
	src.On("FetchTickets", ctx, "").Return(page("q2", ticket("t9", "")), nil).Once()

	metrics := observability.NewMetrics()
	s := store.New(store.Dependencies{Source: src, Metrics: metrics})
	require.NoError(t, s.LoadFirstPage(ctx))

	done := make(chan error)
	go func() { done <- s.LoadNextPage(ctx) }()
	<-started

	require.NoError(t, s.LoadFirstPage(ctx))
	close(release)
	require.NoError(t, <-done)

	require.Equal(t, []string{"t9"}, ids(s.Tickets()))
	require.True(t, s.HasMore())
	require.Equal(t, int64(1), metrics.EventCount(observability.EventPageDiscarded))
}

func TestConcurrentLoadMoreIsSkipped(t *testing.T) {
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})

	src := &mocks.Source{}
	src.On("FetchTickets", ctx, "").Return(page("p2", ticket("t1", "")), nil).Once()
	src.On("FetchTickets", ctx, "p2").Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return(page("", ticket("t2", "")), nil).Once()

	s := store.New(store.Dependencies{Source: src})
	require.NoError(t, s.LoadFirstPage(ctx))

	done := make(chan error)
	go func() { done <- s.LoadNextPage(ctx) }()
	<-started

	require.NoError(t, s.LoadNextPage(ctx))
	close(release)
	require.NoError(t, <-done)
	require.Equal(t, []string{"t1", "t2"}, ids(s.Tickets()))
	src.AssertNumberOfCalls(t, "FetchTickets", 2)
}

func TestApplyOptimisticUpdate(t *testing.T) {
	ctx := context.Background()
	src := &mocks.Source{}
	src.On("FetchTickets", ctx, "").Return(page("", ticket("t1", domain.TicketPriorityLow), ticket("t2", domain.TicketPriorityHigh)), nil).Once()

	s := store.New(store.Dependencies{Source: src})
	require.NoError(t, s.LoadFirstPage(ctx))

	priority := domain.TicketPriorityCritical
	require.True(t, s.ApplyOptimisticUpdate(ctx, "t1", domain.TicketPatch{Priority: &priority}))
	got, ok := s.Get("t1")
	require.True(t, ok)
	require.Equal(t, "t1", got.ID)
	require.Equal(t, domain.TicketPriorityCritical, got.Priority)

	before := s.Tickets()
	require.False(t, s.ApplyOptimisticUpdate(ctx, "missing", domain.TicketPatch{Priority: &priority}))
	if diff := cmp.Diff(before, s.Tickets()); diff != "" {
		t.Fatalf("collection changed for unknown id (-before +after):\n%s", diff)
	}
}

func TestApplyOptimisticUpdatePersistsSnapshot(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory()
	s := store.New(store.Dependencies{Source: &mocks.Source{}, Cache: c})
	s.Insert(ctx, ticket("t1", domain.TicketPriorityLow))

	status := domain.TicketStatusInReview
	require.True(t, s.ApplyOptimisticUpdate(ctx, "t1", domain.TicketPatch{Status: &status}))

	var cached []domain.Ticket
	found, err := c.Get(ctx, store.SnapshotKey, &cached)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, cached, 1)
	require.Equal(t, domain.TicketStatusInReview, cached[0].Status)
}

func TestTicketsReturnsCopy(t *testing.T) {
	s := store.New(store.Dependencies{Source: &mocks.Source{}})
	s.Insert(context.Background(), ticket("t1", domain.TicketPriorityLow))

	view := s.Tickets()
	view[0].Priority = domain.TicketPriorityCritical

	got, _ := s.Get("t1")
	require.Equal(t, domain.TicketPriorityLow, got.Priority)
}

func TestInsertKeepsIDsUnique(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.Dependencies{Source: &mocks.Source{}})
	s.Insert(ctx, ticket("t1", domain.TicketPriorityLow))
	s.Insert(ctx, ticket("t2", domain.TicketPriorityLow))
	s.Insert(ctx, ticket("t1", domain.TicketPriorityHigh))

	require.Equal(t, []string{"t2", "t1"}, ids(s.Tickets()))
	got, _ := s.Get("t1")
	require.Equal(t, domain.TicketPriorityHigh, got.Priority)
}

func TestUpdateReconcilesWithServer(t *testing.T) {
	ctx := context.Background()
	status := domain.TicketStatusResolved
	patch := domain.TicketPatch{Status: &status}

	server := ticket("t1", domain.TicketPriorityLow)
	server.Status = domain.TicketStatusResolved
	server.Solution = "closed by server"

	src := &mocks.Source{}
	src.On("UpdateTicket", ctx, "t1", patch).Return(server, nil).Once()

	dispatcher := events.NewInMemoryDispatcher()
	var updated []string
	dispatcher.Subscribe(events.EventTicketUpdated, func(ctx context.Context, e events.Event) error {
		updated = append(updated, e.TicketID)
		return nil
	})

	s := store.New(store.Dependencies{Source: src, Dispatcher: dispatcher})
	s.Insert(ctx, ticket("t1", domain.TicketPriorityLow))

	got, err := s.Update(ctx, "t1", patch)
	require.NoError(t, err)
	require.Equal(t, "closed by server", got.Solution)

	stored, _ := s.Get("t1")
	require.Equal(t, server, stored)
	require.Equal(t, []string{"t1"}, updated)
}

func TestUpdateRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	status := domain.TicketStatusResolved
	patch := domain.TicketPatch{Status: &status}
	original := ticket("t1", domain.TicketPriorityLow)

	src := &mocks.Source{}
	src.On("UpdateTicket", ctx, "t1", patch).Return(nil, errors.New("502 bad gateway")).Once()

	metrics := observability.NewMetrics()
	s := store.New(store.Dependencies{Source: src, Metrics: metrics})
	s.Insert(ctx, original)

	_, err := s.Update(ctx, "t1", patch)
	require.ErrorContains(t, err, "502")

	stored, _ := s.Get("t1")
	require.Equal(t, original, stored)
	require.Equal(t, int64(1), metrics.EventCount(observability.EventUpdateRolledBack))
}

func TestFailedUpdateKeepsConfirmedConcurrentUpdate(t *testing.T) {
	ctx := context.Background()
	resolved := domain.TicketStatusResolved
	critical := domain.TicketPriorityCritical
	statusPatch := domain.TicketPatch{Status: &resolved}
	priorityPatch := domain.TicketPatch{Priority: &critical}

	confirmed := ticket("t1", domain.TicketPriorityCritical)

	statusSent := make(chan struct{})
	releaseStatus := make(chan struct{})
	src := &mocks.Source{}
	src.On("UpdateTicket", ctx, "t1", statusPatch).Run(func(mock.Arguments) {
		close(statusSent)
		<-releaseStatus
	}).Return(nil, errors.New("503 service unavailable")).Once()
	src.On("UpdateTicket", ctx, "t1", priorityPatch).Return(confirmed, nil).Once()

	s := store.New(store.Dependencies{Source: src})
	s.Insert(ctx, ticket("t1", domain.TicketPriorityLow))

	statusErr := make(chan error, 1)
	go func() {
		_, err := s.Update(ctx, "t1", statusPatch)
		statusErr <- err
	}()
	<-statusSent

	_, err := s.Update(ctx, "t1", priorityPatch)
	require.NoError(t, err)

	close(releaseStatus)
	require.Error(t, <-statusErr)

	stored, _ := s.Get("t1")
	if diff := cmp.Diff(confirmed, stored); diff != "" {
		t.Fatalf("confirmed update lost by rollback (-want +got):\n%s", diff)
	}
}

func TestUpdateUnknownTicket(t *testing.T) {
	src := &mocks.Source{}
	s := store.New(store.Dependencies{Source: src})

	_, err := s.Update(context.Background(), "missing", domain.TicketPatch{})
	require.ErrorIs(t, err, store.ErrTicketNotFound)
	src.AssertNotCalled(t, "UpdateTicket", mock.Anything, mock.Anything, mock.Anything)
}

func TestHydrateRestoresPersistedCollection(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemory()

	first := &mocks.Source{}
	first.On("FetchTickets", ctx, "").Return(page("", ticket("t1", ""), ticket("t2", "")), nil).Once()
	s1 := store.New(store.Dependencies{Source: first, Cache: c})
	require.NoError(t, s1.LoadFirstPage(ctx))

	offline := &mocks.Source{}
	offline.On("FetchTickets", ctx, "").Return(nil, errors.New("offline")).Once()
	s2 := store.New(store.Dependencies{Source: offline, Cache: c})

	restored, err := s2.Hydrate(ctx)
	require.NoError(t, err)
	require.True(t, restored)
	require.Error(t, s2.LoadFirstPage(ctx))
	require.Equal(t, []string{"t1", "t2"}, ids(s2.Tickets()))
}

func TestHydrateWithoutCache(t *testing.T) {
	s := store.New(store.Dependencies{Source: &mocks.Source{}})
	restored, err := s.Hydrate(context.Background())
	require.NoError(t, err)
	require.False(t, restored)
}
