package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestPublishRunsEveryHandler(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []string
	d.Subscribe(EventTicketDegraded, func(ctx context.Context, e Event) error {
		seen = append(seen, "first")
		return errors.New("webhook down")
	})
	d.Subscribe(EventTicketDegraded, func(ctx context.Context, e Event) error {
		seen = append(seen, "second:"+e.TicketID)
		require.NotEmpty(t, e.ID)
		require.False(t, e.Timestamp.IsZero())
		return nil
	})
	d.Subscribe(EventTicketCreated, func(ctx context.Context, e Event) error {
		seen = append(seen, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketDegraded, TicketID: "TICKET-1"})
	require.ErrorContains(t, err, "webhook down")
	require.Equal(t, []string{"first", "second:TICKET-1"}, seen)
}

func TestPublishHelperToleratesNilDispatcher(t *testing.T) {
	Publish(context.Background(), nil, Event{Type: EventTicketCreated}, zap.NewNop())
}

func TestPublishHelperLogsHandlerErrors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewInMemoryDispatcher()
	d.Subscribe(EventTicketUpdated, func(ctx context.Context, e Event) error {
		return errors.New("webhook down")
	})

	Publish(context.Background(), d, Event{Type: EventTicketUpdated, TicketID: "t1"}, zap.New(core))

	entries := logs.FilterMessage("event handler failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "ticket_updated", fields["event_type"])
	require.Equal(t, "t1", fields["ticket_id"])
	require.Equal(t, "webhook down", fields["error"])
}
