package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []string

	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		seen = append(seen, "first:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		seen = append(seen, "second:"+e.TicketID)
		return nil
	})
	d.Subscribe(EventTicketAssigned, func(_ context.Context, _ Event) error {
		seen = append(seen, "wrong type")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t-1"})
	require.NoError(t, err)
	require.Equal(t, []string{"first:t-1", "second:t-1"}, seen)
}

func TestDispatcherHandlerErrorDoesNotStopDelivery(t *testing.T) {
	d := NewInMemoryDispatcher()
	var delivered bool

	d.Subscribe(EventTicketCommented, func(_ context.Context, _ Event) error {
		return errors.New("handler failed")
	})
	d.Subscribe(EventTicketCommented, func(_ context.Context, _ Event) error {
		delivered = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketCommented})
	require.NoError(t, err)
	require.True(t, delivered)
}

func TestDispatcherNoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTokenRefreshed}))
}
