package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu       sync.Mutex
	received []Rendered
	err      error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Deliver(_ context.Context, msg Rendered) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, msg)
	return s.err
}

func TestRenderBookingConfirmed(t *testing.T) {
	d, err := NewDispatcher(1)
	require.NoError(t, err)

	rendered, err := d.Render(Message{
		Template: BookingConfirmed,
		To:       "rider@example.com",
		Data: map[string]interface{}{
			"reference":      "abc-123",
			"origin":         "A",
			"destination":    "B",
			"travel_date":    "2026-10-20",
			"departure_time": "08:00",
			"passengers":     2,
			"total":          41.5,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Your booking is confirmed", rendered.Subject)
	assert.Equal(t, "rider@example.com", rendered.To)
	assert.Contains(t, rendered.Body, "Booking abc-123 from A to B on 2026-10-20 is confirmed.")
	assert.Contains(t, rendered.Body, "Total: 41.50.")
}

func TestRenderUnknownTemplate(t *testing.T) {
	d, err := NewDispatcher(1)
	require.NoError(t, err)

	_, err = d.Render(Message{Template: "nope"})
	assert.Error(t, err)
}

func TestRenderRouteChangedOmitsZeroFares(t *testing.T) {
	d, err := NewDispatcher(1)
	require.NoError(t, err)

	rendered, err := d.Render(Message{
		Template: RouteChanged,
		Data:     map[string]interface{}{"route_id": 3, "title": "A-B", "action": "updated", "fares_created": 0},
	})
	require.NoError(t, err)
	assert.Equal(t, "Route 3 \"A-B\" was updated.\n", rendered.Body)
}

func TestDispatcherDeliversToEverySink(t *testing.T) {
	failing := &recordingSink{err: errors.New("smtp down")}
	ok := &recordingSink{}

	d, err := NewDispatcher(2, failing, LogSink{})
	require.NoError(t, err)
	d.AddSink(ok)

	for i := 0; i < 3; i++ {
		d.Notify(context.Background(), Message{
			Template: ContactReceived,
			To:       "support@example.com",
			Data:     map[string]interface{}{"name": "Ann", "email": "ann@example.com", "subject": "Refund", "message": "Hi"},
		})
	}
	d.Close()

	assert.Len(t, failing.received, 3)
	assert.Len(t, ok.received, 3)
	assert.Equal(t, "New support request", ok.received[0].Subject)
}

func TestDispatcherSurvivesCancelledContext(t *testing.T) {
	sink := &recordingSink{}
	d, err := NewDispatcher(1, sink)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Notify(ctx, Message{Template: BookingCancelled, Data: map[string]interface{}{"reference": "r1"}})
	d.Close()

	require.Len(t, sink.received, 1)
	assert.Contains(t, sink.received[0].Body, "Booking r1")
}

func TestNopNotifier(t *testing.T) {
	var n Notifier = Nop{}
	n.Notify(context.Background(), Message{Template: BookingConfirmed})
}
