package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronosentry/chronosentry/pkg/channels/gochannel"
	"github.com/chronosentry/chronosentry/pkg/events"
)

func newTestBus(t *testing.T) EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	return NewWatermillEventBus(pub, sub)
}

func TestPublishAndHandle(t *testing.T) {
	bus := newTestBus(t)
	defer bus.Close()

	received := make(chan any, 1)

	err := bus.Handle(events.RunStartedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	published := events.RunStarted{
		BaseEvent: events.BaseEvent{
			ID:          bus.GenerateID(),
			Type:        events.RunStartedEvent,
			Timestamp:   time.Now().UTC(),
			RunID:       "run-1",
			WorkspaceID: "ws-1",
		},
		StartDate: "2025-07-07",
		EndDate:   "2025-07-13",
	}
	require.NoError(t, bus.Publish(ctx, "run-1", published))

	select {
	case event := <-received:
		started, ok := event.(*events.RunStarted)
		require.True(t, ok)
		assert.Equal(t, "run-1", started.RunID)
		assert.Equal(t, "2025-07-07", started.StartDate)
		assert.Equal(t, events.RunStartedEvent, started.GetType())
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestUnsubscribedEventTypesAreIgnored(t *testing.T) {
	bus := newTestBus(t)
	defer bus.Close()

	received := make(chan any, 1)

	err := bus.Handle(events.RunCompletedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	failed := events.RunFailed{
		BaseEvent: events.BaseEvent{ID: bus.GenerateID(), Type: events.RunFailedEvent, RunID: "run-1"},
		Step:      "anomaly-detection",
		Error:     "boom",
	}
	require.NoError(t, bus.Publish(ctx, "run-1", failed))

	completed := events.RunCompleted{
		BaseEvent: events.BaseEvent{ID: bus.GenerateID(), Type: events.RunCompletedEvent, RunID: "run-1"},
		Anomalies: 2,
		Proposals: 1,
	}
	require.NoError(t, bus.Publish(ctx, "run-1", completed))

	select {
	case event := <-received:
		done, ok := event.(*events.RunCompleted)
		require.True(t, ok)
		assert.Equal(t, 2, done.Anomalies)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}
