package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPublishDispatchesInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var calls []string

	bus.Subscribe(TaskUpdated, func(ctx context.Context, e Event) { calls = append(calls, "first") })
	bus.Subscribe(TaskUpdated, func(ctx context.Context, e Event) { calls = append(calls, "second") })
	bus.SubscribeAll(func(ctx context.Context, e Event) { calls = append(calls, "all:"+e.Name) })
	bus.Subscribe(ShopCreated, func(ctx context.Context, e Event) { calls = append(calls, "shop") })

	bus.Publish(context.Background(), Event{Name: TaskUpdated})

	assert.Equal(t, []string{"first", "second", "all:task.updated"}, calls)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	count := 0
	unsub := bus.Subscribe(TaskUpdated, func(ctx context.Context, e Event) { count++ })

	bus.Publish(context.Background(), Event{Name: TaskUpdated})
	unsub()
	bus.Publish(context.Background(), Event{Name: TaskUpdated})

	assert.Equal(t, 1, count)
	assert.Equal(t, 0, bus.HandlerCount(TaskUpdated))
}

func TestHandlerPanicIsRecovered(t *testing.T) {
	bus := NewBus()
	reached := false
	bus.Subscribe(LevelUp, func(ctx context.Context, e Event) { panic("boom") })
	bus.Subscribe(LevelUp, func(ctx context.Context, e Event) { reached = true })

	require.NotPanics(t, func() {
		bus.Publish(context.Background(), Event{Name: LevelUp})
	})
	assert.True(t, reached)
}

func TestPublishStampsTime(t *testing.T) {
	bus := NewBus()
	var got Event
	bus.SubscribeAll(func(ctx context.Context, e Event) { got = e })

	bus.Publish(context.Background(), Event{Name: ShopCreated, UserID: uuid.New()})
	assert.False(t, got.At.IsZero())
}

func TestRedisBridgeReplay(t *testing.T) {
	bus := NewBus()
	bridge := &RedisBridge{bus: bus, origin: "local"}

	var received []Event
	bus.SubscribeAll(func(ctx context.Context, e Event) { received = append(received, e) })

	encode := func(e Event) string {
		raw, err := json.Marshal(e)
		require.NoError(t, err)
		return string(raw)
	}

	bridge.replay(context.Background(), encode(Event{Name: ShopCreated, Origin: "local"}))
	bridge.replay(context.Background(), encode(Event{Name: ShopCreated}))
	bridge.replay(context.Background(), "not json")
	bridge.replay(context.Background(), encode(Event{Name: ShopPublished, Origin: "other"}))

	require.Len(t, received, 1)
	assert.Equal(t, ShopPublished, received[0].Name)
	assert.Equal(t, "other", received[0].Origin)
}

func TestProgressTriggersAreDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, name := range ProgressTriggers {
		assert.False(t, seen[name], name)
		seen[name] = true
	}
	assert.False(t, seen[ProgressUpdated])
}
