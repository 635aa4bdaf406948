// internal/events/redis_bridge.go
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisBridge mirrors local events to a Redis channel and replays events
// published by other instances into the local bus.
type RedisBridge struct {
	bus     *Bus
	rdb     *redis.Client
	channel string
	origin  string
	done    chan struct{}
	unsub   func()
}

func NewRedisBridge(bus *Bus, rdb *redis.Client, channel string) *RedisBridge {
	return &RedisBridge{
		bus:     bus,
		rdb:     rdb,
		channel: channel,
		origin:  uuid.NewString(),
		done:    make(chan struct{}),
	}
}

// Start subscribes to the channel and begins forwarding in both directions
// until ctx is cancelled.
func (r *RedisBridge) Start(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	r.unsub = r.bus.SubscribeAll(r.forward)

	go func() {
		defer close(r.done)
		defer r.unsub()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				r.replay(ctx, m.Payload)
			}
		}
	}()

	return nil
}

// Done is closed once the forwarding goroutine has exited.
func (r *RedisBridge) Done() <-chan struct{} {
	return r.done
}

func (r *RedisBridge) forward(ctx context.Context, e Event) {
	if e.Origin != "" {
		return
	}
	e.Origin = r.origin

	raw, err := json.Marshal(e)
	if err != nil {
		logrus.WithError(err).WithField("event", e.Name).Warn("Failed to encode event for redis")
		return
	}
	if err := r.rdb.Publish(ctx, r.channel, raw).Err(); err != nil {
		logrus.WithError(err).WithField("event", e.Name).Warn("Failed to publish event to redis")
	}
}

func (r *RedisBridge) replay(ctx context.Context, payload string) {
	var e Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		logrus.WithError(err).Warn("Bad redis event payload")
		return
	}
	if e.Origin == r.origin || e.Origin == "" {
		return
	}
	r.bus.Publish(ctx, e)
}
