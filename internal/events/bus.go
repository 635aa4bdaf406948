// internal/events/bus.go
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Event is a domain notification. Origin is set only on events received from
// another instance through the Redis bridge.
type Event struct {
	Name    string                 `json:"name"`
	UserID  uuid.UUID              `json:"user_id"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	At      time.Time              `json:"at"`
	Origin  string                 `json:"origin,omitempty"`
}

type Handler func(ctx context.Context, e Event)

// Publisher is what services depend on.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type subscription struct {
	id      uint64
	handler Handler
}

// Bus dispatches events synchronously, in subscription order, on the
// publisher's goroutine.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[string][]subscription
	all      []subscription
	now      func() time.Time
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]subscription),
		now:      time.Now,
	}
}

// Subscribe registers h for one event name and returns a function that
// removes it.
func (b *Bus) Subscribe(name string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[name] = append(b.handlers[name], subscription{id: id, handler: h})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.handlers[name] = remove(b.handlers[name], id)
		if len(b.handlers[name]) == 0 {
			delete(b.handlers, name)
		}
	}
}

// SubscribeAll registers h for every event.
func (b *Bus) SubscribeAll(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.all = append(b.all, subscription{id: id, handler: h})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.all = remove(b.all, id)
	}
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = b.now()
	}

	b.mu.RLock()
	targets := make([]subscription, 0, len(b.handlers[e.Name])+len(b.all))
	targets = append(targets, b.handlers[e.Name]...)
	targets = append(targets, b.all...)
	b.mu.RUnlock()

	for _, s := range targets {
		b.dispatch(ctx, s.handler, e)
	}
}

func (b *Bus) dispatch(ctx context.Context, h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"event":   e.Name,
				"user_id": e.UserID,
				"panic":   r,
			}).Error("Event handler panicked")
		}
	}()
	h(ctx, e)
}

// HandlerCount reports how many handlers would receive an event with name.
func (b *Bus) HandlerCount(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name]) + len(b.all)
}

func remove(subs []subscription, id uint64) []subscription {
	out := subs[:0:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}
