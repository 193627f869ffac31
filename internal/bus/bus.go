// Package bus is the in-process notification bus that keeps the calendar and
// form views in sync with the event store and with each other.
package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Topic names a notification. The values are part of the observable contract
// between components and must not change.
type Topic string

const (
	EventCreated Topic = "event:created"
	EventUpdated Topic = "event:updated"
	EventDeleted Topic = "event:deleted"

	DayClicked   Topic = "calendar:dayClick"
	EventClicked Topic = "calendar:eventClick"
)

// DayClick is the payload of DayClicked.
type DayClick struct {
	Date time.Time
}

// EventClick is the payload of EventClicked.
type EventClick struct {
	EventID string
}

// Notification is what handlers receive.
type Notification struct {
	Topic   Topic
	Payload any
}

// Handler consumes a notification. A returned error is logged only.
type Handler func(ctx context.Context, n Notification) error

type subscription struct {
	id     uint64
	handle Handler
}

// Bus dispatches notifications synchronously: Emit returns only after every
// subscribed handler has run, in subscription order.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[Topic][]subscription
	logger   *slog.Logger
}

func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		handlers: make(map[Topic][]subscription),
		logger:   logger.With("module", "bus"),
	}
}

// Subscribe registers handler for topic and returns a function that removes it.
func (b *Bus) Subscribe(topic Topic, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[topic] = append(b.handlers[topic], subscription{id: id, handle: handler})

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(topic, id) })
	}
}

// SubscribeMany registers the same handler for several topics.
func (b *Bus) SubscribeMany(topics []Topic, handler Handler) (unsubscribe func()) {
	unsubs := make([]func(), 0, len(topics))
	for _, topic := range topics {
		unsubs = append(unsubs, b.Subscribe(topic, handler))
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

func (b *Bus) unsubscribe(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[topic]
	for i, s := range subs {
		if s.id == id {
			b.handlers[topic] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Emit broadcasts payload under topic. It is fire-and-forget: handler failures
// are logged and never reach the emitter.
func (b *Bus) Emit(ctx context.Context, topic Topic, payload any) {
	b.mu.RLock()
	subs := make([]subscription, len(b.handlers[topic]))
	copy(subs, b.handlers[topic])
	b.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	n := Notification{Topic: topic, Payload: payload}
	b.logger.Debug("emit", "topic", topic, "handlers", len(subs))
	for _, s := range subs {
		if err := b.dispatch(ctx, s.handle, n); err != nil {
			b.logger.Error("handler failed", "topic", topic, "error", err)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, handle Handler, n Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handle(ctx, n)
}
