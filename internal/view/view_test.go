package view_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"calendario-local/internal/bus"
	"calendario-local/internal/model"
	"calendario-local/internal/service"
	"calendario-local/internal/storage"
	"calendario-local/internal/view"
)

type env struct {
	bus    *bus.Bus
	events *service.EventService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	b := bus.New(nil)
	store := storage.New(storage.NewMemoryBackend(), nil)
	return &env{bus: b, events: service.NewEventService(store, b, service.DefaultEventsKey)}
}

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.Local)
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func mustCreate(t *testing.T, e *env, title string, date time.Time) model.Event {
	t.Helper()
	event, err := e.events.Create(context.Background(), service.EventInput{Title: title, Date: date})
	if err != nil {
		t.Fatalf("create %q: %v", title, err)
	}
	return event
}

// captured records the notifications of one topic.
type captured struct {
	mu    sync.Mutex
	notes []bus.Notification
}

func capture(t *testing.T, b *bus.Bus, topic bus.Topic) *captured {
	t.Helper()
	c := &captured{}
	unsubscribe := b.Subscribe(topic, func(_ context.Context, n bus.Notification) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.notes = append(c.notes, n)
		return nil
	})
	t.Cleanup(unsubscribe)
	return c
}

func (c *captured) all() []bus.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]bus.Notification(nil), c.notes...)
}

var errDiskFull = errors.New("disk full")

// failingDeletes wraps a store whose deletes always fail.
type failingDeletes struct {
	*service.EventService
}

func (failingDeletes) Delete(context.Context, string) (bool, error) { return false, errDiskFull }

func serviceDatePatch(d time.Time) service.EventPatch {
	return service.EventPatch{Date: &d}
}

var _ view.EventStore = failingDeletes{}
