package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"calendario-local/internal/bus"
	"calendario-local/internal/service"
	"calendario-local/internal/storage"
)

var errQuota = errors.New("quota exceeded")

// readOnlyBackend serves reads from memory and rejects every write.
type readOnlyBackend struct {
	*storage.MemoryBackend
}

func (readOnlyBackend) Set(context.Context, string, string) error { return errQuota }
func (readOnlyBackend) Remove(context.Context, string) error      { return errQuota }

// recorder collects every lifecycle notification published on a bus.
type recorder struct {
	mu    sync.Mutex
	notes []bus.Notification
}

func (r *recorder) handle(_ context.Context, n bus.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
	return nil
}

func (r *recorder) all() []bus.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bus.Notification(nil), r.notes...)
}

// stepClock returns base, base+1m, base+2m, ... on successive calls.
func stepClock(base time.Time) func() time.Time {
	var mu sync.Mutex
	n := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := base.Add(time.Duration(n) * time.Minute)
		n++
		return t
	}
}

type fixture struct {
	svc     *service.EventService
	store   *storage.Adapter
	backend storage.Backend
	events  *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithBackend(t, storage.NewMemoryBackend())
}

func newFixtureWithBackend(t *testing.T, backend storage.Backend) *fixture {
	t.Helper()

	b := bus.New(nil)
	rec := &recorder{}
	unsubscribe := b.SubscribeMany([]bus.Topic{bus.EventCreated, bus.EventUpdated, bus.EventDeleted}, rec.handle)
	t.Cleanup(unsubscribe)

	store := storage.New(backend, nil)
	base := time.Date(2024, time.December, 1, 8, 0, 0, 0, time.Local)
	svc := service.NewEventService(store, b, service.DefaultEventsKey, service.WithClock(stepClock(base)))
	return &fixture{svc: svc, store: store, backend: backend, events: rec}
}

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.Local)
}

func ptr[T any](v T) *T { return &v }
