package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"calendario-local/internal/bus"
	"calendario-local/internal/model"
	"calendario-local/internal/storage"
)

// DefaultEventsKey is the storage key holding the events collection.
const DefaultEventsKey = "calendario_events"

var dateLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Emitter publishes lifecycle notifications.
type Emitter interface {
	Emit(ctx context.Context, topic bus.Topic, payload any)
}

// EventInput represents data required to create an event.
type EventInput struct {
	Title       string
	Date        time.Time
	Description string
	Category    string
	Reminder    *model.Reminder
}

// EventPatch holds the fields to overwrite on update. Nil fields are left as stored.
type EventPatch struct {
	Title         *string
	Date          *time.Time
	Description   *string
	Category      *string
	Reminder      *model.Reminder
	ClearReminder bool
}

// ListFilter narrows List. Zero fields impose no constraint.
type ListFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Category  string
}

// EventService owns the events collection. Every call reads the whole
// collection from storage and every mutation writes the whole collection back.
type EventService struct {
	store  *storage.Adapter
	events Emitter
	key    string
	now    func() time.Time
	logger *slog.Logger
}

// EventOption customizes an EventService.
type EventOption func(*EventService)

// WithClock replaces time.Now for createdAt/updatedAt stamps.
func WithClock(now func() time.Time) EventOption {
	return func(s *EventService) { s.now = now }
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(logger *slog.Logger) EventOption {
	return func(s *EventService) { s.logger = logger }
}

func NewEventService(store *storage.Adapter, events Emitter, key string, opts ...EventOption) *EventService {
	if key == "" {
		key = DefaultEventsKey
	}
	s := &EventService{
		store:  store,
		events: events,
		key:    key,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("module", "events")
	return s
}

// GenerateID returns a UUIDv7: a millisecond timestamp prefix and a random
// suffix. Uniqueness is probabilistic; the collection is not checked.
func (s *EventService) GenerateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Validate checks that input has a non-blank title and a date.
func (s *EventService) Validate(input EventInput) error {
	return validateFields(input.Title, input.Date)
}

func validateFields(title string, date time.Time) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if date.IsZero() {
		return &ValidationError{Field: "date", Message: "date must be a valid date-time"}
	}
	return nil
}

// ParseDate turns user-entered text into a local date-time.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, &ValidationError{Field: "date", Message: "date is required"}
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, &ValidationError{Field: "date", Message: fmt.Sprintf("%q is not a valid date-time", raw)}
}

// Create validates input, stores a new event and emits event:created.
func (s *EventService) Create(ctx context.Context, input EventInput) (model.Event, error) {
	if err := s.Validate(input); err != nil {
		return model.Event{}, err
	}

	now := s.now().Round(0)
	event := model.Event{
		ID:          s.GenerateID(),
		Title:       input.Title,
		Date:        input.Date,
		Description: input.Description,
		Category:    input.Category,
		Reminder:    input.Reminder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if event.Category == "" {
		event.Category = model.DefaultCategory
	}
	event = normalizeTimes(event)

	events := s.GetAll(ctx)
	events = append(events, event)
	if err := s.persist(ctx, events); err != nil {
		return model.Event{}, err
	}

	s.logger.Info("event created", "id", event.ID, "date", event.Date.Format(time.RFC3339))
	s.events.Emit(ctx, bus.EventCreated, event)
	return event, nil
}

// GetAll returns the stored collection, or an empty one if nothing usable is stored.
func (s *EventService) GetAll(ctx context.Context) []model.Event {
	var events []model.Event
	if !s.store.Load(ctx, s.key, &events) || events == nil {
		return []model.Event{}
	}
	for i := range events {
		events[i] = normalizeTimes(events[i])
	}
	return events
}

// normalizeTimes puts every timestamp in local time without a monotonic
// reading, which is the form a record has after a trip through storage.
func normalizeTimes(e model.Event) model.Event {
	e.Date = e.Date.Round(0).Local()
	e.CreatedAt = e.CreatedAt.Round(0).Local()
	e.UpdatedAt = e.UpdatedAt.Round(0).Local()
	return e
}

// GetByID returns the first event with id.
func (s *EventService) GetByID(ctx context.Context, id string) (model.Event, bool) {
	if id == "" {
		return model.Event{}, false
	}
	for _, e := range s.GetAll(ctx) {
		if e.ID == id {
			return e, true
		}
	}
	return model.Event{}, false
}

// Update merges patch into the stored event and emits event:updated. The
// merged record is re-validated only when the patch carries a date.
func (s *EventService) Update(ctx context.Context, id string, patch EventPatch) (model.Event, error) {
	events := s.GetAll(ctx)
	index := indexOf(events, id)
	if index < 0 {
		return model.Event{}, &NotFoundError{ID: id}
	}

	updated := events[index]
	if patch.Title != nil {
		updated.Title = *patch.Title
	}
	if patch.Date != nil {
		updated.Date = *patch.Date
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	if patch.Category != nil {
		updated.Category = *patch.Category
	}
	switch {
	case patch.ClearReminder:
		updated.Reminder = nil
	case patch.Reminder != nil:
		r := *patch.Reminder
		updated.Reminder = &r
	}
	updated.ID = events[index].ID
	updated.UpdatedAt = s.now().Round(0)
	updated = normalizeTimes(updated)

	if patch.Date != nil {
		if err := validateFields(updated.Title, updated.Date); err != nil {
			return model.Event{}, err
		}
	}

	events[index] = updated
	if err := s.persist(ctx, events); err != nil {
		return model.Event{}, err
	}

	s.logger.Info("event updated", "id", id)
	s.events.Emit(ctx, bus.EventUpdated, updated)
	return updated, nil
}

// Delete removes the event and emits event:deleted with the removed record.
func (s *EventService) Delete(ctx context.Context, id string) (bool, error) {
	events := s.GetAll(ctx)
	index := indexOf(events, id)
	if index < 0 {
		return false, &NotFoundError{ID: id}
	}

	removed := events[index]
	events = append(events[:index], events[index+1:]...)
	if err := s.persist(ctx, events); err != nil {
		return false, err
	}

	s.logger.Info("event deleted", "id", id)
	s.events.Emit(ctx, bus.EventDeleted, removed)
	return true, nil
}

// List returns the events matching every set filter, in stored order.
func (s *EventService) List(ctx context.Context, filter ListFilter) []model.Event {
	all := s.GetAll(ctx)
	out := make([]model.Event, 0, len(all))
	for _, e := range all {
		if filter.StartDate != nil && e.Date.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && e.Date.After(*filter.EndDate) {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (s *EventService) persist(ctx context.Context, events []model.Event) error {
	if err := s.store.Save(ctx, s.key, events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	return nil
}

func indexOf(events []model.Event, id string) int {
	for i, e := range events {
		if e.ID == id {
			return i
		}
	}
	return -1
}
