package view

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"calendario-local/internal/bus"
	"calendario-local/internal/dates"
	"calendario-local/internal/model"
	"calendario-local/internal/service"
)

// UpcomingLimit is the length of the upcoming events list.
const UpcomingLimit = 10

const (
	headingCreate = "Nuevo Evento"
	headingEdit   = "Editar Evento"

	noticeCreated = "Evento creado correctamente"
	noticeUpdated = "Evento actualizado correctamente"
	noticeDeleted = "Evento eliminado correctamente"
)

// EventStore is the part of the event service the form drives.
type EventStore interface {
	EventSource
	GetByID(ctx context.Context, id string) (model.Event, bool)
	Validate(input service.EventInput) error
	Create(ctx context.Context, input service.EventInput) (model.Event, error)
	Update(ctx context.Context, id string, patch service.EventPatch) (model.Event, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// CategorySource lists the categories offered by the form.
type CategorySource interface {
	List(ctx context.Context) []string
}

// Mode tells whether the form creates a new event or edits the current one.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Values are the raw form fields, as typed by the user.
type Values struct {
	Title           string
	Date            string
	Description     string
	Category        string
	ReminderEnabled bool
	ReminderTime    string
}

// State is everything needed to render the form and the upcoming list.
type State struct {
	Mode           Mode
	Heading        string
	CanDelete      bool
	ConfirmPending bool
	EventID        string
	Values         Values
	Notice         string
	Error          string
	Categories     []string
	Upcoming       []model.Event
}

// Form is the create/edit form plus the upcoming events list.
type Form struct {
	events      EventStore
	categories  CategorySource
	current     *model.Event
	values      Values
	confirm     bool
	notice      string
	err         string
	unsubscribe func()
	logger      *slog.Logger
}

// NewForm starts in create mode and follows day and event clicks published on b.
func NewForm(events EventStore, categories CategorySource, b *bus.Bus) *Form {
	f := &Form{
		events:     events,
		categories: categories,
		values:     blankValues(),
		logger:     slog.Default().With("module", "form"),
	}

	unsubDay := b.Subscribe(bus.DayClicked, func(_ context.Context, n bus.Notification) error {
		click, ok := n.Payload.(bus.DayClick)
		if !ok {
			return errors.New("unexpected day click payload")
		}
		f.SetDate(click.Date)
		return nil
	})
	unsubEvent := b.Subscribe(bus.EventClicked, func(ctx context.Context, n bus.Notification) error {
		click, ok := n.Payload.(bus.EventClick)
		if !ok {
			return errors.New("unexpected event click payload")
		}
		f.Edit(ctx, click.EventID)
		return nil
	})
	f.unsubscribe = func() {
		unsubDay()
		unsubEvent()
	}
	return f
}

func blankValues() Values {
	return Values{
		Category:     model.DefaultCategory,
		ReminderTime: strconv.Itoa(model.DefaultReminderMinutes),
	}
}

func valuesFrom(e model.Event) Values {
	v := Values{
		Title:        e.Title,
		Date:         dates.FormatForInput(e.Date),
		Description:  e.Description,
		Category:     e.Category,
		ReminderTime: strconv.Itoa(model.DefaultReminderMinutes),
	}
	if e.Reminder != nil {
		v.ReminderEnabled = e.Reminder.Enabled
		v.ReminderTime = strconv.Itoa(e.Reminder.Time)
	}
	return v
}

func (f *Form) Mode() Mode {
	if f.current != nil {
		return ModeEdit
	}
	return ModeCreate
}

// State renders the form. The upcoming list is recomputed on every call.
func (f *Form) State(ctx context.Context) State {
	s := State{
		Mode:           f.Mode(),
		Heading:        headingCreate,
		ConfirmPending: f.confirm,
		Values:         f.values,
		Notice:         f.notice,
		Error:          f.err,
		Upcoming:       upcoming(f.events.GetAll(ctx), UpcomingLimit),
	}
	if f.current != nil {
		s.Heading = headingEdit
		s.CanDelete = true
		s.EventID = f.current.ID
	}
	if f.categories != nil {
		s.Categories = f.categories.List(ctx)
	} else {
		s.Categories = model.Categories()
	}
	return s
}

// upcoming returns the first limit events by ascending date.
func upcoming(events []model.Event, limit int) []model.Event {
	sorted := append([]model.Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// DismissNotice clears the last acknowledgment and error once shown.
func (f *Form) DismissNotice() {
	f.notice = ""
	f.err = ""
}

// Submit creates or updates the event described by v. On failure the error is
// kept for display, v stays in the form and the mode does not change.
func (f *Form) Submit(ctx context.Context, v Values) error {
	f.DismissNotice()
	f.confirm = false

	input, err := f.candidate(v)
	if err != nil {
		return f.fail(v, err)
	}

	if f.current == nil {
		if _, err := f.events.Create(ctx, input); err != nil {
			return f.fail(v, err)
		}
		f.reset()
		f.notice = noticeCreated
		return nil
	}

	patch := service.EventPatch{
		Title:       &input.Title,
		Date:        &input.Date,
		Description: &input.Description,
		Category:    &input.Category,
		Reminder:    input.Reminder,
	}
	patch.ClearReminder = input.Reminder == nil
	if _, err := f.events.Update(ctx, f.current.ID, patch); err != nil {
		return f.fail(v, err)
	}
	f.reset()
	f.notice = noticeUpdated
	return nil
}

func (f *Form) candidate(v Values) (service.EventInput, error) {
	input := service.EventInput{
		Title:       v.Title,
		Description: v.Description,
		Category:    v.Category,
	}
	if v.ReminderEnabled {
		input.Reminder = &model.Reminder{Enabled: true, Time: reminderMinutes(v.ReminderTime)}
	}

	// Title problems are reported before date problems.
	if strings.TrimSpace(v.Title) == "" {
		return input, f.events.Validate(input)
	}
	date, err := service.ParseDate(v.Date)
	if err != nil {
		return input, err
	}
	input.Date = date
	return input, nil
}

// reminderMinutes reads the leading integer of raw ("15", " 15 min", "-5").
// Text without one, or a zero, falls back to the default lead time.
func reminderMinutes(raw string) int {
	raw = strings.TrimSpace(raw)
	end := 0
	if end < len(raw) && (raw[end] == '-' || raw[end] == '+') {
		end++
	}
	digits := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == digits {
		return model.DefaultReminderMinutes
	}
	n, err := strconv.Atoi(raw[:end])
	if err != nil || n == 0 {
		return model.DefaultReminderMinutes
	}
	return n
}

func (f *Form) fail(v Values, err error) error {
	f.values = v
	f.err = err.Error()
	f.logger.Warn("form action failed", "mode", f.Mode(), "error", err)
	return err
}

// RequestDelete asks for confirmation before deleting the current event.
func (f *Form) RequestDelete() {
	if f.current == nil {
		return
	}
	f.DismissNotice()
	f.confirm = true
}

// ConfirmDelete answers the pending confirmation. Declining only clears it.
func (f *Form) ConfirmDelete(ctx context.Context, confirmed bool) error {
	pending := f.confirm
	f.confirm = false
	if !confirmed || !pending || f.current == nil {
		return nil
	}

	if _, err := f.events.Delete(ctx, f.current.ID); err != nil {
		f.err = err.Error()
		f.logger.Warn("delete failed", "id", f.current.ID, "error", err)
		return err
	}
	f.reset()
	f.notice = noticeDeleted
	return nil
}

// Cancel discards the form and returns to create mode.
func (f *Form) Cancel() {
	f.DismissNotice()
	f.reset()
}

// Edit loads the event with id. An unknown id leaves the form untouched.
func (f *Form) Edit(ctx context.Context, id string) bool {
	event, ok := f.events.GetByID(ctx, id)
	if !ok {
		f.logger.Debug("edit of unknown event ignored", "id", id)
		return false
	}
	f.DismissNotice()
	f.confirm = false
	f.current = &event
	f.values = valuesFrom(event)
	return true
}

// SetDate switches to create mode with the date field set to day.
func (f *Form) SetDate(day time.Time) {
	f.DismissNotice()
	f.reset()
	f.values.Date = dates.FormatForInput(day)
}

func (f *Form) reset() {
	f.current = nil
	f.confirm = false
	f.values = blankValues()
}

// Close drops the bus subscriptions.
func (f *Form) Close() {
	if f.unsubscribe != nil {
		f.unsubscribe()
		f.unsubscribe = nil
	}
}
