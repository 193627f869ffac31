// Package view holds the state behind the calendar grid and the event form.
// Views are driven from a single interaction goroutine and are not safe for
// concurrent use.
package view

import (
	"context"
	"log/slog"
	"time"

	"calendario-local/internal/bus"
	"calendario-local/internal/dates"
	"calendario-local/internal/model"
)

// EventSource reads the events collection.
type EventSource interface {
	GetAll(ctx context.Context) []model.Event
}

// DayCell is one day of the displayed month.
type DayCell struct {
	Date   time.Time
	Day    int
	Today  bool
	Events []model.Event
}

// MonthGrid is the rendered calendar.
type MonthGrid struct {
	Title    string
	Month    time.Time
	Weekdays []string
	// Leading is the number of blank cells before day 1, 0 for Sunday.
	Leading int
	Days    []DayCell
}

// Calendar renders a month of events and publishes day and event selections.
type Calendar struct {
	events      EventSource
	bus         *bus.Bus
	now         func() time.Time
	month       time.Time
	grid        MonthGrid
	unsubscribe func()
	logger      *slog.Logger
}

// NewCalendar shows the month containing now() and re-renders whenever an
// event is created, updated or deleted.
func NewCalendar(ctx context.Context, events EventSource, b *bus.Bus, now func() time.Time) *Calendar {
	if now == nil {
		now = time.Now
	}
	c := &Calendar{
		events: events,
		bus:    b,
		now:    now,
		month:  dates.FirstDayOfMonth(now()),
		logger: slog.Default().With("module", "calendar"),
	}
	c.unsubscribe = b.SubscribeMany(
		[]bus.Topic{bus.EventCreated, bus.EventUpdated, bus.EventDeleted},
		func(ctx context.Context, _ bus.Notification) error {
			c.Refresh(ctx)
			return nil
		},
	)
	c.Refresh(ctx)
	return c
}

// Month is the first day of the displayed month.
func (c *Calendar) Month() time.Time {
	return c.month
}

// Grid returns the last render.
func (c *Calendar) Grid() MonthGrid {
	return c.grid
}

// Refresh re-reads every event and rebuilds the grid.
func (c *Calendar) Refresh(ctx context.Context) {
	all := c.events.GetAll(ctx)
	today := c.now()

	days := dates.DaysInMonth(c.month)
	cells := make([]DayCell, 0, len(days))
	for _, d := range days {
		cell := DayCell{Date: d, Day: d.Day(), Today: dates.SameDay(d, today)}
		for _, e := range all {
			if dates.SameDay(e.Date, d) {
				cell.Events = append(cell.Events, e)
			}
		}
		cells = append(cells, cell)
	}

	c.grid = MonthGrid{
		Title:    dates.MonthTitle(c.month),
		Month:    c.month,
		Weekdays: dates.WeekdayLabels(),
		Leading:  int(c.month.Weekday()),
		Days:     cells,
	}
}

func (c *Calendar) PreviousMonth(ctx context.Context) {
	c.month = dates.AddMonths(c.month, -1)
	c.Refresh(ctx)
}

func (c *Calendar) NextMonth(ctx context.Context) {
	c.month = dates.AddMonths(c.month, 1)
	c.Refresh(ctx)
}

// SelectDay publishes a day click for a day of the displayed month. Dates
// outside it correspond to blank cells and are ignored.
func (c *Calendar) SelectDay(ctx context.Context, day time.Time) bool {
	if day.Year() != c.month.Year() || day.Month() != c.month.Month() {
		c.logger.Debug("day outside displayed month", "day", day.Format("2006-01-02"))
		return false
	}
	date := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	c.bus.Emit(ctx, bus.DayClicked, bus.DayClick{Date: date})
	return true
}

// SelectEvent publishes an event click. It never implies a day click.
func (c *Calendar) SelectEvent(ctx context.Context, id string) {
	c.bus.Emit(ctx, bus.EventClicked, bus.EventClick{EventID: id})
}

// Close drops the bus subscriptions.
func (c *Calendar) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}
