package view_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calendario-local/internal/bus"
	"calendario-local/internal/view"
)

func TestCalendar_DecemberGrid(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	meeting := mustCreate(t, e, "Team Meeting", at(2024, time.December, 15, 10, 0))
	mustCreate(t, e, "Next year", at(2025, time.January, 15, 10, 0))

	cal := view.NewCalendar(ctx, e.events, e.bus, fixedNow(at(2024, time.December, 15, 8, 0)))
	defer cal.Close()

	grid := cal.Grid()
	assert.Equal(t, "Diciembre 2024", grid.Title)
	assert.Equal(t, 0, grid.Leading, "1 December 2024 is a Sunday")
	assert.Equal(t, []string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"}, grid.Weekdays)
	require.Len(t, grid.Days, 31)

	for _, cell := range grid.Days {
		if cell.Day == 15 {
			assert.True(t, cell.Today)
			require.Len(t, cell.Events, 1)
			assert.Equal(t, meeting.ID, cell.Events[0].ID)
			continue
		}
		assert.False(t, cell.Today, "day %d", cell.Day)
		assert.Empty(t, cell.Events, "day %d", cell.Day)
	}
}

func TestCalendar_MonthNavigation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	cal := view.NewCalendar(ctx, e.events, e.bus, fixedNow(at(2024, time.December, 31, 23, 0)))
	defer cal.Close()

	assert.Equal(t, at(2024, time.December, 1, 0, 0), cal.Month())

	cal.NextMonth(ctx)
	assert.Equal(t, "Enero 2025", cal.Grid().Title)
	assert.Equal(t, 3, cal.Grid().Leading, "1 January 2025 is a Wednesday")
	for _, cell := range cal.Grid().Days {
		assert.False(t, cell.Today)
	}

	cal.PreviousMonth(ctx)
	cal.PreviousMonth(ctx)
	assert.Equal(t, "Noviembre 2024", cal.Grid().Title)
	assert.Len(t, cal.Grid().Days, 30)
}

func TestCalendar_RefreshesOnLifecycleEvents(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	cal := view.NewCalendar(ctx, e.events, e.bus, fixedNow(at(2024, time.December, 1, 8, 0)))
	defer cal.Close()

	event := mustCreate(t, e, "A", at(2024, time.December, 3, 9, 0))
	assert.Len(t, cal.Grid().Days[2].Events, 1)

	moved := at(2024, time.December, 4, 9, 0)
	_, err := e.events.Update(ctx, event.ID, serviceDatePatch(moved))
	require.NoError(t, err)
	assert.Empty(t, cal.Grid().Days[2].Events)
	assert.Len(t, cal.Grid().Days[3].Events, 1)

	_, err = e.events.Delete(ctx, event.ID)
	require.NoError(t, err)
	assert.Empty(t, cal.Grid().Days[3].Events)
}

func TestCalendar_CloseStopsRefresh(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	cal := view.NewCalendar(ctx, e.events, e.bus, fixedNow(at(2024, time.December, 1, 8, 0)))
	cal.Close()

	mustCreate(t, e, "A", at(2024, time.December, 3, 9, 0))
	assert.Empty(t, cal.Grid().Days[2].Events)

	cal.Refresh(ctx)
	assert.Len(t, cal.Grid().Days[2].Events, 1)
}

func TestCalendar_SelectDay(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	days := capture(t, e.bus, bus.DayClicked)
	cal := view.NewCalendar(ctx, e.events, e.bus, fixedNow(at(2024, time.December, 1, 8, 0)))
	defer cal.Close()

	assert.True(t, cal.SelectDay(ctx, at(2024, time.December, 15, 13, 45)))
	assert.False(t, cal.SelectDay(ctx, at(2024, time.November, 30, 0, 0)))

	notes := days.all()
	require.Len(t, notes, 1)
	click, ok := notes[0].Payload.(bus.DayClick)
	require.True(t, ok)
	assert.Equal(t, at(2024, time.December, 15, 0, 0), click.Date)
}

func TestCalendar_SelectEventDoesNotClickDay(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	days := capture(t, e.bus, bus.DayClicked)
	clicks := capture(t, e.bus, bus.EventClicked)
	cal := view.NewCalendar(ctx, e.events, e.bus, fixedNow(at(2024, time.December, 1, 8, 0)))
	defer cal.Close()

	cal.SelectEvent(ctx, "abc")

	assert.Empty(t, days.all())
	require.Len(t, clicks.all(), 1)
	assert.Equal(t, bus.EventClick{EventID: "abc"}, clicks.all()[0].Payload)
}
