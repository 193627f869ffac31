// Package dates holds the calendar arithmetic and formatting shared by the views.
// All functions are pure; time.Time is a value so inputs are never modified.
package dates

import (
	"fmt"
	"strings"
	"time"
)

// InputLayout is the layout of editable date-time fields.
const InputLayout = "2006-01-02T15:04"

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

var weekdayLabels = [...]string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"}

// FirstDayOfMonth returns midnight of day 1 of t's month.
func FirstDayOfMonth(t time.Time) time.Time {
	year, month, _ := t.Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
}

// LastDayOfMonth returns midnight of the last day of t's month.
func LastDayOfMonth(t time.Time) time.Time {
	year, month, _ := t.Date()
	// Day 0 of next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, t.Location())
}

// DaysInMonth returns every day of t's month at midnight, ascending.
func DaysInMonth(t time.Time) []time.Time {
	year, month, _ := t.Date()
	last := LastDayOfMonth(t).Day()

	days := make([]time.Time, 0, last)
	for d := 1; d <= last; d++ {
		days = append(days, time.Date(year, month, d, 0, 0, 0, 0, t.Location()))
	}
	return days
}

// AddMonths moves the first day of t's month by n months. Year boundaries roll over.
func AddMonths(t time.Time, n int) time.Time {
	return FirstDayOfMonth(t).AddDate(0, n, 0)
}

// SameDay reports whether a and b fall on the same local calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}

// FormatForInput renders t as YYYY-MM-DDTHH:MM in local time.
func FormatForInput(t time.Time) string {
	return t.Local().Format(InputLayout)
}

// FormatForDisplay renders t in long Spanish form, e.g. "15 de diciembre de 2024, 10:30".
func FormatForDisplay(t time.Time) string {
	l := t.Local()
	return fmt.Sprintf("%d de %s de %d, %02d:%02d", l.Day(), monthNames[l.Month()-1], l.Year(), l.Hour(), l.Minute())
}

// MonthTitle renders the heading of a month grid, e.g. "Diciembre 2024".
func MonthTitle(t time.Time) string {
	name := monthNames[t.Month()-1]
	return fmt.Sprintf("%s%s %d", strings.ToUpper(name[:1]), name[1:], t.Year())
}

// WeekdayLabels returns the column headings of the grid, starting on Sunday.
func WeekdayLabels() []string {
	return append([]string(nil), weekdayLabels[:]...)
}
