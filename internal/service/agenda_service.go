package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"calendario-local/internal/dates"
	"calendario-local/internal/model"
)

// DefaultAgendaDays is how far ahead the agenda looks after today.
const DefaultAgendaDays = 7

// AgendaService builds human-readable summaries of upcoming events.
type AgendaService struct {
	days int
}

func NewAgendaService(days int) *AgendaService {
	if days <= 0 {
		days = DefaultAgendaDays
	}
	return &AgendaService{days: days}
}

// Summary lists the events of today and of the following days, soonest first.
// Events earlier than today are left out.
func (s *AgendaService) Summary(events []model.Event, now time.Time) string {
	loc := now.Location()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	startOfTomorrow := startOfToday.AddDate(0, 0, 1)
	horizon := startOfToday.AddDate(0, 0, s.days+1)

	var today, upcoming []model.Event
	for _, e := range events {
		d := e.Date.In(loc)
		switch {
		case d.Before(startOfToday):
		case d.Before(startOfTomorrow):
			today = append(today, e)
		case d.Before(horizon):
			upcoming = append(upcoming, e)
		}
	}
	sortByDate(today)
	sortByDate(upcoming)

	var builder strings.Builder
	builder.WriteString("Agenda\n")
	builder.WriteString(fmt.Sprintf("%s\n\n", dates.FormatForDisplay(now)))

	builder.WriteString("Hoy\n")
	if len(today) == 0 {
		builder.WriteString("- sin eventos\n")
	} else {
		for _, e := range today {
			builder.WriteString(formatAgendaEvent(e, loc, false))
		}
	}

	builder.WriteString(fmt.Sprintf("\nPróximos %d días\n", s.days))
	if len(upcoming) == 0 {
		builder.WriteString("- sin eventos\n")
	} else {
		for _, e := range upcoming {
			builder.WriteString(formatAgendaEvent(e, loc, true))
		}
	}

	return strings.TrimSpace(builder.String())
}

func formatAgendaEvent(e model.Event, loc *time.Location, withDay bool) string {
	var sb strings.Builder

	d := e.Date.In(loc)
	when := d.Format("15:04")
	if withDay {
		when = dates.FormatForDisplay(d)
	}
	sb.WriteString(fmt.Sprintf("- %s %s", when, strings.TrimSpace(e.Title)))

	if c := strings.TrimSpace(e.Category); c != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", c))
	}
	if e.Reminder != nil && e.Reminder.Enabled {
		sb.WriteString(fmt.Sprintf("\n  recordatorio %d min antes", e.Reminder.Time))
	}
	if desc := strings.TrimSpace(e.Description); desc != "" {
		sb.WriteString(fmt.Sprintf("\n  %s", desc))
	}

	sb.WriteByte('\n')
	return sb.String()
}

// sortByDate orders events by ascending date, keeping stored order on ties.
func sortByDate(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
}
