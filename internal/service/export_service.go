package service

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"calendario-local/internal/model"
)

// DefaultEventDuration is used for DTEND since events only carry a start.
const DefaultEventDuration = time.Hour

const productID = "-//calendario-local//ES"

// ExportService renders events as iCalendar.
type ExportService struct {
	duration time.Duration
	now      func() time.Time
}

func NewExportService(duration time.Duration) *ExportService {
	if duration <= 0 {
		duration = DefaultEventDuration
	}
	return &ExportService{duration: duration, now: time.Now}
}

// ICS returns one VEVENT per event. Enabled reminders become DISPLAY alarms.
func (s *ExportService) ICS(events []model.Event) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	stamp := s.now().UTC()
	for _, e := range events {
		ve := cal.AddEvent(e.ID)
		ve.SetDtStampTime(stamp)
		if !e.CreatedAt.IsZero() {
			ve.SetCreatedTime(e.CreatedAt.UTC())
		}
		if !e.UpdatedAt.IsZero() {
			ve.SetModifiedAt(e.UpdatedAt.UTC())
		}
		ve.SetStartAt(e.Date.UTC())
		ve.SetEndAt(e.Date.Add(s.duration).UTC())
		ve.SetSummary(e.Title)
		if desc := strings.TrimSpace(e.Description); desc != "" {
			ve.SetDescription(desc)
		}
		if e.Category != "" {
			ve.AddProperty(ical.ComponentPropertyCategories, e.Category)
		}

		if e.Reminder != nil && e.Reminder.Enabled {
			minutes := e.Reminder.Time
			if minutes <= 0 {
				minutes = model.DefaultReminderMinutes
			}
			alarm := ve.AddAlarm()
			alarm.SetAction(ical.ActionDisplay)
			alarm.SetTrigger(fmt.Sprintf("-PT%dM", minutes))
			alarm.SetProperty(ical.ComponentPropertyDescription, e.Title)
		}
	}
	return cal.Serialize()
}
