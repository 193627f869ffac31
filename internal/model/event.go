package model

import "time"

// Event is a single calendar entry. It is persisted as one element of the
// JSON array stored under the events key.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Reminder    *Reminder `json:"reminder"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Reminder is stored with the event; nothing schedules or delivers it.
type Reminder struct {
	Enabled bool `json:"enabled"`
	Time    int  `json:"time"` // minutes before the event
}

// DefaultReminderMinutes is used when a reminder is switched on without a usable lead time.
const DefaultReminderMinutes = 30
