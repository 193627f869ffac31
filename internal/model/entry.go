package model

import "time"

// Entry is one key/value row of the local store. Value holds the raw
// serialized text exactly as it was written.
type Entry struct {
	Key       string `gorm:"primaryKey;column:storage_key"`
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
