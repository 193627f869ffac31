package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"calendario-local/internal/model"
)

// EntryRepository stores raw key/value text in the entries table.
type EntryRepository struct {
	db *gorm.DB
}

func NewEntryRepository(db *gorm.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// Get returns the stored text for key. ok is false when the key was never written.
func (r *EntryRepository) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	var entry model.Entry
	err = r.db.WithContext(ctx).Where("storage_key = ?", key).First(&entry).Error
	switch {
	case err == nil:
		return entry.Value, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", false, nil
	default:
		return "", false, fmt.Errorf("find entry: %w", err)
	}
}

// Set inserts or overwrites the value under key.
func (r *EntryRepository) Set(ctx context.Context, key, value string) error {
	entry := model.Entry{Key: key, Value: value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("save entry: %w", err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (r *EntryRepository) Remove(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("storage_key = ?", key).Delete(&model.Entry{}).Error; err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// All returns every key with its raw value.
func (r *EntryRepository) All(ctx context.Context) (map[string]string, error) {
	var entries []model.Entry
	if err := r.db.WithContext(ctx).Order("storage_key ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.Key] = e.Value
	}
	return out, nil
}

// Replace clears the table and writes entries in one transaction.
func (r *EntryRepository) Replace(ctx context.Context, entries map[string]string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Entry{}).Error; err != nil {
			return fmt.Errorf("clear entries: %w", err)
		}
		for key, value := range entries {
			if err := tx.Create(&model.Entry{Key: key, Value: value}).Error; err != nil {
				return fmt.Errorf("restore entry %q: %w", key, err)
			}
		}
		return nil
	})
}

// Ping checks that the underlying database answers.
func (r *EntryRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
