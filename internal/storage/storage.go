// Package storage persists JSON-serializable values under string keys in a
// local key-value medium.
package storage

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Backend is the raw key/value medium. Values are stored as opaque text.
type Backend interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	All(ctx context.Context) (map[string]string, error)
	// Replace clears the medium and writes entries verbatim.
	Replace(ctx context.Context, entries map[string]string) error
}

// Adapter serializes values to JSON text on top of a Backend.
type Adapter struct {
	backend Backend
	logger  *slog.Logger
}

func New(backend Backend, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{backend: backend, logger: logger.With("module", "storage")}
}

// Save serializes value and writes it under key.
func (a *Adapter) Save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		a.logger.Error("serialize value", "key", key, "error", err)
		return &Error{Op: "save", Key: key, Err: err}
	}
	if err := a.backend.Set(ctx, key, string(data)); err != nil {
		a.logger.Error("write value", "key", key, "error", err)
		return &Error{Op: "save", Key: key, Err: err}
	}
	return nil
}

// Load decodes the text stored under key into dst and reports whether it did.
// A missing key, an unreadable medium and text that is not valid JSON all
// yield false; only the last two are logged. dst may be partially written
// when decoding fails, so callers should pass a fresh value.
func (a *Adapter) Load(ctx context.Context, key string, dst any) bool {
	raw, ok, err := a.backend.Get(ctx, key)
	if err != nil {
		a.logger.Error("read value", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		a.logger.Error("stored value is not valid JSON", "key", key, "error", err)
		return false
	}
	return true
}

// Delete removes key. It returns false only if the medium refused.
func (a *Adapter) Delete(ctx context.Context, key string) bool {
	if err := a.backend.Remove(ctx, key); err != nil {
		a.logger.Error("delete value", "key", key, "error", err)
		return false
	}
	return true
}

// Backup snapshots every key with its raw stored text. The store is not modified.
func (a *Adapter) Backup(ctx context.Context) (map[string]string, error) {
	all, err := a.backend.All(ctx)
	if err != nil {
		a.logger.Error("backup", "error", err)
		return nil, &Error{Op: "backup", Err: err}
	}
	return all, nil
}

// Restore clears the whole store and writes snapshot verbatim. Whether a failed
// restore leaves the old contents depends on the backend.
func (a *Adapter) Restore(ctx context.Context, snapshot map[string]string) error {
	if err := a.backend.Replace(ctx, snapshot); err != nil {
		a.logger.Error("restore", "entries", len(snapshot), "error", err)
		return &Error{Op: "restore", Err: err}
	}
	a.logger.Info("store restored", "entries", len(snapshot))
	return nil
}
