package storage_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calendario-local/internal/repository"
	"calendario-local/internal/storage"
)

// failingBackend rejects every write, like a full quota.
type failingBackend struct {
	*storage.MemoryBackend
	err error
}

func (f failingBackend) Set(context.Context, string, string) error { return f.err }
func (f failingBackend) Remove(context.Context, string) error { return f.err }
func (f failingBackend) All(context.Context) (map[string]string, error) { return nil, f.err }
func (f failingBackend) Replace(context.Context, map[string]string) error { return f.err }

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestAdapter_SaveLoad(t *testing.T) {
	a := storage.New(storage.NewMemoryBackend(), nil)
	ctx := context.Background()

	require.NoError(t, a.Save(ctx, "k", []sample{{Name: "a", Count: 1}}))

	var got []sample
	require.True(t, a.Load(ctx, "k", &got))
	assert.Equal(t, []sample{{Name: "a", Count: 1}}, got)
}

func TestAdapter_LoadMissingKey(t *testing.T) {
	a := storage.New(storage.NewMemoryBackend(), nil)

	var got []sample
	assert.False(t, a.Load(context.Background(), "never-written", &got))
	assert.Nil(t, got)
}

func TestAdapter_LoadCorruptText(t *testing.T) {
	backend := storage.NewMemoryBackend()
	ctx := context.Background()
	require.NoError(t, backend.Set(ctx, "k", "{not json"))

	a := storage.New(backend, nil)
	var got []sample
	assert.False(t, a.Load(ctx, "k", &got), "corrupt text degrades to absent")
}

func TestAdapter_SaveUnserializable(t *testing.T) {
	a := storage.New(storage.NewMemoryBackend(), nil)

	err := a.Save(context.Background(), "k", math.Inf(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrStorage))

	var serr *storage.Error
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "save", serr.Op)
	assert.Equal(t, "k", serr.Key)
}

func TestAdapter_WriteRejected(t *testing.T) {
	quota := errors.New("quota exceeded")
	a := storage.New(failingBackend{MemoryBackend: storage.NewMemoryBackend(), err: quota}, nil)
	ctx := context.Background()

	err := a.Save(ctx, "k", 1)
	assert.ErrorIs(t, err, storage.ErrStorage)
	assert.ErrorIs(t, err, quota)

	assert.False(t, a.Delete(ctx, "k"))

	_, err = a.Backup(ctx)
	assert.ErrorIs(t, err, storage.ErrStorage)

	assert.ErrorIs(t, a.Restore(ctx, map[string]string{"a": "1"}), storage.ErrStorage)
}

func TestAdapter_DeleteIsIdempotent(t *testing.T) {
	a := storage.New(storage.NewMemoryBackend(), nil)
	ctx := context.Background()

	require.NoError(t, a.Save(ctx, "k", "v"))
	assert.True(t, a.Delete(ctx, "k"))
	assert.True(t, a.Delete(ctx, "k"))

	var v string
	assert.False(t, a.Load(ctx, "k", &v))
}

func TestAdapter_BackupRestore(t *testing.T) {
	a := storage.New(storage.NewMemoryBackend(), nil)
	ctx := context.Background()

	require.NoError(t, a.Save(ctx, "a", []int{1, 2}))
	require.NoError(t, a.Save(ctx, "b", "text"))

	snap, err := a.Backup(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "[1,2]", "b": `"text"`}, snap)

	// Backup does not modify the store.
	var nums []int
	require.True(t, a.Load(ctx, "a", &nums))

	require.NoError(t, a.Save(ctx, "c", true))
	require.NoError(t, a.Restore(ctx, map[string]string{"a": "[3]"}))

	after, err := a.Backup(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "[3]"}, after, "restore clears keys not in the snapshot")
}

func TestAdapter_SQLiteBackend(t *testing.T) {
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	var backend storage.Backend = repository.NewEntryRepository(db)
	a := storage.New(backend, nil)
	ctx := context.Background()

	require.NoError(t, a.Save(ctx, "events", []sample{{Name: "x", Count: 2}}))

	var got []sample
	require.True(t, a.Load(ctx, "events", &got))
	assert.Equal(t, []sample{{Name: "x", Count: 2}}, got)

	snap, err := a.Backup(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[{"name":"x","count":2}]`, snap["events"])
}
