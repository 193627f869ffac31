package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"calendario-local/internal/fileutil"
	"calendario-local/internal/storage"
)

const (
	snapshotPrefix = "calendario-"
	snapshotSuffix = ".json"
	snapshotLayout = "20060102-150405"
)

// BackupService writes and reads whole-store snapshots as JSON files.
type BackupService struct {
	store  *storage.Adapter
	dir    string
	keep   int
	now    func() time.Time
	logger *slog.Logger
}

// NewBackupService keeps at most keep rotated snapshots in dir; keep <= 0 keeps all.
func NewBackupService(store *storage.Adapter, dir string, keep int, logger *slog.Logger) *BackupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupService{
		store:  store,
		dir:    dir,
		keep:   keep,
		now:    time.Now,
		logger: logger.With("module", "backup"),
	}
}

// WriteSnapshot dumps every stored key to path.
func (s *BackupService) WriteSnapshot(ctx context.Context, path string) error {
	snapshot, err := s.store.Backup(ctx)
	if err != nil {
		return fmt.Errorf("backup store: %w", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := fileutil.WriteAtomic(path, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}

	s.logger.Info("snapshot written", "path", path, "entries", len(snapshot))
	return nil
}

// ReadSnapshot loads a file produced by WriteSnapshot.
func (s *BackupService) ReadSnapshot(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	snapshot := make(map[string]string)
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return snapshot, nil
}

// RestoreFile replaces the whole store with the snapshot at path.
func (s *BackupService) RestoreFile(ctx context.Context, path string) error {
	snapshot, err := s.ReadSnapshot(path)
	if err != nil {
		return err
	}
	if err := s.store.Restore(ctx, snapshot); err != nil {
		return fmt.Errorf("restore store: %w", err)
	}
	return nil
}

// Rotate writes a timestamped snapshot into the backup directory and prunes
// the oldest ones beyond the configured limit. It returns the new file path.
func (s *BackupService) Rotate(ctx context.Context) (string, error) {
	if s.dir == "" {
		return "", fmt.Errorf("backup directory is not configured")
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name := snapshotPrefix + s.now().Format(snapshotLayout) + snapshotSuffix
	path := filepath.Join(s.dir, name)
	if err := s.WriteSnapshot(ctx, path); err != nil {
		return "", err
	}
	if err := s.prune(); err != nil {
		s.logger.Warn("prune snapshots", "dir", s.dir, "error", err)
	}
	return path, nil
}

// Snapshots lists rotated snapshot files, oldest first.
func (s *BackupService) Snapshots() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
			continue
		}
		names = append(names, name)
	}
	// The timestamp layout sorts lexically.
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(s.dir, name)
	}
	return paths, nil
}

func (s *BackupService) prune() error {
	if s.keep <= 0 {
		return nil
	}
	paths, err := s.Snapshots()
	if err != nil {
		return err
	}
	for len(paths) > s.keep {
		if err := os.Remove(paths[0]); err != nil {
			return err
		}
		s.logger.Debug("snapshot pruned", "path", paths[0])
		paths = paths[1:]
	}
	return nil
}
