// Package backup provides database snapshot creation and retention for the
// TagLink server.
package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrBackupNotFound indicates the requested backup does not exist.
var ErrBackupNotFound = errors.New("backup not found")

const backupSuffix = ".taglink.db"

// Snapshotter produces a consistent database snapshot at a path.
type Snapshotter interface {
	BackupTo(ctx context.Context, path string) error
}

// Info describes a stored backup file.
type Info struct {
	ID        string    `json:"id"`
	Path      string    `json:"-"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Service manages backup creation, listing, and retention.
type Service struct {
	snapshotter Snapshotter
	backupDir   string
	keep        int
	logger      *slog.Logger
}

// NewService creates a backup Service. keep bounds how many backups the
// retention pass leaves behind; zero disables pruning.
func NewService(snapshotter Snapshotter, backupDir string, keep int, logger *slog.Logger) *Service {
	return &Service{
		snapshotter: snapshotter,
		backupDir:   backupDir,
		keep:        keep,
		logger:      logger,
	}
}

// Create writes a new timestamped snapshot and prunes old ones.
func (s *Service) Create(ctx context.Context) (*Info, error) {
	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	id := "backup-" + time.Now().Format("2006-01-02-150405")
	path := filepath.Join(s.backupDir, id+backupSuffix)

	start := time.Now()
	if err := s.snapshotter.BackupTo(ctx, path); err != nil {
		// VACUUM INTO leaves a partial file behind on failure.
		os.Remove(path)
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat backup: %w", err)
	}

	s.logger.Info("backup complete",
		"path", path,
		"size", info.Size(),
		"duration", time.Since(start))

	if err := s.prune(); err != nil {
		s.logger.Warn("backup retention prune failed", "error", err)
	}

	return &Info{
		ID:        id,
		Path:      path,
		Size:      info.Size(),
		CreatedAt: info.ModTime(),
	}, nil
}

// List returns all available backups, newest first.
func (s *Service) List(ctx context.Context) ([]Info, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var backups []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), backupSuffix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		backups = append(backups, Info{
			ID:        strings.TrimSuffix(entry.Name(), backupSuffix),
			Path:      filepath.Join(s.backupDir, entry.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})

	return backups, nil
}

// Get returns a backup by ID.
func (s *Service) Get(ctx context.Context, id string) (*Info, error) {
	path := filepath.Join(s.backupDir, id+backupSuffix)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBackupNotFound
		}
		return nil, err
	}

	return &Info{
		ID:        id,
		Path:      path,
		Size:      info.Size(),
		CreatedAt: info.ModTime(),
	}, nil
}

// Delete removes a backup.
func (s *Service) Delete(ctx context.Context, id string) error {
	path := filepath.Join(s.backupDir, id+backupSuffix)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return ErrBackupNotFound
		}
		return err
	}

	return os.Remove(path)
}

// prune removes the oldest backups beyond the retention limit.
func (s *Service) prune() error {
	if s.keep <= 0 {
		return nil
	}

	backups, err := s.List(context.Background())
	if err != nil {
		return err
	}
	if len(backups) <= s.keep {
		return nil
	}

	for _, old := range backups[s.keep:] {
		if err := os.Remove(old.Path); err != nil {
			return err
		}
		s.logger.Info("pruned old backup", "id", old.ID)
	}
	return nil
}
