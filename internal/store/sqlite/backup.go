package sqlite

import (
	"context"
	"fmt"
)

// BackupTo writes a consistent snapshot of the database to path using
// VACUUM INTO. The destination must not already exist.
func (s *Store) BackupTo(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("vacuum into %s: %w", path, err)
	}
	return nil
}
