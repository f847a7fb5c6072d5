package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/taglink/taglink-server/internal/domain"
	"github.com/taglink/taglink-server/internal/store"
)

// followColumns is the ordered list of columns selected in follow queries.
// Must match the scan order in scanFollow.
const followColumns = `id, user_id, tag_id, created_at`

func scanFollow(scanner interface{ Scan(dest ...any) error }) (*domain.Follow, error) {
	var f domain.Follow

	var createdAt string

	err := scanner.Scan(&f.ID, &f.UserID, &f.TagID, &createdAt)
	if err != nil {
		return nil, err
	}

	f.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &f, nil
}

// CreateFollow inserts a follow edge. The UNIQUE(user_id, tag_id) constraint
// turns a duplicate follow into store.ErrAlreadyExists.
func (s *Store) CreateFollow(ctx context.Context, f *domain.Follow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO follows (id, user_id, tag_id, created_at)
		VALUES (?, ?, ?, ?)`,
		f.ID, f.UserID, f.TagID, formatTime(f.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetFollow retrieves the follow edge between a user and a tag.
// Returns store.ErrNotFound if the user does not follow the tag.
func (s *Store) GetFollow(ctx context.Context, userID, tagID string) (*domain.Follow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+followColumns+` FROM follows WHERE user_id = ? AND tag_id = ?`,
		userID, tagID)

	f, err := scanFollow(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// DeleteFollow removes a follow edge.
// Returns store.ErrNotFound if the user does not follow the tag.
func (s *Store) DeleteFollow(ctx context.Context, userID, tagID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM follows WHERE user_id = ? AND tag_id = ?`, userID, tagID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListTagFollowers returns the follow edges pointing at a tag, oldest first.
func (s *Store) ListTagFollowers(ctx context.Context, tagID string) ([]*domain.Follow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+followColumns+` FROM follows WHERE tag_id = ? ORDER BY created_at ASC`, tagID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectFollows(rows)
}

// ListUserFollows returns every tag a user follows, newest first.
func (s *Store) ListUserFollows(ctx context.Context, userID string) ([]*domain.Follow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+followColumns+` FROM follows WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectFollows(rows)
}

func collectFollows(rows *sql.Rows) ([]*domain.Follow, error) {
	var follows []*domain.Follow
	for rows.Next() {
		f, err := scanFollow(rows)
		if err != nil {
			return nil, err
		}
		follows = append(follows, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return follows, nil
}

// CountTagFollowers returns the number of users following a tag.
func (s *Store) CountTagFollowers(ctx context.Context, tagID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE tag_id = ?`, tagID).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}
