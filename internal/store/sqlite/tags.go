package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/taglink/taglink-server/internal/domain"
	"github.com/taglink/taglink-server/internal/store"
)

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `id, physical_id, public_code, owner_id, module_type, status,
	claimed_at, is_public, allow_follow, created_at, updated_at`

// scanTag scans a sql.Row (or sql.Rows via its Scan method) into a domain.Tag.
func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var t domain.Tag

	var (
		ownerID     sql.NullString
		moduleType  sql.NullString
		status      string
		claimedAt   sql.NullString
		isPublic    int
		allowFollow int
		createdAt   string
		updatedAt   string
	)

	err := scanner.Scan(
		&t.ID,
		&t.PhysicalID,
		&t.PublicCode,
		&ownerID,
		&moduleType,
		&status,
		&claimedAt,
		&isPublic,
		&allowFollow,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if ownerID.Valid {
		t.OwnerID = ownerID.String
	}
	if moduleType.Valid {
		t.ModuleType = domain.ModuleKind(moduleType.String)
	}
	t.Status = domain.TagStatus(status)

	t.ClaimedAt, err = parseNullableTime(claimedAt)
	if err != nil {
		return nil, err
	}

	t.IsPublic = isPublic != 0
	t.AllowFollow = allowFollow != 0

	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	t.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// CreateTag inserts a newly provisioned tag.
// Returns store.ErrAlreadyExists if the physical ID or public code is taken.
func (s *Store) CreateTag(ctx context.Context, tag *domain.Tag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (
			id, physical_id, public_code, owner_id, module_type, status,
			claimed_at, is_public, allow_follow, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tag.ID,
		tag.PhysicalID,
		tag.PublicCode,
		nullString(tag.OwnerID),
		nullString(string(tag.ModuleType)),
		string(tag.Status),
		nullTimeString(tag.ClaimedAt),
		boolToInt(tag.IsPublic),
		boolToInt(tag.AllowFollow),
		formatTime(tag.CreatedAt),
		formatTime(tag.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetTag retrieves a tag by ID.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) GetTag(ctx context.Context, id string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = ?`, id)

	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTagByPhysicalID retrieves a tag by its hardware identifier.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) GetTagByPhysicalID(ctx context.Context, physicalID string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE physical_id = ?`, physicalID)

	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTagByPublicCode retrieves a tag by its printed claim code,
// case-insensitively. Returns store.ErrNotFound if the tag does not exist.
func (s *Store) GetTagByPublicCode(ctx context.Context, code string) (*domain.Tag, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE public_code = ?`, normalized)

	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTags returns all tags, oldest first.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTags(rows)
}

// ListUserTags returns all tags owned by a user, oldest claim first.
func (s *Store) ListUserTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE owner_id = ? ORDER BY claimed_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTags(rows)
}

func collectTags(rows *sql.Rows) ([]*domain.Tag, error) {
	var tags []*domain.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}

// ClaimTag assigns an unclaimed tag to a user. The ownership check happens
// in the UPDATE itself so that two racing claims resolve to exactly one
// winner. Returns store.ErrConflict if the tag is already owned and
// store.ErrNotFound if it does not exist.
func (s *Store) ClaimTag(ctx context.Context, tagID, userID string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tags SET owner_id = ?, status = ?, claimed_at = ?, updated_at = ?
		WHERE id = ? AND owner_id IS NULL`,
		userID, string(domain.TagStatusClaimed), formatTime(at), formatTime(at), tagID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM tags WHERE id = ?`, tagID).Scan(&exists)
		if err == sql.ErrNoRows {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}
		return store.ErrConflict
	}
	return nil
}

// UpdateTagSettings updates the owner-controlled visibility flags.
// Returns store.ErrNotFound if the tag does not exist.
func (s *Store) UpdateTagSettings(ctx context.Context, tagID string, isPublic, allowFollow bool, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tags SET is_public = ?, allow_follow = ?, updated_at = ?
		WHERE id = ?`,
		boolToInt(isPublic), boolToInt(allowFollow), formatTime(at), tagID)
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
