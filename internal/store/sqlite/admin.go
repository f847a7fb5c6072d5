package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/taglink/taglink-server/internal/domain"
	"github.com/taglink/taglink-server/internal/store"
)

// ResetTag unconditionally returns a tag to unclaimed: owner, module link,
// and claimed_at are all cleared, the linked module (if any) is detached,
// and still-pending transfer requests for the tag are cancelled. One
// transaction. Returns store.ErrNotFound if the tag does not exist.
func (s *Store) ResetTag(ctx context.Context, tagID string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = ?`, tagID)
	tag, err := scanTag(row)
	if err == sql.ErrNoRows {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE tags SET owner_id = NULL, module_type = NULL, status = ?,
			claimed_at = NULL, updated_at = ?
		WHERE id = ?`,
		string(domain.TagStatusUnclaimed), formatTime(at), tagID)
	if err != nil {
		return err
	}

	if tag.ModuleType != "" {
		info, err := kindInfo(tag.ModuleType)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE `+info.table+` SET tag_id = NULL, updated_at = ? WHERE tag_id = ?`,
			formatTime(at), tagID)
		if err != nil {
			return err
		}
	}

	// A pending request against a reset tag can no longer be honored.
	_, err = tx.ExecContext(ctx, `
		UPDATE transfer_requests SET status = ?, updated_at = ?
		WHERE tag_id = ? AND status = ?`,
		string(domain.TransferRequestCancelled), formatTime(at),
		tagID, string(domain.TransferRequestPending))
	if err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteTagCascade removes a tag and everything referencing it: the module
// link is detached, then follows, transfer requests, ownership history, and
// notifications for the tag are deleted along with the tag row. One
// transaction. Returns store.ErrNotFound if the tag does not exist.
func (s *Store) DeleteTagCascade(ctx context.Context, tagID string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE id = ?`, tagID)
	tag, err := scanTag(row)
	if err == sql.ErrNoRows {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}

	if tag.ModuleType != "" {
		info, err := kindInfo(tag.ModuleType)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE `+info.table+` SET tag_id = NULL, updated_at = ? WHERE tag_id = ?`,
			formatTime(at), tagID)
		if err != nil {
			return err
		}
	}

	for _, stmt := range []string{
		`DELETE FROM follows WHERE tag_id = ?`,
		`DELETE FROM transfer_requests WHERE tag_id = ?`,
		`DELETE FROM ownership_transfers WHERE tag_id = ?`,
		`DELETE FROM notifications WHERE tag_id = ?`,
		`DELETE FROM tags WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, tagID); err != nil {
			return err
		}
	}

	return tx.Commit()
}
