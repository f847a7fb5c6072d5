package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/taglink/taglink-server/internal/domain"
	"github.com/taglink/taglink-server/internal/store"
)

// transferRequestColumns is the ordered list of columns selected in transfer
// request queries. Must match the scan order in scanTransferRequest.
const transferRequestColumns = `id, tag_id, from_user_id, to_user_id, message,
	status, created_at, updated_at`

// scanTransferRequest scans a sql.Row (or sql.Rows via its Scan method) into
// a domain.TransferRequest.
func scanTransferRequest(scanner interface{ Scan(dest ...any) error }) (*domain.TransferRequest, error) {
	var r domain.TransferRequest

	var (
		status    string
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&r.ID,
		&r.TagID,
		&r.FromUserID,
		&r.ToUserID,
		&r.Message,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Status = domain.TransferRequestStatus(status)

	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	r.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// ownershipTransferColumns is the ordered list of columns selected in
// ownership transfer queries. Must match the scan order in
// scanOwnershipTransfer.
const ownershipTransferColumns = `id, tag_id, from_user_id, to_user_id,
	transfer_type, message, transferred_at`

func scanOwnershipTransfer(scanner interface{ Scan(dest ...any) error }) (*domain.OwnershipTransfer, error) {
	var t domain.OwnershipTransfer

	var (
		transferType  string
		transferredAt string
	)

	err := scanner.Scan(
		&t.ID,
		&t.TagID,
		&t.FromUserID,
		&t.ToUserID,
		&transferType,
		&t.Message,
		&transferredAt,
	)
	if err != nil {
		return nil, err
	}

	t.TransferType = domain.TransferType(transferType)

	t.TransferredAt, err = parseTime(transferredAt)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// CreateTransferRequest inserts a new pending request. The partial unique
// index on (tag_id, to_user_id) WHERE pending turns a duplicate live
// proposal into store.ErrAlreadyExists without a read-check race.
func (s *Store) CreateTransferRequest(ctx context.Context, r *domain.TransferRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transfer_requests (
			id, tag_id, from_user_id, to_user_id, message, status,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.TagID,
		r.FromUserID,
		r.ToUserID,
		r.Message,
		string(r.Status),
		formatTime(r.CreatedAt),
		formatTime(r.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetTransferRequest retrieves a transfer request by ID.
// Returns store.ErrNotFound if the request does not exist.
func (s *Store) GetTransferRequest(ctx context.Context, id string) (*domain.TransferRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+transferRequestColumns+` FROM transfer_requests WHERE id = ?`, id)

	r, err := scanTransferRequest(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListIncomingTransferRequests returns a user's received requests, newest
// first. If pendingOnly is set, resolved requests are excluded.
func (s *Store) ListIncomingTransferRequests(ctx context.Context, userID string, pendingOnly bool) ([]*domain.TransferRequest, error) {
	query := `SELECT ` + transferRequestColumns + ` FROM transfer_requests WHERE to_user_id = ?`
	args := []any{userID}
	if pendingOnly {
		query += ` AND status = ?`
		args = append(args, string(domain.TransferRequestPending))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransferRequests(rows)
}

// ListOutgoingTransferRequests returns a user's sent requests, newest first.
func (s *Store) ListOutgoingTransferRequests(ctx context.Context, userID string, pendingOnly bool) ([]*domain.TransferRequest, error) {
	query := `SELECT ` + transferRequestColumns + ` FROM transfer_requests WHERE from_user_id = ?`
	args := []any{userID}
	if pendingOnly {
		query += ` AND status = ?`
		args = append(args, string(domain.TransferRequestPending))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransferRequests(rows)
}

func collectTransferRequests(rows *sql.Rows) ([]*domain.TransferRequest, error) {
	var requests []*domain.TransferRequest
	for rows.Next() {
		r, err := scanTransferRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return requests, nil
}

// ResolveTransferRequest moves a pending request to a terminal status. The
// pending check happens in the UPDATE itself so a double-resolve loses
// cleanly. Returns store.ErrConflict if the request is already terminal and
// store.ErrNotFound if it does not exist.
func (s *Store) ResolveTransferRequest(ctx context.Context, requestID string, status domain.TransferRequestStatus, at time.Time) error {
	return resolveTransferRequest(ctx, s.db, requestID, status, at)
}

func resolveTransferRequest(ctx context.Context, q dbtx, requestID string, status domain.TransferRequestStatus, at time.Time) error {
	result, err := q.ExecContext(ctx, `
		UPDATE transfer_requests SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		string(status), formatTime(at), requestID, string(domain.TransferRequestPending))
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		err := q.QueryRowContext(ctx,
			`SELECT 1 FROM transfer_requests WHERE id = ?`, requestID).Scan(&exists)
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

// CommitTransfer atomically moves a tag (and its linked module, if any) to a
// new owner. The caller passes the already-mutated module so kind-specific
// transfer bookkeeping lands in the same write. When requestID is non-empty
// the originating request is marked accepted inside the same transaction.
// Returns store.ErrConflict if the tag's owner changed underneath the caller
// or the request was already resolved.
func (s *Store) CommitTransfer(ctx context.Context, transfer *domain.OwnershipTransfer, module domain.Module, requestID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE tags SET owner_id = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		transfer.ToUserID, formatTime(transfer.TransferredAt),
		transfer.TagID, transfer.FromUserID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrConflict
	}

	if module != nil {
		info, err := kindInfo(module.Kind())
		if err != nil {
			return err
		}
		result, err := info.update(ctx, tx, module)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrConflict
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ownership_transfers (
			id, tag_id, from_user_id, to_user_id, transfer_type, message,
			transferred_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		transfer.ID,
		transfer.TagID,
		transfer.FromUserID,
		transfer.ToUserID,
		string(transfer.TransferType),
		transfer.Message,
		formatTime(transfer.TransferredAt),
	)
	if err != nil {
		return err
	}

	if requestID != "" {
		if err := resolveTransferRequest(ctx, tx, requestID, domain.TransferRequestAccepted, transfer.TransferredAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListTagTransfers returns the transfer history of a tag, newest first.
func (s *Store) ListTagTransfers(ctx context.Context, tagID string) ([]*domain.OwnershipTransfer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ownershipTransferColumns+` FROM ownership_transfers
		WHERE tag_id = ? ORDER BY transferred_at DESC`, tagID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectOwnershipTransfers(rows)
}

// ListUserTransfers returns every transfer a user sent or received, newest
// first.
func (s *Store) ListUserTransfers(ctx context.Context, userID string) ([]*domain.OwnershipTransfer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ownershipTransferColumns+` FROM ownership_transfers
		WHERE from_user_id = ? OR to_user_id = ? ORDER BY transferred_at DESC`,
		userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectOwnershipTransfers(rows)
}

func collectOwnershipTransfers(rows *sql.Rows) ([]*domain.OwnershipTransfer, error) {
	var transfers []*domain.OwnershipTransfer
	for rows.Next() {
		t, err := scanOwnershipTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transfers, nil
}
