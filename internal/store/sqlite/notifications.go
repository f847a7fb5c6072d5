package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/taglink/taglink-server/internal/domain"
	"github.com/taglink/taglink-server/internal/store"
)

// notificationColumns is the ordered list of columns selected in
// notification queries. Must match the scan order in scanNotification.
const notificationColumns = `id, user_id, sender_id, tag_id, type, text, data,
	read_at, created_at`

func scanNotification(scanner interface{ Scan(dest ...any) error }) (*domain.Notification, error) {
	var n domain.Notification

	var (
		senderID  sql.NullString
		tagID     sql.NullString
		ntype     string
		readAt    sql.NullString
		createdAt string
	)

	err := scanner.Scan(
		&n.ID,
		&n.UserID,
		&senderID,
		&tagID,
		&ntype,
		&n.Text,
		&n.Data,
		&readAt,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if senderID.Valid {
		n.SenderID = senderID.String
	}
	if tagID.Valid {
		n.TagID = tagID.String
	}
	n.Type = domain.NotificationType(ntype)

	n.ReadAt, err = parseNullableTime(readAt)
	if err != nil {
		return nil, err
	}
	n.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &n, nil
}

// CreateNotification inserts a notification.
func (s *Store) CreateNotification(ctx context.Context, n *domain.Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (
			id, user_id, sender_id, tag_id, type, text, data, read_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID,
		n.UserID,
		nullString(n.SenderID),
		nullString(n.TagID),
		string(n.Type),
		n.Text,
		n.Data,
		nullTimeString(n.ReadAt),
		formatTime(n.CreatedAt),
	)
	return err
}

// ListUserNotifications returns a user's notifications, newest first. If
// unreadOnly is set, read notifications are excluded.
func (s *Store) ListUserNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

// CountUnreadNotifications returns the number of unread notifications for a
// user.
func (s *Store) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read_at IS NULL`,
		userID).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// MarkNotificationRead marks one of a user's notifications as read. Marking
// an already-read notification is a no-op. Returns store.ErrNotFound if the
// notification does not exist or belongs to another user.
func (s *Store) MarkNotificationRead(ctx context.Context, userID, notificationID string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET read_at = COALESCE(read_at, ?)
		WHERE id = ? AND user_id = ?`,
		formatTime(at), notificationID, userID)
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

// MarkAllNotificationsRead marks every unread notification for a user as
// read. Returns the number marked.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET read_at = ?
		WHERE user_id = ? AND read_at IS NULL`,
		formatTime(at), userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
