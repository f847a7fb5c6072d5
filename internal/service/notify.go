// Package service provides the business logic layer for tag ownership,
// linking, transfers, and the surrounding account plumbing.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/taglink/taglink-server/internal/domain"
	"github.com/taglink/taglink-server/internal/id"
	"github.com/taglink/taglink-server/internal/store"
)

// NotificationService persists and serves user notifications. Emission is
// best-effort: it runs after the core transaction has committed, and a
// failed write is logged and swallowed rather than failing the operation
// that triggered it.
type NotificationService struct {
	store     store.Store
	logger    *slog.Logger
	publisher NotificationPublisher
}

// NotificationPublisher pushes a stored notification to connected clients.
type NotificationPublisher interface {
	PublishNotification(n *domain.Notification)
}

// NewNotificationService creates a new notification service.
func NewNotificationService(store store.Store, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		store:  store,
		logger: logger,
	}
}

// SetPublisher attaches a live stream publisher. Must be called before the
// service starts emitting notifications.
func (s *NotificationService) SetPublisher(p NotificationPublisher) {
	s.publisher = p
}

// emit writes a notification, logging instead of returning on failure.
func (s *NotificationService) emit(ctx context.Context, n *domain.Notification) {
	nid, err := id.Generate("ntf")
	if err != nil {
		s.logger.Warn("drop notification: generate id", "type", n.Type, "error", err)
		return
	}
	n.ID = nid
	n.CreatedAt = time.Now()

	if err := s.store.CreateNotification(ctx, n); err != nil {
		s.logger.Warn("drop notification",
			"type", n.Type,
			"user_id", n.UserID,
			"error", err,
		)
		return
	}

	if s.publisher != nil {
		s.publisher.PublishNotification(n)
	}
}

// payload marshals notification data, falling back to empty on error.
func (s *NotificationService) payload(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("marshal notification payload", "error", err)
		return ""
	}
	return string(b)
}

// TransferRequested notifies the target of a new pending request.
func (s *NotificationService) TransferRequested(ctx context.Context, req *domain.TransferRequest, from *domain.User, tag *domain.Tag) {
	s.emit(ctx, &domain.Notification{
		UserID:   req.ToUserID,
		SenderID: req.FromUserID,
		TagID:    req.TagID,
		Type:     domain.NotificationTransferRequest,
		Text:     fmt.Sprintf("%s wants to transfer a tag to you", from.Name()),
		Data: s.payload(map[string]string{
			"request_id": req.ID,
			"tag_id":     tag.ID,
			"message":    req.Message,
		}),
	})
}

// TransferAccepted notifies the original owner that the target accepted.
func (s *NotificationService) TransferAccepted(ctx context.Context, req *domain.TransferRequest, target *domain.User) {
	s.emit(ctx, &domain.Notification{
		UserID:   req.FromUserID,
		SenderID: req.ToUserID,
		TagID:    req.TagID,
		Type:     domain.NotificationTransferAccepted,
		Text:     fmt.Sprintf("%s accepted your tag transfer", target.Name()),
		Data:     s.payload(map[string]string{"request_id": req.ID, "tag_id": req.TagID}),
	})
}

// TransferRejected notifies the original owner that the target declined.
func (s *NotificationService) TransferRejected(ctx context.Context, req *domain.TransferRequest, target *domain.User) {
	s.emit(ctx, &domain.Notification{
		UserID:   req.FromUserID,
		SenderID: req.ToUserID,
		TagID:    req.TagID,
		Type:     domain.NotificationTransferRejected,
		Text:     fmt.Sprintf("%s declined your tag transfer", target.Name()),
		Data:     s.payload(map[string]string{"request_id": req.ID, "tag_id": req.TagID}),
	})
}

// TransferCancelled notifies the target that the requester withdrew.
func (s *NotificationService) TransferCancelled(ctx context.Context, req *domain.TransferRequest, from *domain.User) {
	s.emit(ctx, &domain.Notification{
		UserID:   req.ToUserID,
		SenderID: req.FromUserID,
		TagID:    req.TagID,
		Type:     domain.NotificationTransferCancelled,
		Text:     fmt.Sprintf("%s withdrew their tag transfer", from.Name()),
		Data:     s.payload(map[string]string{"request_id": req.ID, "tag_id": req.TagID}),
	})
}

// TagReceived notifies a recipient of a completed direct transfer.
func (s *NotificationService) TagReceived(ctx context.Context, transfer *domain.OwnershipTransfer, from *domain.User) {
	s.emit(ctx, &domain.Notification{
		UserID:   transfer.ToUserID,
		SenderID: transfer.FromUserID,
		TagID:    transfer.TagID,
		Type:     domain.NotificationTagReceived,
		Text:     fmt.Sprintf("%s sent you a tag", from.Name()),
		Data: s.payload(map[string]string{
			"tag_id":  transfer.TagID,
			"message": transfer.Message,
		}),
	})
}

// NewFollower notifies a tag owner of a new follower.
func (s *NotificationService) NewFollower(ctx context.Context, tag *domain.Tag, follower *domain.User) {
	s.emit(ctx, &domain.Notification{
		UserID:   tag.OwnerID,
		SenderID: follower.ID,
		TagID:    tag.ID,
		Type:     domain.NotificationNewFollower,
		Text:     fmt.Sprintf("%s started following your tag", follower.Name()),
		Data:     s.payload(map[string]string{"tag_id": tag.ID}),
	})
}

// ListNotifications returns the caller's notifications.
func (s *NotificationService) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error) {
	notifications, err := s.store.ListUserNotifications(ctx, userID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// CountUnread returns the caller's unread notification count.
func (s *NotificationService) CountUnread(ctx context.Context, userID string) (int, error) {
	n, err := s.store.CountUnreadNotifications(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

// MarkRead marks one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.store.MarkNotificationRead(ctx, userID, notificationID, time.Now())
}

// MarkAllRead marks all the caller's notifications as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllNotificationsRead(ctx, userID, time.Now())
}
