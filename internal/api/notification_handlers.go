package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/taglink/taglink-server/internal/domain"
)

func (s *Server) registerNotificationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listNotifications",
		Method:      http.MethodGet,
		Path:        "/api/v1/notifications",
		Summary:     "List notifications",
		Description: "Returns the current user's notifications, newest first",
		Tags:        []string{"Notifications"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListNotifications)

	huma.Register(s.api, huma.Operation{
		OperationID: "countUnreadNotifications",
		Method:      http.MethodGet,
		Path:        "/api/v1/notifications/unread",
		Summary:     "Count unread notifications",
		Description: "Returns the number of unread notifications",
		Tags:        []string{"Notifications"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCountUnreadNotifications)

	huma.Register(s.api, huma.Operation{
		OperationID: "markNotificationRead",
		Method:      http.MethodPost,
		Path:        "/api/v1/notifications/{id}/read",
		Summary:     "Mark notification read",
		Description: "Marks one of the current user's notifications as read",
		Tags:        []string{"Notifications"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMarkNotificationRead)

	huma.Register(s.api, huma.Operation{
		OperationID: "markAllNotificationsRead",
		Method:      http.MethodPost,
		Path:        "/api/v1/notifications/read-all",
		Summary:     "Mark all notifications read",
		Description: "Marks every unread notification as read and returns the count",
		Tags:        []string{"Notifications"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMarkAllNotificationsRead)
}

// === DTOs ===

// NotificationResponse contains notification data in API responses.
type NotificationResponse struct {
	ID        string     `json:"id" doc:"Notification ID"`
	SenderID  string     `json:"sender_id,omitempty" doc:"User that triggered the notification"`
	TagID     string     `json:"tag_id,omitempty" doc:"Related tag"`
	Type      string     `json:"type" doc:"Notification type"`
	Text      string     `json:"text" doc:"Human-readable text"`
	Data      string     `json:"data,omitempty" doc:"Opaque JSON payload for clients"`
	ReadAt    *time.Time `json:"read_at,omitempty" doc:"Read timestamp, absent while unread"`
	CreatedAt time.Time  `json:"created_at" doc:"Creation timestamp"`
}

// ListNotificationsInput contains parameters for listing notifications.
type ListNotificationsInput struct {
	UnreadOnly bool `query:"unread_only" doc:"Only return unread notifications"`
}

// ListNotificationsResponse contains a list of notifications.
type ListNotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications" doc:"Notifications, newest first"`
}

// ListNotificationsOutput wraps the list notifications response for Huma.
type ListNotificationsOutput struct {
	Body ListNotificationsResponse
}

// UnreadCountResponse contains the unread notification count.
type UnreadCountResponse struct {
	Count int `json:"count" doc:"Number of unread notifications"`
}

// UnreadCountOutput wraps the unread count response for Huma.
type UnreadCountOutput struct {
	Body UnreadCountResponse
}

// MarkReadInput contains parameters for marking a notification read.
type MarkReadInput struct {
	ID string `path:"id" doc:"Notification ID"`
}

// MarkAllReadResponse contains the result of marking all notifications read.
type MarkAllReadResponse struct {
	Marked int64 `json:"marked" doc:"Number of notifications marked read"`
}

// MarkAllReadOutput wraps the mark-all-read response for Huma.
type MarkAllReadOutput struct {
	Body MarkAllReadResponse
}

// === Handlers ===

func (s *Server) handleListNotifications(ctx context.Context, input *ListNotificationsInput) (*ListNotificationsOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	notifications, err := s.services.Notification.ListNotifications(ctx, userID, input.UnreadOnly)
	if err != nil {
		return nil, err
	}

	resp := make([]NotificationResponse, len(notifications))
	for i, n := range notifications {
		resp[i] = mapNotificationResponse(n)
	}

	return &ListNotificationsOutput{Body: ListNotificationsResponse{Notifications: resp}}, nil
}

func (s *Server) handleCountUnreadNotifications(ctx context.Context, _ *struct{}) (*UnreadCountOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	count, err := s.services.Notification.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UnreadCountOutput{Body: UnreadCountResponse{Count: count}}, nil
}

func (s *Server) handleMarkNotificationRead(ctx context.Context, input *MarkReadInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Notification.MarkRead(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Notification marked read"}}, nil
}

func (s *Server) handleMarkAllNotificationsRead(ctx context.Context, _ *struct{}) (*MarkAllReadOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	marked, err := s.services.Notification.MarkAllRead(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &MarkAllReadOutput{Body: MarkAllReadResponse{Marked: marked}}, nil
}

// === Helpers ===

func mapNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		SenderID:  n.SenderID,
		TagID:     n.TagID,
		Type:      string(n.Type),
		Text:      n.Text,
		Data:      n.Data,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
