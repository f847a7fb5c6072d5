// Package sse implements Server-Sent Events for pushing notifications to
// connected clients as they are written.
package sse

import (
	"time"

	"github.com/taglink/taglink-server/internal/domain"
)

// EventType represents the type of SSE event.
type EventType string

const (
	// EventNotification carries a freshly created notification for the
	// connected user.
	EventNotification EventType = "notification"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event is the payload streamed to clients.
type Event struct {
	Type EventType `json:"type"`
	// UserID is the recipient. Events are only delivered to clients
	// authenticated as this user; empty means every client.
	UserID       string               `json:"-"`
	Notification *domain.Notification `json:"notification,omitempty"`
	Timestamp    time.Time            `json:"timestamp"`
}

// NewNotificationEvent builds an event carrying a notification for its
// recipient.
func NewNotificationEvent(n *domain.Notification) Event {
	return Event{
		Type:         EventNotification,
		UserID:       n.UserID,
		Notification: n,
		Timestamp:    time.Now(),
	}
}

// NewHeartbeatEvent builds a keepalive event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Timestamp: time.Now(),
	}
}
