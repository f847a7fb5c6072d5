package domain

import "time"

// NotificationType categorizes notifications for client rendering.
type NotificationType string

const (
	NotificationTransferRequest   NotificationType = "transfer_request"
	NotificationTransferAccepted  NotificationType = "transfer_accepted"
	NotificationTransferRejected  NotificationType = "transfer_rejected"
	NotificationTransferCancelled NotificationType = "transfer_cancelled"
	NotificationTagReceived       NotificationType = "tag_received"
	NotificationNewFollower       NotificationType = "new_follower"
)

// Notification is a persisted, fire-and-forget message to a user. The Data
// payload is opaque JSON owned by the client; nothing in the core parses it.
type Notification struct {
	ID       string           `json:"id"`
	UserID   string           `json:"user_id"` // recipient
	SenderID string           `json:"sender_id,omitempty"`
	TagID    string           `json:"tag_id,omitempty"` // for cascade on tag deletion
	Type     NotificationType `json:"type"`
	Text     string           `json:"text"`
	Data     string           `json:"data,omitempty"` // opaque JSON payload
	ReadAt   *time.Time       `json:"read_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// IsRead returns true once the recipient has seen the notification.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}
