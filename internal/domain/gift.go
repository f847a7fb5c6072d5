package domain

import "time"

// Gift is a gift module. Its owning-user field is the sender until the gift
// is transferred, at which point the receiver is recorded and the gift is
// marked received.
type Gift struct {
	ID         string     `json:"id"`
	SenderID   string     `json:"sender_id"`
	ReceiverID string     `json:"receiver_id,omitempty"`
	TagID      string     `json:"tag_id,omitempty"`
	Title      string     `json:"title"`
	Message    string     `json:"message,omitempty"`
	Received   bool       `json:"received"`
	ReceivedAt *time.Time `json:"received_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Kind implements Module.
func (g *Gift) Kind() ModuleKind { return ModuleKindGift }

// ModuleID implements Module.
func (g *Gift) ModuleID() string { return g.ID }

// Owner implements Module.
func (g *Gift) Owner() string { return g.SenderID }

// SetOwner implements Module.
func (g *Gift) SetOwner(userID string) { g.SenderID = userID }

// LinkedTagID implements Module.
func (g *Gift) LinkedTagID() string { return g.TagID }

// SetLinkedTagID implements Module.
func (g *Gift) SetLinkedTagID(tagID string) { g.TagID = tagID }

// Touch implements Module.
func (g *Gift) Touch() { g.UpdatedAt = time.Now() }

// ApplyTransfer implements TransferEffect. The gift records its receiver and
// is marked received.
func (g *Gift) ApplyTransfer(_, toUserID, _ string, at time.Time) {
	g.ReceiverID = toUserID
	g.Received = true
	g.ReceivedAt = &at
}
