package domain

import "time"

// Plant is a plant-tracker module. When a plant changes hands it remembers
// who gifted it and with what message.
type Plant struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TagID     string    `json:"tag_id,omitempty"`
	Name      string    `json:"name"`
	Species   string    `json:"species,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Gift provenance, written by ownership transfers.
	GiftedBy    string     `json:"gifted_by,omitempty"`
	GiftMessage string     `json:"gift_message,omitempty"`
	GiftedAt    *time.Time `json:"gifted_at,omitempty"`
}

// Kind implements Module.
func (p *Plant) Kind() ModuleKind { return ModuleKindPlant }

// ModuleID implements Module.
func (p *Plant) ModuleID() string { return p.ID }

// Owner implements Module.
func (p *Plant) Owner() string { return p.UserID }

// SetOwner implements Module.
func (p *Plant) SetOwner(userID string) { p.UserID = userID }

// LinkedTagID implements Module.
func (p *Plant) LinkedTagID() string { return p.TagID }

// SetLinkedTagID implements Module.
func (p *Plant) SetLinkedTagID(tagID string) { p.TagID = tagID }

// Touch implements Module.
func (p *Plant) Touch() { p.UpdatedAt = time.Now() }

// ApplyTransfer implements TransferEffect. The plant records that it was
// gifted, by whom, and with what message.
func (p *Plant) ApplyTransfer(fromUserID, _, message string, at time.Time) {
	p.GiftedBy = fromUserID
	p.GiftMessage = message
	p.GiftedAt = &at
}
