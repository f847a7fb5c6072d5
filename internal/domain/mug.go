package domain

import "time"

// Mug is a mug-tracker module.
type Mug struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	TagID       string    `json:"tag_id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Kind implements Module.
func (m *Mug) Kind() ModuleKind { return ModuleKindMug }

// ModuleID implements Module.
func (m *Mug) ModuleID() string { return m.ID }

// Owner implements Module.
func (m *Mug) Owner() string { return m.OwnerID }

// SetOwner implements Module.
func (m *Mug) SetOwner(userID string) { m.OwnerID = userID }

// LinkedTagID implements Module.
func (m *Mug) LinkedTagID() string { return m.TagID }

// SetLinkedTagID implements Module.
func (m *Mug) SetLinkedTagID(tagID string) { m.TagID = tagID }

// Touch implements Module.
func (m *Mug) Touch() { m.UpdatedAt = time.Now() }
