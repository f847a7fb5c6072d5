package domain

import "time"

// Card is a business-card profile module. Content editing is handled by the
// card editor; the core only cares about identity, ownership, and the tag
// back-reference.
type Card struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	TagID       string    `json:"tag_id,omitempty"`
	DisplayName string    `json:"display_name"`
	Title       string    `json:"title,omitempty"`
	Company     string    `json:"company,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	Theme       string    `json:"theme,omitempty"` // opaque JSON blob owned by the editor
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Kind implements Module.
func (c *Card) Kind() ModuleKind { return ModuleKindCard }

// ModuleID implements Module.
func (c *Card) ModuleID() string { return c.ID }

// Owner implements Module.
func (c *Card) Owner() string { return c.UserID }

// SetOwner implements Module.
func (c *Card) SetOwner(userID string) { c.UserID = userID }

// LinkedTagID implements Module.
func (c *Card) LinkedTagID() string { return c.TagID }

// SetLinkedTagID implements Module.
func (c *Card) SetLinkedTagID(tagID string) { c.TagID = tagID }

// Touch implements Module.
func (c *Card) Touch() { c.UpdatedAt = time.Now() }
