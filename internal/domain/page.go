package domain

import "time"

// Page is a freeform-page module.
type Page struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TagID     string    `json:"tag_id,omitempty"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Kind implements Module.
func (p *Page) Kind() ModuleKind { return ModuleKindPage }

// ModuleID implements Module.
func (p *Page) ModuleID() string { return p.ID }

// Owner implements Module.
func (p *Page) Owner() string { return p.UserID }

// SetOwner implements Module.
func (p *Page) SetOwner(userID string) { p.UserID = userID }

// LinkedTagID implements Module.
func (p *Page) LinkedTagID() string { return p.TagID }

// SetLinkedTagID implements Module.
func (p *Page) SetLinkedTagID(tagID string) { p.TagID = tagID }

// Touch implements Module.
func (p *Page) Touch() { p.UpdatedAt = time.Now() }
