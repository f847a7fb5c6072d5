package domain

import "time"

// Follow records that a user follows a public tag. Unique per (user, tag),
// independent of ownership, and only permitted while the tag is public with
// following enabled.
type Follow struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TagID     string    `json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
}
