package domain

import "time"

// Session represents a refresh-token session for a logged-in client.
type Session struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"-"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	LastSeenAt       time.Time `json:"last_seen_at"`
	IPAddress        string    `json:"ip_address,omitempty"`
	DeviceName       string    `json:"device_name,omitempty"`
}

// IsExpired returns true once the session can no longer be refreshed.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
