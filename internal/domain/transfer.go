package domain

import "time"

// TransferRequestStatus represents the lifecycle of a transfer request.
// Every status other than pending is terminal.
type TransferRequestStatus string

const (
	TransferRequestPending   TransferRequestStatus = "pending"
	TransferRequestAccepted  TransferRequestStatus = "accepted"
	TransferRequestRejected  TransferRequestStatus = "rejected"
	TransferRequestCancelled TransferRequestStatus = "cancelled"
)

// Terminal returns true once the request can no longer change.
func (s TransferRequestStatus) Terminal() bool {
	return s != TransferRequestPending
}

// TransferRequest is a proposal by a tag's current owner to hand the tag
// (and its linked module) to another user. At most one pending request may
// exist per (tag, target) pair.
type TransferRequest struct {
	ID         string                `json:"id"`
	TagID      string                `json:"tag_id"`
	FromUserID string                `json:"from_user_id"`
	ToUserID   string                `json:"to_user_id"`
	Message    string                `json:"message,omitempty"`
	Status     TransferRequestStatus `json:"status"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// TransferType distinguishes how an ownership transfer was initiated.
type TransferType string

const (
	// TransferTypeGift is a transfer completed through the request/accept
	// handshake.
	TransferTypeGift TransferType = "gift"
	// TransferTypeDirect is an immediate transfer with no acceptance gate.
	TransferTypeDirect TransferType = "direct"
)

// OwnershipTransfer is the append-only audit record written at the moment a
// transfer completes. Never updated; deleted only by cascading tag deletion.
type OwnershipTransfer struct {
	ID            string       `json:"id"`
	TagID         string       `json:"tag_id"`
	FromUserID    string       `json:"from_user_id"`
	ToUserID      string       `json:"to_user_id"`
	TransferType  TransferType `json:"transfer_type"`
	Message       string       `json:"message,omitempty"`
	TransferredAt time.Time    `json:"transferred_at"`
}
