package domain

import "time"

// TagStatus represents where a tag is in its lifecycle.
// It is stored redundantly for fast filtering and must always agree with
// (OwnerID, ModuleType): unclaimed means no owner, claimed means an owner but
// no module, linked means both.
type TagStatus string

const (
	// TagStatusUnclaimed is the initial state of a provisioned tag.
	TagStatusUnclaimed TagStatus = "unclaimed"
	// TagStatusClaimed means a user owns the tag but no module is attached.
	TagStatusClaimed TagStatus = "claimed"
	// TagStatusLinked means the tag is owned and has a module attached.
	TagStatusLinked TagStatus = "linked"
)

// Tag represents one physical NFC inlay and its printed claim code.
// A tag is exclusively owned by at most one user and linked to at most one
// module at a time.
type Tag struct {
	ID string `json:"id"`

	// PhysicalID is the opaque hardware identifier of the inlay. Immutable.
	PhysicalID string `json:"physical_id"`

	// PublicCode is the short human-typeable code printed on the tag.
	// Globally unique, immutable once assigned.
	PublicCode string `json:"public_code"`

	// OwnerID is the owning user, empty while unclaimed.
	OwnerID string `json:"owner_id,omitempty"`

	// ModuleType is the kind of the linked module, empty while unlinked.
	ModuleType ModuleKind `json:"module_type,omitempty"`

	Status TagStatus `json:"status"`

	// ClaimedAt is set once on first claim. Ordinary unlink does not clear
	// it; only an admin reset does.
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`

	// Visibility and follow flags, owner-controlled.
	IsPublic    bool `json:"is_public"`
	AllowFollow bool `json:"allow_follow"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsClaimed returns true once a user owns the tag.
func (t *Tag) IsClaimed() bool {
	return t.OwnerID != ""
}

// IsLinked returns true when a module is attached.
func (t *Tag) IsLinked() bool {
	return t.ModuleType != ""
}

// OwnedBy returns true if the given user currently owns the tag.
func (t *Tag) OwnedBy(userID string) bool {
	return userID != "" && t.OwnerID == userID
}

// DeriveStatus computes the status implied by (OwnerID, ModuleType).
func (t *Tag) DeriveStatus() TagStatus {
	switch {
	case t.OwnerID == "":
		return TagStatusUnclaimed
	case t.ModuleType == "":
		return TagStatusClaimed
	default:
		return TagStatusLinked
	}
}

// StatusConsistent reports whether the stored status agrees with the
// derived one.
func (t *Tag) StatusConsistent() bool {
	return t.Status == t.DeriveStatus()
}

// Followable returns true if the tag accepts followers.
func (t *Tag) Followable() bool {
	return t.IsPublic && t.AllowFollow
}
