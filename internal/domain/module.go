package domain

import "time"

// ModuleKind identifies one of the closed set of module variants a tag can
// be linked to. The set is deliberately small and fixed; operations dispatch
// on kind once instead of branching per variant in every handler.
type ModuleKind string

const (
	ModuleKindCard  ModuleKind = "card"
	ModuleKindPlant ModuleKind = "plant"
	ModuleKindMug   ModuleKind = "mug"
	ModuleKindGift  ModuleKind = "gift"
	ModuleKindPage  ModuleKind = "page"
)

// ModuleKinds lists every known module kind.
var ModuleKinds = []ModuleKind{
	ModuleKindCard,
	ModuleKindPlant,
	ModuleKindMug,
	ModuleKindGift,
	ModuleKindPage,
}

// Valid returns true for a known module kind.
func (k ModuleKind) Valid() bool {
	switch k {
	case ModuleKindCard, ModuleKindPlant, ModuleKindMug, ModuleKindGift, ModuleKindPage:
		return true
	}
	return false
}

// Module is the capability every variant provides to the linking and
// transfer machinery: an identity, an owning user, and an optional
// back-reference to the linked tag. Content fields belong to the variants
// and never leak into these operations.
type Module interface {
	// Kind returns the variant's module kind.
	Kind() ModuleKind
	// ModuleID returns the variant's entity ID.
	ModuleID() string
	// Owner returns the owning user ID. The backing field differs per
	// variant (user, owner, sender); callers never need to know which.
	Owner() string
	// SetOwner reassigns the owning user.
	SetOwner(userID string)
	// LinkedTagID returns the linked tag's ID, or "" when unlinked.
	LinkedTagID() string
	// SetLinkedTagID sets or clears ("") the tag back-reference.
	SetLinkedTagID(tagID string)
	// Touch updates the variant's UpdatedAt timestamp.
	Touch()
}

// TransferEffect is the optional hook a module kind may define to record
// kind-specific bookkeeping when ownership moves. It runs inside the same
// transaction as the ownership change.
type TransferEffect interface {
	ApplyTransfer(fromUserID, toUserID, message string, at time.Time)
}
