package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/taglink/taglink-server/internal/domain"
	"github.com/taglink/taglink-server/internal/id"
	"github.com/taglink/taglink-server/internal/store"
)

func seedRequest(t *testing.T, s *Store, tagID, fromID, toID string) *domain.TransferRequest {
	t.Helper()
	now := time.Now()
	r := &domain.TransferRequest{
		ID:         id.MustGenerate("trq"),
		TagID:      tagID,
		FromUserID: fromID,
		ToUserID:   toID,
		Status:     domain.TransferRequestPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.CreateTransferRequest(context.Background(), r); err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return r
}

func TestCreateTransferRequest_DuplicatePending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	tag := claimedTag(t, s, alice.ID)

	seedRequest(t, s, tag.ID, alice.ID, bob.ID)

	dup := &domain.TransferRequest{
		ID:         id.MustGenerate("trq"),
		TagID:      tag.ID,
		FromUserID: alice.ID,
		ToUserID:   bob.ID,
		Status:     domain.TransferRequestPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	err := s.CreateTransferRequest(ctx, dup)
	if err != store.ErrAlreadyExists {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreateTransferRequest_AfterResolutionAllowed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	tag := claimedTag(t, s, alice.ID)

	r := seedRequest(t, s, tag.ID, alice.ID, bob.ID)
	if err := s.ResolveTransferRequest(ctx, r.ID, domain.TransferRequestRejected, time.Now()); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// The partial unique index only bites while a request is pending.
	seedRequest(t, s, tag.ID, alice.ID, bob.ID)
}

func TestResolveTransferRequest_Terminal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	tag := claimedTag(t, s, alice.ID)
	r := seedRequest(t, s, tag.ID, alice.ID, bob.ID)

	if err := s.ResolveTransferRequest(ctx, r.ID, domain.TransferRequestCancelled, time.Now()); err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	err := s.ResolveTransferRequest(ctx, r.ID, domain.TransferRequestAccepted, time.Now())
	if err != store.ErrConflict {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	got, err := s.GetTransferRequest(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.TransferRequestCancelled {
		t.Errorf("status = %q, want cancelled", got.Status)
	}
}

func TestResolveTransferRequest_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.ResolveTransferRequest(context.Background(), "trq-missing", domain.TransferRequestAccepted, time.Now())
	if err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCommitTransfer_LinkedModule(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	tag := claimedTag(t, s, alice.ID)
	plant := seedPlant(t, s, alice.ID)
	if err := s.LinkTagModule(ctx, tag.ID, plant, time.Now()); err != nil {
		t.Fatalf("link: %v", err)
	}
	r := seedRequest(t, s, tag.ID, alice.ID, bob.ID)

	now := time.Now()
	plant.TagID = tag.ID
	plant.SetOwner(bob.ID)
	plant.ApplyTransfer(alice.ID, bob.ID, "for you", now)
	plant.Touch()

	transfer := &domain.OwnershipTransfer{
		ID:            id.MustGenerate("otr"),
		TagID:         tag.ID,
		FromUserID:    alice.ID,
		ToUserID:      bob.ID,
		TransferType:  domain.TransferTypeGift,
		Message:       "for you",
		TransferredAt: now,
	}
	if err := s.CommitTransfer(ctx, transfer, plant, r.ID); err != nil {
		t.Fatalf("commit: %v", err)
	}

	gotTag, err := s.GetTag(ctx, tag.ID)
	if err != nil {
		t.Fatalf("get tag: %v", err)
	}
	if gotTag.OwnerID != bob.ID {
		t.Errorf("tag owner = %q, want %q", gotTag.OwnerID, bob.ID)
	}
	if gotTag.Status != domain.TagStatusLinked {
		t.Errorf("tag status = %q, want linked", gotTag.Status)
	}

	gotPlant, err := s.GetModule(ctx, domain.ModuleKindPlant, plant.ID)
	if err != nil {
		t.Fatalf("get plant: %v", err)
	}
	if gotPlant.Owner() != bob.ID {
		t.Errorf("plant owner = %q, want %q", gotPlant.Owner(), bob.ID)
	}
	if gotPlant.(*domain.Plant).GiftedBy != alice.ID {
		t.Errorf("gifted_by = %q, want %q", gotPlant.(*domain.Plant).GiftedBy, alice.ID)
	}

	gotReq, err := s.GetTransferRequest(ctx, r.ID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if gotReq.Status != domain.TransferRequestAccepted {
		t.Errorf("request status = %q, want accepted", gotReq.Status)
	}

	history, err := s.ListTagTransfers(ctx, tag.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history len = %d, want 1", len(history))
	}
	if history[0].FromUserID != alice.ID || history[0].ToUserID != bob.ID {
		t.Errorf("history row %s -> %s", history[0].FromUserID, history[0].ToUserID)
	}
}

func TestCommitTransfer_OwnerChanged(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	carol := seedUser(t, s, "carol")
	tag := claimedTag(t, s, alice.ID)

	// Tag moves to carol before the commit naming alice as the source runs.
	first := &domain.OwnershipTransfer{
		ID:            id.MustGenerate("otr"),
		TagID:         tag.ID,
		FromUserID:    alice.ID,
		ToUserID:      carol.ID,
		TransferType:  domain.TransferTypeDirect,
		TransferredAt: time.Now(),
	}
	if err := s.CommitTransfer(ctx, first, nil, ""); err != nil {
		t.Fatalf("first commit: %v", err)
	}

	stale := &domain.OwnershipTransfer{
		ID:            id.MustGenerate("otr"),
		TagID:         tag.ID,
		FromUserID:    alice.ID,
		ToUserID:      bob.ID,
		TransferType:  domain.TransferTypeDirect,
		TransferredAt: time.Now(),
	}
	err := s.CommitTransfer(ctx, stale, nil, "")
	if err != store.ErrConflict {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	// No audit row for the failed commit.
	history, err := s.ListTagTransfers(ctx, tag.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("history len = %d, want 1", len(history))
	}
}

func TestCommitTransfer_ResolvedRequestRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	tag := claimedTag(t, s, alice.ID)
	r := seedRequest(t, s, tag.ID, alice.ID, bob.ID)

	// Request gets cancelled before the accept commit runs.
	if err := s.ResolveTransferRequest(ctx, r.ID, domain.TransferRequestCancelled, time.Now()); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	transfer := &domain.OwnershipTransfer{
		ID:            id.MustGenerate("otr"),
		TagID:         tag.ID,
		FromUserID:    alice.ID,
		ToUserID:      bob.ID,
		TransferType:  domain.TransferTypeGift,
		TransferredAt: time.Now(),
	}
	err := s.CommitTransfer(ctx, transfer, nil, r.ID)
	if err != store.ErrConflict {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	// The whole transaction must have rolled back, tag owner included.
	gotTag, err := s.GetTag(ctx, tag.ID)
	if err != nil {
		t.Fatalf("get tag: %v", err)
	}
	if gotTag.OwnerID != alice.ID {
		t.Errorf("tag owner = %q, want %q", gotTag.OwnerID, alice.ID)
	}
}

func TestListTransferRequests(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	t1 := claimedTag(t, s, alice.ID)
	t2 := claimedTag(t, s, alice.ID)

	r1 := seedRequest(t, s, t1.ID, alice.ID, bob.ID)
	seedRequest(t, s, t2.ID, alice.ID, bob.ID)
	if err := s.ResolveTransferRequest(ctx, r1.ID, domain.TransferRequestRejected, time.Now()); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	incoming, err := s.ListIncomingTransferRequests(ctx, bob.ID, false)
	if err != nil {
		t.Fatalf("incoming all: %v", err)
	}
	if len(incoming) != 2 {
		t.Errorf("incoming all len = %d, want 2", len(incoming))
	}

	pending, err := s.ListIncomingTransferRequests(ctx, bob.ID, true)
	if err != nil {
		t.Fatalf("incoming pending: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("incoming pending len = %d, want 1", len(pending))
	}

	outgoing, err := s.ListOutgoingTransferRequests(ctx, alice.ID, false)
	if err != nil {
		t.Fatalf("outgoing: %v", err)
	}
	if len(outgoing) != 2 {
		t.Errorf("outgoing len = %d, want 2", len(outgoing))
	}
}
