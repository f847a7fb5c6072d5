package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taglink/taglink-server/internal/domain"
	domainerrors "github.com/taglink/taglink-server/internal/errors"
)

func TestTransferService_Propose(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	bob := createTestUser(t, env, "bob", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)

	request, err := env.transfers.Propose(ctx, alice.ID, tag.ID, bob.Email, "enjoy")
	require.NoError(t, err)

	assert.Equal(t, domain.TransferRequestPending, request.Status)
	assert.Equal(t, alice.ID, request.FromUserID)
	assert.Equal(t, bob.ID, request.ToUserID)

	// The target gets a notification.
	notifications, err := env.notify.ListNotifications(ctx, bob.ID, false)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotificationTransferRequest, notifications[0].Type)
}

func TestTransferService_Propose_ByUsername(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	bob := createTestUser(t, env, "bob", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)

	request, err := env.transfers.Propose(ctx, alice.ID, tag.ID, "bob", "")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, request.ToUserID)
}

func TestTransferService_Propose_NotOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	bob := createTestUser(t, env, "bob", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)

	_, err := env.transfers.Propose(ctx, bob.ID, tag.ID, alice.Email, "")
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestTransferService_Propose_ToSelf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)

	_, err := env.transfers.Propose(ctx, alice.ID, tag.ID, alice.Email, "")
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestTransferService_Propose_UnknownRecipient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)

	_, err := env.transfers.Propose(ctx, alice.ID, tag.ID, "nobody", "")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestTransferService_Propose_DuplicatePending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	bob := createTestUser(t, env, "bob", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)

	_, err := env.transfers.Propose(ctx, alice.ID, tag.ID, bob.Email, "")
	require.NoError(t, err)

	_, err = env.transfers.Propose(ctx, alice.ID, tag.ID, bob.Email, "")
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestTransferService_Accept(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	bob := createTestUser(t, env, "bob", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)
	plant := createTestPlant(t, env, alice.ID, "Fern")

	_, err := env.links.Link(ctx, alice.ID, tag.ID, domain.ModuleKindPlant, plant.ID)
	require.NoError(t, err)

	request, err := env.transfers.Propose(ctx, alice.ID, tag.ID, bob.Email, "a fern for you")
	require.NoError(t, err)

	resolved, err := env.transfers.Respond(ctx, bob.ID, request.ID, RespondAccept)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferRequestAccepted, resolved.Status)

	// Tag moved, link intact.
	reloaded, err := env.store.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, reloaded.OwnerID)
	assert.Equal(t, domain.ModuleKindPlant, reloaded.ModuleType)

	// The plant moved with it and carries gift provenance.
	module, err := env.store.GetModule(ctx, domain.ModuleKindPlant, plant.ID)
	require.NoError(t, err)
	moved := module.(*domain.Plant)
	assert.Equal(t, bob.ID, moved.UserID)
	assert.Equal(t, alice.ID, moved.GiftedBy)
	assert.Equal(t, "a fern for you", moved.GiftMessage)
	require.NotNil(t, moved.GiftedAt)

	// Audit row written.
	history, err := env.transfers.TagHistory(ctx, bob.ID, tag.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.TransferTypeGift, history[0].TransferType)
	assert.Equal(t, alice.ID, history[0].FromUserID)
	assert.Equal(t, bob.ID, history[0].ToUserID)
}

func TestTransferService_Reject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	bob := createTestUser(t, env, "bob", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)

	request, err := env.transfers.Propose(ctx, alice.ID, tag.ID, bob.Email, "")
	require.NoError(t, err)

	resolved, err := env.transfers.Respond(ctx, bob.ID, request.ID, RespondReject)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferRequestRejected, resolved.Status)

	// Tag untouched.
	reloaded, err := env.store.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, reloaded.OwnerID)
}

func TestTransferService_Respond_OnlyTarget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	bob := createTestUser(t, env, "bob", domain.RoleMember)
	carol := createTestUser(t, env, "carol", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)

	request, err := env.transfers.Propose(ctx, alice.ID, tag.ID, bob.Email, "")
	require.NoError(t, err)

	_, err = env.transfers.Respond(ctx, carol.ID, request.ID, RespondAccept)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	// The requester cannot accept on the target's behalf either.
	_, err = env.transfers.Respond(ctx, alice.ID, request.ID, RespondAccept)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestTransferService_Respond_TerminalRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	bob := createTestUser(t, env, "bob", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)

	request, err := env.transfers.Propose(ctx, alice.ID, tag.ID, bob.Email, "")
	require.NoError(t, err)

	_, err = env.transfers.Respond(ctx, bob.ID, request.ID, RespondReject)
	require.NoError(t, err)

	_, err = env.transfers.Respond(ctx, bob.ID, request.ID, RespondAccept)
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestTransferService_Respond_TerminalBeatsForbidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	bob := createTestUser(t, env, "bob", domain.RoleMember)
	carol := createTestUser(t, env, "carol", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)

	request, err := env.transfers.Propose(ctx, alice.ID, tag.ID, bob.Email, "")
	require.NoError(t, err)

	_, err = env.transfers.Respond(ctx, bob.ID, request.ID, RespondAccept)
	require.NoError(t, err)

	// A resolved request reads as Conflict even for a non-target caller.
	_, err = env.transfers.Respond(ctx, carol.ID, request.ID, RespondAccept)
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestTransferService_Cancel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	bob := createTestUser(t, env, "bob", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)

	request, err := env.transfers.Propose(ctx, alice.ID, tag.ID, bob.Email, "")
	require.NoError(t, err)

	cancelled, err := env.transfers.Cancel(ctx, alice.ID, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferRequestCancelled, cancelled.Status)

	// A cancelled request frees the (tag, target) pair for a new proposal.
	_, err = env.transfers.Propose(ctx, alice.ID, tag.ID, bob.Email, "")
	require.NoError(t, err)
}

func TestTransferService_Cancel_OnlyRequester(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	bob := createTestUser(t, env, "bob", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)

	request, err := env.transfers.Propose(ctx, alice.ID, tag.ID, bob.Email, "")
	require.NoError(t, err)

	_, err = env.transfers.Cancel(ctx, bob.ID, request.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestTransferService_Accept_AfterOwnerChanged(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	bob := createTestUser(t, env, "bob", domain.RoleMember)
	carol := createTestUser(t, env, "carol", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)

	request, err := env.transfers.Propose(ctx, alice.ID, tag.ID, bob.Email, "")
	require.NoError(t, err)

	// The tag goes to carol directly before bob answers.
	_, err = env.transfers.Direct(ctx, alice.ID, tag.ID, carol.Email, "")
	require.NoError(t, err)

	_, err = env.transfers.Respond(ctx, bob.ID, request.ID, RespondAccept)
	assert.ErrorIs(t, err, domainerrors.ErrConflict)

	reloaded, err := env.store.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, carol.ID, reloaded.OwnerID)
}

func TestTransferService_Direct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	bob := createTestUser(t, env, "bob", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)

	transfer, err := env.transfers.Direct(ctx, alice.ID, tag.PublicCode, bob.Email, "here you go")
	require.NoError(t, err)
	assert.Equal(t, domain.TransferTypeDirect, transfer.TransferType)

	reloaded, err := env.store.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, reloaded.OwnerID)

	// The recipient is told, with no acceptance gate.
	notifications, err := env.notify.ListNotifications(ctx, bob.ID, false)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotificationTagReceived, notifications[0].Type)
}

func TestTransferService_Direct_ToSelf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)

	_, err := env.transfers.Direct(ctx, alice.ID, tag.ID, alice.Username, "")
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestTransferService_TagHistory_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	bob := createTestUser(t, env, "bob", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)

	_, err := env.transfers.Direct(ctx, alice.ID, tag.ID, bob.Email, "")
	require.NoError(t, err)

	// alice no longer owns the tag, so the history is closed to her.
	_, err = env.transfers.TagHistory(ctx, alice.ID, tag.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	history, err := env.transfers.TagHistory(ctx, bob.ID, tag.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestTransferService_ListIncomingOutgoing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	bob := createTestUser(t, env, "bob", domain.RoleMember)
	first := claimedTestTag(t, env, alice.ID)
	second := claimedTestTag(t, env, alice.ID)

	_, err := env.transfers.Propose(ctx, alice.ID, first.ID, bob.Email, "")
	require.NoError(t, err)
	request, err := env.transfers.Propose(ctx, alice.ID, second.ID, bob.Email, "")
	require.NoError(t, err)
	_, err = env.transfers.Respond(ctx, bob.ID, request.ID, RespondReject)
	require.NoError(t, err)

	incoming, err := env.transfers.ListIncoming(ctx, bob.ID, true)
	require.NoError(t, err)
	assert.Len(t, incoming, 1)

	outgoing, err := env.transfers.ListOutgoing(ctx, alice.ID, false)
	require.NoError(t, err)
	assert.Len(t, outgoing, 2)
}
