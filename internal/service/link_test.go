package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taglink/taglink-server/internal/domain"
	domainerrors "github.com/taglink/taglink-server/internal/errors"
)

func TestLinkService_Link(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)
	plant := createTestPlant(t, env, alice.ID, "Fern")

	linked, err := env.links.Link(ctx, alice.ID, tag.ID, domain.ModuleKindPlant, plant.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ModuleKindPlant, linked.ModuleType)
	assert.Equal(t, domain.TagStatusLinked, linked.Status)

	// Both sides of the link are persisted.
	module, err := env.store.GetModule(ctx, domain.ModuleKindPlant, plant.ID)
	require.NoError(t, err)
	assert.Equal(t, tag.ID, module.LinkedTagID())
}

func TestLinkService_Link_SamePairIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)
	plant := createTestPlant(t, env, alice.ID, "Fern")

	_, err := env.links.Link(ctx, alice.ID, tag.ID, domain.ModuleKindPlant, plant.ID)
	require.NoError(t, err)

	linked, err := env.links.Link(ctx, alice.ID, tag.ID, domain.ModuleKindPlant, plant.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TagStatusLinked, linked.Status)
}

func TestLinkService_Link_TagAlreadyLinked(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)
	plant := createTestPlant(t, env, alice.ID, "Fern")
	card := createTestCard(t, env, alice.ID, "Alice")

	_, err := env.links.Link(ctx, alice.ID, tag.ID, domain.ModuleKindPlant, plant.ID)
	require.NoError(t, err)

	_, err = env.links.Link(ctx, alice.ID, tag.ID, domain.ModuleKindCard, card.ID)
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestLinkService_Link_ModuleAlreadyLinked(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	first := claimedTestTag(t, env, alice.ID)
	second := claimedTestTag(t, env, alice.ID)
	plant := createTestPlant(t, env, alice.ID, "Fern")

	_, err := env.links.Link(ctx, alice.ID, first.ID, domain.ModuleKindPlant, plant.ID)
	require.NoError(t, err)

	_, err = env.links.Link(ctx, alice.ID, second.ID, domain.ModuleKindPlant, plant.ID)
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestLinkService_Link_NotTagOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	bob := createTestUser(t, env, "bob", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)
	plant := createTestPlant(t, env, bob.ID, "Fern")

	_, err := env.links.Link(ctx, bob.ID, tag.ID, domain.ModuleKindPlant, plant.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestLinkService_Link_ModuleOwnedByAnother(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	bob := createTestUser(t, env, "bob", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)
	plant := createTestPlant(t, env, bob.ID, "Fern")

	_, err := env.links.Link(ctx, alice.ID, tag.ID, domain.ModuleKindPlant, plant.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestLinkService_Link_UnknownKind(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)

	_, err := env.links.Link(ctx, alice.ID, tag.ID, domain.ModuleKind("sticker"), "mod-1")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestLinkService_Link_ModuleNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)

	_, err := env.links.Link(ctx, alice.ID, tag.ID, domain.ModuleKindPlant, "plant-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestLinkService_Unlink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)
	plant := createTestPlant(t, env, alice.ID, "Fern")

	_, err := env.links.Link(ctx, alice.ID, tag.ID, domain.ModuleKindPlant, plant.ID)
	require.NoError(t, err)

	unlinked, err := env.links.Unlink(ctx, alice.ID, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TagStatusClaimed, unlinked.Status)
	assert.Empty(t, unlinked.ModuleType)

	// Owner and claim timestamp survive an unlink.
	reloaded, err := env.store.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, reloaded.OwnerID)
	assert.NotNil(t, reloaded.ClaimedAt)

	module, err := env.store.GetModule(ctx, domain.ModuleKindPlant, plant.ID)
	require.NoError(t, err)
	assert.Empty(t, module.LinkedTagID())
}

func TestLinkService_Unlink_NotLinkedIsNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)

	unlinked, err := env.links.Unlink(ctx, alice.ID, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TagStatusClaimed, unlinked.Status)
}

func TestLinkService_Unlink_NotOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	bob := createTestUser(t, env, "bob", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)

	_, err := env.links.Unlink(ctx, bob.ID, tag.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestLinkService_LinkAfterUnlinkToDifferentModule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)
	plant := createTestPlant(t, env, alice.ID, "Fern")
	card := createTestCard(t, env, alice.ID, "Alice")

	_, err := env.links.Link(ctx, alice.ID, tag.ID, domain.ModuleKindPlant, plant.ID)
	require.NoError(t, err)
	_, err = env.links.Unlink(ctx, alice.ID, tag.ID)
	require.NoError(t, err)

	linked, err := env.links.Link(ctx, alice.ID, tag.ID, domain.ModuleKindCard, card.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ModuleKindCard, linked.ModuleType)
}
