package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taglink/taglink-server/internal/domain"
	domainerrors "github.com/taglink/taglink-server/internal/errors"
)

func TestModuleService_Create_AllKinds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)

	for _, kind := range []domain.ModuleKind{
		domain.ModuleKindCard,
		domain.ModuleKindPlant,
		domain.ModuleKindMug,
		domain.ModuleKindGift,
		domain.ModuleKindPage,
	} {
		module, err := env.modules.Create(ctx, alice.ID, CreateModuleInput{
			Kind: kind,
			Name: "thing",
		})
		require.NoError(t, err, "kind %s", kind)
		assert.Equal(t, kind, module.Kind())
		assert.Equal(t, alice.ID, module.Owner())
		assert.Empty(t, module.LinkedTagID())
	}
}

func TestModuleService_Create_Invalid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)

	_, err := env.modules.Create(ctx, alice.ID, CreateModuleInput{Kind: "sticker", Name: "x"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = env.modules.Create(ctx, alice.ID, CreateModuleInput{Kind: domain.ModuleKindMug})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestModuleService_Get_OwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	bob := createTestUser(t, env, "bob", domain.RoleMember)
	plant := createTestPlant(t, env, alice.ID, "Fern")

	module, err := env.modules.Get(ctx, alice.ID, domain.ModuleKindPlant, plant.ID)
	require.NoError(t, err)
	assert.Equal(t, plant.ID, module.ModuleID())

	_, err = env.modules.Get(ctx, bob.ID, domain.ModuleKindPlant, plant.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestModuleService_List(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	createTestPlant(t, env, alice.ID, "Fern")
	createTestPlant(t, env, alice.ID, "Cactus")
	createTestCard(t, env, alice.ID, "Alice")

	plants, err := env.modules.List(ctx, alice.ID, domain.ModuleKindPlant)
	require.NoError(t, err)
	assert.Len(t, plants, 2)

	cards, err := env.modules.List(ctx, alice.ID, domain.ModuleKindCard)
	require.NoError(t, err)
	assert.Len(t, cards, 1)
}

func TestModuleService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	plant := createTestPlant(t, env, alice.ID, "Fern")

	require.NoError(t, env.modules.Delete(ctx, alice.ID, domain.ModuleKindPlant, plant.ID))

	_, err := env.modules.Get(ctx, alice.ID, domain.ModuleKindPlant, plant.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestModuleService_Delete_LinkedModule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := createTestUser(t, env, "alice", domain.RoleMember)
	tag := claimedTestTag(t, env, alice.ID)
	plant := createTestPlant(t, env, alice.ID, "Fern")

	_, err := env.links.Link(ctx, alice.ID, tag.ID, domain.ModuleKindPlant, plant.ID)
	require.NoError(t, err)

	err = env.modules.Delete(ctx, alice.ID, domain.ModuleKindPlant, plant.ID)
	assert.ErrorIs(t, err, domainerrors.ErrConflict)

	// Unlink first, then delete works.
	_, err = env.links.Unlink(ctx, alice.ID, tag.ID)
	require.NoError(t, err)
	require.NoError(t, env.modules.Delete(ctx, alice.ID, domain.ModuleKindPlant, plant.ID))
}
