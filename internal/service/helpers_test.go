package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taglink/taglink-server/internal/auth"
	"github.com/taglink/taglink-server/internal/backup"
	"github.com/taglink/taglink-server/internal/domain"
	"github.com/taglink/taglink-server/internal/store"
	"github.com/taglink/taglink-server/internal/store/sqlite"
	"github.com/taglink/taglink-server/internal/validation"
)

// testEnv wires every service against a real sqlite store on a temp file.
type testEnv struct {
	store     store.Store
	tags      *TagService
	links     *LinkService
	transfers *TransferService
	follows   *FollowService
	notify    *NotificationService
	modules   *ModuleService
	provision *ProvisionService
	admin     *AdminService
	auth      *AuthService
	sessions  *SessionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	tokenService, err := auth.NewTokenService(bytes.Repeat([]byte{0x42}, 32), 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	notify := NewNotificationService(s, logger)
	provision := NewProvisionService(s, logger)
	sessions := NewSessionService(s, tokenService, logger)
	backups := backup.NewService(s, filepath.Join(t.TempDir(), "backups"), 0, logger)

	return &testEnv{
		store:     s,
		tags:      NewTagService(s, logger),
		links:     NewLinkService(s, logger),
		transfers: NewTransferService(s, notify, logger),
		follows:   NewFollowService(s, notify, logger),
		notify:    notify,
		modules:   NewModuleService(s, logger),
		provision: provision,
		admin:     NewAdminService(s, provision, backups, logger),
		auth:      NewAuthService(s, tokenService, sessions, validation.New(), logger),
		sessions:  sessions,
	}
}

func createTestUser(t *testing.T, env *testEnv, username string, role domain.Role) *domain.User {
	t.Helper()

	now := time.Now()
	user := &domain.User{
		ID:        "user-" + username,
		Email:     username + "@example.com",
		Username:  username,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, env.store.CreateUser(context.Background(), user))
	return user
}

func provisionTestTag(t *testing.T, env *testEnv) *domain.Tag {
	t.Helper()

	tag, err := env.provision.Provision(context.Background(), "", "")
	require.NoError(t, err)
	return tag
}

func claimedTestTag(t *testing.T, env *testEnv, userID string) *domain.Tag {
	t.Helper()

	tag := provisionTestTag(t, env)
	claimed, err := env.tags.Claim(context.Background(), userID, tag.PublicCode)
	require.NoError(t, err)
	return claimed
}

func createTestPlant(t *testing.T, env *testEnv, userID, name string) *domain.Plant {
	t.Helper()

	module, err := env.modules.Create(context.Background(), userID, CreateModuleInput{
		Kind:    domain.ModuleKindPlant,
		Name:    name,
		Species: "Monstera deliciosa",
	})
	require.NoError(t, err)
	return module.(*domain.Plant)
}

func createTestCard(t *testing.T, env *testEnv, userID, name string) *domain.Card {
	t.Helper()

	module, err := env.modules.Create(context.Background(), userID, CreateModuleInput{
		Kind: domain.ModuleKindCard,
		Name: name,
	})
	require.NoError(t, err)
	return module.(*domain.Card)
}
