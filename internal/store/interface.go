// Package store defines the persistence interface for the TagLink server.
package store

import (
	"context"
	"time"

	"github.com/taglink/taglink-server/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
	CountUsers(ctx context.Context) (int, error)

	// Auth sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	ListUserSessions(ctx context.Context, userID string) ([]*domain.Session, error)
	RotateSession(ctx context.Context, sessionID, newTokenHash string, expiresAt, seenAt time.Time) error
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteUserSessions(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context, cutoff time.Time) (int64, error)

	// Tags
	CreateTag(ctx context.Context, tag *domain.Tag) error
	GetTag(ctx context.Context, id string) (*domain.Tag, error)
	GetTagByPhysicalID(ctx context.Context, physicalID string) (*domain.Tag, error)
	GetTagByPublicCode(ctx context.Context, code string) (*domain.Tag, error)
	ListTags(ctx context.Context) ([]*domain.Tag, error)
	ListUserTags(ctx context.Context, userID string) ([]*domain.Tag, error)
	ClaimTag(ctx context.Context, tagID, userID string, at time.Time) error
	UpdateTagSettings(ctx context.Context, tagID string, isPublic, allowFollow bool, at time.Time) error

	// Modules
	CreateModule(ctx context.Context, m domain.Module) error
	GetModule(ctx context.Context, kind domain.ModuleKind, id string) (domain.Module, error)
	GetModuleByTag(ctx context.Context, kind domain.ModuleKind, tagID string) (domain.Module, error)
	ListUserModules(ctx context.Context, kind domain.ModuleKind, userID string) ([]domain.Module, error)
	UpdateModule(ctx context.Context, m domain.Module) error
	DeleteModule(ctx context.Context, kind domain.ModuleKind, id string) error
	LinkTagModule(ctx context.Context, tagID string, m domain.Module, at time.Time) error
	UnlinkTagModule(ctx context.Context, tagID string, kind domain.ModuleKind, moduleID string, at time.Time) error

	// Transfers
	CreateTransferRequest(ctx context.Context, r *domain.TransferRequest) error
	GetTransferRequest(ctx context.Context, id string) (*domain.TransferRequest, error)
	ListIncomingTransferRequests(ctx context.Context, userID string, pendingOnly bool) ([]*domain.TransferRequest, error)
	ListOutgoingTransferRequests(ctx context.Context, userID string, pendingOnly bool) ([]*domain.TransferRequest, error)
	ResolveTransferRequest(ctx context.Context, requestID string, status domain.TransferRequestStatus, at time.Time) error
	CommitTransfer(ctx context.Context, transfer *domain.OwnershipTransfer, module domain.Module, requestID string) error
	ListTagTransfers(ctx context.Context, tagID string) ([]*domain.OwnershipTransfer, error)
	ListUserTransfers(ctx context.Context, userID string) ([]*domain.OwnershipTransfer, error)

	// Follows
	CreateFollow(ctx context.Context, f *domain.Follow) error
	GetFollow(ctx context.Context, userID, tagID string) (*domain.Follow, error)
	DeleteFollow(ctx context.Context, userID, tagID string) error
	ListTagFollowers(ctx context.Context, tagID string) ([]*domain.Follow, error)
	ListUserFollows(ctx context.Context, userID string) ([]*domain.Follow, error)
	CountTagFollowers(ctx context.Context, tagID string) (int, error)

	// Notifications
	CreateNotification(ctx context.Context, n *domain.Notification) error
	ListUserNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID string, at time.Time) error
	MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error)

	// Admin
	ResetTag(ctx context.Context, tagID string, at time.Time) error
	DeleteTagCascade(ctx context.Context, tagID string, at time.Time) error
}
