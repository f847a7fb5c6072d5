package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taglink/taglink-server/internal/backup"
	"github.com/taglink/taglink-server/internal/domain"
	domainerrors "github.com/taglink/taglink-server/internal/errors"
	"github.com/taglink/taglink-server/internal/store"
)

// AdminService handles the administrative tag surface: provisioning, resets,
// deletes, fleet listing, and database backups. Every operation goes through
// one admin check.
type AdminService struct {
	store     store.Store
	provision *ProvisionService
	backups   *backup.Service
	logger    *slog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(store store.Store, provision *ProvisionService, backups *backup.Service, logger *slog.Logger) *AdminService {
	return &AdminService{
		store:     store,
		provision: provision,
		backups:   backups,
		logger:    logger,
	}
}

// requireAdmin verifies the caller holds the admin role.
func (s *AdminService) requireAdmin(ctx context.Context, callerID string) error {
	caller, err := s.store.GetUser(ctx, callerID)
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.Unauthorized("unknown caller")
	}
	if err != nil {
		return fmt.Errorf("get caller: %w", err)
	}
	if !caller.IsAdmin() {
		return domainerrors.Forbidden("admin role required")
	}
	return nil
}

// Provision mints one unclaimed tag.
func (s *AdminService) Provision(ctx context.Context, callerID, physicalID, explicitCode string) (*domain.Tag, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	return s.provision.Provision(ctx, physicalID, explicitCode)
}

// ProvisionBatch mints count unclaimed tags.
func (s *AdminService) ProvisionBatch(ctx context.Context, callerID string, count int, explicitCodes []string) ([]*domain.Tag, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	return s.provision.ProvisionBatch(ctx, count, explicitCodes)
}

// ResetTag unconditionally returns a tag to unclaimed, detaching its module
// and cancelling pending transfer requests.
func (s *AdminService) ResetTag(ctx context.Context, callerID, tagID string) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}

	if err := s.store.ResetTag(ctx, tagID, time.Now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("tag not found")
		}
		return fmt.Errorf("reset tag: %w", err)
	}

	s.logger.Info("tag reset", "tag_id", tagID, "admin_id", callerID)
	return nil
}

// DeleteTag removes a tag and everything referencing it.
func (s *AdminService) DeleteTag(ctx context.Context, callerID, tagID string) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}

	if err := s.store.DeleteTagCascade(ctx, tagID, time.Now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("tag not found")
		}
		return fmt.Errorf("delete tag: %w", err)
	}

	s.logger.Info("tag deleted", "tag_id", tagID, "admin_id", callerID)
	return nil
}

// ListTags returns the whole tag fleet, optionally filtered by status.
func (s *AdminService) ListTags(ctx context.Context, callerID string, status domain.TagStatus) ([]*domain.Tag, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	if status == "" {
		return tags, nil
	}

	filtered := tags[:0]
	for _, tag := range tags {
		if tag.Status == status {
			filtered = append(filtered, tag)
		}
	}
	return filtered, nil
}

// CreateBackup snapshots the database to the backup directory.
func (s *AdminService) CreateBackup(ctx context.Context, callerID string) (*backup.Info, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	info, err := s.backups.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("create backup: %w", err)
	}

	s.logger.Info("backup created", "backup_id", info.ID, "caller_id", callerID)
	return info, nil
}

// ListBackups returns all stored backups, newest first.
func (s *AdminService) ListBackups(ctx context.Context, callerID string) ([]backup.Info, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	return s.backups.List(ctx)
}

// DeleteBackup removes a stored backup.
func (s *AdminService) DeleteBackup(ctx context.Context, callerID, backupID string) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}

	if err := s.backups.Delete(ctx, backupID); err != nil {
		if errors.Is(err, backup.ErrBackupNotFound) {
			return domainerrors.NotFound("backup not found")
		}
		return fmt.Errorf("delete backup: %w", err)
	}

	s.logger.Info("backup deleted", "backup_id", backupID, "caller_id", callerID)
	return nil
}
