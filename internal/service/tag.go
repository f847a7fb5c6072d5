package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taglink/taglink-server/internal/domain"
	domainerrors "github.com/taglink/taglink-server/internal/errors"
	"github.com/taglink/taglink-server/internal/store"
)

// TagService is the sole authority over a tag's owner, module type, status,
// and claim timestamp.
type TagService struct {
	store  store.Store
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store store.Store, logger *slog.Logger) *TagService {
	return &TagService{
		store:  store,
		logger: logger,
	}
}

// resolveTag looks a tag up by internal ID, printed public code, or the
// inlay's physical ID.
func resolveTag(ctx context.Context, s store.Store, ref string) (*domain.Tag, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domainerrors.Validation("tag reference is required")
	}

	if strings.HasPrefix(ref, "tag-") {
		tag, err := s.GetTag(ctx, ref)
		if err == nil {
			return tag, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("get tag: %w", err)
		}
		// Fall through: an ID-shaped string could still be a code.
	}

	tag, err := s.GetTagByPublicCode(ctx, ref)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get tag by code: %w", err)
	}

	tag, err = s.GetTagByPhysicalID(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("tag not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get tag by physical ID: %w", err)
	}
	return tag, nil
}

// Claim assigns an unclaimed tag to the caller. Claiming an already-owned
// tag is a conflict even when the caller is the current owner.
func (s *TagService) Claim(ctx context.Context, userID, tagRef string) (*domain.Tag, error) {
	tag, err := resolveTag(ctx, s.store, tagRef)
	if err != nil {
		return nil, err
	}

	if err := s.store.ClaimTag(ctx, tag.ID, userID, time.Now()); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			return nil, domainerrors.Conflict("tag already claimed")
		case errors.Is(err, store.ErrNotFound):
			return nil, domainerrors.NotFound("tag not found")
		default:
			return nil, fmt.Errorf("claim tag: %w", err)
		}
	}

	s.logger.Info("tag claimed", "tag_id", tag.ID, "user_id", userID)

	tag, err = s.store.GetTag(ctx, tag.ID)
	if err != nil {
		return nil, fmt.Errorf("reload tag: %w", err)
	}
	return tag, nil
}

// GetTag returns a tag and its linked module, subject to visibility: the
// owner sees everything, everyone else sees only public tags. Private tags
// read like missing ones so codes cannot be probed.
func (s *TagService) GetTag(ctx context.Context, callerID, tagRef string) (*domain.Tag, domain.Module, error) {
	tag, err := resolveTag(ctx, s.store, tagRef)
	if err != nil {
		return nil, nil, err
	}

	if !tag.OwnedBy(callerID) && !tag.IsPublic {
		return nil, nil, domainerrors.NotFound("tag not found")
	}

	var module domain.Module
	if tag.IsLinked() {
		module, err = s.store.GetModuleByTag(ctx, tag.ModuleType, tag.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, nil, fmt.Errorf("get linked module: %w", err)
		}
	}

	return tag, module, nil
}

// ListOwnedTags returns the caller's tags.
func (s *TagService) ListOwnedTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	tags, err := s.store.ListUserTags(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list owned tags: %w", err)
	}
	return tags, nil
}

// UpdateSettings toggles a tag's visibility and follow flags. Owner only.
func (s *TagService) UpdateSettings(ctx context.Context, userID, tagRef string, isPublic, allowFollow bool) (*domain.Tag, error) {
	tag, err := resolveTag(ctx, s.store, tagRef)
	if err != nil {
		return nil, err
	}

	if !tag.OwnedBy(userID) {
		return nil, domainerrors.Forbidden("only the tag owner can change its settings")
	}

	if err := s.store.UpdateTagSettings(ctx, tag.ID, isPublic, allowFollow, time.Now()); err != nil {
		return nil, fmt.Errorf("update tag settings: %w", err)
	}

	tag.IsPublic = isPublic
	tag.AllowFollow = allowFollow
	return tag, nil
}
