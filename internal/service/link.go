package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taglink/taglink-server/internal/domain"
	domainerrors "github.com/taglink/taglink-server/internal/errors"
	"github.com/taglink/taglink-server/internal/store"
)

// LinkService enforces the bidirectional 1:1 invariant between tags and
// modules, independent of module kind.
type LinkService struct {
	store  store.Store
	logger *slog.Logger
}

// NewLinkService creates a new link service.
func NewLinkService(store store.Store, logger *slog.Logger) *LinkService {
	return &LinkService{
		store:  store,
		logger: logger,
	}
}

// Link attaches a module to one of the caller's claimed tags. Re-linking the
// exact same pair is an idempotent no-op; any other overlap is a conflict.
func (s *LinkService) Link(ctx context.Context, userID, tagRef string, kind domain.ModuleKind, moduleID string) (*domain.Tag, error) {
	if !kind.Valid() {
		return nil, domainerrors.Validation("unknown module kind")
	}

	tag, err := resolveTag(ctx, s.store, tagRef)
	if err != nil {
		return nil, err
	}
	if !tag.OwnedBy(userID) {
		return nil, domainerrors.Forbidden("only the tag owner can link a module")
	}

	module, err := s.store.GetModule(ctx, kind, moduleID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("module not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get module: %w", err)
	}
	if module.Owner() != userID {
		return nil, domainerrors.Forbidden("module belongs to another user")
	}

	// Idempotent re-link of the exact same pair.
	if tag.ModuleType == kind && module.LinkedTagID() == tag.ID {
		return tag, nil
	}

	if tag.IsLinked() {
		return nil, domainerrors.Conflict("tag already linked to a module")
	}
	if module.LinkedTagID() != "" {
		return nil, domainerrors.Conflict("module already linked to another tag")
	}

	if err := s.store.LinkTagModule(ctx, tag.ID, module, time.Now()); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, domainerrors.Conflict("tag or module was linked concurrently")
		}
		return nil, fmt.Errorf("link tag module: %w", err)
	}

	s.logger.Info("tag linked",
		"tag_id", tag.ID,
		"module_kind", kind,
		"module_id", moduleID,
		"user_id", userID,
	)

	tag.ModuleType = kind
	tag.Status = domain.TagStatusLinked
	return tag, nil
}

// Unlink detaches a tag's module, returning the tag to claimed. Owner and
// claim timestamp are untouched. Unlinking an unlinked tag is a no-op.
func (s *LinkService) Unlink(ctx context.Context, userID, tagRef string) (*domain.Tag, error) {
	tag, err := resolveTag(ctx, s.store, tagRef)
	if err != nil {
		return nil, err
	}
	if !tag.OwnedBy(userID) {
		return nil, domainerrors.Forbidden("only the tag owner can unlink its module")
	}

	if !tag.IsLinked() {
		return tag, nil
	}

	module, err := s.store.GetModuleByTag(ctx, tag.ModuleType, tag.ID)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("linked module missing on unlink", "tag_id", tag.ID, "module_kind", tag.ModuleType)
		return nil, domainerrors.Internal("tag link is inconsistent")
	}
	if err != nil {
		return nil, fmt.Errorf("get linked module: %w", err)
	}

	if err := s.store.UnlinkTagModule(ctx, tag.ID, tag.ModuleType, module.ModuleID(), time.Now()); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, domainerrors.Conflict("tag link changed concurrently")
		}
		return nil, fmt.Errorf("unlink tag module: %w", err)
	}

	s.logger.Info("tag unlinked", "tag_id", tag.ID, "module_kind", tag.ModuleType, "user_id", userID)

	tag.ModuleType = ""
	tag.Status = domain.TagStatusClaimed
	return tag, nil
}
