package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taglink/taglink-server/internal/domain"
	domainerrors "github.com/taglink/taglink-server/internal/errors"
	"github.com/taglink/taglink-server/internal/id"
	"github.com/taglink/taglink-server/internal/store"
)

// ModuleService provides the minimal content-row lifecycle for the five
// module kinds. Rich editing belongs to the per-kind editors; link and
// transfer machinery only needs rows that exist and carry an owner.
type ModuleService struct {
	store  store.Store
	logger *slog.Logger
}

// NewModuleService creates a new module service.
func NewModuleService(store store.Store, logger *slog.Logger) *ModuleService {
	return &ModuleService{
		store:  store,
		logger: logger,
	}
}

// CreateModuleInput carries the shared creation fields; kinds ignore what
// they don't use.
type CreateModuleInput struct {
	Kind        domain.ModuleKind
	Name        string // card display name, plant/mug name, gift/page title
	Description string // plant species slot is separate; this is free text
	Species     string
}

// Create builds and persists a fresh unlinked module of the given kind,
// owned by the caller.
func (s *ModuleService) Create(ctx context.Context, userID string, input CreateModuleInput) (domain.Module, error) {
	if !input.Kind.Valid() {
		return nil, domainerrors.Validation("unknown module kind")
	}
	if input.Name == "" {
		return nil, domainerrors.Validation("name is required")
	}

	moduleID, err := id.Generate(string(input.Kind))
	if err != nil {
		return nil, fmt.Errorf("generate module ID: %w", err)
	}

	now := time.Now()
	var module domain.Module
	switch input.Kind {
	case domain.ModuleKindCard:
		module = &domain.Card{
			ID:          moduleID,
			UserID:      userID,
			DisplayName: input.Name,
			Bio:         input.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	case domain.ModuleKindPlant:
		module = &domain.Plant{
			ID:        moduleID,
			UserID:    userID,
			Name:      input.Name,
			Species:   input.Species,
			Notes:     input.Description,
			CreatedAt: now,
			UpdatedAt: now,
		}
	case domain.ModuleKindMug:
		module = &domain.Mug{
			ID:          moduleID,
			OwnerID:     userID,
			Name:        input.Name,
			Description: input.Description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	case domain.ModuleKindGift:
		module = &domain.Gift{
			ID:        moduleID,
			SenderID:  userID,
			Title:     input.Name,
			Message:   input.Description,
			CreatedAt: now,
			UpdatedAt: now,
		}
	case domain.ModuleKindPage:
		module = &domain.Page{
			ID:        moduleID,
			UserID:    userID,
			Title:     input.Name,
			Content:   input.Description,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	if err := s.store.CreateModule(ctx, module); err != nil {
		return nil, fmt.Errorf("create module: %w", err)
	}

	s.logger.Info("module created", "module_kind", input.Kind, "module_id", moduleID, "user_id", userID)
	return module, nil
}

// Get returns one of the caller's modules.
func (s *ModuleService) Get(ctx context.Context, userID string, kind domain.ModuleKind, moduleID string) (domain.Module, error) {
	if !kind.Valid() {
		return nil, domainerrors.Validation("unknown module kind")
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
	return module, nil
}

// List returns the caller's modules of one kind.
func (s *ModuleService) List(ctx context.Context, userID string, kind domain.ModuleKind) ([]domain.Module, error) {
	if !kind.Valid() {
		return nil, domainerrors.Validation("unknown module kind")
	}

	modules, err := s.store.ListUserModules(ctx, kind, userID)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	return modules, nil
}

// Delete removes one of the caller's modules. A module still linked to a
// tag must be unlinked first.
func (s *ModuleService) Delete(ctx context.Context, userID string, kind domain.ModuleKind, moduleID string) error {
	module, err := s.Get(ctx, userID, kind, moduleID)
	if err != nil {
		return err
	}
	if module.LinkedTagID() != "" {
		return domainerrors.Conflict("module is linked to a tag; unlink it first")
	}

	if err := s.store.DeleteModule(ctx, kind, moduleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("module not found")
		}
		// The store re-checks the link so a Link racing past the read
		// above cannot orphan the tag side.
		if errors.Is(err, store.ErrConflict) {
			return domainerrors.Conflict("module is linked to a tag; unlink it first")
		}
		return fmt.Errorf("delete module: %w", err)
	}

	s.logger.Info("module deleted", "module_kind", kind, "module_id", moduleID, "user_id", userID)
	return nil
}
