package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taglink/taglink-server/internal/domain"
	domainerrors "github.com/taglink/taglink-server/internal/errors"
	"github.com/taglink/taglink-server/internal/id"
	"github.com/taglink/taglink-server/internal/store"
)

// maxCodeAttempts bounds public-code generation retries on collision.
const maxCodeAttempts = 5

// ProvisionService mints new unclaimed tags with unique physical IDs and
// printed public codes.
type ProvisionService struct {
	store  store.Store
	logger *slog.Logger
}

// NewProvisionService creates a new provision service.
func NewProvisionService(store store.Store, logger *slog.Logger) *ProvisionService {
	return &ProvisionService{
		store:  store,
		logger: logger,
	}
}

// Provision creates one unclaimed tag. physicalID defaults to a fresh UUID
// when empty; explicitCode, when given, is used verbatim (normalized upper)
// and a collision is a conflict. Generated codes retry on collision.
func (s *ProvisionService) Provision(ctx context.Context, physicalID, explicitCode string) (*domain.Tag, error) {
	if physicalID == "" {
		physicalID = uuid.NewString()
	} else {
		// A caller-supplied physical ID that already exists would fail
		// every code-generation retry; name the real collision instead.
		_, err := s.store.GetTagByPhysicalID(ctx, physicalID)
		if err == nil {
			return nil, domainerrors.Conflict("physical ID already provisioned")
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("check physical ID: %w", err)
		}
	}

	if explicitCode != "" {
		code := strings.ToUpper(strings.TrimSpace(explicitCode))
		tag, err := s.insertTag(ctx, physicalID, code)
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("tag code or physical ID already provisioned")
		}
		return tag, err
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := id.PublicCode()
		if err != nil {
			return nil, fmt.Errorf("generate public code: %w", err)
		}

		tag, err := s.insertTag(ctx, physicalID, code)
		if errors.Is(err, store.ErrAlreadyExists) {
			continue
		}
		return tag, err
	}
	return nil, domainerrors.Internal("could not generate a unique tag code")
}

func (s *ProvisionService) insertTag(ctx context.Context, physicalID, code string) (*domain.Tag, error) {
	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, fmt.Errorf("generate tag ID: %w", err)
	}

	now := time.Now()
	tag := &domain.Tag{
		ID:          tagID,
		PhysicalID:  physicalID,
		PublicCode:  code,
		Status:      domain.TagStatusUnclaimed,
		AllowFollow: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateTag(ctx, tag); err != nil {
		return nil, err
	}

	s.logger.Info("tag provisioned", "tag_id", tagID, "public_code", code)
	return tag, nil
}

// ProvisionBatch creates count tags. When explicitCodes is non-empty its
// length must equal count; each code is applied in order.
func (s *ProvisionService) ProvisionBatch(ctx context.Context, count int, explicitCodes []string) ([]*domain.Tag, error) {
	if count <= 0 {
		return nil, domainerrors.Validation("count must be positive")
	}
	if len(explicitCodes) > 0 && len(explicitCodes) != count {
		return nil, domainerrors.Validation("explicit codes must match count")
	}

	tags := make([]*domain.Tag, 0, count)
	for i := 0; i < count; i++ {
		code := ""
		if len(explicitCodes) > 0 {
			code = explicitCodes[i]
		}
		tag, err := s.Provision(ctx, "", code)
		if err != nil {
			return tags, fmt.Errorf("provision tag %d of %d: %w", i+1, count, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
