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

// FollowService manages follow edges between users and public tags.
type FollowService struct {
	store  store.Store
	notify *NotificationService
	logger *slog.Logger
}

// NewFollowService creates a new follow service.
func NewFollowService(store store.Store, notify *NotificationService, logger *slog.Logger) *FollowService {
	return &FollowService{
		store:  store,
		notify: notify,
		logger: logger,
	}
}

// Follow subscribes the caller to a public tag. Owners cannot follow their
// own tags.
func (s *FollowService) Follow(ctx context.Context, userID, tagRef string) (*domain.Follow, error) {
	tag, err := resolveTag(ctx, s.store, tagRef)
	if err != nil {
		return nil, err
	}

	if tag.OwnedBy(userID) {
		return nil, domainerrors.Forbidden("cannot follow your own tag")
	}
	if !tag.IsPublic {
		return nil, domainerrors.Forbidden("tag is not public")
	}
	if !tag.Followable() {
		return nil, domainerrors.Forbidden("tag does not accept followers")
	}

	followID, err := id.Generate("fol")
	if err != nil {
		return nil, fmt.Errorf("generate follow ID: %w", err)
	}

	follow := &domain.Follow{
		ID:        followID,
		UserID:    userID,
		TagID:     tag.ID,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateFollow(ctx, follow); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("already following this tag")
		}
		return nil, fmt.Errorf("create follow: %w", err)
	}

	s.logger.Info("tag followed", "tag_id", tag.ID, "user_id", userID)

	if follower, err := s.store.GetUser(ctx, userID); err == nil {
		s.notify.NewFollower(ctx, tag, follower)
	}

	return follow, nil
}

// Unfollow removes the caller's follow edge.
func (s *FollowService) Unfollow(ctx context.Context, userID, tagRef string) error {
	tag, err := resolveTag(ctx, s.store, tagRef)
	if err != nil {
		return err
	}

	if err := s.store.DeleteFollow(ctx, userID, tag.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("not following this tag")
		}
		return fmt.Errorf("delete follow: %w", err)
	}

	s.logger.Info("tag unfollowed", "tag_id", tag.ID, "user_id", userID)
	return nil
}

// ListFollowers returns a tag's followers. Owner only.
func (s *FollowService) ListFollowers(ctx context.Context, callerID, tagRef string) ([]*domain.Follow, error) {
	tag, err := resolveTag(ctx, s.store, tagRef)
	if err != nil {
		return nil, err
	}
	if !tag.OwnedBy(callerID) {
		return nil, domainerrors.Forbidden("only the tag owner can list followers")
	}

	follows, err := s.store.ListTagFollowers(ctx, tag.ID)
	if err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}
	return follows, nil
}

// ListFollowed returns the tags the caller follows.
func (s *FollowService) ListFollowed(ctx context.Context, userID string) ([]*domain.Follow, error) {
	follows, err := s.store.ListUserFollows(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list followed tags: %w", err)
	}
	return follows, nil
}
