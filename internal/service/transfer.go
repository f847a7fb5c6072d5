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

// TransferService runs the ownership-transfer protocol. The request/accept
// handshake and the immediate direct path both end in commitTransfer, so the
// two shapes can never drift apart in what they write.
type TransferService struct {
	store  store.Store
	notify *NotificationService
	logger *slog.Logger
}

// NewTransferService creates a new transfer service.
func NewTransferService(store store.Store, notify *NotificationService, logger *slog.Logger) *TransferService {
	return &TransferService{
		store:  store,
		notify: notify,
		logger: logger,
	}
}

// RespondAction is the target's answer to a pending request.
type RespondAction string

const (
	RespondAccept RespondAction = "accept"
	RespondReject RespondAction = "reject"
)

// Propose creates a pending transfer request for one of the caller's tags.
func (s *TransferService) Propose(ctx context.Context, fromUserID, tagRef, toIdentifier, message string) (*domain.TransferRequest, error) {
	tag, err := resolveTag(ctx, s.store, tagRef)
	if err != nil {
		return nil, err
	}
	if !tag.OwnedBy(fromUserID) {
		return nil, domainerrors.Forbidden("only the tag owner can propose a transfer")
	}

	target, err := s.resolveRecipient(ctx, toIdentifier)
	if err != nil {
		return nil, err
	}
	if target.ID == fromUserID {
		return nil, domainerrors.Conflict("cannot transfer to self")
	}

	requestID, err := id.Generate("trq")
	if err != nil {
		return nil, fmt.Errorf("generate request ID: %w", err)
	}

	now := time.Now()
	request := &domain.TransferRequest{
		ID:         requestID,
		TagID:      tag.ID,
		FromUserID: fromUserID,
		ToUserID:   target.ID,
		Message:    message,
		Status:     domain.TransferRequestPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.CreateTransferRequest(ctx, request); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("a pending transfer request for this user already exists")
		}
		return nil, fmt.Errorf("create transfer request: %w", err)
	}

	s.logger.Info("transfer proposed",
		"request_id", requestID,
		"tag_id", tag.ID,
		"from_user_id", fromUserID,
		"to_user_id", target.ID,
	)

	if from, err := s.store.GetUser(ctx, fromUserID); err == nil {
		s.notify.TransferRequested(ctx, request, from, tag)
	}

	return request, nil
}

// Respond resolves a pending request. Only the target may answer; accepting
// runs the full ownership commit.
func (s *TransferService) Respond(ctx context.Context, actingUserID, requestID string, action RespondAction) (*domain.TransferRequest, error) {
	request, err := s.store.GetTransferRequest(ctx, requestID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("transfer request not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get transfer request: %w", err)
	}

	// Terminal state dominates: a resolved request is a Conflict for
	// everyone, target or not.
	if request.Status.Terminal() {
		return nil, domainerrors.Conflict("transfer request already resolved")
	}
	if request.ToUserID != actingUserID {
		return nil, domainerrors.Forbidden("only the request target can respond")
	}

	now := time.Now()
	switch action {
	case RespondAccept:
		if err := s.commitTransfer(ctx, request.TagID, request.FromUserID, request.ToUserID,
			domain.TransferTypeGift, request.Message, request.ID, now); err != nil {
			return nil, err
		}
		request.Status = domain.TransferRequestAccepted

		if target, err := s.store.GetUser(ctx, request.ToUserID); err == nil {
			s.notify.TransferAccepted(ctx, request, target)
		}

	case RespondReject:
		if err := s.store.ResolveTransferRequest(ctx, request.ID, domain.TransferRequestRejected, now); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return nil, domainerrors.Conflict("transfer request already resolved")
			}
			return nil, fmt.Errorf("reject transfer request: %w", err)
		}
		request.Status = domain.TransferRequestRejected

		if target, err := s.store.GetUser(ctx, request.ToUserID); err == nil {
			s.notify.TransferRejected(ctx, request, target)
		}

	default:
		return nil, domainerrors.Validation("action must be accept or reject")
	}

	request.UpdatedAt = now
	s.logger.Info("transfer request resolved",
		"request_id", request.ID,
		"status", request.Status,
	)
	return request, nil
}

// Cancel withdraws one of the caller's pending requests. The tag is
// untouched.
func (s *TransferService) Cancel(ctx context.Context, actingUserID, requestID string) (*domain.TransferRequest, error) {
	request, err := s.store.GetTransferRequest(ctx, requestID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("transfer request not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get transfer request: %w", err)
	}

	if request.Status.Terminal() {
		return nil, domainerrors.Conflict("transfer request already resolved")
	}
	if request.FromUserID != actingUserID {
		return nil, domainerrors.Forbidden("only the requester can cancel")
	}

	now := time.Now()
	if err := s.store.ResolveTransferRequest(ctx, request.ID, domain.TransferRequestCancelled, now); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, domainerrors.Conflict("transfer request already resolved")
		}
		return nil, fmt.Errorf("cancel transfer request: %w", err)
	}
	request.Status = domain.TransferRequestCancelled
	request.UpdatedAt = now

	s.logger.Info("transfer request cancelled", "request_id", request.ID)

	if from, err := s.store.GetUser(ctx, request.FromUserID); err == nil {
		s.notify.TransferCancelled(ctx, request, from)
	}

	return request, nil
}

// Direct immediately reassigns a tag to a recipient resolved by email or
// username, with no acceptance gate.
func (s *TransferService) Direct(ctx context.Context, fromUserID, tagRef, toIdentifier, message string) (*domain.OwnershipTransfer, error) {
	tag, err := resolveTag(ctx, s.store, tagRef)
	if err != nil {
		return nil, err
	}
	if !tag.OwnedBy(fromUserID) {
		return nil, domainerrors.Forbidden("only the tag owner can transfer it")
	}

	target, err := s.resolveRecipient(ctx, toIdentifier)
	if err != nil {
		return nil, err
	}
	if target.ID == fromUserID {
		return nil, domainerrors.Conflict("cannot transfer to self")
	}

	now := time.Now()
	if err := s.commitTransfer(ctx, tag.ID, fromUserID, target.ID,
		domain.TransferTypeDirect, message, "", now); err != nil {
		return nil, err
	}

	transfer := &domain.OwnershipTransfer{
		TagID:         tag.ID,
		FromUserID:    fromUserID,
		ToUserID:      target.ID,
		TransferType:  domain.TransferTypeDirect,
		Message:       message,
		TransferredAt: now,
	}
	if from, err := s.store.GetUser(ctx, fromUserID); err == nil {
		s.notify.TagReceived(ctx, transfer, from)
	}

	return transfer, nil
}

// commitTransfer is the single primitive both transfer shapes funnel
// through: reassign the tag, run the linked module's kind-specific transfer
// effect, write the audit row, and (for the request path) mark the request
// accepted, all in one store transaction.
func (s *TransferService) commitTransfer(ctx context.Context, tagID, fromUserID, toUserID string, ttype domain.TransferType, message, requestID string, at time.Time) error {
	tag, err := s.store.GetTag(ctx, tagID)
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFound("tag not found")
	}
	if err != nil {
		return fmt.Errorf("get tag: %w", err)
	}
	if tag.OwnerID != fromUserID {
		return domainerrors.Conflict("tag owner changed")
	}

	var module domain.Module
	if tag.IsLinked() {
		module, err = s.store.GetModuleByTag(ctx, tag.ModuleType, tag.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("get linked module: %w", err)
		}
	}
	if module != nil {
		module.SetOwner(toUserID)
		if effect, ok := module.(domain.TransferEffect); ok {
			effect.ApplyTransfer(fromUserID, toUserID, message, at)
		}
		module.Touch()
	}

	transferID, err := id.Generate("otr")
	if err != nil {
		return fmt.Errorf("generate transfer ID: %w", err)
	}
	transfer := &domain.OwnershipTransfer{
		ID:            transferID,
		TagID:         tagID,
		FromUserID:    fromUserID,
		ToUserID:      toUserID,
		TransferType:  ttype,
		Message:       message,
		TransferredAt: at,
	}

	if err := s.store.CommitTransfer(ctx, transfer, module, requestID); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domainerrors.Conflict("transfer no longer valid")
		}
		return fmt.Errorf("commit transfer: %w", err)
	}

	s.logger.Info("ownership transferred",
		"tag_id", tagID,
		"from_user_id", fromUserID,
		"to_user_id", toUserID,
		"transfer_type", ttype,
	)
	return nil
}

// resolveRecipient finds a user by email, then by username.
func (s *TransferService) resolveRecipient(ctx context.Context, identifier string) (*domain.User, error) {
	if identifier == "" {
		return nil, domainerrors.Validation("recipient is required")
	}

	user, err := s.store.GetUserByEmail(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup recipient by email: %w", err)
	}

	user, err = s.store.GetUserByUsername(ctx, identifier)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.NotFound("recipient not found")
	}
	if err != nil {
		return nil, fmt.Errorf("lookup recipient by username: %w", err)
	}
	return user, nil
}

// ListIncoming returns requests naming the caller as target.
func (s *TransferService) ListIncoming(ctx context.Context, userID string, pendingOnly bool) ([]*domain.TransferRequest, error) {
	requests, err := s.store.ListIncomingTransferRequests(ctx, userID, pendingOnly)
	if err != nil {
		return nil, fmt.Errorf("list incoming requests: %w", err)
	}
	return requests, nil
}

// ListOutgoing returns requests created by the caller.
func (s *TransferService) ListOutgoing(ctx context.Context, userID string, pendingOnly bool) ([]*domain.TransferRequest, error) {
	requests, err := s.store.ListOutgoingTransferRequests(ctx, userID, pendingOnly)
	if err != nil {
		return nil, fmt.Errorf("list outgoing requests: %w", err)
	}
	return requests, nil
}

// TagHistory returns a tag's ownership history. Current owner only.
func (s *TransferService) TagHistory(ctx context.Context, callerID, tagRef string) ([]*domain.OwnershipTransfer, error) {
	tag, err := resolveTag(ctx, s.store, tagRef)
	if err != nil {
		return nil, err
	}
	if !tag.OwnedBy(callerID) {
		return nil, domainerrors.Forbidden("only the tag owner can view its history")
	}

	transfers, err := s.store.ListTagTransfers(ctx, tag.ID)
	if err != nil {
		return nil, fmt.Errorf("list tag transfers: %w", err)
	}
	return transfers, nil
}
