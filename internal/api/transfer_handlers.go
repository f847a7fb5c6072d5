package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/taglink/taglink-server/internal/domain"
	"github.com/taglink/taglink-server/internal/service"
)

func (s *Server) registerTransferRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "proposeTransfer",
		Method:      http.MethodPost,
		Path:        "/api/v1/transfers",
		Summary:     "Propose transfer",
		Description: "Proposes handing an owned tag (and its linked module) to another user",
		Tags:        []string{"Transfers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleProposeTransfer)

	huma.Register(s.api, huma.Operation{
		OperationID: "respondTransfer",
		Method:      http.MethodPost,
		Path:        "/api/v1/transfers/{id}/respond",
		Summary:     "Respond to transfer",
		Description: "Accepts or rejects a pending transfer request. Only the target may respond.",
		Tags:        []string{"Transfers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRespondTransfer)

	huma.Register(s.api, huma.Operation{
		OperationID: "cancelTransfer",
		Method:      http.MethodPost,
		Path:        "/api/v1/transfers/{id}/cancel",
		Summary:     "Cancel transfer",
		Description: "Cancels a pending transfer request. Only the requester may cancel.",
		Tags:        []string{"Transfers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCancelTransfer)

	huma.Register(s.api, huma.Operation{
		OperationID: "directTransfer",
		Method:      http.MethodPost,
		Path:        "/api/v1/transfers/direct",
		Summary:     "Direct transfer",
		Description: "Immediately hands an owned tag to another user with no acceptance gate",
		Tags:        []string{"Transfers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDirectTransfer)

	huma.Register(s.api, huma.Operation{
		OperationID: "listIncomingTransfers",
		Method:      http.MethodGet,
		Path:        "/api/v1/transfers/incoming",
		Summary:     "List incoming transfers",
		Description: "Returns transfer requests addressed to the current user, newest first",
		Tags:        []string{"Transfers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListIncomingTransfers)

	huma.Register(s.api, huma.Operation{
		OperationID: "listOutgoingTransfers",
		Method:      http.MethodGet,
		Path:        "/api/v1/transfers/outgoing",
		Summary:     "List outgoing transfers",
		Description: "Returns transfer requests sent by the current user, newest first",
		Tags:        []string{"Transfers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListOutgoingTransfers)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTagHistory",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{ref}/history",
		Summary:     "Get tag ownership history",
		Description: "Returns the ownership transfer audit trail of an owned tag",
		Tags:        []string{"Transfers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetTagHistory)
}

// === DTOs ===

// TransferRequestResponse contains transfer request data in API responses.
type TransferRequestResponse struct {
	ID         string    `json:"id" doc:"Request ID"`
	TagID      string    `json:"tag_id" doc:"Tag being transferred"`
	FromUserID string    `json:"from_user_id" doc:"Current owner"`
	ToUserID   string    `json:"to_user_id" doc:"Proposed recipient"`
	Message    string    `json:"message,omitempty" doc:"Optional message to the recipient"`
	Status     string    `json:"status" doc:"Request status: pending, accepted, rejected or cancelled"`
	CreatedAt  time.Time `json:"created_at" doc:"Proposal timestamp"`
	UpdatedAt  time.Time `json:"updated_at" doc:"Last status change"`
}

// TransferRequestOutput wraps the transfer request response for Huma.
type TransferRequestOutput struct {
	Body TransferRequestResponse
}

// ProposeTransferRequest is the request body for proposing a transfer.
type ProposeTransferRequest struct {
	TagRef  string `json:"tag_ref" validate:"required,max=128" doc:"Physical ID or public code of the tag"`
	To      string `json:"to" validate:"required,max=254" doc:"Recipient email or username"`
	Message string `json:"message,omitempty" validate:"omitempty,max=1024" doc:"Optional message to the recipient"`
}

// ProposeTransferInput wraps the propose request for Huma.
type ProposeTransferInput struct {
	Authorization string `header:"Authorization"`
	Body          ProposeTransferRequest
}

// RespondTransferRequest is the request body for responding to a transfer.
type RespondTransferRequest struct {
	Action string `json:"action" validate:"required,oneof=accept reject" doc:"accept or reject"`
}

// RespondTransferInput wraps the respond request for Huma.
type RespondTransferInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Transfer request ID"`
	Body          RespondTransferRequest
}

// CancelTransferInput contains parameters for cancelling a transfer.
type CancelTransferInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Transfer request ID"`
}

// DirectTransferRequest is the request body for a direct transfer.
type DirectTransferRequest struct {
	TagRef  string `json:"tag_ref" validate:"required,max=128" doc:"Physical ID or public code of the tag"`
	To      string `json:"to" validate:"required,max=254" doc:"Recipient email or username"`
	Message string `json:"message,omitempty" validate:"omitempty,max=1024" doc:"Optional message to the recipient"`
}

// DirectTransferInput wraps the direct transfer request for Huma.
type DirectTransferInput struct {
	Authorization string `header:"Authorization"`
	Body          DirectTransferRequest
}

// OwnershipTransferResponse contains audit record data in API responses.
type OwnershipTransferResponse struct {
	ID            string    `json:"id" doc:"Transfer record ID"`
	TagID         string    `json:"tag_id" doc:"Transferred tag"`
	FromUserID    string    `json:"from_user_id" doc:"Previous owner"`
	ToUserID      string    `json:"to_user_id" doc:"New owner"`
	TransferType  string    `json:"transfer_type" doc:"gift or direct"`
	Message       string    `json:"message,omitempty" doc:"Message attached to the transfer"`
	TransferredAt time.Time `json:"transferred_at" doc:"Completion timestamp"`
}

// OwnershipTransferOutput wraps the ownership transfer response for Huma.
type OwnershipTransferOutput struct {
	Body OwnershipTransferResponse
}

// ListTransfersInput contains parameters for listing transfer requests.
type ListTransfersInput struct {
	Authorization string `header:"Authorization"`
	Pending       bool   `query:"pending" doc:"Only return pending requests"`
}

// ListTransfersResponse contains a list of transfer requests.
type ListTransfersResponse struct {
	Requests []TransferRequestResponse `json:"requests" doc:"Transfer requests, newest first"`
}

// ListTransfersOutput wraps the list transfers response for Huma.
type ListTransfersOutput struct {
	Body ListTransfersResponse
}

// TagHistoryInput contains parameters for reading a tag's audit trail.
type TagHistoryInput struct {
	Authorization string `header:"Authorization"`
	Ref           string `path:"ref" doc:"Physical ID or public code"`
}

// TagHistoryResponse contains a tag's ownership transfer records.
type TagHistoryResponse struct {
	Transfers []OwnershipTransferResponse `json:"transfers" doc:"Ownership transfers, newest first"`
}

// TagHistoryOutput wraps the tag history response for Huma.
type TagHistoryOutput struct {
	Body TagHistoryResponse
}

// === Handlers ===

func (s *Server) handleProposeTransfer(ctx context.Context, input *ProposeTransferInput) (*TransferRequestOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	req, err := s.services.Transfer.Propose(ctx, userID, input.Body.TagRef, input.Body.To, input.Body.Message)
	if err != nil {
		return nil, err
	}

	return &TransferRequestOutput{Body: mapTransferRequest(req)}, nil
}

func (s *Server) handleRespondTransfer(ctx context.Context, input *RespondTransferInput) (*TransferRequestOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	req, err := s.services.Transfer.Respond(ctx, userID, input.ID, service.RespondAction(input.Body.Action))
	if err != nil {
		return nil, err
	}

	return &TransferRequestOutput{Body: mapTransferRequest(req)}, nil
}

func (s *Server) handleCancelTransfer(ctx context.Context, input *CancelTransferInput) (*TransferRequestOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	req, err := s.services.Transfer.Cancel(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &TransferRequestOutput{Body: mapTransferRequest(req)}, nil
}

func (s *Server) handleDirectTransfer(ctx context.Context, input *DirectTransferInput) (*OwnershipTransferOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	transfer, err := s.services.Transfer.Direct(ctx, userID, input.Body.TagRef, input.Body.To, input.Body.Message)
	if err != nil {
		return nil, err
	}

	return &OwnershipTransferOutput{Body: mapOwnershipTransfer(transfer)}, nil
}

func (s *Server) handleListIncomingTransfers(ctx context.Context, input *ListTransfersInput) (*ListTransfersOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	requests, err := s.services.Transfer.ListIncoming(ctx, userID, input.Pending)
	if err != nil {
		return nil, err
	}

	return &ListTransfersOutput{Body: ListTransfersResponse{Requests: mapTransferRequests(requests)}}, nil
}

func (s *Server) handleListOutgoingTransfers(ctx context.Context, input *ListTransfersInput) (*ListTransfersOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	requests, err := s.services.Transfer.ListOutgoing(ctx, userID, input.Pending)
	if err != nil {
		return nil, err
	}

	return &ListTransfersOutput{Body: ListTransfersResponse{Requests: mapTransferRequests(requests)}}, nil
}

func (s *Server) handleGetTagHistory(ctx context.Context, input *TagHistoryInput) (*TagHistoryOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	transfers, err := s.services.Transfer.TagHistory(ctx, userID, input.Ref)
	if err != nil {
		return nil, err
	}

	resp := make([]OwnershipTransferResponse, len(transfers))
	for i, t := range transfers {
		resp[i] = mapOwnershipTransfer(t)
	}

	return &TagHistoryOutput{Body: TagHistoryResponse{Transfers: resp}}, nil
}

// === Helpers ===

func mapTransferRequest(req *domain.TransferRequest) TransferRequestResponse {
	return TransferRequestResponse{
		ID:         req.ID,
		TagID:      req.TagID,
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
		Message:    req.Message,
		Status:     string(req.Status),
		CreatedAt:  req.CreatedAt,
		UpdatedAt:  req.UpdatedAt,
	}
}

func mapTransferRequests(requests []*domain.TransferRequest) []TransferRequestResponse {
	resp := make([]TransferRequestResponse, len(requests))
	for i, r := range requests {
		resp[i] = mapTransferRequest(r)
	}
	return resp
}

func mapOwnershipTransfer(t *domain.OwnershipTransfer) OwnershipTransferResponse {
	return OwnershipTransferResponse{
		ID:            t.ID,
		TagID:         t.TagID,
		FromUserID:    t.FromUserID,
		ToUserID:      t.ToUserID,
		TransferType:  string(t.TransferType),
		Message:       t.Message,
		TransferredAt: t.TransferredAt,
	}
}
