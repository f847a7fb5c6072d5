package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/taglink/taglink-server/internal/domain"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "claimTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags/claim",
		Summary:     "Claim tag",
		Description: "Claims an unclaimed tag by physical ID or public code, making the caller its owner",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleClaimTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "listOwnedTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List owned tags",
		Description: "Returns all tags owned by the current user, oldest claim first",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListOwnedTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{ref}",
		Summary:     "Get tag",
		Description: "Resolves a tag by physical ID or public code. Private tags are only visible to their owner.",
		Tags:        []string{"Tags"},
	}, s.handleGetTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTagSettings",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tags/{ref}/settings",
		Summary:     "Update tag settings",
		Description: "Updates the visibility and follow flags of an owned tag",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateTagSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "linkTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags/{ref}/link",
		Summary:     "Link tag to module",
		Description: "Attaches one of the caller's modules to an owned tag",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleLinkTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "unlinkTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/{ref}/link",
		Summary:     "Unlink tag",
		Description: "Detaches the linked module from an owned tag. The tag stays claimed.",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnlinkTag)
}

// === DTOs ===

// TagResponse contains tag data in API responses.
type TagResponse struct {
	ID          string     `json:"id" doc:"Tag ID"`
	PhysicalID  string     `json:"physical_id" doc:"Hardware identifier of the inlay"`
	PublicCode  string     `json:"public_code" doc:"Printed claim code"`
	OwnerID     string     `json:"owner_id,omitempty" doc:"Owning user ID, empty while unclaimed"`
	ModuleType  string     `json:"module_type,omitempty" doc:"Kind of the linked module, empty while unlinked"`
	Status      string     `json:"status" doc:"Lifecycle status: unclaimed, claimed or linked"`
	ClaimedAt   *time.Time `json:"claimed_at,omitempty" doc:"First claim timestamp"`
	IsPublic    bool       `json:"is_public" doc:"Whether the tag resolves for non-owners"`
	AllowFollow bool       `json:"allow_follow" doc:"Whether the tag accepts followers"`
	CreatedAt   time.Time  `json:"created_at" doc:"Provisioning timestamp"`
	UpdatedAt   time.Time  `json:"updated_at" doc:"Last update timestamp"`
}

// TagOutput wraps the tag response for Huma.
type TagOutput struct {
	Body TagResponse
}

// ClaimTagRequest is the request body for claiming a tag.
type ClaimTagRequest struct {
	Ref string `json:"ref" validate:"required,max=128" doc:"Physical ID or public code of the tag"`
}

// ClaimTagInput wraps the claim request with headers for Huma.
type ClaimTagInput struct {
	Authorization string `header:"Authorization"`
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
	Body          ClaimTagRequest
}

// ListOwnedTagsInput contains parameters for listing owned tags.
type ListOwnedTagsInput struct {
	Authorization string `header:"Authorization"`
}

// ListTagsResponse contains a list of tags.
type ListTagsResponse struct {
	Tags []TagResponse `json:"tags" doc:"List of tags"`
}

// ListTagsOutput wraps the list tags response for Huma.
type ListTagsOutput struct {
	Body ListTagsResponse
}

// GetTagInput contains parameters for resolving a tag.
type GetTagInput struct {
	Authorization string `header:"Authorization"`
	Ref           string `path:"ref" doc:"Physical ID or public code"`
}

// TagWithModuleResponse pairs a tag with its linked module, if any.
type TagWithModuleResponse struct {
	Tag    TagResponse `json:"tag" doc:"The resolved tag"`
	Module any         `json:"module,omitempty" doc:"The linked module content, shape depends on module_type"`
}

// TagWithModuleOutput wraps the tag-with-module response for Huma.
type TagWithModuleOutput struct {
	Body TagWithModuleResponse
}

// UpdateTagSettingsRequest is the request body for updating tag settings.
type UpdateTagSettingsRequest struct {
	IsPublic    bool `json:"is_public" doc:"Whether the tag resolves for non-owners"`
	AllowFollow bool `json:"allow_follow" doc:"Whether the tag accepts followers"`
}

// UpdateTagSettingsInput wraps the settings request for Huma.
type UpdateTagSettingsInput struct {
	Authorization string `header:"Authorization"`
	Ref           string `path:"ref" doc:"Physical ID or public code"`
	Body          UpdateTagSettingsRequest
}

// LinkTagRequest is the request body for linking a module to a tag.
type LinkTagRequest struct {
	ModuleKind string `json:"module_kind" validate:"required" doc:"Module kind: card, plant, mug, gift or page"`
	ModuleID   string `json:"module_id" validate:"required,max=100" doc:"ID of the module to attach"`
}

// LinkTagInput wraps the link request for Huma.
type LinkTagInput struct {
	Authorization string `header:"Authorization"`
	Ref           string `path:"ref" doc:"Physical ID or public code"`
	Body          LinkTagRequest
}

// UnlinkTagInput contains parameters for unlinking a tag.
type UnlinkTagInput struct {
	Authorization string `header:"Authorization"`
	Ref           string `path:"ref" doc:"Physical ID or public code"`
}

// === Handlers ===

func (s *Server) handleClaimTag(ctx context.Context, input *ClaimTagInput) (*TagOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.allowSensitiveAttempt(input.XForwardedFor, input.XRealIP, ""); err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.Claim(ctx, userID, input.Body.Ref)
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: mapTagResponse(tag)}, nil
}

func (s *Server) handleListOwnedTags(ctx context.Context, input *ListOwnedTagsInput) (*ListTagsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.ListOwnedTags(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ListTagsOutput{Body: ListTagsResponse{Tags: mapTagResponses(tags)}}, nil
}

func (s *Server) handleGetTag(ctx context.Context, input *GetTagInput) (*TagWithModuleOutput, error) {
	// Anonymous resolution is allowed for public tags, so auth failure
	// only downgrades the caller instead of rejecting the request.
	callerID, _ := s.authenticateRequest(ctx, input.Authorization)

	tag, module, err := s.services.Tag.GetTag(ctx, callerID, input.Ref)
	if err != nil {
		return nil, err
	}

	resp := TagWithModuleResponse{Tag: mapTagResponse(tag)}
	if module != nil {
		resp.Module = module
	}

	return &TagWithModuleOutput{Body: resp}, nil
}

func (s *Server) handleUpdateTagSettings(ctx context.Context, input *UpdateTagSettingsInput) (*TagOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tag.UpdateSettings(ctx, userID, input.Ref, input.Body.IsPublic, input.Body.AllowFollow)
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: mapTagResponse(tag)}, nil
}

func (s *Server) handleLinkTag(ctx context.Context, input *LinkTagInput) (*TagOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Link.Link(ctx, userID, input.Ref, domain.ModuleKind(input.Body.ModuleKind), input.Body.ModuleID)
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: mapTagResponse(tag)}, nil
}

func (s *Server) handleUnlinkTag(ctx context.Context, input *UnlinkTagInput) (*TagOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Link.Unlink(ctx, userID, input.Ref)
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: mapTagResponse(tag)}, nil
}

// === Helpers ===

func mapTagResponse(t *domain.Tag) TagResponse {
	return TagResponse{
		ID:          t.ID,
		PhysicalID:  t.PhysicalID,
		PublicCode:  t.PublicCode,
		OwnerID:     t.OwnerID,
		ModuleType:  string(t.ModuleType),
		Status:      string(t.Status),
		ClaimedAt:   t.ClaimedAt,
		IsPublic:    t.IsPublic,
		AllowFollow: t.AllowFollow,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func mapTagResponses(tags []*domain.Tag) []TagResponse {
	resp := make([]TagResponse, len(tags))
	for i, t := range tags {
		resp[i] = mapTagResponse(t)
	}
	return resp
}
