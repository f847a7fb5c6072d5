package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/taglink/taglink-server/internal/domain"
)

func (s *Server) registerFollowRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "followTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags/{ref}/follow",
		Summary:     "Follow tag",
		Description: "Follows a public tag that accepts followers",
		Tags:        []string{"Follows"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleFollowTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "unfollowTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/{ref}/follow",
		Summary:     "Unfollow tag",
		Description: "Removes the caller's follow on a tag",
		Tags:        []string{"Follows"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUnfollowTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFollowedTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/follows",
		Summary:     "List followed tags",
		Description: "Returns the caller's follows",
		Tags:        []string{"Follows"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListFollowedTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTagFollowers",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{ref}/followers",
		Summary:     "List tag followers",
		Description: "Returns the followers of an owned tag",
		Tags:        []string{"Follows"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTagFollowers)
}

// === DTOs ===

// FollowResponse contains follow data in API responses.
type FollowResponse struct {
	ID        string    `json:"id" doc:"Follow ID"`
	UserID    string    `json:"user_id" doc:"Following user"`
	TagID     string    `json:"tag_id" doc:"Followed tag"`
	CreatedAt time.Time `json:"created_at" doc:"Follow timestamp"`
}

// FollowOutput wraps the follow response for Huma.
type FollowOutput struct {
	Body FollowResponse
}

// FollowTagInput contains parameters for following a tag.
type FollowTagInput struct {
	Authorization string `header:"Authorization"`
	Ref           string `path:"ref" doc:"Physical ID or public code"`
}

// UnfollowTagInput contains parameters for unfollowing a tag.
type UnfollowTagInput struct {
	Authorization string `header:"Authorization"`
	Ref           string `path:"ref" doc:"Physical ID or public code"`
}

// ListFollowsInput contains parameters for listing follows.
type ListFollowsInput struct {
	Authorization string `header:"Authorization"`
}

// ListFollowsResponse contains a list of follows.
type ListFollowsResponse struct {
	Follows []FollowResponse `json:"follows" doc:"List of follows"`
}

// ListFollowsOutput wraps the list follows response for Huma.
type ListFollowsOutput struct {
	Body ListFollowsResponse
}

// ListTagFollowersInput contains parameters for listing a tag's followers.
type ListTagFollowersInput struct {
	Authorization string `header:"Authorization"`
	Ref           string `path:"ref" doc:"Physical ID or public code"`
}

// === Handlers ===

func (s *Server) handleFollowTag(ctx context.Context, input *FollowTagInput) (*FollowOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	follow, err := s.services.Follow.Follow(ctx, userID, input.Ref)
	if err != nil {
		return nil, err
	}

	return &FollowOutput{Body: mapFollowResponse(follow)}, nil
}

func (s *Server) handleUnfollowTag(ctx context.Context, input *UnfollowTagInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Follow.Unfollow(ctx, userID, input.Ref); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Unfollowed"}}, nil
}

func (s *Server) handleListFollowedTags(ctx context.Context, input *ListFollowsInput) (*ListFollowsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	follows, err := s.services.Follow.ListFollowed(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ListFollowsOutput{Body: ListFollowsResponse{Follows: mapFollowResponses(follows)}}, nil
}

func (s *Server) handleListTagFollowers(ctx context.Context, input *ListTagFollowersInput) (*ListFollowsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	follows, err := s.services.Follow.ListFollowers(ctx, userID, input.Ref)
	if err != nil {
		return nil, err
	}

	return &ListFollowsOutput{Body: ListFollowsResponse{Follows: mapFollowResponses(follows)}}, nil
}

// === Helpers ===

func mapFollowResponse(f *domain.Follow) FollowResponse {
	return FollowResponse{
		ID:        f.ID,
		UserID:    f.UserID,
		TagID:     f.TagID,
		CreatedAt: f.CreatedAt,
	}
}

func mapFollowResponses(follows []*domain.Follow) []FollowResponse {
	resp := make([]FollowResponse, len(follows))
	for i, f := range follows {
		resp[i] = mapFollowResponse(f)
	}
	return resp
}
