package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/taglink/taglink-server/internal/backup"
	"github.com/taglink/taglink-server/internal/domain"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "provisionTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/tags",
		Summary:     "Provision tag",
		Description: "Creates a single unclaimed tag, minting a public code unless one is supplied",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleProvisionTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "provisionTagBatch",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/tags/batch",
		Summary:     "Provision tag batch",
		Description: "Creates a batch of unclaimed tags with freshly minted public codes",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleProvisionTagBatch)

	huma.Register(s.api, huma.Operation{
		OperationID: "listAllTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/tags",
		Summary:     "List all tags",
		Description: "Returns every tag in the system, optionally filtered by status",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListAllTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "resetTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/tags/{id}/reset",
		Summary:     "Reset tag",
		Description: "Returns a tag to the unclaimed state, detaching its module and cancelling pending transfers",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleResetTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/admin/tags/{id}",
		Summary:     "Delete tag",
		Description: "Permanently removes a tag and everything attached to it. Linked modules survive, detached.",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "createBackup",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/backups",
		Summary:     "Create backup",
		Description: "Snapshots the database to the backup directory and prunes old snapshots",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateBackup)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBackups",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/backups",
		Summary:     "List backups",
		Description: "Returns all stored database snapshots, newest first",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBackups)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBackup",
		Method:      http.MethodDelete,
		Path:        "/api/v1/admin/backups/{id}",
		Summary:     "Delete backup",
		Description: "Removes a stored database snapshot",
		Tags:        []string{"Admin"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteBackup)
}

// === DTOs ===

// ProvisionTagRequest is the request body for provisioning a tag.
type ProvisionTagRequest struct {
	PhysicalID string `json:"physical_id,omitempty" validate:"omitempty,max=128" doc:"Hardware identifier, minted when omitted"`
	PublicCode string `json:"public_code,omitempty" validate:"omitempty,min=4,max=32" doc:"Explicit claim code, minted when omitted"`
}

// ProvisionTagInput wraps the provision request for Huma.
type ProvisionTagInput struct {
	Authorization string `header:"Authorization"`
	Body          ProvisionTagRequest
}

// ProvisionBatchRequest is the request body for batch provisioning.
type ProvisionBatchRequest struct {
	Count       int      `json:"count" validate:"required,min=1,max=1000" doc:"Number of tags to create"`
	PublicCodes []string `json:"public_codes,omitempty" doc:"Explicit claim codes, one per tag; minted when omitted"`
}

// ProvisionBatchInput wraps the batch provision request for Huma.
type ProvisionBatchInput struct {
	Authorization string `header:"Authorization"`
	Body          ProvisionBatchRequest
}

// ListAllTagsInput contains parameters for the admin tag listing.
type ListAllTagsInput struct {
	Authorization string `header:"Authorization"`
	Status        string `query:"status" enum:"unclaimed,claimed,linked" doc:"Filter by lifecycle status"`
}

// AdminResetTagInput contains parameters for resetting a tag.
type AdminResetTagInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Tag ID"`
}

// AdminDeleteTagInput contains parameters for deleting a tag.
type AdminDeleteTagInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Tag ID"`
}

// BackupResponse describes a stored database snapshot.
type BackupResponse struct {
	ID        string    `json:"id" doc:"Backup identifier"`
	Size      int64     `json:"size" doc:"Snapshot size in bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// BackupOutput wraps a backup response for Huma.
type BackupOutput struct {
	Body BackupResponse
}

// ListBackupsResponse is the response body for the backup listing.
type ListBackupsResponse struct {
	Backups []BackupResponse `json:"backups"`
}

// ListBackupsOutput wraps the backup listing for Huma.
type ListBackupsOutput struct {
	Body ListBackupsResponse
}

// AuthorizedInput carries only the bearer token.
type AuthorizedInput struct {
	Authorization string `header:"Authorization"`
}

// DeleteBackupInput contains parameters for deleting a backup.
type DeleteBackupInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Backup ID"`
}

// === Handlers ===

func (s *Server) handleProvisionTag(ctx context.Context, input *ProvisionTagInput) (*TagOutput, error) {
	callerID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Admin.Provision(ctx, callerID, input.Body.PhysicalID, input.Body.PublicCode)
	if err != nil {
		return nil, err
	}

	return &TagOutput{Body: mapTagResponse(tag)}, nil
}

func (s *Server) handleProvisionTagBatch(ctx context.Context, input *ProvisionBatchInput) (*ListTagsOutput, error) {
	callerID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Admin.ProvisionBatch(ctx, callerID, input.Body.Count, input.Body.PublicCodes)
	if err != nil {
		return nil, err
	}

	return &ListTagsOutput{Body: ListTagsResponse{Tags: mapTagResponses(tags)}}, nil
}

func (s *Server) handleListAllTags(ctx context.Context, input *ListAllTagsInput) (*ListTagsOutput, error) {
	callerID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Admin.ListTags(ctx, callerID, domain.TagStatus(input.Status))
	if err != nil {
		return nil, err
	}

	return &ListTagsOutput{Body: ListTagsResponse{Tags: mapTagResponses(tags)}}, nil
}

func (s *Server) handleResetTag(ctx context.Context, input *AdminResetTagInput) (*MessageOutput, error) {
	callerID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Admin.ResetTag(ctx, callerID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tag reset"}}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *AdminDeleteTagInput) (*MessageOutput, error) {
	callerID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Admin.DeleteTag(ctx, callerID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Tag deleted"}}, nil
}

func (s *Server) handleCreateBackup(ctx context.Context, input *AuthorizedInput) (*BackupOutput, error) {
	callerID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	info, err := s.services.Admin.CreateBackup(ctx, callerID)
	if err != nil {
		return nil, err
	}

	return &BackupOutput{Body: mapBackupResponse(*info)}, nil
}

func (s *Server) handleListBackups(ctx context.Context, input *AuthorizedInput) (*ListBackupsOutput, error) {
	callerID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	backups, err := s.services.Admin.ListBackups(ctx, callerID)
	if err != nil {
		return nil, err
	}

	responses := make([]BackupResponse, 0, len(backups))
	for _, b := range backups {
		responses = append(responses, mapBackupResponse(b))
	}

	return &ListBackupsOutput{Body: ListBackupsResponse{Backups: responses}}, nil
}

func (s *Server) handleDeleteBackup(ctx context.Context, input *DeleteBackupInput) (*MessageOutput, error) {
	callerID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Admin.DeleteBackup(ctx, callerID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Backup deleted"}}, nil
}

func mapBackupResponse(b backup.Info) BackupResponse {
	return BackupResponse{
		ID:        b.ID,
		Size:      b.Size,
		CreatedAt: b.CreatedAt,
	}
}
