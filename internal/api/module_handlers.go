package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/taglink/taglink-server/internal/domain"
	"github.com/taglink/taglink-server/internal/service"
)

func (s *Server) registerModuleRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createModule",
		Method:      http.MethodPost,
		Path:        "/api/v1/modules",
		Summary:     "Create module",
		Description: "Creates a new unlinked module of the given kind, owned by the caller",
		Tags:        []string{"Modules"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateModule)

	huma.Register(s.api, huma.Operation{
		OperationID: "listModules",
		Method:      http.MethodGet,
		Path:        "/api/v1/modules/{kind}",
		Summary:     "List modules",
		Description: "Returns all of the caller's modules of one kind",
		Tags:        []string{"Modules"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListModules)

	huma.Register(s.api, huma.Operation{
		OperationID: "getModule",
		Method:      http.MethodGet,
		Path:        "/api/v1/modules/{kind}/{id}",
		Summary:     "Get module",
		Description: "Returns one of the caller's modules",
		Tags:        []string{"Modules"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetModule)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteModule",
		Method:      http.MethodDelete,
		Path:        "/api/v1/modules/{kind}/{id}",
		Summary:     "Delete module",
		Description: "Deletes an unlinked module. Linked modules must be unlinked first.",
		Tags:        []string{"Modules"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteModule)
}

// === DTOs ===

// CreateModuleRequest is the request body for creating a module.
type CreateModuleRequest struct {
	Kind        string `json:"kind" validate:"required" doc:"Module kind: card, plant, mug, gift or page"`
	Name        string `json:"name" validate:"required,min=1,max=128" doc:"Display name or title"`
	Description string `json:"description,omitempty" validate:"omitempty,max=4096" doc:"Free-text body: bio, notes, message or page content"`
	Species     string `json:"species,omitempty" validate:"omitempty,max=128" doc:"Plant species, ignored by other kinds"`
}

// CreateModuleInput wraps the create module request for Huma.
type CreateModuleInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateModuleRequest
}

// ModuleResponse contains module data in API responses. The content shape
// depends on the module kind.
type ModuleResponse struct {
	Kind   string `json:"kind" doc:"Module kind"`
	Module any    `json:"module" doc:"Module content, shape depends on kind"`
}

// ModuleOutput wraps the module response for Huma.
type ModuleOutput struct {
	Body ModuleResponse
}

// ListModulesInput contains parameters for listing modules.
type ListModulesInput struct {
	Authorization string `header:"Authorization"`
	Kind          string `path:"kind" doc:"Module kind: card, plant, mug, gift or page"`
}

// ListModulesResponse contains a list of modules of one kind.
type ListModulesResponse struct {
	Kind    string `json:"kind" doc:"Module kind"`
	Modules []any  `json:"modules" doc:"Module contents, shape depends on kind"`
}

// ListModulesOutput wraps the list modules response for Huma.
type ListModulesOutput struct {
	Body ListModulesResponse
}

// GetModuleInput contains parameters for getting a module.
type GetModuleInput struct {
	Authorization string `header:"Authorization"`
	Kind          string `path:"kind" doc:"Module kind"`
	ID            string `path:"id" doc:"Module ID"`
}

// DeleteModuleInput contains parameters for deleting a module.
type DeleteModuleInput struct {
	Authorization string `header:"Authorization"`
	Kind          string `path:"kind" doc:"Module kind"`
	ID            string `path:"id" doc:"Module ID"`
}

// === Handlers ===

func (s *Server) handleCreateModule(ctx context.Context, input *CreateModuleInput) (*ModuleOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	module, err := s.services.Module.Create(ctx, userID, service.CreateModuleInput{
		Kind:        domain.ModuleKind(input.Body.Kind),
		Name:        input.Body.Name,
		Description: input.Body.Description,
		Species:     input.Body.Species,
	})
	if err != nil {
		return nil, err
	}

	return &ModuleOutput{Body: ModuleResponse{Kind: string(module.Kind()), Module: module}}, nil
}

func (s *Server) handleListModules(ctx context.Context, input *ListModulesInput) (*ListModulesOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	modules, err := s.services.Module.List(ctx, userID, domain.ModuleKind(input.Kind))
	if err != nil {
		return nil, err
	}

	resp := make([]any, len(modules))
	for i, m := range modules {
		resp[i] = m
	}

	return &ListModulesOutput{Body: ListModulesResponse{Kind: input.Kind, Modules: resp}}, nil
}

func (s *Server) handleGetModule(ctx context.Context, input *GetModuleInput) (*ModuleOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	module, err := s.services.Module.Get(ctx, userID, domain.ModuleKind(input.Kind), input.ID)
	if err != nil {
		return nil, err
	}

	return &ModuleOutput{Body: ModuleResponse{Kind: string(module.Kind()), Module: module}}, nil
}

func (s *Server) handleDeleteModule(ctx context.Context, input *DeleteModuleInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Module.Delete(ctx, userID, domain.ModuleKind(input.Kind), input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Module deleted"}}, nil
}
