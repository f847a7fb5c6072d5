package api

import (
	"github.com/taglink/taglink-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth         *service.AuthService
	Session      *service.SessionService
	Tag          *service.TagService
	Link         *service.LinkService
	Module       *service.ModuleService
	Transfer     *service.TransferService
	Follow       *service.FollowService
	Notification *service.NotificationService
	Admin        *service.AdminService
}
