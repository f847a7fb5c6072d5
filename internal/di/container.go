// Package di provides dependency injection configuration for the TagLink server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/taglink/taglink-server/internal/auth"
	"github.com/taglink/taglink-server/internal/backup"
	"github.com/taglink/taglink-server/internal/config"
	"github.com/taglink/taglink-server/internal/di/providers"
	"github.com/taglink/taglink-server/internal/logger"
	"github.com/taglink/taglink-server/internal/service"
	"github.com/taglink/taglink-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideValidator)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Business services
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideNotificationService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideLinkService)
	do.Provide(injector, providers.ProvideModuleService)
	do.Provide(injector, providers.ProvideTransferService)
	do.Provide(injector, providers.ProvideFollowService)
	do.Provide(injector, providers.ProvideProvisionService)
	do.Provide(injector, providers.ProvideBackupService)
	do.Provide(injector, providers.ProvideAdminService)

	// Background workers
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideSessionJanitor)

	// HTTP server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap eagerly initializes every service so startup failures surface
// immediately instead of on first request.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)

	_ = do.MustInvoke[*service.SessionService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.NotificationService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.LinkService](injector)
	_ = do.MustInvoke[*service.ModuleService](injector)
	_ = do.MustInvoke[*service.TransferService](injector)
	_ = do.MustInvoke[*service.FollowService](injector)
	_ = do.MustInvoke[*service.ProvisionService](injector)
	_ = do.MustInvoke[*backup.Service](injector)
	_ = do.MustInvoke[*service.AdminService](injector)

	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.SessionJanitorHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
