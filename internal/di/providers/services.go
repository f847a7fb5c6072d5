package providers

import (
	"github.com/samber/do/v2"

	"github.com/taglink/taglink-server/internal/auth"
	"github.com/taglink/taglink-server/internal/backup"
	"github.com/taglink/taglink-server/internal/config"
	"github.com/taglink/taglink-server/internal/logger"
	"github.com/taglink/taglink-server/internal/service"
	"github.com/taglink/taglink-server/internal/validation"
)

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, sessionService, validator, log.Logger), nil
}

// ProvideNotificationService provides the notification service.
func ProvideNotificationService(i do.Injector) (*service.NotificationService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewNotificationService(storeHandle.Store, log.Logger), nil
}

// ProvideTagService provides the tag lifecycle service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, log.Logger), nil
}

// ProvideLinkService provides the tag-module linking service.
func ProvideLinkService(i do.Injector) (*service.LinkService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLinkService(storeHandle.Store, log.Logger), nil
}

// ProvideModuleService provides the module content service.
func ProvideModuleService(i do.Injector) (*service.ModuleService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewModuleService(storeHandle.Store, log.Logger), nil
}

// ProvideTransferService provides the ownership transfer service.
func ProvideTransferService(i do.Injector) (*service.TransferService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	notifications := do.MustInvoke[*service.NotificationService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTransferService(storeHandle.Store, notifications, log.Logger), nil
}

// ProvideFollowService provides the tag follow service.
func ProvideFollowService(i do.Injector) (*service.FollowService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	notifications := do.MustInvoke[*service.NotificationService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewFollowService(storeHandle.Store, notifications, log.Logger), nil
}

// ProvideProvisionService provides the tag provisioning service.
func ProvideProvisionService(i do.Injector) (*service.ProvisionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewProvisionService(storeHandle.Store, log.Logger), nil
}

// ProvideBackupService provides the database snapshot service.
func ProvideBackupService(i do.Injector) (*backup.Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return backup.NewService(storeHandle.Store, cfg.Backup.Dir, cfg.Backup.Keep, log.Logger), nil
}

// ProvideAdminService provides the admin service.
func ProvideAdminService(i do.Injector) (*service.AdminService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	provision := do.MustInvoke[*service.ProvisionService](i)
	backups := do.MustInvoke[*backup.Service](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAdminService(storeHandle.Store, provision, backups, log.Logger), nil
}
