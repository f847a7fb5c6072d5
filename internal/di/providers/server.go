package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/taglink/taglink-server/internal/api"
	"github.com/taglink/taglink-server/internal/config"
	"github.com/taglink/taglink-server/internal/domain"
	"github.com/taglink/taglink-server/internal/logger"
	"github.com/taglink/taglink-server/internal/service"
	"github.com/taglink/taglink-server/internal/sse"
)

// sseTokenVerifier adapts AuthService to the sse.TokenVerifier interface.
type sseTokenVerifier struct {
	authService *service.AuthService
}

// VerifyAccessToken implements sse.TokenVerifier.
func (v *sseTokenVerifier) VerifyAccessToken(ctx context.Context, token string) (*domain.User, error) {
	user, _, err := v.authService.VerifyAccessToken(ctx, token)
	return user, err
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Auth:         do.MustInvoke[*service.AuthService](i),
		Session:      do.MustInvoke[*service.SessionService](i),
		Tag:          do.MustInvoke[*service.TagService](i),
		Link:         do.MustInvoke[*service.LinkService](i),
		Module:       do.MustInvoke[*service.ModuleService](i),
		Transfer:     do.MustInvoke[*service.TransferService](i),
		Follow:       do.MustInvoke[*service.FollowService](i),
		Notification: do.MustInvoke[*service.NotificationService](i),
		Admin:        do.MustInvoke[*service.AdminService](i),
	}

	tokenVerifier := &sseTokenVerifier{authService: services.Auth}
	stream := sse.NewHandler(sseHandle.Manager, tokenVerifier, log.Logger)

	handler := api.NewServer(storeHandle.Store, services, stream, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
