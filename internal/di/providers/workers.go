package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/taglink/taglink-server/internal/logger"
	"github.com/taglink/taglink-server/internal/service"
)

// SessionJanitorHandle runs the periodic expired-session sweep.
type SessionJanitorHandle struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SessionJanitorHandle) Shutdown() error {
	h.cancel()
	return nil
}

// ProvideSessionJanitor starts a background loop that purges expired
// sessions so dead refresh tokens do not accumulate.
func ProvideSessionJanitor(i do.Injector) (*SessionJanitorHandle, error) {
	sessions := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := sessions.DeleteExpiredSessions(ctx)
				if err != nil {
					log.Warn("Expired session sweep failed", "error", err)
					continue
				}
				if deleted > 0 {
					log.Info("Expired sessions purged", "count", deleted)
				}
			}
		}
	}()

	return &SessionJanitorHandle{cancel: cancel}, nil
}
