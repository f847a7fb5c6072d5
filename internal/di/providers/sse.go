package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/taglink/taglink-server/internal/logger"
	"github.com/taglink/taglink-server/internal/service"
	"github.com/taglink/taglink-server/internal/sse"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager and hooks it into
// the notification service for live delivery.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	notifications := do.MustInvoke[*service.NotificationService](i)

	manager := sse.NewManager(log.Logger)
	notifications.SetPublisher(manager)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}
