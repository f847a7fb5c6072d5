package sse

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taglink/taglink-server/internal/domain"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	t.Cleanup(func() {
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
		defer shutdownCancel()
		m.Shutdown(shutdownCtx)
	})
	return m
}

func waitForEvent(t *testing.T, client *Client) Event {
	t.Helper()
	select {
	case event := <-client.EventChan:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestManager_DeliversToAddressedUser(t *testing.T) {
	m := newTestManager(t)

	client, err := m.Connect("user-alice")
	require.NoError(t, err)
	defer m.Disconnect(client.ID)

	m.PublishNotification(&domain.Notification{
		ID:     "ntf-1",
		UserID: "user-alice",
		Type:   domain.NotificationTagReceived,
		Text:   "bob sent you a tag",
	})

	event := waitForEvent(t, client)
	assert.Equal(t, EventNotification, event.Type)
	require.NotNil(t, event.Notification)
	assert.Equal(t, "ntf-1", event.Notification.ID)
}

func TestManager_FiltersOtherUsers(t *testing.T) {
	m := newTestManager(t)

	alice, err := m.Connect("user-alice")
	require.NoError(t, err)
	defer m.Disconnect(alice.ID)

	bob, err := m.Connect("user-bob")
	require.NoError(t, err)
	defer m.Disconnect(bob.ID)

	m.PublishNotification(&domain.Notification{
		ID:     "ntf-2",
		UserID: "user-bob",
		Type:   domain.NotificationNewFollower,
	})

	event := waitForEvent(t, bob)
	assert.Equal(t, "ntf-2", event.Notification.ID)

	select {
	case event := <-alice.EventChan:
		t.Fatalf("alice received event addressed to bob: %v", event.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestManager_DisconnectStopsDelivery(t *testing.T) {
	m := newTestManager(t)

	client, err := m.Connect("user-alice")
	require.NoError(t, err)
	m.Disconnect(client.ID)

	select {
	case <-client.Done:
	default:
		t.Fatal("Done channel should be closed after disconnect")
	}

	// Emitting after disconnect must not panic or block.
	m.PublishNotification(&domain.Notification{UserID: "user-alice"})
}

func TestManager_EmitAfterShutdownDropped(t *testing.T) {
	m := NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
	defer shutdownCancel()
	require.NoError(t, m.Shutdown(shutdownCtx))

	// Must not panic on the closed events channel.
	m.Emit(NewHeartbeatEvent())
}
