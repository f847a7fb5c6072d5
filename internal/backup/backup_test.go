package backup

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileSnapshotter writes a fixed payload to the snapshot path.
type fileSnapshotter struct {
	payload []byte
}

func (f *fileSnapshotter) BackupTo(ctx context.Context, path string) error {
	return os.WriteFile(path, f.payload, 0o644)
}

func newTestService(t *testing.T, keep int) (*Service, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "backups")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(&fileSnapshotter{payload: []byte("snapshot")}, dir, keep, logger), dir
}

func TestService_CreateAndGet(t *testing.T) {
	svc, _ := newTestService(t, 0)
	ctx := context.Background()

	info, err := svc.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len("snapshot")), info.Size)
	assert.FileExists(t, info.Path)

	got, err := svc.Get(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, info.ID, got.ID)
	assert.Equal(t, info.Size, got.Size)
}

func TestService_GetMissing(t *testing.T) {
	svc, _ := newTestService(t, 0)

	_, err := svc.Get(context.Background(), "backup-2020-01-01-000000")
	assert.ErrorIs(t, err, ErrBackupNotFound)
}

func TestService_ListEmptyDir(t *testing.T) {
	svc, _ := newTestService(t, 0)

	backups, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestService_ListIgnoresForeignFiles(t *testing.T) {
	svc, dir := newTestService(t, 0)
	ctx := context.Background()

	_, err := svc.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	backups, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestService_Delete(t *testing.T) {
	svc, _ := newTestService(t, 0)
	ctx := context.Background()

	info, err := svc.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, info.ID))
	assert.ErrorIs(t, svc.Delete(ctx, info.ID), ErrBackupNotFound)
}

func TestService_RetentionPrunesOldest(t *testing.T) {
	svc, dir := newTestService(t, 2)
	ctx := context.Background()

	// Snapshot IDs carry second precision, so write the old files directly
	// with distinct mtimes instead of sleeping between Create calls.
	old := time.Now().Add(-time.Hour)
	for i, id := range []string{"backup-2024-01-01-000000", "backup-2024-01-02-000000"} {
		path := filepath.Join(dir, id+backupSuffix)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))
		require.NoError(t, os.Chtimes(path, old, old.Add(time.Duration(i)*time.Minute)))
	}

	info, err := svc.Create(ctx)
	require.NoError(t, err)

	backups, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, info.ID, backups[0].ID)
	assert.Equal(t, "backup-2024-01-02-000000", backups[1].ID)
}
