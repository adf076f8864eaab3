package backup

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore simulates the live database file without a real driver.
type fakeStore struct {
	path         string
	reopened     int
	integrityErr error
}

func (f *fakeStore) Path() string { return f.path }

func (f *fakeStore) SnapshotTo(_ context.Context, dst string) error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o640)
}

func (f *fakeStore) Reopen(context.Context) error {
	f.reopened++
	f.integrityErr = nil
	return nil
}

func (f *fakeStore) IntegrityCheck(context.Context) error { return f.integrityErr }

type tickingClock struct {
	current time.Time
}

func (c *tickingClock) now() time.Time {
	c.current = c.current.Add(time.Second)
	return c.current
}

func newTestManager(t *testing.T, retention int) (*Manager, *fakeStore, string) {
	t.Helper()
	dir := t.TempDir()
	store := &fakeStore{path: filepath.Join(t.TempDir(), "roster.db")}
	clock := &tickingClock{current: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	manager, err := NewManager(store, dir, retention, clock.now, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return manager, store, dir
}

func TestCreateSnapshotWithoutLiveStore(t *testing.T) {
	manager, _, _ := newTestManager(t, 3)

	_, err := manager.CreateSnapshot(context.Background())
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestCreateSnapshotCopiesLiveStore(t *testing.T) {
	manager, store, _ := newTestManager(t, 3)
	require.NoError(t, os.WriteFile(store.path, []byte("live-state"), 0o640))

	snapshot, err := manager.CreateSnapshot(context.Background())
	require.NoError(t, err)

	assert.Regexp(t, `^roster-\d{8}-\d{6}\.db$`, snapshot.ID)
	data, err := os.ReadFile(snapshot.Path)
	require.NoError(t, err)
	assert.Equal(t, "live-state", string(data))
}

func TestSnapshotRetentionKeepsNewest(t *testing.T) {
	manager, store, _ := newTestManager(t, 2)
	require.NoError(t, os.WriteFile(store.path, []byte("state"), 0o640))

	var ids []string
	for i := 0; i < 5; i++ {
		snapshot, err := manager.CreateSnapshot(context.Background())
		require.NoError(t, err)
		ids = append(ids, snapshot.ID)
	}

	snapshots, err := manager.ListSnapshots()
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, ids[4], snapshots[0].ID)
	assert.Equal(t, ids[3], snapshots[1].ID)
}

func TestRestoreSnapshotWritesRescueCopy(t *testing.T) {
	manager, store, dir := newTestManager(t, 3)
	require.NoError(t, os.WriteFile(store.path, []byte("old-state"), 0o640))

	snapshot, err := manager.CreateSnapshot(context.Background())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.path, []byte("new-state"), 0o640))

	require.NoError(t, manager.RestoreSnapshot(context.Background(), snapshot.ID))

	restored, err := os.ReadFile(store.path)
	require.NoError(t, err)
	assert.Equal(t, "old-state", string(restored))
	assert.Equal(t, 1, store.reopened)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var rescue []byte
	for _, entry := range entries {
		if len(entry.Name()) > len(rescuePrefix) && entry.Name()[:len(rescuePrefix)] == rescuePrefix {
			rescue, err = os.ReadFile(filepath.Join(dir, entry.Name()))
			require.NoError(t, err)
		}
	}
	assert.Equal(t, "new-state", string(rescue), "rescue copy must preserve the pre-restore state")
}

func TestRestoreUnknownSnapshot(t *testing.T) {
	manager, store, _ := newTestManager(t, 3)
	require.NoError(t, os.WriteFile(store.path, []byte("state"), 0o640))

	err := manager.RestoreSnapshot(context.Background(), "roster-19990101-000000.db")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
	assert.Zero(t, store.reopened)

	err = manager.RestoreSnapshot(context.Background(), "../outside.db")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestLockRejectsConcurrentOperation(t *testing.T) {
	manager, store, dir := newTestManager(t, 3)
	require.NoError(t, os.WriteFile(store.path, []byte("state"), 0o640))
	require.NoError(t, os.WriteFile(filepath.Join(dir, lockFileName), []byte("123\n"), 0o640))

	_, err := manager.CreateSnapshot(context.Background())
	assert.ErrorIs(t, err, ErrLocked)
}

func TestLockReleasedAfterOperation(t *testing.T) {
	manager, store, _ := newTestManager(t, 3)
	require.NoError(t, os.WriteFile(store.path, []byte("state"), 0o640))

	_, err := manager.CreateSnapshot(context.Background())
	require.NoError(t, err)
	_, err = manager.CreateSnapshot(context.Background())
	require.NoError(t, err)
}

func TestEnsureHealthyPassesCleanStore(t *testing.T) {
	manager, store, _ := newTestManager(t, 3)
	require.NoError(t, os.WriteFile(store.path, []byte("state"), 0o640))

	require.NoError(t, manager.EnsureHealthy(context.Background()))
	assert.Zero(t, store.reopened)
}

func TestEnsureHealthyRestoresLatestSnapshot(t *testing.T) {
	manager, store, _ := newTestManager(t, 3)
	require.NoError(t, os.WriteFile(store.path, []byte("good-state"), 0o640))
	_, err := manager.CreateSnapshot(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(store.path, []byte("corrupt"), 0o640))
	store.integrityErr = errors.New("database disk image is malformed")

	require.NoError(t, manager.EnsureHealthy(context.Background()))

	restored, err := os.ReadFile(store.path)
	require.NoError(t, err)
	assert.Equal(t, "good-state", string(restored))
	assert.Equal(t, 1, store.reopened)
}

func TestEnsureHealthyFailsWithoutSnapshots(t *testing.T) {
	manager, store, _ := newTestManager(t, 3)
	require.NoError(t, os.WriteFile(store.path, []byte("corrupt"), 0o640))
	store.integrityErr = errors.New("database disk image is malformed")

	err := manager.EnsureHealthy(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no snapshot")
}
