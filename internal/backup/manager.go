package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"
)

var (
	// ErrNoStore is returned when a snapshot is requested but the live store
	// file does not exist yet.
	ErrNoStore = errors.New("no live store to snapshot")
	// ErrSnapshotNotFound is returned when a restore names an unknown snapshot.
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrLocked is returned when another process holds the backup directory lock.
	ErrLocked = errors.New("backup directory is locked by another operation")
)

const (
	snapshotPrefix  = "roster-"
	rescuePrefix    = "rescue-"
	snapshotSuffix  = ".db"
	lockFileName    = "backup.lock"
	timestampLayout = "20060102-150405"
)

var snapshotIDPattern = regexp.MustCompile(`^roster-[0-9]{8}-[0-9]{6}\.db$`)

// Store is the live database the manager snapshots and restores.
type Store interface {
	Path() string
	SnapshotTo(ctx context.Context, dst string) error
	Reopen(ctx context.Context) error
	IntegrityCheck(ctx context.Context) error
}

// Snapshot describes one snapshot file in the backup directory.
type Snapshot struct {
	ID        string
	Path      string
	Size      int64
	CreatedAt time.Time
}

// Manager creates, rotates, and restores file snapshots of the live store.
// File operations are serialized through a lock file in the backup directory.
type Manager struct {
	store     Store
	dir       string
	retention int
	now       func() time.Time
	logger    *slog.Logger
}

// NewManager wires a snapshot manager over the given store. The backup
// directory is created if missing. retention bounds how many snapshots are
// kept; older ones are deleted oldest-first.
func NewManager(store Store, dir string, retention int, now func() time.Time, logger *slog.Logger) (*Manager, error) {
	if retention < 1 {
		return nil, fmt.Errorf("snapshot retention must be at least 1, got %d", retention)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory %s: %w", dir, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, dir: dir, retention: retention, now: now, logger: logger}, nil
}

// CreateSnapshot copies the live store into the backup directory as
// roster-<timestamp>.db and prunes snapshots beyond the retention bound.
func (m *Manager) CreateSnapshot(ctx context.Context) (Snapshot, error) {
	unlock, err := m.acquireLock()
	if err != nil {
		return Snapshot{}, err
	}
	defer unlock()

	if _, err := os.Stat(m.store.Path()); err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, ErrNoStore
		}
		return Snapshot{}, fmt.Errorf("failed to stat live store: %w", err)
	}

	id := snapshotPrefix + m.now().UTC().Format(timestampLayout) + snapshotSuffix
	dst := filepath.Join(m.dir, id)
	if err := m.store.SnapshotTo(ctx, dst); err != nil {
		_ = os.Remove(dst)
		return Snapshot{}, err
	}

	info, err := os.Stat(dst)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to stat snapshot %s: %w", id, err)
	}

	if err := m.rotateLocked(); err != nil {
		return Snapshot{}, err
	}

	m.logger.InfoContext(ctx, "snapshot created", "snapshot_id", id, "size_bytes", info.Size())
	return Snapshot{ID: id, Path: dst, Size: info.Size(), CreatedAt: info.ModTime()}, nil
}

// ListSnapshots returns the snapshots in the backup directory, newest first.
func (m *Manager) ListSnapshots() ([]Snapshot, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory %s: %w", m.dir, err)
	}

	snapshots := make([]Snapshot, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !snapshotIDPattern.MatchString(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat snapshot %s: %w", entry.Name(), err)
		}
		snapshots = append(snapshots, Snapshot{
			ID:        entry.Name(),
			Path:      filepath.Join(m.dir, entry.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	// Snapshot IDs embed a sortable UTC timestamp.
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].ID > snapshots[j].ID })
	return snapshots, nil
}

// RestoreSnapshot overwrites the live store with the named snapshot. The
// current live store is preserved as rescue-<timestamp>.db first, then the
// connection pool is reopened so reads see the restored state.
func (m *Manager) RestoreSnapshot(ctx context.Context, id string) error {
	if !snapshotIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
	}

	unlock, err := m.acquireLock()
	if err != nil {
		return err
	}
	defer unlock()

	src := filepath.Join(m.dir, id)
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSnapshotNotFound, id)
		}
		return fmt.Errorf("failed to stat snapshot %s: %w", id, err)
	}

	livePath := m.store.Path()
	if _, err := os.Stat(livePath); err == nil {
		rescue := filepath.Join(m.dir, rescuePrefix+m.now().UTC().Format(timestampLayout)+snapshotSuffix)
		if err := copyFile(livePath, rescue); err != nil {
			return fmt.Errorf("failed to write rescue copy: %w", err)
		}
		m.logger.InfoContext(ctx, "rescue copy written", "path", rescue)
	}

	if err := copyFile(src, livePath); err != nil {
		return fmt.Errorf("failed to restore snapshot %s: %w", id, err)
	}
	if err := m.store.Reopen(ctx); err != nil {
		return fmt.Errorf("restored snapshot %s but failed to reopen store: %w", id, err)
	}

	m.logger.InfoContext(ctx, "snapshot restored", "snapshot_id", id)
	return nil
}

// EnsureHealthy verifies the live store's integrity. If the check fails it
// attempts a restore from the most recent snapshot before giving up.
func (m *Manager) EnsureHealthy(ctx context.Context) error {
	checkErr := m.store.IntegrityCheck(ctx)
	if checkErr == nil {
		return nil
	}
	m.logger.WarnContext(ctx, "live store failed integrity check", "error", checkErr)

	snapshots, err := m.ListSnapshots()
	if err != nil {
		return fmt.Errorf("store is corrupt and snapshots are unreadable: %w", err)
	}
	if len(snapshots) == 0 {
		return fmt.Errorf("store is corrupt and no snapshot is available: %w", checkErr)
	}

	latest := snapshots[0]
	if err := m.RestoreSnapshot(ctx, latest.ID); err != nil {
		return fmt.Errorf("store is corrupt and restoring %s failed: %w", latest.ID, err)
	}
	if err := m.store.IntegrityCheck(ctx); err != nil {
		return fmt.Errorf("restored %s but the store is still corrupt: %w", latest.ID, err)
	}

	m.logger.InfoContext(ctx, "recovered store from snapshot", "snapshot_id", latest.ID)
	return nil
}

// rotateLocked deletes the oldest snapshots beyond the retention bound.
// Callers must hold the directory lock.
func (m *Manager) rotateLocked() error {
	snapshots, err := m.ListSnapshots()
	if err != nil {
		return err
	}
	for _, stale := range snapshots[min(m.retention, len(snapshots)):] {
		if err := os.Remove(stale.Path); err != nil {
			return fmt.Errorf("failed to prune snapshot %s: %w", stale.ID, err)
		}
		m.logger.Info("snapshot pruned", "snapshot_id", stale.ID)
	}
	return nil
}

// acquireLock takes the backup directory lock file, rejecting concurrent
// writers from this or any other process.
func (m *Manager) acquireLock() (func(), error) {
	path := filepath.Join(m.dir, lockFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("failed to acquire backup lock: %w", err)
	}
	fmt.Fprintf(file, "%d\n", os.Getpid())
	_ = file.Close()
	return func() { _ = os.Remove(path) }, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
