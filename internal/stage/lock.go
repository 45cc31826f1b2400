package stage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryInterval is how often lock acquisition is retried while the
// context allows.
const lockRetryInterval = 100 * time.Millisecond

// DestLock is an exclusive advisory lock on an install destination.
// Two concurrent runs installing into the same directory would
// otherwise interleave partial writes.
type DestLock struct {
	fl *flock.Flock
}

// LockDest acquires an exclusive lock for destDir, waiting until the
// context is done. The lock file lives inside the destination, so a
// destination the process cannot write to fails here rather than
// halfway through a copy.
func LockDest(ctx context.Context, destDir string) (*DestLock, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, WrapPermission(destDir, fmt.Errorf("create destination: %w", err))
	}

	fl := flock.New(filepath.Join(destDir, ".relget.lock"))
	locked, err := fl.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return nil, WrapPermission(destDir, fmt.Errorf("lock destination: %w", err))
	}
	if !locked {
		return nil, fmt.Errorf("destination %s is locked by another install", destDir)
	}
	return &DestLock{fl: fl}, nil
}

// Unlock releases the destination lock. The lock file stays in place:
// unlinking it would let a waiter on the old inode and a newcomer on a
// fresh file hold the lock at the same time.
func (l *DestLock) Unlock() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("unlock destination: %w", err)
	}
	return nil
}
