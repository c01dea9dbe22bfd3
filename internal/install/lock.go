package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryDelay is how often a waiting install polls a held lock.
const lockRetryDelay = 250 * time.Millisecond

// Lock serializes installs of one release across processes.
type Lock struct {
	path  string
	flock *flock.Flock
}

// AcquireLock takes the lock "<dir>/<name>.lock", waiting until it is free
// or ctx is done. The lock file always lives on the OS filesystem. The lock
// is released by the OS if the process dies, so there are no stale locks to
// clean up.
func AcquireLock(ctx context.Context, dir, name string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	path := filepath.Join(dir, name+".lock")
	fl := flock.New(path)
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("lock %s: not acquired", path)
	}
	return &Lock{path: path, flock: fl}, nil
}

// Release releases the lock. The lock file itself is left in place.
func (l *Lock) Release() error {
	if l == nil || l.flock == nil {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("unlock %s: %w", l.path, err)
	}
	l.flock = nil
	return nil
}
