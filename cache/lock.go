package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// LockSuffix is appended to an entry path to name its lock file.
const LockSuffix = ".lock"

// LockRetryDelay is how often a held lock is polled.
const LockRetryDelay = 250 * time.Millisecond

// Unlock releases a lock taken with Lock.
type Unlock func() error

// Lock takes an advisory cross-process lock for target, waiting until it is
// free or ctx is done. The lock file is left in place after release.
func Lock(ctx context.Context, target string) (Unlock, error) {
	fl := flock.New(target + LockSuffix)
	ok, err := fl.TryLockContext(ctx, LockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", target, err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s: %w", target, ctx.Err())
	}
	return fl.Unlock, nil
}
