package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/conn-castle/install-unity/internal/messages"
)

var flockFn = unix.Flock

var (
	lockWaitTimeout = 30 * time.Second
	lockPollEvery   = 100 * time.Millisecond
)

// withFileLock runs fn while holding an exclusive advisory lock on path.
// Another process downloading the same package holds the lock until it is
// done; the wait ends early when ctx is cancelled.
func withFileLock(ctx context.Context, path string, fn func() error) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf(messages.DownloadOpenLockFmt, path, err)
	}
	defer func() { _ = file.Close() }()

	if err := waitForLock(ctx, int(file.Fd())); err != nil {
		return fmt.Errorf(messages.DownloadLockFmt, path, err)
	}
	defer func() { _ = flockFn(int(file.Fd()), unix.LOCK_UN) }()
	return fn()
}

func waitForLock(ctx context.Context, fd int) error {
	timeout := time.NewTimer(lockWaitTimeout)
	defer timeout.Stop()
	tick := time.NewTicker(lockPollEvery)
	defer tick.Stop()
	for {
		err := flockFn(fd, unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout.C:
			return fmt.Errorf(messages.DownloadLockTimeoutFmt, lockWaitTimeout)
		case <-tick.C:
		}
	}
}
