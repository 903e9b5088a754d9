//go:build !windows

package sysmutex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// System returns the platform Locker. On POSIX systems mutexes are flock(2)
// lock files under dir. The kernel drops a flock when its holder dies, so a
// crashed holder never blocks the next acquisition.
func System(dir string) Locker {
	return &flockLocker{dir: dir}
}

type flockLocker struct {
	dir string
}

func (l *flockLocker) path(name string) string {
	return filepath.Join(l.dir, name+".lock")
}

type flockHandle struct {
	f *os.File
}

func (h *flockHandle) Release() error {
	// Closing the fd releases the flock; unlock first anyway so the
	// release is visible before the close completes.
	unix.Flock(int(h.f.Fd()), unix.LOCK_UN)
	return h.f.Close()
}

func (l *flockLocker) Acquire(ctx context.Context, name string, timeout time.Duration) (Handle, error) {
	f, err := os.OpenFile(l.path(name), os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(acquirePollInterval)
	defer ticker.Stop()

	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return &flockHandle{f: f}, nil
		}
		if err != unix.EWOULDBLOCK && err != unix.EAGAIN {
			f.Close()
			return nil, fmt.Errorf("flock %q: %w", name, err)
		}
		select {
		case <-ctx.Done():
			f.Close()
			return nil, notAcquired(ctx.Err())
		case <-deadline.C:
			f.Close()
			return nil, notAcquired(nil)
		case <-ticker.C:
		}
	}
}

func (l *flockLocker) Probe(name string) bool {
	// Open without O_CREATE: probing must not create the mutex.
	f, err := os.OpenFile(l.path(name), os.O_RDWR, 0)
	if err != nil {
		return false
	}
	defer f.Close()
	err = unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == nil {
		// Nobody holds it. Drop the probe's lock immediately so the
		// probe itself never looks like a holder.
		unix.Flock(int(f.Fd()), unix.LOCK_UN)
		return false
	}
	return err == unix.EWOULDBLOCK || err == unix.EAGAIN
}
