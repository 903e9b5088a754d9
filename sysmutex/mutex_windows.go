//go:build windows

package sysmutex

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sys/windows"
)

// System returns the platform Locker. On Windows mutexes are Win32 named
// mutexes in the local session namespace; dir is unused.
func System(dir string) Locker {
	return &winLocker{}
}

type winLocker struct{}

type winHandle struct {
	h windows.Handle
}

func (h *winHandle) Release() error {
	err := windows.ReleaseMutex(h.h)
	closeErr := windows.CloseHandle(h.h)
	if err != nil {
		return fmt.Errorf("releasing mutex: %w", err)
	}
	return closeErr
}

func (l *winLocker) Acquire(ctx context.Context, name string, timeout time.Duration) (Handle, error) {
	namep, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, fmt.Errorf("encoding mutex name: %w", err)
	}
	h, err := windows.CreateMutex(nil, false, namep)
	if err != nil {
		return nil, fmt.Errorf("creating mutex %q: %w", name, err)
	}

	deadline := time.Now().Add(timeout)
	for {
		slice := acquirePollInterval
		if remaining := time.Until(deadline); remaining < slice {
			slice = remaining
		}
		if slice < 0 {
			slice = 0
		}
		event, err := windows.WaitForSingleObject(h, uint32(slice.Milliseconds()))
		if err != nil {
			windows.CloseHandle(h)
			return nil, fmt.Errorf("waiting for mutex %q: %w", name, err)
		}
		switch event {
		// WAIT_ABANDONED means the previous holder died while owning the
		// mutex. Ownership transferred to us, which is the behavior we
		// want: exclusion among live holders.
		case windows.WAIT_OBJECT_0, windows.WAIT_ABANDONED:
			return &winHandle{h: h}, nil
		case windows.WAIT_TIMEOUT:
		default:
			windows.CloseHandle(h)
			return nil, fmt.Errorf("unexpected wait result %#x for mutex %q", event, name)
		}
		select {
		case <-ctx.Done():
			windows.CloseHandle(h)
			return nil, notAcquired(ctx.Err())
		default:
		}
		if !time.Now().Before(deadline) {
			windows.CloseHandle(h)
			return nil, notAcquired(nil)
		}
	}
}

func (l *winLocker) Probe(name string) bool {
	namep, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return false
	}
	// Open, not create: if the mutex object exists, some process created
	// it and still has a handle open, which is how a live worker
	// advertises itself.
	h, err := windows.OpenMutex(windows.SYNCHRONIZE, false, namep)
	if err != nil {
		return false
	}
	windows.CloseHandle(h)
	return true
}
