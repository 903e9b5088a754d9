// Package sysmutex provides named, cross-process mutual exclusion.
//
// Two operations matter to callers: acquiring a named mutex with a bounded
// wait, and probing whether some live process currently holds a named mutex.
// The probe never creates the mutex and never leaves a handle behind, so
// probing a name cannot itself make that name look held.
//
// A previous holder that died without releasing is not an error: the next
// Acquire succeeds. Mutual exclusion among live holders is the invariant,
// not perfect handoff.
package sysmutex

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotAcquired is returned when a mutex cannot be acquired within the
// caller's budget, whether by timeout or by cancellation.
var ErrNotAcquired = errors.New("mutex not acquired")

// Handle represents an acquired mutex. Release must be called exactly once.
type Handle interface {
	Release() error
}

// Locker is the named cross-process mutex capability.
type Locker interface {
	// Acquire waits up to timeout for exclusive ownership of the named
	// mutex, honoring ctx cancellation. On expiry it returns an error
	// wrapping ErrNotAcquired.
	Acquire(ctx context.Context, name string, timeout time.Duration) (Handle, error)

	// Probe reports whether some other live process currently holds the
	// named mutex. It must not create the mutex as a side effect.
	Probe(name string) bool
}

// acquirePollInterval is how often the platform implementations re-attempt
// a contended acquisition.
const acquirePollInterval = 50 * time.Millisecond

func notAcquired(cause error) error {
	if cause == nil {
		return ErrNotAcquired
	}
	return fmt.Errorf("%w: %v", ErrNotAcquired, cause)
}
