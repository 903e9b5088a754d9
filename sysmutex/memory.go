package sysmutex

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-memory Locker for tests of the orchestration logic.
// It is process-local: "cross-process" exclusion is simulated among
// goroutines sharing one Memory.
type Memory struct {
	mu       sync.Mutex
	held     map[string]bool
	released chan struct{}
}

func NewMemory() *Memory {
	return &Memory{
		held:     map[string]bool{},
		released: make(chan struct{}),
	}
}

type memHandle struct {
	m    *Memory
	name string
	once sync.Once
}

func (h *memHandle) Release() error {
	h.once.Do(func() {
		h.m.mu.Lock()
		delete(h.m.held, h.name)
		close(h.m.released)
		h.m.released = make(chan struct{})
		h.m.mu.Unlock()
	})
	return nil
}

func (m *Memory) tryAcquire(name string) (Handle, <-chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[name] {
		return nil, m.released
	}
	m.held[name] = true
	return &memHandle{m: m, name: name}, nil
}

func (m *Memory) Acquire(ctx context.Context, name string, timeout time.Duration) (Handle, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		h, released := m.tryAcquire(name)
		if h != nil {
			return h, nil
		}
		select {
		case <-ctx.Done():
			return nil, notAcquired(ctx.Err())
		case <-deadline.C:
			return nil, notAcquired(nil)
		case <-released:
		}
	}
}

func (m *Memory) Probe(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held[name]
}

// Hold marks a name as held without a handle, simulating another process
// that owns the mutex for the duration of a test.
func (m *Memory) Hold(name string) {
	m.mu.Lock()
	m.held[name] = true
	m.mu.Unlock()
}

// Abandon drops a name as if its holder died without releasing. A
// subsequent Acquire succeeds, which is exactly the policy the platform
// implementations provide.
func (m *Memory) Abandon(name string) {
	m.mu.Lock()
	delete(m.held, name)
	close(m.released)
	m.released = make(chan struct{})
	m.mu.Unlock()
}
