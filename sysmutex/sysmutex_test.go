package sysmutex

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAcquireRelease(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	h, err := m.Acquire(ctx, "a", time.Second)
	require.NoError(t, err)
	assert.True(t, m.Probe("a"))

	require.NoError(t, h.Release())
	assert.False(t, m.Probe("a"))
}

func TestMemoryContendedAcquireTimesOut(t *testing.T) {
	m := NewMemory()
	m.Hold("a")

	_, err := m.Acquire(context.Background(), "a", 50*time.Millisecond)
	require.ErrorIs(t, err, ErrNotAcquired)
	assert.True(t, m.Probe("a"), "failed acquire must not steal the mutex")
}

func TestMemoryAcquireRespectsCancellation(t *testing.T) {
	m := NewMemory()
	m.Hold("a")

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := m.Acquire(ctx, "a", time.Minute)
		errCh <- err
	}()

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrNotAcquired)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled acquire did not return promptly")
	}
}

func TestMemoryAbandonedOwnerIsSuccess(t *testing.T) {
	m := NewMemory()
	m.Hold("a")

	errCh := make(chan error, 1)
	go func() {
		h, err := m.Acquire(context.Background(), "a", 5*time.Second)
		if err == nil {
			h.Release()
		}
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	m.Abandon("a")

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("acquire did not recover from an abandoned holder")
	}
}

func TestMemoryHandsOffToWaiter(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	h, err := m.Acquire(ctx, "a", time.Second)
	require.NoError(t, err)

	got := make(chan Handle, 1)
	go func() {
		h2, err := m.Acquire(ctx, "a", 5*time.Second)
		require.NoError(t, err)
		got <- h2
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, h.Release())

	select {
	case h2 := <-got:
		require.NoError(t, h2.Release())
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never acquired after release")
	}
}
