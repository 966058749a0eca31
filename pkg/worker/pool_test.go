package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolBoundsConcurrency(t *testing.T) {
	p := NewPool(2, nil)

	var running, peak atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Submit("job", func(ctx context.Context) error {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return nil
		}))
	}

	abandoned, err := p.Shutdown(context.Background())
	require.NoError(t, err)
	assert.Zero(t, abandoned)
	assert.LessOrEqual(t, peak.Load(), int32(2))

	completed, failed := p.Stats()
	assert.Equal(t, int64(10), completed)
	assert.Zero(t, failed)
}

func TestPoolReportsFailuresAndPanics(t *testing.T) {
	var mu sync.Mutex
	var names []string
	p := NewPool(4, func(name string, err error) {
		mu.Lock()
		names = append(names, name)
		mu.Unlock()
	})

	require.NoError(t, p.Submit("fails", func(ctx context.Context) error { return errors.New("boom") }))
	require.NoError(t, p.Submit("panics", func(ctx context.Context) error { panic("bad") }))

	_, err := p.Shutdown(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"fails", "panics"}, names)

	_, failed := p.Stats()
	assert.Equal(t, int64(2), failed)
}

func TestShutdownCancelsOnDeadline(t *testing.T) {
	p := NewPool(1, nil)
	require.NoError(t, p.Submit("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	abandoned, err := p.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int64(1), abandoned)

	assert.ErrorIs(t, p.Submit("late", func(ctx context.Context) error { return nil }), ErrPoolClosed)
}

func TestSubmitRefusesPastPendingCap(t *testing.T) {
	p := NewPool(1, nil, WithMaxPending(2))

	release := make(chan struct{})
	blocked := func(ctx context.Context) error {
		<-release
		return nil
	}
	require.NoError(t, p.Submit("first", blocked))
	require.NoError(t, p.Submit("second", blocked))
	assert.ErrorIs(t, p.Submit("third", blocked), ErrPoolFull)
	assert.Equal(t, int64(2), p.Pending())

	close(release)
	require.Eventually(t, func() bool { return p.Pending() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, p.Submit("after drain", func(ctx context.Context) error { return nil }))

	abandoned, err := p.Shutdown(context.Background())
	require.NoError(t, err)
	assert.Zero(t, abandoned)
	completed, _ := p.Stats()
	assert.Equal(t, int64(3), completed)
}

func TestDefaultPendingCapScalesWithSize(t *testing.T) {
	p := NewPool(2, nil)
	assert.Equal(t, int64(2*DefaultBacklogPerWorker), p.maxPending)

	p = NewPool(2, nil, WithMaxPending(0))
	assert.Equal(t, int64(2*DefaultBacklogPerWorker), p.maxPending)
	_, err := p.Shutdown(context.Background())
	require.NoError(t, err)
}
