package guard

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/ledgererr"
)

func TestDo_SerializesSameGroup(t *testing.T) {
	g := New(5*time.Second, nil)

	var inside, maxInside atomic.Int32
	var count int // guarded by the section

	var eg errgroup.Group
	for i := 0; i < 50; i++ {
		eg.Go(func() error {
			return g.Do(context.Background(), "group-1", func(ctx context.Context) error {
				n := inside.Add(1)
				for {
					cur := maxInside.Load()
					if n <= cur || maxInside.CompareAndSwap(cur, n) {
						break
					}
				}
				count++
				time.Sleep(100 * time.Microsecond)
				inside.Add(-1)
				return nil
			})
		})
	}
	require.NoError(t, eg.Wait())

	assert.Equal(t, 50, count)
	assert.Equal(t, int32(1), maxInside.Load())
	assert.Zero(t, g.tracked(), "idle sections must be dropped")
}

func TestDo_DifferentGroupsDoNotContend(t *testing.T) {
	g := New(time.Second, nil)

	holding := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- g.Do(context.Background(), "a", func(ctx context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	err := g.Do(context.Background(), "b", func(ctx context.Context) error { return nil })
	assert.NoError(t, err)

	close(release)
	assert.NoError(t, <-done)
}

func TestDo_Timeout(t *testing.T) {
	g := New(30*time.Millisecond, nil)

	holding := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- g.Do(context.Background(), "g", func(ctx context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	called := false
	err := g.Do(context.Background(), "g", func(ctx context.Context) error {
		called = true
		return nil
	})
	close(release)
	require.NoError(t, <-done)

	var lt *ledgererr.LockTimeoutError
	require.ErrorAs(t, err, &lt)
	assert.Equal(t, "g", lt.GroupID)
	assert.GreaterOrEqual(t, lt.Waited, 30*time.Millisecond)
	assert.True(t, ledgererr.IsRetryable(err))
	assert.False(t, called)
}

func TestDo_CallerDeadlineIsTimeout(t *testing.T) {
	g := New(time.Minute, nil)

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = g.Do(context.Background(), "g", func(ctx context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := g.Do(ctx, "g", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ledgererr.ErrLockTimeout)
}

func TestDo_Canceled(t *testing.T) {
	g := New(time.Minute, nil)

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = g.Do(context.Background(), "g", func(ctx context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)
	err := g.Do(ctx, "g", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ledgererr.ErrLockTimeout))
}

func TestDo_ReleasesOnErrorAndPanic(t *testing.T) {
	g := New(100*time.Millisecond, nil)
	boom := errors.New("boom")

	err := g.Do(context.Background(), "g", func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	assert.Panics(t, func() {
		_ = g.Do(context.Background(), "g", func(ctx context.Context) error { panic("bad") })
	})

	err = g.Do(context.Background(), "g", func(ctx context.Context) error { return nil })
	assert.NoError(t, err, "section must be free after error and panic")
	assert.Zero(t, g.tracked())
}
