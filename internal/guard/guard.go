// Package guard serializes writes per group.
//
// Each group id owns one exclusive section. Sections for different groups are
// independent, and a section's bookkeeping is dropped once no caller holds or
// waits for it, so the set of tracked groups stays proportional to the groups
// currently being written.
package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/mmynk/splitledger/internal/ledgererr"
	"github.com/mmynk/splitledger/internal/metrics"
)

// DefaultTimeout bounds the wait for a busy section when none is configured.
const DefaultTimeout = 2 * time.Second

type section struct {
	sem  *semaphore.Weighted
	refs int
}

// Guard hands out per-group exclusive sections.
type Guard struct {
	timeout time.Duration
	metrics *metrics.Recorder

	mu       sync.Mutex
	sections map[string]*section
}

// New creates a Guard. A non-positive timeout selects DefaultTimeout.
// rec may be nil.
func New(timeout time.Duration, rec *metrics.Recorder) *Guard {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Guard{
		timeout:  timeout,
		metrics:  rec,
		sections: make(map[string]*section),
	}
}

// Do runs fn while holding groupID's section.
//
// The wait is bounded by the guard timeout or ctx's deadline, whichever comes
// first; running out of time returns a *ledgererr.LockTimeoutError. If ctx is
// canceled while waiting, the returned error wraps context.Canceled. The
// section is released when fn returns or panics.
func (g *Guard) Do(ctx context.Context, groupID string, fn func(ctx context.Context) error) error {
	s := g.retain(groupID)
	defer g.drop(groupID)

	waitCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	err := s.sem.Acquire(waitCtx, 1)
	waited := time.Since(start)
	g.metrics.LockWaited(waited)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("waiting for group %s: %w", groupID, ctx.Err())
		}
		g.metrics.LockTimedOut()
		return &ledgererr.LockTimeoutError{GroupID: groupID, Waited: waited}
	}

	held := time.Now()
	defer func() {
		s.sem.Release(1)
		g.metrics.LockHeld(time.Since(held))
	}()
	return fn(ctx)
}

func (g *Guard) retain(groupID string) *section {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sections[groupID]
	if !ok {
		s = &section{sem: semaphore.NewWeighted(1)}
		g.sections[groupID] = s
	}
	s.refs++
	return s
}

func (g *Guard) drop(groupID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.sections[groupID]
	s.refs--
	if s.refs == 0 {
		delete(g.sections, groupID)
	}
}

// tracked reports how many groups currently have a section.
func (g *Guard) tracked() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sections)
}
