package core

// load_guard.go keeps loads on one Service from overlapping.
//
// Two loads writing to the same ledger at once would interleave their
// batches, so a Service admits one load at a time. A second caller waits up
// to maxWait for the running load to finish before failing with
// ErrLoadInProgress.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLoadInProgress is returned when another load holds the guard past the
// wait timeout.
var ErrLoadInProgress = errors.New("another load is already in progress")

// DefaultLoadWait is how long a load waits for the running one to finish.
const DefaultLoadWait = 5 * time.Second

// LoadGuard admits at most one load at a time.
type LoadGuard struct {
	slot    chan struct{}
	maxWait time.Duration

	mu     sync.Mutex
	active bool
}

// NewLoadGuard creates a guard. Callers that cannot get in within maxWait
// receive ErrLoadInProgress.
func NewLoadGuard(maxWait time.Duration) *LoadGuard {
	if maxWait <= 0 {
		maxWait = DefaultLoadWait
	}
	return &LoadGuard{
		slot:    make(chan struct{}, 1),
		maxWait: maxWait,
	}
}

// Acquire waits for the guard. It returns ctx.Err() if ctx ends first and
// ErrLoadInProgress if maxWait expires. The caller MUST call Release once
// Acquire succeeds (use defer).
func (g *LoadGuard) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, g.maxWait)
	defer cancel()

	select {
	case g.slot <- struct{}{}:
		g.setActive(true)
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrLoadInProgress
	}
}

// TryAcquire takes the guard without blocking and reports whether it did.
func (g *LoadGuard) TryAcquire() bool {
	select {
	case g.slot <- struct{}{}:
		g.setActive(true)
		return true
	default:
		return false
	}
}

// Release frees the guard. Must be called exactly once per successful
// Acquire or TryAcquire.
func (g *LoadGuard) Release() {
	g.setActive(false)
	<-g.slot
}

// Active reports whether a load currently holds the guard.
func (g *LoadGuard) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

func (g *LoadGuard) setActive(v bool) {
	g.mu.Lock()
	g.active = v
	g.mu.Unlock()
}
