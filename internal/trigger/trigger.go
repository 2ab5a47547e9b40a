// Package trigger provides a one-shot, thread-safe latch for signalling that
// an event has occurred and waiting for it with a timeout.
package trigger

import (
	"context"
	"sync"
	"time"
)

// Trigger is a one-shot latch. It starts unfired; Fire transitions it to
// fired exactly once, releasing all current and future waiters.
//
// The zero value is not usable; create instances with New.
type Trigger struct {
	once sync.Once
	ch   chan struct{}
}

// New creates a new unfired trigger.
//
// Returns:
//   - *Trigger: A latch that can be fired exactly once
func New() *Trigger {
	return &Trigger{ch: make(chan struct{})}
}

// Fire marks the trigger as fired. Safe to call concurrently and more than
// once; only the first call has an effect.
func (t *Trigger) Fire() {
	t.once.Do(func() {
		close(t.ch)
	})
}

// HasFired reports whether the trigger has fired.
func (t *Trigger) HasFired() bool {
	select {
	case <-t.ch:
		return true
	default:
		return false
	}
}

// FiredWithin blocks until the trigger fires or the timeout elapses.
//
// Parameters:
//   - timeout: Maximum duration to wait
//
// Returns:
//   - bool: true if the trigger fired within the timeout
func (t *Trigger) FiredWithin(timeout time.Duration) bool {
	if t.HasFired() {
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-t.ch:
		return true
	case <-timer.C:
		return false
	}
}

// Wait blocks until the trigger fires or the context is done.
//
// Parameters:
//   - ctx: Context for cancellation and deadline
//
// Returns:
//   - error: nil if the trigger fired, ctx.Err() otherwise
func (t *Trigger) Wait(ctx context.Context) error {
	select {
	case <-t.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// C returns a channel that is closed once the trigger fires, for use in
// select statements.
func (t *Trigger) C() <-chan struct{} {
	return t.ch
}
