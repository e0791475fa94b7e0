package churn

import (
	"context"
	"time"

	"github.com/lightningnetwork/lnd/clock"
)

// Waiter blocks for a duration or until ctx is done.
type Waiter interface {
	Wait(ctx context.Context, d time.Duration) error
}

// ClockWaiter waits on a clock.Clock.
type ClockWaiter struct {
	clock clock.Clock
}

// NewClockWaiter creates a waiter. A nil clock means wall-clock time.
func NewClockWaiter(c clock.Clock) *ClockWaiter {
	if c == nil {
		c = clock.NewDefaultClock()
	}
	return &ClockWaiter{clock: c}
}

// Wait blocks for d. It returns ctx.Err() if ctx ends first.
func (w *ClockWaiter) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-w.clock.TickAfter(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
