package waiter

import (
	"context"

	"github.com/cjeanneret/LapseGo/internal/debug"
	"github.com/cjeanneret/LapseGo/internal/hw/buttons"
	"github.com/cjeanneret/LapseGo/internal/hw/clock"
)

// minWait is the floor applied to every wait: even when the target tick
// is already in the past the loop blocks for one tick instead of spinning,
// and the late frame still fires.
const minWait = clock.Tick(1)

// Waiter is the single suspension point of the control loop: it blocks
// until a scheduled tick or until a button press, whichever comes first.
// Everything between waits is synchronous computation.
type Waiter struct {
	clock   clock.Clock
	buttons buttons.Source
}

// New creates a waiter over the given clock and button source.
func New(c clock.Clock, b buttons.Source) *Waiter {
	return &Waiter{clock: c, buttons: b}
}

// WaitUntil blocks until target is reached or a button is pressed.
// Returns the pressed button, or buttons.NoKey if the wait elapsed.
// The only error is context cancellation.
func (w *Waiter) WaitUntil(ctx context.Context, target clock.Tick) (buttons.Button, error) {
	remaining := target - w.clock.Now()
	if remaining < minWait {
		remaining = minWait
	}
	debug.Verbose("wait: target=%d remaining=%dms", target, remaining)
	return w.buttons.WaitPress(ctx, remaining.Duration())
}

// WaitForButton blocks up to timeout for a specific button. The underlying
// primitive wakes on any button, so unwanted presses re-arm the wait with
// the elapsed time deducted. Returns true if wanted was pressed before the
// timeout was exhausted.
func (w *Waiter) WaitForButton(ctx context.Context, timeout clock.Tick, wanted buttons.Button) (bool, error) {
	deadline := w.clock.Now() + timeout
	for {
		b, err := w.WaitUntil(ctx, deadline)
		if err != nil {
			return false, err
		}
		if b == wanted {
			return true, nil
		}
		if b == buttons.NoKey || w.clock.Now() >= deadline {
			return false, nil
		}
		// unwanted button, keep waiting for what is left
	}
}

// Sleep blocks for d ticks, re-arming across button wakes so the full
// duration always elapses. Used for the fixed settle/backoff delays of the
// pre-focus pass.
func (w *Waiter) Sleep(ctx context.Context, d clock.Tick) error {
	deadline := w.clock.Now() + d
	for {
		b, err := w.WaitUntil(ctx, deadline)
		if err != nil {
			return err
		}
		if b == buttons.NoKey || w.clock.Now() >= deadline {
			return nil
		}
	}
}
