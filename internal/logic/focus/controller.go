package focus

import (
	"context"

	"github.com/cjeanneret/LapseGo/internal/debug"
	"github.com/cjeanneret/LapseGo/internal/hw/buttons"
	"github.com/cjeanneret/LapseGo/internal/hw/camera"
	"github.com/cjeanneret/LapseGo/internal/hw/clock"
	"github.com/cjeanneret/LapseGo/internal/logic/waiter"
)

// maxAttempts bounds the half-press/settle/check retry sequence.
const maxAttempts = 5

// Outcome classifies how the pre-focus pass ended. Unattainable is
// non-fatal: the run proceeds without a lock.
type Outcome int

const (
	Locked Outcome = iota
	Unattainable
)

func (o Outcome) String() string {
	switch o {
	case Locked:
		return "locked"
	case Unattainable:
		return "unattainable"
	default:
		return "unknown"
	}
}

// Result is consumed once before the shoot loop starts; Value is the
// camera backend's opaque focus datum, kept only for the log.
type Result struct {
	Outcome Outcome
	Value   int
}

// Controller runs the pre-focus pass: acquire and lock focus with bounded
// retries, then give the user a bounded window to request a refocus before
// shooting starts. It never blocks indefinitely.
type Controller struct {
	camera  camera.Camera
	waiter  *waiter.Waiter
	settle  clock.Tick // autofocus settle time per attempt
	backoff clock.Tick // delay between failed attempts
	window  clock.Tick // post-lock refocus window
}

// NewController creates a pre-focus controller.
func NewController(cam camera.Camera, w *waiter.Waiter, settle, backoff, window clock.Tick) *Controller {
	return &Controller{
		camera:  cam,
		waiter:  w,
		settle:  settle,
		backoff: backoff,
		window:  window,
	}
}

// Run executes the pass. Hardware errors are logged and treated as failed
// attempts; the only returned error is context cancellation.
func (c *Controller) Run(ctx context.Context) (Result, error) {
	debug.Section("Pre-focus")
	if err := c.camera.LockFocus(false); err != nil {
		debug.Error(err)
	}

	for {
		locked, value, err := c.attempt(ctx)
		if err != nil {
			return Result{}, err
		}
		if !locked {
			debug.Live("Focus: not acquired after %d attempts, shooting without lock", maxAttempts)
			// Brief pause so the report is readable before shooting starts.
			if err := c.waiter.Sleep(ctx, c.backoff); err != nil {
				return Result{}, err
			}
			return Result{Outcome: Unattainable}, nil
		}

		debug.Live("Focus locked (value=%d), press %s within %s to refocus",
			value, buttons.Set, c.window.Duration())
		again, err := c.waiter.WaitForButton(ctx, c.window, buttons.Set)
		if err != nil {
			return Result{}, err
		}
		if !again {
			return Result{Outcome: Locked, Value: value}, nil
		}

		debug.Live("Refocus requested, retrying")
		if err := c.camera.ReleaseHalfPress(); err != nil {
			debug.Error(err)
		}
		if err := c.camera.LockFocus(false); err != nil {
			debug.Error(err)
		}
	}
}

// attempt runs up to maxAttempts half-press/settle/check cycles. On
// acquisition the focus is locked and the half-press released.
func (c *Controller) attempt(ctx context.Context) (bool, int, error) {
	for try := 1; try <= maxAttempts; try++ {
		debug.Verbose("focus: attempt %d/%d", try, maxAttempts)
		if err := c.camera.HalfPress(); err != nil {
			debug.Error(err)
		}
		if err := c.waiter.Sleep(ctx, c.settle); err != nil {
			return false, 0, err
		}

		state, err := c.camera.FocusState()
		if err != nil {
			debug.Error(err)
			state = 0
		}
		if state > 0 {
			if err := c.camera.LockFocus(true); err != nil {
				debug.Error(err)
			}
			value := c.camera.FocusValue()
			if err := c.camera.ReleaseHalfPress(); err != nil {
				debug.Error(err)
			}
			return true, value, nil
		}

		if err := c.camera.ReleaseHalfPress(); err != nil {
			debug.Error(err)
		}
		if try < maxAttempts {
			if err := c.waiter.Sleep(ctx, c.backoff); err != nil {
				return false, 0, err
			}
		}
	}
	return false, 0, nil
}
