package shoot

import (
	"context"
	"fmt"

	"github.com/cjeanneret/LapseGo/internal/debug"
	"github.com/cjeanneret/LapseGo/internal/hw/buttons"
	"github.com/cjeanneret/LapseGo/internal/hw/camera"
	"github.com/cjeanneret/LapseGo/internal/hw/clock"
	"github.com/cjeanneret/LapseGo/internal/hw/storage"
	"github.com/cjeanneret/LapseGo/internal/logic/display"
	"github.com/cjeanneret/LapseGo/internal/logic/schedule"
	"github.com/cjeanneret/LapseGo/internal/logic/waiter"
)

// reserveShots is the capacity held back for the frame about to be taken:
// the run stops while there is still room for it.
const reserveShots = 1

// Reason classifies how a run ended. All three paths go through the same
// cleanup (focus unlocked, display forced on).
type Reason int

const (
	Completed Reason = iota
	UserQuit
	StorageFull
)

func (r Reason) String() string {
	switch r {
	case Completed:
		return "completed"
	case UserQuit:
		return "user quit"
	case StorageFull:
		return "storage full"
	default:
		return "unknown"
	}
}

// Result summarizes a finished run.
type Result struct {
	Reason     Reason
	FramesShot int
}

// Loop is the orchestrator: it derives nothing itself, it just drives the
// planner output, the display policy, the camera and the waiter on a
// single thread of control.
type Loop struct {
	Clock   clock.Clock
	Waiter  *waiter.Waiter
	Camera  camera.Camera
	Display *display.Controller
	Storage storage.Meter
}

// Run executes the shoot loop until the frame budget is exhausted
// (non-endless), the menu button ends it, storage runs out, or ctx is
// cancelled. Wake-up times are absolute (start + frame*interval) so late
// wakes never accumulate into schedule drift.
func (l *Loop) Run(ctx context.Context, params schedule.Params, endless bool) (Result, error) {
	res := Result{}

	// Exactly-once cleanup, regardless of the exit path.
	defer func() {
		debug.Verbose("cleanup: unlocking focus, forcing display on")
		if err := l.Camera.LockFocus(false); err != nil {
			debug.Error(err)
		}
		l.Display.TurnOn()
	}()

	frame := 1
	start := l.Clock.Now()
	debug.Verbose("run: start tick %d", start)

	for endless || frame <= params.TotalFrames {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		remaining, err := l.Storage.RemainingShots()
		if err != nil {
			// A metering glitch should not kill a running timelapse.
			debug.Error(err)
			remaining = -1
		} else {
			remaining -= reserveShots
			if remaining < 0 {
				debug.Live("Storage full, stopping after %d frames", res.FramesShot)
				res.Reason = StorageFull
				return res, nil
			}
		}

		l.reportStatus(frame, params, endless, remaining, start)
		l.Display.ApplyAutoOff(frame)

		if err := l.Camera.Trigger(); err != nil {
			debug.Error(err)
		}
		debug.Shot(frame)
		res.FramesShot = frame

		// No wait after the final frame.
		if !endless && frame == params.TotalFrames {
			break
		}

		target := start + clock.Tick(frame)*params.Interval
		for {
			b, err := l.Waiter.WaitUntil(ctx, target)
			if err != nil {
				return res, err
			}
			if b == buttons.NoKey {
				break
			}
			if b == buttons.Menu {
				debug.Live("Run ended by user after %d frames", res.FramesShot)
				res.Reason = UserQuit
				return res, nil
			}
			if b == buttons.Display {
				l.Display.Toggle()
			}
			// any other button: re-arm and keep waiting
		}

		frame++
	}

	res.Reason = Completed
	return res, nil
}

// reportStatus emits the per-frame status line: frame index, remaining
// frames and time (or elapsed time in endless mode), and free capacity.
func (l *Loop) reportStatus(frame int, p schedule.Params, endless bool, remainingShots int, start clock.Tick) {
	shots := "capacity unknown"
	if remainingShots >= 0 {
		shots = fmt.Sprintf("%d shots free", remainingShots)
	}
	if endless {
		elapsed := l.Clock.Now() - start
		debug.Status(fmt.Sprintf("Frame %d, elapsed %s, %s",
			frame, schedule.FormatHMS(elapsed), shots))
		return
	}
	debug.Status(fmt.Sprintf("Frame %d/%d, %d left, %s remaining, %s",
		frame, p.TotalFrames, p.TotalFrames-frame,
		schedule.FormatHMS(p.Remaining(frame)), shots))
}
