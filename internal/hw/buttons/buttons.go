package buttons

import (
	"context"
	"time"

	"github.com/cjeanneret/LapseGo/internal/debug"
	"github.com/cjeanneret/LapseGo/internal/hw/gpio"
)

// Button identifies a physical control by role. NoKey is the wake cause
// when a wait elapsed without any press.
type Button string

const (
	NoKey   Button = "no_key"
	Menu    Button = "menu"    // ends the run
	Display Button = "display" // toggles LCD power
	Set     Button = "set"     // requests a refocus during the pre-focus window
)

// Source is the wake-on-button primitive the interruptible waiter is built
// on: block up to max or until any button press, whichever comes first.
// Returns NoKey when the wait elapsed. The only error is ctx cancellation.
type Source interface {
	WaitPress(ctx context.Context, max time.Duration) (Button, error)
}

// PinMap assigns BCM pin numbers to button roles. 0 = button not wired.
type PinMap struct {
	Menu    int
	Display int
	Set     int
}

type pinButton struct {
	name Button
	pin  int
}

// GPIOSource polls pulled-up input pins and reports High->Low edges as
// presses. Latency is bounded by the poll interval, not by the wait
// duration. Not safe for concurrent use; the control loop is the only
// caller.
type GPIOSource struct {
	gpio gpio.Driver
	pins []pinButton
	poll time.Duration
	down map[Button]bool
}

// NewGPIOSource configures the mapped pins as pulled-up inputs.
// poll <= 0 defaults to 50ms.
func NewGPIOSource(g gpio.Driver, pins PinMap, poll time.Duration) *GPIOSource {
	if poll <= 0 {
		poll = 50 * time.Millisecond
	}
	s := &GPIOSource{
		gpio: g,
		poll: poll,
		down: make(map[Button]bool),
	}
	for _, pb := range []pinButton{
		{Menu, pins.Menu},
		{Display, pins.Display},
		{Set, pins.Set},
	} {
		if pb.pin <= 0 {
			continue
		}
		_ = g.SetupPin(pb.pin, gpio.InputPullUp)
		s.pins = append(s.pins, pb)
	}
	return s
}

// WaitPress blocks up to max or until a press edge is observed.
func (s *GPIOSource) WaitPress(ctx context.Context, max time.Duration) (Button, error) {
	// Scan once up front so a press pending at entry is seen even when
	// max is shorter than the poll interval.
	if b, ok := s.scan(); ok {
		debug.Button(string(b))
		return b, nil
	}
	if max < s.poll {
		max = s.poll
	}
	timer := time.NewTimer(max)
	defer timer.Stop()
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return NoKey, ctx.Err()
		case <-timer.C:
			return NoKey, nil
		case <-ticker.C:
			if b, ok := s.scan(); ok {
				debug.Button(string(b))
				return b, nil
			}
		}
	}
}

// scan reads every mapped pin once and reports the first fresh press edge.
// Held buttons do not re-fire until released and pressed again.
func (s *GPIOSource) scan() (Button, bool) {
	for _, pb := range s.pins {
		lvl, err := s.gpio.ReadPin(pb.pin)
		if err != nil {
			debug.Trace("buttons: read pin %d failed: %v", pb.pin, err)
			continue
		}
		pressed := lvl == gpio.Low
		was := s.down[pb.name]
		s.down[pb.name] = pressed
		if pressed && !was {
			return pb.name, true
		}
	}
	return NoKey, false
}
