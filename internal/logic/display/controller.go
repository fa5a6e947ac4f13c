package display

import (
	"github.com/cjeanneret/LapseGo/internal/debug"
	"github.com/cjeanneret/LapseGo/internal/hw/backlight"
)

// Controller is the ON/OFF display power state machine. The automatic
// "turn off after frame N" policy degrades to manual permanently: the
// first transition of any kind (user toggle or the policy itself) clears
// autoOff, so the policy fires at most once per run and never re-engages.
//
// Owned by the shoot loop; no locking needed.
type Controller struct {
	power         backlight.Power
	on            bool
	autoOff       bool
	offAfterFrame int
}

// NewController creates a controller with the display ON. The auto-off
// policy is armed only when offAfterFrame > 0.
func NewController(p backlight.Power, offAfterFrame int) *Controller {
	return &Controller{
		power:         p,
		on:            true,
		autoOff:       offAfterFrame > 0,
		offAfterFrame: offAfterFrame,
	}
}

// On reports the current display status.
func (c *Controller) On() bool {
	return c.on
}

// AutoOffEnabled reports whether the automatic policy is still armed.
func (c *Controller) AutoOffEnabled() bool {
	return c.autoOff
}

// TurnOn powers the display on. Like every transition, it disarms the
// automatic policy.
func (c *Controller) TurnOn() {
	c.transition(true)
}

// TurnOff powers the display off and disarms the automatic policy.
func (c *Controller) TurnOff() {
	c.transition(false)
}

// Toggle flips the current status and disarms the automatic policy.
func (c *Controller) Toggle() {
	c.transition(!c.on)
}

// ApplyAutoOff runs the automatic policy check for the given frame:
// while armed and frame > threshold, the display is turned off (which
// disarms the policy).
func (c *Controller) ApplyAutoOff(frame int) {
	if c.autoOff && frame > c.offAfterFrame {
		debug.Verbose("display: auto-off at frame %d (threshold %d)", frame, c.offAfterFrame)
		c.TurnOff()
	}
}

func (c *Controller) transition(on bool) {
	c.autoOff = false
	c.on = on
	debug.Verbose("display: power %v", on)
	if err := c.power.Set(on); err != nil {
		debug.Error(err)
	}
}
