package camera

import (
	"time"

	"github.com/cjeanneret/LapseGo/internal/debug"
	"github.com/cjeanneret/LapseGo/internal/hw/gpio"
)

// GPIORemote is a Camera implementation for bodies with a 3-wire
// remote-release connector:
// - GND: connected to Raspberry Pi ground
// - FOCUS: half-press / autofocus (activate by setting to LOW)
// - SHUTTER: full press / trigger (activate by setting to LOW)
//
// An optional fourth wire taps the AF-confirm signal as an input
// (LOW = focus acquired). Without it, FocusState assumes focus is
// acquired whenever the FOCUS line is held, relying on the caller's
// settle delay.
type GPIORemote struct {
	gpio         gpio.Driver
	focusPin     int
	shutterPin   int
	afConfirmPin int           // 0 = not wired
	focusDelay   time.Duration // autofocus time before an unlocked trigger
	shutterDelay time.Duration // shutter hold time

	halfPressed bool
	locked      bool
	lastConfirm int
}

// NewGPIORemote creates a GPIO-controlled remote release.
// focusPin and shutterPin are the GPIO pin numbers for the FOCUS and
// SHUTTER lines; afConfirmPin may be 0 when the confirm wire is absent.
func NewGPIORemote(g gpio.Driver, focusPin, shutterPin, afConfirmPin int, focusDelay, shutterDelay time.Duration) *GPIORemote {
	// Configure control lines as outputs, idle HIGH (inactive)
	_ = g.SetupPin(focusPin, gpio.Output)
	_ = g.SetupPin(shutterPin, gpio.Output)
	_ = g.WritePin(focusPin, gpio.High)
	_ = g.WritePin(shutterPin, gpio.High)
	if afConfirmPin > 0 {
		_ = g.SetupPin(afConfirmPin, gpio.InputPullUp)
	}

	return &GPIORemote{
		gpio:         g,
		focusPin:     focusPin,
		shutterPin:   shutterPin,
		afConfirmPin: afConfirmPin,
		focusDelay:   focusDelay,
		shutterDelay: shutterDelay,
	}
}

// Trigger fires one exposure.
// With focus locked or half-pressed: SHUTTER -> hold -> release.
// Otherwise the FOCUS line is engaged first so the body runs autofocus,
// and released again afterwards.
func (r *GPIORemote) Trigger() error {
	held := r.halfPressed || r.locked
	debug.Printf("Camera: triggering shot (focus=%d, shutter=%d, held=%v)", r.focusPin, r.shutterPin, held)

	if !held {
		debug.Verbose("Camera: activating FOCUS (pin %d -> LOW)", r.focusPin)
		if err := r.gpio.WritePin(r.focusPin, gpio.Low); err != nil {
			return err
		}
		debug.Verbose("Camera: waiting for autofocus (%v)", r.focusDelay)
		time.Sleep(r.focusDelay)
	}

	debug.Verbose("Camera: activating SHUTTER (pin %d -> LOW)", r.shutterPin)
	if err := r.gpio.WritePin(r.shutterPin, gpio.Low); err != nil {
		if !held {
			_ = r.gpio.WritePin(r.focusPin, gpio.High)
		}
		return err
	}

	debug.Verbose("Camera: holding shutter (%v)", r.shutterDelay)
	time.Sleep(r.shutterDelay)

	debug.Verbose("Camera: releasing SHUTTER (pin %d -> HIGH)", r.shutterPin)
	if err := r.gpio.WritePin(r.shutterPin, gpio.High); err != nil {
		return err
	}

	if !held {
		debug.Verbose("Camera: releasing FOCUS (pin %d -> HIGH)", r.focusPin)
		if err := r.gpio.WritePin(r.focusPin, gpio.High); err != nil {
			return err
		}
	}

	debug.Print("Camera: shot triggered successfully")
	return nil
}

// HalfPress engages the FOCUS line and holds it LOW.
func (r *GPIORemote) HalfPress() error {
	debug.Verbose("Camera: half-press (pin %d -> LOW)", r.focusPin)
	if err := r.gpio.WritePin(r.focusPin, gpio.Low); err != nil {
		return err
	}
	r.halfPressed = true
	return nil
}

// ReleaseHalfPress releases the FOCUS line unless a lock still holds it.
func (r *GPIORemote) ReleaseHalfPress() error {
	r.halfPressed = false
	if r.locked {
		return nil
	}
	debug.Verbose("Camera: release half-press (pin %d -> HIGH)", r.focusPin)
	return r.gpio.WritePin(r.focusPin, gpio.High)
}

// FocusState reports acquisition. With the confirm wire: LOW = acquired.
// Without it, the line being held is the only signal available; the
// settle delay before calling this is what gives the body time to focus.
func (r *GPIORemote) FocusState() (int, error) {
	if r.afConfirmPin <= 0 {
		if r.halfPressed || r.locked {
			r.lastConfirm = 1
		} else {
			r.lastConfirm = 0
		}
		return r.lastConfirm, nil
	}
	lvl, err := r.gpio.ReadPin(r.afConfirmPin)
	if err != nil {
		return 0, err
	}
	if lvl == gpio.Low {
		r.lastConfirm = 1
	} else {
		r.lastConfirm = 0
	}
	return r.lastConfirm, nil
}

// FocusValue returns the last observed confirm state.
func (r *GPIORemote) FocusValue() int {
	return r.lastConfirm
}

// LockFocus holds the FOCUS line LOW across triggers (true) or releases
// it (false, unless a half-press is still active).
func (r *GPIORemote) LockFocus(enabled bool) error {
	r.locked = enabled
	if enabled {
		debug.Verbose("Camera: locking focus (pin %d held LOW)", r.focusPin)
		return r.gpio.WritePin(r.focusPin, gpio.Low)
	}
	debug.Verbose("Camera: unlocking focus")
	if r.halfPressed {
		return nil
	}
	return r.gpio.WritePin(r.focusPin, gpio.High)
}
