package backlight

import (
	"github.com/cjeanneret/LapseGo/internal/debug"
	"github.com/cjeanneret/LapseGo/internal/hw/gpio"
)

// Power is the hardware port for LCD/backlight power.
type Power interface {
	Set(on bool) error
}

// GPIOPower drives a backlight enable line or relay (active HIGH).
type GPIOPower struct {
	gpio gpio.Driver
	pin  int
}

// NewGPIOPower configures the power pin as an output, initially HIGH
// (display on).
func NewGPIOPower(g gpio.Driver, pin int) *GPIOPower {
	_ = g.SetupPin(pin, gpio.Output)
	_ = g.WritePin(pin, gpio.High)
	return &GPIOPower{gpio: g, pin: pin}
}

func (p *GPIOPower) Set(on bool) error {
	debug.Verbose("Display: power %v (pin %d)", on, p.pin)
	lvl := gpio.Low
	if on {
		lvl = gpio.High
	}
	return p.gpio.WritePin(p.pin, lvl)
}

// Noop is used when no display power line is wired; state transitions
// still happen in the controller, they just drive no hardware.
type Noop struct{}

func (Noop) Set(on bool) error { return nil }
