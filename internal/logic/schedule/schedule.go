package schedule

import (
	"fmt"

	"github.com/cjeanneret/LapseGo/internal/hw/clock"
)

// Params are the derived schedule parameters, computed once per run and
// immutable afterwards. TotalFrames is meaningless in endless mode.
type Params struct {
	Interval    clock.Tick // ticks between two frames
	TotalFrames int
}

// Plan converts sanitized schedule inputs (seconds per frame >= 1,
// hours >= 0, minutes >= 1) into derived parameters.
//
// The frame count uses integer floor over the time budget minus one
// second, plus one: a 60s budget at 3s/frame yields 20 frames, the frame
// at t=0 included. Pure; no error conditions on sanitized input.
func Plan(secondsPerFrame, hours, minutes int) Params {
	interval := clock.Tick(secondsPerFrame) * 1000
	total := (hours*3600+minutes*60-1)/secondsPerFrame + 1
	return Params{
		Interval:    interval,
		TotalFrames: total,
	}
}

// Remaining returns the estimated time left after the given frame.
func (p Params) Remaining(frame int) clock.Tick {
	left := p.TotalFrames - frame
	if left < 0 {
		left = 0
	}
	return clock.Tick(left) * p.Interval
}

// TicksToHMS splits a tick count into whole hours, minutes and seconds
// (integer floor, sub-second remainder dropped).
func TicksToHMS(t clock.Tick) (h, m, s int) {
	if t < 0 {
		t = 0
	}
	total := int(t / 1000)
	h = total / 3600
	m = (total % 3600) / 60
	s = total % 60
	return h, m, s
}

// FormatHMS renders ticks as "H:MM:SS" for status lines.
func FormatHMS(t clock.Tick) string {
	h, m, s := TicksToHMS(t)
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
