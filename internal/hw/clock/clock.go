package clock

import "time"

// Tick is a monotonic time value in milliseconds from an arbitrary origin.
// All scheduling math in the shoot loop is done on Ticks, never on wall
// time, so clock adjustments cannot shift the frame schedule.
type Tick int64

// Duration converts a tick count to a time.Duration.
func (t Tick) Duration() time.Duration {
	return time.Duration(t) * time.Millisecond
}

// FromDuration converts a duration to ticks (millisecond floor).
func FromDuration(d time.Duration) Tick {
	return Tick(d.Milliseconds())
}

// Clock provides the current tick count.
type Clock interface {
	Now() Tick
}

// Monotonic is the real Clock, counting milliseconds since its creation.
// time.Since reads the runtime monotonic clock, so the count never jumps
// on NTP or manual wall-clock changes.
type Monotonic struct {
	start time.Time
}

// NewMonotonic creates a clock with its origin at the call time.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

func (m *Monotonic) Now() Tick {
	return Tick(time.Since(m.start).Milliseconds())
}
