package display

import (
	"testing"
)

// recordingPower records every hardware power transition.
type recordingPower struct {
	states []bool
}

func (p *recordingPower) Set(on bool) error {
	p.states = append(p.states, on)
	return nil
}

func TestNewController_InitialState(t *testing.T) {
	p := &recordingPower{}
	c := NewController(p, 3)

	if !c.On() {
		t.Error("display should start ON")
	}
	if !c.AutoOffEnabled() {
		t.Error("auto-off should be armed when threshold > 0")
	}
	if len(p.states) != 0 {
		t.Errorf("construction should not drive hardware, got %v", p.states)
	}
}

func TestNewController_ZeroThresholdDisarmsPolicy(t *testing.T) {
	c := NewController(&recordingPower{}, 0)
	if c.AutoOffEnabled() {
		t.Error("auto-off should be disarmed when threshold is 0")
	}
}

func TestToggle_TwiceReturnsToOriginalStatus(t *testing.T) {
	p := &recordingPower{}
	c := NewController(p, 3)

	c.Toggle()
	if c.On() {
		t.Error("first toggle should turn display OFF")
	}
	if c.AutoOffEnabled() {
		t.Error("auto-off must be disarmed after the first toggle")
	}

	c.Toggle()
	if !c.On() {
		t.Error("second toggle should return display to ON")
	}
	if c.AutoOffEnabled() {
		t.Error("auto-off must stay disarmed")
	}

	want := []bool{false, true}
	if len(p.states) != len(want) || p.states[0] != want[0] || p.states[1] != want[1] {
		t.Errorf("hardware transitions = %v, want %v", p.states, want)
	}
}

func TestTurnOffTurnOn_DisarmPolicy(t *testing.T) {
	c := NewController(&recordingPower{}, 3)

	c.TurnOff()
	if c.On() || c.AutoOffEnabled() {
		t.Errorf("after TurnOff: on=%v autoOff=%v, want false/false", c.On(), c.AutoOffEnabled())
	}

	c2 := NewController(&recordingPower{}, 3)
	c2.TurnOn()
	if !c2.On() || c2.AutoOffEnabled() {
		t.Errorf("after TurnOn: on=%v autoOff=%v, want true/false", c2.On(), c2.AutoOffEnabled())
	}
}

func TestApplyAutoOff_FiresOncePastThreshold(t *testing.T) {
	p := &recordingPower{}
	c := NewController(p, 2)

	c.ApplyAutoOff(1)
	c.ApplyAutoOff(2)
	if !c.On() {
		t.Fatal("display should still be ON at the threshold frame")
	}

	c.ApplyAutoOff(3)
	if c.On() {
		t.Error("display should be OFF past the threshold")
	}
	if c.AutoOffEnabled() {
		t.Error("the automatic transition itself must disarm the policy")
	}
	if len(p.states) != 1 || p.states[0] != false {
		t.Errorf("hardware transitions = %v, want [false]", p.states)
	}
}

func TestApplyAutoOff_NeverReengagesAfterDisarm(t *testing.T) {
	p := &recordingPower{}
	c := NewController(p, 2)

	c.ApplyAutoOff(3) // fires, disarms
	c.TurnOn()        // user puts the display back on

	// No amount of further frame advances may turn it off again.
	for frame := 4; frame <= 100; frame++ {
		c.ApplyAutoOff(frame)
	}
	if !c.On() {
		t.Error("auto-off re-engaged after being disarmed")
	}
}

func TestManualToggleBeforeThreshold_SuppressesPolicy(t *testing.T) {
	p := &recordingPower{}
	c := NewController(p, 5)

	c.Toggle() // user turns display off at frame 1
	c.Toggle() // and back on

	for frame := 1; frame <= 20; frame++ {
		c.ApplyAutoOff(frame)
	}
	if !c.On() {
		t.Error("policy fired after a manual toggle disarmed it")
	}
}
