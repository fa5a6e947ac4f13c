package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalYAML = `
camera:
  type: gpio_remote
  focus_pin: 24
  shutter_pin: 25
`

func TestLoadMinimal(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Camera.Type != "gpio_remote" {
		t.Errorf("camera.type = %q", cfg.Camera.Type)
	}
	if cfg.Schedule.SecondsPerFrame != 3 {
		t.Errorf("seconds_per_frame = %d, want default 3", cfg.Schedule.SecondsPerFrame)
	}
	if cfg.Schedule.Minutes != 1 {
		t.Errorf("minutes = %d, want sanitized 1", cfg.Schedule.Minutes)
	}
	if !cfg.Endless() {
		t.Error("endless should default to true")
	}
	if cfg.DisplayOffAfterFrame() != 3 {
		t.Errorf("off_after_frame = %d, want default 3", cfg.DisplayOffAfterFrame())
	}
}

func TestLoadDelayDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	cases := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"focus delay", cfg.FocusDelay(), 500 * time.Millisecond},
		{"shutter hold", cfg.ShutterHold(), 200 * time.Millisecond},
		{"settle", cfg.SettleDelay(), 800 * time.Millisecond},
		{"backoff", cfg.BackoffDelay(), 300 * time.Millisecond},
		{"refocus window", cfg.RefocusWindow(), 5 * time.Second},
		{"button poll", cfg.ButtonPoll(), 50 * time.Millisecond},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadFull(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
schedule:
  seconds_per_frame: 7
  hours: 2
  minutes: 30
  endless: false
focus:
  at_start: true
  settle_ms: 1000
display:
  off_after_frame: 10
  power_pin: 12
camera:
  type: gpio_remote
  focus_pin: 24
  shutter_pin: 25
  af_confirm_pin: 23
buttons:
  poll_ms: 20
  menu_pin: 5
storage:
  path: /mnt/photos
  bytes_per_shot: 12000000
defaults:
  debug_level: 3
  mock_gpio: true
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Schedule.SecondsPerFrame != 7 || cfg.Schedule.Hours != 2 || cfg.Schedule.Minutes != 30 {
		t.Errorf("schedule = %+v", cfg.Schedule)
	}
	if cfg.Endless() {
		t.Error("endless false in file, accessor returned true")
	}
	if !cfg.Focus.AtStart {
		t.Error("focus.at_start not read")
	}
	if cfg.DisplayOffAfterFrame() != 10 {
		t.Errorf("off_after_frame = %d, want 10", cfg.DisplayOffAfterFrame())
	}
	if cfg.Camera.AFConfirmPin != 23 {
		t.Errorf("af_confirm_pin = %d", cfg.Camera.AFConfirmPin)
	}
	if cfg.ButtonPoll() != 20*time.Millisecond {
		t.Errorf("poll = %v", cfg.ButtonPoll())
	}
	if cfg.Storage.Path != "/mnt/photos" || cfg.Storage.BytesPerShot != 12000000 {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Defaults.DebugLevel != 3 || !cfg.Defaults.MockGPIO {
		t.Errorf("defaults = %+v", cfg.Defaults)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing camera type", `
camera:
  focus_pin: 24
  shutter_pin: 25
`},
		{"gpio_remote without pins", `
camera:
  type: gpio_remote
`},
		{"debug level out of range", minimalYAML + `
defaults:
  debug_level: 7
`},
		{"bad yaml", `camera: [`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, c.yaml)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSanitizeClamps(t *testing.T) {
	neg := -4
	cfg := Config{
		Schedule: ScheduleConfig{SecondsPerFrame: -2, Hours: -1, Minutes: 0},
		Display:  DisplayConfig{OffAfterFrame: &neg},
	}
	cfg.Sanitize()

	if cfg.Schedule.SecondsPerFrame != 1 {
		t.Errorf("seconds_per_frame = %d, want 1", cfg.Schedule.SecondsPerFrame)
	}
	if cfg.Schedule.Hours != 0 {
		t.Errorf("hours = %d, want 0", cfg.Schedule.Hours)
	}
	if cfg.Schedule.Minutes != 1 {
		t.Errorf("minutes = %d, want 1", cfg.Schedule.Minutes)
	}
	if cfg.DisplayOffAfterFrame() != 0 {
		t.Errorf("off_after_frame = %d, want 0", cfg.DisplayOffAfterFrame())
	}
}

func TestSanitizeKeepsValid(t *testing.T) {
	off := 5
	cfg := Config{
		Schedule: ScheduleConfig{SecondsPerFrame: 10, Hours: 1, Minutes: 30},
		Display:  DisplayConfig{OffAfterFrame: &off},
	}
	cfg.Sanitize()

	if cfg.Schedule.SecondsPerFrame != 10 || cfg.Schedule.Hours != 1 || cfg.Schedule.Minutes != 30 {
		t.Errorf("valid schedule was altered: %+v", cfg.Schedule)
	}
	if cfg.DisplayOffAfterFrame() != 5 {
		t.Errorf("off_after_frame = %d, want 5", cfg.DisplayOffAfterFrame())
	}
}

func TestDisplayOffZeroDisables(t *testing.T) {
	// Explicit 0 means never turn off; nil means the default of 3.
	zero := 0
	cfg := Config{Display: DisplayConfig{OffAfterFrame: &zero}}
	if cfg.DisplayOffAfterFrame() != 0 {
		t.Errorf("explicit 0 read back as %d", cfg.DisplayOffAfterFrame())
	}

	cfg.Display.OffAfterFrame = nil
	if cfg.DisplayOffAfterFrame() != 3 {
		t.Errorf("unset read back as %d, want default 3", cfg.DisplayOffAfterFrame())
	}
}
