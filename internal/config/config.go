package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ScheduleConfig holds the shooting schedule inputs.
// Zero seconds_per_frame means "unset" and takes the default; out-of-range
// values are silently clamped by Sanitize, never rejected.
type ScheduleConfig struct {
	SecondsPerFrame int   `yaml:"seconds_per_frame"` // default 3, min 1
	Hours           int   `yaml:"hours"`             // default 0, min 0
	Minutes         int   `yaml:"minutes"`           // default 0, min 1 after sanitization
	Endless         *bool `yaml:"endless,omitempty"` // default true
}

// FocusConfig controls the pre-focus pass run before shooting starts.
type FocusConfig struct {
	AtStart         bool `yaml:"at_start"`          // attempt a focus lock before the run
	SettleMs        int  `yaml:"settle_ms"`         // autofocus settle time per attempt
	BackoffMs       int  `yaml:"backoff_ms"`        // delay between failed attempts
	RefocusWindowMs int  `yaml:"refocus_window_ms"` // window for the user to request a refocus
}

// DisplayConfig controls LCD power management.
type DisplayConfig struct {
	OffAfterFrame *int `yaml:"off_after_frame,omitempty"` // default 3, 0 = never
	PowerPin      int  `yaml:"power_pin"`                 // GPIO pin for backlight/relay, 0 = not wired
}

// CameraConfig describes how to communicate with the camera.
// Type selects a concrete implementation (e.g., "gpio_remote").
type CameraConfig struct {
	Type          string `yaml:"type"`            // e.g., "gpio_remote"
	FocusPin      int    `yaml:"focus_pin"`       // GPIO pin for FOCUS line
	ShutterPin    int    `yaml:"shutter_pin"`     // GPIO pin for SHUTTER line
	AFConfirmPin  int    `yaml:"af_confirm_pin"`  // optional AF-confirm input, 0 = not wired
	FocusDelayMs  int    `yaml:"focus_delay_ms"`  // autofocus delay for unlocked triggers (ms)
	ShutterHoldMs int    `yaml:"shutter_hold_ms"` // shutter hold time (ms)
	// Note: GND is physically connected to Raspberry Pi ground
}

// ButtonsConfig maps control buttons to GPIO pins (pulled-up, active LOW).
type ButtonsConfig struct {
	PollMs     int `yaml:"poll_ms"`     // button poll interval, bounds wake latency
	MenuPin    int `yaml:"menu_pin"`    // ends the run
	DisplayPin int `yaml:"display_pin"` // toggles LCD power
	SetPin     int `yaml:"set_pin"`     // requests a refocus
}

// StorageConfig locates the photo storage to meter.
type StorageConfig struct {
	Path         string `yaml:"path"`           // directory on the photo filesystem; "" = no metering
	BytesPerShot int64  `yaml:"bytes_per_shot"` // estimated size of one exposure
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int  `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	MockGPIO   bool `yaml:"mock_gpio"`   // use mock GPIO (true=dev/test, false=real Raspberry Pi)
}

// Config aggregates all application configuration.
type Config struct {
	Schedule ScheduleConfig `yaml:"schedule"`
	Focus    FocusConfig    `yaml:"focus"`
	Display  DisplayConfig  `yaml:"display"`
	Camera   CameraConfig   `yaml:"camera"`
	Buttons  ButtonsConfig  `yaml:"buttons"`
	Storage  StorageConfig  `yaml:"storage"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	// Basic validation
	if cfg.Camera.Type == "" {
		return nil, fmt.Errorf("camera.type is required")
	}
	if cfg.Camera.Type == "gpio_remote" {
		if cfg.Camera.FocusPin <= 0 || cfg.Camera.ShutterPin <= 0 {
			return nil, fmt.Errorf("camera.focus_pin and camera.shutter_pin are required for gpio_remote")
		}
	}
	if cfg.Defaults.DebugLevel < 0 || cfg.Defaults.DebugLevel > 4 {
		return nil, fmt.Errorf("debug_level must be between 0 and 4, got %d", cfg.Defaults.DebugLevel)
	}

	// Default values for delays
	if cfg.Camera.FocusDelayMs <= 0 {
		cfg.Camera.FocusDelayMs = 500 // 500ms for autofocus
	}
	if cfg.Camera.ShutterHoldMs <= 0 {
		cfg.Camera.ShutterHoldMs = 200 // 200ms shutter hold
	}
	if cfg.Focus.SettleMs <= 0 {
		cfg.Focus.SettleMs = 800
	}
	if cfg.Focus.BackoffMs <= 0 {
		cfg.Focus.BackoffMs = 300
	}
	if cfg.Focus.RefocusWindowMs <= 0 {
		cfg.Focus.RefocusWindowMs = 5000
	}
	if cfg.Buttons.PollMs <= 0 {
		cfg.Buttons.PollMs = 50
	}

	cfg.Sanitize()

	return &cfg, nil
}

// Sanitize applies the silent schedule corrections: out-of-range inputs
// are clamped to the nearest valid value, never reported. Called by Load
// and again after CLI/web overrides are applied.
func (c *Config) Sanitize() {
	if c.Schedule.SecondsPerFrame == 0 {
		c.Schedule.SecondsPerFrame = 3
	}
	if c.Schedule.SecondsPerFrame < 1 {
		c.Schedule.SecondsPerFrame = 1
	}
	if c.Schedule.Hours < 0 {
		c.Schedule.Hours = 0
	}
	if c.Schedule.Minutes < 1 {
		c.Schedule.Minutes = 1
	}
	if c.Display.OffAfterFrame != nil && *c.Display.OffAfterFrame < 0 {
		off := 0
		c.Display.OffAfterFrame = &off
	}
}

// Endless reports whether the run has no frame limit (default true).
func (c *Config) Endless() bool {
	if c.Schedule.Endless == nil {
		return true
	}
	return *c.Schedule.Endless
}

// DisplayOffAfterFrame returns the auto-off frame threshold
// (default 3, 0 = disabled).
func (c *Config) DisplayOffAfterFrame() int {
	if c.Display.OffAfterFrame == nil {
		return 3
	}
	return *c.Display.OffAfterFrame
}

// FocusDelay returns the autofocus delay for unlocked triggers.
func (c *Config) FocusDelay() time.Duration {
	return time.Duration(c.Camera.FocusDelayMs) * time.Millisecond
}

// ShutterHold returns the shutter hold duration.
func (c *Config) ShutterHold() time.Duration {
	return time.Duration(c.Camera.ShutterHoldMs) * time.Millisecond
}

// SettleDelay returns the per-attempt autofocus settle duration.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Focus.SettleMs) * time.Millisecond
}

// BackoffDelay returns the delay between failed focus attempts.
func (c *Config) BackoffDelay() time.Duration {
	return time.Duration(c.Focus.BackoffMs) * time.Millisecond
}

// RefocusWindow returns the post-lock window for a refocus request.
func (c *Config) RefocusWindow() time.Duration {
	return time.Duration(c.Focus.RefocusWindowMs) * time.Millisecond
}

// ButtonPoll returns the button poll interval.
func (c *Config) ButtonPoll() time.Duration {
	return time.Duration(c.Buttons.PollMs) * time.Millisecond
}
