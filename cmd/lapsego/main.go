package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/cjeanneret/LapseGo/internal/config"
	"github.com/cjeanneret/LapseGo/internal/debug"
	"github.com/cjeanneret/LapseGo/internal/hw/backlight"
	"github.com/cjeanneret/LapseGo/internal/hw/buttons"
	"github.com/cjeanneret/LapseGo/internal/hw/camera"
	"github.com/cjeanneret/LapseGo/internal/hw/clock"
	"github.com/cjeanneret/LapseGo/internal/hw/gpio"
	"github.com/cjeanneret/LapseGo/internal/hw/storage"
	"github.com/cjeanneret/LapseGo/internal/logic/display"
	"github.com/cjeanneret/LapseGo/internal/logic/focus"
	"github.com/cjeanneret/LapseGo/internal/logic/schedule"
	"github.com/cjeanneret/LapseGo/internal/logic/shoot"
	"github.com/cjeanneret/LapseGo/internal/logic/waiter"
	"github.com/cjeanneret/LapseGo/internal/web"
)

func main() {
	// CLI flags
	webPort := &webPortFlag{defaultPort: 8080}
	flag.Var(webPort, "web", "start web server on port; -web= for default 8080, -web 8980 for custom port")
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	secondsPerFrame := flag.Int("seconds_per_frame", 0, "override seconds between frames")
	hours := flag.Int("hours", 0, "override run duration, hours part")
	minutes := flag.Int("minutes", 0, "override run duration, minutes part")
	endless := flag.Bool("endless", false, "override endless mode")
	focusAtStart := flag.Bool("focus_at_start", false, "override pre-focus at start")
	displayOff := flag.Int("display_off_after_frame", 0, "override display auto-off frame (0 = never)")
	flag.Parse()

	// Only flags the user actually set become overrides; everything else
	// keeps its config value.
	overrides := web.Overrides{}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seconds_per_frame":
			overrides.SecondsPerFrame = secondsPerFrame
		case "hours":
			overrides.Hours = hours
		case "minutes":
			overrides.Minutes = minutes
		case "endless":
			overrides.Endless = endless
		case "focus_at_start":
			overrides.FocusAtStart = focusAtStart
		case "display_off_after_frame":
			overrides.DisplayOffAfterFrame = displayOff
		}
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	if err := web.ValidateOverrides(overrides); err != nil {
		log.Fatalf("invalid CLI override: %v", err)
	}
	applyOverrides(cfg, overrides)

	// Initialize debug system
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)

	// Initialize GPIO driver
	debug.Value("Mock GPIO", cfg.Defaults.MockGPIO)
	debug.Step(1, "Initializing GPIO driver")
	gpioDriver, err := gpio.NewDriver(cfg.Defaults.MockGPIO)
	if err != nil {
		log.Fatalf("init GPIO failed: %v", err)
	}
	defer func() {
		if err := gpioDriver.Close(); err != nil {
			log.Printf("closing GPIO driver failed: %v", err)
		}
	}()

	// Initialize camera
	debug.Step(2, "Initializing camera")
	cam, err := newCameraFromConfig(gpioDriver, cfg)
	if err != nil {
		log.Fatalf("init camera failed: %v", err)
	}
	debug.Value("Camera type", cfg.Camera.Type)
	debug.Value("Focus pin", cfg.Camera.FocusPin)
	debug.Value("Shutter pin", cfg.Camera.ShutterPin)

	// Initialize buttons, display power and storage meter
	debug.Step(3, "Initializing buttons and peripherals")
	btnSource := buttons.NewGPIOSource(gpioDriver, buttons.PinMap{
		Menu:    cfg.Buttons.MenuPin,
		Display: cfg.Buttons.DisplayPin,
		Set:     cfg.Buttons.SetPin,
	}, cfg.ButtonPoll())

	var power backlight.Power = backlight.Noop{}
	if cfg.Display.PowerPin > 0 {
		power = backlight.NewGPIOPower(gpioDriver, cfg.Display.PowerPin)
	}

	var meter storage.Meter = storage.Unlimited{}
	if cfg.Storage.Path != "" {
		meter = storage.NewDiskMeter(cfg.Storage.Path, cfg.Storage.BytesPerShot)
	}

	// Build runTimelapse closure over hardware and base config
	runTimelapse := func(ctx context.Context, overrides web.Overrides) error {
		return executeTimelapse(ctx, cfg, cam, btnSource, power, meter, overrides)
	}

	if port := webPort.port(); port > 0 {
		webAddr := fmt.Sprintf(":%d", port)
		broadcaster := web.NewStatusBroadcaster()
		debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))

		formDefaults := web.FormConfig{
			SecondsPerFrame:      cfg.Schedule.SecondsPerFrame,
			Hours:                cfg.Schedule.Hours,
			Minutes:              cfg.Schedule.Minutes,
			Endless:              cfg.Endless(),
			FocusAtStart:         cfg.Focus.AtStart,
			DisplayOffAfterFrame: cfg.DisplayOffAfterFrame(),
		}
		srv := web.NewServer(webAddr, broadcaster, runTimelapse, formDefaults)
		if err := srv.Run(ctx); err != nil {
			log.Fatalf("web server: %v", err)
		}
		return
	}

	{
		// Run once with current config (already has CLI overrides applied)
		if err := runTimelapse(ctx, web.Overrides{}); err != nil {
			log.Fatalf("timelapse failed: %v", err)
		}
	}
}

// executeTimelapse runs one full timelapse with the given config and
// overrides: pre-focus pass (if requested), then the shoot loop.
func executeTimelapse(
	ctx context.Context,
	baseCfg *config.Config,
	cam camera.Camera,
	btnSource buttons.Source,
	power backlight.Power,
	meter storage.Meter,
	overrides web.Overrides,
) error {
	cfg := applyOverridesToCopy(baseCfg, overrides)

	debug.Step(4, "Planning schedule")
	params := schedule.Plan(cfg.Schedule.SecondsPerFrame, cfg.Schedule.Hours, cfg.Schedule.Minutes)
	debug.Summary("Run Plan")
	debug.Schedule(int64(params.Interval), params.TotalFrames, cfg.Endless())
	debug.Value("Seconds per frame", cfg.Schedule.SecondsPerFrame)
	debug.Value("Endless", cfg.Endless())
	debug.Value("Focus at start", cfg.Focus.AtStart)
	debug.Value("Display off after frame", cfg.DisplayOffAfterFrame())

	clk := clock.NewMonotonic()
	w := waiter.New(clk, btnSource)

	if cfg.Focus.AtStart {
		fc := focus.NewController(cam, w,
			clock.FromDuration(cfg.SettleDelay()),
			clock.FromDuration(cfg.BackoffDelay()),
			clock.FromDuration(cfg.RefocusWindow()))
		res, err := fc.Run(ctx)
		if err != nil {
			return err
		}
		debug.Info("Pre-focus result: %s", res.Outcome)
	}

	debug.Section("Starting Shoot Loop")
	loop := &shoot.Loop{
		Clock:   clk,
		Waiter:  w,
		Camera:  cam,
		Display: display.NewController(power, cfg.DisplayOffAfterFrame()),
		Storage: meter,
	}
	res, err := loop.Run(ctx, params, cfg.Endless())
	if err != nil {
		return err
	}

	debug.Summary(debug.Fmt("Run %s after %d frames", res.Reason, res.FramesShot))
	return nil
}

// applyOverrides mutates cfg with overrides, then re-sanitizes.
func applyOverrides(cfg *config.Config, overrides web.Overrides) {
	if overrides.SecondsPerFrame != nil {
		cfg.Schedule.SecondsPerFrame = *overrides.SecondsPerFrame
	}
	if overrides.Hours != nil {
		cfg.Schedule.Hours = *overrides.Hours
	}
	if overrides.Minutes != nil {
		cfg.Schedule.Minutes = *overrides.Minutes
	}
	if overrides.Endless != nil {
		v := *overrides.Endless
		cfg.Schedule.Endless = &v
	}
	if overrides.FocusAtStart != nil {
		cfg.Focus.AtStart = *overrides.FocusAtStart
	}
	if overrides.DisplayOffAfterFrame != nil {
		v := *overrides.DisplayOffAfterFrame
		cfg.Display.OffAfterFrame = &v
	}
	cfg.Sanitize()
}

// applyOverridesToCopy returns a new config with overrides applied.
// Nil fields in overrides mean "use base config".
func applyOverridesToCopy(baseCfg *config.Config, overrides web.Overrides) *config.Config {
	cfg := *baseCfg
	applyOverrides(&cfg, overrides)
	return &cfg
}

// webPortFlag implements flag.Value for -web: 0 = disabled, -web= or -web 8080 → 8080, -web 8980 → 8980.
type webPortFlag struct {
	val         int
	defaultPort int
}

func (w *webPortFlag) String() string {
	if w.val == 0 {
		return "0"
	}
	return strconv.Itoa(w.val)
}

func (w *webPortFlag) Set(s string) error {
	if s == "" {
		w.val = w.defaultPort
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	w.val = v
	return nil
}

func (w *webPortFlag) port() int { return w.val }

// newCameraFromConfig selects a camera implementation based on configuration.
func newCameraFromConfig(g gpio.Driver, cfg *config.Config) (camera.Camera, error) {
	switch cfg.Camera.Type {
	case "gpio_remote":
		return camera.NewGPIORemote(
			g,
			cfg.Camera.FocusPin,
			cfg.Camera.ShutterPin,
			cfg.Camera.AFConfirmPin,
			cfg.FocusDelay(),
			cfg.ShutterHold(),
		), nil
	default:
		return nil, fmt.Errorf("unsupported camera type: %s", cfg.Camera.Type)
	}
}
