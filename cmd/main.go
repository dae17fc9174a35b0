// kbmouse - keyboard-driven pointer control
// Grabs the keyboard and turns held keys into pointer motion, scrolling and clicks.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"kbmouse/internal/autostart"
	"kbmouse/internal/binding"
	"kbmouse/internal/config"
	"kbmouse/internal/hotkey"
	"kbmouse/internal/input"
	"kbmouse/internal/logging"
	"kbmouse/internal/motion"
	"kbmouse/internal/osutils"
)

var (
	version     = "0.1.0"
	configPath  = flag.String("config", "", "Path to the configuration file")
	backendName = flag.String("backend", "", "Input backend ("+strings.Join(input.Available(), " or ")+"), overrides the config")
	debug       = flag.Bool("debug", false, "Log speed, physics, scroll and click changes")
	showVer     = flag.Bool("version", false, "Show version")
	initConfig  = flag.Bool("init-config", false, "Write the default configuration and exit")
	listDevs    = flag.Bool("list-devices", false, "List keyboard devices usable by the evdev backend")
	autostartOp = flag.String("autostart", "", "Manage login autostart: enable, disable or status")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("kbmouse version %s\n", version)
		return
	}

	cfgMgr, err := newConfigManager()
	if err != nil {
		fatal("Failed to initialize config", err)
	}

	if *initConfig {
		writeDefaultConfig(cfgMgr)
		return
	}

	if *listDevs {
		listDevices()
		return
	}

	if *autostartOp != "" {
		handleAutostart(*autostartOp)
		return
	}

	if err := cfgMgr.Load(); err != nil {
		fatal("Failed to load config", err)
	}

	// Default: run as the foreground service
	os.Exit(runService(cfgMgr))
}

func newConfigManager() (*config.Manager, error) {
	if *configPath != "" {
		return config.NewManagerAt(*configPath), nil
	}
	return config.NewManager()
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func writeDefaultConfig(cfgMgr *config.Manager) {
	if _, err := os.Stat(cfgMgr.Path()); err == nil {
		fmt.Fprintf(os.Stderr, "%s already exists, not overwriting\n", cfgMgr.Path())
		os.Exit(1)
	}
	if err := cfgMgr.Save(); err != nil {
		fatal("Failed to write config", err)
	}
	fmt.Printf("Wrote default configuration to %s\n", cfgMgr.Path())
}

func listDevices() {
	devices, err := input.ListKeyboards()
	if err != nil {
		fatal("Failed to list keyboards", err)
	}

	fmt.Println("Keyboard devices:")
	fmt.Println("-----------------")
	for _, dev := range devices {
		fmt.Printf("%s\n", dev.Path)
		fmt.Printf("  Name: %s\n", dev.Name)
	}
	if len(devices) == 0 {
		fmt.Println("(none found; reading /dev/input usually needs root or the input group)")
	}
}

func handleAutostart(op string) {
	var err error
	switch op {
	case "enable":
		var args []string
		if *configPath != "" {
			args = append(args, "-config", *configPath)
		}
		if *backendName != "" {
			args = append(args, "-backend", *backendName)
		}
		err = autostart.Enable(args...)
	case "disable":
		err = autostart.Disable()
	case "status":
	default:
		fmt.Fprintf(os.Stderr, "unknown autostart operation %q (want enable, disable or status)\n", op)
		os.Exit(2)
	}
	if err != nil {
		fatal("Autostart "+op+" failed", err)
	}

	if autostart.IsEnabled() {
		fmt.Println("Autostart: enabled")
	} else {
		fmt.Println("Autostart: disabled")
	}
}

func setupLogging(cfg *config.Config) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if *debug {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{Level: level, Format: cfg.Logging.Format})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// runService grabs the keyboard and runs until a quit binding fires or the
// process is signalled. It returns the exit status.
func runService(cfgMgr *config.Manager) int {
	cfg := cfgMgr.Get()
	logger, err := setupLogging(cfg)
	if err != nil {
		slog.Error("Invalid logging settings", "error", err)
		return 1
	}

	table, err := cfg.Table()
	if err != nil {
		logger.Error("Invalid bindings", "error", err)
		return 1
	}
	modifiers, err := cfg.ModifierKeys()
	if err != nil {
		logger.Error("Invalid modifiers", "error", err)
		return 1
	}

	name := cfg.General.Backend
	if *backendName != "" {
		name = *backendName
	}

	state := motion.NewState(cfg.Params())
	passthrough := make(map[binding.Key]bool, len(modifiers))
	for _, k := range modifiers {
		passthrough[k] = true
	}

	backend, err := input.Open(name, input.Options{
		Devices:     cfg.General.Devices,
		ReleaseHeld: cfg.General.ReleaseHeldKeys,
		Passthrough: func(k binding.Key) bool { return passthrough[k] },
		Logger:      logger,
	})
	if err != nil {
		logger.Error("Failed to open input backend", "backend", name, "error", err)
		if name == input.BackendEvdev && !osutils.IsAdmin() {
			logger.Error("The evdev backend needs root or membership in the input group")
		}
		return 1
	}
	defer backend.Close()

	dispatcher := hotkey.NewDispatcher(table, modifiers, state, backend, logger)

	if err := backend.Start(); err != nil {
		logger.Error("Failed to grab keyboard", "backend", name, "error", err)
		if errors.Is(err, input.ErrAlreadyGrabbed) {
			logger.Error("Another client holds the keyboard grab")
		}
		return 1
	}

	if x, y, err := backend.PointerPosition(); err != nil {
		logger.Warn("Failed to query pointer position", "error", err)
	} else {
		state.SetPosition(x, y)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)

	integrator := motion.NewIntegrator(state, backend, logger)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		integrator.Run(ctx)
	}()

	logger.Info("kbmouse running", "backend", name, "bindings", len(table), "keys", len(table.Keys()), "tick_rate", cfg.Physics.TickRate)

	status := serve(ctx, backend, dispatcher, logger)

	cancel()
	wg.Wait()
	if err := backend.Stop(); err != nil {
		logger.Warn("Failed to release keyboard", "error", err)
	}
	logger.Info("kbmouse stopped", "status", status)
	return status
}

// serve dispatches key events until a quit binding fires, the input closes or
// ctx is cancelled. No event is dispatched after a quit.
func serve(ctx context.Context, backend input.Backend, dispatcher *hotkey.Dispatcher, logger *slog.Logger) int {
	events := backend.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				logger.Warn("Input closed")
				return 1
			}
			dispatcher.HandleKey(ev)
			if !dispatcher.Running() {
				return dispatcher.ExitCode()
			}
		case <-dispatcher.Done():
			return dispatcher.ExitCode()
		case <-ctx.Done():
			logger.Info("Shutting down...")
			return 0
		}
	}
}
