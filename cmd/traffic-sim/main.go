package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/lixenwraith/vi-traffic/audio"
	"github.com/lixenwraith/vi-traffic/blinker"
	"github.com/lixenwraith/vi-traffic/config"
	"github.com/lixenwraith/vi-traffic/logging"
	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/recorder"
	"github.com/lixenwraith/vi-traffic/render"
	"github.com/lixenwraith/vi-traffic/route"
	"github.com/lixenwraith/vi-traffic/traffic"
	"github.com/lixenwraith/vi-traffic/vehicle"
)

func main() {
	fs := pflag.NewFlagSet("traffic-sim", pflag.ExitOnError)
	configPath := fs.StringP("config", "c", "", "TOML config file")
	fs.Bool("headless", false, "run without the terminal viewer")
	fs.Int("steps", parameter.HeadlessSteps, "fixed steps to run when headless")
	fs.Bool("record", false, "record telemetry to sqlite")
	fs.String("record-dsn", parameter.RecorderDSN, "telemetry database path")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("log-file", "", "append JSON logs to this file")
	fs.Bool("audio", false, "play blinker relay clicks")
	fs.String("routes", "", "YAML route file, relative paths resolve against the config file")
	_ = fs.Parse(os.Args[1:])

	os.Exit(run(*configPath, fs))
}

func run(configPath string, fs *pflag.FlagSet) int {
	cfg, err := config.Load(configPath, fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	// The viewer owns the terminal, console logs only when headless
	logOpts := logging.Options{Level: cfg.Log.Level, File: cfg.Log.File}
	if cfg.Sim.Headless {
		logOpts.Console = os.Stderr
	}
	sink, err := logging.Open(logOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		return 1
	}
	defer sink.Close()
	log := sink.Logger

	paths, err := route.LoadFile(cfg.Routes)
	if err != nil {
		log.Error().Err(err).Msg("load routes")
		fmt.Fprintf(os.Stderr, "routes: %v\n", err)
		return 1
	}

	var engine *audio.Engine
	var lamps func(vehicle.ID) blinker.Emitter
	if cfg.Audio.Enabled {
		engine = audio.NewEngine(cfg.Audio.Volume, log.With().Str("component", "audio").Logger())
		if err := engine.Start(); err != nil {
			log.Warn().Err(err).Msg("audio start failed, continuing without audio")
			engine = nil
		} else {
			defer engine.Stop()
			lamps = func(vehicle.ID) blinker.Emitter { return audio.NewRelayClicker(engine) }
		}
	}

	sim, err := traffic.FromConfig(cfg, paths, log, lamps)
	if err != nil {
		log.Error().Err(err).Msg("build simulation")
		fmt.Fprintf(os.Stderr, "simulation: %v\n", err)
		return 1
	}
	defer func() {
		if err := sim.Close(); err != nil {
			log.Warn().Err(err).Msg("close simulation")
		}
	}()

	if cfg.Recorder.Enabled {
		rec, err := recorder.Open(recorder.Options{
			DSN:         cfg.Recorder.DSN,
			SampleEvery: cfg.Recorder.SampleEvery,
			BatchSize:   cfg.Recorder.BatchSize,
		}, log.With().Str("component", "recorder").Logger())
		if err != nil {
			log.Error().Err(err).Msg("open recorder")
			fmt.Fprintf(os.Stderr, "recorder: %v\n", err)
			return 1
		}
		defer func() {
			if err := rec.Close(); err != nil {
				log.Error().Err(err).Msg("close recorder")
			}
		}()
		sim.Register(rec)
		sim.AddSampler(rec)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Sim.Headless {
		return runHeadless(ctx, cfg, sim, log)
	}
	return runViewer(ctx, cfg, sim, engine, log)
}

func runHeadless(ctx context.Context, cfg *config.Config, sim *traffic.Sim, log zerolog.Logger) int {
	err := sim.RunHeadless(ctx, cfg.Sim.Steps, cfg.Sim.Step.Seconds())
	snap := sim.Snapshot()
	log.Info().
		Int64("tick", snap.Tick).
		Float64("elapsed", snap.Elapsed).
		Int("live", len(snap.Vehicles)).
		Uint64("spawned", snap.Spawned).
		Uint64("despawned", snap.Despawned).
		Msg("headless run finished")
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("headless run")
		return 1
	}
	return 0
}

func runViewer(ctx context.Context, cfg *config.Config, sim *traffic.Sim, engine *audio.Engine, log zerolog.Logger) (code int) {
	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create screen: %v\n", err)
		return 1
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize terminal: %v\n", err)
		return 1
	}

	// Panic recovery: the deferred Fini below resets the terminal before the trace is printed
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n\x1b[31mVI-TRAFFIC CRASHED: %v\x1b[0m\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
			code = 1
		}
	}()
	defer screen.Fini()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := render.Options{
		Glow:     cfg.BlinkerParams(),
		MaxSpeed: cfg.Vehicle.MaxSpeed,
	}
	if engine != nil {
		opts.OnMute = engine.ToggleMute
		opts.Sound = engine.IsEnabled()
	}
	viewer := render.NewViewer(screen, sim, opts, log.With().Str("component", "viewer").Logger())

	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx, cfg.Sim.Step, nil) }()

	viewer.Run(ctx)
	cancel()

	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("step loop")
		return 1
	}
	return 0
}
