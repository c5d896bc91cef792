package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/flightrig/config"
	"github.com/milk9111/flightrig/logging"
	"github.com/milk9111/flightrig/prefabs"
	"github.com/milk9111/flightrig/render"
	"github.com/milk9111/flightrig/sim"
	"github.com/milk9111/flightrig/telemetry"
	"github.com/pkg/profile"
	"github.com/rs/zerolog"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit code so deferred profile and metrics
// shutdowns happen before the process exits.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("flightrig", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configDir := fs.String("config", ".", "directory holding flightrig.yaml")
	backend := fs.String("backend", "", "physics backend: rigid or planar")
	rigFile := fs.String("rig", "", "rig prefab file (in prefabs/ or embedded)")
	headless := fs.Bool("headless", false, "run without a window")
	frames := fs.Int("frames", 0, "stop after this many frames (0 runs until quit)")
	watch := fs.Bool("watch", false, "rebuild the rig when prefabs change on disk")
	debug := fs.Bool("debug", false, "show the physics overlay")
	logLevel := fs.String("log-level", "", "trace, debug, info, warn or error")
	profileMode := fs.String("profile", "", "write a cpu or mem profile to the working directory")
	metricsExporter := fs.String("metrics", "", "metrics exporter: none or stdout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if err := config.Load(*configDir); err != nil {
		logger := logging.New("info", stderr)
		logger.Error().Err(err).Msg("config")
		return 1
	}

	// Only flags given on the command line override the file and environment.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			config.Set(config.KeyPhysicsBackend, *backend)
		case "rig":
			config.Set(config.KeyRigFile, *rigFile)
		case "headless":
			config.Set(config.KeySimHeadless, *headless)
		case "frames":
			config.Set(config.KeySimFrames, *frames)
		case "watch":
			config.Set(config.KeyRigWatch, *watch)
		case "debug":
			config.Set(config.KeyDebug, *debug)
		case "log-level":
			config.Set(config.KeyLogLevel, *logLevel)
		case "profile":
			config.Set(config.KeyProfile, *profileMode)
		case "metrics":
			config.Set(config.KeyMetricsExporter, *metricsExporter)
		}
	})

	settings, err := config.Current()
	log := logging.New(settings.LogLevel, stderr)
	if err != nil {
		log.Error().Err(err).Msg("config")
		return 1
	}

	prefabs.Dir = settings.PrefabsDir

	switch settings.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	metrics, err := telemetry.New(telemetry.Config{
		Exporter: settings.MetricsExporter,
		Interval: settings.MetricsInterval,
		Writer:   stdout,
	})
	if err != nil {
		log.Error().Err(err).Msg("metrics")
		return 1
	}
	metrics.Install()
	defer func() {
		if err := metrics.Shutdown(context.Background()); err != nil {
			log.Warn().Err(err).Msg("metrics shutdown")
		}
	}()

	if settings.SimHeadless {
		if err := runHeadless(settings, metrics, log); err != nil {
			log.Error().Err(err).Msg("headless run failed")
			return 1
		}
		return 0
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(settings.WindowWidth, settings.WindowHeight)
	ebiten.SetWindowTitle("flightrig")
	ebiten.SetTPS(windowTPS)

	game, err := NewGame(settings, log)
	if err != nil {
		log.Error().Err(err).Msg("startup")
		return 1
	}

	if err := ebiten.RunGame(game); err != nil {
		log.Error().Err(err).Msg("game exited")
		return 1
	}
	return 0
}

// windowTPS ties Update to the display so every drawn frame consumes exactly
// one fixed step. sim.hz only sets the step length.
const windowTPS = ebiten.SyncWithFPS

// runHeadless flies the rig into a recorder until the frame limit or an
// interrupt.
func runHeadless(settings config.Settings, metrics *telemetry.Provider, log zerolog.Logger) error {
	spec, err := prefabs.LoadRigSpec(settings.RigFile)
	if err != nil {
		return err
	}
	recorder := render.NewRecorder(1)
	session, err := sim.Build(settings, spec, recorder, log, sim.WithMeter(metrics.Meter(sim.InstrumentationName)))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = session.Loop.Run(ctx, nil)
	if ctx.Err() != nil {
		err = nil
	}

	log.Info().
		Int("frames", session.Loop.FrameCount()).
		Float64("simulated", session.Loop.PhysicsWorld().SimulatedTime()).
		Int("presents", recorder.Presents()).
		Msg("headless run finished")
	return err
}
