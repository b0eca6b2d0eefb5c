package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/opd-ai/go-rally/pkg/config"
	"github.com/opd-ai/go-rally/pkg/engine"
	"github.com/opd-ai/go-rally/pkg/event"
	"github.com/opd-ai/go-rally/pkg/health"
	"github.com/opd-ai/go-rally/pkg/logging"
	"github.com/opd-ai/go-rally/pkg/physics"
	"github.com/opd-ai/go-rally/pkg/render"
	"github.com/opd-ai/go-rally/pkg/stats"
	"github.com/opd-ai/go-rally/pkg/track"
	"github.com/opd-ai/go-rally/pkg/vehicle"
)

// ErrUnknownCar is returned for a car preset that does not exist
var ErrUnknownCar = errors.New("unknown car preset")

// Map size in terminal cells
const (
	mapWidth  = 80
	mapHeight = 30
)

// Autopilot tuning
const (
	lookahead     = 3    // samples ahead of the nearest one
	steerDeadband = 0.05 // radians
	brakeAngle    = 0.6  // radians
	brakeSpeedKmh = 90
)

// Health server limits
const (
	maxMemoryMB     = 500
	maxStall        = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

type runOptions struct {
	Car        string
	Seconds    float64
	LogEvery   float64
	ShowMap    bool
	ColorMap   bool
	HealthAddr string // empty disables the health server
}

// loadConfig reads path when it exists and falls back to defaults otherwise.
// Environment overrides are applied on top either way.
func loadConfig(ctx context.Context, logger *logging.Logger, path string) (*config.GameConfig, error) {
	var gameConfig *config.GameConfig

	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info(ctx, "Configuration file not found, using default configuration",
			"config_path", path,
		)
		gameConfig = config.DefaultConfig()
	} else {
		gameConfig, err = config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	if err := config.ApplyEnvironmentOverrides(gameConfig); err != nil {
		return nil, logging.WrapError(err, "applying environment configuration")
	}
	return gameConfig, nil
}

// loadTrack reads a track file, or returns the built-in oval when path is empty.
// A path naming a built-in track loads that track.
func loadTrack(path string) (*track.Definition, error) {
	if path == "" {
		return track.SimpleOval(), nil
	}
	if def, ok := track.Builtin(path); ok {
		return def, nil
	}
	return track.Load(path)
}

// validateTrack builds the geometry and rejects tracks whose edges cross themselves
func validateTrack(def *track.Definition, cfg *config.GameConfig) error {
	if _, err := track.New(def, cfg.Track); err != nil {
		return err
	}
	if track.SelfIntersects(def.Path) {
		return track.ErrSelfIntersecting
	}
	return nil
}

// autopilot steers toward a point a few samples ahead on the centreline
type autopilot struct {
	samples []physics.Vector2D
}

func newAutopilot(g *track.Geometry) *autopilot {
	samples := g.Samples()
	points := make([]physics.Vector2D, len(samples))
	for i, s := range samples {
		points[i] = physics.Vector2D{X: s.X, Y: s.Y}
	}
	return &autopilot{samples: points}
}

func (a *autopilot) nearest(p physics.Vector2D) int {
	best, bestDist := 0, math.Inf(1)
	for i, s := range a.samples {
		if d := s.Sub(p).LengthSquared(); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Drive returns the controls for a car at f
func (a *autopilot) Drive(f engine.Frame) vehicle.Input {
	if len(a.samples) == 0 {
		return vehicle.Input{}
	}
	target := a.samples[(a.nearest(f.Position)+lookahead)%len(a.samples)]
	diff := angleDiff(target.Sub(f.Position).Angle(), f.Heading)

	in := vehicle.Input{Gas: true}
	switch {
	case diff > steerDeadband:
		in.Right = true
	case diff < -steerDeadband:
		in.Left = true
	}
	if math.Abs(diff) > brakeAngle && f.SpeedKmh > brakeSpeedKmh {
		in.Gas = false
		in.Brake = true
	}
	return in
}

// angleDiff returns a-b wrapped to [-pi, pi)
func angleDiff(a, b float64) float64 {
	d := math.Mod(a-b+math.Pi, 2*math.Pi)
	if d < 0 {
		d += 2 * math.Pi
	}
	return d - math.Pi
}

// run drives one autopilot car around def and reports through logger and out
func run(ctx context.Context, logger *logging.Logger, cfg *config.GameConfig, def *track.Definition, opts runOptions, out io.Writer) error {
	design, ok := stats.Presets()[opts.Car]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCar, opts.Car)
	}

	race, err := engine.NewRace(cfg, logger)
	if err != nil {
		return err
	}
	ctx = logging.WithRaceID(ctx, race.ID)
	subscribe(ctx, logger, race.EventBus)
	if err := race.LoadTrack(def); err != nil {
		return err
	}
	geometry, ok := race.Course().(*track.Geometry)
	if !ok {
		return fmt.Errorf("%w: race has no track geometry", engine.ErrNoTrack)
	}

	carID, err := race.AddCar(design.Name, design)
	if err != nil {
		return err
	}

	if opts.HealthAddr != "" {
		srv := startHealthServer(ctx, logger, race, opts.HealthAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error(ctx, "Health check server shutdown failed", err)
			}
		}()
	}

	var telemetry render.Renderer = render.NewLogRenderer(ctx, logger)
	pilot := newAutopilot(geometry)
	steps := int(math.Round(opts.Seconds / race.TimeStep))
	logTicks := uint64(math.Max(1, math.Round(opts.LogEvery/race.TimeStep)))

	logger.Info(ctx, "Starting simulation",
		"track", geometry.Name(),
		"car", design.Name,
		"steps", steps,
	)

	var last engine.Frame
	for i := 0; i < steps; i++ {
		if ctx.Err() != nil {
			tick, _ := race.Progress()
			logger.Warn(ctx, "Simulation interrupted", "tick", tick)
			break
		}
		frame, _ := race.Snapshot(carID)
		if err := race.SetInput(carID, pilot.Drive(frame)); err != nil {
			return err
		}
		for _, f := range race.Tick() {
			if f.CarID != carID {
				continue
			}
			last = f
			if f.Tick%logTicks == 0 {
				telemetry.RenderCar(0, f)
			}
			if !f.OnTrack && f.SpeedKmh < 1 {
				if err := race.RecoverCar(carID); err != nil {
					return err
				}
			}
		}
	}

	_, elapsed := race.Progress()
	logger.Info(ctx, "Simulation finished",
		"elapsed", elapsed,
		"laps", last.Lap,
		"best_lap", last.BestLap,
	)

	if opts.ShowMap {
		m := render.NewTerminalRenderer(mapWidth, mapHeight, 1, out)
		m.FitBounds(geometry.Bounds())
		if opts.ColorMap {
			palette := render.PaletteFromConfig(cfg.Track)
			m.SetPalette(&palette)
		}
		m.RenderTrack(geometry)
		m.RenderCar(0, last)
		return m.Present()
	}
	return nil
}

// subscribe logs the race events that matter to a human watching the run
func subscribe(ctx context.Context, logger *logging.Logger, bus *event.Bus) {
	bus.Subscribe(event.TrackLoaded, func(e event.Event) {
		if te, ok := e.(*event.TrackEvent); ok {
			logger.Info(ctx, "Track ready", "track", te.Name, "checkpoints", te.Checkpoints)
		}
	})
	bus.Subscribe(event.LapCompleted, func(e event.Event) {
		if le, ok := e.(*event.LapEvent); ok {
			logger.Info(logging.WithCarID(ctx, le.CarID), "Lap completed",
				"lap", le.Lap,
				"lap_time", le.LapTime,
			)
		}
	})
	bus.Subscribe(event.WallCollision, func(e event.Event) {
		if ce, ok := e.(*event.CollisionEvent); ok {
			logger.Debug(logging.WithCarID(ctx, ce.CarID), "Hit wall",
				"kind", ce.ObjectKind,
				"speed_kmh", ce.SpeedKmh,
			)
		}
	})
}

// newHealthChecker registers the health checks for a race
func newHealthChecker(race *engine.Race) *health.HealthChecker {
	hc := health.NewHealthChecker()
	hc.AddCheck(health.NewTrackHealthCheck(func() string {
		if c := race.Course(); c != nil {
			return c.Name()
		}
		return ""
	}))
	hc.AddCheck(health.NewSimulationHealthCheck(func() uint64 {
		tick, _ := race.Progress()
		return tick
	}, maxStall))
	hc.AddCheck(health.NewMemoryHealthCheck(maxMemoryMB, health.MemoryUsageMB))
	return hc
}

// startHealthServer serves /health and /ready in the background
func startHealthServer(ctx context.Context, logger *logging.Logger, race *engine.Race, addr string) *http.Server {
	srv := &http.Server{
		Addr:         addr,
		Handler:      newHealthChecker(race).Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info(ctx, "Starting health check server", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "Health check server failed", err)
		}
	}()
	return srv
}
