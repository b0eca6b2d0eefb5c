// cmd/rallysim/main.go
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/opd-ai/go-rally/pkg/config"
	"github.com/opd-ai/go-rally/pkg/logging"
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	defaultConfig := "config.json"
	if path := os.Getenv(config.EnvConfigPath); path != "" {
		defaultConfig = path
	}

	configPath := flag.String("config", defaultConfig, "Path to configuration file (JSON or YAML)")
	createDefault := flag.Bool("default", false, "Create default configuration file")
	trackPath := flag.String("track", os.Getenv(config.EnvTrackPath), "Track file to drive (defaults to the built-in oval)")
	carName := flag.String("car", "default", "Car preset: default, muscle, rally or truck")
	seconds := flag.Float64("seconds", 60, "Simulated seconds to run")
	logEvery := flag.Float64("log-every", 1, "Seconds between telemetry lines")
	validateOnly := flag.Bool("validate", false, "Validate the track and exit")
	showMap := flag.Bool("map", false, "Print an ASCII map of the final positions")
	colorMap := flag.Bool("color", false, "Colour the map with the track palette (24-bit ANSI)")
	healthAddr := flag.String("health-addr", "", "Serve /health and /ready on this address while running")
	flag.Parse()

	if *createDefault {
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default configuration file",
			"config_path", *configPath,
		)
		return
	}

	gameConfig, err := loadConfig(ctx, logger, *configPath)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err,
			"config_path", *configPath,
		)
		os.Exit(1)
	}

	def, err := loadTrack(*trackPath)
	if err != nil {
		logger.Error(ctx, "Failed to load track", err,
			"track_path", *trackPath,
		)
		os.Exit(1)
	}

	if *validateOnly {
		if err := validateTrack(def, gameConfig); err != nil {
			logger.Error(ctx, "Track is invalid", err,
				"track", def.Name,
			)
			os.Exit(1)
		}
		logger.Info(ctx, "Track is valid",
			"track", def.Name,
			"control_points", len(def.Path),
		)
		return
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := runOptions{
		Car:        *carName,
		Seconds:    *seconds,
		LogEvery:   *logEvery,
		ShowMap:    *showMap,
		ColorMap:   *colorMap,
		HealthAddr: *healthAddr,
	}
	if err := run(ctx, logger, gameConfig, def, opts, os.Stdout); err != nil {
		logger.Error(ctx, "Simulation failed", err)
		os.Exit(1)
	}
}
