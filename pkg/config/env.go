// pkg/config/env.go
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variables read by LoadConfigFromEnv
const (
	EnvConfigPath          = "RALLY_CONFIG"
	EnvTrackPath           = "RALLY_TRACK"
	EnvTimeStep            = "RALLY_TIME_STEP"
	EnvPixelsPerMeter      = "RALLY_PIXELS_PER_METER"
	EnvCarRadius           = "RALLY_CAR_RADIUS"
	EnvTransitionRate      = "RALLY_TRANSITION_RATE"
	EnvSpeedTransitionTime = "RALLY_SPEED_TRANSITION_TIME"
)

// EnvironmentConfig holds settings that may be supplied through the environment.
// Zero numeric values mean "not set".
type EnvironmentConfig struct {
	ConfigPath          string
	TrackPath           string
	TimeStep            float64
	PixelsPerMeter      float64
	CarRadius           float64
	TransitionRate      float64
	SpeedTransitionTime float64
}

// LoadConfigFromEnv reads RALLY_* variables. Malformed numbers are an error,
// missing ones are left at zero.
func LoadConfigFromEnv() (*EnvironmentConfig, error) {
	env := &EnvironmentConfig{
		ConfigPath: os.Getenv(EnvConfigPath),
		TrackPath:  os.Getenv(EnvTrackPath),
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{EnvTimeStep, &env.TimeStep},
		{EnvPixelsPerMeter, &env.PixelsPerMeter},
		{EnvCarRadius, &env.CarRadius},
		{EnvTransitionRate, &env.TransitionRate},
		{EnvSpeedTransitionTime, &env.SpeedTransitionTime},
	}
	for _, f := range floats {
		raw := os.Getenv(f.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", f.key, raw, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("invalid %s value %q: must be positive", f.key, raw)
		}
		*f.dst = v
	}

	return env, nil
}

// ApplyEnvironmentOverrides copies any values set in the environment onto config
// and re-validates it.
func ApplyEnvironmentOverrides(config *GameConfig) error {
	env, err := LoadConfigFromEnv()
	if err != nil {
		return err
	}
	env.Apply(config)
	return config.Validate()
}

// Apply copies the non-zero environment values onto config
func (e *EnvironmentConfig) Apply(config *GameConfig) {
	if e.TimeStep > 0 {
		config.Simulation.TimeStep = e.TimeStep
	}
	if e.PixelsPerMeter > 0 {
		config.Physics.PixelsPerMeter = e.PixelsPerMeter
	}
	if e.CarRadius > 0 {
		config.Simulation.CarRadius = e.CarRadius
	}
	if e.TransitionRate > 0 {
		config.Surfaces.TransitionRate = e.TransitionRate
	}
	if e.SpeedTransitionTime > 0 {
		config.Surfaces.SpeedTransitionTime = e.SpeedTransitionTime
	}
}
