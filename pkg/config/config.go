// pkg/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/go-rally/pkg/curve"
)

// ErrInvalidConfig is returned when a configuration value would break the simulation
var ErrInvalidConfig = errors.New("invalid configuration")

// TyreLevels is the number of entries in the tyre table
const TyreLevels = 12

// GameConfig contains every tuning table used by the simulation core
type GameConfig struct {
	Physics    PhysicsConfig    `json:"physics" yaml:"physics"`
	Handbrake  HandbrakeConfig  `json:"handbrake" yaml:"handbrake"`
	Tyres      []TyreConfig     `json:"tyres" yaml:"tyres"`
	Skidmarks  SkidmarkConfig   `json:"skidmarks" yaml:"skidmarks"`
	Surfaces   SurfaceConfig    `json:"surfaces" yaml:"surfaces"`
	Track      TrackConfig      `json:"track" yaml:"track"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
}

// PhysicsConfig tunes acceleration, braking, steering and slip.
// Speeds given in km/h are converted to world units by the stats converter.
type PhysicsConfig struct {
	PixelsPerMeter float64 `json:"pixelsPerMeter" yaml:"pixelsPerMeter"`

	GearShiftLag             float64 `json:"gearShiftLag" yaml:"gearShiftLag"`
	GearShiftPower           float64 `json:"gearShiftPower" yaml:"gearShiftPower"`
	GearRPMFalloff           float64 `json:"gearRpmFalloff" yaml:"gearRpmFalloff"`
	ReverseSpeedRatio        float64 `json:"reverseSpeedRatio" yaml:"reverseSpeedRatio"`
	ReverseAccelerationRatio float64 `json:"reverseAccelerationRatio" yaml:"reverseAccelerationRatio"`

	BrakingForce       float64     `json:"brakingForce" yaml:"brakingForce"` // km/h lost per second at low speed
	BrakingCurve       curve.Shape `json:"brakingCurve" yaml:"brakingCurve"`
	DragForce          float64     `json:"dragForce" yaml:"dragForce"` // km/h lost per second coasting at full curve
	EngineBrakingCurve curve.Shape `json:"engineBrakingCurve" yaml:"engineBrakingCurve"`

	BaseTurnSpeed  float64         `json:"baseTurnSpeed" yaml:"baseTurnSpeed"` // degrees per second
	SteeringCurve  curve.BellShape `json:"steeringCurve" yaml:"steeringCurve"`
	MinSpeedToTurn float64         `json:"minSpeedToTurn" yaml:"minSpeedToTurn"` // world units per second

	SpeedLossCurve curve.Shape `json:"speedLossCurve" yaml:"speedLossCurve"`

	SlipCurve               curve.Shape `json:"slipCurve" yaml:"slipCurve"`
	SlipBaseRatio           float64     `json:"slipBaseRatio" yaml:"slipBaseRatio"`
	GripSlipReduction       float64     `json:"gripSlipReduction" yaml:"gripSlipReduction"`
	SlipBuildupRate         float64     `json:"slipBuildupRate" yaml:"slipBuildupRate"`
	SlipDecayRate           float64     `json:"slipDecayRate" yaml:"slipDecayRate"`
	SlipSnapThreshold       float64     `json:"slipSnapThreshold" yaml:"slipSnapThreshold"`
	SlipSteeringReduction   float64     `json:"slipSteeringReduction" yaml:"slipSteeringReduction"`
	MinSteeringWhenSlipping float64     `json:"minSteeringWhenSlipping" yaml:"minSteeringWhenSlipping"`

	RPMWarningThreshold float64 `json:"rpmWarningThreshold" yaml:"rpmWarningThreshold"`
	RPMDangerThreshold  float64 `json:"rpmDangerThreshold" yaml:"rpmDangerThreshold"`
}

// HandbrakeConfig tunes the rear-wheel lock used to start drifts
type HandbrakeConfig struct {
	SlipMultiplier float64 `json:"slipMultiplier" yaml:"slipMultiplier"`
	TurnMultiplier float64 `json:"turnMultiplier" yaml:"turnMultiplier"`
	SteeringBypass float64 `json:"steeringBypass" yaml:"steeringBypass"`
	SpeedLoss      float64 `json:"speedLoss" yaml:"speedLoss"` // km/h per second
	MinSpeed       float64 `json:"minSpeed" yaml:"minSpeed"`   // km/h
}

// TyreConfig holds the per-level drift and burnout response of a tyre compound
type TyreConfig struct {
	DriftMultiplier   float64 `json:"driftMultiplier" yaml:"driftMultiplier"`
	BurnoutMultiplier float64 `json:"burnoutMultiplier" yaml:"burnoutMultiplier"`
}

// SkidmarkConfig controls when skid and burnout marks appear
type SkidmarkConfig struct {
	Color     uint32  `json:"color" yaml:"color"`
	Intensity float64 `json:"intensity" yaml:"intensity"`
	MinDrift  float64 `json:"minDrift" yaml:"minDrift"`
	MinAlpha  float64 `json:"minAlpha" yaml:"minAlpha"`
	MaxAlpha  float64 `json:"maxAlpha" yaml:"maxAlpha"`
	MinSize   float64 `json:"minSize" yaml:"minSize"`
	MaxSize   float64 `json:"maxSize" yaml:"maxSize"`

	BurnoutMaxSpeedFraction float64 `json:"burnoutMaxSpeedFraction" yaml:"burnoutMaxSpeedFraction"`
	BurnoutIntensity        float64 `json:"burnoutIntensity" yaml:"burnoutIntensity"`
	BurnoutTyreReduction    float64 `json:"burnoutTyreReduction" yaml:"burnoutTyreReduction"`
}

// TerrainMultipliers scale the driving model on a surface
type TerrainMultipliers struct {
	Speed        float64 `json:"speedMultiplier" yaml:"speedMultiplier"`
	Acceleration float64 `json:"accelerationMultiplier" yaml:"accelerationMultiplier"`
	Grip         float64 `json:"gripMultiplier" yaml:"gripMultiplier"`
	Slip         float64 `json:"slipMultiplier" yaml:"slipMultiplier"`
	Brake        float64 `json:"brakeMultiplier" yaml:"brakeMultiplier"`
	Drag         float64 `json:"dragMultiplier" yaml:"dragMultiplier"`
}

// Neutral returns the multiplier set that leaves the driving model unchanged
func Neutral() TerrainMultipliers {
	return TerrainMultipliers{Speed: 1, Acceleration: 1, Grip: 1, Slip: 1, Brake: 1, Drag: 1}
}

// Trail describes the marks a car leaves on a surface
type Trail struct {
	Color    uint32  `json:"color" yaml:"color"`
	Type     string  `json:"type" yaml:"type"`
	MinAlpha float64 `json:"minAlpha" yaml:"minAlpha"`
	MaxAlpha float64 `json:"maxAlpha" yaml:"maxAlpha"`
}

// Surface is an off-road terrain
type Surface struct {
	GroundColor uint32             `json:"groundColor" yaml:"groundColor"`
	Terrain     TerrainMultipliers `json:"terrain" yaml:"terrain"`
	Trail       Trail              `json:"trail" yaml:"trail"`
}

// SurfaceConfig lists the off-road surfaces and the blending rates used when entering them
type SurfaceConfig struct {
	Surfaces map[string]Surface `json:"surfaces" yaml:"surfaces"`
	Road     TerrainMultipliers `json:"road" yaml:"road"`
	// RoadTrail is the trail style used while on the road surface
	RoadTrail Trail `json:"roadTrail" yaml:"roadTrail"`
	// TransitionRate is how fast handling multipliers move, in units per second
	TransitionRate float64 `json:"transitionRate" yaml:"transitionRate"`
	// SpeedTransitionTime is the seconds taken to decay from road max to terrain max
	SpeedTransitionTime float64 `json:"speedTransitionTime" yaml:"speedTransitionTime"`
}

// TrackConfig holds track defaults and visual colours
type TrackConfig struct {
	RoadColor        uint32  `json:"roadColor" yaml:"roadColor"`
	WallColor        uint32  `json:"wallColor" yaml:"wallColor"`
	CenterLineColor  uint32  `json:"centerLineColor" yaml:"centerLineColor"`
	EdgeColor        uint32  `json:"edgeColor" yaml:"edgeColor"`
	GrassColor       uint32  `json:"grassColor" yaml:"grassColor"`
	WallBounce       float64 `json:"wallBounce" yaml:"wallBounce"`
	DefaultTerrain   string  `json:"defaultTerrain" yaml:"defaultTerrain"`
	WorldPadding     float64 `json:"worldPadding" yaml:"worldPadding"`
	BoundsMargin     float64 `json:"boundsMargin" yaml:"boundsMargin"`
	PushInset        float64 `json:"pushInset" yaml:"pushInset"`
	DefaultHalfWidth float64 `json:"defaultHalfWidth" yaml:"defaultHalfWidth"`
}

// SimulationConfig controls the fixed-step race loop
type SimulationConfig struct {
	TimeStep  float64 `json:"timeStep" yaml:"timeStep"`   // seconds per tick
	CarRadius float64 `json:"carRadius" yaml:"carRadius"` // collision radius in world units
}

// Tyre returns the tyre entry for a level, clamping the level to the table
func (c *GameConfig) Tyre(level int) TyreConfig {
	if len(c.Tyres) == 0 {
		return TyreConfig{DriftMultiplier: 1, BurnoutMultiplier: 1}
	}
	idx := level - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(c.Tyres) {
		idx = len(c.Tyres) - 1
	}
	return c.Tyres[idx]
}

// Surface returns the named off-road surface and whether it exists
func (c *GameConfig) Surface(key string) (Surface, bool) {
	s, ok := c.Surfaces.Surfaces[key]
	return s, ok
}

// Validate checks that every value can drive the simulation without producing NaN or Inf
func (c *GameConfig) Validate() error {
	p := c.Physics
	positives := []struct {
		name  string
		value float64
	}{
		{"physics.pixelsPerMeter", p.PixelsPerMeter},
		{"physics.baseTurnSpeed", p.BaseTurnSpeed},
		{"physics.slipBaseRatio", p.SlipBaseRatio},
		{"physics.slipBuildupRate", p.SlipBuildupRate},
		{"physics.slipDecayRate", p.SlipDecayRate},
		{"physics.reverseSpeedRatio", p.ReverseSpeedRatio},
		{"surfaces.transitionRate", c.Surfaces.TransitionRate},
		{"surfaces.speedTransitionTime", c.Surfaces.SpeedTransitionTime},
		{"simulation.timeStep", c.Simulation.TimeStep},
		{"simulation.carRadius", c.Simulation.CarRadius},
	}
	for _, f := range positives {
		if !(f.value > 0) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidConfig, f.name, f.value)
		}
	}

	fractions := []struct {
		name  string
		value float64
	}{
		{"physics.gearShiftPower", p.GearShiftPower},
		{"physics.gearRpmFalloff", p.GearRPMFalloff},
		{"physics.gripSlipReduction", p.GripSlipReduction},
		{"physics.slipSteeringReduction", p.SlipSteeringReduction},
		{"physics.minSteeringWhenSlipping", p.MinSteeringWhenSlipping},
		{"handbrake.steeringBypass", c.Handbrake.SteeringBypass},
	}
	for _, f := range fractions {
		if !(f.value >= 0 && f.value <= 1) {
			return fmt.Errorf("%w: %s must be within [0, 1], got %v", ErrInvalidConfig, f.name, f.value)
		}
	}
	if p.GearShiftLag < 0 {
		return fmt.Errorf("%w: physics.gearShiftLag must not be negative", ErrInvalidConfig)
	}
	// rpm falloff of 2 or more would make acceleration negative at the end of a gear
	if p.GearRPMFalloff >= 2 {
		return fmt.Errorf("%w: physics.gearRpmFalloff must be below 2", ErrInvalidConfig)
	}

	curves := map[string]curve.Shape{
		"physics.brakingCurve":       p.BrakingCurve,
		"physics.engineBrakingCurve": p.EngineBrakingCurve,
		"physics.speedLossCurve":     p.SpeedLossCurve,
		"physics.slipCurve":          p.SlipCurve,
	}
	for name, shape := range curves {
		if err := shape.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}
	}
	if err := p.SteeringCurve.Validate(); err != nil {
		return fmt.Errorf("%w: physics.steeringCurve: %v", ErrInvalidConfig, err)
	}

	if len(c.Tyres) != TyreLevels {
		return fmt.Errorf("%w: tyres must list %d levels, got %d", ErrInvalidConfig, TyreLevels, len(c.Tyres))
	}
	for i, t := range c.Tyres {
		if t.DriftMultiplier < 0 || t.BurnoutMultiplier < 0 {
			return fmt.Errorf("%w: tyre level %d has a negative multiplier", ErrInvalidConfig, i+1)
		}
	}

	for key, s := range c.Surfaces.Surfaces {
		if err := validateMultipliers(s.Terrain); err != nil {
			return fmt.Errorf("%w: surface %q: %v", ErrInvalidConfig, key, err)
		}
	}
	if err := validateMultipliers(c.Surfaces.Road); err != nil {
		return fmt.Errorf("%w: road: %v", ErrInvalidConfig, err)
	}

	return nil
}

func validateMultipliers(m TerrainMultipliers) error {
	for name, v := range map[string]float64{
		"speed": m.Speed, "acceleration": m.Acceleration, "grip": m.Grip,
		"slip": m.Slip, "brake": m.Brake, "drag": m.Drag,
	} {
		if !(v >= 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%s multiplier must be a non-negative number, got %v", name, v)
		}
	}
	if m.Speed <= 0 {
		return fmt.Errorf("speed multiplier must be positive")
	}
	return nil
}

// LoadConfig loads a configuration from a JSON or YAML file.
// Values missing from the file keep their defaults.
func LoadConfig(path string) (*GameConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig saves a configuration to a JSON or YAML file
func SaveConfig(config *GameConfig, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
