package stats

import (
	"errors"
	"fmt"
	"math"

	"github.com/opd-ai/go-rally/pkg/config"
)

// ErrInvalidStats is returned when design stats cannot produce a usable profile
var ErrInvalidStats = errors.New("invalid car stats")

// Calibration target and tyre scaling
const (
	CalibrationSpeedKmh = 100.0
	MinTyreLevel        = 1
	MaxTyreLevel        = 12
	maxTyreGripBonus    = 0.3
	tyrePenaltyPerLevel = 0.1
	defaultPowerCurve   = 2.0
)

// Calibration describes the parts of the acceleration law the converter must
// account for so the simulated 0-100 time matches the stat.
type Calibration struct {
	// RPMFalloff is the within-gear acceleration drop: 1+F/2 at band start, 1-F/2 at band end
	RPMFalloff float64
	// ShiftLag is the power-cut window after each gear change, in seconds
	ShiftLag float64
	// ShiftPower is the acceleration fraction kept during the power cut
	ShiftPower float64
}

// Converter derives physics profiles from design stats
type Converter struct {
	pixelsPerMeter float64
	calibration    Calibration
	tyres          []config.TyreConfig
}

// NewConverter creates a converter from the game tuning tables
func NewConverter(cfg *config.GameConfig) *Converter {
	tyres := make([]config.TyreConfig, len(cfg.Tyres))
	copy(tyres, cfg.Tyres)
	return &Converter{
		pixelsPerMeter: cfg.Physics.PixelsPerMeter,
		calibration: Calibration{
			RPMFalloff: cfg.Physics.GearRPMFalloff,
			ShiftLag:   cfg.Physics.GearShiftLag,
			ShiftPower: cfg.Physics.GearShiftPower,
		},
		tyres: tyres,
	}
}

// KmhToUnits converts km/h to world units per second
func (c *Converter) KmhToUnits(kmh float64) float64 {
	return kmh * 1000 / 3600 * c.pixelsPerMeter
}

// UnitsToKmh converts world units per second to km/h
func (c *Converter) UnitsToKmh(units float64) float64 {
	if c.pixelsPerMeter == 0 {
		return 0
	}
	return units / c.pixelsPerMeter * 3.6
}

// TyreGripBonus maps a tyre level to added grip: 0 at level 1, 0.3 at level 12
func TyreGripBonus(level int) float64 {
	return float64(clampTyre(level)-MinTyreLevel) * (maxTyreGripBonus / (MaxTyreLevel - MinTyreLevel))
}

// TyreAccelPenalty maps a tyre level to seconds added to the 0-100 time:
// 1.1 at level 1, 0 at level 12
func TyreAccelPenalty(level int) float64 {
	return float64(MaxTyreLevel-clampTyre(level)) * tyrePenaltyPerLevel
}

func clampTyre(level int) int {
	if level < MinTyreLevel {
		return MinTyreLevel
	}
	if level > MaxTyreLevel {
		return MaxTyreLevel
	}
	return level
}

// GearMultiplier returns the acceleration multiplier for gear index i of n:
// ratio^(1 - i/(n-1)) with ratio = 3^powerCurve. A single gear uses the full ratio.
func GearMultiplier(i, n int, powerCurve float64) float64 {
	ratio := math.Pow(3, powerCurve)
	t := 0.0
	if n > 1 {
		t = float64(i) / float64(n-1)
	}
	return math.Pow(ratio, 1-t)
}

func validate(s DesignStats) error {
	if s.Gears <= 0 {
		return fmt.Errorf("%w: gears must be positive, got %d", ErrInvalidStats, s.Gears)
	}
	finite := map[string]float64{
		"maxSpeed": s.MaxSpeed, "acceleration0to100": s.Acceleration0to100,
		"powerCurve": s.PowerCurve, "weight": s.Weight, "grip": s.Grip,
		"brakeForce": s.BrakeForce, "length": s.Length, "width": s.Width,
	}
	for name, v := range finite {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidStats, name)
		}
	}
	if s.MaxSpeed <= 0 {
		return fmt.Errorf("%w: maxSpeed must be positive, got %v", ErrInvalidStats, s.MaxSpeed)
	}
	if s.Acceleration0to100 <= 0 {
		return fmt.Errorf("%w: acceleration0to100 must be positive, got %v", ErrInvalidStats, s.Acceleration0to100)
	}
	if s.PowerCurve < 0 {
		return fmt.Errorf("%w: powerCurve must not be negative, got %v", ErrInvalidStats, s.PowerCurve)
	}
	if s.Weight <= 0 {
		return fmt.Errorf("%w: weight must be positive, got %v", ErrInvalidStats, s.Weight)
	}
	if s.Grip < 0 {
		return fmt.Errorf("%w: grip must not be negative, got %v", ErrInvalidStats, s.Grip)
	}
	if s.BrakeForce < 0 {
		return fmt.Errorf("%w: brakeForce must not be negative, got %v", ErrInvalidStats, s.BrakeForce)
	}
	return nil
}

// Convert produces the physics profile for a car.
// The returned profile must be treated as read-only.
func (c *Converter) Convert(s DesignStats) (*Profile, error) {
	if err := validate(s); err != nil {
		return nil, err
	}
	if c.pixelsPerMeter <= 0 {
		return nil, fmt.Errorf("%w: pixelsPerMeter must be positive", ErrInvalidStats)
	}

	powerCurve := s.PowerCurve
	if powerCurve == 0 {
		powerCurve = defaultPowerCurve
	}

	maxSpeed := c.KmhToUnits(s.MaxSpeed)
	gears := make([]Gear, s.Gears)
	for i := range gears {
		lo := float64(i) / float64(s.Gears) * maxSpeed
		hi := float64(i+1) / float64(s.Gears) * maxSpeed
		gears[i] = Gear{
			Number:      i + 1,
			MinSpeed:    lo,
			MaxSpeed:    hi,
			MinSpeedKmh: c.UnitsToKmh(lo),
			MaxSpeedKmh: c.UnitsToKmh(hi),
			Multiplier:  GearMultiplier(i, s.Gears, powerCurve),
		}
	}
	// Pin the top of the last band so floating-point drift cannot open a gap
	gears[len(gears)-1].MaxSpeed = maxSpeed

	target := s.Acceleration0to100 + TyreAccelPenalty(s.TyreLevel)
	sum, shifts := c.sweep(gears, c.KmhToUnits(CalibrationSpeedKmh))
	available := target - float64(shifts)*c.shiftOverhead()
	if available <= 0 {
		return nil, fmt.Errorf("%w: acceleration0to100 %.2fs is shorter than %d gear shifts allow",
			ErrInvalidStats, s.Acceleration0to100, shifts)
	}
	if sum <= 0 {
		return nil, fmt.Errorf("%w: no speed range to calibrate", ErrInvalidStats)
	}
	base := sum / available
	for i := range gears {
		gears[i].Acceleration = base * gears[i].Multiplier
	}

	tyre := c.tyre(s.TyreLevel)

	return &Profile{
		Name:              s.Name,
		MaxSpeed:          maxSpeed,
		MaxSpeedKmh:       s.MaxSpeed,
		Gears:             gears,
		BaseAcceleration:  base,
		Target0to100:      target,
		Grip:              math.Min(1, s.Grip+TyreGripBonus(s.TyreLevel)),
		BrakeForce:        s.BrakeForce,
		Weight:            s.Weight,
		TyreLevel:         clampTyre(s.TyreLevel),
		PowerCurve:        powerCurve,
		DriftMultiplier:   tyre.DriftMultiplier,
		BurnoutMultiplier: tyre.BurnoutMultiplier,
		Length:            s.Length * c.pixelsPerMeter,
		Width:             s.Width * c.pixelsPerMeter,
		PixelsPerMeter:    c.pixelsPerMeter,
	}, nil
}

// Predict returns the calibrated time, in seconds, for the profile to reach kmh
// from rest at full throttle on neutral terrain. It returns +Inf when the speed
// is above the car's top speed.
func (c *Converter) Predict(p *Profile, kmh float64) float64 {
	target := c.KmhToUnits(kmh)
	if target <= 0 {
		return 0
	}
	if target > p.MaxSpeed || p.BaseAcceleration <= 0 {
		return math.Inf(1)
	}
	sum, shifts := c.sweep(p.Gears, target)
	return sum/p.BaseAcceleration + float64(shifts)*c.shiftOverhead()
}

// sweep integrates 1/(multiplier*falloff) over every band portion below target.
// It returns the integral and the number of gear changes needed to get there.
func (c *Converter) sweep(gears []Gear, target float64) (float64, int) {
	sum := 0.0
	bands := 0
	for _, g := range gears {
		if g.MinSpeed >= target {
			break
		}
		width := g.MaxSpeed - g.MinSpeed
		if width <= 0 || g.Multiplier <= 0 {
			continue
		}
		top := math.Min(g.MaxSpeed, target)
		sum += c.falloffIntegral(width, (top-g.MinSpeed)/width) / g.Multiplier
		bands++
	}
	shifts := 0
	if bands > 1 {
		shifts = bands - 1
	}
	return sum, shifts
}

// falloffIntegral returns the integral of dv / f(p) across [0, reach] of a band,
// where f(p) = 1 + F/2 - F*p.
func (c *Converter) falloffIntegral(width, reach float64) float64 {
	f := c.calibration.RPMFalloff
	if f == 0 {
		return width * reach
	}
	start := 1 + f/2
	end := start - f*reach
	if end <= 0 {
		return math.Inf(1)
	}
	return width / f * math.Log(start/end)
}

func (c *Converter) shiftOverhead() float64 {
	return c.calibration.ShiftLag * (1 - c.calibration.ShiftPower)
}

func (c *Converter) tyre(level int) config.TyreConfig {
	if len(c.tyres) == 0 {
		return config.TyreConfig{DriftMultiplier: 1, BurnoutMultiplier: 1}
	}
	idx := clampTyre(level) - 1
	if idx >= len(c.tyres) {
		idx = len(c.tyres) - 1
	}
	return c.tyres[idx]
}
