// Package stats turns human-authored car stats into the physics profile used by the
// driving model.
package stats

// DesignStats are the numbers a designer tweaks for a car
type DesignStats struct {
	Name string `json:"name" yaml:"name"`

	Acceleration0to100 float64 `json:"acceleration0to100" yaml:"acceleration0to100"` // seconds to 100 km/h
	MaxSpeed           float64 `json:"maxSpeed" yaml:"maxSpeed"`                     // km/h
	Gears              int     `json:"gears" yaml:"gears"`
	PowerCurve         float64 `json:"powerCurve" yaml:"powerCurve"` // 1 mild, 2 realistic, 3 aggressive

	Weight     float64 `json:"weight" yaml:"weight"`         // kg
	Grip       float64 `json:"grip" yaml:"grip"`             // 0-1
	TyreLevel  int     `json:"tyreLevel" yaml:"tyreLevel"`   // 1 stock - 12 premium
	BrakeForce float64 `json:"brakeForce" yaml:"brakeForce"` // 0-1

	Length float64 `json:"length" yaml:"length"` // meters
	Width  float64 `json:"width" yaml:"width"`   // meters
}

// Gear is one contiguous speed band with a fixed acceleration.
// A speed belongs to the band when MinSpeed <= speed < MaxSpeed.
type Gear struct {
	Number       int     `json:"gear"`
	MinSpeed     float64 `json:"minSpeed"`
	MaxSpeed     float64 `json:"maxSpeed"`
	MinSpeedKmh  float64 `json:"minSpeedKmh"`
	MaxSpeedKmh  float64 `json:"maxSpeedKmh"`
	Multiplier   float64 `json:"multiplier"`
	Acceleration float64 `json:"acceleration"`
}

// Contains reports whether speed falls inside the band
func (g Gear) Contains(speed float64) bool {
	return speed >= g.MinSpeed && speed < g.MaxSpeed
}

// Profile is the physics-ready, read-only description of a car.
// Speeds are in world units per second.
type Profile struct {
	Name string `json:"name"`

	MaxSpeed    float64 `json:"maxSpeed"`
	MaxSpeedKmh float64 `json:"maxSpeedKmh"`
	Gears       []Gear  `json:"gears"`

	BaseAcceleration float64 `json:"baseAcceleration"`
	Target0to100     float64 `json:"target0to100"`

	Grip              float64 `json:"grip"`
	BrakeForce        float64 `json:"brakeForce"`
	Weight            float64 `json:"weight"`
	TyreLevel         int     `json:"tyreLevel"`
	PowerCurve        float64 `json:"powerCurve"`
	DriftMultiplier   float64 `json:"driftMultiplier"`
	BurnoutMultiplier float64 `json:"burnoutMultiplier"`

	Length float64 `json:"length"` // world units
	Width  float64 `json:"width"`  // world units

	PixelsPerMeter float64 `json:"pixelsPerMeter"`
}

// GearIndexFor returns the index of the highest gear whose minimum is at or
// below |speed|. Speed zero, or a profile without gears, yields gear 0.
func (p *Profile) GearIndexFor(speed float64) int {
	if speed < 0 {
		speed = -speed
	}
	if speed == 0 {
		return 0
	}
	idx := 0
	for i, g := range p.Gears {
		if g.MinSpeed <= speed {
			idx = i
		}
	}
	return idx
}

// Presets returns the stock cars
func Presets() map[string]DesignStats {
	return map[string]DesignStats{
		"default": Default(),
		"muscle": {
			Name: "Muscle", Acceleration0to100: 6, MaxSpeed: 240, Gears: 6, PowerCurve: 2,
			Weight: 1600, Grip: 0.5, TyreLevel: 2, BrakeForce: 0.6, Length: 4.8, Width: 1.9,
		},
		"rally": {
			Name: "Rally", Acceleration0to100: 8, MaxSpeed: 180, Gears: 5, PowerCurve: 2,
			Weight: 1100, Grip: 0.7, TyreLevel: 4, BrakeForce: 0.8, Length: 4.1, Width: 1.8,
		},
		"truck": {
			Name: "Truck", Acceleration0to100: 18, MaxSpeed: 140, Gears: 4, PowerCurve: 1,
			Weight: 2500, Grip: 0.4, TyreLevel: 1, BrakeForce: 0.5, Length: 6.5, Width: 2.4,
		},
	}
}

// Default returns the stock car used when no preset is chosen
func Default() DesignStats {
	return DesignStats{
		Name:               "Default",
		Acceleration0to100: 4,
		MaxSpeed:           200,
		Gears:              5,
		PowerCurve:         2,
		Weight:             1200,
		Grip:               0.6,
		TyreLevel:          1,
		BrakeForce:         0.7,
		Length:             4.0,
		Width:              1.8,
	}
}
