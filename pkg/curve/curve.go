// Package curve evaluates the shaped response curves used to tune the driving model.
//
// Every evaluator is total: any finite input maps to a finite output, and the
// boundary values are hit exactly at the onset and peak knees. Degenerate shapes
// (peak <= onset) behave as a step at onset instead of dividing by zero.
package curve

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidShape is returned when a curve specification cannot produce a well-formed curve
var ErrInvalidShape = errors.New("invalid curve shape")

// Shape describes a power curve between an onset and a peak input
type Shape struct {
	Onset float64 `json:"onset" yaml:"onset"`
	Peak  float64 `json:"peak" yaml:"peak"`
	Power float64 `json:"power" yaml:"power"`
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
}

// BellShape describes a curve that peaks at PeakSpeed and falls off on both sides
type BellShape struct {
	PeakSpeed    float64 `json:"peakSpeed" yaml:"peakSpeed"`
	LowSpeedMin  float64 `json:"lowSpeedMin" yaml:"lowSpeedMin"`
	HighSpeedMin float64 `json:"highSpeedMin" yaml:"highSpeedMin"`
	FalloffPower float64 `json:"falloffPower" yaml:"falloffPower"`
}

// Validate reports whether the shape can be evaluated without producing NaN or Inf
func (s Shape) Validate() error {
	for name, v := range map[string]float64{
		"onset": s.Onset, "peak": s.Peak, "power": s.Power, "min": s.Min, "max": s.Max,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidShape, name)
		}
	}
	if s.Peak <= s.Onset {
		return fmt.Errorf("%w: peak %.3f must be greater than onset %.3f", ErrInvalidShape, s.Peak, s.Onset)
	}
	if s.Power <= 0 {
		return fmt.Errorf("%w: power %.3f must be positive", ErrInvalidShape, s.Power)
	}
	return nil
}

// Validate reports whether the bell shape can be evaluated without producing NaN or Inf
func (b BellShape) Validate() error {
	for name, v := range map[string]float64{
		"peakSpeed": b.PeakSpeed, "lowSpeedMin": b.LowSpeedMin,
		"highSpeedMin": b.HighSpeedMin, "falloffPower": b.FalloffPower,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidShape, name)
		}
	}
	if b.PeakSpeed <= 0 || b.PeakSpeed >= 1 {
		return fmt.Errorf("%w: peakSpeed %.3f must be inside (0, 1)", ErrInvalidShape, b.PeakSpeed)
	}
	if b.FalloffPower <= 0 {
		return fmt.Errorf("%w: falloffPower %.3f must be positive", ErrInvalidShape, b.FalloffPower)
	}
	return nil
}

// progress maps input into [0, 1] between onset and peak.
// ok is false when the input sits on or outside a knee.
func (s Shape) progress(input float64) (float64, bool) {
	if input <= s.Onset {
		return 0, false
	}
	if input >= s.Peak {
		return 1, false
	}
	span := s.Peak - s.Onset
	if span <= 0 {
		return 1, false
	}
	return math.Pow((input-s.Onset)/span, s.Power), true
}

// Forward rises from Min at onset to Max at peak.
func Forward(input float64, s Shape) float64 {
	if input <= s.Onset {
		return s.Min
	}
	if input >= s.Peak {
		return s.Max
	}
	p, ok := s.progress(input)
	if !ok {
		return s.Max
	}
	return s.Min + p*(s.Max-s.Min)
}

// Inverse falls from 1 at onset to Min at peak. Used where the effect is
// strongest at low input, such as braking effectiveness.
func Inverse(input float64, s Shape) float64 {
	if input <= s.Onset {
		return 1
	}
	if input >= s.Peak {
		return s.Min
	}
	p, ok := s.progress(input)
	if !ok {
		return s.Min
	}
	return 1 - p*(1-s.Min)
}

// Bell rises from LowSpeedMin to 1 at PeakSpeed then falls to HighSpeedMin at 1.
// Input is clamped to [0, 1].
func Bell(input float64, b BellShape) float64 {
	input = math.Max(0, math.Min(1, input))

	if input <= b.PeakSpeed {
		if b.PeakSpeed <= 0 {
			return 1
		}
		curved := math.Pow(input/b.PeakSpeed, b.FalloffPower)
		return b.LowSpeedMin + curved*(1-b.LowSpeedMin)
	}

	span := 1 - b.PeakSpeed
	if span <= 0 {
		return 1
	}
	curved := math.Pow((input-b.PeakSpeed)/span, b.FalloffPower)
	return 1 - curved*(1-b.HighSpeedMin)
}

// Ranged has the same shape as Forward, but an all-zero shape defaults to the
// unit ramp (onset 0, peak 1, power 1, min 0, max 1). Used for engine-braking
// and drag blending.
func Ranged(input float64, s Shape) float64 {
	return Forward(input, s.withRangeDefaults())
}

func (s Shape) withRangeDefaults() Shape {
	if s == (Shape{}) {
		return Shape{Onset: 0, Peak: 1, Power: 1, Min: 0, Max: 1}
	}
	if s.Peak == 0 && s.Onset == 0 {
		s.Peak = 1
	}
	if s.Power == 0 {
		s.Power = 1
	}
	return s
}
