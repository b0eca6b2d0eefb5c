package vehicle

import (
	"math"

	"github.com/opd-ai/go-rally/pkg/physics"
)

// handbrakeSkidFloor is the minimum mark strength left by locked rear wheels
const handbrakeSkidFloor = 0.6

// SkidMark describes the marks the rear wheels leave this tick. The wheel
// positions are only set while the mark is active.
type SkidMark struct {
	Active     bool             `json:"active"`
	Strength   float64          `json:"strength"`
	Alpha      float64          `json:"alpha"`
	Size       float64          `json:"size"`
	Color      uint32           `json:"color"`
	LeftWheel  physics.Vector2D `json:"leftWheel"`
	RightWheel physics.Vector2D `json:"rightWheel"`
}

// SkidMark returns the mark left by the current drift, handbrake or burnout
func (s *State) SkidMark() SkidMark {
	cfg := s.skid

	drift := 0.0
	if s.SlipAmount > cfg.MinDrift {
		drift = s.SlipAmount * cfg.Intensity
	}
	strength := drift
	if s.Handbraking {
		strength = math.Max(strength, math.Max(handbrakeSkidFloor, drift))
	}
	strength = physics.Clamp(math.Max(strength, s.Burnout), 0, 1)

	if strength == 0 {
		return SkidMark{Color: cfg.Color}
	}
	left, right := s.RearWheels()
	return SkidMark{
		Active:     true,
		Strength:   strength,
		Alpha:      cfg.MinAlpha + (cfg.MaxAlpha-cfg.MinAlpha)*strength,
		Size:       cfg.MinSize + (cfg.MaxSize-cfg.MinSize)*strength,
		Color:      cfg.Color,
		LeftWheel:  left,
		RightWheel: right,
	}
}

// RearWheels returns the world positions of the two rear wheels
func (s *State) RearWheels() (left, right physics.Vector2D) {
	forward := physics.FromAngle(s.Heading, 1)
	side := forward.Perpendicular()

	axle := s.Position.Sub(forward.Scale(s.profile.Length * 0.35))
	half := s.profile.Width * 0.4
	return axle.Sub(side.Scale(half)), axle.Add(side.Scale(half))
}
