// Package vehicle integrates a single car's driving model one fixed step at a time.
package vehicle

import (
	"errors"
	"math"

	"github.com/opd-ai/go-rally/pkg/config"
	"github.com/opd-ai/go-rally/pkg/curve"
	"github.com/opd-ai/go-rally/pkg/physics"
	"github.com/opd-ai/go-rally/pkg/stats"
)

// ErrNoProfile is returned when a state is created without a usable profile
var ErrNoProfile = errors.New("vehicle needs a profile with at least one gear")

// timerEpsilon absorbs float drift when counting down the shift timer in fixed steps
const timerEpsilon = 1e-9

// Input holds the driver controls for one tick
type Input struct {
	Gas       bool `json:"gas"`
	Brake     bool `json:"brake"`
	Left      bool `json:"left"`
	Right     bool `json:"right"`
	Handbrake bool `json:"handbrake"`
}

// turnSign is +1 for right, -1 for left and 0 when neither or both are held
func (in Input) turnSign() float64 {
	switch {
	case in.Right && !in.Left:
		return 1
	case in.Left && !in.Right:
		return -1
	}
	return 0
}

// RPMZone classifies the rev counter for display
type RPMZone string

const (
	RPMNormal  RPMZone = "normal"
	RPMWarning RPMZone = "warning"
	RPMDanger  RPMZone = "danger"
)

// Telemetry is what the host reads back after each tick
type Telemetry struct {
	Delta       physics.Vector2D `json:"delta"`
	Position    physics.Vector2D `json:"position"`
	Heading     float64          `json:"heading"`
	SpeedKmh    float64          `json:"speedKmh"`
	Gear        int              `json:"gear"` // 1-based
	GearChanged bool             `json:"gearChanged"`
	RPM         float64          `json:"rpm"`
	RPMZone     RPMZone          `json:"rpmZone"`
	SlipAmount  float64          `json:"slipAmount"`
	Burnout     float64          `json:"burnout"`
	Handbraking bool             `json:"handbraking"`
}

// State is the mutable driving state of one car.
// Speed is signed along Heading; Slip is lateral velocity as a fraction of top speed.
type State struct {
	profile   *stats.Profile
	phys      config.PhysicsConfig
	handbrake config.HandbrakeConfig
	skid      config.SkidmarkConfig

	transitionRate      float64
	speedTransitionTime float64

	Position physics.Vector2D
	Velocity physics.Vector2D
	Heading  float64 // radians, 0 faces +X, positive turns clockwise on screen
	Speed    float64

	Gear        int // index into the profile's gears
	RPM         float64
	Slip        float64
	SlipAmount  float64
	Burnout     float64
	Handbraking bool
	ShiftTimer  float64
	ExtraWeight float64 // kg

	terrain       config.TerrainMultipliers
	terrainTarget config.TerrainMultipliers
}

// NewState creates a car at rest on neutral terrain
func NewState(profile *stats.Profile, cfg *config.GameConfig) (*State, error) {
	if profile == nil || len(profile.Gears) == 0 || profile.MaxSpeed <= 0 {
		return nil, ErrNoProfile
	}
	return &State{
		profile:             profile,
		phys:                cfg.Physics,
		handbrake:           cfg.Handbrake,
		skid:                cfg.Skidmarks,
		transitionRate:      cfg.Surfaces.TransitionRate,
		speedTransitionTime: cfg.Surfaces.SpeedTransitionTime,
		terrain:             config.Neutral(),
		terrainTarget:       config.Neutral(),
	}, nil
}

// Profile returns the car's read-only physics profile
func (s *State) Profile() *stats.Profile {
	return s.profile
}

// Place puts the car at rest at position facing heading, back on neutral terrain
func (s *State) Place(position physics.Vector2D, heading float64) {
	s.Position = position
	s.Heading = heading
	s.Velocity = physics.Vector2D{}
	s.Speed = 0
	s.Slip = 0
	s.SlipAmount = 0
	s.Burnout = 0
	s.Gear = 0
	s.RPM = 0
	s.ShiftTimer = 0
	s.Handbraking = false
	s.terrain = config.Neutral()
	s.terrainTarget = config.Neutral()
}

// SetTerrain changes the surface the car is driving on. The speed cap
// multiplier applies at once; the handling multipliers blend in over time.
func (s *State) SetTerrain(target config.TerrainMultipliers) {
	s.terrainTarget = target
	s.terrain.Speed = target.Speed
}

// Terrain returns the multipliers currently in effect
func (s *State) Terrain() config.TerrainMultipliers {
	return s.terrain
}

// ApplyCollision moves the car to the push-out position and scales its speed and slip by the bounce
func (s *State) ApplyCollision(c physics.Collision) {
	s.Position = c.Position
	s.Speed *= c.Bounce
	s.Slip *= c.Bounce
}

// SpeedKmh returns the signed speed in km/h
func (s *State) SpeedKmh() float64 {
	return s.Speed / s.profile.PixelsPerMeter * 3.6
}

func (s *State) kmh(v float64) float64 {
	return v / 3.6 * s.profile.PixelsPerMeter
}

func (s *State) blendTerrain(dt float64) {
	step := s.transitionRate * dt
	s.terrain.Acceleration = physics.MoveToward(s.terrain.Acceleration, s.terrainTarget.Acceleration, step)
	s.terrain.Grip = physics.MoveToward(s.terrain.Grip, s.terrainTarget.Grip, step)
	s.terrain.Slip = physics.MoveToward(s.terrain.Slip, s.terrainTarget.Slip, step)
	s.terrain.Brake = physics.MoveToward(s.terrain.Brake, s.terrainTarget.Brake, step)
	s.terrain.Drag = physics.MoveToward(s.terrain.Drag, s.terrainTarget.Drag, step)
}

// bandProgress is how far |speed| sits through a gear band, clamped to [0,1]
func bandProgress(g stats.Gear, speed float64) float64 {
	width := g.MaxSpeed - g.MinSpeed
	if width <= 0 {
		return 0
	}
	return physics.Clamp((math.Abs(speed)-g.MinSpeed)/width, 0, 1)
}

// Integrate advances the car by dt seconds
func (s *State) Integrate(dt float64, in Input) Telemetry {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return s.telemetry(physics.Vector2D{}, false)
	}

	p := s.profile
	s.blendTerrain(dt)

	gearIdx := p.GearIndexFor(s.Speed)
	shifted := gearIdx != s.Gear
	if shifted {
		s.ShiftTimer = s.phys.GearShiftLag
	}
	s.Gear = gearIdx
	gear := p.Gears[gearIdx]

	cut := 1.0
	if s.ShiftTimer > timerEpsilon {
		cut = s.phys.GearShiftPower
		s.ShiftTimer = math.Max(0, s.ShiftTimer-dt)
	}

	weightRatio := 1.0
	if p.Weight+s.ExtraWeight > 0 {
		weightRatio = p.Weight / (p.Weight + s.ExtraWeight)
	}
	falloff := 1 + s.phys.GearRPMFalloff/2 - s.phys.GearRPMFalloff*bandProgress(gear, s.Speed)
	accel := gear.Acceleration * weightRatio * falloff * cut * s.terrain.Acceleration

	s.Burnout = s.burnout(in)

	prevSpeed := s.Speed
	speedRatio := math.Abs(s.Speed) / p.MaxSpeed
	switch {
	case in.Gas:
		s.Speed += accel * dt
	case in.Brake && s.Speed > 0:
		force := s.kmh(s.phys.BrakingForce) * p.BrakeForce *
			curve.Inverse(speedRatio, s.phys.BrakingCurve) * s.terrain.Brake
		s.Speed = math.Max(0, s.Speed-force*dt)
	case in.Brake:
		s.Speed -= accel * s.phys.ReverseAccelerationRatio * dt
	default:
		drag := s.kmh(s.phys.DragForce) * curve.Ranged(speedRatio, s.phys.EngineBrakingCurve) * s.terrain.Drag
		s.Speed = physics.MoveToward(s.Speed, 0, drag*dt)
	}

	s.capSpeed(prevSpeed, dt)

	s.RPM = bandProgress(gear, s.Speed)

	speedRatio = math.Abs(s.Speed) / p.MaxSpeed
	bell := curve.Bell(speedRatio, s.phys.SteeringCurve)
	s.Handbraking = in.Handbrake && s.Speed > s.kmh(s.handbrake.MinSpeed)

	sign := in.turnSign()
	if sign != 0 && math.Abs(s.Speed) > s.phys.MinSpeedToTurn {
		s.turn(dt, sign, speedRatio, bell)
	} else {
		s.Slip *= math.Exp(-s.phys.SlipDecayRate * dt)
		if math.Abs(s.Slip) < s.phys.SlipSnapThreshold {
			s.Slip = 0
		}
	}

	if s.Handbraking {
		s.Speed = math.Max(0, s.Speed-s.kmh(s.handbrake.SpeedLoss)*dt)
	}

	forward := physics.FromAngle(s.Heading, 1)
	lateral := forward.Perpendicular().Scale(s.Slip * p.MaxSpeed)
	s.Velocity = forward.Scale(s.Speed).Add(lateral).ClampLength(math.Abs(s.Speed))
	delta := s.Velocity.Scale(dt)
	s.Position = s.Position.Add(delta)

	s.SlipAmount = math.Min(1, math.Abs(s.Slip)/s.phys.SlipBaseRatio)

	return s.telemetry(delta, shifted)
}

// capSpeed clamps speed to the car's limits and pulls it down toward the
// terrain's top speed at a fixed rate when it is above it.
func (s *State) capSpeed(prevSpeed, dt float64) {
	maxSpeed := s.profile.MaxSpeed
	terrainMax := maxSpeed * s.terrain.Speed
	s.Speed = physics.Clamp(s.Speed, -terrainMax*s.phys.ReverseSpeedRatio, maxSpeed)

	if s.Speed > terrainMax {
		rate := maxSpeed * (1 - s.terrain.Speed) / s.speedTransitionTime
		s.Speed = math.Max(terrainMax, math.Min(s.Speed, prevSpeed)-rate*dt)
	}
}

func (s *State) burnout(in Input) float64 {
	if !in.Gas || s.Speed < 0 {
		return 0
	}
	tyre := s.profile.BurnoutMultiplier
	threshold := s.profile.MaxSpeed * s.skid.BurnoutMaxSpeedFraction *
		(1 - s.skid.BurnoutTyreReduction*(1-tyre))
	if threshold <= 0 || s.Speed >= threshold {
		return 0
	}
	return physics.Clamp((1-s.Speed/threshold)*tyre*s.skid.BurnoutIntensity, 0, 1)
}

func (s *State) turn(dt, sign, speedRatio, bell float64) {
	p := s.profile
	grip := p.Grip * s.terrain.Grip

	target := -sign * curve.Forward(speedRatio, s.phys.SlipCurve) *
		(1 - grip*s.phys.GripSlipReduction) *
		p.DriftMultiplier * s.phys.SlipBaseRatio * s.terrain.Slip
	if s.Handbraking {
		target *= s.handbrake.SlipMultiplier
	}
	s.Slip += (target - s.Slip) * math.Min(1, s.phys.SlipBuildupRate*dt)

	slipFraction := math.Min(1, math.Abs(s.Slip)/s.phys.SlipBaseRatio)
	loss := slipFraction * s.phys.SlipSteeringReduction
	turnRate := s.phys.BaseTurnSpeed * math.Pi / 180
	if s.Handbraking {
		loss *= 1 - s.handbrake.SteeringBypass
		turnRate *= s.handbrake.TurnMultiplier
	}
	steer := math.Max(s.phys.MinSteeringWhenSlipping, 1-loss)

	s.Heading += turnRate * dt * bell * steer * sign * physics.Sign(s.Speed)

	corner := curve.Forward(speedRatio, s.phys.SpeedLossCurve) * p.MaxSpeed * dt *
		bell * steer * (grip + slipFraction) / 2
	s.Speed = physics.MoveToward(s.Speed, 0, corner)
}

func (s *State) rpmZone() RPMZone {
	switch {
	case s.RPM >= s.phys.RPMDangerThreshold:
		return RPMDanger
	case s.RPM >= s.phys.RPMWarningThreshold:
		return RPMWarning
	}
	return RPMNormal
}

func (s *State) telemetry(delta physics.Vector2D, shifted bool) Telemetry {
	return Telemetry{
		Delta:       delta,
		Position:    s.Position,
		Heading:     s.Heading,
		SpeedKmh:    s.SpeedKmh(),
		Gear:        s.Gear + 1,
		GearChanged: shifted,
		RPM:         s.RPM,
		RPMZone:     s.rpmZone(),
		SlipAmount:  s.SlipAmount,
		Burnout:     s.Burnout,
		Handbraking: s.Handbraking,
	}
}
