package vehicle

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-rally/pkg/config"
	"github.com/opd-ai/go-rally/pkg/physics"
	"github.com/opd-ai/go-rally/pkg/stats"
)

const tick = 1.0 / 60.0

func newCar(t *testing.T, mutate func(s *stats.DesignStats)) (*State, *stats.Converter) {
	t.Helper()
	cfg := config.DefaultConfig()
	conv := stats.NewConverter(cfg)
	design := stats.Default()
	if mutate != nil {
		mutate(&design)
	}
	profile, err := conv.Convert(design)
	require.NoError(t, err)
	car, err := NewState(profile, cfg)
	require.NoError(t, err)
	return car, conv
}

// crossing drives at full throttle and returns the first time speed reaches kmh
func crossing(car *State, kmh, limit float64) (float64, bool) {
	steps := int(math.Round(limit / tick))
	for i := 1; i <= steps; i++ {
		tel := car.Integrate(tick, Input{Gas: true})
		if tel.SpeedKmh >= kmh {
			return float64(i) * tick, true
		}
	}
	return 0, false
}

func TestNewState_RejectsMissingProfile(t *testing.T) {
	_, err := NewState(nil, config.DefaultConfig())
	assert.ErrorIs(t, err, ErrNoProfile)

	_, err = NewState(&stats.Profile{MaxSpeed: 10}, config.DefaultConfig())
	assert.ErrorIs(t, err, ErrNoProfile)
}

func TestIntegrate_FiveGearLaunchHitsPredictedTime(t *testing.T) {
	car, conv := newCar(t, func(s *stats.DesignStats) {
		s.MaxSpeed = 200
		s.Gears = 5
		s.PowerCurve = 2
		s.TyreLevel = 1
		s.Acceleration0to100 = 2.5
	})
	predicted := conv.Predict(car.Profile(), 100)
	require.Less(t, predicted, 4.0)

	got, ok := crossing(car, 100, 4)
	require.True(t, ok, "car never reached 100 km/h in 4 seconds")
	assert.InDelta(t, predicted, got, 0.05)
	assert.Equal(t, 3, car.Gear+1, "100 km/h sits in third gear")
}

func TestIntegrate_SingleGearReachesTargetTime(t *testing.T) {
	for _, target := range []float64{3, 5, 9} {
		car, _ := newCar(t, func(s *stats.DesignStats) {
			s.Gears = 1
			s.TyreLevel = 12
			s.Acceleration0to100 = target
		})
		got, ok := crossing(car, 100, target+1)
		require.True(t, ok)
		assert.InDelta(t, target, got, 0.05, "0-100 with a %vs target", target)
	}
}

func TestIntegrate_SpeedNeverExceedsMax(t *testing.T) {
	car, _ := newCar(t, nil)
	shifts := 0
	for i := 0; i < 60*40; i++ {
		tel := car.Integrate(tick, Input{Gas: true})
		if tel.GearChanged {
			shifts++
		}
		require.LessOrEqual(t, car.Speed, car.Profile().MaxSpeed)
		require.GreaterOrEqual(t, tel.RPM, 0.0)
		require.LessOrEqual(t, tel.RPM, 1.0)
	}
	assert.Equal(t, len(car.Profile().Gears)-1, shifts)
	assert.Equal(t, len(car.Profile().Gears), car.Gear+1)
	assert.Equal(t, RPMDanger, car.telemetry(physics.Vector2D{}, false).RPMZone)
}

func TestIntegrate_BrakeStopsThenReverses(t *testing.T) {
	car, conv := newCar(t, nil)
	car.Speed = conv.KmhToUnits(80)

	for i := 0; i < 60*5; i++ {
		car.Integrate(tick, Input{Brake: true})
		if car.Speed == 0 {
			break
		}
		require.Greater(t, car.Speed, 0.0, "braking must stop at zero before reversing")
	}
	require.Zero(t, car.Speed)

	reverseCap := -car.Profile().MaxSpeed * config.DefaultConfig().Physics.ReverseSpeedRatio
	for i := 0; i < 60*20; i++ {
		car.Integrate(tick, Input{Brake: true})
		require.GreaterOrEqual(t, car.Speed, reverseCap-1e-9)
	}
	assert.Less(t, car.Speed, 0.0)
	assert.InDelta(t, reverseCap, car.Speed, 1e-6)
}

func TestIntegrate_CoastingStopsAtZero(t *testing.T) {
	car, _ := newCar(t, nil)
	car.Speed = 200

	car.Integrate(0.5, Input{})
	assert.Less(t, car.Speed, 200.0)
	for i := 0; i < 60*20; i++ {
		car.Integrate(tick, Input{})
		require.GreaterOrEqual(t, car.Speed, 0.0)
	}
	assert.Zero(t, car.Speed)

	car.Speed = -50
	for i := 0; i < 60*5; i++ {
		car.Integrate(tick, Input{})
		require.LessOrEqual(t, car.Speed, 0.0)
	}
	assert.Zero(t, car.Speed)
}

func TestIntegrate_TerrainSpeedCapDecaysLinearly(t *testing.T) {
	cfg := config.DefaultConfig()
	car, _ := newCar(t, nil)
	top := car.Profile().MaxSpeed
	car.Speed = top

	grass, ok := cfg.Surface("grass")
	require.True(t, ok)
	car.SetTerrain(grass.Terrain)
	assert.Equal(t, grass.Terrain.Speed, car.Terrain().Speed, "speed cap applies at once")

	terrainCap := top * grass.Terrain.Speed
	rate := top * (1 - grass.Terrain.Speed) / cfg.Surfaces.SpeedTransitionTime

	car.Integrate(tick, Input{Gas: true})
	assert.InDelta(t, top-rate*tick, car.Speed, 1e-9)
	assert.InDelta(t, 1-cfg.Surfaces.TransitionRate*tick, car.Terrain().Acceleration, 1e-9,
		"handling multipliers blend in")

	prev := car.Speed
	for i := 0; i < 60; i++ {
		car.Integrate(tick, Input{Gas: true})
		require.LessOrEqual(t, car.Speed, prev)
		require.GreaterOrEqual(t, car.Speed, terrainCap)
		prev = car.Speed
	}

	for i := 0; i < 60*3; i++ {
		car.Integrate(tick, Input{Gas: true})
	}
	assert.InDelta(t, terrainCap, car.Speed, 1e-9)
	assert.InDelta(t, grass.Terrain.Acceleration, car.Terrain().Acceleration, 1e-9)
}

func TestIntegrate_TurningBuildsSlipAndConservesSpeed(t *testing.T) {
	car, _ := newCar(t, nil)
	car.Speed = car.Profile().MaxSpeed * 0.6

	for i := 0; i < 30; i++ {
		car.Integrate(tick, Input{Right: true})
		require.LessOrEqual(t, car.Velocity.Length(), math.Abs(car.Speed)+1e-9)
	}
	assert.Greater(t, car.Heading, 0.0, "right turns increase heading")
	assert.Less(t, car.Slip, 0.0, "slip pushes toward the outside of the turn")
	assert.Greater(t, car.SlipAmount, 0.0)
	assert.LessOrEqual(t, car.SlipAmount, 1.0)

	for i := 0; i < 60*3; i++ {
		car.Integrate(tick, Input{})
	}
	assert.Zero(t, car.Slip, "slip decays and snaps to zero")
	assert.Zero(t, car.SlipAmount)
}

func TestIntegrate_LeftAndRightMirror(t *testing.T) {
	left, _ := newCar(t, nil)
	right, _ := newCar(t, nil)
	left.Speed, right.Speed = 300, 300

	for i := 0; i < 20; i++ {
		left.Integrate(tick, Input{Left: true})
		right.Integrate(tick, Input{Right: true})
	}
	assert.InDelta(t, -right.Heading, left.Heading, 1e-9)
	assert.InDelta(t, -right.Slip, left.Slip, 1e-9)
	assert.InDelta(t, right.Speed, left.Speed, 1e-9)

	both, _ := newCar(t, nil)
	both.Speed = 300
	both.Integrate(tick, Input{Left: true, Right: true})
	assert.Zero(t, both.Heading)
}

func TestIntegrate_NoTurnBelowMinimumSpeed(t *testing.T) {
	car, _ := newCar(t, nil)
	car.Integrate(tick, Input{Left: true})
	assert.Zero(t, car.Heading)
}

func TestIntegrate_Handbrake(t *testing.T) {
	car, conv := newCar(t, nil)
	handbrake := config.DefaultConfig().Handbrake

	car.Speed = conv.KmhToUnits(100)
	start := car.Speed
	tel := car.Integrate(tick, Input{Handbrake: true})
	assert.True(t, tel.Handbraking)
	assert.LessOrEqual(t, car.Speed, start-conv.KmhToUnits(handbrake.SpeedLoss)*tick)

	car.Speed = conv.KmhToUnits(handbrake.MinSpeed) / 2
	tel = car.Integrate(tick, Input{Handbrake: true})
	assert.False(t, tel.Handbraking, "handbrake needs a minimum speed")
}

func TestIntegrate_HandbrakeAmplifiesSlip(t *testing.T) {
	plain, conv := newCar(t, nil)
	drift, _ := newCar(t, nil)
	plain.Speed = conv.KmhToUnits(120)
	drift.Speed = conv.KmhToUnits(120)

	for i := 0; i < 10; i++ {
		plain.Integrate(tick, Input{Right: true})
		drift.Integrate(tick, Input{Right: true, Handbrake: true})
	}
	assert.Greater(t, math.Abs(drift.Slip), math.Abs(plain.Slip))
	assert.Greater(t, drift.Heading, plain.Heading)
}

func TestIntegrate_Burnout(t *testing.T) {
	car, _ := newCar(t, nil)
	skid := config.DefaultConfig().Skidmarks

	tel := car.Integrate(tick, Input{Gas: true})
	assert.InDelta(t, car.Profile().BurnoutMultiplier*skid.BurnoutIntensity, tel.Burnout, 1e-9)

	car.Speed = car.Profile().MaxSpeed * skid.BurnoutMaxSpeedFraction
	tel = car.Integrate(tick, Input{Gas: true})
	assert.Zero(t, tel.Burnout)

	car.Speed = 0
	tel = car.Integrate(tick, Input{})
	assert.Zero(t, tel.Burnout, "no burnout without throttle")
}

func TestIntegrate_HeavierCarIsSlower(t *testing.T) {
	light, _ := newCar(t, nil)
	heavy, _ := newCar(t, nil)
	heavy.ExtraWeight = heavy.Profile().Weight

	for i := 0; i < 60; i++ {
		light.Integrate(tick, Input{Gas: true})
		heavy.Integrate(tick, Input{Gas: true})
	}
	assert.Less(t, heavy.Speed, light.Speed)
}

func TestIntegrate_IgnoresBadTimeStep(t *testing.T) {
	car, _ := newCar(t, nil)
	car.Speed = 100
	for _, dt := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		tel := car.Integrate(dt, Input{Gas: true})
		assert.Equal(t, physics.Vector2D{}, tel.Delta)
	}
	assert.Equal(t, 100.0, car.Speed)
}

func TestApplyCollision(t *testing.T) {
	car, _ := newCar(t, nil)
	car.Speed = 200
	car.Slip = -0.4

	car.ApplyCollision(physics.Collision{Position: physics.Vector2D{X: 5, Y: 6}, Bounce: 0.5})
	assert.Equal(t, physics.Vector2D{X: 5, Y: 6}, car.Position)
	assert.Equal(t, 100.0, car.Speed)
	assert.Equal(t, -0.2, car.Slip)
}

func TestPlace(t *testing.T) {
	car, _ := newCar(t, nil)
	car.Speed = 100
	car.Slip = 0.3
	car.Place(physics.Vector2D{X: 1, Y: 2}, math.Pi)

	assert.Equal(t, physics.Vector2D{X: 1, Y: 2}, car.Position)
	assert.Equal(t, math.Pi, car.Heading)
	assert.Zero(t, car.Speed)
	assert.Zero(t, car.Slip)

	tel := car.Integrate(tick, Input{Gas: true})
	assert.Less(t, tel.Delta.X, 0.0, "car drives along its heading")
	assert.Equal(t, 1, tel.Gear)
}

func TestPlace_ResetsTerrain(t *testing.T) {
	cfg := config.DefaultConfig()
	car, _ := newCar(t, nil)

	grass, ok := cfg.Surface("grass")
	require.True(t, ok)
	car.SetTerrain(grass.Terrain)
	for i := 0; i < 60*5; i++ {
		car.Integrate(tick, Input{Gas: true})
	}
	require.InDelta(t, grass.Terrain.Grip, car.Terrain().Grip, 1e-9)

	car.Place(physics.Vector2D{}, 0)
	assert.Equal(t, config.Neutral(), car.Terrain())

	car.Integrate(tick, Input{Gas: true})
	assert.Equal(t, config.Neutral(), car.Terrain(), "no blend back from the old surface")
}
