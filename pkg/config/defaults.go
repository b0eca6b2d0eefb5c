package config

import "github.com/opd-ai/go-rally/pkg/curve"

// DefaultConfig returns the stock tuning used by the built-in cars and tracks
func DefaultConfig() *GameConfig {
	return &GameConfig{
		Physics: PhysicsConfig{
			PixelsPerMeter: 12,

			GearShiftLag:             0.5,
			GearShiftPower:           0.1,
			GearRPMFalloff:           0.6,
			ReverseSpeedRatio:        0.2,
			ReverseAccelerationRatio: 0.4,

			BrakingForce: 160,
			BrakingCurve: curve.Shape{Onset: 0, Peak: 1, Power: 1.5, Min: 0.3, Max: 1},
			DragForce:    50,
			EngineBrakingCurve: curve.Shape{
				Onset: 0, Peak: 1, Power: 1.5, Min: 0.2, Max: 0.8,
			},

			BaseTurnSpeed: 180,
			SteeringCurve: curve.BellShape{
				PeakSpeed: 0.5, LowSpeedMin: 0.2, HighSpeedMin: 0.4, FalloffPower: 2,
			},
			MinSpeedToTurn: 1,

			SpeedLossCurve: curve.Shape{Onset: 0.4, Peak: 1, Power: 1.6, Min: 0, Max: 1.4},

			SlipCurve:               curve.Shape{Onset: 0.4, Peak: 1, Power: 1, Min: 0, Max: 1},
			SlipBaseRatio:           0.96,
			GripSlipReduction:       0.6,
			SlipBuildupRate:         3,
			SlipDecayRate:           5,
			SlipSnapThreshold:       0.001,
			SlipSteeringReduction:   0.7,
			MinSteeringWhenSlipping: 0.25,

			RPMWarningThreshold: 0.6,
			RPMDangerThreshold:  0.8,
		},
		Handbrake: HandbrakeConfig{
			SlipMultiplier: 3,
			TurnMultiplier: 1.5,
			SteeringBypass: 0.7,
			SpeedLoss:      40,
			MinSpeed:       20,
		},
		Tyres: []TyreConfig{
			{DriftMultiplier: 1.00, BurnoutMultiplier: 1.00}, // stock
			{DriftMultiplier: 0.95, BurnoutMultiplier: 0.94},
			{DriftMultiplier: 0.91, BurnoutMultiplier: 0.87},
			{DriftMultiplier: 0.86, BurnoutMultiplier: 0.81},
			{DriftMultiplier: 0.82, BurnoutMultiplier: 0.74},
			{DriftMultiplier: 0.77, BurnoutMultiplier: 0.68},
			{DriftMultiplier: 0.73, BurnoutMultiplier: 0.62},
			{DriftMultiplier: 0.68, BurnoutMultiplier: 0.55},
			{DriftMultiplier: 0.64, BurnoutMultiplier: 0.49},
			{DriftMultiplier: 0.59, BurnoutMultiplier: 0.42},
			{DriftMultiplier: 0.55, BurnoutMultiplier: 0.36},
			{DriftMultiplier: 0.50, BurnoutMultiplier: 0.30}, // premium
		},
		Skidmarks: SkidmarkConfig{
			Color:     0x222222,
			Intensity: 1,
			MinDrift:  0.15,
			MinAlpha:  0.1,
			MaxAlpha:  0.8,
			MinSize:   1.5,
			MaxSize:   3,

			BurnoutMaxSpeedFraction: 0.2,
			BurnoutIntensity:        0.7,
			BurnoutTyreReduction:    0.8,
		},
		Surfaces: SurfaceConfig{
			Surfaces: map[string]Surface{
				"asphalt": {
					GroundColor: 0x555555,
					Terrain: TerrainMultipliers{
						Speed: 0.7, Acceleration: 0.5, Grip: 0.8, Slip: 1.0, Brake: 0.9, Drag: 1.2,
					},
					Trail: Trail{Color: 0x222222, Type: "skidmark", MinAlpha: 0.1, MaxAlpha: 0.8},
				},
				"grass": {
					GroundColor: 0x2d5a1e,
					Terrain: TerrainMultipliers{
						Speed: 0.35, Acceleration: 0.25, Grip: 0.4, Slip: 1.8, Brake: 0.5, Drag: 2.5,
					},
					Trail: Trail{Color: 0x1a4a10, Type: "displacement", MinAlpha: 0.15, MaxAlpha: 0.5},
				},
				"sand": {
					GroundColor: 0xc4a45a,
					Terrain: TerrainMultipliers{
						Speed: 0.25, Acceleration: 0.2, Grip: 0.3, Slip: 2.5, Brake: 0.4, Drag: 3.0,
					},
					Trail: Trail{Color: 0x9a8040, Type: "print", MinAlpha: 0.2, MaxAlpha: 0.6},
				},
				"snow": {
					GroundColor: 0xddeeff,
					Terrain: TerrainMultipliers{
						Speed: 0.3, Acceleration: 0.2, Grip: 0.25, Slip: 3.0, Brake: 0.3, Drag: 2.0,
					},
					Trail: Trail{Color: 0xbbccdd, Type: "print", MinAlpha: 0.2, MaxAlpha: 0.7},
				},
			},
			Road:                Neutral(),
			RoadTrail:           Trail{Color: 0x222222, Type: "skidmark", MinAlpha: 0.1, MaxAlpha: 0.8},
			TransitionRate:      1.0,
			SpeedTransitionTime: 3.0,
		},
		Track: TrackConfig{
			RoadColor:        0x3a3545,
			WallColor:        0x5a4a60,
			CenterLineColor:  0xffcc22,
			EdgeColor:        0xffffff,
			GrassColor:       0x2d5a1e,
			WallBounce:       0.55,
			DefaultTerrain:   "grass",
			WorldPadding:     400,
			BoundsMargin:     200,
			PushInset:        10,
			DefaultHalfWidth: 40,
		},
		Simulation: SimulationConfig{
			TimeStep:  1.0 / 60.0,
			CarRadius: 15,
		},
	}
}
