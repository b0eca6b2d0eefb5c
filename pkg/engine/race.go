// Package engine runs races: it owns the loaded course and the cars on it
// and advances them in fixed steps, publishing race events as they happen.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-rally/pkg/config"
	"github.com/opd-ai/go-rally/pkg/event"
	"github.com/opd-ai/go-rally/pkg/logging"
	"github.com/opd-ai/go-rally/pkg/physics"
	"github.com/opd-ai/go-rally/pkg/stats"
	"github.com/opd-ai/go-rally/pkg/track"
	"github.com/opd-ai/go-rally/pkg/vehicle"
)

var (
	// ErrNoTrack is returned when cars are added before a track is loaded
	ErrNoTrack = errors.New("no track loaded")
	// ErrCarNotFound is returned for unknown car IDs
	ErrCarNotFound = errors.New("car not found")
)

// Car is one driver in the race
type Car struct {
	ID     string
	Name   string
	Entity ecs.BasicEntity
	State  *vehicle.State
	Input  vehicle.Input

	Terrain   string
	Lap       int // completed laps
	NextGate  int
	started   bool
	lapStart  float64
	LastLap   float64
	BestLap   float64
	lastFrame Frame
}

// Frame is the per-tick output for one car
type Frame struct {
	Tick  uint64 `json:"tick"`
	CarID string `json:"carId"`
	vehicle.Telemetry

	Terrain  string           `json:"terrain"`
	OnTrack  bool             `json:"onTrack"`
	Trail    config.Trail     `json:"trail"`
	SkidMark vehicle.SkidMark `json:"skidMark"`
	// PushOut is set when the car hit a track object this tick
	PushOut *physics.Collision `json:"pushOut,omitempty"`

	Lap      int     `json:"lap"`
	NextGate int     `json:"nextGate"`
	LapTime  float64 `json:"lapTime"` // time into the current lap
	LastLap  float64 `json:"lastLap,omitempty"`
	BestLap  float64 `json:"bestLap,omitempty"`
}

// Race represents one running race and its cars
type Race struct {
	ID     string
	Config *config.GameConfig
	// EventBus handlers run inside Step and must not call back into the race
	EventBus    *event.Bus
	TimeStep    float64 // seconds per tick
	CurrentTick uint64
	ElapsedTime float64 // seconds

	mu        sync.Mutex
	ctx       context.Context
	logger    *logging.Logger
	converter *stats.Converter
	world     *ecs.World
	driving   *DrivingSystem
	course    Course
	cars      map[string]*Car
}

// NewRace creates an empty race. A nil logger discards output.
func NewRace(cfg *config.GameConfig, logger *logging.Logger) (*Race, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	id := logging.NewID()
	race := &Race{
		ID:        id,
		Config:    cfg,
		EventBus:  event.NewEventBus(),
		TimeStep:  cfg.Simulation.TimeStep,
		ctx:       logging.WithRaceID(context.Background(), id),
		logger:    logger,
		converter: stats.NewConverter(cfg),
		world:     &ecs.World{},
		cars:      make(map[string]*Car),
	}
	race.driving = &DrivingSystem{race: race}
	race.world.AddSystem(race.driving)
	return race, nil
}

// LoadTrack builds geometry from def and swaps it in. On failure the
// current track stays in place. Cars are moved back to the start.
func (r *Race) LoadTrack(def *track.Definition) error {
	geometry, err := track.New(def, r.Config.Track)
	if err != nil {
		r.logger.Error(r.ctx, "failed to load track", err)
		return logging.WrapError(err, "loading track")
	}
	r.UseCourse(geometry)

	r.logger.Info(r.ctx, "track loaded",
		"name", geometry.Name(),
		"samples", len(geometry.Samples()),
		"objects", len(geometry.Objects()),
		"checkpoints", len(geometry.Checkpoints()))
	r.EventBus.Publish(event.NewTrackEvent(r, geometry.Name(), len(geometry.Samples()), len(geometry.Checkpoints())))
	return nil
}

// UseCourse swaps in any course implementation and resets every car to the start
func (r *Race) UseCourse(c Course) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.course = c
	for _, car := range r.driving.cars {
		r.resetCar(car)
	}
}

// Course returns the current course, or nil before a track is loaded
func (r *Race) Course() Course {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.course
}

// Progress returns the tick count and simulated seconds so far
func (r *Race) Progress() (tick uint64, elapsed float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.CurrentTick, r.ElapsedTime
}

// AddCar converts design stats and places a new car on the start line
func (r *Race) AddCar(name string, design stats.DesignStats) (string, error) {
	profile, err := r.converter.Convert(design)
	if err != nil {
		return "", logging.WrapError(err, "car %q", name)
	}
	state, err := vehicle.NewState(profile, r.Config)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.course == nil {
		return "", ErrNoTrack
	}

	car := &Car{
		ID:     logging.NewID(),
		Name:   name,
		Entity: ecs.NewBasic(),
		State:  state,
	}
	r.resetCar(car)
	r.cars[car.ID] = car
	r.driving.Add(car)

	r.logger.Info(logging.WithCarID(r.ctx, car.ID), "car spawned",
		"name", name,
		"max_speed_kmh", design.MaxSpeed,
		"gears", len(profile.Gears),
		"predicted_0_100", r.converter.Predict(profile, stats.CalibrationSpeedKmh))
	r.EventBus.Publish(event.NewCarEvent(event.CarSpawned, r, car.ID, state.Position, state.Heading))
	return car.ID, nil
}

// resetCar puts a car at rest on the start line with a fresh lap count
func (r *Race) resetCar(car *Car) {
	spawn := r.course.SpawnPosition()
	car.State.Place(spawn.Position, spawn.Angle)
	car.Terrain = ""
	r.updateTerrain(logging.WithCarID(r.ctx, car.ID), car)
	car.Lap = 0
	car.LastLap = 0
	car.BestLap = 0
	car.lapStart = r.ElapsedTime

	// A car spawned on the finish line is already racing its first lap
	gates := r.course.Checkpoints()
	car.started = len(gates) > 0 && gates[0].Checkpoint == 0
	car.NextGate = 0
	if car.started && len(gates) > 0 {
		car.NextGate = 1 % len(gates)
	}
	car.lastFrame = r.frame(car, car.State.Integrate(0, vehicle.Input{}), nil)
}

// SetInput sets the controls a car will use from the next tick on
func (r *Race) SetInput(id string, in vehicle.Input) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	car, ok := r.cars[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCarNotFound, id)
	}
	car.Input = in
	return nil
}

// RemoveCar takes a car out of the race
func (r *Race) RemoveCar(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	car, ok := r.cars[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCarNotFound, id)
	}
	delete(r.cars, id)
	r.world.RemoveEntity(car.Entity)

	r.logger.Info(logging.WithCarID(r.ctx, id), "car removed", "laps", car.Lap)
	r.EventBus.Publish(event.NewCarEvent(event.CarRemoved, r, id, car.State.Position, car.State.Heading))
	return nil
}

// RecoverCar stops a car and moves it just inside the nearest road edge,
// keeping its heading and lap progress.
func (r *Race) RecoverCar(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	car, ok := r.cars[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCarNotFound, id)
	}
	pos := r.course.PushToTrack(car.State.Position)
	car.State.Place(pos, car.State.Heading)
	if car.Terrain != "" {
		multipliers, _ := r.surface(car.Terrain)
		car.State.SetTerrain(multipliers)
	}
	r.logger.Debug(logging.WithCarID(r.ctx, id), "car recovered", "x", pos.X, "y", pos.Y)
	return nil
}

// Snapshot returns the latest frame for a car
func (r *Race) Snapshot(id string) (Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	car, ok := r.cars[id]
	if !ok {
		return Frame{}, false
	}
	return car.lastFrame, true
}

// Step advances the race by dt seconds and returns one frame per car in
// spawn order. Non-positive or non-finite steps change nothing.
func (r *Race) Step(dt float64) []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.course == nil || !(dt > 0) || math.IsInf(dt, 0) {
		return nil
	}

	r.CurrentTick++
	r.ElapsedTime += dt
	r.driving.step = dt
	r.world.Update(float32(dt))
	return r.driving.frames
}

// Tick advances the race by one configured time step
func (r *Race) Tick() []Frame {
	return r.Step(r.TimeStep)
}

// drive runs one car through a tick: integration on the surface it starts
// on, object collision, terrain under the new position, then checkpoint
// progress. The frame reports the surface at the position it carries.
func (r *Race) drive(car *Car, dt float64) Frame {
	ctx := logging.WithCarID(r.ctx, car.ID)
	state := car.State

	// no-op unless the car was recovered since its last tick
	r.updateTerrain(ctx, car)

	from := state.Position
	gear := state.Gear
	tel := state.Integrate(dt, car.Input)

	var pushOut *physics.Collision
	if hit, ok := r.course.CheckObjectCollision(state.Position, r.Config.Simulation.CarRadius); ok {
		speed := state.SpeedKmh()
		state.ApplyCollision(hit.Collision)
		c := hit.Collision
		pushOut = &c

		r.logger.Debug(ctx, "wall hit", "kind", hit.Object.Kind(), "speed_kmh", speed, "bounce", c.Bounce)
		r.EventBus.Publish(event.NewCollisionEvent(r, car.ID, hit.Object.Kind(), c, speed))

		tel.Position = state.Position
		tel.SpeedKmh = state.SpeedKmh()
	}

	if tel.GearChanged {
		r.EventBus.Publish(event.NewGearEvent(r, car.ID, gear+1, tel.Gear, tel.SpeedKmh))
	}

	r.updateTerrain(ctx, car)

	r.updateLaps(ctx, car, from, state.Position)

	car.lastFrame = r.frame(car, tel, pushOut)
	return car.lastFrame
}

func (r *Race) updateTerrain(ctx context.Context, car *Car) {
	key := r.course.TerrainAt(car.State.Position)
	if key == car.Terrain {
		return
	}

	multipliers, _ := r.surface(key)
	car.State.SetTerrain(multipliers)

	if car.Terrain != "" {
		r.logger.Debug(ctx, "terrain changed", "from", car.Terrain, "to", key)
		r.EventBus.Publish(event.NewTerrainEvent(r, car.ID, car.Terrain, key))
	}
	car.Terrain = key
}

// surface returns the multipliers and trail for a terrain key. Unknown keys
// drive like the road.
func (r *Race) surface(key string) (config.TerrainMultipliers, config.Trail) {
	if key != track.RoadTerrain {
		if s, ok := r.Config.Surface(key); ok {
			return s.Terrain, s.Trail
		}
	}
	return r.Config.Surfaces.Road, r.Config.Surfaces.RoadTrail
}

func (r *Race) updateLaps(ctx context.Context, car *Car, from, to physics.Vector2D) {
	gates := r.course.Checkpoints()
	if len(gates) == 0 || car.NextGate >= len(gates) {
		return
	}
	gate := gates[car.NextGate]
	if !gate.Crossed(from, to) {
		return
	}

	switch {
	case car.NextGate == 0 && !car.started:
		car.started = true
		car.lapStart = r.ElapsedTime
		r.EventBus.Publish(event.NewLapEvent(event.CheckpointPassed, r, car.ID, car.Lap, gate.Checkpoint, 0))
	case car.NextGate == 0:
		lapTime := r.ElapsedTime - car.lapStart
		car.lapStart = r.ElapsedTime
		car.Lap++
		car.LastLap = lapTime
		if car.BestLap == 0 || lapTime < car.BestLap {
			car.BestLap = lapTime
		}
		r.logger.Info(ctx, "lap completed", "lap", car.Lap, "lap_time", lapTime, "best_lap", car.BestLap)
		r.EventBus.Publish(event.NewLapEvent(event.LapCompleted, r, car.ID, car.Lap, gate.Checkpoint, lapTime))
	default:
		r.EventBus.Publish(event.NewLapEvent(event.CheckpointPassed, r, car.ID, car.Lap, gate.Checkpoint, 0))
	}
	car.NextGate = (car.NextGate + 1) % len(gates)
}

func (r *Race) frame(car *Car, tel vehicle.Telemetry, pushOut *physics.Collision) Frame {
	_, trail := r.surface(car.Terrain)

	f := Frame{
		Tick:      r.CurrentTick,
		CarID:     car.ID,
		Telemetry: tel,
		Terrain:   car.Terrain,
		OnTrack:   r.course.IsOnTrack(car.State.Position),
		Trail:     trail,
		SkidMark:  car.State.SkidMark(),
		PushOut:   pushOut,
		Lap:       car.Lap,
		NextGate:  car.NextGate,
		LastLap:   car.LastLap,
		BestLap:   car.BestLap,
	}
	if car.started {
		f.LapTime = r.ElapsedTime - car.lapStart
	}
	return f
}
