// Package event carries race notifications from the simulation to listeners
// such as loggers, HUDs and lap timers.
package event

import (
	"sync"

	"github.com/opd-ai/go-rally/pkg/physics"
)

// Type represents the type of event
type Type string

// Race event types
const (
	TrackLoaded      Type = "track_loaded"
	CarSpawned       Type = "car_spawned"
	CarRemoved       Type = "car_removed"
	GearShifted      Type = "gear_shifted"
	TerrainChanged   Type = "terrain_changed"
	WallCollision    Type = "wall_collision"
	CheckpointPassed Type = "checkpoint_passed"
	LapCompleted     Type = "lap_completed"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription identifies a registered handler. Cancel removes it.
type Subscription struct {
	ID     uint64
	Cancel func()
}

type subscriber struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching
type Bus struct {
	handlers map[Type][]subscriber
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]subscriber),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], subscriber{id: id, handler: handler})

	return &Subscription{
		ID:     id,
		Cancel: func() { b.unsubscribe(eventType, id) },
	}
}

func (b *Bus) unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[eventType]
	for i, s := range subs {
		if s.id == id {
			b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribed handlers, in subscription order
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	subs := b.handlers[event.GetType()]
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(event)
	}
}

// Specific event implementations

// CarEvent is published when a car joins or leaves the race
type CarEvent struct {
	BaseEvent
	CarID    string
	Position physics.Vector2D
	Heading  float64
}

// NewCarEvent creates a new car event
func NewCarEvent(eventType Type, source interface{}, carID string, pos physics.Vector2D, heading float64) *CarEvent {
	return &CarEvent{
		BaseEvent: BaseEvent{EventType: eventType, Source: source},
		CarID:     carID,
		Position:  pos,
		Heading:   heading,
	}
}

// TrackEvent is published after a track has been swapped in
type TrackEvent struct {
	BaseEvent
	Name        string
	Samples     int
	Checkpoints int
}

// NewTrackEvent creates a new track event
func NewTrackEvent(source interface{}, name string, samples, checkpoints int) *TrackEvent {
	return &TrackEvent{
		BaseEvent:   BaseEvent{EventType: TrackLoaded, Source: source},
		Name:        name,
		Samples:     samples,
		Checkpoints: checkpoints,
	}
}

// GearEvent contains information about a gear change. Gears are 1-based.
type GearEvent struct {
	BaseEvent
	CarID    string
	From     int
	To       int
	SpeedKmh float64
}

// NewGearEvent creates a new gear event
func NewGearEvent(source interface{}, carID string, from, to int, speedKmh float64) *GearEvent {
	return &GearEvent{
		BaseEvent: BaseEvent{EventType: GearShifted, Source: source},
		CarID:     carID,
		From:      from,
		To:        to,
		SpeedKmh:  speedKmh,
	}
}

// TerrainEvent is published when the surface under a car changes
type TerrainEvent struct {
	BaseEvent
	CarID string
	From  string
	To    string
}

// NewTerrainEvent creates a new terrain event
func NewTerrainEvent(source interface{}, carID, from, to string) *TerrainEvent {
	return &TerrainEvent{
		BaseEvent: BaseEvent{EventType: TerrainChanged, Source: source},
		CarID:     carID,
		From:      from,
		To:        to,
	}
}

// CollisionEvent contains information about a car hitting a track object
type CollisionEvent struct {
	BaseEvent
	CarID      string
	ObjectKind string
	Collision  physics.Collision
	SpeedKmh   float64 // speed before the bounce
}

// NewCollisionEvent creates a new collision event
func NewCollisionEvent(source interface{}, carID, kind string, c physics.Collision, speedKmh float64) *CollisionEvent {
	return &CollisionEvent{
		BaseEvent:  BaseEvent{EventType: WallCollision, Source: source},
		CarID:      carID,
		ObjectKind: kind,
		Collision:  c,
		SpeedKmh:   speedKmh,
	}
}

// LapEvent is published for checkpoint passes and completed laps.
// LapTime is only set on LapCompleted.
type LapEvent struct {
	BaseEvent
	CarID      string
	Lap        int
	Checkpoint int
	LapTime    float64
}

// NewLapEvent creates a new lap event
func NewLapEvent(eventType Type, source interface{}, carID string, lap, checkpoint int, lapTime float64) *LapEvent {
	return &LapEvent{
		BaseEvent:  BaseEvent{EventType: eventType, Source: source},
		CarID:      carID,
		Lap:        lap,
		Checkpoint: checkpoint,
		LapTime:    lapTime,
	}
}
