package engine

import (
	"github.com/EngoEngine/ecs"
)

// DrivingSystem integrates every car once per world update, in spawn order
type DrivingSystem struct {
	race   *Race
	cars   []*Car
	step   float64 // exact tick length; ecs hands Update a float32
	frames []Frame
}

// Add registers a car with the system
func (d *DrivingSystem) Add(car *Car) {
	d.cars = append(d.cars, car)
}

// Remove satisfies the ecs.System interface
func (d *DrivingSystem) Remove(basic ecs.BasicEntity) {
	for i, car := range d.cars {
		if car.Entity.ID() == basic.ID() {
			d.cars = append(d.cars[:i], d.cars[i+1:]...)
			return
		}
	}
}

// Update satisfies the ecs.System interface
func (d *DrivingSystem) Update(dt float32) {
	step := d.step
	if step <= 0 {
		step = float64(dt)
	}

	frames := make([]Frame, 0, len(d.cars))
	for _, car := range d.cars {
		frames = append(frames, d.race.drive(car, step))
	}
	d.frames = frames
}

// Priority runs driving before any lower-priority system
func (d *DrivingSystem) Priority() int {
	return 10
}
