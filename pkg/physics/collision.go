// pkg/physics/collision.go
package physics

import "math"

// Object kinds accepted by the track object factory
const (
	KindBarrier  = "barrier"
	KindTireWall = "tire_wall"
)

// Barrier and tire wall defaults
const (
	DefaultBarrierThickness  = 10.0
	DefaultBarrierBounce     = 0.5
	DefaultBarrierColor      = 0xff0000
	DefaultBarrierStripe     = 0xffffff
	DefaultTireWallThickness = 15.0
	DefaultTireWallBounce    = 0.3
	DefaultTireWallColor     = 0x333333
	DefaultTireWallStripe    = 0x666666
)

// Collision describes how to resolve penetration into a collidable object
type Collision struct {
	// Position is where the query circle must be placed to stop touching the object
	Position Vector2D
	// Normal points from the object toward the query point
	Normal Vector2D
	// Bounce is the fraction of speed and slip retained after impact
	Bounce float64
	// Penetration is how deep the circle was inside the object
	Penetration float64
}

// PushOut returns the displacement that moves from to the resolved position
func (c Collision) PushOut(from Vector2D) Vector2D {
	return c.Position.Sub(from)
}

// Collidable is anything a car can hit
type Collidable interface {
	Kind() string
	CheckCollision(point Vector2D, radius float64) (Collision, bool)
}

// Segment is a thick line obstacle
type Segment struct {
	Start     Vector2D
	End       Vector2D
	Thickness float64
	Bounce    float64
}

// Normal returns the unit perpendicular of the segment, or zero for a degenerate segment
func (s Segment) Normal() Vector2D {
	return s.End.Sub(s.Start).Perpendicular().Normalize()
}

// NearestPoint projects point onto the segment and clamps to its endpoints
func (s Segment) NearestPoint(point Vector2D) (Vector2D, float64) {
	d := s.End.Sub(s.Start)
	lengthSq := d.LengthSquared()
	if lengthSq == 0 {
		return s.Start, 0
	}
	t := Clamp(point.Sub(s.Start).Dot(d)/lengthSq, 0, 1)
	return s.Start.Add(d.Scale(t)), t
}

// CheckCollision tests a circle of the given radius against the thick segment
func (s Segment) CheckCollision(point Vector2D, radius float64) (Collision, bool) {
	nearest, _ := s.NearestPoint(point)
	offset := point.Sub(nearest)
	dist := offset.Length()

	reach := s.Thickness/2 + radius
	if dist >= reach {
		return Collision{}, false
	}

	push, err := offset.Direction()
	if err != nil {
		// Point sits on the centre line: push along the segment normal
		push = s.Normal()
		if push.LengthSquared() == 0 {
			push = Vector2D{X: 1}
		}
	}

	return Collision{
		Position:    nearest.Add(push.Scale(reach)),
		Normal:      push,
		Bounce:      s.Bounce,
		Penetration: reach - dist,
	}, true
}

// Barrier is a hard red/white striped wall
type Barrier struct {
	Segment
	Color       uint32
	StripeColor uint32
}

// BarrierOptions carries optional per-object overrides; zero means default
type BarrierOptions struct {
	Thickness float64
	Bounce    float64
	Color     uint32
}

// NewBarrier creates a barrier between two points
func NewBarrier(start, end Vector2D, opts BarrierOptions) *Barrier {
	return &Barrier{
		Segment: Segment{
			Start:     start,
			End:       end,
			Thickness: orDefault(opts.Thickness, DefaultBarrierThickness),
			Bounce:    orDefault(opts.Bounce, DefaultBarrierBounce),
		},
		Color:       orDefaultColor(opts.Color, DefaultBarrierColor),
		StripeColor: DefaultBarrierStripe,
	}
}

// Kind implements Collidable
func (b *Barrier) Kind() string { return KindBarrier }

// Length returns the barrier length, used for stripe counts
func (b *Barrier) Length() float64 {
	return b.Start.Distance(b.End)
}

// TireWall is a soft barrier that absorbs more of the impact
type TireWall struct {
	Barrier
}

// NewTireWall creates a tire wall; colour overrides are ignored
func NewTireWall(start, end Vector2D, opts BarrierOptions) *TireWall {
	return &TireWall{
		Barrier: Barrier{
			Segment: Segment{
				Start:     start,
				End:       end,
				Thickness: orDefault(opts.Thickness, DefaultTireWallThickness),
				Bounce:    orDefault(opts.Bounce, DefaultTireWallBounce),
			},
			Color:       DefaultTireWallColor,
			StripeColor: DefaultTireWallStripe,
		},
	}
}

// Kind implements Collidable
func (w *TireWall) Kind() string { return KindTireWall }

func orDefault(value, fallback float64) float64 {
	if value <= 0 || math.IsNaN(value) {
		return fallback
	}
	return value
}

func orDefaultColor(value, fallback uint32) uint32 {
	if value == 0 {
		return fallback
	}
	return value
}
