// pkg/physics/vector.go
package physics

import (
	"errors"
	"math"
)

// ErrZeroVector is returned when a direction is requested from a zero-length vector
var ErrZeroVector = errors.New("zero-length vector has no direction")

// Vector2D represents a 2D vector in world units (x right, y down)
type Vector2D struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns the sum of two vectors
func (v Vector2D) Add(other Vector2D) Vector2D {
	return Vector2D{
		X: v.X + other.X,
		Y: v.Y + other.Y,
	}
}

// Sub returns the difference between two vectors
func (v Vector2D) Sub(other Vector2D) Vector2D {
	return Vector2D{
		X: v.X - other.X,
		Y: v.Y - other.Y,
	}
}

// Scale multiplies the vector by a scalar value
func (v Vector2D) Scale(factor float64) Vector2D {
	return Vector2D{
		X: v.X * factor,
		Y: v.Y * factor,
	}
}

// Length returns the magnitude of the vector
func (v Vector2D) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// LengthSquared returns magnitude squared (optimization for comparisons)
func (v Vector2D) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Normalize returns a unit vector in the same direction.
// The zero vector normalizes to itself; use Direction when a zero
// length must be reported.
func (v Vector2D) Normalize() Vector2D {
	length := v.Length()
	if length == 0 {
		return Vector2D{}
	}
	return Vector2D{
		X: v.X / length,
		Y: v.Y / length,
	}
}

// Direction returns the unit vector of v, or ErrZeroVector
func (v Vector2D) Direction() (Vector2D, error) {
	length := v.Length()
	if length == 0 || math.IsNaN(length) {
		return Vector2D{}, ErrZeroVector
	}
	return Vector2D{X: v.X / length, Y: v.Y / length}, nil
}

// Distance returns the distance between two points
func (v Vector2D) Distance(other Vector2D) float64 {
	return v.Sub(other).Length()
}

// Angle returns the angle of the vector in radians
func (v Vector2D) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// FromAngle creates a vector from an angle and magnitude
func FromAngle(angle float64, magnitude float64) Vector2D {
	return Vector2D{
		X: magnitude * math.Cos(angle),
		Y: magnitude * math.Sin(angle),
	}
}

// Dot returns the dot product of two vectors
func (v Vector2D) Dot(other Vector2D) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Cross returns the z component of the 3D cross product of v and other
func (v Vector2D) Cross(other Vector2D) float64 {
	return v.X*other.Y - v.Y*other.X
}

// Perpendicular returns v rotated a quarter turn: (-y, x)
func (v Vector2D) Perpendicular() Vector2D {
	return Vector2D{X: -v.Y, Y: v.X}
}

// ClampLength scales v down so its length does not exceed limit
func (v Vector2D) ClampLength(limit float64) Vector2D {
	if limit <= 0 {
		return Vector2D{}
	}
	lengthSq := v.LengthSquared()
	if lengthSq <= limit*limit {
		return v
	}
	return v.Scale(limit / math.Sqrt(lengthSq))
}

// Lerp interpolates between v and other by t
func (v Vector2D) Lerp(other Vector2D, t float64) Vector2D {
	return Vector2D{
		X: v.X + (other.X-v.X)*t,
		Y: v.Y + (other.Y-v.Y)*t,
	}
}

// Orientation returns the signed area of the triangle a, b, c.
// Positive means c lies to the left of a->b in a y-up frame.
func Orientation(a, b, c Vector2D) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}

// SegmentsCross reports whether segments a1-a2 and b1-b2 properly cross.
// Touching endpoints and collinear overlaps do not count.
func SegmentsCross(a1, a2, b1, b2 Vector2D) bool {
	d1 := Orientation(b1, b2, a1)
	d2 := Orientation(b1, b2, a2)
	d3 := Orientation(a1, a2, b1)
	d4 := Orientation(a1, a2, b2)

	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

// Clamp limits value to the range [lo, hi]
func Clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// Sign returns -1, 0 or 1
func Sign(value float64) float64 {
	switch {
	case value > 0:
		return 1
	case value < 0:
		return -1
	default:
		return 0
	}
}

// MoveToward moves current toward target by at most maxDelta
func MoveToward(current, target, maxDelta float64) float64 {
	if maxDelta <= 0 {
		return current
	}
	if math.Abs(target-current) <= maxDelta {
		return target
	}
	return current + Sign(target-current)*maxDelta
}
