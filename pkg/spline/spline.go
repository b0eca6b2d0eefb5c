// Package spline turns sparse track control points into a dense Catmull-Rom
// centerline carrying width and a unit normal at every sample.
package spline

import (
	"errors"
	"fmt"

	"github.com/opd-ai/go-rally/pkg/physics"
)

// DefaultWidth replaces a zero half-width on a control point
const DefaultWidth = 40.0

// MinControlPoints is the smallest number of control points that forms a window
const MinControlPoints = 4

var (
	// ErrInsufficientPoints is returned for fewer than MinControlPoints control points
	ErrInsufficientPoints = errors.New("insufficient geometry: spline needs at least 4 control points")
	// ErrDegenerateGeometry is returned when coincident samples leave no tangent direction
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)

// ControlPoint is an authored track vertex with half-widths to each side
type ControlPoint struct {
	X          float64 `json:"x" yaml:"x"`
	Y          float64 `json:"y" yaml:"y"`
	WidthLeft  float64 `json:"widthL" yaml:"widthL"`
	WidthRight float64 `json:"widthR" yaml:"widthR"`
}

// Position returns the control point as a vector
func (c ControlPoint) Position() physics.Vector2D {
	return physics.Vector2D{X: c.X, Y: c.Y}
}

// Point is one generated centerline sample
type Point struct {
	X          float64
	Y          float64
	WidthLeft  float64
	WidthRight float64
	Normal     physics.Vector2D // unit length, points to the left edge
	Segment    int              // control point index the sample starts from
	T          float64          // parameter within the segment, [0,1)
}

// Position returns the sample as a vector
func (p Point) Position() physics.Vector2D {
	return physics.Vector2D{X: p.X, Y: p.Y}
}

// Edges returns the left and right road edge at the sample
func (p Point) Edges() (left, right physics.Vector2D) {
	pos := p.Position()
	return pos.Add(p.Normal.Scale(p.WidthLeft)), pos.Sub(p.Normal.Scale(p.WidthRight))
}

// catmullRom evaluates the uniform Catmull-Rom cubic through v1 (t=0) and v2 (t=1)
func catmullRom(v0, v1, v2, v3, t float64) float64 {
	t2 := t * t
	t3 := t2 * t
	return 0.5 * (2*v1 +
		(-v0+v2)*t +
		(2*v0-5*v1+4*v2-v3)*t2 +
		(-v0+3*v1-3*v2+v3)*t3)
}

func widthOrDefault(w float64) float64 {
	if w == 0 {
		return DefaultWidth
	}
	return w
}

// Generate samples resolution points per control-point window. Closed splines
// wrap and yield len(points)*resolution samples; open splines clamp the end
// windows and yield (len(points)-1)*resolution samples.
func Generate(points []ControlPoint, resolution int, closed bool) ([]Point, error) {
	if err := checkInput(points, resolution); err != nil {
		return nil, err
	}

	result := make([]Point, 0, len(points)*resolution)
	eachSample(points, resolution, closed, func(i int, t float64, p0, p1, p2, p3 ControlPoint) {
		result = append(result, Point{
			X: catmullRom(p0.X, p1.X, p2.X, p3.X, t),
			Y: catmullRom(p0.Y, p1.Y, p2.Y, p3.Y, t),
			WidthLeft: catmullRom(widthOrDefault(p0.WidthLeft), widthOrDefault(p1.WidthLeft),
				widthOrDefault(p2.WidthLeft), widthOrDefault(p3.WidthLeft), t),
			WidthRight: catmullRom(widthOrDefault(p0.WidthRight), widthOrDefault(p1.WidthRight),
				widthOrDefault(p2.WidthRight), widthOrDefault(p3.WidthRight), t),
			Segment: i,
			T:       t,
		})
	})

	if err := computeNormals(result, closed); err != nil {
		return nil, err
	}
	return result, nil
}

// Sample returns centerline positions only. It never fails on coincident
// points, which makes it suitable for shape checks on work-in-progress edits.
func Sample(points []ControlPoint, resolution int, closed bool) ([]physics.Vector2D, error) {
	if err := checkInput(points, resolution); err != nil {
		return nil, err
	}

	out := make([]physics.Vector2D, 0, len(points)*resolution)
	eachSample(points, resolution, closed, func(_ int, t float64, p0, p1, p2, p3 ControlPoint) {
		out = append(out, physics.Vector2D{
			X: catmullRom(p0.X, p1.X, p2.X, p3.X, t),
			Y: catmullRom(p0.Y, p1.Y, p2.Y, p3.Y, t),
		})
	})
	return out, nil
}

func checkInput(points []ControlPoint, resolution int) error {
	if len(points) < MinControlPoints {
		return fmt.Errorf("%w, got %d", ErrInsufficientPoints, len(points))
	}
	if resolution < 1 {
		return fmt.Errorf("spline resolution must be positive, got %d", resolution)
	}
	return nil
}

// eachSample walks every control-point window, wrapping when closed and
// clamping the end windows when open.
func eachSample(points []ControlPoint, resolution int, closed bool,
	fn func(segment int, t float64, p0, p1, p2, p3 ControlPoint)) {
	n := len(points)
	index := func(i int) int {
		if closed {
			return ((i % n) + n) % n
		}
		if i < 0 {
			return 0
		}
		if i >= n {
			return n - 1
		}
		return i
	}

	windows := n
	if !closed {
		windows = n - 1
	}
	for i := 0; i < windows; i++ {
		p0, p1, p2, p3 := points[index(i-1)], points[index(i)], points[index(i+1)], points[index(i+2)]
		for j := 0; j < resolution; j++ {
			fn(i, float64(j)/float64(resolution), p0, p1, p2, p3)
		}
	}
}

// computeNormals sets each normal from the central difference of its neighbours.
// Open ends use a one-sided difference.
func computeNormals(samples []Point, closed bool) error {
	m := len(samples)
	for i := range samples {
		prev, next := i-1, i+1
		if closed {
			prev = (prev + m) % m
			next = next % m
		} else {
			if prev < 0 {
				prev = 0
			}
			if next >= m {
				next = m - 1
			}
		}

		tangent := samples[next].Position().Sub(samples[prev].Position())
		normal, err := tangent.Perpendicular().Direction()
		if err != nil {
			return fmt.Errorf("%w: zero-length tangent at sample %d (segment %d)",
				ErrDegenerateGeometry, i, samples[i].Segment)
		}
		samples[i].Normal = normal
	}
	return nil
}

// Centerline returns the sample positions only
func Centerline(samples []Point) []physics.Vector2D {
	out := make([]physics.Vector2D, len(samples))
	for i, p := range samples {
		out[i] = p.Position()
	}
	return out
}
