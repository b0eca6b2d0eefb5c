package track

import (
	"errors"
	"fmt"
	"math"

	"github.com/opd-ai/go-rally/pkg/spline"
)

// ErrSelfIntersecting is returned when an edit would make the centerline cross itself
var ErrSelfIntersecting = errors.New("track would cross itself")

// Editor width limits for a single side
const (
	MinEditWidth = 20.0
	MaxEditWidth = 200.0
)

// Editor applies validated edits to a closed track path
type Editor struct {
	name    string
	terrain string
	path    []spline.ControlPoint
}

// NewEditor starts an edit session from a definition. The path is copied.
func NewEditor(def *Definition) *Editor {
	return &Editor{
		name:    def.Name,
		terrain: def.TerrainKey,
		path:    append([]spline.ControlPoint(nil), def.Path...),
	}
}

// SetName sets the track name used by Definition
func (e *Editor) SetName(name string) {
	e.name = name
}

// SetTerrain sets the off-road terrain key used by Definition
func (e *Editor) SetTerrain(key string) {
	e.terrain = key
}

// Points returns a copy of the current path
func (e *Editor) Points() []spline.ControlPoint {
	return append([]spline.ControlPoint(nil), e.path...)
}

func (e *Editor) checkIndex(i int) error {
	if i < 0 || i >= len(e.path) {
		return fmt.Errorf("control point %d out of range [0,%d)", i, len(e.path))
	}
	return nil
}

// MovePoint moves control point i. A move that makes the track cross itself
// is undone and reported as ErrSelfIntersecting.
func (e *Editor) MovePoint(i int, x, y float64) error {
	if err := e.checkIndex(i); err != nil {
		return err
	}
	prev := e.path[i]
	e.path[i].X, e.path[i].Y = x, y
	if SelfIntersects(e.path) {
		e.path[i] = prev
		return fmt.Errorf("moving point %d to (%.0f, %.0f): %w", i, x, y, ErrSelfIntersecting)
	}
	return nil
}

// InsertNear inserts a point at the midpoint of the control segment whose
// midpoint is nearest to (x, y). Widths are averaged. Returns the new index.
func (e *Editor) InsertNear(x, y float64) int {
	n := len(e.path)
	if n == 0 {
		e.path = append(e.path, spline.ControlPoint{X: x, Y: y})
		return 0
	}

	best, bestDist := 0, math.Inf(1)
	for i := 0; i < n; i++ {
		a, b := e.path[i], e.path[(i+1)%n]
		d := math.Hypot((a.X+b.X)/2-x, (a.Y+b.Y)/2-y)
		if d < bestDist {
			best, bestDist = i, d
		}
	}

	a, b := e.path[best], e.path[(best+1)%n]
	mid := spline.ControlPoint{
		X:          (a.X + b.X) / 2,
		Y:          (a.Y + b.Y) / 2,
		WidthLeft:  (a.WidthLeft + b.WidthLeft) / 2,
		WidthRight: (a.WidthRight + b.WidthRight) / 2,
	}

	at := best + 1
	e.path = append(e.path, spline.ControlPoint{})
	copy(e.path[at+1:], e.path[at:])
	e.path[at] = mid
	return at
}

// DeletePoint removes control point i. It refuses to drop below the minimum
// a spline needs and reports whether a point was removed.
func (e *Editor) DeletePoint(i int) bool {
	if len(e.path) <= spline.MinControlPoints || e.checkIndex(i) != nil {
		return false
	}
	e.path = append(e.path[:i], e.path[i+1:]...)
	return true
}

// AdjustWidth changes both half-widths of point i by delta, clamped to the editor limits
func (e *Editor) AdjustWidth(i int, delta float64) error {
	if err := e.checkIndex(i); err != nil {
		return err
	}
	p := &e.path[i]
	p.WidthLeft = clampWidth(widthOrEditorDefault(p.WidthLeft) + delta)
	p.WidthRight = clampWidth(widthOrEditorDefault(p.WidthRight) + delta)
	return nil
}

func widthOrEditorDefault(w float64) float64 {
	if w == 0 {
		return spline.DefaultWidth
	}
	return w
}

func clampWidth(w float64) float64 {
	return math.Max(MinEditWidth, math.Min(MaxEditWidth, w))
}

// Definition builds a closed track document from the edited path
func (e *Editor) Definition() *Definition {
	closed := true
	path := e.Points()
	width, height := CalcWorldSize(path, DefaultWorldPadding)
	return &Definition{
		Name:        e.name,
		Theme:       defaultTheme,
		TerrainKey:  e.terrain,
		WorldWidth:  width,
		WorldHeight: height,
		Resolution:  EditorResolution,
		Closed:      &closed,
		Path:        path,
		Markings: []Marking{{
			Type:       centerLineMarking,
			DashLength: 2,
			GapLength:  3,
			Width:      2,
			Color:      centerLineDefaultColour,
		}},
		Objects:     []ObjectDef{},
		Checkpoints: []int{},
	}
}
