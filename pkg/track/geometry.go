package track

import (
	"fmt"
	"math"

	"github.com/opd-ai/go-rally/pkg/config"
	"github.com/opd-ai/go-rally/pkg/physics"
	"github.com/opd-ai/go-rally/pkg/spline"
)

// RoadTerrain is the terrain key reported for points on the road surface
const RoadTerrain = "road"

// fallbacks for a zero TrackConfig
const (
	defaultBoundsMargin = 200.0
	defaultPushInset    = 10.0
	defaultOffRoad      = "grass"
)

// Rect is an axis-aligned world rectangle
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether p lies inside the rectangle grown by margin on every side
func (r Rect) Contains(p physics.Vector2D, margin float64) bool {
	return p.X >= r.X-margin && p.Y >= r.Y-margin &&
		p.X <= r.X+r.Width+margin && p.Y <= r.Y+r.Height+margin
}

// Spawn is where a car starts: the first centerline point facing the second
type Spawn struct {
	Position physics.Vector2D `json:"position"`
	Angle    float64          `json:"angle"` // radians
}

// Gate is a checkpoint line across the road
type Gate struct {
	Checkpoint int              `json:"checkpoint"` // control point index
	Left       physics.Vector2D `json:"left"`
	Right      physics.Vector2D `json:"right"`
	Forward    physics.Vector2D `json:"forward"` // direction of travel
}

// Crossed reports whether a move from -> to passes through the gate in the direction of travel
func (g Gate) Crossed(from, to physics.Vector2D) bool {
	if to.Sub(from).Dot(g.Forward) <= 0 {
		return false
	}
	return physics.SegmentsCross(from, to, g.Left, g.Right)
}

// Hit is the first object a query touched
type Hit struct {
	Object    physics.Collidable
	Collision physics.Collision
}

// Geometry is an immutable, query-ready track. Replace it wholesale to change the track.
type Geometry struct {
	def     *Definition
	cfg     config.TrackConfig
	samples []spline.Point
	left    []physics.Vector2D
	right   []physics.Vector2D
	objects []physics.Collidable
	bounds  Rect
	walls   []physics.Collidable
	gates   []Gate
}

// New validates a definition and builds its geometry. The definition is copied.
func New(def *Definition, cfg config.TrackConfig) (*Geometry, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: no definition", ErrInvalidDocument)
	}
	d := def.Clone()
	if err := d.Validate(); err != nil {
		return nil, err
	}

	samples, err := spline.Generate(withHalfWidth(d.Path, cfg.DefaultHalfWidth), d.SplineResolution(), d.IsClosed())
	if err != nil {
		return nil, fmt.Errorf("track %q: %w", d.Name, err)
	}

	objects, err := BuildObjects(d.Objects)
	if err != nil {
		return nil, fmt.Errorf("track %q: %w", d.Name, err)
	}

	g := &Geometry{
		def:     d,
		cfg:     cfg,
		samples: samples,
		left:    make([]physics.Vector2D, len(samples)),
		right:   make([]physics.Vector2D, len(samples)),
		objects: objects,
	}
	for i, p := range samples {
		g.left[i], g.right[i] = p.Edges()
	}

	width, height := d.WorldWidth, d.WorldHeight
	if width == 0 || height == 0 {
		padding := cfg.WorldPadding
		if padding == 0 {
			padding = DefaultWorldPadding
		}
		cw, ch := CalcWorldSize(d.Path, padding)
		if width == 0 {
			width = cw
		}
		if height == 0 {
			height = ch
		}
	}
	g.bounds = Rect{Width: width, Height: height}
	g.walls = g.buildWalls()

	g.gates = g.buildGates()
	return g, nil
}

// withHalfWidth returns path with zero half-widths replaced by width. The
// caller's slice is left alone.
func withHalfWidth(path []spline.ControlPoint, width float64) []spline.ControlPoint {
	if width <= 0 {
		return path
	}
	out := make([]spline.ControlPoint, len(path))
	for i, p := range path {
		if p.WidthLeft == 0 {
			p.WidthLeft = width
		}
		if p.WidthRight == 0 {
			p.WidthRight = width
		}
		out[i] = p
	}
	return out
}

func (g *Geometry) boundsMargin() float64 {
	if g.cfg.BoundsMargin == 0 {
		return defaultBoundsMargin
	}
	return g.cfg.BoundsMargin
}

// buildWalls fences the world rectangle grown by the bounds margin
func (g *Geometry) buildWalls() []physics.Collidable {
	m := g.boundsMargin()
	minX, minY := g.bounds.X-m, g.bounds.Y-m
	maxX, maxY := g.bounds.X+g.bounds.Width+m, g.bounds.Y+g.bounds.Height+m
	corners := []physics.Vector2D{{X: minX, Y: minY}, {X: maxX, Y: minY}, {X: maxX, Y: maxY}, {X: minX, Y: maxY}}

	opts := physics.BarrierOptions{Bounce: g.cfg.WallBounce, Color: g.cfg.WallColor}
	walls := make([]physics.Collidable, len(corners))
	for i, c := range corners {
		walls[i] = physics.NewBarrier(c, corners[(i+1)%len(corners)], opts)
	}
	return walls
}

func (g *Geometry) buildGates() []Gate {
	checkpoints := g.def.Checkpoints
	if len(checkpoints) == 0 {
		checkpoints = []int{0}
	}
	res := g.def.SplineResolution()
	gates := make([]Gate, 0, len(checkpoints))
	for _, cp := range checkpoints {
		idx := cp * res
		if idx >= len(g.samples) {
			idx = len(g.samples) - 1
		}
		n := g.samples[idx].Normal
		gates = append(gates, Gate{
			Checkpoint: cp,
			Left:       g.left[idx],
			Right:      g.right[idx],
			Forward:    physics.Vector2D{X: n.Y, Y: -n.X},
		})
	}
	return gates
}

// Definition returns a copy of the validated definition
func (g *Geometry) Definition() *Definition {
	return g.def.Clone()
}

// Name returns the track name
func (g *Geometry) Name() string {
	return g.def.Name
}

// Samples returns the generated centerline. Callers must not modify it.
func (g *Geometry) Samples() []spline.Point {
	return g.samples
}

// Edges returns the left and right road edge at sample i
func (g *Geometry) Edges(i int) (left, right physics.Vector2D) {
	return g.left[i], g.right[i]
}

// Objects returns the collidable objects in definition order
func (g *Geometry) Objects() []physics.Collidable {
	return g.objects
}

// Checkpoints returns the checkpoint gates in lap order; the first gate is the finish line
func (g *Geometry) Checkpoints() []Gate {
	return g.gates
}

// Bounds returns the world rectangle
func (g *Geometry) Bounds() Rect {
	return g.bounds
}

// OffRoadTerrain returns the surface key used away from the road
func (g *Geometry) OffRoadTerrain() string {
	switch {
	case g.def.TerrainKey != "":
		return g.def.TerrainKey
	case g.cfg.DefaultTerrain != "":
		return g.cfg.DefaultTerrain
	}
	return defaultOffRoad
}

// quadCount is the number of road quads: one per sample pair, plus the wrap when closed
func (g *Geometry) quadCount() int {
	if g.def.IsClosed() {
		return len(g.samples)
	}
	return len(g.samples) - 1
}

// IsOnTrack reports whether p lies on the road surface
func (g *Geometry) IsOnTrack(p physics.Vector2D) bool {
	if !g.bounds.Contains(p, g.boundsMargin()) {
		return false
	}

	n := len(g.samples)
	for i := 0; i < g.quadCount(); i++ {
		next := (i + 1) % n
		if pointInQuad(p, g.left[i], g.left[next], g.right[next], g.right[i]) {
			return true
		}
	}
	return false
}

// pointInQuad uses the sign of the cross product along each edge. Points on
// an edge count as inside.
func pointInQuad(p, a, b, c, d physics.Vector2D) bool {
	d1 := physics.Orientation(a, b, p)
	d2 := physics.Orientation(b, c, p)
	d3 := physics.Orientation(c, d, p)
	d4 := physics.Orientation(d, a, p)

	allPos := d1 >= 0 && d2 >= 0 && d3 >= 0 && d4 >= 0
	allNeg := d1 <= 0 && d2 <= 0 && d3 <= 0 && d4 <= 0
	return allPos || allNeg
}

// TerrainAt returns RoadTerrain on the road, otherwise the off-road surface key
func (g *Geometry) TerrainAt(p physics.Vector2D) string {
	if g.IsOnTrack(p) {
		return RoadTerrain
	}
	return g.OffRoadTerrain()
}

// CheckObjectCollision returns the first object, in definition order, that a
// circle of radius at p touches. The world walls are checked last.
func (g *Geometry) CheckObjectCollision(p physics.Vector2D, radius float64) (Hit, bool) {
	for _, objects := range [][]physics.Collidable{g.objects, g.walls} {
		for _, obj := range objects {
			if c, ok := obj.CheckCollision(p, radius); ok {
				return Hit{Object: obj, Collision: c}, true
			}
		}
	}
	return Hit{}, false
}

// SpawnPosition returns the first centerline point facing along the track
func (g *Geometry) SpawnPosition() Spawn {
	first := g.samples[0].Position()
	next := g.samples[1].Position()
	return Spawn{Position: first, Angle: next.Sub(first).Angle()}
}

// PushToTrack returns a point just inside the road edge nearest to p
func (g *Geometry) PushToTrack(p physics.Vector2D) physics.Vector2D {
	inset := g.cfg.PushInset
	if inset == 0 {
		inset = defaultPushInset
	}

	best := math.Inf(1)
	var out physics.Vector2D
	for i, s := range g.samples {
		if d := p.Distance(g.left[i]); d < best {
			best = d
			out = g.left[i].Sub(s.Normal.Scale(inset))
		}
		if d := p.Distance(g.right[i]); d < best {
			best = d
			out = g.right[i].Add(s.Normal.Scale(inset))
		}
	}
	return out
}
