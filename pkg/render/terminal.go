package render

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/opd-ai/go-rally/pkg/config"
	"github.com/opd-ai/go-rally/pkg/engine"
	"github.com/opd-ai/go-rally/pkg/physics"
	"github.com/opd-ai/go-rally/pkg/track"
)

// Map cells
const (
	cellEmpty      = ' '
	cellRoad       = '.'
	cellObject     = '#'
	cellFinish     = 'F'
	cellCheckpoint = '+'
	cellCar        = '@'
)

// noColor marks a cell drawn in the terminal's own colours
const noColor uint32 = 1 << 24

const ansiReset = "\033[0m"

// Palette holds 0xRRGGBB colours for a coloured map
type Palette struct {
	Road       uint32
	Grass      uint32
	Edge       uint32
	CenterLine uint32
	Wall       uint32
}

// PaletteFromConfig takes the map colours from the track settings
func PaletteFromConfig(cfg config.TrackConfig) Palette {
	return Palette{
		Road:       cfg.RoadColor,
		Grass:      cfg.GrassColor,
		Edge:       cfg.EdgeColor,
		CenterLine: cfg.CenterLineColor,
		Wall:       cfg.WallColor,
	}
}

// TerminalRenderer draws an ASCII map of the track and cars
type TerminalRenderer struct {
	width     int
	height    int
	buffer    [][]rune
	fg        [][]uint32
	bg        [][]uint32
	palette   *Palette // nil draws plain ASCII
	scale     float64  // world units per cell
	centerPos physics.Vector2D
	out       io.Writer
}

// NewTerminalRenderer creates a new terminal renderer with the specified dimensions
func NewTerminalRenderer(width, height int, scale float64, out io.Writer) *TerminalRenderer {
	buffer := make([][]rune, height)
	fg := make([][]uint32, height)
	bg := make([][]uint32, height)
	for i := range buffer {
		buffer[i] = make([]rune, width)
		fg[i] = make([]uint32, width)
		bg[i] = make([]uint32, width)
	}

	r := &TerminalRenderer{
		width:  width,
		height: height,
		buffer: buffer,
		fg:     fg,
		bg:     bg,
		scale:  scale,
		out:    out,
	}
	r.Clear()
	return r
}

// SetCenter sets the center position of the view
func (r *TerminalRenderer) SetCenter(pos physics.Vector2D) {
	r.centerPos = pos
}

// SetPalette turns on 24-bit colour output. A nil palette goes back to plain ASCII.
func (r *TerminalRenderer) SetPalette(p *Palette) {
	r.palette = p
}

// FitBounds centres the view on a world rectangle and scales it to fit
func (r *TerminalRenderer) FitBounds(b track.Rect) {
	r.centerPos = physics.Vector2D{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
	if r.width > 0 && r.height > 0 {
		r.scale = math.Max(b.Width/float64(r.width), b.Height/float64(r.height))
	}
}

// worldToScreen converts world coordinates to a cell
func (r *TerminalRenderer) worldToScreen(pos physics.Vector2D) (int, int) {
	screenX := int(math.Floor((pos.X-r.centerPos.X)/r.scale + float64(r.width)/2))
	screenY := int(math.Floor((pos.Y-r.centerPos.Y)/r.scale + float64(r.height)/2))
	return screenX, screenY
}

// screenToWorld returns the world position at the centre of a cell
func (r *TerminalRenderer) screenToWorld(x, y int) physics.Vector2D {
	return physics.Vector2D{
		X: (float64(x)+0.5-float64(r.width)/2)*r.scale + r.centerPos.X,
		Y: (float64(y)+0.5-float64(r.height)/2)*r.scale + r.centerPos.Y,
	}
}

func (r *TerminalRenderer) set(pos physics.Vector2D, c rune) {
	x, y := r.worldToScreen(pos)
	if x >= 0 && x < r.width && y >= 0 && y < r.height {
		r.buffer[y][x] = c
	}
}

// Clear implements Renderer
func (r *TerminalRenderer) Clear() {
	for y := range r.buffer {
		for x := range r.buffer[y] {
			r.buffer[y][x] = cellEmpty
			r.fg[y][x] = noColor
			r.bg[y][x] = noColor
		}
	}
}

// RenderTrack implements Renderer. Road cells are sampled at their centres.
func (r *TerminalRenderer) RenderTrack(m TrackView) {
	if r.scale <= 0 {
		return
	}
	objects := m.Objects()
	bounds := m.Bounds()
	for y := range r.buffer {
		for x := range r.buffer[y] {
			p := r.screenToWorld(x, y)
			switch {
			case hitsAny(objects, p, r.scale/2):
				r.buffer[y][x] = cellObject
			case m.IsOnTrack(p):
				r.buffer[y][x] = cellRoad
			}
			if r.palette != nil {
				r.bg[y][x] = r.background(r.buffer[y][x], bounds.Contains(p, 0))
			}
		}
	}
	if r.palette != nil {
		r.paintRoadMarkings(m)
	}

	for i, gate := range m.Checkpoints() {
		c := cellCheckpoint
		if i == 0 {
			c = cellFinish
		}
		r.set(gate.Left.Lerp(gate.Right, 0.5), c)
	}
}

func (r *TerminalRenderer) background(c rune, inWorld bool) uint32 {
	switch {
	case c == cellObject:
		return r.palette.Wall
	case c == cellRoad:
		return r.palette.Road
	case inWorld:
		return r.palette.Grass
	}
	return noColor
}

// paintRoadMarkings colours road cells that border off-road cells as edges
// and puts the centre line on the cells under the spline samples.
func (r *TerminalRenderer) paintRoadMarkings(m TrackView) {
	for y := range r.buffer {
		for x := range r.buffer[y] {
			if r.buffer[y][x] == cellRoad && r.bordersOffRoad(x, y) {
				r.bg[y][x] = r.palette.Edge
			}
		}
	}
	for _, s := range m.Samples() {
		x, y := r.worldToScreen(s.Position())
		if x >= 0 && x < r.width && y >= 0 && y < r.height && r.buffer[y][x] == cellRoad {
			r.fg[y][x] = r.palette.CenterLine
		}
	}
}

func (r *TerminalRenderer) bordersOffRoad(x, y int) bool {
	for _, d := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		nx, ny := x+d[0], y+d[1]
		if nx < 0 || nx >= r.width || ny < 0 || ny >= r.height {
			continue
		}
		if c := r.buffer[ny][nx]; c != cellRoad && c != cellFinish && c != cellCheckpoint {
			return true
		}
	}
	return false
}

func hitsAny(objects []physics.Collidable, p physics.Vector2D, radius float64) bool {
	for _, obj := range objects {
		if _, ok := obj.CheckCollision(p, radius); ok {
			return true
		}
	}
	return false
}

// RenderCar implements Renderer. The first nine cars are drawn by number.
func (r *TerminalRenderer) RenderCar(index int, f engine.Frame) {
	c := cellCar
	if index >= 0 && index < 9 {
		c = rune('1' + index)
	}
	r.set(f.Position, c)
}

// String returns the bordered map
func (r *TerminalRenderer) String() string {
	var sb strings.Builder
	border := "+" + strings.Repeat("-", r.width) + "+\n"
	sb.WriteString(border)
	for y := range r.buffer {
		sb.WriteByte('|')
		r.writeRow(&sb, y)
		sb.WriteString("|\n")
	}
	sb.WriteString(border)
	return sb.String()
}

// writeRow writes one row of cells, switching colours only where they change
func (r *TerminalRenderer) writeRow(sb *strings.Builder, y int) {
	if r.palette == nil {
		sb.WriteString(string(r.buffer[y]))
		return
	}
	fg, bg := noColor, noColor
	for x, c := range r.buffer[y] {
		if r.fg[y][x] != fg || r.bg[y][x] != bg {
			fg, bg = r.fg[y][x], r.bg[y][x]
			sb.WriteString(ansiReset)
			if bg != noColor {
				sb.WriteString(ansiColor(48, bg))
			}
			if fg != noColor {
				sb.WriteString(ansiColor(38, fg))
			}
		}
		sb.WriteRune(c)
	}
	if fg != noColor || bg != noColor {
		sb.WriteString(ansiReset)
	}
}

// ansiColor returns the 24-bit SGR sequence; layer is 38 for text, 48 for background
func ansiColor(layer int, rgb uint32) string {
	return fmt.Sprintf("\033[%d;2;%d;%d;%dm", layer, rgb>>16&0xff, rgb>>8&0xff, rgb&0xff)
}

// Present implements Renderer
func (r *TerminalRenderer) Present() error {
	w := bufio.NewWriter(r.out)
	if _, err := w.WriteString(r.String()); err != nil {
		return err
	}
	return w.Flush()
}
