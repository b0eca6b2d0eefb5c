// Package render draws race state for headless runs: an ASCII map for
// terminals and a structured-log renderer for telemetry.
package render

import (
	"context"

	"github.com/opd-ai/go-rally/pkg/engine"
	"github.com/opd-ai/go-rally/pkg/logging"
	"github.com/opd-ai/go-rally/pkg/physics"
	"github.com/opd-ai/go-rally/pkg/spline"
	"github.com/opd-ai/go-rally/pkg/track"
)

// TrackView is the part of a track a renderer draws
type TrackView interface {
	IsOnTrack(p physics.Vector2D) bool
	Bounds() track.Rect
	Objects() []physics.Collidable
	Checkpoints() []track.Gate
	Samples() []spline.Point
}

var _ TrackView = (*track.Geometry)(nil)

// Renderer draws one picture of the race per Present
type Renderer interface {
	Clear()
	RenderTrack(m TrackView)
	RenderCar(index int, f engine.Frame)
	Present() error
}

// LogRenderer writes car telemetry to a structured logger instead of drawing.
type LogRenderer struct {
	logger *logging.Logger
	ctx    context.Context
}

// NewLogRenderer creates a LogRenderer. A nil logger discards output.
func NewLogRenderer(ctx context.Context, logger *logging.Logger) *LogRenderer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &LogRenderer{logger: logger, ctx: ctx}
}

// Clear implements Renderer.
func (d *LogRenderer) Clear() {}

// RenderTrack implements Renderer.
func (d *LogRenderer) RenderTrack(m TrackView) {
	b := m.Bounds()
	d.logger.Debug(d.ctx, "track",
		"width", b.Width,
		"height", b.Height,
		"objects", len(m.Objects()),
		"checkpoints", len(m.Checkpoints()),
	)
}

// RenderCar implements Renderer.
func (d *LogRenderer) RenderCar(index int, f engine.Frame) {
	d.logger.Info(logging.WithCarID(d.ctx, f.CarID), "telemetry",
		"tick", f.Tick,
		"x", f.Position.X,
		"y", f.Position.Y,
		"heading", f.Heading,
		"speed_kmh", f.SpeedKmh,
		"gear", f.Gear,
		"rpm", f.RPM,
		"rpm_zone", string(f.RPMZone),
		"slip", f.SlipAmount,
		"terrain", f.Terrain,
		"on_track", f.OnTrack,
		"lap", f.Lap,
		"lap_time", f.LapTime,
	)
}

// Present implements Renderer.
func (d *LogRenderer) Present() error {
	return nil
}

var (
	_ Renderer = (*TerminalRenderer)(nil)
	_ Renderer = (*LogRenderer)(nil)
)
