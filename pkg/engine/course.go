package engine

import (
	"github.com/opd-ai/go-rally/pkg/physics"
	"github.com/opd-ai/go-rally/pkg/track"
)

// Course is the read-only track view the race loop queries every tick
type Course interface {
	Name() string
	IsOnTrack(p physics.Vector2D) bool
	TerrainAt(p physics.Vector2D) string
	CheckObjectCollision(p physics.Vector2D, radius float64) (track.Hit, bool)
	SpawnPosition() track.Spawn
	PushToTrack(p physics.Vector2D) physics.Vector2D
	Checkpoints() []track.Gate
}

var _ Course = (*track.Geometry)(nil)
