package track

import (
	"fmt"

	"github.com/opd-ai/go-rally/pkg/physics"
)

// BuildObjects turns persisted object definitions into collidables, in order
func BuildObjects(defs []ObjectDef) ([]physics.Collidable, error) {
	objects := make([]physics.Collidable, 0, len(defs))
	for i, def := range defs {
		obj, err := buildObject(def)
		if err != nil {
			return nil, fmt.Errorf("objects[%d]: %w", i, err)
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func buildObject(def ObjectDef) (physics.Collidable, error) {
	start := physics.Vector2D{X: def.X1, Y: def.Y1}
	end := physics.Vector2D{X: def.X2, Y: def.Y2}
	opts := physics.BarrierOptions{
		Thickness: def.Options.Thickness,
		Bounce:    def.Options.Bounce,
		Color:     def.Options.Color,
	}

	switch def.Type {
	case physics.KindBarrier:
		return physics.NewBarrier(start, end, opts), nil
	case physics.KindTireWall:
		return physics.NewTireWall(start, end, opts), nil
	default:
		return nil, fmt.Errorf("%w: unknown object type %q", ErrInvalidDocument, def.Type)
	}
}
