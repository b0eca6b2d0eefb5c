package track

import (
	"github.com/opd-ai/go-rally/pkg/physics"
	"github.com/opd-ai/go-rally/pkg/spline"
)

// intersectResolution is the coarse spline used for self-intersection checks
const intersectResolution = 4

// SelfIntersects reports whether the closed centerline through points crosses
// itself. Fewer than four points never intersect.
func SelfIntersects(points []spline.ControlPoint) bool {
	line, err := spline.Sample(points, intersectResolution, true)
	if err != nil {
		return false
	}
	n := len(line)

	for i := 0; i < n; i++ {
		a1, a2 := line[i], line[(i+1)%n]
		for j := i + 2; j < n; j++ {
			// first and last segments share the wrap-around vertex
			if i == 0 && j == n-1 {
				continue
			}
			if physics.SegmentsCross(a1, a2, line[j], line[(j+1)%n]) {
				return true
			}
		}
	}
	return false
}
