package track

import (
	"sort"

	"github.com/opd-ai/go-rally/pkg/spline"
)

const ovalHalfWidth = 60.0

var ovalPath = [][2]float64{
	{500, 800}, {700, 800}, {900, 800}, {1100, 800}, {1300, 800},
	{1400, 770}, {1470, 700}, {1500, 600}, {1470, 500}, {1400, 430},
	{1300, 400}, {1100, 400}, {900, 400}, {700, 400}, {500, 400},
	{400, 430}, {330, 500}, {300, 600}, {330, 700}, {400, 770},
}

// SimpleOval returns the built-in oval: two straights joined by round ends
func SimpleOval() *Definition {
	closed := true
	path := make([]spline.ControlPoint, len(ovalPath))
	for i, p := range ovalPath {
		path[i] = spline.ControlPoint{X: p[0], Y: p[1], WidthLeft: ovalHalfWidth, WidthRight: ovalHalfWidth}
	}
	return &Definition{
		Name:        "Simple Oval",
		Theme:       defaultTheme,
		WorldWidth:  2000,
		WorldHeight: 1200,
		Resolution:  EditorResolution,
		Closed:      &closed,
		Path:        path,
		Checkpoints: []int{0, 5, 11, 16},
	}
}

var builtins = map[string]func() *Definition{
	"oval": SimpleOval,
}

// Builtin returns a fresh copy of a named built-in track
func Builtin(name string) (*Definition, bool) {
	fn, ok := builtins[name]
	if !ok {
		return nil, false
	}
	return fn(), true
}

// BuiltinNames lists the built-in track names in order
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
