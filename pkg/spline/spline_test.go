package spline

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(width float64) []ControlPoint {
	return []ControlPoint{
		{X: 0, Y: 0, WidthLeft: width, WidthRight: width},
		{X: 100, Y: 0, WidthLeft: width, WidthRight: width},
		{X: 100, Y: 100, WidthLeft: width, WidthRight: width},
		{X: 0, Y: 100, WidthLeft: width, WidthRight: width},
	}
}

func TestGenerate_SquareCorners(t *testing.T) {
	for _, resolution := range []int{1, 4, 10, 12} {
		samples, err := Generate(square(10), resolution, true)
		require.NoError(t, err)
		require.Len(t, samples, 4*resolution)

		for i, p := range samples {
			assert.InDelta(t, 1.0, p.Normal.Length(), 1e-9, "normal %d must be unit length", i)

			left, right := p.Edges()
			assert.InDelta(t, p.WidthLeft, left.Distance(p.Position()), 1e-9)
			assert.InDelta(t, p.WidthRight, right.Distance(p.Position()), 1e-9)
			assert.InDelta(t, 10.0, p.WidthLeft, 1e-9)
		}
	}
}

func TestGenerate_PassesThroughControlPoints(t *testing.T) {
	points := square(10)
	samples, err := Generate(points, 8, true)
	require.NoError(t, err)

	for i, cp := range points {
		p := samples[i*8]
		assert.Equal(t, i, p.Segment)
		assert.Zero(t, p.T)
		assert.InDelta(t, cp.X, p.X, 1e-9)
		assert.InDelta(t, cp.Y, p.Y, 1e-9)
	}
}

func TestGenerate_OpenSpline(t *testing.T) {
	points := []ControlPoint{{X: 0}, {X: 100}, {X: 200}, {X: 300}, {X: 400}}
	samples, err := Generate(points, 5, false)
	require.NoError(t, err)
	require.Len(t, samples, 4*5)

	for _, p := range samples {
		assert.InDelta(t, 0.0, p.Y, 1e-9, "collinear control points stay on a line")
		assert.InDelta(t, 0.0, p.Normal.X, 1e-9)
		assert.InDelta(t, 1.0, p.Normal.Y, 1e-9)
	}
	assert.Equal(t, 3, samples[len(samples)-1].Segment)
}

func TestGenerate_DefaultWidth(t *testing.T) {
	samples, err := Generate(square(0), 3, true)
	require.NoError(t, err)
	for _, p := range samples {
		assert.InDelta(t, DefaultWidth, p.WidthLeft, 1e-9)
		assert.InDelta(t, DefaultWidth, p.WidthRight, 1e-9)
	}
}

func TestGenerate_Errors(t *testing.T) {
	_, err := Generate(square(10)[:3], 10, true)
	assert.True(t, errors.Is(err, ErrInsufficientPoints))
	assert.ErrorContains(t, err, "got 3")

	_, err = Generate(nil, 10, true)
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	_, err = Generate(square(10), 0, true)
	assert.Error(t, err)

	same := []ControlPoint{{X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}}
	samples, err := Generate(same, 4, true)
	assert.ErrorIs(t, err, ErrDegenerateGeometry)
	assert.Nil(t, samples)
}

func TestCenterline(t *testing.T) {
	samples, err := Generate(square(10), 2, true)
	require.NoError(t, err)

	line := Centerline(samples)
	require.Len(t, line, len(samples))
	for i := range line {
		assert.Equal(t, samples[i].Position(), line[i])
		assert.False(t, math.IsNaN(line[i].X))
	}
}

func TestSample_MatchesGenerate(t *testing.T) {
	points := square(30)
	full, err := Generate(points, 6, true)
	require.NoError(t, err)

	line, err := Sample(points, 6, true)
	require.NoError(t, err)
	assert.Equal(t, Centerline(full), line)

	// coincident points have no normals but still sample
	same := []ControlPoint{{X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}}
	line, err = Sample(same, 2, true)
	require.NoError(t, err)
	assert.Len(t, line, 8)

	_, err = Sample(points[:2], 6, true)
	assert.True(t, errors.Is(err, ErrInsufficientPoints))
}
