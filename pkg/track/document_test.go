package track

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-rally/pkg/spline"
	"github.com/opd-ai/go-rally/pkg/validation"
)

func squarePath(size, width float64) []spline.ControlPoint {
	return []spline.ControlPoint{
		{X: 0, Y: 0, WidthLeft: width, WidthRight: width},
		{X: size, Y: 0, WidthLeft: width, WidthRight: width},
		{X: size, Y: size, WidthLeft: width, WidthRight: width},
		{X: 0, Y: size, WidthLeft: width, WidthRight: width},
	}
}

func TestImportRejectsShortPath(t *testing.T) {
	data := []byte(`{"name":"Short","path":[{"x":0,"y":0},{"x":10,"y":0},{"x":10,"y":10}]}`)

	_, err := Import(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDocument))
	assert.Equal(t, "invalid track: needs path array with at least 4 points, got 3", err.Error())
}

func TestImportMissingPath(t *testing.T) {
	_, err := Import([]byte(`{"name":"Empty"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 0")
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "invalid json",
			doc:     `{"name":`,
			wantErr: "invalid track",
		},
		{
			name: "negative width",
			doc: `{"path":[{"x":0,"y":0,"widthL":-5},{"x":100,"y":0},
				{"x":100,"y":100},{"x":0,"y":100}]}`,
			wantErr: "path[0]",
		},
		{
			name: "unknown object",
			doc: `{"path":[{"x":0,"y":0},{"x":100,"y":0},{"x":100,"y":100},{"x":0,"y":100}],
				"objects":[{"type":"cone","x1":0,"y1":0,"x2":1,"y2":1}]}`,
			wantErr: "objects[0]",
		},
		{
			name: "checkpoint out of range",
			doc: `{"path":[{"x":0,"y":0},{"x":100,"y":0},{"x":100,"y":100},{"x":0,"y":100}],
				"checkpoints":[0,4]}`,
			wantErr: "checkpoint",
		},
		{
			name: "bad terrain key",
			doc: `{"terrainKey":"Deep Sand","path":[{"x":0,"y":0},{"x":100,"y":0},
				{"x":100,"y":100},{"x":0,"y":100}]}`,
			wantErr: "terrain",
		},
		{
			name: "name too long",
			doc: `{"name":"` + strings.Repeat("n", validation.MaxTrackNameLen+1) + `",
				"path":[{"x":0,"y":0},{"x":100,"y":0},{"x":100,"y":100},{"x":0,"y":100}]}`,
			wantErr: "name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Import([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDocument), "error %v should wrap ErrInvalidDocument", err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestImportOversize(t *testing.T) {
	data := make([]byte, validation.MaxDocumentSize+1)
	_, err := Import(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDocument))
}

func TestImportLegacyTerrain(t *testing.T) {
	data := []byte(`{"name":"Old","terrain":"sand",
		"path":[{"x":0,"y":0},{"x":100,"y":0},{"x":100,"y":100},{"x":0,"y":100}]}`)

	def, err := Import(data)
	require.NoError(t, err)
	assert.Equal(t, "sand", def.TerrainKey)
	assert.Empty(t, def.LegacyTerrain)

	out, err := Export(def)
	require.NoError(t, err)
	assert.NotContains(t, string(out), `"terrain"`)
	assert.Contains(t, string(out), `"terrainKey": "sand"`)
}

func TestImportDefaults(t *testing.T) {
	def, err := Import([]byte(`{"path":[{"x":0,"y":0},{"x":100,"y":0},{"x":100,"y":100},{"x":0,"y":100}]}`))
	require.NoError(t, err)

	assert.Equal(t, "Untitled", def.Name)
	assert.True(t, def.IsClosed())
	assert.Equal(t, DefaultResolution, def.SplineResolution())
}

func TestExportImportRoundTrip(t *testing.T) {
	def := SimpleOval()
	def.TerrainKey = "snow"
	def.Objects = []ObjectDef{
		{Type: "barrier", X1: 10, Y1: 20, X2: 30, Y2: 40, Options: ObjectOptions{Thickness: 12}},
		{Type: "tire_wall", X1: 50, Y1: 60, X2: 70, Y2: 80},
	}

	data, err := Export(def)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
	assert.Contains(t, string(data), "\n  \"name\"", "export should be indented")

	got, err := Import(data)
	require.NoError(t, err)
	assert.Equal(t, def.Path, got.Path)
	assert.Equal(t, def.Objects, got.Objects)
	assert.Equal(t, def.Checkpoints, got.Checkpoints)
	assert.Equal(t, def.Name, got.Name)
	assert.Equal(t, "snow", got.TerrainKey)
}

func TestYAMLRoundTrip(t *testing.T) {
	def := SimpleOval()

	data, err := ExportYAML(def)
	require.NoError(t, err)
	assert.Contains(t, string(data), "widthL: 60")

	got, err := ImportYAML(data)
	require.NoError(t, err)
	assert.Equal(t, def.Path, got.Path)
	assert.Equal(t, def.Checkpoints, got.Checkpoints)
	assert.Equal(t, def.WorldWidth, got.WorldWidth)
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"oval.json", "oval.yaml", "oval.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, Save(SimpleOval(), path))

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, SimpleOval().Path, got.Path)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCloneIsDeep(t *testing.T) {
	def := SimpleOval()
	c := def.Clone()

	c.Path[0].X = -1
	*c.Closed = false
	c.Checkpoints[0] = 3

	assert.Equal(t, 500.0, def.Path[0].X)
	assert.True(t, def.IsClosed())
	assert.Equal(t, 0, def.Checkpoints[0])
}

func TestCalcWorldSize(t *testing.T) {
	tests := []struct {
		name       string
		path       []spline.ControlPoint
		wantWidth  float64
		wantHeight float64
	}{
		{
			name:       "small track uses minimum",
			path:       squarePath(200, 40),
			wantWidth:  MinWorldWidth,
			wantHeight: MinWorldHeight,
		},
		{
			name:       "tall track keeps minimum width",
			path:       squarePath(400, 40),
			wantWidth:  MinWorldWidth,
			wantHeight: 400 + 40 + DefaultWorldPadding,
		},
		{
			name: "large track uses extents",
			path: []spline.ControlPoint{
				{X: 0, Y: 0}, {X: 2000, Y: 0}, {X: 2000, Y: 1500}, {X: 0, Y: 1500},
			},
			wantWidth:  2000 + 60 + DefaultWorldPadding,
			wantHeight: 1500 + 60 + DefaultWorldPadding,
		},
		{
			name: "widest side wins",
			path: []spline.ControlPoint{
				{X: 0, Y: 0}, {X: 2000, Y: 0, WidthLeft: 10, WidthRight: 150}, {X: 10, Y: 1500}, {X: 0, Y: 10},
			},
			wantWidth:  2000 + 150 + DefaultWorldPadding,
			wantHeight: 1500 + 60 + DefaultWorldPadding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := CalcWorldSize(tt.path, DefaultWorldPadding)
			assert.Equal(t, tt.wantWidth, w)
			assert.Equal(t, tt.wantHeight, h)
		})
	}
}

func TestBuildObjects(t *testing.T) {
	objects, err := BuildObjects([]ObjectDef{
		{Type: "tire_wall", X1: 0, Y1: 0, X2: 100, Y2: 0},
		{Type: "barrier", X1: 0, Y1: 50, X2: 100, Y2: 50, Options: ObjectOptions{Bounce: 0.9}},
	})
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "tire_wall", objects[0].Kind())
	assert.Equal(t, "barrier", objects[1].Kind())

	_, err = BuildObjects([]ObjectDef{{Type: "wall"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "objects[0]")
}
