// Package track builds road geometry from track documents and answers the
// on-track, terrain and collision queries the race loop makes every tick.
package track

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/go-rally/pkg/physics"
	"github.com/opd-ai/go-rally/pkg/spline"
	"github.com/opd-ai/go-rally/pkg/validation"
)

// ErrInvalidDocument is returned for track documents that cannot be loaded
var ErrInvalidDocument = errors.New("invalid track")

// Document defaults
const (
	DefaultResolution       = 12
	EditorResolution        = 10
	DefaultWorldPadding     = 400.0
	MinWorldWidth           = 1280.0
	MinWorldHeight          = 720.0
	worldSizeFallbackWidth  = 60.0
	defaultTheme            = "asphalt"
	untitledTrackName       = "Untitled"
	centerLineMarking       = "centerLine"
	centerLineDefaultColour = "yellow"
)

// Definition is the persisted track document
type Definition struct {
	Name        string                `json:"name" yaml:"name"`
	Theme       string                `json:"theme,omitempty" yaml:"theme,omitempty"`
	TerrainKey  string                `json:"terrainKey,omitempty" yaml:"terrainKey,omitempty"`
	WorldWidth  float64               `json:"worldWidth,omitempty" yaml:"worldWidth,omitempty"`
	WorldHeight float64               `json:"worldHeight,omitempty" yaml:"worldHeight,omitempty"`
	Resolution  int                   `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	Closed      *bool                 `json:"closed,omitempty" yaml:"closed,omitempty"`
	Path        []spline.ControlPoint `json:"path" yaml:"path"`
	Markings    []Marking             `json:"markings,omitempty" yaml:"markings,omitempty"`
	Objects     []ObjectDef           `json:"objects,omitempty" yaml:"objects,omitempty"`
	Checkpoints []int                 `json:"checkpoints,omitempty" yaml:"checkpoints,omitempty"`

	// LegacyTerrain is the older spelling of TerrainKey, accepted on import only
	LegacyTerrain string `json:"terrain,omitempty" yaml:"terrain,omitempty"`
}

// Marking is a painted road line
type Marking struct {
	Type       string  `json:"type" yaml:"type"`
	DashLength float64 `json:"dashLength,omitempty" yaml:"dashLength,omitempty"`
	GapLength  float64 `json:"gapLength,omitempty" yaml:"gapLength,omitempty"`
	Width      float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Color      string  `json:"color,omitempty" yaml:"color,omitempty"`
}

// ObjectDef is a persisted collidable object
type ObjectDef struct {
	Type    string        `json:"type" yaml:"type"`
	X1      float64       `json:"x1" yaml:"x1"`
	Y1      float64       `json:"y1" yaml:"y1"`
	X2      float64       `json:"x2" yaml:"x2"`
	Y2      float64       `json:"y2" yaml:"y2"`
	Options ObjectOptions `json:"options,omitempty" yaml:"options,omitempty"`
}

// ObjectOptions override the per-kind defaults; zero means default
type ObjectOptions struct {
	Thickness float64 `json:"thickness,omitempty" yaml:"thickness,omitempty"`
	Color     uint32  `json:"color,omitempty" yaml:"color,omitempty"`
	Bounce    float64 `json:"bounce,omitempty" yaml:"bounce,omitempty"`
}

// IsClosed reports whether the track loops; documents default to closed
func (d *Definition) IsClosed() bool {
	return d.Closed == nil || *d.Closed
}

// SplineResolution returns the resolution to generate the centerline with
func (d *Definition) SplineResolution() int {
	if d.Resolution <= 0 {
		return DefaultResolution
	}
	return d.Resolution
}

// Clone returns a deep copy of the definition
func (d *Definition) Clone() *Definition {
	c := *d
	if d.Closed != nil {
		closed := *d.Closed
		c.Closed = &closed
	}
	c.Path = append([]spline.ControlPoint(nil), d.Path...)
	c.Markings = append([]Marking(nil), d.Markings...)
	c.Objects = append([]ObjectDef(nil), d.Objects...)
	c.Checkpoints = append([]int(nil), d.Checkpoints...)
	return &c
}

// Validate checks the definition and normalises its name and terrain key.
// The error names the first defect found.
func (d *Definition) Validate() error {
	if d.TerrainKey == "" {
		d.TerrainKey = d.LegacyTerrain
	}
	d.LegacyTerrain = ""

	if len(d.Path) < spline.MinControlPoints {
		return fmt.Errorf("%w: needs path array with at least %d points, got %d",
			ErrInvalidDocument, spline.MinControlPoints, len(d.Path))
	}
	if len(d.Path) > validation.MaxControlPoints {
		return fmt.Errorf("%w: path has %d points (max %d)", ErrInvalidDocument, len(d.Path), validation.MaxControlPoints)
	}
	for i, p := range d.Path {
		if err := validation.ValidateControlPoint(i, p.X, p.Y, p.WidthLeft, p.WidthRight); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	}

	if d.Name == "" {
		d.Name = untitledTrackName
	}
	name, err := validation.ValidateTrackName(d.Name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	d.Name = name

	if d.TerrainKey != "" {
		if err := validation.ValidateTerrainKey(d.TerrainKey); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	}
	if err := validation.ValidateResolution(d.Resolution); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	for name, v := range map[string]float64{"worldWidth": d.WorldWidth, "worldHeight": d.WorldHeight} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number, got %v", ErrInvalidDocument, name, v)
		}
	}

	if len(d.Objects) > validation.MaxObjects {
		return fmt.Errorf("%w: %d objects (max %d)", ErrInvalidDocument, len(d.Objects), validation.MaxObjects)
	}
	for i, o := range d.Objects {
		if err := validation.ValidateObjectType(o.Type, physics.KindBarrier, physics.KindTireWall); err != nil {
			return fmt.Errorf("%w: objects[%d]: %v", ErrInvalidDocument, i, err)
		}
		for _, v := range []float64{o.X1, o.Y1, o.X2, o.Y2, o.Options.Thickness, o.Options.Bounce} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: objects[%d] has a non-finite value", ErrInvalidDocument, i)
			}
		}
		if o.Options.Thickness < 0 || o.Options.Bounce < 0 {
			return fmt.Errorf("%w: objects[%d] thickness and bounce must not be negative", ErrInvalidDocument, i)
		}
	}

	for _, cp := range d.Checkpoints {
		if err := validation.ValidateCheckpoint(cp, len(d.Path)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
	}

	return nil
}

// Import parses and validates a JSON track document
func Import(data []byte) (*Definition, error) {
	if err := validation.ValidateDocument(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// ImportYAML parses and validates a YAML track document
func ImportYAML(data []byte) (*Definition, error) {
	if err := validation.ValidateDocumentSize(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Export writes the definition as indented JSON
func Export(def *Definition) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(def); err != nil {
		return nil, fmt.Errorf("failed to marshal track: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportYAML writes the definition as YAML
func ExportYAML(def *Definition) ([]byte, error) {
	data, err := yaml.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal track: %w", err)
	}
	return data, nil
}

// Load reads a track document from a .json, .yaml or .yml file
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read track file: %w", err)
	}
	if isYAML(path) {
		return ImportYAML(data)
	}
	return Import(data)
}

// Save writes a track document, choosing the format from the file extension
func Save(def *Definition, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = ExportYAML(def)
	} else {
		data, err = Export(def)
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write track file: %w", err)
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// CalcWorldSize returns a world size that fits the path plus padding, never
// smaller than MinWorldWidth x MinWorldHeight. Zero widths count as 60.
func CalcWorldSize(path []spline.ControlPoint, padding float64) (width, height float64) {
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range path {
		w := math.Max(orDefault(p.WidthLeft, worldSizeFallbackWidth), orDefault(p.WidthRight, worldSizeFallbackWidth))
		maxX = math.Max(maxX, p.X+w)
		maxY = math.Max(maxY, p.Y+w)
	}
	return math.Max(maxX+padding, MinWorldWidth), math.Max(maxY+padding, MinWorldHeight)
}

func orDefault(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}
