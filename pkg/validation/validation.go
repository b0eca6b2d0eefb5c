// Package validation checks track documents and authored values before they become race state.
package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Document size and content limits
const (
	MaxDocumentSize  = 256 * 1024 // 256KB max track document
	MaxTrackNameLen  = 48
	MaxControlPoints = 2000
	MaxObjects       = 1000
	MaxResolution    = 64
	MaxHalfWidth     = 1000
	MaxCoordinate    = 1e6
)

// Regular expressions for input validation
var (
	// Letters, digits, spaces and a little punctuation for track names
	validTrackNameChars = regexp.MustCompile(`^[\p{L}\p{N}\s\-_.'()#&!]+$`)
	// Lower-case surface keys such as "grass" or "wet_asphalt"
	validTerrainKey = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// ValidateDocument checks the raw size and JSON well-formedness of a track document
func ValidateDocument(data []byte) error {
	if err := ValidateDocumentSize(data); err != nil {
		return err
	}
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON format")
	}
	return nil
}

// ValidateDocumentSize rejects empty or oversized documents
func ValidateDocumentSize(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("track document is empty")
	}
	if len(data) > MaxDocumentSize {
		return fmt.Errorf("track document too large: %d bytes (max %d)", len(data), MaxDocumentSize)
	}
	return nil
}

// ValidateTrackName validates and trims a track name
func ValidateTrackName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("track name cannot be empty")
	}

	if utf8.RuneCountInString(name) > MaxTrackNameLen {
		return "", fmt.Errorf("track name too long: %d characters (max %d)", utf8.RuneCountInString(name), MaxTrackNameLen)
	}

	if !utf8.ValidString(name) {
		return "", fmt.Errorf("track name contains invalid UTF-8 characters")
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("track name cannot be only whitespace")
	}

	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("track name contains control characters")
		}
	}

	if !validTrackNameChars.MatchString(trimmed) {
		return "", fmt.Errorf("track name contains invalid characters (only letters, digits, spaces and basic punctuation allowed)")
	}

	return trimmed, nil
}

// ValidateTerrainKey checks the shape of a surface key. Whether the surface
// exists is decided by the configuration, not here.
func ValidateTerrainKey(key string) error {
	if !validTerrainKey.MatchString(key) {
		return fmt.Errorf("invalid terrain key %q", key)
	}
	return nil
}

// ValidateControlPoint checks one path entry
func ValidateControlPoint(index int, x, y, widthL, widthR float64) error {
	for name, v := range map[string]float64{"x": x, "y": y} {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > MaxCoordinate {
			return fmt.Errorf("path[%d].%s is out of range: %v", index, name, v)
		}
	}
	for name, w := range map[string]float64{"widthL": widthL, "widthR": widthR} {
		if math.IsNaN(w) || w < 0 || w > MaxHalfWidth {
			return fmt.Errorf("path[%d].%s must be within [0, %d], got %v", index, name, MaxHalfWidth, w)
		}
	}
	return nil
}

// ValidateResolution accepts zero (use the default) or 1..MaxResolution
func ValidateResolution(resolution int) error {
	if resolution < 0 || resolution > MaxResolution {
		return fmt.Errorf("invalid resolution: %d (must be 0-%d)", resolution, MaxResolution)
	}
	return nil
}

// ValidateCheckpoint checks that a checkpoint names an existing control point
func ValidateCheckpoint(index, pathLen int) error {
	if index < 0 || index >= pathLen {
		return fmt.Errorf("checkpoint %d out of range (path has %d points)", index, pathLen)
	}
	return nil
}

// ValidateObjectType checks a track object type against the known kinds
func ValidateObjectType(objectType string, known ...string) error {
	for _, k := range known {
		if objectType == k {
			return nil
		}
	}
	return fmt.Errorf("unknown object type %q (expected one of %s)", objectType, strings.Join(known, ", "))
}
