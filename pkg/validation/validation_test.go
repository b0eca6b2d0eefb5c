package validation

import (
	"math"
	"strings"
	"testing"
)

func TestValidateTrackName(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        string
		wantErr     bool
		errContains string
	}{
		{
			name:  "valid simple name",
			input: "Oval1",
			want:  "Oval1",
		},
		{
			name:  "valid name with spaces and punctuation",
			input: "Simple Oval (night) #2",
			want:  "Simple Oval (night) #2",
		},
		{
			name:  "non-latin letters",
			input: "Nürburgring Nordschleife",
			want:  "Nürburgring Nordschleife",
		},
		{
			name:  "ampersand is kept as is",
			input: "Sand & Snow",
			want:  "Sand & Snow",
		},
		{
			name:  "name with leading/trailing spaces",
			input: "  Oval  ",
			want:  "Oval",
		},
		{
			name:        "empty name",
			input:       "",
			wantErr:     true,
			errContains: "cannot be empty",
		},
		{
			name:        "only whitespace",
			input:       "   ",
			wantErr:     true,
			errContains: "cannot be only whitespace",
		},
		{
			name:        "too long name",
			input:       strings.Repeat("a", MaxTrackNameLen+1),
			wantErr:     true,
			errContains: "too long",
		},
		{
			name:        "name with special characters",
			input:       "Track<script>",
			wantErr:     true,
			errContains: "invalid characters",
		},
		{
			name:        "name with control character",
			input:       "Oval\x00Two",
			wantErr:     true,
			errContains: "control characters",
		},
		{
			name:        "invalid utf-8",
			input:       "Oval\xff",
			wantErr:     true,
			errContains: "invalid UTF-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateTrackName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateTrackName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("ValidateTrackName() error = %v, want containing %q", err, tt.errContains)
			}
			if got != tt.want {
				t.Errorf("ValidateTrackName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr string
	}{
		{"valid object", []byte(`{"path":[]}`), ""},
		{"empty", nil, "empty"},
		{"not json", []byte(`{path:`), "invalid JSON"},
		{"too large", []byte(`"` + strings.Repeat("a", MaxDocumentSize) + `"`), "too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.data)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateDocument() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateControlPoint(t *testing.T) {
	tests := []struct {
		name                string
		x, y, widthL, width float64
		wantErr             bool
	}{
		{"typical", 500, 800, 60, 60, false},
		{"zero widths use defaults later", 0, 0, 0, 0, false},
		{"negative coordinates", -50, -20, 40, 40, false},
		{"nan x", math.NaN(), 0, 40, 40, true},
		{"infinite y", 0, math.Inf(1), 40, 40, true},
		{"negative width", 0, 0, -1, 40, true},
		{"huge width", 0, 0, 40, MaxHalfWidth + 1, true},
		{"nan width", 0, 0, math.NaN(), 40, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateControlPoint(3, tt.x, tt.y, tt.widthL, tt.width)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateControlPoint() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "path[3]") {
				t.Errorf("error %q should name the path index", err)
			}
		})
	}
}

func TestValidateResolution(t *testing.T) {
	for _, r := range []int{0, 1, 12, MaxResolution} {
		if err := ValidateResolution(r); err != nil {
			t.Errorf("ValidateResolution(%d) unexpected error: %v", r, err)
		}
	}
	for _, r := range []int{-1, MaxResolution + 1} {
		if err := ValidateResolution(r); err == nil {
			t.Errorf("ValidateResolution(%d) expected error", r)
		}
	}
}

func TestValidateCheckpoint(t *testing.T) {
	tests := []struct {
		index   int
		pathLen int
		wantErr bool
	}{
		{0, 4, false},
		{3, 4, false},
		{4, 4, true},
		{-1, 4, true},
	}

	for _, tt := range tests {
		err := ValidateCheckpoint(tt.index, tt.pathLen)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateCheckpoint(%d, %d) error = %v, wantErr %v", tt.index, tt.pathLen, err, tt.wantErr)
		}
	}
}

func TestValidateTerrainKey(t *testing.T) {
	for _, key := range []string{"grass", "sand", "wet_asphalt", "snow2"} {
		if err := ValidateTerrainKey(key); err != nil {
			t.Errorf("ValidateTerrainKey(%q) unexpected error: %v", key, err)
		}
	}
	for _, key := range []string{"", "Grass", "2fast", "mud pit"} {
		if err := ValidateTerrainKey(key); err == nil {
			t.Errorf("ValidateTerrainKey(%q) expected error", key)
		}
	}
}

func TestValidateObjectType(t *testing.T) {
	if err := ValidateObjectType("barrier", "barrier", "tire_wall"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := ValidateObjectType("tree", "barrier", "tire_wall")
	if err == nil || !strings.Contains(err.Error(), "barrier, tire_wall") {
		t.Errorf("error %v should list the known types", err)
	}
}
