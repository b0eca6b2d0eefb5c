package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger()
	if logger == nil {
		t.Fatal("NewLogger() returned nil")
	}
	if logger.Logger == nil {
		t.Fatal("Logger.Logger is nil")
	}
}

func TestLogLevelFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected slog.Level
	}{
		{"debug level", "DEBUG", slog.LevelDebug},
		{"info level", "INFO", slog.LevelInfo},
		{"warn level", "WARN", slog.LevelWarn},
		{"warning level", "WARNING", slog.LevelWarn},
		{"error level", "ERROR", slog.LevelError},
		{"lowercase debug", "debug", slog.LevelDebug},
		{"mixed case", "Info", slog.LevelInfo},
		{"invalid level", "INVALID", slog.LevelInfo},
		{"empty value", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("RALLY_LOG_LEVEL", tt.envValue)
			level := getLogLevelFromEnv()
			if level != tt.expected {
				t.Errorf("getLogLevelFromEnv() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func TestRaceID(t *testing.T) {
	t.Run("generated IDs are unique UUIDs", func(t *testing.T) {
		id1 := NewID()
		id2 := NewID()

		if id1 == id2 {
			t.Error("NewID() returned duplicate IDs")
		}
		if _, err := uuid.Parse(id1); err != nil {
			t.Errorf("NewID() = %q is not a UUID: %v", id1, err)
		}
	})

	t.Run("context with race ID", func(t *testing.T) {
		ctx := WithRaceID(context.Background(), "race-1")
		if got := GetRaceID(ctx); got != "race-1" {
			t.Errorf("GetRaceID() = %q, want %q", got, "race-1")
		}
	})

	t.Run("context without race ID", func(t *testing.T) {
		if id := GetRaceID(context.Background()); id != "" {
			t.Errorf("GetRaceID() = %q, want empty string", id)
		}
	})

	t.Run("auto-generate race ID", func(t *testing.T) {
		ctx := WithRaceID(context.Background(), "")
		if _, err := uuid.Parse(GetRaceID(ctx)); err != nil {
			t.Errorf("WithRaceID() with empty string should generate a UUID: %v", err)
		}
	})

	t.Run("car ID", func(t *testing.T) {
		ctx := WithCarID(context.Background(), "car-7")
		if got := GetCarID(ctx); got != "car-7" {
			t.Errorf("GetCarID() = %q, want %q", got, "car-7")
		}
		if got := GetCarID(context.Background()); got != "" {
			t.Errorf("GetCarID() = %q, want empty string", got)
		}
	})
}

func TestRoundFloats(t *testing.T) {
	tests := []struct {
		name     string
		attr     slog.Attr
		expected string
	}{
		{"rounds to three decimals", slog.Float64("speed", 101.23456), "101.235"},
		{"keeps short values", slog.Float64("rpm", 0.5), "0.5"},
		{"nan becomes string", slog.Float64("slip", math.NaN()), "NaN"},
		{"inf becomes string", slog.Float64("time", math.Inf(1)), "+Inf"},
		{"leaves strings alone", slog.String("terrain", "grass"), "grass"},
		{"leaves ints alone", slog.Int("gear", 3), "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := roundFloats(nil, tt.attr)
			if result.Value.String() != tt.expected {
				t.Errorf("roundFloats() = %q, want %q", result.Value.String(), tt.expected)
			}
			if result.Key != tt.attr.Key {
				t.Errorf("roundFloats() changed key to %q", result.Key)
			}
		})
	}
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelDebug)

	ctx := WithCarID(WithRaceID(context.Background(), "race-123"), "car-9")

	parse := func(t *testing.T) map[string]interface{} {
		t.Helper()
		var logEntry map[string]interface{}
		if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
			t.Fatalf("Failed to parse log JSON: %v", err)
		}
		return logEntry
	}

	t.Run("info logging", func(t *testing.T) {
		buf.Reset()
		logger.Info(ctx, "lap completed", "lap", 2, "lap_time", 41.23456)

		logEntry := parse(t)
		if logEntry["msg"] != "lap completed" {
			t.Errorf("Expected message 'lap completed', got %v", logEntry["msg"])
		}
		if logEntry["level"] != "INFO" {
			t.Errorf("Expected level 'INFO', got %v", logEntry["level"])
		}
		if logEntry["race_id"] != "race-123" {
			t.Errorf("Expected race_id 'race-123', got %v", logEntry["race_id"])
		}
		if logEntry["car_id"] != "car-9" {
			t.Errorf("Expected car_id 'car-9', got %v", logEntry["car_id"])
		}
		if logEntry["lap_time"] != 41.235 {
			t.Errorf("Expected lap_time 41.235, got %v", logEntry["lap_time"])
		}
	})

	t.Run("error logging", func(t *testing.T) {
		buf.Reset()
		testErr := errors.New("track file missing")
		logger.Error(ctx, "failed to load track", testErr, "path", "oval.json")

		logEntry := parse(t)
		if logEntry["level"] != "ERROR" {
			t.Errorf("Expected level 'ERROR', got %v", logEntry["level"])
		}
		if logEntry["error"] != "track file missing" {
			t.Errorf("Expected error 'track file missing', got %v", logEntry["error"])
		}
	})

	t.Run("debug logging", func(t *testing.T) {
		buf.Reset()
		logger.Debug(ctx, "wall hit", "bounce", 0.5)

		if parse(t)["level"] != "DEBUG" {
			t.Errorf("Expected level 'DEBUG'")
		}
	})

	t.Run("warn logging", func(t *testing.T) {
		buf.Reset()
		logger.Warn(ctx, "car off track")

		if parse(t)["level"] != "WARN" {
			t.Errorf("Expected level 'WARN'")
		}
	})
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelInfo)

	logger.Debug(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("debug message written at info level: %s", buf.String())
	}

	NewNopLogger().Error(context.Background(), "dropped", errors.New("x"))
}

func TestWrapError(t *testing.T) {
	t.Run("wrap nil error", func(t *testing.T) {
		if result := WrapError(nil, "context"); result != nil {
			t.Errorf("WrapError(nil) should return nil, got %v", result)
		}
	})

	t.Run("wrap error with context", func(t *testing.T) {
		originalErr := errors.New("original error")
		wrapped := WrapError(originalErr, "additional context")

		expectedMsg := "additional context: original error"
		if wrapped.Error() != expectedMsg {
			t.Errorf("WrapError() = %q, want %q", wrapped.Error(), expectedMsg)
		}
		if !errors.Is(wrapped, originalErr) {
			t.Error("WrapError() should preserve original error")
		}
	})

	t.Run("wrap error with formatted context", func(t *testing.T) {
		originalErr := errors.New("original error")
		wrapped := WrapError(originalErr, "loading track %s (%d points)", "oval", 20)

		expectedMsg := "loading track oval (20 points): original error"
		if wrapped.Error() != expectedMsg {
			t.Errorf("WrapError() = %q, want %q", wrapped.Error(), expectedMsg)
		}
	})
}

func TestLogWithoutRaceID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelInfo)

	logger.Info(context.Background(), "test message")

	if strings.Contains(buf.String(), "race_id") {
		t.Error("Log should not contain race_id when none is set in context")
	}
}
