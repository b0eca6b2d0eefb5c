// Package logging provides structured logging for the rally simulation.
// It wraps Go's standard slog package with race and car identifiers carried
// in the context and compact formatting of telemetry values.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Logger wraps slog.Logger to provide context-aware logging for races.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger instance with JSON output on stdout.
// The log level can be controlled via the RALLY_LOG_LEVEL environment variable.
// Valid levels: DEBUG, INFO, WARN, ERROR. Defaults to INFO.
func NewLogger() *Logger {
	return NewLoggerWithWriter(os.Stdout, getLogLevelFromEnv())
}

// NewLoggerWithWriter creates a JSON logger writing to w at the given level.
func NewLoggerWithWriter(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: roundFloats,
	})
	return &Logger{slog.New(handler)}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	return NewLoggerWithWriter(io.Discard, slog.LevelError)
}

// LogWithContext logs a message with the race and car IDs found in ctx.
func (l *Logger) LogWithContext(ctx context.Context, level slog.Level, msg string, args ...any) {
	if raceID := GetRaceID(ctx); raceID != "" {
		args = append(args, "race_id", raceID)
	}
	if carID := GetCarID(ctx); carID != "" {
		args = append(args, "car_id", carID)
	}
	l.Log(ctx, level, msg, args...)
}

// Info logs an informational message with context.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelInfo, msg, args...)
}

// Warn logs a warning message with context.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelWarn, msg, args...)
}

// Error logs an error message with context and proper error formatting.
func (l *Logger) Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.LogWithContext(ctx, slog.LevelError, msg, args...)
}

// Debug logs a debug message with context.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelDebug, msg, args...)
}

type raceIDKey struct{}

type carIDKey struct{}

// WithRaceID adds a race ID to the context.
// If no race ID is provided, a new one will be generated.
func WithRaceID(ctx context.Context, raceID string) context.Context {
	if raceID == "" {
		raceID = NewID()
	}
	return context.WithValue(ctx, raceIDKey{}, raceID)
}

// GetRaceID extracts the race ID from the context.
// Returns empty string if no race ID is present.
func GetRaceID(ctx context.Context) string {
	if id, ok := ctx.Value(raceIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithCarID adds a car ID to the context.
func WithCarID(ctx context.Context, carID string) context.Context {
	return context.WithValue(ctx, carIDKey{}, carID)
}

// GetCarID extracts the car ID from the context.
func GetCarID(ctx context.Context) string {
	if id, ok := ctx.Value(carIDKey{}).(string); ok {
		return id
	}
	return ""
}

// NewID returns a new random identifier for races and cars.
func NewID() string {
	return uuid.NewString()
}

// getLogLevelFromEnv determines the log level from environment variables.
func getLogLevelFromEnv() slog.Level {
	return ParseLevel(os.Getenv("RALLY_LOG_LEVEL"))
}

// ParseLevel maps a level name to a slog level, defaulting to INFO.
func ParseLevel(name string) slog.Level {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// floatPrecision is the number of decimals kept for float attributes
const floatPrecision = 1000

// roundFloats trims float attributes so per-tick telemetry stays readable.
// Non-finite values are written as strings since JSON cannot carry them.
func roundFloats(groups []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindFloat64 {
		return a
	}
	f := a.Value.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return slog.String(a.Key, fmt.Sprint(f))
	}
	return slog.Float64(a.Key, math.Round(f*floatPrecision)/floatPrecision)
}

// WrapError wraps an error with additional context information.
// This preserves the original error while adding descriptive context.
func WrapError(err error, context string, args ...any) error {
	if err == nil {
		return nil
	}
	if len(args) > 0 {
		context = fmt.Sprintf(context, args...)
	}
	return fmt.Errorf("%s: %w", context, err)
}
