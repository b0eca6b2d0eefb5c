// Package health exposes liveness and readiness probes for a running
// simulation, so a long headless run can be watched from outside.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"
)

// Status values
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// ErrStalled is returned when the simulation has stopped advancing
var ErrStalled = errors.New("simulation stalled")

// HealthCheck defines the interface for individual health checks.
type HealthCheck interface {
	// Name returns the unique name of this health check
	Name() string
	// Check performs the health check and returns an error if unhealthy
	Check(ctx context.Context) error
}

// HealthStatus represents the overall health of the process.
type HealthStatus struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents the health status of an individual component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthChecker manages and executes health checks.
type HealthChecker struct {
	checks map[string]HealthCheck
	mu     sync.RWMutex
}

// NewHealthChecker creates a new health checker instance.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks: make(map[string]HealthCheck),
	}
}

// AddCheck registers a health check. A check with the same name is replaced.
func (hc *HealthChecker) AddCheck(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[check.Name()] = check
}

// RemoveCheck removes a health check by name.
func (hc *HealthChecker) RemoveCheck(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	delete(hc.checks, name)
}

// Names returns the registered check names in sorted order
func (hc *HealthChecker) Names() []string {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckHealth runs every registered check. The overall status is healthy
// only if all of them pass.
func (hc *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	status := HealthStatus{
		Status: StatusHealthy,
		Checks: make(map[string]ComponentHealth),
	}

	for name, check := range hc.checks {
		if err := check.Check(ctx); err != nil {
			status.Status = StatusUnhealthy
			status.Checks[name] = ComponentHealth{
				Status:  StatusUnhealthy,
				Message: err.Error(),
			}
		} else {
			status.Checks[name] = ComponentHealth{Status: StatusHealthy}
		}
	}

	return status
}

// LivenessHandler answers 200 while the process can serve requests.
func (hc *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := map[string]string{"status": "alive"}
	json.NewEncoder(w).Encode(response)
}

// ReadinessHandler runs every check and answers 200, or 503 if any fails.
func (hc *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := hc.CheckHealth(ctx)

	w.Header().Set("Content-Type", "application/json")

	if health.Status == StatusHealthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(health)
}

// Handler returns a mux serving /health and /ready
func (hc *HealthChecker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", hc.LivenessHandler)
	mux.HandleFunc("/ready", hc.ReadinessHandler)
	return mux
}

// TrackHealthCheck fails until a track has been loaded.
type TrackHealthCheck struct {
	trackName func() string
}

// NewTrackHealthCheck creates a track check. trackName returns "" while no
// track is loaded.
func NewTrackHealthCheck(trackName func() string) *TrackHealthCheck {
	return &TrackHealthCheck{trackName: trackName}
}

// Name returns the name of this health check.
func (c *TrackHealthCheck) Name() string {
	return "track"
}

// Check verifies that a track is loaded.
func (c *TrackHealthCheck) Check(ctx context.Context) error {
	if c.trackName() == "" {
		return fmt.Errorf("no track loaded")
	}
	return nil
}

// SimulationHealthCheck fails when the tick counter has not moved for
// longer than maxStall.
type SimulationHealthCheck struct {
	currentTick func() uint64
	maxStall    time.Duration
	now         func() time.Time

	mu       sync.Mutex
	lastTick uint64
	lastSeen time.Time
}

// NewSimulationHealthCheck creates a stall detector over currentTick
func NewSimulationHealthCheck(currentTick func() uint64, maxStall time.Duration) *SimulationHealthCheck {
	return &SimulationHealthCheck{
		currentTick: currentTick,
		maxStall:    maxStall,
		now:         time.Now,
		lastTick:    currentTick(),
		lastSeen:    time.Now(),
	}
}

// Name returns the name of this health check.
func (c *SimulationHealthCheck) Name() string {
	return "simulation"
}

// Check verifies that the simulation has advanced recently.
func (c *SimulationHealthCheck) Check(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	tick := c.currentTick()
	if tick != c.lastTick {
		c.lastTick = tick
		c.lastSeen = now
		return nil
	}
	if stalled := now.Sub(c.lastSeen); stalled > c.maxStall {
		return fmt.Errorf("%w: tick %d unchanged for %s", ErrStalled, tick, stalled.Round(time.Millisecond))
	}
	return nil
}

// MemoryHealthCheck implements HealthCheck for memory usage monitoring.
type MemoryHealthCheck struct {
	maxMemoryMB    int64
	getMemoryUsage func() int64
}

// NewMemoryHealthCheck creates a health check for memory usage.
func NewMemoryHealthCheck(maxMemoryMB int64, getMemoryUsage func() int64) *MemoryHealthCheck {
	return &MemoryHealthCheck{
		maxMemoryMB:    maxMemoryMB,
		getMemoryUsage: getMemoryUsage,
	}
}

// Name returns the name of this health check.
func (m *MemoryHealthCheck) Name() string {
	return "memory"
}

// Check verifies that memory usage is within acceptable limits.
func (m *MemoryHealthCheck) Check(ctx context.Context) error {
	currentMB := m.getMemoryUsage()
	if currentMB > m.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", currentMB, m.maxMemoryMB)
	}
	return nil
}

// MemoryUsageMB returns the heap currently allocated, in megabytes
func MemoryUsageMB() int64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.Alloc / 1024 / 1024)
}
