// Package handlers implements the serve-mode HTTP endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	fulmenerrors "github.com/fulmenhq/gofulmen/errors"

	apperrors "github.com/dataward/pushlog/internal/errors"
)

// HealthChecker probes one dependency.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// HealthResponse is the body returned by the health endpoints.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Time    string            `json:"time"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// HealthManager runs registered checkers and reports overall status.
type HealthManager struct {
	version  string
	mu       sync.RWMutex
	checkers map[string]HealthChecker
}

// NewHealthManager creates a HealthManager reporting the given version.
func NewHealthManager(version string) *HealthManager {
	return &HealthManager{
		version:  version,
		checkers: make(map[string]HealthChecker),
	}
}

// RegisterChecker adds a named dependency probe.
func (m *HealthManager) RegisterChecker(name string, checker HealthChecker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers[name] = checker
}

const checkTimeout = 5 * time.Second

func (m *HealthManager) runChecks(ctx context.Context) map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make(map[string]string, len(m.checkers))
	for name, checker := range m.checkers {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := checker.CheckHealth(checkCtx)
		cancel()

		switch {
		case err == nil:
			results[name] = "healthy"
		case checkCtx.Err() == context.DeadlineExceeded:
			results[name] = "timeout"
		default:
			results[name] = "unhealthy"
		}
	}
	return results
}

func (m *HealthManager) determineOverallStatus(checks map[string]string) string {
	status := "healthy"
	for _, s := range checks {
		switch s {
		case "unhealthy":
			return "unhealthy"
		case "timeout":
			status = "degraded"
		}
	}
	return status
}

// HealthHandler reports overall health with per-check detail.
func (m *HealthManager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	checks := m.runChecks(r.Context())
	status := m.determineOverallStatus(checks)

	if status == "unhealthy" {
		envelope := fulmenerrors.NewErrorEnvelope("SERVICE_UNAVAILABLE", "one or more health checks failed")
		envelope, _ = envelope.WithContext(map[string]interface{}{
			"checks": checks,
		})
		apperrors.WriteEnvelope(w, r, envelope, http.StatusServiceUnavailable)
		return
	}

	writeHealth(w, HealthResponse{
		Status:  status,
		Version: m.version,
		Time:    time.Now().UTC().Format(time.RFC3339),
		Checks:  checks,
	})
}

// LivenessHandler always reports healthy while the process runs.
func (m *HealthManager) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, HealthResponse{
		Status:  "healthy",
		Version: m.version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadinessHandler reports whether dependencies are serving.
func (m *HealthManager) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	m.HealthHandler(w, r)
}

// StartupHandler reports whether startup completed.
func (m *HealthManager) StartupHandler(w http.ResponseWriter, r *http.Request) {
	m.LivenessHandler(w, r)
}

func writeHealth(w http.ResponseWriter, resp HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

var globalHealthManager *HealthManager

// InitHealthManager initializes the process-wide health manager.
func InitHealthManager(version string) {
	globalHealthManager = NewHealthManager(version)
}

// GetHealthManager returns the process-wide health manager, or nil.
func GetHealthManager() *HealthManager {
	return globalHealthManager
}

func withGlobalManager(w http.ResponseWriter, r *http.Request, fn func(*HealthManager, http.ResponseWriter, *http.Request)) {
	if globalHealthManager == nil {
		envelope := fulmenerrors.NewErrorEnvelope("SERVICE_UNAVAILABLE", "health manager not initialized")
		apperrors.WriteEnvelope(w, r, envelope, http.StatusServiceUnavailable)
		return
	}
	fn(globalHealthManager, w, r)
}

// HealthHandler serves /health using the global manager.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	withGlobalManager(w, r, (*HealthManager).HealthHandler)
}

// LivenessHandler serves /health/live using the global manager.
func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	withGlobalManager(w, r, (*HealthManager).LivenessHandler)
}

// ReadinessHandler serves /health/ready using the global manager.
func ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	withGlobalManager(w, r, (*HealthManager).ReadinessHandler)
}

// StartupHandler serves /health/startup using the global manager.
func StartupHandler(w http.ResponseWriter, r *http.Request) {
	withGlobalManager(w, r, (*HealthManager).StartupHandler)
}
