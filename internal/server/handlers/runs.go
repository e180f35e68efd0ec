package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/dataward/pushlog/internal/errors"
	"github.com/dataward/pushlog/pkg/history"
	"github.com/dataward/pushlog/pkg/report"
	"github.com/dataward/pushlog/pkg/runregistry"
)

// artifactFiles names the analytics artifacts a run may expose.
var artifactFiles = map[string]bool{
	report.AnomaliesFile:   true,
	report.FailuresFile:    true,
	report.PerformanceFile: true,
	report.BusinessFile:    true,
	report.PredictiveFile:  true,
	report.SecurityFile:    true,
	report.SummaryFile:     true,
}

// RunsHandler serves run records, reports, and analytics artifacts.
type RunsHandler struct {
	registry *runregistry.Store
	history  *history.Store
}

// NewRunsHandler creates a RunsHandler. history may be nil when no
// history database is configured.
func NewRunsHandler(registry *runregistry.Store, hist *history.Store) *RunsHandler {
	return &RunsHandler{registry: registry, history: hist}
}

// List serves GET /runs.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	runs, err := h.registry.List()
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"runs": runs})
}

// Get serves GET /runs/{run_id}.
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	rec, err := h.registry.Get(runID)
	if err != nil {
		if os.IsNotExist(err) {
			respondWithError(w, r, apperrors.NewHTTPError("NOT_FOUND", "run not found: "+runID, http.StatusNotFound))
			return
		}
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, rec)
}

// Report serves GET /runs/{run_id}/report as the raw analysis table.
func (h *RunsHandler) Report(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	rec, err := h.registry.Get(runID)
	if err != nil {
		if os.IsNotExist(err) {
			respondWithError(w, r, apperrors.NewHTTPError("NOT_FOUND", "run not found: "+runID, http.StatusNotFound))
			return
		}
		respondWithError(w, r, err)
		return
	}
	if rec.ReportPath == "" {
		respondWithError(w, r, apperrors.NewHTTPError("NOT_FOUND", "run has no report file", http.StatusNotFound))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	http.ServeFile(w, r, rec.ReportPath)
}

// Artifact serves GET /runs/{run_id}/artifacts/{name}.
func (h *RunsHandler) Artifact(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	name := chi.URLParam(r, "name")

	if !artifactFiles[name] {
		respondWithError(w, r, apperrors.NewHTTPError("NOT_FOUND", "unknown artifact: "+name, http.StatusNotFound))
		return
	}

	rec, err := h.registry.Get(runID)
	if err != nil {
		if os.IsNotExist(err) {
			respondWithError(w, r, apperrors.NewHTTPError("NOT_FOUND", "run not found: "+runID, http.StatusNotFound))
			return
		}
		respondWithError(w, r, err)
		return
	}

	for _, p := range rec.ArtifactPaths {
		if filepath.Base(p) == name {
			w.Header().Set("Content-Type", "application/json")
			http.ServeFile(w, r, p)
			return
		}
	}
	respondWithError(w, r, apperrors.NewHTTPError("NOT_FOUND", "artifact not written for this run: "+name, http.StatusNotFound))
}

// Trend serves GET /history/trend from the history database.
func (h *RunsHandler) Trend(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondWithError(w, r, apperrors.NewHTTPError("NOT_CONFIGURED", "history database not configured", http.StatusNotImplemented))
		return
	}
	points, err := h.history.Trend(queryLimit(r, 10))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"trend": points})
}

// RecurringErrors serves GET /history/errors.
func (h *RunsHandler) RecurringErrors(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondWithError(w, r, apperrors.NewHTTPError("NOT_CONFIGURED", "history database not configured", http.StatusNotImplemented))
		return
	}
	recurring, err := h.history.RecurringErrors(queryLimit(r, 20))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"recurring_errors": recurring})
}

func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
