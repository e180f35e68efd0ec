// Package runregistry persists per-run metadata on disk so past
// analysis runs can be listed and inspected without a database.
package runregistry

import "time"

// RunState is the lifecycle state of an analysis run.
//
// NOTE: These values are persisted in run.json and are part of the stable
// on-disk contract.
type RunState string

const (
	RunStateRunning   RunState = "running"
	RunStateCompleted RunState = "completed"
	RunStateFailed    RunState = "failed"
)

// RunRecord is the persistent record written to run.json.
//
// The schema is designed for backward-compatible extension (additive fields).
type RunRecord struct {
	RunID        string   `json:"run_id"`
	State        RunState `json:"state"`
	ManifestPath string   `json:"manifest_path,omitempty"`

	// Sources lists the log names analyzed in this run.
	Sources []string `json:"sources,omitempty"`

	// Outcome counters, populated when the run completes.
	JobsTotal   int64 `json:"jobs_total"`
	Successes   int64 `json:"successes"`
	Errors      int64 `json:"errors"`
	Incompletes int64 `json:"incompletes"`

	// ReportPath is where the analysis table was written, when the
	// destination was a file.
	ReportPath string `json:"report_path,omitempty"`

	// ArtifactPaths lists the JSON analytics artifacts written.
	ArtifactPaths []string `json:"artifact_paths,omitempty"`

	// Error holds the failure message for failed runs.
	Error string `json:"error,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	// DurationSeconds is the analysis wall time.
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}
