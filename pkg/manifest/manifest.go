// Package manifest provides loading and validation of pushlog run manifests.
//
// A run manifest is a YAML or JSON file that configures all aspects of an
// analysis run: where worker logs come from, analysis behavior, output
// destination, run history, and alerting.
//
// Manifests are validated against a JSON Schema to ensure correctness before
// execution. The schema enforces strict typing and disallows unknown properties.
//
// Example manifest (YAML):
//
//	version: "1.0"
//	source:
//	  kind: file
//	  paths:
//	    - "logs/**/*.log"
//	analyze:
//	  concurrency: 4
//	output:
//	  destination: "file:report.csv"
//	  artifacts_dir: "artifacts"
package manifest

// Manifest represents a validated run manifest.
//
// Required fields are Version and Source. Analyze, Output, History, and
// Alerts are optional with sensible defaults.
type Manifest struct {
	// Schema is an optional JSON Schema reference for editor support.
	Schema string `json:"$schema,omitempty" yaml:"$schema,omitempty"`

	// Version is the manifest schema version. Must be "1.0".
	Version string `json:"version" yaml:"version"`

	// Source configures where worker logs are retrieved from.
	Source SourceConfig `json:"source" yaml:"source"`

	// Analyze configures analysis behavior (optional).
	Analyze AnalyzeConfig `json:"analyze,omitempty" yaml:"analyze,omitempty"`

	// Output configures output destination and format (optional).
	Output OutputConfig `json:"output,omitempty" yaml:"output,omitempty"`

	// History configures the run-history store (optional).
	History HistoryConfig `json:"history,omitempty" yaml:"history,omitempty"`

	// Alerts configures failure alerting (optional).
	Alerts AlertConfig `json:"alerts,omitempty" yaml:"alerts,omitempty"`
}

// Source kinds.
const (
	SourceFile  = "file"
	SourceStdin = "stdin"
	SourceS3    = "s3"
)

// SourceConfig configures the log source.
type SourceConfig struct {
	// Kind is the source type: "file", "stdin", or "s3".
	Kind string `json:"kind" yaml:"kind"`

	// Paths lists file paths or doublestar glob patterns. Required
	// when Kind is "file".
	Paths []string `json:"paths,omitempty" yaml:"paths,omitempty"`

	// S3 configures object storage retrieval. Required when Kind is
	// "s3".
	S3 *S3SourceConfig `json:"s3,omitempty" yaml:"s3,omitempty"`
}

// S3SourceConfig configures S3-compatible log retrieval.
type S3SourceConfig struct {
	// Bucket is the bucket name (required).
	Bucket string `json:"bucket" yaml:"bucket"`

	// Prefix narrows listing to keys under this prefix.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Pattern is an optional doublestar glob applied to listed keys.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Region is the AWS region. Optional.
	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	// Endpoint is a custom endpoint URL for S3-compatible storage.
	// Example: "https://s3.wasabisys.com"
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// Profile is the AWS credential profile name. Optional.
	Profile string `json:"profile,omitempty" yaml:"profile,omitempty"`

	// ForcePathStyle forces path-style URLs, required for most
	// S3-compatible stores.
	ForcePathStyle bool `json:"force_path_style,omitempty" yaml:"force_path_style,omitempty"`

	// RateLimit is the maximum requests per second (0 = unlimited).
	RateLimit float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
}

// AnalyzeConfig configures analysis behavior.
type AnalyzeConfig struct {
	// Concurrency is the number of parallel extraction workers.
	// Range: 1-32. Default: 4.
	Concurrency int `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
}

// Output formats.
const (
	FormatCSV   = "csv"
	FormatJSONL = "jsonl"
)

// OutputConfig configures output destination and format.
type OutputConfig struct {
	// Destination is the output target.
	// Values: "stdout" or "file:/path/to/report.csv"
	// Default: "stdout".
	Destination string `json:"destination,omitempty" yaml:"destination,omitempty"`

	// Format selects the record format: "csv" or "jsonl".
	// Default: "csv".
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// ArtifactsDir is the directory for JSON analytics artifacts.
	// Empty disables artifact output.
	ArtifactsDir string `json:"artifacts_dir,omitempty" yaml:"artifacts_dir,omitempty"`
}

// HistoryConfig configures the run-history store.
type HistoryConfig struct {
	// Database is the SQLite database path. Empty disables history.
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
}

// AlertConfig configures failure alerting.
type AlertConfig struct {
	// SlackWebhook is a Slack incoming-webhook URL. Empty disables
	// alerting.
	SlackWebhook string `json:"slack_webhook,omitempty" yaml:"slack_webhook,omitempty"`

	// MinFailures is the minimum error count in a run before an alert
	// is sent. Default: 1.
	MinFailures int `json:"min_failures,omitempty" yaml:"min_failures,omitempty"`
}

// Default values for optional configuration fields.
const (
	// DefaultVersion is the current manifest schema version.
	DefaultVersion = "1.0"

	// DefaultConcurrency is the default number of extraction workers.
	DefaultConcurrency = 4

	// DefaultDestination is the default output destination.
	DefaultDestination = "stdout"

	// DefaultFormat is the default record format.
	DefaultFormat = FormatCSV

	// DefaultMinFailures is the default alert threshold.
	DefaultMinFailures = 1
)

// ApplyDefaults fills in default values for optional fields.
//
// This should be called after loading and validating the manifest to ensure
// all optional fields have sensible values.
func (m *Manifest) ApplyDefaults() {
	if m.Analyze.Concurrency == 0 {
		m.Analyze.Concurrency = DefaultConcurrency
	}

	if m.Output.Destination == "" {
		m.Output.Destination = DefaultDestination
	}
	if m.Output.Format == "" {
		m.Output.Format = DefaultFormat
	}

	if m.Alerts.MinFailures == 0 {
		m.Alerts.MinFailures = DefaultMinFailures
	}
}
