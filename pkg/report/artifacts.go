package report

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/dataward/pushlog/pkg/analytics"
)

// Artifact file names written alongside the analysis table.
const (
	AnomaliesFile   = "anomalies.json"
	FailuresFile    = "failure_analysis.json"
	PerformanceFile = "performance_metrics.json"
	BusinessFile    = "business_metrics.json"
	PredictiveFile  = "predictive_insights.json"
	SecurityFile    = "security_analysis.json"
	SummaryFile     = "executive_summary.json"
)

// Artifacts bundles the per-run analytics outputs. Nil sections are
// skipped rather than written as "null" files.
type Artifacts struct {
	Anomalies   *analytics.AnomalyReport
	Failures    *analytics.FailurePatterns
	Performance *analytics.EfficiencyReport
	Business    *analytics.BusinessReport
	Predictive  []analytics.Insight
	Security    *analytics.SecurityReport
	Summary     *analytics.ExecutiveReport
}

// WriteArtifacts writes each populated artifact as an indented JSON
// file under dir, creating the directory if needed. It returns the
// paths written.
func WriteArtifacts(dir string, a *Artifacts) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &WriteError{Op: "mkdir", Err: err}
	}

	var written []string
	write := func(name string, v any) error {
		path := filepath.Join(dir, name)
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return &WriteError{Op: "marshal " + name, Err: err}
		}
		data = append(data, '\n')
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return &WriteError{Op: "write " + name, Err: err}
		}
		written = append(written, path)
		return nil
	}

	if a.Anomalies != nil {
		if err := write(AnomaliesFile, a.Anomalies); err != nil {
			return written, err
		}
	}
	if a.Failures != nil {
		if err := write(FailuresFile, a.Failures); err != nil {
			return written, err
		}
	}
	if a.Performance != nil {
		if err := write(PerformanceFile, a.Performance); err != nil {
			return written, err
		}
	}
	if a.Business != nil {
		if err := write(BusinessFile, a.Business); err != nil {
			return written, err
		}
	}
	if a.Predictive != nil {
		if err := write(PredictiveFile, a.Predictive); err != nil {
			return written, err
		}
	}
	if a.Security != nil {
		if err := write(SecurityFile, a.Security); err != nil {
			return written, err
		}
	}
	if a.Summary != nil {
		if err := write(SummaryFile, a.Summary); err != nil {
			return written, err
		}
	}
	return written, nil
}
