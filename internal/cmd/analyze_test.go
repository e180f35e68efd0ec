package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataward/pushlog/pkg/logsource"
	"github.com/dataward/pushlog/pkg/manifest"
	"github.com/dataward/pushlog/pkg/pipeline"
	"github.com/dataward/pushlog/pkg/report"
	"github.com/dataward/pushlog/pkg/runregistry"
	"github.com/dataward/pushlog/pkg/worklog"
)

func TestShowAnalyzePlan(t *testing.T) {
	tests := []struct {
		name     string
		manifest *manifest.Manifest
		contains []string
	}{
		{
			name: "file source",
			manifest: &manifest.Manifest{
				Source: manifest.SourceConfig{
					Kind:  manifest.SourceFile,
					Paths: []string{"logs/**/*.log"},
				},
				Analyze: manifest.AnalyzeConfig{Concurrency: 8},
				Output: manifest.OutputConfig{
					Destination: "stdout",
					Format:      manifest.FormatCSV,
				},
			},
			contains: []string{
				"Analysis Plan (dry-run)",
				"Source:      file",
				"logs/**/*.log",
				"Concurrency: 8",
				"Output:      stdout (csv)",
			},
		},
		{
			name: "s3 source with artifacts and alerts",
			manifest: &manifest.Manifest{
				Source: manifest.SourceConfig{
					Kind: manifest.SourceS3,
					S3: &manifest.S3SourceConfig{
						Bucket:   "worker-logs",
						Prefix:   "prod/",
						Pattern:  "**/*.log",
						Endpoint: "https://s3.wasabisys.com",
					},
				},
				Analyze: manifest.AnalyzeConfig{Concurrency: 4},
				Output: manifest.OutputConfig{
					Destination:  "file:report.csv",
					Format:       manifest.FormatCSV,
					ArtifactsDir: "artifacts",
				},
				History: manifest.HistoryConfig{Database: "pushlog.db"},
				Alerts: manifest.AlertConfig{
					SlackWebhook: "https://hooks.slack.com/services/T0/B0/x",
					MinFailures:  3,
				},
			},
			contains: []string{
				"Source:      s3",
				"Bucket:      worker-logs",
				"Prefix:      prod/",
				"Endpoint:    https://s3.wasabisys.com",
				"Artifacts:   artifacts",
				"History:     pushlog.db",
				"Alerts:      slack (min_failures=3)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Capture stdout
			old := os.Stdout
			r, w, _ := os.Pipe()
			os.Stdout = w

			err := showAnalyzePlan(tt.manifest)
			require.NoError(t, err)

			require.NoError(t, w.Close())
			os.Stdout = old

			var buf bytes.Buffer
			_, _ = buf.ReadFrom(r)
			output := buf.String()

			for _, want := range tt.contains {
				assert.Contains(t, output, want, "output should contain %q", want)
			}
		})
	}
}

func TestCreateSource(t *testing.T) {
	ctx := context.Background()

	t.Run("file", func(t *testing.T) {
		m := &manifest.Manifest{
			Source: manifest.SourceConfig{Kind: manifest.SourceFile, Paths: []string{"a.log"}},
		}
		src, err := createSource(ctx, m)
		require.NoError(t, err)
		assert.IsType(t, &logsource.FileSource{}, src)
	})

	t.Run("stdin", func(t *testing.T) {
		m := &manifest.Manifest{
			Source: manifest.SourceConfig{Kind: manifest.SourceStdin},
		}
		src, err := createSource(ctx, m)
		require.NoError(t, err)
		assert.IsType(t, &logsource.ReaderSource{}, src)
	})

	t.Run("unsupported kind", func(t *testing.T) {
		m := &manifest.Manifest{
			Source: manifest.SourceConfig{Kind: "ftp"},
		}
		_, err := createSource(ctx, m)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported source kind")
	})
}

func TestCreateReportWriter_Stdout(t *testing.T) {
	m := &manifest.Manifest{
		Output: manifest.OutputConfig{Destination: "stdout", Format: manifest.FormatCSV},
	}

	writer, path, cleanup, err := createReportWriter(m)
	require.NoError(t, err)
	require.NotNil(t, writer)
	require.NotNil(t, cleanup)
	assert.Empty(t, path)
	assert.IsType(t, &report.CSVWriter{}, writer)

	cleanup()
}

func TestCreateReportWriter_JSONLFile(t *testing.T) {
	tmpDir := t.TempDir()
	outPath := filepath.Join(tmpDir, "report.jsonl")

	m := &manifest.Manifest{
		Output: manifest.OutputConfig{
			Destination: "file:" + outPath,
			Format:      manifest.FormatJSONL,
		},
	}

	writer, path, cleanup, err := createReportWriter(m)
	require.NoError(t, err)
	require.NotNil(t, writer)
	assert.IsType(t, &report.JSONLWriter{}, writer)
	assert.Equal(t, outPath, path)

	// File should exist
	_, err = os.Stat(outPath)
	require.NoError(t, err)

	cleanup()
}

func TestCreateReportWriter_InvalidPath(t *testing.T) {
	m := &manifest.Manifest{
		Output: manifest.OutputConfig{
			Destination: "/nonexistent/deeply/nested/path/report.csv",
			Format:      manifest.FormatCSV,
		},
	}

	_, _, _, err := createReportWriter(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create output file")
}

func TestWriteRunArtifacts(t *testing.T) {
	records := []worklog.JobRecord{
		{JobID: "a", FileName: "ok.csv", Status: worklog.StatusSuccess, TotalTime: 1.0, DataQualityScore: 100},
		{JobID: "b", FileName: "bad.csv", Status: worklog.StatusError, ErrorType: "QSV_ERROR"},
	}

	t.Run("disabled without artifacts dir", func(t *testing.T) {
		m := &manifest.Manifest{}
		paths, err := writeRunArtifacts(m, records)
		require.NoError(t, err)
		assert.Nil(t, paths)
	})

	t.Run("writes all artifact files", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "artifacts")
		m := &manifest.Manifest{
			Output: manifest.OutputConfig{ArtifactsDir: dir},
		}

		paths, err := writeRunArtifacts(m, records)
		require.NoError(t, err)
		require.Len(t, paths, 7)

		for _, p := range paths {
			_, err := os.Stat(p)
			assert.NoError(t, err, "artifact %s should exist", p)
		}
	})
}

func TestFinishRun(t *testing.T) {
	registry := runregistry.NewStore(t.TempDir())
	rec := &runregistry.RunRecord{
		RunID:     "run-xyz",
		State:     runregistry.RunStateRunning,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, registry.Write(rec))

	summary := &pipeline.Summary{
		Sources:   []string{"worker.log"},
		JobsTotal: 5,
		Successes: 4,
		Errors:    1,
		Duration:  2 * time.Second,
	}

	finishRun(registry, rec, summary, runregistry.RunStateCompleted, nil)

	got, err := registry.Get("run-xyz")
	require.NoError(t, err)
	assert.Equal(t, runregistry.RunStateCompleted, got.State)
	assert.Equal(t, int64(5), got.JobsTotal)
	assert.Equal(t, int64(1), got.Errors)
	assert.NotNil(t, got.EndedAt)
	assert.InDelta(t, 2.0, got.DurationSeconds, 0.001)
}
