package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dataward/pushlog/internal/notify"
	"github.com/dataward/pushlog/internal/observability"
	"github.com/dataward/pushlog/pkg/analytics"
	"github.com/dataward/pushlog/pkg/history"
	"github.com/dataward/pushlog/pkg/logsource"
	"github.com/dataward/pushlog/pkg/manifest"
	"github.com/dataward/pushlog/pkg/pipeline"
	"github.com/dataward/pushlog/pkg/report"
	"github.com/dataward/pushlog/pkg/runregistry"
	"github.com/dataward/pushlog/pkg/worklog"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a log analysis job from manifest",
	Long: `Run an analysis job as defined in a YAML or JSON manifest file.

The manifest specifies the log source, analysis behavior, output
configuration, run history, and alerting.

Example:
  pushlog analyze --job run.yaml
  pushlog analyze --job run.yaml --output report.csv
  pushlog analyze --job run.yaml --quiet
  pushlog analyze --job run.yaml --dry-run`,
	RunE: runAnalyze,
}

var (
	analyzeJobPath     string
	analyzeOutput      string
	analyzeQuiet       bool
	analyzeDryRun      bool
	analyzeConcurrency int
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeJobPath, "job", "j", "", "Path to job manifest (required)")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "Override output destination")
	analyzeCmd.Flags().BoolVarP(&analyzeQuiet, "quiet", "q", false, "Suppress progress logs")
	analyzeCmd.Flags().BoolVar(&analyzeDryRun, "dry-run", false, "Validate manifest and show plan without executing")
	analyzeCmd.Flags().IntVar(&analyzeConcurrency, "concurrency", 0, "Override extraction concurrency")

	_ = analyzeCmd.MarkFlagRequired("job")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	m, err := manifest.Load(analyzeJobPath)
	if err != nil {
		observability.CLILogger.Error("Failed to load manifest",
			zap.String("path", analyzeJobPath),
			zap.Error(err))
		return exitError(foundry.ExitInvalidArgument, "Invalid manifest", err)
	}

	observability.CLILogger.Debug("Loaded manifest",
		zap.String("path", analyzeJobPath),
		zap.String("source", m.Source.Kind),
		zap.Int("concurrency", m.Analyze.Concurrency))

	if analyzeOutput != "" {
		m.Output.Destination = analyzeOutput
	}
	if analyzeConcurrency > 0 {
		m.Analyze.Concurrency = analyzeConcurrency
	}

	if analyzeDryRun {
		return showAnalyzePlan(m)
	}

	return executeAnalyze(ctx, m)
}

// showAnalyzePlan displays what would be analyzed without executing.
func showAnalyzePlan(m *manifest.Manifest) error {
	fmt.Println("=== Analysis Plan (dry-run) ===")
	fmt.Println()
	fmt.Printf("Source:      %s\n", m.Source.Kind)
	switch m.Source.Kind {
	case manifest.SourceFile:
		fmt.Println("Paths:")
		for _, p := range m.Source.Paths {
			fmt.Printf("  - %s\n", p)
		}
	case manifest.SourceS3:
		fmt.Printf("Bucket:      %s\n", m.Source.S3.Bucket)
		if m.Source.S3.Prefix != "" {
			fmt.Printf("Prefix:      %s\n", m.Source.S3.Prefix)
		}
		if m.Source.S3.Pattern != "" {
			fmt.Printf("Pattern:     %s\n", m.Source.S3.Pattern)
		}
		if m.Source.S3.Endpoint != "" {
			fmt.Printf("Endpoint:    %s\n", m.Source.S3.Endpoint)
		}
	}
	fmt.Println()
	fmt.Printf("Concurrency: %d\n", m.Analyze.Concurrency)
	fmt.Printf("Output:      %s (%s)\n", m.Output.Destination, m.Output.Format)
	if m.Output.ArtifactsDir != "" {
		fmt.Printf("Artifacts:   %s\n", m.Output.ArtifactsDir)
	}
	if m.History.Database != "" {
		fmt.Printf("History:     %s\n", m.History.Database)
	}
	if m.Alerts.SlackWebhook != "" {
		fmt.Printf("Alerts:      slack (min_failures=%d)\n", m.Alerts.MinFailures)
	}
	fmt.Println()
	fmt.Println("Manifest validated successfully. Remove --dry-run to execute.")
	return nil
}

// executeAnalyze runs the actual analysis job.
func executeAnalyze(ctx context.Context, m *manifest.Manifest) error {
	runID := uuid.New().String()

	source, err := createSource(ctx, m)
	if err != nil {
		observability.CLILogger.Error("Failed to create log source", zap.Error(err))
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to connect to log source", err)
	}

	logs, err := source.Fetch(ctx)
	if err != nil {
		observability.CLILogger.Error("Failed to fetch logs", zap.Error(err))
		return exitError(foundry.ExitExternalServiceUnavailable, "Failed to fetch logs", err)
	}
	if len(logs) == 0 {
		observability.CLILogger.Warn("No logs matched the source configuration")
	}

	writer, reportPath, cleanup, err := createReportWriter(m)
	if err != nil {
		observability.CLILogger.Error("Failed to create writer", zap.Error(err))
		return exitError(foundry.ExitFileWriteError, "Failed to create output", err)
	}
	defer cleanup()

	registry := runregistry.NewStore(viper.GetString("runs.dir"))
	runRecord := &runregistry.RunRecord{
		RunID:        runID,
		State:        runregistry.RunStateRunning,
		ManifestPath: analyzeJobPath,
		ReportPath:   reportPath,
		CreatedAt:    time.Now().UTC(),
	}
	if err := registry.Write(runRecord); err != nil {
		observability.CLILogger.Warn("Failed to record run start", zap.Error(err))
	}

	inputs := make([]pipeline.Input, len(logs))
	for i, l := range logs {
		inputs[i] = pipeline.Input{Name: l.Name, Text: l.Text}
	}

	if !analyzeQuiet {
		observability.CLILogger.Info("Starting analysis",
			zap.String("run_id", runID),
			zap.Int("sources", len(inputs)),
			zap.Int("concurrency", m.Analyze.Concurrency))
	}

	p := pipeline.New(writer, pipeline.Config{Concurrency: m.Analyze.Concurrency})
	records, summary, err := p.Run(ctx, inputs)

	metricsCollector.RecordRun(summary)

	if err != nil {
		finishRun(registry, runRecord, summary, runregistry.RunStateFailed, err)
		if ctx.Err() != nil {
			observability.CLILogger.Warn("Analysis cancelled",
				zap.String("run_id", runID),
				zap.Int64("jobs_total", summary.JobsTotal))
			return exitError(foundry.ExitSignalInt, "Analysis cancelled", err)
		}
		observability.CLILogger.Error("Analysis failed",
			zap.String("run_id", runID),
			zap.Error(err))
		return exitError(foundry.ExitFileWriteError, "Analysis failed", err)
	}

	artifactPaths, err := writeRunArtifacts(m, records)
	if err != nil {
		observability.CLILogger.Error("Failed to write artifacts", zap.Error(err))
		finishRun(registry, runRecord, summary, runregistry.RunStateFailed, err)
		return exitError(foundry.ExitFileWriteError, "Failed to write artifacts", err)
	}
	runRecord.ArtifactPaths = artifactPaths

	if m.History.Database != "" {
		if err := saveHistory(m.History.Database, runID, summary, records); err != nil {
			observability.CLILogger.Warn("Failed to save run history", zap.Error(err))
		}
	}

	if m.Alerts.SlackWebhook != "" {
		sendAlert(ctx, m, runID, summary, records)
	}

	finishRun(registry, runRecord, summary, runregistry.RunStateCompleted, nil)

	if !analyzeQuiet {
		observability.CLILogger.Info("Analysis completed",
			zap.String("run_id", runID),
			zap.Int64("jobs_total", summary.JobsTotal),
			zap.Int64("successes", summary.Successes),
			zap.Int64("errors", summary.Errors),
			zap.Int64("incompletes", summary.Incompletes),
			zap.Duration("duration", summary.Duration))
	}

	return nil
}

// createSource builds the log source from manifest configuration.
func createSource(ctx context.Context, m *manifest.Manifest) (logsource.Source, error) {
	switch m.Source.Kind {
	case manifest.SourceFile:
		return logsource.NewFileSource(m.Source.Paths...), nil
	case manifest.SourceStdin:
		return logsource.NewReaderSource("stdin", os.Stdin), nil
	case manifest.SourceS3:
		s3 := m.Source.S3
		return logsource.NewS3Source(ctx, logsource.S3Config{
			Bucket:         s3.Bucket,
			Prefix:         s3.Prefix,
			Pattern:        s3.Pattern,
			Region:         s3.Region,
			Endpoint:       s3.Endpoint,
			Profile:        s3.Profile,
			ForcePathStyle: s3.ForcePathStyle || s3.Endpoint != "",
			RateLimit:      s3.RateLimit,
		})
	default:
		return nil, fmt.Errorf("unsupported source kind: %s", m.Source.Kind)
	}
}

// createReportWriter builds the record writer from manifest output
// configuration. It returns the writer, the report file path (empty
// for stdout), and a cleanup function.
func createReportWriter(m *manifest.Manifest) (report.Writer, string, func(), error) {
	newWriter := func(w *os.File) report.Writer {
		if m.Output.Format == manifest.FormatJSONL {
			return report.NewJSONLWriter(w)
		}
		return report.NewCSVWriter(w)
	}

	dest := m.Output.Destination
	if dest == "" || dest == "stdout" {
		w := newWriter(os.Stdout)
		return w, "", func() { _ = w.Close() }, nil
	}

	path := strings.TrimPrefix(dest, "file:")
	f, err := os.Create(path)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	w := newWriter(f)
	cleanup := func() {
		_ = w.Close()
		_ = f.Close()
	}
	return w, abs, cleanup, nil
}

// writeRunArtifacts computes and writes the JSON analytics artifacts.
func writeRunArtifacts(m *manifest.Manifest, records []worklog.JobRecord) ([]string, error) {
	if m.Output.ArtifactsDir == "" {
		return nil, nil
	}

	anomalies := analytics.DetectAnomalies(records)
	failures := analytics.AnalyzeFailures(records)
	performance := analytics.EfficiencyMetrics(records)
	business := analytics.BusinessMetrics(records)
	security := analytics.SecurityInsights(records)
	summary := analytics.ExecutiveSummary(records)

	return report.WriteArtifacts(m.Output.ArtifactsDir, &report.Artifacts{
		Anomalies:   &anomalies,
		Failures:    &failures,
		Performance: &performance,
		Business:    &business,
		Predictive:  analytics.PredictiveInsights(records),
		Security:    &security,
		Summary:     &summary,
	})
}

func saveHistory(dbPath, runID string, summary *pipeline.Summary, records []worklog.JobRecord) error {
	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return store.SaveRun(runID, summary, records)
}

func sendAlert(ctx context.Context, m *manifest.Manifest, runID string, summary *pipeline.Summary, records []worklog.JobRecord) {
	notifier, err := notify.New(notify.Opts{
		WebhookURL:  m.Alerts.SlackWebhook,
		MinFailures: m.Alerts.MinFailures,
	})
	if err != nil {
		observability.CLILogger.Warn("Invalid alert configuration", zap.Error(err))
		return
	}

	sent, err := notifier.NotifyRun(ctx, runID, summary, records)
	if err != nil {
		observability.CLILogger.Warn("Failed to send alert", zap.Error(err))
		return
	}
	if sent {
		observability.CLILogger.Info("Sent failure alert",
			zap.String("run_id", runID),
			zap.Int64("errors", summary.Errors))
	}
}

func finishRun(registry *runregistry.Store, rec *runregistry.RunRecord, summary *pipeline.Summary, state runregistry.RunState, runErr error) {
	rec.State = state
	now := time.Now().UTC()
	rec.EndedAt = &now
	if summary != nil {
		rec.Sources = summary.Sources
		rec.JobsTotal = summary.JobsTotal
		rec.Successes = summary.Successes
		rec.Errors = summary.Errors
		rec.Incompletes = summary.Incompletes
		rec.DurationSeconds = summary.Duration.Seconds()
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if err := registry.Write(rec); err != nil {
		observability.CLILogger.Warn("Failed to record run completion", zap.Error(err))
	}
}
