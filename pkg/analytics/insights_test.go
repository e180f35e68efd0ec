package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataward/pushlog/pkg/worklog"
)

func TestPredictiveInsights(t *testing.T) {
	t.Run("high risk format above 30 percent failure rate", func(t *testing.T) {
		records := []worklog.JobRecord{
			errorRec("e1", "2024-03-15 08:00:00", "a.xlsx", "XLSX"),
			errorRec("e2", "2024-03-15 08:10:00", "b.xlsx", "XLSX"),
			successRec("ok1", 1.0),
			successRec("ok2", 1.0),
		}
		records[0].FileFormat = "XLSX"
		records[1].FileFormat = "XLSX"
		records[2].FileFormat = "CSV"
		records[3].FileFormat = "CSV"
		records[2].DataQualityScore = 90
		records[3].DataQualityScore = 90

		insights := PredictiveInsights(records)
		require.Len(t, insights, 1)
		assert.Equal(t, InsightHighRiskFormat, insights[0].Type)
		assert.Equal(t, "XLSX", insights[0].Format)
		assert.InDelta(t, 1.0, insights[0].FailureRate, 1e-9)
		assert.Contains(t, insights[0].Recommendation, "XLSX")
	})

	t.Run("format at 30 percent is not flagged", func(t *testing.T) {
		var records []worklog.JobRecord
		for i := 0; i < 7; i++ {
			r := successRec(fmt.Sprintf("ok-%d", i), 1.0)
			r.FileFormat = "CSV"
			r.DataQualityScore = 90
			records = append(records, r)
		}
		for i := 0; i < 3; i++ {
			records = append(records, errorRec(fmt.Sprintf("e-%d", i), "2024-03-15 08:00:00", "x.csv", "CSV"))
		}

		insights := PredictiveInsights(records)
		assert.Empty(t, insights)
	})

	t.Run("performance degradation across the run", func(t *testing.T) {
		var records []worklog.JobRecord
		for i := 0; i < 3; i++ {
			r := successRec(fmt.Sprintf("early-%d", i), 1.0)
			r.DataQualityScore = 90
			records = append(records, r)
		}
		for i := 0; i < 3; i++ {
			r := successRec(fmt.Sprintf("late-%d", i), 2.0)
			r.DataQualityScore = 90
			records = append(records, r)
		}

		insights := PredictiveInsights(records)
		require.Len(t, insights, 1)
		assert.Equal(t, InsightDegradation, insights[0].Type)
		assert.InDelta(t, 2.0, insights[0].DegradationFactor, 1e-9)
	})

	t.Run("no degradation check below six successes", func(t *testing.T) {
		records := []worklog.JobRecord{
			successRec("a", 1.0), successRec("b", 1.0),
			successRec("c", 10.0), successRec("d", 10.0),
		}
		for i := range records {
			records[i].DataQualityScore = 90
		}
		insights := PredictiveInsights(records)
		assert.Empty(t, insights)
	})

	t.Run("quality concern below 80", func(t *testing.T) {
		records := []worklog.JobRecord{
			successRec("a", 1.0),
			successRec("b", 1.0),
		}
		records[0].DataQualityScore = 60
		records[1].DataQualityScore = 70

		insights := PredictiveInsights(records)
		require.Len(t, insights, 1)
		assert.Equal(t, InsightQualityConcern, insights[0].Type)
		assert.InDelta(t, 65.0, insights[0].AvgQualityScore, 1e-9)
	})
}

func TestSecurityInsights(t *testing.T) {
	t.Run("repeated file processing flagged above five runs", func(t *testing.T) {
		var records []worklog.JobRecord
		for i := 0; i < 6; i++ {
			r := successRec(fmt.Sprintf("job-%d", i), 1.0)
			r.FileName = "same.csv"
			r.FileFormat = "CSV"
			records = append(records, r)
		}

		report := SecurityInsights(records)
		require.Len(t, report.Suspicious, 1)
		assert.Equal(t, SuspiciousRepeatedFile, report.Suspicious[0].Pattern)
		assert.Equal(t, "same.csv", report.Suspicious[0].File)
		assert.Equal(t, 6, report.Suspicious[0].Count)
	})

	t.Run("compliance scoring", func(t *testing.T) {
		records := []worklog.JobRecord{
			{Encoding: "UTF-8", DBSafeHeaders: worklog.HeadersSafe},
			{Encoding: "windows-1252", DBSafeHeaders: "2 unsafe headers"},
		}
		report := SecurityInsights(records)
		assert.InDelta(t, 50.0, report.EncodingCompliance, 1e-9)
		assert.InDelta(t, 50.0, report.HeaderCompliance, 1e-9)
		assert.InDelta(t, 50.0, report.ComplianceScore, 1e-9)
		assert.Empty(t, report.Suspicious)
	})

	t.Run("empty input", func(t *testing.T) {
		report := SecurityInsights(nil)
		assert.Empty(t, report.Suspicious)
		assert.Zero(t, report.ComplianceScore)
	})
}

func TestExecutiveSummary(t *testing.T) {
	t.Run("healthy run", func(t *testing.T) {
		var records []worklog.JobRecord
		for i := 0; i < 20; i++ {
			r := successRec(fmt.Sprintf("job-%d", i), 1.0)
			r.Records = 1000
			r.DataQualityScore = 95
			records = append(records, r)
		}

		report := ExecutiveSummary(records)
		assert.Equal(t, HealthHealthy, report.SystemHealth)
		assert.InDelta(t, 100.0, report.AvailabilitySLA, 1e-9)
		assert.Equal(t, 20000, report.TotalDataProcessed)
		assert.InDelta(t, 1.0, report.AvgProcessingTime, 1e-9)
		assert.Equal(t, "A", report.QualityGrade)
		assert.Empty(t, report.Recommendations)
	})

	t.Run("degraded and critical tiers", func(t *testing.T) {
		tests := []struct {
			name      string
			successes int
			errors    int
			want      string
		}{
			{name: "healthy at 95", successes: 19, errors: 1, want: HealthHealthy},
			{name: "degraded at 80", successes: 16, errors: 4, want: HealthDegraded},
			{name: "critical below 80", successes: 10, errors: 10, want: HealthCritical},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var records []worklog.JobRecord
				for i := 0; i < tt.successes; i++ {
					records = append(records, successRec(fmt.Sprintf("s-%d", i), 1.0))
				}
				for i := 0; i < tt.errors; i++ {
					records = append(records, errorRec(fmt.Sprintf("e-%d", i), "2024-03-15 08:00:00", "x.csv", "CSV"))
				}
				report := ExecutiveSummary(records)
				assert.Equal(t, tt.want, report.SystemHealth)
			})
		}
	})

	t.Run("recommendations from failure rate and quality", func(t *testing.T) {
		var records []worklog.JobRecord
		for i := 0; i < 5; i++ {
			r := successRec(fmt.Sprintf("s-%d", i), 10.0)
			r.DataQualityScore = 50
			records = append(records, r)
		}
		for i := 0; i < 2; i++ {
			records = append(records, errorRec(fmt.Sprintf("e-%d", i), "2024-03-15 08:00:00", "x.csv", "CSV"))
		}

		report := ExecutiveSummary(records)
		require.Len(t, report.Recommendations, 3)
		assert.Contains(t, report.Recommendations[0], "failure rate")
		assert.Contains(t, report.Recommendations[1], "processing time")
		assert.Contains(t, report.Recommendations[2], "quality gates")
	})

	t.Run("empty run is critical with grade F", func(t *testing.T) {
		report := ExecutiveSummary(nil)
		assert.Equal(t, HealthCritical, report.SystemHealth)
		assert.Equal(t, "F", report.QualityGrade)
	})
}

func TestEfficiencyMetrics(t *testing.T) {
	t.Run("throughput and phase shares", func(t *testing.T) {
		r1 := successRec("a", 2.0)
		r1.Records = 1000
		r1.DownloadTime = 0.5
		r1.AnalysisTime = 0.5
		r2 := successRec("b", 2.0)
		r2.Records = 3000
		r2.DownloadTime = 1.5
		r2.AnalysisTime = 0.5

		report := EfficiencyMetrics([]worklog.JobRecord{r1, r2})
		require.False(t, report.Skipped)

		// 4000 records over 4 seconds.
		assert.InDelta(t, 1000.0, report.OverallThroughput, 1e-9)

		download := report.Phases["download"]
		assert.InDelta(t, 1.0, download.Avg, 1e-9)
		assert.InDelta(t, 50.0, download.ShareOfTotal, 1e-9)

		analysis := report.Phases["analysis"]
		assert.InDelta(t, 0.5, analysis.Avg, 1e-9)
		assert.InDelta(t, 25.0, analysis.ShareOfTotal, 1e-9)

		// Phases with no recorded time report zero.
		assert.Zero(t, report.Phases["formulae"].Avg)
	})

	t.Run("no successful jobs is skipped", func(t *testing.T) {
		records := []worklog.JobRecord{
			errorRec("e1", "2024-03-15 08:00:00", "x.csv", "CSV"),
		}
		report := EfficiencyMetrics(records)
		assert.True(t, report.Skipped)
	})

	t.Run("zero total time yields zero throughput", func(t *testing.T) {
		report := EfficiencyMetrics([]worklog.JobRecord{successRec("a", 0)})
		require.False(t, report.Skipped)
		assert.Zero(t, report.OverallThroughput)
	})
}

func TestBusinessMetrics(t *testing.T) {
	t.Run("availability quality and cost", func(t *testing.T) {
		s1 := successRec("a", 1800.0)
		s1.Records = 1000
		s1.DataQualityScore = 90
		s2 := successRec("b", 1800.0)
		s2.Records = 1000
		s2.DataQualityScore = 80
		e1 := errorRec("e1", "2024-03-15 08:00:00", "x.csv", "CSV")
		e1.TotalTime = 10.0

		report := BusinessMetrics([]worklog.JobRecord{s1, s2, e1})

		assert.InDelta(t, 2.0/3.0, report.Availability, 1e-9)
		assert.InDelta(t, 10.0, report.MTTR, 1e-9)
		// 2000 records over 3600 seconds of successful time.
		assert.InDelta(t, 2000.0/3600.0, report.PipelineEfficiency, 1e-9)
		// One CPU hour at the modeled rate.
		assert.InDelta(t, 0.10, report.EstimatedCost, 1e-9)
		assert.InDelta(t, 85.0, report.AvgDataQuality, 1e-9)
		// Only s1 meets the 85-point SLA floor.
		assert.InDelta(t, 0.5, report.QualitySLACompliance, 1e-9)
	})

	t.Run("empty input", func(t *testing.T) {
		report := BusinessMetrics(nil)
		assert.Zero(t, report.Availability)
		assert.Zero(t, report.MTTR)
	})
}
