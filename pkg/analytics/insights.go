package analytics

import (
	"crypto/md5"
	"fmt"

	"github.com/dataward/pushlog/pkg/worklog"
)

// Insight types emitted by predictive analysis.
const (
	InsightHighRiskFormat = "HIGH_RISK_FORMAT"
	InsightDegradation    = "PERFORMANCE_DEGRADATION"
	InsightQualityConcern = "DATA_QUALITY_CONCERN"
)

// riskFailureRate is the failure-rate threshold above which a file
// format is flagged as high risk.
const riskFailureRate = 0.3

// degradationFactor is the slowdown ratio between the first and second
// half of a run that counts as degradation.
const degradationFactor = 1.3

// qualityConcernFloor is the mean quality score below which the run is
// flagged for quality concerns.
const qualityConcernFloor = 80

// Insight is one predictive finding with an actionable recommendation.
type Insight struct {
	Type              string  `json:"type"`
	Format            string  `json:"format,omitempty"`
	FailureRate       float64 `json:"failure_rate,omitempty"`
	DegradationFactor float64 `json:"degradation_factor,omitempty"`
	AvgQualityScore   float64 `json:"avg_quality_score,omitempty"`
	Recommendation    string  `json:"recommendation"`
}

// PredictiveInsights derives forward-looking findings from the run:
// formats with elevated failure rates, performance degradation across
// the run, and aggregate quality concerns.
func PredictiveInsights(records []worklog.JobRecord) []Insight {
	insights := []Insight{}

	// Failure-rate analysis per format.
	errorByFormat := map[string]int{}
	totalByFormat := map[string]int{}
	for i := range records {
		totalByFormat[records[i].FileFormat]++
		if records[i].IsError() {
			errorByFormat[records[i].FileFormat]++
		}
	}
	for format, errCount := range errorByFormat {
		rate := float64(errCount) / float64(totalByFormat[format])
		if rate > riskFailureRate {
			insights = append(insights, Insight{
				Type:        InsightHighRiskFormat,
				Format:      format,
				FailureRate: rate,
				Recommendation: fmt.Sprintf(
					"Review %s file processing pipeline - %.1f%% failure rate detected",
					format, rate*100),
			})
		}
	}

	var successes []*worklog.JobRecord
	for i := range records {
		if records[i].IsSuccess() {
			successes = append(successes, &records[i])
		}
	}

	// Degradation: compare first-half vs second-half mean total time.
	if len(successes) >= 6 {
		mid := len(successes) / 2
		first := meanTotalTime(successes[:mid])
		second := meanTotalTime(successes[mid:])
		if first > 0 && second > first*degradationFactor {
			insights = append(insights, Insight{
				Type:              InsightDegradation,
				DegradationFactor: second / first,
				Recommendation:    "System performance degrading over time - investigate resource constraints",
			})
		}
	}

	// Quality trend across successful jobs.
	if len(successes) > 0 {
		var sum int
		for _, rec := range successes {
			sum += rec.DataQualityScore
		}
		avg := float64(sum) / float64(len(successes))
		if avg < qualityConcernFloor {
			insights = append(insights, Insight{
				Type:            InsightQualityConcern,
				AvgQualityScore: avg,
				Recommendation:  "Multiple data quality issues detected - implement data validation pipeline",
			})
		}
	}

	return insights
}

func meanTotalTime(recs []*worklog.JobRecord) float64 {
	if len(recs) == 0 {
		return 0
	}
	var sum float64
	for _, rec := range recs {
		sum += rec.TotalTime
	}
	return sum / float64(len(recs))
}

// repeatedFileFloor is the processing count above which a file
// signature is flagged as suspicious.
const repeatedFileFloor = 5

// SuspiciousRepeatedFile labels repeated processing of the same file.
const SuspiciousRepeatedFile = "REPEATED_FILE_PROCESSING"

// SuspiciousActivity is one flagged security pattern.
type SuspiciousActivity struct {
	Pattern        string `json:"pattern"`
	File           string `json:"file"`
	Count          int    `json:"count"`
	Recommendation string `json:"recommendation"`
}

// SecurityReport carries security and compliance findings.
type SecurityReport struct {
	Suspicious []SuspiciousActivity `json:"suspicious"`

	// EncodingCompliance is the percentage of jobs with UTF-8 input.
	EncodingCompliance float64 `json:"encoding_compliance"`

	// HeaderCompliance is the percentage of jobs whose headers were
	// all database-safe.
	HeaderCompliance float64 `json:"header_safety_compliance"`

	// ComplianceScore is the mean of the two compliance percentages.
	ComplianceScore float64 `json:"compliance_score"`
}

// SecurityInsights flags suspicious processing patterns and scores
// data compliance across the whole run.
func SecurityInsights(records []worklog.JobRecord) SecurityReport {
	report := SecurityReport{Suspicious: []SuspiciousActivity{}}
	if len(records) == 0 {
		return report
	}

	// Duplicate detection keyed by a signature of name + format.
	type group struct {
		file  string
		count int
	}
	groups := map[string]*group{}
	var encodingOK, headersOK int
	for i := range records {
		rec := &records[i]
		sig := fmt.Sprintf("%x", md5.Sum([]byte(rec.FileName+rec.FileFormat)))
		if g, ok := groups[sig]; ok {
			g.count++
		} else {
			groups[sig] = &group{file: rec.FileName, count: 1}
		}

		if rec.Encoding == "UTF-8" {
			encodingOK++
		}
		if rec.DBSafeHeaders == worklog.HeadersSafe {
			headersOK++
		}
	}

	for _, g := range groups {
		if g.count > repeatedFileFloor {
			report.Suspicious = append(report.Suspicious, SuspiciousActivity{
				Pattern:        SuspiciousRepeatedFile,
				File:           g.file,
				Count:          g.count,
				Recommendation: "Investigate repeated processing of same file",
			})
		}
	}

	total := float64(len(records))
	report.EncodingCompliance = float64(encodingOK) / total * 100
	report.HeaderCompliance = float64(headersOK) / total * 100
	report.ComplianceScore = (report.EncodingCompliance + report.HeaderCompliance) / 2

	return report
}

// Health tiers for the executive summary.
const (
	HealthHealthy  = "HEALTHY"
	HealthDegraded = "DEGRADED"
	HealthCritical = "CRITICAL"
)

// ExecutiveReport is the run's top-level summary.
type ExecutiveReport struct {
	SystemHealth       string   `json:"system_health"`
	AvailabilitySLA    float64  `json:"availability_sla"`
	TotalDataProcessed int      `json:"total_data_processed"`
	AvgProcessingTime  float64  `json:"average_processing_time"`
	QualityGrade       string   `json:"data_quality_grade"`
	Recommendations    []string `json:"key_recommendations"`
}

// ExecutiveSummary rolls the run up into availability, throughput,
// quality grade, and the top recommendations.
func ExecutiveSummary(records []worklog.JobRecord) ExecutiveReport {
	report := ExecutiveReport{
		SystemHealth:    HealthCritical,
		QualityGrade:    "F",
		Recommendations: []string{},
	}
	if len(records) == 0 {
		return report
	}

	var successes, errors []*worklog.JobRecord
	for i := range records {
		switch {
		case records[i].IsSuccess():
			successes = append(successes, &records[i])
		case records[i].IsError():
			errors = append(errors, &records[i])
		}
	}

	availability := float64(len(successes)) / float64(len(records))
	report.AvailabilitySLA = availability * 100
	switch {
	case availability >= 0.95:
		report.SystemHealth = HealthHealthy
	case availability >= 0.80:
		report.SystemHealth = HealthDegraded
	}

	var qualitySum int
	var timeSum float64
	for _, rec := range successes {
		report.TotalDataProcessed += rec.Records
		qualitySum += rec.DataQualityScore
		timeSum += rec.TotalTime
	}
	if len(successes) > 0 {
		report.AvgProcessingTime = timeSum / float64(len(successes))
		report.QualityGrade = qualityGrade(float64(qualitySum) / float64(len(successes)))
	}

	report.Recommendations = topRecommendations(len(records), successes, errors)
	return report
}

func qualityGrade(avg float64) string {
	switch {
	case avg >= 90:
		return "A"
	case avg >= 80:
		return "B"
	case avg >= 70:
		return "C"
	case avg >= 60:
		return "D"
	default:
		return "F"
	}
}

// topRecommendations produces up to three actionable recommendations
// from the run's failure rate, processing time, and quality trend.
func topRecommendations(total int, successes, errors []*worklog.JobRecord) []string {
	recommendations := []string{}

	if float64(len(errors))/float64(total) > 0.1 {
		recommendations = append(recommendations,
			"Implement pre-processing validation to reduce 10%+ failure rate")
	}

	if len(successes) > 0 {
		if meanTotalTime(successes) > 5 {
			recommendations = append(recommendations,
				"Optimize processing pipeline - average 5+ second processing time")
		}

		var sum int
		for _, rec := range successes {
			sum += rec.DataQualityScore
		}
		if float64(sum)/float64(len(successes)) < qualityConcernFloor {
			recommendations = append(recommendations,
				"Implement data quality gates - current average below 80%")
		}
	}

	if len(recommendations) > 3 {
		recommendations = recommendations[:3]
	}
	return recommendations
}
