package analytics

import "github.com/dataward/pushlog/pkg/worklog"

// PhaseStat summarizes one processing phase across successful jobs.
type PhaseStat struct {
	// Avg is the mean phase time in seconds.
	Avg float64 `json:"avg"`

	// ShareOfTotal is the phase's percentage of total processing time.
	ShareOfTotal float64 `json:"share_of_total"`
}

// EfficiencyReport holds throughput and per-phase efficiency metrics
// for the successful population.
type EfficiencyReport struct {
	// Skipped is set when no successful jobs exist.
	Skipped bool `json:"skipped"`

	// OverallThroughput is total records divided by total processing
	// seconds across all successful jobs; zero when no time elapsed.
	OverallThroughput float64 `json:"overall_throughput"`

	// Phases maps phase name (download, analysis, copying, indexing,
	// formulae, metadata) to its statistics.
	Phases map[string]PhaseStat `json:"phases"`
}

// phaseTime extracts one named phase timing from a record.
var phaseTimes = map[string]func(*worklog.JobRecord) float64{
	"download": func(r *worklog.JobRecord) float64 { return r.DownloadTime },
	"analysis": func(r *worklog.JobRecord) float64 { return r.AnalysisTime },
	"copying":  func(r *worklog.JobRecord) float64 { return r.CopyingTime },
	"indexing": func(r *worklog.JobRecord) float64 { return r.IndexingTime },
	"formulae": func(r *worklog.JobRecord) float64 { return r.FormulaeTime },
	"metadata": func(r *worklog.JobRecord) float64 { return r.MetadataTime },
}

// EfficiencyMetrics computes throughput and phase breakdown over the
// run's successful records.
func EfficiencyMetrics(records []worklog.JobRecord) EfficiencyReport {
	var successes []*worklog.JobRecord
	for i := range records {
		if records[i].IsSuccess() {
			successes = append(successes, &records[i])
		}
	}
	if len(successes) == 0 {
		return EfficiencyReport{Skipped: true, Phases: map[string]PhaseStat{}}
	}

	var totalRecords int
	var totalTime float64
	for _, rec := range successes {
		totalRecords += rec.Records
		totalTime += rec.TotalTime
	}

	report := EfficiencyReport{Phases: map[string]PhaseStat{}}
	if totalTime > 0 {
		report.OverallThroughput = float64(totalRecords) / totalTime
	}

	for phase, get := range phaseTimes {
		var sum float64
		for _, rec := range successes {
			sum += get(rec)
		}
		stat := PhaseStat{Avg: sum / float64(len(successes))}
		if totalTime > 0 {
			stat.ShareOfTotal = sum / totalTime * 100
		}
		report.Phases[phase] = stat
	}

	return report
}

// BusinessReport carries availability- and cost-oriented metrics for
// the run.
type BusinessReport struct {
	// Availability is the fraction of jobs that succeeded.
	Availability float64 `json:"system_availability"`

	// MTTR is a simplified mean-time-to-recovery proxy: the mean
	// total time of error records.
	MTTR float64 `json:"mttr"`

	// PipelineEfficiency is records processed per second of
	// successful processing time.
	PipelineEfficiency float64 `json:"data_pipeline_efficiency"`

	// EstimatedCost is a rough processing cost estimate derived from
	// CPU seconds.
	EstimatedCost float64 `json:"cost_per_1k_records"`

	// AvgDataQuality is the mean quality score of successful jobs.
	AvgDataQuality float64 `json:"avg_data_quality"`

	// QualitySLACompliance is the fraction of successful jobs with a
	// quality score at or above the SLA floor.
	QualitySLACompliance float64 `json:"quality_sla_compliance"`
}

// qualitySLAFloor is the minimum score that counts as SLA-compliant.
const qualitySLAFloor = 85

// costPerCPUHour is the rough processing cost model.
const costPerCPUHour = 0.10

// BusinessMetrics computes business-relevance metrics over the run.
func BusinessMetrics(records []worklog.JobRecord) BusinessReport {
	var report BusinessReport
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

	report.Availability = float64(len(successes)) / float64(len(records))

	if len(errors) > 0 {
		var sum float64
		for _, rec := range errors {
			sum += rec.TotalTime
		}
		report.MTTR = sum / float64(len(errors))
	}

	var totalRecords int
	var totalTime float64
	var qualitySum, compliant int
	for _, rec := range successes {
		totalRecords += rec.Records
		totalTime += rec.TotalTime
		qualitySum += rec.DataQualityScore
		if rec.DataQualityScore >= qualitySLAFloor {
			compliant++
		}
	}

	if totalTime > 0 {
		report.PipelineEfficiency = float64(totalRecords) / totalTime
	}
	report.EstimatedCost = totalTime / 3600 * costPerCPUHour

	if len(successes) > 0 {
		report.AvgDataQuality = float64(qualitySum) / float64(len(successes))
		report.QualitySLACompliance = float64(compliant) / float64(len(successes))
	}

	return report
}
