// Package analytics computes aggregate insights over a completed run's
// record set.
//
// All functions are read-only over fully materialized records: anomaly
// thresholds depend on the whole population, so analytics never runs
// until every per-record score is finalized. Stages that lack
// sufficient data report an explicit skipped outcome rather than
// failing.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/dataward/pushlog/pkg/worklog"
)

// timestampLayout is the record timestamp format (sub-second part is
// discarded upstream by the segmenter).
const timestampLayout = "2006-01-02 15:04:05"

// minAnomalySamples is the minimum number of successful records needed
// before the anomaly statistics are meaningful.
const minAnomalySamples = 3

// burstWindow is the maximum gap between two error records for them to
// belong to the same failure burst.
const burstWindow = 5 * time.Minute

// AnomalyTypeSlowProcessing labels jobs flagged for abnormally slow
// processing time.
const AnomalyTypeSlowProcessing = "SLOW_PROCESSING"

// Anomaly is one successful job whose total time statistically exceeds
// the norm of its peers.
type Anomaly struct {
	JobID           string  `json:"job_id"`
	File            string  `json:"file"`
	ActualTime      float64 `json:"actual_time"`
	ExpectedTime    float64 `json:"expected_time"`
	DeviationFactor float64 `json:"deviation_factor"`
	Type            string  `json:"type"`
}

// AnomalyReport is the outcome of performance anomaly detection.
//
// When fewer than three successful records exist the report is marked
// Skipped with a reason; this is a valid outcome, not an error.
type AnomalyReport struct {
	Skipped   bool      `json:"skipped"`
	Reason    string    `json:"reason,omitempty"`
	Mean      float64   `json:"mean_total_time,omitempty"`
	Stddev    float64   `json:"stddev_total_time,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Anomalies []Anomaly `json:"anomalies"`
}

// DetectAnomalies flags successful jobs whose total time exceeds
// mean + 2 standard deviations of the successful population.
//
// The comparison is a strict greater-than: a job exactly at the
// threshold is not flagged. The standard deviation is the population
// form, computed over total_time of SUCCESS records only.
func DetectAnomalies(records []worklog.JobRecord) AnomalyReport {
	var times []float64
	for i := range records {
		if records[i].IsSuccess() {
			times = append(times, records[i].TotalTime)
		}
	}

	if len(times) < minAnomalySamples {
		return AnomalyReport{
			Skipped:   true,
			Reason:    "insufficient data: need at least 3 successful jobs",
			Anomalies: []Anomaly{},
		}
	}

	mean := meanOf(times)
	stddev := populationStddev(times, mean)
	threshold := mean + 2*stddev

	report := AnomalyReport{
		Mean:      mean,
		Stddev:    stddev,
		Threshold: threshold,
		Anomalies: []Anomaly{},
	}

	for i := range records {
		rec := &records[i]
		if !rec.IsSuccess() || rec.TotalTime <= threshold {
			continue
		}
		deviation := 0.0
		if mean > 0 {
			deviation = rec.TotalTime / mean
		}
		report.Anomalies = append(report.Anomalies, Anomaly{
			JobID:           rec.JobID,
			File:            rec.FileName,
			ActualTime:      rec.TotalTime,
			ExpectedTime:    mean,
			DeviationFactor: deviation,
			Type:            AnomalyTypeSlowProcessing,
		})
	}

	return report
}

// Burst is a cluster of error records whose timestamps are mutually
// within the burst window of their predecessor, regardless of file
// identity.
type Burst struct {
	JobIDs []string `json:"job_ids"`
	Start  string   `json:"start"`
	End    string   `json:"end"`
	Count  int      `json:"count"`
}

// FailurePatterns summarizes the error population of a run.
type FailurePatterns struct {
	// ByFileFormat counts errors per extracted file format.
	ByFileFormat map[string]int `json:"by_file_format"`

	// ByHour counts errors per hour-of-day bucket ("08:00-08:59").
	ByHour map[string]int `json:"by_time_of_day"`

	// BySizeBucket counts errors by a record-count size proxy:
	// small (<100), medium (<10000), large, or unknown when the
	// record count was never extracted.
	BySizeBucket map[string]int `json:"by_file_size_proxy"`

	// Bursts lists sequential-failure clusters in timestamp order.
	Bursts []Burst `json:"sequential_failures"`

	// RecurringFiles maps file names appearing in more than one error
	// record to their error count.
	RecurringFiles map[string]int `json:"recurring_files"`
}

// AnalyzeFailures groups the run's ERROR records by format, hour of
// day, and size bucket, and detects failure bursts and recurring
// failing files. Non-error records are ignored.
func AnalyzeFailures(records []worklog.JobRecord) FailurePatterns {
	patterns := FailurePatterns{
		ByFileFormat:   map[string]int{},
		ByHour:         map[string]int{},
		BySizeBucket:   map[string]int{},
		Bursts:         []Burst{},
		RecurringFiles: map[string]int{},
	}

	var errorRecs []*worklog.JobRecord
	for i := range records {
		if records[i].IsError() {
			errorRecs = append(errorRecs, &records[i])
		}
	}

	fileCounts := map[string]int{}
	for _, rec := range errorRecs {
		patterns.ByFileFormat[rec.FileFormat]++
		patterns.BySizeBucket[sizeBucket(rec.Records)]++
		if rec.FileName != "" {
			fileCounts[rec.FileName]++
		}

		if ts, err := time.Parse(timestampLayout, rec.Timestamp); err == nil {
			patterns.ByHour[hourBucket(ts)]++
		}
	}

	for name, n := range fileCounts {
		if n > 1 {
			patterns.RecurringFiles[name] = n
		}
	}

	patterns.Bursts = detectBursts(errorRecs)
	return patterns
}

// sizeBucket maps an extracted record count to its size proxy bucket.
// A zero count means the marker was never seen; it gets its own bucket
// rather than being folded into small files.
func sizeBucket(records int) string {
	switch {
	case records == 0:
		return "unknown"
	case records < 100:
		return "small"
	case records < 10000:
		return "medium"
	default:
		return "large"
	}
}

func hourBucket(ts time.Time) string {
	return ts.Format("15") + ":00-" + ts.Format("15") + ":59"
}

// detectBursts clusters error records whose timestamps are within the
// burst window of the previous error. Records with unparseable
// timestamps cannot participate and are skipped.
func detectBursts(errorRecs []*worklog.JobRecord) []Burst {
	type stamped struct {
		rec *worklog.JobRecord
		ts  time.Time
	}

	var ordered []stamped
	for _, rec := range errorRecs {
		ts, err := time.Parse(timestampLayout, rec.Timestamp)
		if err != nil {
			continue
		}
		ordered = append(ordered, stamped{rec: rec, ts: ts})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ts.Before(ordered[j].ts) })

	bursts := []Burst{}
	var current []stamped
	flush := func() {
		if len(current) < 2 {
			current = nil
			return
		}
		b := Burst{
			Start: current[0].rec.Timestamp,
			End:   current[len(current)-1].rec.Timestamp,
			Count: len(current),
		}
		for _, s := range current {
			b.JobIDs = append(b.JobIDs, s.rec.JobID)
		}
		bursts = append(bursts, b)
		current = nil
	}

	for i, s := range ordered {
		if i > 0 && s.ts.Sub(ordered[i-1].ts) <= burstWindow {
			if len(current) == 0 {
				current = append(current, ordered[i-1])
			}
			current = append(current, s)
			continue
		}
		flush()
	}
	flush()

	return bursts
}

func meanOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func populationStddev(vals []float64, mean float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)))
}
