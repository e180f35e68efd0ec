package worklog

import (
	"regexp"
	"strconv"
	"strings"
)

// Scoring rubric. All applicable penalties stack; the headers penalty
// is capped; clamping to [0,100] is the final step so intermediate
// negative sums cannot affect bonus application.
const (
	scoreBase = 100

	penaltyInvalidCSV     = 30
	penaltyUnsorted       = 10
	penaltyPerUnsafe      = 5
	penaltyUnsafeCap      = 25
	penaltyNotNormalized  = 20
	penaltyAnalysisFailed = 25

	bonusUTF8      = 5
	bonusLargeFile = 5
	largeFileFloor = 1000
)

var unsafeCountPattern = regexp.MustCompile(`(\d+)`)

// Score computes the composite data quality score for one record.
//
// Score is a deterministic pure function of the record, independent of
// all other records. The result is always in [0,100].
func Score(rec *JobRecord) int {
	score := scoreBase

	if rec.ValidCSV != CSVValid {
		score -= penaltyInvalidCSV
	}
	if rec.Sorted == "FALSE" {
		score -= penaltyUnsorted
	}
	if strings.Contains(strings.ToLower(rec.DBSafeHeaders), "unsafe headers") {
		score -= unsafeHeadersPenalty(rec.DBSafeHeaders)
	}
	if rec.Normalized != OutcomeSuccessful {
		score -= penaltyNotNormalized
	}
	if rec.Analysis != OutcomeSuccessful {
		score -= penaltyAnalysisFailed
	}

	if strings.EqualFold(rec.Encoding, "UTF-8") {
		score += bonusUTF8
	}
	if rec.Records > largeFileFloor {
		score += bonusLargeFile
	}

	// Clamp last, after all penalties and bonuses are summed.
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// unsafeHeadersPenalty derives the capped penalty from the templated
// "N unsafe headers" value.
func unsafeHeadersPenalty(v string) int {
	m := unsafeCountPattern.FindStringSubmatch(v)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	p := n * penaltyPerUnsafe
	if p > penaltyUnsafeCap {
		return penaltyUnsafeCap
	}
	return p
}

// Efficiency computes records per second of total processing time.
//
// When total time is zero or absent the result is zero, never
// infinity, so report consumers are guarded from non-finite values.
func Efficiency(rec *JobRecord) float64 {
	if rec.TotalTime <= 0 {
		return 0
	}
	return float64(rec.Records) / rec.TotalTime
}

// Finalize applies derived metrics to a classified record, mirroring
// the worker report's convention: quality and efficiency are computed
// for successful jobs and remain zero otherwise.
func Finalize(rec *JobRecord) {
	if !rec.IsSuccess() {
		return
	}
	rec.DataQualityScore = Score(rec)
	rec.ProcessingEfficiency = Efficiency(rec)
}
