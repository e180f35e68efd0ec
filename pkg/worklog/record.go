// Package worklog extracts structured per-job records from raw
// DataPusher+ worker log output.
//
// The package covers the record pipeline: segmenting a multi-job log
// stream into per-job text blocks, extracting a flat record from each
// block via an ordered pattern table, classifying the job outcome, and
// scoring data quality. Every extraction rule degrades to a documented
// default when its marker is absent, so a partial or truncated block
// still yields a complete record.
package worklog

// Status is the terminal outcome of one worker job.
//
// Exactly one status is assigned per record, in strict priority order:
// success marker, then error marker, then incomplete.
type Status string

const (
	// StatusSuccess indicates the job reached the completion marker.
	StatusSuccess Status = "SUCCESS"

	// StatusError indicates the job logged a fatal processing failure.
	StatusError Status = "ERROR"

	// StatusIncomplete indicates neither success nor error markers were
	// found. This is a valid, reportable outcome, not a pipeline error.
	StatusIncomplete Status = "INCOMPLETE"
)

// ErrorType categorizes an ERROR outcome. It is populated only when
// Status is StatusError and is empty otherwise.
type ErrorType string

const (
	// ErrorCorruptedExcel indicates a corrupt spreadsheet upload
	// (invalid Zip archive / missing EOCD record).
	ErrorCorruptedExcel ErrorType = "CORRUPTED_EXCEL"

	// ErrorQSV indicates a failure inside the qsv toolchain.
	ErrorQSV ErrorType = "QSV_ERROR"

	// ErrorInvalidURL indicates the resource URL scheme was rejected.
	ErrorInvalidURL ErrorType = "INVALID_URL"

	// ErrorDatapusher is the catch-all for recognized JobError lines
	// whose message matches no narrower category.
	ErrorDatapusher ErrorType = "DATAPUSHER_ERROR"

	// ErrorUnknown is reserved for blocks that signal failure without a
	// parseable JobError message.
	ErrorUnknown ErrorType = "UNKNOWN_ERROR"
)

// JobRecord is the flat per-job record produced by the pipeline.
//
// A record is created when a job-start marker is found, filled by the
// extractor, classifier, and scorer, and is immutable once collected
// into a run's result set. All fields have explicit defaults so the
// output table has fixed columns for every record.
type JobRecord struct {
	// Timestamp is the job-start time in "2006-01-02 15:04:05" form.
	// Sub-second precision from the log line is discarded.
	Timestamp string `json:"timestamp"`

	// JobID is the 36-character UUID from the start marker and the
	// unique key for the record within one run.
	JobID string `json:"job_id"`

	FileName   string `json:"file_name"`
	FileFormat string `json:"file_format"`
	Encoding   string `json:"encoding"`
	QSVVersion string `json:"qsv_version"`

	Status       Status    `json:"status"`
	ErrorType    ErrorType `json:"error_type"`
	ErrorMessage string    `json:"error_message"`

	// Validation outcomes reported by the worker. These are small
	// closed vocabularies rather than booleans because the source log
	// itself reports tri-state results ("Successful", "Failed",
	// "Unknown" when the marker never appeared).
	Normalized    string `json:"normalized"`
	ValidCSV      string `json:"valid_csv"`
	Sorted        string `json:"sorted"`
	Analysis      string `json:"analysis"`
	DBSafeHeaders string `json:"db_safe_headers"`

	Records        int `json:"records"`
	RowsCopied     int `json:"rows_copied"`
	ColumnsIndexed int `json:"columns_indexed"`

	// Phase timings in seconds. Each is independently optional; an
	// incomplete job may carry only some of them.
	TotalTime    float64 `json:"total_time"`
	DownloadTime float64 `json:"download_time"`
	AnalysisTime float64 `json:"analysis_time"`
	CopyingTime  float64 `json:"copying_time"`
	IndexingTime float64 `json:"indexing_time"`
	FormulaeTime float64 `json:"formulae_time"`
	MetadataTime float64 `json:"metadata_time"`

	// DataQualityScore is the derived composite score in [0,100].
	DataQualityScore int `json:"data_quality_score"`

	// ProcessingEfficiency is records per second of total time, zero
	// when total time is absent. Always finite.
	ProcessingEfficiency float64 `json:"processing_efficiency"`
}

// Closed vocabularies for the tri-state validation fields.
const (
	OutcomeSuccessful = "Successful"
	OutcomeFailed     = "Failed"
	OutcomeUnknown    = "Unknown"

	CSVValid   = "TRUE"
	CSVInvalid = "FALSE"

	HeadersSafe = "All headers safe"
)

// IsError reports whether the record carries an error classification.
func (r *JobRecord) IsError() bool { return r.Status == StatusError }

// IsSuccess reports whether the job completed successfully.
func (r *JobRecord) IsSuccess() bool { return r.Status == StatusSuccess }
