package worklog

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldKind declares how a rule's capture is parsed into the record.
type FieldKind int

const (
	// KindString stores the (possibly transformed) capture verbatim.
	KindString FieldKind = iota

	// KindInt parses the capture as a non-negative integer.
	KindInt

	// KindFloat parses the capture as non-negative floating seconds.
	KindFloat
)

// Transform maps a rule's submatches to the stored string value.
//
// The slice is the full regexp submatch set (index 0 is the whole
// match). Transforms keep derived string fields (uppercased booleans,
// templated header counts) out of raw capture passthrough.
type Transform func(match []string) string

// Rule is one entry in the extraction table: a named field, the
// pattern that locates it in a job's text block, an optional transform,
// and the default used when the pattern does not match.
//
// Rules are evaluated independently, exactly once per block, with
// first-match semantics. New log variants are supported by adding
// rows, not by branching in the extractor.
type Rule struct {
	Field     string
	Kind      FieldKind
	Pattern   *regexp.Regexp
	Transform Transform
	Default   string
}

// Field names used by the extraction table. These match the report
// column names.
const (
	FieldFileName       = "file_name"
	FieldFileFormat     = "file_format"
	FieldEncoding       = "encoding"
	FieldQSVVersion     = "qsv_version"
	FieldNormalized     = "normalized"
	FieldValidCSV       = "valid_csv"
	FieldSorted         = "sorted"
	FieldDBSafeHeaders  = "db_safe_headers"
	FieldAnalysis       = "analysis"
	FieldRecords        = "records"
	FieldRowsCopied     = "rows_copied"
	FieldColumnsIndexed = "columns_indexed"
	FieldTotalTime      = "total_time"
	FieldDownloadTime   = "download_time"
	FieldAnalysisTime   = "analysis_time"
	FieldCopyingTime    = "copying_time"
	FieldIndexingTime   = "indexing_time"
	FieldFormulaeTime   = "formulae_time"
	FieldMetadataTime   = "metadata_time"
)

// Structural markers. These delimit jobs and decide classification and
// are not part of the per-field table.
var (
	// jobStartPattern matches the job-start marker line: an ISO-like
	// timestamp (optional millisecond part), the INFO level token, a
	// bracketed 36-character job identifier, and the literal phrase
	// the worker logs when it boots a job.
	jobStartPattern = regexp.MustCompile(
		`(?m)^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})(?:[,.]\d+)? INFO +\[([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})\] Setting log level to INFO`)

	// successMarker is the literal the worker prints when a job
	// finishes, immediately before the timing lines.
	successMarker = "DATAPUSHER+ JOB DONE!"

	// jobErrorPattern matches the fatal JobError line. The message
	// capture runs to end of line; only the first occurrence is used.
	jobErrorPattern = regexp.MustCompile(`(?m)JobError: *(.*)$`)

	// tracebackPattern recognizes an unstructured failure: an ERROR
	// level line with a Python traceback but no JobError line.
	tracebackPattern = regexp.MustCompile(`(?m)^\S+ \S+ ERROR .*\n(?:.*\n)*?Traceback \(most recent call last\)`)
)

const numPat = `(\d+(?:\.\d+)?)`

// extractionRules is the ordered pattern table applied to each job's
// text block. Order matters only for report readability; rules are
// independent.
var extractionRules = []Rule{
	{
		Field:   FieldFileName,
		Kind:    KindString,
		Pattern: regexp.MustCompile(`(?m)Fetching from: .*/([^/\s?#]+)`),
		Default: "",
	},
	{
		Field:   FieldFileFormat,
		Kind:    KindString,
		Pattern: regexp.MustCompile(`(?m)File format: (\S+)`),
		Default: "unknown",
	},
	{
		Field:   FieldEncoding,
		Kind:    KindString,
		Pattern: regexp.MustCompile(`(?m)Encoding detected: (\S+)`),
		Default: "unknown",
	},
	{
		Field:   FieldQSVVersion,
		Kind:    KindString,
		Pattern: regexp.MustCompile(`(?m)qsv (\d+\.\d+\.\d+)`),
		Default: "",
	},
	{
		Field:   FieldNormalized,
		Kind:    KindString,
		Pattern: regexp.MustCompile(`(?m)(Normalized & transcoded|Normalization failed)`),
		Transform: func(m []string) string {
			if m[1] == "Normalization failed" {
				return OutcomeFailed
			}
			return OutcomeSuccessful
		},
		Default: OutcomeUnknown,
	},
	{
		Field:   FieldValidCSV,
		Kind:    KindString,
		Pattern: regexp.MustCompile(`(?m)(Valid CSV|invalid CSV)`),
		Transform: func(m []string) string {
			if m[1] == "invalid CSV" {
				return CSVInvalid
			}
			return CSVValid
		},
		Default: OutcomeUnknown,
	},
	{
		Field:   FieldSorted,
		Kind:    KindString,
		Pattern: regexp.MustCompile(`(?mi)sorted: (true|false)`),
		Transform: func(m []string) string {
			return strings.ToUpper(m[1])
		},
		Default: OutcomeUnknown,
	},
	{
		Field:   FieldDBSafeHeaders,
		Kind:    KindString,
		Pattern: regexp.MustCompile(`(?m)(?:(\d+) unsafe header|headers are db-safe)`),
		Transform: func(m []string) string {
			if m[1] == "" {
				return HeadersSafe
			}
			return fmt.Sprintf("%s unsafe headers", m[1])
		},
		Default: OutcomeUnknown,
	},
	{
		Field:   FieldAnalysis,
		Kind:    KindString,
		Pattern: regexp.MustCompile(`(?m)Analysis (complete|failed)`),
		Transform: func(m []string) string {
			if m[1] == "failed" {
				return OutcomeFailed
			}
			return OutcomeSuccessful
		},
		Default: OutcomeUnknown,
	},
	{
		Field:   FieldRecords,
		Kind:    KindInt,
		Pattern: regexp.MustCompile(`(?m)(\d+) records detected`),
		Default: "0",
	},
	{
		Field:   FieldRowsCopied,
		Kind:    KindInt,
		Pattern: regexp.MustCompile(`(?m)Copied (\d+) rows`),
		Default: "0",
	},
	{
		Field:   FieldColumnsIndexed,
		Kind:    KindInt,
		Pattern: regexp.MustCompile(`(?m)Indexed (\d+) columns`),
		Default: "0",
	},
	{
		Field:   FieldTotalTime,
		Kind:    KindFloat,
		Pattern: regexp.MustCompile(`(?m)TOTAL ELAPSED TIME: *` + numPat),
		Default: "0",
	},
	{
		Field:   FieldDownloadTime,
		Kind:    KindFloat,
		Pattern: regexp.MustCompile(`(?m)Download: *` + numPat),
		Default: "0",
	},
	{
		Field:   FieldAnalysisTime,
		Kind:    KindFloat,
		Pattern: regexp.MustCompile(`(?m)Analysis: *` + numPat),
		Default: "0",
	},
	{
		Field:   FieldCopyingTime,
		Kind:    KindFloat,
		Pattern: regexp.MustCompile(`(?m)COPYing: *` + numPat),
		Default: "0",
	},
	{
		Field:   FieldIndexingTime,
		Kind:    KindFloat,
		Pattern: regexp.MustCompile(`(?m)Indexing: *` + numPat),
		Default: "0",
	},
	{
		Field:   FieldFormulaeTime,
		Kind:    KindFloat,
		Pattern: regexp.MustCompile(`(?m)Formulae processing: *` + numPat),
		Default: "0",
	},
	{
		Field:   FieldMetadataTime,
		Kind:    KindFloat,
		Pattern: regexp.MustCompile(`(?m)Metadata updates: *` + numPat),
		Default: "0",
	},
}

// Rules returns the extraction table.
//
// The returned slice is shared; callers must not mutate it.
func Rules() []Rule {
	return extractionRules
}

// apply evaluates the rule against the block and returns the stored
// string value, falling back to the rule's default when the pattern
// does not match.
func (r Rule) apply(block string) string {
	m := r.Pattern.FindStringSubmatch(block)
	if m == nil {
		return r.Default
	}
	if r.Transform != nil {
		return r.Transform(m)
	}
	if len(m) > 1 {
		return m[1]
	}
	return m[0]
}
