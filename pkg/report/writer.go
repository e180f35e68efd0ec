// Package report serializes finalized job records to the worker
// analysis table and the run's JSON analytics artifacts.
//
// The package owns the fixed column set and field formatting; delimiter
// and quoting mechanics are delegated to encoding/csv, which escapes
// embedded quotes per RFC 4180.
package report

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"sync"

	"github.com/dataward/pushlog/pkg/worklog"
)

// Columns is the fixed output column order. Every record produces a
// value for every column; absent fields carry their documented
// defaults rather than being omitted.
var Columns = []string{
	"timestamp",
	"job_id",
	"file_name",
	"status",
	"qsv_version",
	"file_format",
	"encoding",
	"normalized",
	"valid_csv",
	"sorted",
	"db_safe_headers",
	"analysis",
	"records",
	"total_time",
	"download_time",
	"analysis_time",
	"copying_time",
	"indexing_time",
	"formulae_time",
	"metadata_time",
	"rows_copied",
	"columns_indexed",
	"error_type",
	"error_message",
	"data_quality_score",
	"processing_efficiency",
}

// Writer emits finalized job records.
//
// Implementations must be safe for concurrent use: the pipeline may
// finalize records from multiple goroutines.
type Writer interface {
	// WriteRecord emits one finalized record.
	WriteRecord(ctx context.Context, rec *worklog.JobRecord) error

	// Close flushes buffered output. It does not close the underlying
	// writer; that remains the caller's responsibility.
	Close() error
}

// Writer errors.
var (
	// ErrWriterClosed is returned when writing to a closed writer.
	ErrWriterClosed = errors.New("writer is closed")
)

// WriteError wraps errors that occur during write operations.
type WriteError struct {
	Op  string // Operation that failed (e.g., "header", "write")
	Err error  // Underlying error
}

func (e *WriteError) Error() string {
	return "report: " + e.Op + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// CSVWriter writes records as rows of the worker analysis table.
//
// The header row is written lazily before the first record. Writes are
// serialized with a mutex so rows are never interleaved.
type CSVWriter struct {
	mu     sync.Mutex
	w      *csv.Writer
	wrote  bool
	closed bool
}

// NewCSVWriter creates a CSV writer over w. The caller retains
// ownership of w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

// WriteRecord emits one record row, preceded by the header row on
// first use.
func (cw *CSVWriter) WriteRecord(ctx context.Context, rec *worklog.JobRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.closed {
		return ErrWriterClosed
	}

	if !cw.wrote {
		if err := cw.w.Write(Columns); err != nil {
			return &WriteError{Op: "header", Err: err}
		}
		cw.wrote = true
	}

	if err := cw.w.Write(Row(rec)); err != nil {
		return &WriteError{Op: "write", Err: err}
	}
	return nil
}

// Close flushes buffered rows and marks the writer closed.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.closed {
		return nil
	}
	cw.closed = true

	cw.w.Flush()
	if err := cw.w.Error(); err != nil {
		return &WriteError{Op: "flush", Err: err}
	}
	return nil
}

// Row formats one record as its table row, in column order.
func Row(rec *worklog.JobRecord) []string {
	return []string{
		rec.Timestamp,
		rec.JobID,
		rec.FileName,
		string(rec.Status),
		rec.QSVVersion,
		rec.FileFormat,
		rec.Encoding,
		rec.Normalized,
		rec.ValidCSV,
		rec.Sorted,
		rec.DBSafeHeaders,
		rec.Analysis,
		strconv.Itoa(rec.Records),
		formatSeconds(rec.TotalTime),
		formatSeconds(rec.DownloadTime),
		formatSeconds(rec.AnalysisTime),
		formatSeconds(rec.CopyingTime),
		formatSeconds(rec.IndexingTime),
		formatSeconds(rec.FormulaeTime),
		formatSeconds(rec.MetadataTime),
		strconv.Itoa(rec.RowsCopied),
		strconv.Itoa(rec.ColumnsIndexed),
		string(rec.ErrorType),
		rec.ErrorMessage,
		strconv.Itoa(rec.DataQualityScore),
		strconv.FormatFloat(rec.ProcessingEfficiency, 'f', -1, 64),
	}
}

// formatSeconds renders a timing field without trailing zero noise.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Compile-time check that CSVWriter implements Writer.
var _ Writer = (*CSVWriter)(nil)
