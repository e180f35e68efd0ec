package report

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/dataward/pushlog/pkg/worklog"
)

// JSONLWriter writes records as newline-delimited JSON, one record per
// line. Field names follow the record's JSON tags.
type JSONLWriter struct {
	mu     sync.Mutex
	w      io.Writer
	closed bool
}

// NewJSONLWriter creates a JSONL writer over w. The caller retains
// ownership of w.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{w: w}
}

// WriteRecord emits one record as a JSON line.
func (jw *JSONLWriter) WriteRecord(ctx context.Context, rec *worklog.JobRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return &WriteError{Op: "marshal", Err: err}
	}
	data = append(data, '\n')

	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.closed {
		return ErrWriterClosed
	}
	if err := writeAll(jw.w, data); err != nil {
		return &WriteError{Op: "write", Err: err}
	}
	return nil
}

// Close marks the writer closed. JSONL output is unbuffered, so there
// is nothing to flush.
func (jw *JSONLWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	jw.closed = true
	return nil
}

// writeAll writes the full buffer, surfacing short writes as errors.
func writeAll(w io.Writer, data []byte) error {
	for len(data) > 0 {
		n, err := w.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

var _ Writer = (*JSONLWriter)(nil)
