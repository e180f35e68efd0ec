// Package logsource retrieves raw worker log text for analysis.
//
// Sources abstract where logs live: local files matched by glob
// patterns, a stream such as stdin, or objects in S3-compatible
// storage. Every source validates that retrieved text is well-formed
// UTF-8 before handing it to the pipeline; a log that is not valid
// UTF-8 is a fatal input error, not something to degrade around.
package logsource

import (
	"context"
	"errors"
	"unicode/utf8"
)

// Log is one retrieved log with the name it was retrieved under.
type Log struct {
	// Name identifies the log for reporting: a file path, "-" for
	// stdin, or an object key.
	Name string

	// Text is the full log content.
	Text string
}

// Source retrieves logs from one location kind.
type Source interface {
	// Fetch retrieves all logs the source refers to, in a stable
	// order. An empty result with a nil error means the source
	// matched nothing.
	Fetch(ctx context.Context) ([]Log, error)
}

// Sentinel errors for source failures.
var (
	// ErrInvalidEncoding indicates a retrieved log is not valid UTF-8.
	ErrInvalidEncoding = errors.New("log is not valid UTF-8")

	// ErrNotFound indicates the named log does not exist.
	ErrNotFound = errors.New("log not found")

	// ErrAccessDenied indicates the caller lacks permission.
	ErrAccessDenied = errors.New("access denied")

	// ErrThrottled indicates the backing store rejected the request
	// due to rate limiting.
	ErrThrottled = errors.New("request throttled")
)

// SourceError wraps a failure with its operation and log name.
type SourceError struct {
	Op   string // Operation that failed (e.g., "glob", "read", "get")
	Name string // Log name or pattern involved
	Err  error
}

func (e *SourceError) Error() string {
	if e.Name == "" {
		return "logsource: " + e.Op + ": " + e.Err.Error()
	}
	return "logsource: " + e.Op + " " + e.Name + ": " + e.Err.Error()
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// checkEncoding rejects content that is not valid UTF-8.
func checkEncoding(name string, data []byte) error {
	if !utf8.Valid(data) {
		return &SourceError{Op: "decode", Name: name, Err: ErrInvalidEncoding}
	}
	return nil
}
