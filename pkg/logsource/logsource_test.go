package logsource

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileSourceLiteralPath(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "worker.log", "line one\nline two\n")

	logs, err := NewFileSource(path).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, path, logs[0].Name)
	assert.Equal(t, "line one\nline two\n", logs[0].Text)
}

func TestFileSourceGlob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "logs/b/worker-2.log", "two")
	writeFile(t, dir, "logs/a/worker-1.log", "one")
	writeFile(t, dir, "logs/a/notes.txt", "not a log")

	logs, err := NewFileSource(filepath.Join(dir, "logs/**/*.log")).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 2)

	// Glob results are sorted for deterministic runs.
	assert.Equal(t, "one", logs[0].Text)
	assert.Equal(t, "two", logs[1].Text)
}

func TestFileSourceGlobNoMatches(t *testing.T) {
	dir := t.TempDir()
	logs, err := NewFileSource(filepath.Join(dir, "*.log")).Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, logs, "a pattern matching nothing is not an error")
}

func TestFileSourceMissingLiteral(t *testing.T) {
	_, err := NewFileSource("/nonexistent/worker.log").Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var srcErr *SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "stat", srcErr.Op)
}

func TestFileSourceInvalidEncoding(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "worker.log", "ok so far \xff\xfe broken")

	_, err := NewFileSource(path).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestFileSourceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	path := writeFile(t, dir, "worker.log", "content")
	_, err := NewFileSource(path).Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReaderSource(t *testing.T) {
	logs, err := NewReaderSource("-", strings.NewReader("stdin content")).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "-", logs[0].Name)
	assert.Equal(t, "stdin content", logs[0].Text)
}

func TestReaderSourceInvalidEncoding(t *testing.T) {
	_, err := NewReaderSource("-", strings.NewReader("\xc3\x28")).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestSourceErrorMessage(t *testing.T) {
	err := &SourceError{Op: "read", Name: "worker.log", Err: ErrAccessDenied}
	assert.Equal(t, "logsource: read worker.log: access denied", err.Error())

	err = &SourceError{Op: "config", Err: ErrNotFound}
	assert.Equal(t, "logsource: config: log not found", err.Error())
}
