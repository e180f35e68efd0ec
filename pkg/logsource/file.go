package logsource

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// FileSource retrieves logs from the local filesystem.
//
// Each argument is either a literal path or a glob pattern with
// doublestar support ("logs/**/*.log"). Literal paths must exist;
// patterns may legitimately match nothing.
type FileSource struct {
	paths []string
}

// NewFileSource creates a source over the given paths and patterns.
func NewFileSource(paths ...string) *FileSource {
	return &FileSource{paths: paths}
}

// Fetch reads all matched files. Results are sorted by path within
// each argument so runs over the same tree are deterministic.
func (s *FileSource) Fetch(ctx context.Context) ([]Log, error) {
	var logs []Log
	for _, p := range s.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		matches, err := s.expand(p)
		if err != nil {
			return nil, err
		}

		for _, m := range matches {
			data, err := os.ReadFile(m)
			if err != nil {
				return nil, &SourceError{Op: "read", Name: m, Err: readErr(err)}
			}
			if err := checkEncoding(m, data); err != nil {
				return nil, err
			}
			logs = append(logs, Log{Name: m, Text: string(data)})
		}
	}
	return logs, nil
}

// expand resolves one argument to concrete file paths.
func (s *FileSource) expand(p string) ([]string, error) {
	if !isPattern(p) {
		if _, err := os.Stat(p); err != nil {
			return nil, &SourceError{Op: "stat", Name: p, Err: readErr(err)}
		}
		return []string{p}, nil
	}

	base, pattern := doublestar.SplitPattern(filepath.ToSlash(p))
	matches, err := doublestar.Glob(os.DirFS(base), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, &SourceError{Op: "glob", Name: p, Err: err}
	}

	sort.Strings(matches)
	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, filepath.Join(base, m))
	}
	return paths, nil
}

// isPattern reports whether p contains glob metacharacters.
func isPattern(p string) bool {
	for _, r := range p {
		switch r {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

// readErr maps filesystem errors onto the package sentinels.
func readErr(err error) error {
	switch {
	case os.IsNotExist(err):
		return ErrNotFound
	case os.IsPermission(err):
		return ErrAccessDenied
	default:
		return err
	}
}

// ReaderSource retrieves a single log from a stream, typically stdin.
type ReaderSource struct {
	name string
	r    io.Reader
}

// NewReaderSource creates a source reading one log from r under the
// given name.
func NewReaderSource(name string, r io.Reader) *ReaderSource {
	return &ReaderSource{name: name, r: r}
}

// Fetch reads the stream to EOF.
func (s *ReaderSource) Fetch(ctx context.Context) ([]Log, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(s.r)
	if err != nil {
		return nil, &SourceError{Op: "read", Name: s.name, Err: err}
	}
	if err := checkEncoding(s.name, data); err != nil {
		return nil, err
	}
	return []Log{{Name: s.name, Text: string(data)}}, nil
}

var (
	_ Source = (*FileSource)(nil)
	_ Source = (*ReaderSource)(nil)
)
