// Package extract writes package members to a destination directory.
package extract

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sync/atomic"
)

// ErrUnsafePath is returned for member names that are empty, absolute or
// escape the destination directory.
var ErrUnsafePath = errors.New("pak: unsafe member path")

const (
	defaultDirPerm  = 0o750
	defaultFilePerm = 0o640
)

var tempSeq atomic.Uint64

// Sink writes members beneath a destination directory with atomic writes.
//
// All filesystem access goes through an [os.Root], so no name can resolve
// outside the destination even through symlinks. Files are written to a
// temporary file in the same directory, then renamed to the final path.
type Sink struct {
	root         *os.Root
	skipExisting bool
	dirPerm      os.FileMode
	filePerm     os.FileMode
}

// Option configures a Sink.
type Option func(*Sink)

// WithSkipExisting leaves existing files untouched.
// By default, existing files are silently overwritten.
func WithSkipExisting(skip bool) Option {
	return func(s *Sink) {
		s.skipExisting = skip
	}
}

// WithFilePerm sets the permission bits of written files.
func WithFilePerm(mode os.FileMode) Option {
	return func(s *Sink) {
		s.filePerm = mode
	}
}

// NewSink creates destDir if needed and returns a Sink rooted at it.
func NewSink(destDir string, opts ...Option) (*Sink, error) {
	s := &Sink{dirPerm: defaultDirPerm, filePerm: defaultFilePerm}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(destDir, s.dirPerm); err != nil {
		return nil, fmt.Errorf("create destination %s: %w", destDir, err)
	}
	root, err := os.OpenRoot(destDir)
	if err != nil {
		return nil, fmt.Errorf("open destination %s: %w", destDir, err)
	}
	s.root = root
	return s, nil
}

// Close releases the destination root.
func (s *Sink) Close() error {
	return s.root.Close()
}

// CleanName validates a member name for use as a relative file path.
func CleanName(name string) (string, error) {
	clean := path.Clean(name)
	if name == "" || !fs.ValidPath(clean) || clean == "." {
		return "", fmt.Errorf("%q: %w", name, ErrUnsafePath)
	}
	return clean, nil
}

// Write stores data under name, creating parent directories. It reports
// whether the file was written; false means it existed and was skipped.
func (s *Sink) Write(name string, data []byte) (bool, error) {
	clean, err := CleanName(name)
	if err != nil {
		return false, err
	}
	if s.skipExisting {
		if _, err := s.root.Stat(clean); err == nil {
			return false, nil
		}
	}

	dir := path.Dir(clean)
	if dir != "." {
		if err := s.root.MkdirAll(dir, s.dirPerm); err != nil {
			return false, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	tempPath := path.Join(dir, fmt.Sprintf(".pak-%d-%d", os.Getpid(), tempSeq.Add(1)))
	f, err := s.root.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, s.filePerm)
	if err != nil {
		return false, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()               //nolint:errcheck // we're cleaning up
		_ = s.root.Remove(tempPath) //nolint:errcheck // best-effort cleanup
		return false, fmt.Errorf("write %s: %w", clean, err)
	}
	if err := f.Close(); err != nil {
		_ = s.root.Remove(tempPath) //nolint:errcheck // best-effort cleanup
		return false, fmt.Errorf("close temp file: %w", err)
	}
	if err := s.root.Rename(tempPath, clean); err != nil {
		_ = s.root.Remove(tempPath) //nolint:errcheck // best-effort cleanup
		return false, fmt.Errorf("rename to %s: %w", clean, err)
	}
	return true, nil
}
