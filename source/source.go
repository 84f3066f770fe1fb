// Package source provides the seekable binary streams packages are parsed from.
//
// A Source is random-access and sized up front so parsers can bound-check every
// offset read from a container before seeking or allocating. Cursor layers
// sequential, endianness-aware fixed-width reads on top of a Source.
package source

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/meigma/pak/internal/paktype"
)

// Source provides random access to a container's bytes.
//
// Implementations exist for local files, memory maps, byte slices and HTTP
// range requests. SourceID must return a stable identifier for the content.
type Source interface {
	io.ReaderAt
	Size() int64
	SourceID() string
}

// Opener opens sibling streams of a split-file package by name.
// Names are built from the primary stream's name, so an Opener for local files
// receives file paths and an HTTP Opener receives URLs.
type Opener interface {
	Open(name string) (Source, error)
}

// Close closes src if it holds resources.
func Close(src Source) error {
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Bytes is an in-memory Source.
type Bytes struct {
	*bytes.Reader
	data     []byte
	sourceID string
}

// NewBytes returns a Source backed by data. The name is only used for the SourceID.
func NewBytes(name string, data []byte) *Bytes {
	sum := sha256.Sum256(data)
	return &Bytes{
		Reader:   bytes.NewReader(data),
		data:     data,
		sourceID: "mem:" + name + "|" + hex.EncodeToString(sum[:8]),
	}
}

// SourceID returns a stable identifier for the data.
func (b *Bytes) SourceID() string {
	return b.sourceID
}

// Data returns the backing slice.
func (b *Bytes) Data() []byte {
	return b.data
}

// File is a Source backed by an open *os.File.
type File struct {
	f        *os.File
	size     int64
	sourceID string
}

// OpenFile opens path for random access reads.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path) //nolint:gosec // opening user-selected archives is the point
	if err != nil {
		return nil, notFound(path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close() //nolint:errcheck // best-effort cleanup
		return nil, err
	}
	if !info.Mode().IsRegular() {
		_ = f.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("open %s: not a regular file: %w", path, paktype.ErrNotFound)
	}
	return &File{
		f:        f,
		size:     info.Size(),
		sourceID: fileSourceID(path, info),
	}, nil
}

// ReadAt implements io.ReaderAt.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	return f.f.ReadAt(p, off)
}

// Size returns the file size captured at open.
func (f *File) Size() int64 {
	return f.size
}

// SourceID returns an identifier derived from the path, size and modification time.
func (f *File) SourceID() string {
	return f.sourceID
}

// Close closes the file.
func (f *File) Close() error {
	return f.f.Close()
}

// Option configures how local files are opened.
type Option func(*openConfig)

type openConfig struct {
	mmap bool
}

// WithMmap memory-maps local files instead of reading through the file handle.
func WithMmap(enabled bool) Option {
	return func(c *openConfig) {
		c.mmap = enabled
	}
}

// Open opens a local file as a Source.
func Open(path string, opts ...Option) (Source, error) {
	var cfg openConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.mmap {
		m, err := OpenMmap(path)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	f, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// FileOpener opens siblings from the local filesystem.
type FileOpener struct {
	opts []Option
}

// NewFileOpener returns an Opener for local files using opts for each sibling.
func NewFileOpener(opts ...Option) *FileOpener {
	return &FileOpener{opts: opts}
}

// Open implements Opener.
func (o *FileOpener) Open(name string) (Source, error) {
	return Open(name, o.opts...)
}

// MemoryOpener serves siblings from an in-memory map keyed by name.
type MemoryOpener map[string][]byte

// Open implements Opener.
func (m MemoryOpener) Open(name string) (Source, error) {
	data, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, paktype.ErrNotFound)
	}
	return NewBytes(name, data), nil
}

func fileSourceID(path string, info fs.FileInfo) string {
	return fmt.Sprintf("file:%s|size:%d|mod:%d", path, info.Size(), info.ModTime().UnixNano())
}

func notFound(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("open %s: %w", path, errors.Join(paktype.ErrNotFound, err))
	}
	return fmt.Errorf("open %s: %w", path, err)
}
