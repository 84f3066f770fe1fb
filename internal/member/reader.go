// Package member materializes package members into memory.
package member

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/meigma/pak/format"
	"github.com/meigma/pak/internal/paktype"
	"github.com/meigma/pak/internal/sizing"
	"github.com/meigma/pak/source"
)

// DefaultMaxMemberSize is the default maximum member size (256MB).
const DefaultMaxMemberSize = 256 << 20

// Reader reads members of one parsed package.
type Reader struct {
	primary       source.Source
	dir           *format.Directory
	maxMemberSize uint64
	pool          *InflatePool
	logger        *slog.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithMaxMemberSize sets the maximum member size limit.
// Set to 0 to disable the limit.
func WithMaxMemberSize(limit uint64) Option {
	return func(r *Reader) {
		r.maxMemberSize = limit
	}
}

// WithInflatePool shares a decompressor pool between readers.
func WithInflatePool(p *InflatePool) Option {
	return func(r *Reader) {
		r.pool = p
	}
}

// WithLogger sets the logger for read diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

// NewReader creates a Reader for the members of dir, whose primary stream is primary.
func NewReader(primary source.Source, dir *format.Directory, opts ...Option) *Reader {
	r := &Reader{
		primary:       primary,
		dir:           dir,
		maxMemberSize: DefaultMaxMemberSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.pool == nil {
		r.pool = NewInflatePool()
	}
	return r
}

func (r *Reader) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// ReadAll returns the full uncompressed content of member index.
// The result is exactly the entry's Size bytes long.
func (r *Reader) ReadAll(index int) ([]byte, error) {
	if index < 0 || index >= len(r.dir.Entries) {
		return nil, fmt.Errorf("member %d: %w", index, paktype.ErrNotFound)
	}
	e := &r.dir.Entries[index]
	if err := ValidateSize(e, r.maxMemberSize); err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Name, err)
	}

	if r.dir.Loader != nil {
		data, err := r.dir.Loader.LoadMember(index, e)
		if err != nil {
			return nil, err
		}
		if uint64(len(data)) != e.Size {
			return nil, fmt.Errorf("read %s: loader returned %d of %d bytes: %w",
				e.Name, len(data), e.Size, paktype.ErrDecompression)
		}
		return data, nil
	}

	stream, err := r.dir.Stream(r.primary, e)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Name, err)
	}
	if err := ValidateRange(e, stream.Size()); err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Name, err)
	}
	off, err := sizing.ToInt64(e.Offset, paktype.ErrFileSize)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Name, err)
	}
	stored, err := sizing.ToInt64(e.StoredSize(), paktype.ErrFileSize)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Name, err)
	}
	section := io.NewSectionReader(stream, off, stored)

	switch e.Compression {
	case paktype.CompressionNone:
		return r.readStored(e, section)
	case paktype.CompressionDeflate, paktype.CompressionZlib:
		return r.readCompressed(e, section)
	default:
		return nil, fmt.Errorf("read %s: %s member without loader: %w", e.Name, e.Compression, paktype.ErrUnsupported)
	}
}

func (r *Reader) readStored(e *format.Entry, section *io.SectionReader) ([]byte, error) {
	n, err := sizing.ToInt(e.Size, paktype.ErrMemory)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Name, err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(section, buf); err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", e.Name, paktype.ErrFileRead, err)
	}
	return buf, nil
}

func (r *Reader) readCompressed(e *format.Entry, section *io.SectionReader) ([]byte, error) {
	dec, release, err := r.pool.Get(e.Compression, section)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Name, err)
	}
	defer release()

	n, err := sizing.ToInt(e.Size, paktype.ErrMemory)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Name, err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(dec, buf); err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", e.Name, paktype.ErrDecompression, err)
	}
	var extra [1]byte
	m, err := dec.Read(extra[:])
	if m != 0 {
		return nil, fmt.Errorf("read %s: inflates past %d bytes: %w", e.Name, e.Size, paktype.ErrDecompression)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %s: %w: %w", e.Name, paktype.ErrDecompression, err)
	}
	r.log().Debug("inflated member", "name", e.Name, "compression", e.Compression.String(),
		"stored", e.StoredSize(), "size", e.Size)
	return buf, nil
}
