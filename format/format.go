package format

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/meigma/pak/internal/paktype"
	"github.com/meigma/pak/source"
)

// Re-export types from internal/paktype for the public API.
type (
	// Entry describes one member of a package.
	Entry = paktype.Entry

	// Compression identifies how a member's bytes are stored.
	Compression = paktype.Compression
)

// Re-export compression constants.
const (
	CompressionNone    = paktype.CompressionNone
	CompressionDeflate = paktype.CompressionDeflate
	CompressionZlib    = paktype.CompressionZlib
	CompressionImplode = paktype.CompressionImplode
	CompressionRar     = paktype.CompressionRar
	CompressionUnknown = paktype.CompressionUnknown
)

// Parser reads one container format.
type Parser interface {
	// Format returns a short, stable format tag such as "wad" or "vpp".
	Format() string

	// Parse reads the table of contents. It must not return a partially
	// populated Directory: on any error the result is discarded.
	Parse(a *Archive) (*Directory, error)
}

// SiblingResolver is implemented by split-file parsers.
type SiblingResolver interface {
	// SiblingNames returns the candidate companion file names for primary,
	// in the order they are tried.
	SiblingNames(primary string) []string
}

// MemberLoader materializes members that are not a plain byte range of their
// backing stream. A loader is owned by its Directory; if it implements
// io.Closer it is closed with the package.
type MemberLoader interface {
	LoadMember(index int, e *Entry) ([]byte, error)
}

// Directory is the normalized result of a successful parse.
type Directory struct {
	// Format is the tag of the parser that produced the directory.
	Format string

	// Entries lists members in container order.
	Entries []Entry

	// Siblings holds the companion streams; Entry.Stream n refers to Siblings[n-1].
	Siblings []source.Source

	// Loader reads members that need delegated handling. May be nil.
	Loader MemberLoader
}

// Stream returns the backing stream for an entry, given the package's primary stream.
func (d *Directory) Stream(primary source.Source, e *Entry) (source.Source, error) {
	if e.Stream == 0 {
		return primary, nil
	}
	if e.Stream < 0 || e.Stream > len(d.Siblings) {
		return nil, fmt.Errorf("%s: stream %d: %w", e.Name, e.Stream, paktype.ErrNotFound)
	}
	return d.Siblings[e.Stream-1], nil
}

// Close releases the loader and sibling streams.
func (d *Directory) Close() error {
	var errs []error
	if c, ok := d.Loader.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	for _, s := range d.Siblings {
		errs = append(errs, source.Close(s))
	}
	d.Loader = nil
	d.Siblings = nil
	d.Entries = nil
	return errors.Join(errs...)
}

// Archive is the input handed to a Parser.
type Archive struct {
	// Path is the primary file's name; its extension and base name select
	// siblings and hash corpora.
	Path string

	// Source is the primary stream.
	Source source.Source

	// Opener opens sibling streams. Nil disables split-file formats.
	Opener source.Opener

	// Logger receives debug output. Nil disables logging.
	Logger *slog.Logger

	// MaxEntries caps the declared entry count. Zero means no cap.
	MaxEntries uint64

	siblings []source.Source
}

// NewArchive returns an Archive for the primary stream src.
func NewArchive(path string, src source.Source, opener source.Opener) *Archive {
	return &Archive{Path: path, Source: src, Opener: opener}
}

func (a *Archive) log() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.Logger
}

// Cursor returns a new Cursor over the primary stream.
func (a *Archive) Cursor() *source.Cursor {
	return source.NewCursor(a.Source)
}

// Size returns the primary stream size.
func (a *Archive) Size() int64 {
	return a.Source.Size()
}

// Sibling opens the first of names that exists and returns its stream index
// for use in Entry.Stream. The stream is owned by the Archive until the parse
// succeeds, then by the Directory.
func (a *Archive) Sibling(names ...string) (int, source.Source, error) {
	if a.Opener == nil {
		return 0, nil, fmt.Errorf("sibling of %s: no opener: %w", a.Path, paktype.ErrNotFound)
	}
	var errs []error
	for _, name := range names {
		src, err := a.Opener.Open(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		a.siblings = append(a.siblings, src)
		a.log().Debug("opened sibling", "primary", a.Path, "sibling", name, "size", src.Size())
		return len(a.siblings), src, nil
	}
	return 0, nil, fmt.Errorf("sibling of %s: %w", a.Path, errors.Join(append([]error{paktype.ErrNotFound}, errs...)...))
}

// StreamSize returns the size of stream n (0 = primary).
func (a *Archive) StreamSize(n int) (int64, error) {
	if n == 0 {
		return a.Source.Size(), nil
	}
	if n < 0 || n > len(a.siblings) {
		return 0, fmt.Errorf("stream %d: %w", n, paktype.ErrNotFound)
	}
	return a.siblings[n-1].Size(), nil
}

// StreamSource returns stream n (0 = primary).
func (a *Archive) StreamSource(n int) (source.Source, error) {
	if n == 0 {
		return a.Source, nil
	}
	if n < 0 || n > len(a.siblings) {
		return nil, fmt.Errorf("stream %d: %w", n, paktype.ErrNotFound)
	}
	return a.siblings[n-1], nil
}

// release closes every sibling opened so far.
func (a *Archive) release() {
	for _, s := range a.siblings {
		_ = source.Close(s) //nolint:errcheck // best-effort cleanup after a failed parse
	}
	a.siblings = nil
}

// Run parses a with p. On failure every sibling the parser opened is closed
// and no Directory is returned; on success the siblings move to the Directory.
func Run(p Parser, a *Archive) (dir *Directory, err error) {
	defer func() {
		if err != nil {
			a.release()
		}
	}()

	dir, err = p.Parse(a)
	if err != nil {
		return nil, err
	}
	if dir == nil {
		return nil, fmt.Errorf("%s: parser returned no directory: %w", p.Format(), paktype.ErrFileType)
	}
	if dir.Format == "" {
		dir.Format = p.Format()
	}
	dir.Siblings = a.siblings
	a.siblings = nil
	return dir, nil
}
