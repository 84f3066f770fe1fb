package format

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"

	"github.com/meigma/pak/internal/paktype"
	"github.com/meigma/pak/internal/sizing"
)

// ZIP method numbers not named by the zip package.
const (
	zipMethodImplode = 6
)

// ZIP reads ZIP and PK3 packages from their central directory.
//
// Directory entries are skipped. Stored and deflated members are described
// by their data offset in the package; all members are loaded through the
// zip reader so that CRCs are verified. Imploded members are listed but
// reading them fails with ErrUnsupported.
type ZIP struct{}

// Format implements Parser.
func (ZIP) Format() string { return "zip" }

// Parse implements Parser.
func (z ZIP) Parse(a *Archive) (*Directory, error) {
	if _, err := expectMagic(a.Cursor(), z.Format(), []byte("PK\x03\x04"), []byte("PK\x05\x06")); err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(a.Source, a.Size())
	if err != nil {
		return nil, fmt.Errorf("zip: %w: %w", paktype.ErrFileType, err)
	}
	zr.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())

	files := make([]*zip.File, 0, len(zr.File))
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() {
			files = append(files, f)
		}
	}
	b, err := a.NewBuilder(uint64(len(files)))
	if err != nil {
		return nil, fmt.Errorf("zip: %w", err)
	}
	for _, f := range files {
		off, err := f.DataOffset()
		if err != nil {
			return nil, fmt.Errorf("zip: %s: %w: %w", f.Name, paktype.ErrFileRead, err)
		}
		e := Entry{
			Name:   NormalizePath(f.Name),
			Offset: uint64(off), //nolint:gosec // DataOffset is non-negative on success
			Size:   f.UncompressedSize64,
		}
		switch f.Method {
		case zip.Store:
		case zip.Deflate:
			e.Compression = CompressionDeflate
		case zipMethodImplode:
			e.Compression = CompressionImplode
		default:
			e.Compression = CompressionUnknown
		}
		if e.Compressed() {
			e.CompressedSize = f.CompressedSize64
		}
		if err := b.Add(e); err != nil {
			return nil, fmt.Errorf("zip: %w", err)
		}
	}
	return b.Directory(&zipLoader{files: files}), nil
}

type zipLoader struct {
	files []*zip.File
}

// LoadMember implements MemberLoader.
func (l *zipLoader) LoadMember(index int, e *Entry) ([]byte, error) {
	if index < 0 || index >= len(l.files) {
		return nil, fmt.Errorf("zip: member %d: %w", index, paktype.ErrNotFound)
	}
	if e.Compression == CompressionImplode {
		return nil, fmt.Errorf("zip: %s: implode: %w", e.Name, paktype.ErrUnsupported)
	}
	rc, err := l.files[index].Open()
	if err != nil {
		if errors.Is(err, zip.ErrAlgorithm) {
			return nil, fmt.Errorf("zip: %s: %w", e.Name, paktype.ErrUnsupported)
		}
		return nil, fmt.Errorf("zip: %s: %w: %w", e.Name, paktype.ErrFileRead, err)
	}
	defer rc.Close()
	return readExactly("zip", e, rc)
}

// readExactly reads e.Size bytes from r and fails if r holds fewer or more.
func readExactly(format string, e *Entry, r io.Reader) ([]byte, error) {
	n, err := sizing.ToInt(e.Size, paktype.ErrMemory)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", format, e.Name, err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%s: %s: %w: %w", format, e.Name, paktype.ErrDecompression, err)
	}
	// Reading to EOF lets checksumming readers verify the member.
	var extra [1]byte
	m, err := r.Read(extra[:])
	if m != 0 {
		return nil, fmt.Errorf("%s: %s: more than %d bytes: %w", format, e.Name, e.Size, paktype.ErrDecompression)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %s: %w: %w", format, e.Name, paktype.ErrDecompression, err)
	}
	return buf, nil
}
