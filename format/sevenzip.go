package format

import (
	"fmt"

	"github.com/bodgit/sevenzip"

	"github.com/meigma/pak/internal/paktype"
)

// SevenZip reads 7-Zip packages. Every member is decoded through the 7-Zip
// reader; offsets are not meaningful for solid folders and are left zero.
type SevenZip struct{}

// Format implements Parser.
func (SevenZip) Format() string { return "7z" }

// Parse implements Parser.
func (s SevenZip) Parse(a *Archive) (*Directory, error) {
	if _, err := expectMagic(a.Cursor(), s.Format(), []byte("7z\xbc\xaf\x27\x1c")); err != nil {
		return nil, err
	}
	zr, err := sevenzip.NewReader(a.Source, a.Size())
	if err != nil {
		return nil, fmt.Errorf("7z: %w: %w", paktype.ErrFileType, err)
	}

	files := make([]*sevenzip.File, 0, len(zr.File))
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() {
			files = append(files, f)
		}
	}
	b, err := a.NewBuilder(uint64(len(files)))
	if err != nil {
		return nil, fmt.Errorf("7z: %w", err)
	}
	for _, f := range files {
		e := Entry{
			Name:        NormalizePath(f.Name),
			Size:        f.UncompressedSize,
			Compression: CompressionUnknown,
		}
		if err := b.Add(e); err != nil {
			return nil, fmt.Errorf("7z: %w", err)
		}
	}
	return b.Directory(&sevenZipLoader{files: files}), nil
}

type sevenZipLoader struct {
	files []*sevenzip.File
}

// LoadMember implements MemberLoader.
func (l *sevenZipLoader) LoadMember(index int, e *Entry) ([]byte, error) {
	if index < 0 || index >= len(l.files) {
		return nil, fmt.Errorf("7z: member %d: %w", index, paktype.ErrNotFound)
	}
	rc, err := l.files[index].Open()
	if err != nil {
		return nil, fmt.Errorf("7z: %s: %w: %w", e.Name, paktype.ErrFileRead, err)
	}
	defer rc.Close()
	return readExactly("7z", e, rc)
}
