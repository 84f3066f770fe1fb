package format

import (
	"fmt"

	"github.com/meigma/pak/internal/paktype"
)

const pakRecordSize = 64

// PAK reads Quake PACK files.
//
// Layout: "PACK", int32 directory offset, int32 directory length; the
// directory holds 64-byte {char[56] name, int32 offset, int32 size} records.
type PAK struct{}

// Format implements Parser.
func (PAK) Format() string { return "pak" }

// Parse implements Parser.
func (p PAK) Parse(a *Archive) (*Directory, error) {
	c := a.Cursor()
	if _, err := expectMagic(c, p.Format(), []byte("PACK")); err != nil {
		return nil, err
	}
	rawOff, err := c.Int32(le)
	if err != nil {
		return nil, fmt.Errorf("pak: read directory offset: %w", err)
	}
	rawLen, err := c.Int32(le)
	if err != nil {
		return nil, fmt.Errorf("pak: read directory length: %w", err)
	}
	dirOff, err := nonNegative("pak", "directory offset", rawOff)
	if err != nil {
		return nil, err
	}
	dirLen, err := nonNegative("pak", "directory length", rawLen)
	if err != nil {
		return nil, err
	}
	if dirLen%pakRecordSize != 0 {
		return nil, fmt.Errorf("pak: directory length %d is not a multiple of %d: %w",
			dirLen, pakRecordSize, paktype.ErrFileSize)
	}
	count := dirLen / pakRecordSize
	avail, err := tableRegion(c, "pak", int64(dirOff))
	if err != nil {
		return nil, err
	}
	if err := CheckTable(count, pakRecordSize, avail); err != nil {
		return nil, fmt.Errorf("pak: %w", err)
	}
	if err := c.Seek(int64(dirOff)); err != nil {
		return nil, fmt.Errorf("pak: %w", err)
	}

	b, err := a.NewBuilder(count)
	if err != nil {
		return nil, fmt.Errorf("pak: %w", err)
	}
	for i := range count {
		rec, err := c.Bytes(pakRecordSize)
		if err != nil {
			return nil, fmt.Errorf("pak: entry %d: %w", i, err)
		}
		off, err := nonNegative("pak", "entry offset", int32(le.Uint32(rec[56:60]))) //nolint:gosec // sign reinterpretation
		if err != nil {
			return nil, err
		}
		size, err := nonNegative("pak", "entry size", int32(le.Uint32(rec[60:64]))) //nolint:gosec // sign reinterpretation
		if err != nil {
			return nil, err
		}
		if err := b.Add(Entry{Name: NormalizeName(trimNUL(rec[:56])), Offset: off, Size: size}); err != nil {
			return nil, fmt.Errorf("pak: %w", err)
		}
	}
	return b.Directory(nil), nil
}
