package format

import (
	"fmt"
)

const wadRecordSize = 16

// WAD reads id Software IWAD/PWAD files.
//
// Layout: "IWAD"|"PWAD", int32 lump count, int32 table offset; the table holds
// {int32 offset, int32 size, char[8] name} records.
type WAD struct{}

// Format implements Parser.
func (WAD) Format() string { return "wad" }

// Parse implements Parser.
func (w WAD) Parse(a *Archive) (*Directory, error) {
	c := a.Cursor()
	if _, err := expectMagic(c, w.Format(), []byte("IWAD"), []byte("PWAD")); err != nil {
		return nil, err
	}
	rawCount, err := c.Int32(le)
	if err != nil {
		return nil, fmt.Errorf("wad: read lump count: %w", err)
	}
	rawTable, err := c.Int32(le)
	if err != nil {
		return nil, fmt.Errorf("wad: read table offset: %w", err)
	}
	count, err := nonNegative("wad", "lump count", rawCount)
	if err != nil {
		return nil, err
	}
	tableOff, err := nonNegative("wad", "table offset", rawTable)
	if err != nil {
		return nil, err
	}
	avail, err := tableRegion(c, "wad", int64(tableOff))
	if err != nil {
		return nil, err
	}
	if err := CheckTable(count, wadRecordSize, avail); err != nil {
		return nil, fmt.Errorf("wad: %w", err)
	}
	if err := c.Seek(int64(tableOff)); err != nil {
		return nil, fmt.Errorf("wad: %w", err)
	}

	b, err := a.NewBuilder(count)
	if err != nil {
		return nil, fmt.Errorf("wad: %w", err)
	}
	for i := range count {
		rawOff, err := c.Int32(le)
		if err != nil {
			return nil, fmt.Errorf("wad: lump %d: %w", i, err)
		}
		rawSize, err := c.Int32(le)
		if err != nil {
			return nil, fmt.Errorf("wad: lump %d: %w", i, err)
		}
		name, err := c.CString(8)
		if err != nil {
			return nil, fmt.Errorf("wad: lump %d: %w", i, err)
		}
		off, err := nonNegative("wad", "lump offset", rawOff)
		if err != nil {
			return nil, err
		}
		size, err := nonNegative("wad", "lump size", rawSize)
		if err != nil {
			return nil, err
		}
		if err := b.Add(Entry{Name: NormalizeName(name), Offset: off, Size: size}); err != nil {
			return nil, fmt.Errorf("wad: %w", err)
		}
	}
	return b.Directory(nil), nil
}
