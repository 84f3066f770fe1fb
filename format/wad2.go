package format

import (
	"fmt"
)

const wad2RecordSize = 32

// WAD2 reads Quake WAD2 and Half-Life WAD3 texture packages.
//
// Layout: "WAD2"|"WAD3", int32 entry count, int32 directory offset; 32-byte
// records {int32 offset, int32 disk size, int32 size, u8 type, u8 compression,
// u16 pad, char[16] name}. Compressed entries use a LZSS variant no shipped
// tool produces; they are listed with CompressionUnknown.
type WAD2 struct{}

// Format implements Parser.
func (WAD2) Format() string { return "wad2" }

// Parse implements Parser.
func (w WAD2) Parse(a *Archive) (*Directory, error) {
	c := a.Cursor()
	if _, err := expectMagic(c, w.Format(), []byte("WAD2"), []byte("WAD3")); err != nil {
		return nil, err
	}
	rawCount, err := c.Int32(le)
	if err != nil {
		return nil, fmt.Errorf("wad2: read entry count: %w", err)
	}
	rawDir, err := c.Int32(le)
	if err != nil {
		return nil, fmt.Errorf("wad2: read directory offset: %w", err)
	}
	count, err := nonNegative("wad2", "entry count", rawCount)
	if err != nil {
		return nil, err
	}
	dirOff, err := nonNegative("wad2", "directory offset", rawDir)
	if err != nil {
		return nil, err
	}
	avail, err := tableRegion(c, "wad2", int64(dirOff))
	if err != nil {
		return nil, err
	}
	if err := CheckTable(count, wad2RecordSize, avail); err != nil {
		return nil, fmt.Errorf("wad2: %w", err)
	}
	if err := c.Seek(int64(dirOff)); err != nil {
		return nil, fmt.Errorf("wad2: %w", err)
	}

	b, err := a.NewBuilder(count)
	if err != nil {
		return nil, fmt.Errorf("wad2: %w", err)
	}
	for i := range count {
		rec, err := c.Bytes(wad2RecordSize)
		if err != nil {
			return nil, fmt.Errorf("wad2: entry %d: %w", i, err)
		}
		off, err := nonNegative("wad2", "entry offset", int32(le.Uint32(rec[0:4])))
		if err != nil {
			return nil, err
		}
		diskSize, err := nonNegative("wad2", "disk size", int32(le.Uint32(rec[4:8])))
		if err != nil {
			return nil, err
		}
		size, err := nonNegative("wad2", "size", int32(le.Uint32(rec[8:12])))
		if err != nil {
			return nil, err
		}
		e := Entry{
			Name:   NormalizeName(trimNUL(rec[16:32])),
			Offset: off,
			Size:   diskSize,
		}
		if rec[13] != 0 {
			e.Size = size
			e.CompressedSize = diskSize
			e.Compression = CompressionUnknown
		}
		if err := b.Add(e); err != nil {
			return nil, fmt.Errorf("wad2: %w", err)
		}
	}
	return b.Directory(nil), nil
}
