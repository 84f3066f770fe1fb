package format

import (
	"fmt"
	"math/bits"
	"path"
	"strings"

	"github.com/meigma/pak/internal/paktype"
)

const (
	dfsRecordSize = 32
	dfsMaxPart    = 999
)

// DFS reads multi-part DFS packages.
//
// The index file holds "DFS1", u32 count, u32 block size (a power of two) and
// count × {char[20] name, u16 part, u16 pad, u32 block, u32 size}. Member data
// lives in numbered companions <base>.000, <base>.001, … at block × block size.
type DFS struct{}

// Format implements Parser.
func (DFS) Format() string { return "dfs" }

// SiblingNames implements SiblingResolver. It returns the first data part;
// further parts are named by PartName.
func (DFS) SiblingNames(primary string) []string {
	return []string{PartName(primary, 0)}
}

// PartName returns the file name of data part n of the DFS index primary.
func PartName(primary string, n int) string {
	return fmt.Sprintf("%s.%03d", strings.TrimSuffix(primary, path.Ext(primary)), n)
}

// Parse implements Parser.
func (d DFS) Parse(a *Archive) (*Directory, error) {
	c := a.Cursor()
	if _, err := expectMagic(c, d.Format(), []byte("DFS1")); err != nil {
		return nil, err
	}
	n, err := c.Uint32(le)
	if err != nil {
		return nil, fmt.Errorf("dfs: read count: %w", err)
	}
	blockSize, err := c.Uint32(le)
	if err != nil {
		return nil, fmt.Errorf("dfs: read block size: %w", err)
	}
	if blockSize == 0 || bits.OnesCount32(blockSize) != 1 {
		return nil, fmt.Errorf("dfs: block size %d is not a power of two: %w", blockSize, paktype.ErrFileType)
	}
	count := uint64(n)
	if err := CheckTable(count, dfsRecordSize, c.Remaining()); err != nil {
		return nil, fmt.Errorf("dfs: %w", err)
	}

	b, err := a.NewBuilder(count)
	if err != nil {
		return nil, fmt.Errorf("dfs: %w", err)
	}
	streams := make(map[uint16]int)
	for i := range count {
		rec, err := c.Bytes(dfsRecordSize)
		if err != nil {
			return nil, fmt.Errorf("dfs: entry %d: %w", i, err)
		}
		part := le.Uint16(rec[20:22])
		if part > dfsMaxPart {
			return nil, fmt.Errorf("dfs: entry %d: part %d: %w", i, part, paktype.ErrFileSize)
		}
		stream, ok := streams[part]
		if !ok {
			stream, _, err = a.Sibling(PartName(a.Path, int(part)))
			if err != nil {
				return nil, fmt.Errorf("dfs: part %d: %w", part, err)
			}
			streams[part] = stream
		}
		off, err := blockOffset("dfs", uint64(le.Uint32(rec[24:28])), uint64(blockSize))
		if err != nil {
			return nil, err
		}
		e := Entry{
			Name:   NormalizeName(trimNUL(rec[:20])),
			Offset: off,
			Size:   uint64(le.Uint32(rec[28:32])),
			Stream: stream,
		}
		if err := b.Add(e); err != nil {
			return nil, fmt.Errorf("dfs: %w", err)
		}
	}
	return b.Directory(nil), nil
}
