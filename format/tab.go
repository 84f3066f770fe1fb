package format

import (
	"fmt"

	"github.com/meigma/pak/internal/namehash"
	"github.com/meigma/pak/internal/paktype"
)

const tabRecordSize = 12

// TAB reads hashed TAB index files whose member data lives in a companion
// .bin file.
//
// Layout: u32 count, count × {u32 name hash, u32 offset, u32 size}. The file
// carries no magic, so its size must be exactly 4 + count × 12. Names are
// recovered with HashA from the "tab" corpus.
type TAB struct{}

// Format implements Parser.
func (TAB) Format() string { return "tab" }

// SiblingNames implements SiblingResolver.
func (TAB) SiblingNames(primary string) []string {
	return SiblingNames(primary, "bin")
}

// Parse implements Parser.
func (t TAB) Parse(a *Archive) (*Directory, error) {
	c := a.Cursor()
	if c.Remaining() < 4 {
		return nil, fmt.Errorf("tab: %d bytes is too small: %w", c.Size(), paktype.ErrFileType)
	}
	n, err := c.Uint32(le)
	if err != nil {
		return nil, fmt.Errorf("tab: read count: %w", err)
	}
	count := uint64(n)
	if err := CheckTable(count, tabRecordSize, c.Remaining()); err != nil {
		return nil, fmt.Errorf("tab: %w", err)
	}
	if uint64(c.Remaining()) != count*tabRecordSize { //nolint:gosec // non-negative
		return nil, fmt.Errorf("tab: %d trailing bytes after %d records: %w",
			uint64(c.Remaining())-count*tabRecordSize, count, paktype.ErrFileType) //nolint:gosec // non-negative
	}
	stream, _, err := a.Sibling(t.SiblingNames(a.Path)...)
	if err != nil {
		return nil, fmt.Errorf("tab: %w", err)
	}

	b, err := a.NewBuilder(count)
	if err != nil {
		return nil, fmt.Errorf("tab: %w", err)
	}
	for i := range count {
		rec, err := c.Bytes(tabRecordSize)
		if err != nil {
			return nil, fmt.Errorf("tab: entry %d: %w", i, err)
		}
		e := Entry{
			Hash:   le.Uint32(rec[0:4]),
			Offset: uint64(le.Uint32(rec[4:8])),
			Size:   uint64(le.Uint32(rec[8:12])),
			Stream: stream,
		}
		if err := b.Add(e); err != nil {
			return nil, fmt.Errorf("tab: %w", err)
		}
	}
	a.RecoverNames(b.Entries(), namehash.Select(namehash.FamilyTAB, a.Path))
	return b.Directory(nil), nil
}
