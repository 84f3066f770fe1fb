package format

import (
	"fmt"
)

const lstRecordSize = 40

// LST reads 4X Technologies LST index files whose member data lives in a
// companion .ibf file.
//
// Layout: "LST\x1a", u32 count, count × {char[32] name, u32 offset, u32 size};
// offsets are relative to the start of the .ibf file.
type LST struct{}

// Format implements Parser.
func (LST) Format() string { return "lst" }

// SiblingNames implements SiblingResolver.
func (LST) SiblingNames(primary string) []string {
	return SiblingNames(primary, "ibf")
}

// Parse implements Parser.
func (l LST) Parse(a *Archive) (*Directory, error) {
	c := a.Cursor()
	if _, err := expectMagic(c, l.Format(), []byte("LST\x1a")); err != nil {
		return nil, err
	}
	n, err := c.Uint32(le)
	if err != nil {
		return nil, fmt.Errorf("lst: read count: %w", err)
	}
	count := uint64(n)
	if err := CheckTable(count, lstRecordSize, c.Remaining()); err != nil {
		return nil, fmt.Errorf("lst: %w", err)
	}
	stream, _, err := a.Sibling(l.SiblingNames(a.Path)...)
	if err != nil {
		return nil, fmt.Errorf("lst: %w", err)
	}

	b, err := a.NewBuilder(count)
	if err != nil {
		return nil, fmt.Errorf("lst: %w", err)
	}
	for i := range count {
		rec, err := c.Bytes(lstRecordSize)
		if err != nil {
			return nil, fmt.Errorf("lst: entry %d: %w", i, err)
		}
		e := Entry{
			Name:   NormalizeName(trimNUL(rec[:32])),
			Offset: uint64(le.Uint32(rec[32:36])),
			Size:   uint64(le.Uint32(rec[36:40])),
			Stream: stream,
		}
		if err := b.Add(e); err != nil {
			return nil, fmt.Errorf("lst: %w", err)
		}
	}
	return b.Directory(nil), nil
}
