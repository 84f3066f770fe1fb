package format

import (
	"fmt"
)

const (
	datRecordSize = 20
	datBlockSize  = 2048
)

// DAT reads DAT index files whose member data lives in a companion .art file.
//
// Layout: "DAT\x1a", u32 count, count × {char[12] name, u32 block, u32 size}.
// Members start at block × 2048 in the .art file.
type DAT struct{}

// Format implements Parser.
func (DAT) Format() string { return "dat" }

// SiblingNames implements SiblingResolver.
func (DAT) SiblingNames(primary string) []string {
	return SiblingNames(primary, "art")
}

// Parse implements Parser.
func (d DAT) Parse(a *Archive) (*Directory, error) {
	c := a.Cursor()
	if _, err := expectMagic(c, d.Format(), []byte("DAT\x1a")); err != nil {
		return nil, err
	}
	n, err := c.Uint32(le)
	if err != nil {
		return nil, fmt.Errorf("dat: read count: %w", err)
	}
	count := uint64(n)
	if err := CheckTable(count, datRecordSize, c.Remaining()); err != nil {
		return nil, fmt.Errorf("dat: %w", err)
	}
	stream, _, err := a.Sibling(d.SiblingNames(a.Path)...)
	if err != nil {
		return nil, fmt.Errorf("dat: %w", err)
	}

	b, err := a.NewBuilder(count)
	if err != nil {
		return nil, fmt.Errorf("dat: %w", err)
	}
	for i := range count {
		rec, err := c.Bytes(datRecordSize)
		if err != nil {
			return nil, fmt.Errorf("dat: entry %d: %w", i, err)
		}
		off, err := blockOffset("dat", uint64(le.Uint32(rec[12:16])), datBlockSize)
		if err != nil {
			return nil, err
		}
		e := Entry{
			Name:   NormalizeName(trimNUL(rec[:12])),
			Offset: off,
			Size:   uint64(le.Uint32(rec[16:20])),
			Stream: stream,
		}
		if err := b.Add(e); err != nil {
			return nil, fmt.Errorf("dat: %w", err)
		}
	}
	return b.Directory(nil), nil
}
