package format

import (
	"fmt"
)

const (
	grpHeaderSize = 16
	grpRecordSize = 16
)

// GRP reads Build engine group files.
//
// Layout: "KenSilverman", u32 file count, then 16-byte {char[12] name,
// u32 size} records. Member data follows the table back to back in table order.
type GRP struct{}

// Format implements Parser.
func (GRP) Format() string { return "grp" }

// Parse implements Parser.
func (g GRP) Parse(a *Archive) (*Directory, error) {
	c := a.Cursor()
	if _, err := expectMagic(c, g.Format(), []byte("KenSilverman")); err != nil {
		return nil, err
	}
	n, err := c.Uint32(le)
	if err != nil {
		return nil, fmt.Errorf("grp: read file count: %w", err)
	}
	count := uint64(n)
	if err := CheckTable(count, grpRecordSize, c.Remaining()); err != nil {
		return nil, fmt.Errorf("grp: %w", err)
	}

	b, err := a.NewBuilder(count)
	if err != nil {
		return nil, fmt.Errorf("grp: %w", err)
	}
	off := grpHeaderSize + count*grpRecordSize
	for i := range count {
		name, err := c.CString(12)
		if err != nil {
			return nil, fmt.Errorf("grp: file %d: %w", i, err)
		}
		size, err := c.Uint32(le)
		if err != nil {
			return nil, fmt.Errorf("grp: file %d: %w", i, err)
		}
		if err := b.Add(Entry{Name: NormalizeName(name), Offset: off, Size: uint64(size)}); err != nil {
			return nil, fmt.Errorf("grp: %w", err)
		}
		if off, err = advance("grp", off, uint64(size)); err != nil {
			return nil, err
		}
	}
	return b.Directory(nil), nil
}
