package format

import (
	"fmt"
)

const hogRecordSize = 17

// HOG reads Descent HOG files.
//
// Layout: "DHF", then back-to-back {char[13] name, u32 size, data[size]}
// records until end of file. There is no count; the scan stops exactly at EOF.
type HOG struct{}

// Format implements Parser.
func (HOG) Format() string { return "hog" }

// Parse implements Parser.
func (h HOG) Parse(a *Archive) (*Directory, error) {
	c := a.Cursor()
	if _, err := expectMagic(c, h.Format(), []byte("DHF")); err != nil {
		return nil, err
	}
	b, err := a.NewBuilder(0)
	if err != nil {
		return nil, fmt.Errorf("hog: %w", err)
	}
	for c.Remaining() > 0 {
		i := b.Len()
		if err := CheckTable(1, hogRecordSize, c.Remaining()); err != nil {
			return nil, fmt.Errorf("hog: file %d header: %w", i, err)
		}
		name, err := c.CString(13)
		if err != nil {
			return nil, fmt.Errorf("hog: file %d: %w", i, err)
		}
		size, err := c.Uint32(le)
		if err != nil {
			return nil, fmt.Errorf("hog: file %d: %w", i, err)
		}
		off := uint64(c.Offset()) //nolint:gosec // cursor offsets are non-negative
		if err := b.Add(Entry{Name: NormalizeName(name), Offset: off, Size: uint64(size)}); err != nil {
			return nil, fmt.Errorf("hog: %w", err)
		}
		if err := c.Skip(int64(size)); err != nil {
			return nil, fmt.Errorf("hog: file %d: %w", i, err)
		}
	}
	return b.Directory(nil), nil
}
