package format

import (
	"fmt"

	"github.com/meigma/pak/internal/sizing"
)

const (
	afsRecordSize     = 8
	afsNameRecordSize = 48
)

// AFS reads CRI Middleware AFS packages.
//
// Layout: "AFS\0", u32 count, count × {u32 offset, u32 size}, then
// {u32 name table offset, u32 name table size}. Some writers store that pair
// just before the first member instead. Name records are 48 bytes
// {char[32] name, u16[6] date, u32 size}. Without a name table, members are
// named by index with a sniffed extension.
type AFS struct{}

// Format implements Parser.
func (AFS) Format() string { return "afs" }

// Parse implements Parser.
func (f AFS) Parse(a *Archive) (*Directory, error) {
	c := a.Cursor()
	if _, err := expectMagic(c, f.Format(), []byte("AFS\x00")); err != nil {
		return nil, err
	}
	n, err := c.Uint32(le)
	if err != nil {
		return nil, fmt.Errorf("afs: read count: %w", err)
	}
	count := uint64(n)
	if err := CheckTable(count, afsRecordSize, c.Remaining()); err != nil {
		return nil, fmt.Errorf("afs: %w", err)
	}

	b, err := a.NewBuilder(count)
	if err != nil {
		return nil, fmt.Errorf("afs: %w", err)
	}
	firstOff := uint64(0)
	for i := range count {
		off, err := c.Uint32(le)
		if err != nil {
			return nil, fmt.Errorf("afs: entry %d: %w", i, err)
		}
		size, err := c.Uint32(le)
		if err != nil {
			return nil, fmt.Errorf("afs: entry %d: %w", i, err)
		}
		if err := b.Add(Entry{Offset: uint64(off), Size: uint64(size)}); err != nil {
			return nil, fmt.Errorf("afs: %w", err)
		}
		if off != 0 && (firstOff == 0 || uint64(off) < firstOff) {
			firstOff = uint64(off)
		}
	}
	tableEnd := uint64(c.Offset()) //nolint:gosec // cursor offsets are non-negative

	entries := b.Entries()
	names, err := f.readNames(a, count, tableEnd, firstOff)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if names != nil && names[i] != "" {
			entries[i].Name = NormalizeName(names[i])
			continue
		}
		entries[i].Name = a.SniffedName(uint32(i), &entries[i]) //nolint:gosec // i < count ≤ MaxUint32
	}
	return b.Directory(nil), nil
}

// readNames locates and reads the optional name table. It returns nil when
// the package has none. A pointer slot must lie before the earliest member,
// and a pointer that does not fit the file means there is no table.
func (f AFS) readNames(a *Archive, count, tableEnd, firstOff uint64) ([]string, error) {
	c := a.Cursor()
	size := uint64(a.Size()) //nolint:gosec // sizes are non-negative
	var candidates []uint64
	if firstOff == 0 || tableEnd+8 <= firstOff {
		candidates = append(candidates, tableEnd)
	}
	if firstOff >= tableEnd+16 {
		candidates = append(candidates, firstOff-8)
	}
	for _, at := range candidates {
		if !sizing.InRange(at, 8, size) {
			continue
		}
		if err := c.Seek(int64(at)); err != nil { //nolint:gosec // in range
			return nil, fmt.Errorf("afs: %w", err)
		}
		tblOff, err := c.Uint32(le)
		if err != nil {
			return nil, fmt.Errorf("afs: read name table offset: %w", err)
		}
		tblSize, err := c.Uint32(le)
		if err != nil {
			return nil, fmt.Errorf("afs: read name table size: %w", err)
		}
		if tblOff == 0 || tblSize == 0 {
			continue
		}
		need, ok := sizing.MulUint64(count, afsNameRecordSize)
		if !ok || uint64(tblSize) < need || !sizing.InRange(uint64(tblOff), need, size) {
			a.log().Debug("ignoring implausible name table", "path", a.Path, "offset", tblOff, "size", tblSize)
			continue
		}
		if err := c.Seek(int64(tblOff)); err != nil {
			return nil, fmt.Errorf("afs: %w", err)
		}
		names := make([]string, count)
		for i := range names {
			rec, err := c.Bytes(afsNameRecordSize)
			if err != nil {
				return nil, fmt.Errorf("afs: name %d: %w", i, err)
			}
			names[i] = trimNUL(rec[:32])
		}
		return names, nil
	}
	return nil, nil
}
