package format

import (
	"fmt"
	"math"

	"github.com/meigma/pak/internal/paktype"
)

const madRecordSize = 24

// MAD reads headerless MAD/MTD packages.
//
// The file starts directly with 24-byte {char[16] name, u32 offset,
// u32 length} records. The number of records is not stored: the table ends
// where the lowest member offset seen so far is reached.
type MAD struct{}

// Format implements Parser.
func (MAD) Format() string { return "mad" }

type madRecord struct {
	name      string
	off, size uint32
}

// Parse implements Parser.
func (m MAD) Parse(a *Archive) (*Directory, error) {
	c := a.Cursor()
	var (
		records  []madRecord
		consumed uint64
		minOff   uint64 = math.MaxUint64
	)
	for consumed < minOff {
		if err := CheckTable(1, madRecordSize, c.Remaining()); err != nil {
			return nil, fmt.Errorf("mad: record %d: %w", len(records), err)
		}
		if a.MaxEntries > 0 && uint64(len(records)) >= a.MaxEntries {
			return nil, fmt.Errorf("mad: more than %d records: %w", a.MaxEntries, paktype.ErrMemory)
		}
		rec, err := c.Bytes(madRecordSize)
		if err != nil {
			return nil, fmt.Errorf("mad: record %d: %w", len(records), err)
		}
		name := trimNUL(rec[:16])
		if !plausibleName(name) {
			return nil, fmt.Errorf("mad: record %d: implausible name %q: %w", len(records), name, paktype.ErrFileType)
		}
		r := madRecord{name: name, off: le.Uint32(rec[16:20]), size: le.Uint32(rec[20:24])}
		records = append(records, r)
		consumed += madRecordSize
		minOff = min(minOff, uint64(r.off))
	}
	if consumed != minOff {
		return nil, fmt.Errorf("mad: table of %d bytes overlaps member data at %d: %w",
			consumed, minOff, paktype.ErrFileSize)
	}

	b, err := a.NewBuilder(uint64(len(records)))
	if err != nil {
		return nil, fmt.Errorf("mad: %w", err)
	}
	for _, r := range records {
		if err := b.Add(Entry{Name: NormalizeName(r.name), Offset: uint64(r.off), Size: uint64(r.size)}); err != nil {
			return nil, fmt.Errorf("mad: %w", err)
		}
	}
	return b.Directory(nil), nil
}

// plausibleName reports whether s is a non-empty run of printable ASCII,
// which headerless formats use in place of a magic number.
func plausibleName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] >= 0x7f {
			return false
		}
	}
	return true
}
