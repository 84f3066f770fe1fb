package format

import (
	"fmt"

	"github.com/meigma/pak/internal/paktype"
	"github.com/meigma/pak/internal/sizing"
)

const (
	vppMagic      = 0x51890ACE
	vppAlignment  = 2048
	vppV1Record   = 64
	vppV2Record   = 32
	vppHeaderSize = vppAlignment
)

// VPP reads Volition VPP_PC packages.
//
// The header {u32 0x51890ACE, u32 version, u32 count, u32 total size}, the
// entry table and every member are each padded to the next 2048-byte
// boundary. Version 1 records are {char[60] name, u32 size}; version 2
// records are {char[24] name, u32 size, u32 compressed size} with
// zlib-compressed members whenever the two sizes differ.
type VPP struct{}

// Format implements Parser.
func (VPP) Format() string { return "vpp" }

// Parse implements Parser.
func (v VPP) Parse(a *Archive) (*Directory, error) {
	c := a.Cursor()
	if c.Remaining() < 16 {
		return nil, fmt.Errorf("vpp: %d bytes is too small: %w", c.Size(), paktype.ErrFileType)
	}
	magic, err := c.Uint32(le)
	if err != nil {
		return nil, fmt.Errorf("vpp: read magic: %w", err)
	}
	if magic != vppMagic {
		return nil, fmt.Errorf("vpp: bad magic %#08x: %w", magic, paktype.ErrFileType)
	}
	version, err := c.Uint32(le)
	if err != nil {
		return nil, fmt.Errorf("vpp: read version: %w", err)
	}
	var recSize uint64
	switch version {
	case 1:
		recSize = vppV1Record
	case 2:
		recSize = vppV2Record
	default:
		return nil, fmt.Errorf("vpp: version %d: %w", version, paktype.ErrFileVersion)
	}
	n, err := c.Uint32(le)
	if err != nil {
		return nil, fmt.Errorf("vpp: read count: %w", err)
	}
	total, err := c.Uint32(le)
	if err != nil {
		return nil, fmt.Errorf("vpp: read total size: %w", err)
	}
	if int64(total) != c.Size() {
		a.log().Debug("vpp size mismatch", "archive", a.Path, "declared", total, "actual", c.Size())
	}
	count := uint64(n)
	avail, err := tableRegion(c, "vpp", vppHeaderSize)
	if err != nil {
		return nil, err
	}
	if err := CheckTable(count, recSize, avail); err != nil {
		return nil, fmt.Errorf("vpp: %w", err)
	}
	if err := c.Seek(vppHeaderSize); err != nil {
		return nil, fmt.Errorf("vpp: %w", err)
	}

	// count*recSize fits in the file, so neither sum can overflow.
	off, _ := sizing.AlignUp(vppHeaderSize+count*recSize, vppAlignment)
	b, err := a.NewBuilder(count)
	if err != nil {
		return nil, fmt.Errorf("vpp: %w", err)
	}
	for i := range count {
		rec, err := c.Bytes(int(recSize))
		if err != nil {
			return nil, fmt.Errorf("vpp: entry %d: %w", i, err)
		}
		var e Entry
		if version == 1 {
			e = Entry{Name: NormalizeName(trimNUL(rec[:60])), Size: uint64(le.Uint32(rec[60:64]))}
		} else {
			e = Entry{Name: NormalizeName(trimNUL(rec[:24])), Size: uint64(le.Uint32(rec[24:28]))}
			if csize := uint64(le.Uint32(rec[28:32])); csize != 0 && csize != e.Size {
				e.CompressedSize = csize
				e.Compression = CompressionZlib
			}
		}
		e.Offset = off
		if err := b.Add(e); err != nil {
			return nil, fmt.Errorf("vpp: %w", err)
		}
		next, ok := sizing.AddUint64(off, e.StoredSize())
		if ok {
			next, ok = sizing.AlignUp(next, vppAlignment)
		}
		if !ok {
			return nil, fmt.Errorf("vpp: entry %d: offset overflow: %w", i, paktype.ErrFileSize)
		}
		off = next
	}
	return b.Directory(nil), nil
}
