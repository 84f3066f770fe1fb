package format

import (
	"fmt"

	"github.com/meigma/pak/internal/namehash"
	"github.com/meigma/pak/internal/paktype"
)

const (
	cluHeaderSize = 84
	cluRecordSize = 16
	cluVersion    = 2
)

// CLU reads Core Design CLU level packages.
//
// Layout: an 84-byte header {"CLU\0", u32 version=2, u32 header length,
// u32 index count, u32 hash, u32 unused, char[60] description}, then 16-byte
// indices {u32 unused name offset, u32 size, u32 offset, u32 name hash} at the
// header length. Names are recovered by hashing the level's known strings.
type CLU struct{}

// Format implements Parser.
func (CLU) Format() string { return "clu" }

// Parse implements Parser.
func (cl CLU) Parse(a *Archive) (*Directory, error) {
	c := a.Cursor()
	if _, err := expectMagic(c, cl.Format(), []byte("CLU\x00")); err != nil {
		return nil, err
	}
	var hdr [5]uint32
	for i := range hdr {
		v, err := c.Uint32(le)
		if err != nil {
			return nil, fmt.Errorf("clu: read header: %w", err)
		}
		hdr[i] = v
	}
	version, headerLen, count := hdr[0], uint64(hdr[1]), uint64(hdr[2])
	if version != cluVersion {
		return nil, fmt.Errorf("clu: version %d: %w", version, paktype.ErrFileVersion)
	}
	if headerLen < cluHeaderSize {
		return nil, fmt.Errorf("clu: header length %d below %d: %w", headerLen, cluHeaderSize, paktype.ErrFileSize)
	}
	avail, err := tableRegion(c, "clu", int64(headerLen))
	if err != nil {
		return nil, err
	}
	if err := CheckTable(count, cluRecordSize, avail); err != nil {
		return nil, fmt.Errorf("clu: %w", err)
	}
	if err := c.Seek(int64(headerLen)); err != nil {
		return nil, fmt.Errorf("clu: %w", err)
	}

	b, err := a.NewBuilder(count)
	if err != nil {
		return nil, fmt.Errorf("clu: %w", err)
	}
	for i := range count {
		rec, err := c.Bytes(cluRecordSize)
		if err != nil {
			return nil, fmt.Errorf("clu: index %d: %w", i, err)
		}
		e := Entry{
			Size:   uint64(le.Uint32(rec[4:8])),
			Offset: uint64(le.Uint32(rec[8:12])),
			Hash:   le.Uint32(rec[12:16]),
		}
		if err := b.Add(e); err != nil {
			return nil, fmt.Errorf("clu: %w", err)
		}
	}
	a.RecoverNames(b.Entries(), namehash.Select(namehash.FamilyCLU, a.Path))
	return b.Directory(nil), nil
}
