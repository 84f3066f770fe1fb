package format

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/meigma/pak/internal/paktype"
	"github.com/meigma/pak/internal/sizing"
	"github.com/meigma/pak/source"
)

var le = binary.LittleEndian

// expectMagic reads len(magics[0]) bytes and returns the matching magic.
// All magics must have the same length. A file too small to hold the magic
// is reported as ErrFileType so registry probing moves on.
func expectMagic(c *source.Cursor, format string, magics ...[]byte) ([]byte, error) {
	n := len(magics[0])
	if c.Remaining() < int64(n) {
		return nil, fmt.Errorf("%s: %d bytes is too small: %w", format, c.Size(), paktype.ErrFileType)
	}
	got, err := c.Bytes(n)
	if err != nil {
		return nil, fmt.Errorf("%s: read magic: %w", format, err)
	}
	for _, m := range magics {
		if bytes.Equal(got, m) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%s: bad magic %q: %w", format, got, paktype.ErrFileType)
}

// tableRegion validates a table offset read from a header and returns the
// number of bytes available from it to the end of the file.
func tableRegion(c *source.Cursor, format string, off int64) (int64, error) {
	if off < 0 || off > c.Size() {
		return 0, fmt.Errorf("%s: table offset %d outside %d bytes: %w", format, off, c.Size(), paktype.ErrFileSize)
	}
	return c.Size() - off, nil
}

// blockOffset multiplies a block index by the block size, failing on overflow.
func blockOffset(format string, block, blockSize uint64) (uint64, error) {
	off, ok := sizing.MulUint64(block, blockSize)
	if !ok {
		return 0, fmt.Errorf("%s: block %d * %d overflows: %w", format, block, blockSize, paktype.ErrFileSize)
	}
	return off, nil
}

// advance adds n to off, failing on overflow.
func advance(format string, off, n uint64) (uint64, error) {
	next, ok := sizing.AddUint64(off, n)
	if !ok {
		return 0, fmt.Errorf("%s: offset %d + %d overflows: %w", format, off, n, paktype.ErrFileSize)
	}
	return next, nil
}

// nonNegative converts signed header fields, rejecting negatives.
func nonNegative(format, field string, v int32) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("%s: negative %s %d: %w", format, field, v, paktype.ErrFileSize)
	}
	return uint64(v), nil
}

func trimNUL(b []byte) string {
	return source.TrimNUL(b)
}
