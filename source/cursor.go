package source

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/meigma/pak/internal/paktype"
)

// Cursor reads fixed-width fields sequentially from a Source.
//
// Every read either fills its destination completely or returns an error
// wrapping paktype.ErrFileRead; a short read is never reported as a value.
// Cursor is not safe for concurrent use.
type Cursor struct {
	src     Source
	off     int64
	size    int64
	scratch [8]byte
}

// NewCursor returns a Cursor positioned at offset 0.
func NewCursor(src Source) *Cursor {
	return &Cursor{src: src, size: src.Size()}
}

// Source returns the underlying Source.
func (c *Cursor) Source() Source {
	return c.src
}

// Offset returns the current read position.
func (c *Cursor) Offset() int64 {
	return c.off
}

// Size returns the total size of the source.
func (c *Cursor) Size() int64 {
	return c.size
}

// Remaining returns the number of bytes between the cursor and the end of the source.
func (c *Cursor) Remaining() int64 {
	return c.size - c.off
}

// Seek moves the cursor to an absolute offset within [0, Size].
func (c *Cursor) Seek(off int64) error {
	if off < 0 || off > c.size {
		return fmt.Errorf("seek to %d of %d: %w", off, c.size, paktype.ErrFileSize)
	}
	c.off = off
	return nil
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int64) error {
	if n < 0 || n > c.Remaining() {
		return fmt.Errorf("skip %d at %d: %w", n, c.off, paktype.ErrFileSize)
	}
	c.off += n
	return nil
}

// Read reads up to len(p) bytes and returns the count actually read.
// It returns io.EOF only when no bytes remain.
func (c *Cursor) Read(p []byte) (int, error) {
	if c.off >= c.size {
		return 0, io.EOF
	}
	if rem := c.Remaining(); int64(len(p)) > rem {
		p = p[:rem]
	}
	n, err := c.src.ReadAt(p, c.off)
	c.off += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

// ReadFull fills p or fails with ErrFileRead.
func (c *Cursor) ReadFull(p []byte) error {
	if int64(len(p)) > c.Remaining() {
		return fmt.Errorf("read %d bytes at %d: %w", len(p), c.off, paktype.ErrFileRead)
	}
	n, err := c.src.ReadAt(p, c.off)
	if n < len(p) {
		if err == nil || err == io.EOF {
			err = paktype.ErrFileRead
		}
		return fmt.Errorf("read %d bytes at %d: got %d: %w", len(p), c.off, n, err)
	}
	c.off += int64(n)
	return nil
}

// Bytes reads n bytes into a new slice. The length is checked against the
// remaining source before allocating.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	if n < 0 || int64(n) > c.Remaining() {
		return nil, fmt.Errorf("read %d bytes at %d: %w", n, c.off, paktype.ErrFileRead)
	}
	buf := make([]byte, n)
	if err := c.ReadFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// CString reads a fixed-width char[n] field and returns it up to the first NUL.
func (c *Cursor) CString(n int) (string, error) {
	buf, err := c.Bytes(n)
	if err != nil {
		return "", err
	}
	return TrimNUL(buf), nil
}

// Uint8 reads one byte.
func (c *Cursor) Uint8() (uint8, error) {
	if err := c.ReadFull(c.scratch[:1]); err != nil {
		return 0, err
	}
	return c.scratch[0], nil
}

// Uint16 reads a 16-bit unsigned integer in the given byte order.
func (c *Cursor) Uint16(order binary.ByteOrder) (uint16, error) {
	if err := c.ReadFull(c.scratch[:2]); err != nil {
		return 0, err
	}
	return order.Uint16(c.scratch[:2]), nil
}

// Uint32 reads a 32-bit unsigned integer in the given byte order.
func (c *Cursor) Uint32(order binary.ByteOrder) (uint32, error) {
	if err := c.ReadFull(c.scratch[:4]); err != nil {
		return 0, err
	}
	return order.Uint32(c.scratch[:4]), nil
}

// Int32 reads a 32-bit signed integer in the given byte order.
func (c *Cursor) Int32(order binary.ByteOrder) (int32, error) {
	v, err := c.Uint32(order)
	return int32(v), err //nolint:gosec // two's complement reinterpretation is intended
}

// Uint64 reads a 64-bit unsigned integer in the given byte order.
func (c *Cursor) Uint64(order binary.ByteOrder) (uint64, error) {
	if err := c.ReadFull(c.scratch[:8]); err != nil {
		return 0, err
	}
	return order.Uint64(c.scratch[:8]), nil
}

// Magic reads len(want) bytes and reports whether they equal want.
func (c *Cursor) Magic(want []byte) (bool, error) {
	if int64(len(want)) > c.Remaining() {
		return false, nil
	}
	buf := make([]byte, len(want))
	if err := c.ReadFull(buf); err != nil {
		return false, err
	}
	return bytes.Equal(buf, want), nil
}

// TrimNUL returns b up to its first NUL byte as a string.
func TrimNUL(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
