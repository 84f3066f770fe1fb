// Package sniff guesses a member's file extension from its leading bytes.
package sniff

import (
	"bytes"
	"encoding/binary"
	"io"
)

// signature maps a byte pattern at the start of a member to an extension.
// When Match is set it decides instead of Magic; size is the member size, or
// 0 when unknown.
type signature struct {
	Magic []byte
	Match func(head []byte, size int64) bool
	Ext   string
}

// signatureTable is checked in order; four-byte magics come before the
// structural 3DS check and the two-byte bitmap magic.
//
//nolint:gochecknoglobals
var signatureTable = []signature{
	// Quake alias model.
	{Magic: []byte("IDPO"), Ext: ".mdl"},
	// Nested packages.
	{Magic: []byte("PWAD"), Ext: ".wad"},
	{Magic: []byte("IWAD"), Ext: ".wad"},
	{Magic: []byte("PACK"), Ext: ".pak"},
	// Textures.
	{Magic: []byte("DDS "), Ext: ".dds"},
	{Magic: []byte{0x00, 0x00, 0x02, 0x00}, Ext: ".tga"},
	// 3D Studio main chunk.
	{Match: is3DS, Ext: ".3ds"},
	// Windows bitmap.
	{Magic: []byte("BM"), Ext: ".bmp"},
}

const (
	chunk3DSMain    = 0x4D4D
	chunk3DSVersion = 0x0002
	chunk3DSEditor  = 0x3D3D
	chunkHeaderSize = 6
)

// is3DS reports whether head starts with a 3DS main chunk: id 0x4D4D, a u32
// length covering at least its own header and no more than the member, then
// a version or editor sub-chunk.
func is3DS(head []byte, size int64) bool {
	if len(head) < chunkHeaderSize+2 || binary.LittleEndian.Uint16(head) != chunk3DSMain {
		return false
	}
	length := int64(binary.LittleEndian.Uint32(head[2:]))
	if length < chunkHeaderSize || (size > 0 && length > size) {
		return false
	}
	switch binary.LittleEndian.Uint16(head[chunkHeaderSize:]) {
	case chunk3DSVersion, chunk3DSEditor:
		return true
	}
	return false
}

func (s signature) matches(head []byte, size int64) bool {
	if s.Match != nil {
		return s.Match(head, size)
	}
	return bytes.HasPrefix(head, s.Magic)
}

// TextWindow is the number of leading bytes inspected by the text fallback.
const TextWindow = 256

// TextExt is assigned to members whose leading bytes are all printable.
const TextExt = ".txt"

// maxSignatureRead covers the longest signature and the text window.
const maxSignatureRead = TextWindow

// Extension reads the leading bytes of the member at [off, off+size) and
// returns a guessed extension including the dot, or "" when nothing matches.
// Read errors are treated as no match.
func Extension(r io.ReaderAt, off, size int64) string {
	if size <= 0 || off < 0 {
		return ""
	}
	buf := make([]byte, min(size, int64(maxSignatureRead)))
	n, err := r.ReadAt(buf, off)
	if n < len(buf) && err != nil {
		return ""
	}
	return guess(buf[:n], size)
}

// Bytes returns the guessed extension for a member beginning with head.
func Bytes(head []byte) string {
	return guess(head, 0)
}

func guess(head []byte, size int64) string {
	for _, sig := range signatureTable {
		if sig.matches(head, size) {
			return sig.Ext
		}
	}
	if len(head) > 0 && printable(head[:min(len(head), TextWindow)]) {
		return TextExt
	}
	return ""
}

func printable(b []byte) bool {
	for _, c := range b {
		switch {
		case c == '\t', c == '\n', c == '\r':
		case c >= 0x20 && c < 0x7f:
		default:
			return false
		}
	}
	return true
}
