package paktype

// Entry describes one member of a package.
type Entry struct {
	// Name is the member's path inside the package, using '/' separators.
	// Formats that store only name hashes fall back to "<hex><ext>".
	Name string

	// Offset is the byte offset of the member's stored bytes in its backing stream.
	Offset uint64

	// Size is the uncompressed size in bytes.
	Size uint64

	// CompressedSize is the stored size for compressed members.
	// Zero when the member is stored or the container does not record it.
	CompressedSize uint64

	// Compression is the algorithm used to store the member.
	Compression Compression

	// Stream selects the backing stream: 0 is the primary file,
	// n is the nth sibling opened during parsing.
	Stream int

	// Hash is the name hash stored by the container, if any.
	Hash uint32
}

// StoredSize returns the number of bytes the member occupies in its backing stream.
func (e *Entry) StoredSize() uint64 {
	if e.Compression == CompressionNone {
		return e.Size
	}
	return e.CompressedSize
}

// Compressed reports whether the member needs decoding before use.
func (e *Entry) Compressed() bool {
	return e.Compression != CompressionNone
}
