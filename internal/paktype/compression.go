package paktype

// Compression identifies how a member's bytes are stored on disk.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionDeflate
	CompressionZlib
	CompressionImplode
	CompressionRar
	CompressionUnknown
)

// String returns the human-readable name of the compression kind.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionDeflate:
		return "deflate"
	case CompressionZlib:
		return "zlib"
	case CompressionImplode:
		return "implode"
	case CompressionRar:
		return "rar"
	default:
		return "unknown"
	}
}
