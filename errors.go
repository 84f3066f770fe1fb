package pak

import (
	"github.com/meigma/pak/internal/extract"
	"github.com/meigma/pak/internal/paktype"
)

// Sentinel errors re-exported from internal/paktype.
var (
	// ErrFileType is returned when no parser recognizes a container's signature.
	ErrFileType = paktype.ErrFileType

	// ErrFileVersion is returned for an unsupported container version.
	ErrFileVersion = paktype.ErrFileVersion

	// ErrFileSize is returned when a count, offset or length read from a
	// container does not fit inside it.
	ErrFileSize = paktype.ErrFileSize

	// ErrFileRead is returned on a short read in the middle of a record or member.
	ErrFileRead = paktype.ErrFileRead

	// ErrMemory is returned when a declared size exceeds a configured limit.
	ErrMemory = paktype.ErrMemory

	// ErrNotFound is returned when no parser accepts a file, or a member or
	// sibling file does not exist.
	ErrNotFound = paktype.ErrNotFound

	// ErrUnsupported is returned for recognized but unimplemented features.
	ErrUnsupported = paktype.ErrUnsupported

	// ErrDecompression is returned when a member fails to decode to its declared size.
	ErrDecompression = paktype.ErrDecompression

	// ErrClosed is returned by every method of a closed Package.
	ErrClosed = paktype.ErrClosed
)

// ErrUnsafePath is returned by Extract for member names that would escape
// the destination directory.
var ErrUnsafePath = extract.ErrUnsafePath
