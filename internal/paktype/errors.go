package paktype

import "errors"

// Sentinel errors for package operations.
//
// Parsers wrap these with format context; callers match with errors.Is.
var (
	// ErrFileType is returned when a container's magic does not match the parser.
	ErrFileType = errors.New("pak: unrecognized file type")

	// ErrFileVersion is returned when a container declares an unsupported version.
	ErrFileVersion = errors.New("pak: unsupported file version")

	// ErrFileSize is returned when a declared count, offset or length does not fit
	// inside the container it was read from.
	ErrFileSize = errors.New("pak: size out of bounds")

	// ErrFileRead is returned on a short read or EOF in the middle of a record.
	ErrFileRead = errors.New("pak: short read")

	// ErrMemory is returned when a declared size exceeds the configured allocation limit.
	ErrMemory = errors.New("pak: allocation limit exceeded")

	// ErrNotFound is returned when no loader accepts a file, or a member or sibling
	// file does not exist.
	ErrNotFound = errors.New("pak: not found")

	// ErrUnsupported is returned for recognized but unimplemented features,
	// such as imploded members.
	ErrUnsupported = errors.New("pak: unsupported")

	// ErrDecompression is returned when a compressed member fails to inflate
	// to its declared size.
	ErrDecompression = errors.New("pak: decompression failed")

	// ErrClosed is returned when a closed package is used.
	ErrClosed = errors.New("pak: package closed")
)
