package member

import (
	"fmt"

	"github.com/meigma/pak/format"
	"github.com/meigma/pak/internal/paktype"
	"github.com/meigma/pak/internal/sizing"
)

// ValidateSize checks the declared member size against maxMemberSize.
// A limit of 0 disables the check.
func ValidateSize(e *format.Entry, maxMemberSize uint64) error {
	if maxMemberSize > 0 && (e.Size > maxMemberSize || e.StoredSize() > maxMemberSize) {
		return fmt.Errorf("size %d exceeds limit %d: %w", max(e.Size, e.StoredSize()), maxMemberSize, paktype.ErrMemory)
	}
	return nil
}

// ValidateRange checks that an entry's stored bytes lie within a stream of
// the given size.
func ValidateRange(e *format.Entry, streamSize int64) error {
	if streamSize < 0 {
		return fmt.Errorf("negative stream size: %w", paktype.ErrFileSize)
	}
	if !sizing.InRange(e.Offset, e.StoredSize(), uint64(streamSize)) {
		return fmt.Errorf("range [%d, +%d) exceeds %d bytes: %w",
			e.Offset, e.StoredSize(), streamSize, paktype.ErrFileSize)
	}
	return nil
}
