package format

import (
	"fmt"

	"github.com/meigma/pak/internal/paktype"
	"github.com/meigma/pak/internal/sizing"
)

// CheckTable verifies that count records of recordSize bytes fit in the
// available bytes. It must be called before allocating anything sized by count.
func CheckTable(count, recordSize uint64, available int64) error {
	need, ok := sizing.MulUint64(count, recordSize)
	if !ok || available < 0 || need > uint64(available) {
		return fmt.Errorf("%d records of %d bytes exceed %d available: %w",
			count, recordSize, available, paktype.ErrFileSize)
	}
	return nil
}

// Builder accumulates entries and validates each against its backing stream.
type Builder struct {
	a       *Archive
	entries []Entry
}

// NewBuilder allocates room for count entries. The caller must have bounded
// count with CheckTable or an equivalent scan.
func (a *Archive) NewBuilder(count uint64) (*Builder, error) {
	if a.MaxEntries > 0 && count > a.MaxEntries {
		return nil, fmt.Errorf("%d entries exceed limit %d: %w", count, a.MaxEntries, paktype.ErrMemory)
	}
	n, err := sizing.ToInt(count, paktype.ErrMemory)
	if err != nil {
		return nil, err
	}
	return &Builder{a: a, entries: make([]Entry, 0, n)}, nil
}

// Add validates that e's stored bytes lie inside its backing stream and appends it.
func (b *Builder) Add(e Entry) error {
	size, err := b.a.StreamSize(e.Stream)
	if err != nil {
		return fmt.Errorf("entry %d %q: %w", len(b.entries), e.Name, err)
	}
	if size < 0 || !sizing.InRange(e.Offset, e.StoredSize(), uint64(size)) {
		return fmt.Errorf("entry %d %q: range [%d, +%d) exceeds stream %d of %d bytes: %w",
			len(b.entries), e.Name, e.Offset, e.StoredSize(), e.Stream, size, paktype.ErrFileSize)
	}
	if b.a.MaxEntries > 0 && uint64(len(b.entries)) >= b.a.MaxEntries {
		return fmt.Errorf("entry %d: limit %d: %w", len(b.entries), b.a.MaxEntries, paktype.ErrMemory)
	}
	b.entries = append(b.entries, e)
	return nil
}

// Len returns the number of entries added so far.
func (b *Builder) Len() int {
	return len(b.entries)
}

// Entries returns the entries added so far for in-place post-processing.
func (b *Builder) Entries() []Entry {
	return b.entries
}

// Directory returns the finished directory.
func (b *Builder) Directory(loader MemberLoader) *Directory {
	return &Directory{Entries: b.entries, Loader: loader}
}
