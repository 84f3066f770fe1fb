package format

import (
	"errors"
	"fmt"
	"io"

	"github.com/nwaples/rardecode/v2"

	"github.com/meigma/pak/internal/paktype"
	"github.com/meigma/pak/source"
)

// RAR reads single-volume RAR 4 and RAR 5 packages.
//
// RAR headers are interleaved with member data, so the directory is built by
// walking every header once. Members are decoded sequentially; reading them
// in container order avoids restarting the decoder.
type RAR struct{}

// Format implements Parser.
func (RAR) Format() string { return "rar" }

// Parse implements Parser.
func (r RAR) Parse(a *Archive) (*Directory, error) {
	if _, err := expectMagic(a.Cursor(), r.Format(), []byte("Rar!\x1a\x07")); err != nil {
		return nil, err
	}
	rr, err := rardecode.NewReader(io.NewSectionReader(a.Source, 0, a.Size()))
	if err != nil {
		return nil, fmt.Errorf("rar: %w: %w", paktype.ErrFileType, err)
	}

	var (
		entries  []Entry
		ordinals []int
	)
	for ord := 0; ; ord++ {
		h, err := rr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("rar: header %d: %w: %w", ord, paktype.ErrFileRead, err)
		}
		if h.IsDir {
			continue
		}
		if h.UnKnownSize || h.UnPackedSize < 0 || h.PackedSize < 0 {
			return nil, fmt.Errorf("rar: %s: unknown size: %w", h.Name, paktype.ErrUnsupported)
		}
		if a.MaxEntries > 0 && uint64(len(entries)) >= a.MaxEntries {
			return nil, fmt.Errorf("rar: more than %d entries: %w", a.MaxEntries, paktype.ErrMemory)
		}
		entries = append(entries, Entry{
			Name:           NormalizePath(h.Name),
			Size:           uint64(h.UnPackedSize),
			CompressedSize: uint64(h.PackedSize),
			Compression:    CompressionRar,
		})
		ordinals = append(ordinals, ord)
	}

	b, err := a.NewBuilder(uint64(len(entries)))
	if err != nil {
		return nil, fmt.Errorf("rar: %w", err)
	}
	for _, e := range entries {
		if err := b.Add(e); err != nil {
			return nil, fmt.Errorf("rar: %w", err)
		}
	}
	return b.Directory(&rarLoader{src: a.Source, ordinals: ordinals, pos: -1}), nil
}

type rarLoader struct {
	src      source.Source
	ordinals []int

	// r is positioned just after header pos.
	r   *rardecode.Reader
	pos int
}

// LoadMember implements MemberLoader.
func (l *rarLoader) LoadMember(index int, e *Entry) ([]byte, error) {
	if index < 0 || index >= len(l.ordinals) {
		return nil, fmt.Errorf("rar: member %d: %w", index, paktype.ErrNotFound)
	}
	want := l.ordinals[index]
	if l.r == nil || want <= l.pos {
		r, err := rardecode.NewReader(io.NewSectionReader(l.src, 0, l.src.Size()))
		if err != nil {
			return nil, fmt.Errorf("rar: reopen: %w: %w", paktype.ErrFileRead, err)
		}
		l.r, l.pos = r, -1
	}
	for l.pos < want {
		if _, err := l.r.Next(); err != nil {
			l.r = nil
			return nil, fmt.Errorf("rar: seek to %s: %w: %w", e.Name, paktype.ErrFileRead, err)
		}
		l.pos++
	}
	data, err := readExactly("rar", e, l.r)
	if err != nil {
		l.r = nil
	}
	return data, err
}
