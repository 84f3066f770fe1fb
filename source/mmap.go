package source

import (
	"os"

	"golang.org/x/exp/mmap"
)

// Mapped is a Source backed by a read-only memory map.
type Mapped struct {
	r        *mmap.ReaderAt
	sourceID string
}

// OpenMmap memory-maps path.
func OpenMmap(path string) (*Mapped, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, notFound(path, err)
	}
	r, err := mmap.Open(path)
	if err != nil {
		return nil, notFound(path, err)
	}
	return &Mapped{r: r, sourceID: fileSourceID(path, info)}, nil
}

// ReadAt implements io.ReaderAt.
func (m *Mapped) ReadAt(p []byte, off int64) (int, error) {
	return m.r.ReadAt(p, off)
}

// Size returns the mapped length.
func (m *Mapped) Size() int64 {
	return int64(m.r.Len())
}

// SourceID returns an identifier derived from the path, size and modification time.
func (m *Mapped) SourceID() string {
	return m.sourceID
}

// Close unmaps the file.
func (m *Mapped) Close() error {
	return m.r.Close()
}
