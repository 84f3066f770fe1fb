package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/pak/internal/paktype"
)

func TestOpenLocalFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "DOOM.WAD")
	require.NoError(t, os.WriteFile(path, []byte("IWAD0123"), 0o600))

	for _, mmap := range []bool{false, true} {
		src, err := Open(path, WithMmap(mmap))
		require.NoError(t, err)
		assert.Equal(t, int64(8), src.Size())
		assert.Contains(t, src.SourceID(), path)

		buf := make([]byte, 4)
		_, err = src.ReadAt(buf, 0)
		require.NoError(t, err)
		assert.Equal(t, "IWAD", string(buf))
		require.NoError(t, Close(src))
	}
}

func TestOpenMissingFileIsNotFound(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "nope.ibf")
	_, err := NewFileOpener().Open(missing)
	require.ErrorIs(t, err, paktype.ErrNotFound)

	_, err = OpenMmap(missing)
	require.ErrorIs(t, err, paktype.ErrNotFound)
}

func TestMemoryOpener(t *testing.T) {
	t.Parallel()

	o := MemoryOpener{"a.bin": []byte("xyz")}
	src, err := o.Open("a.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(3), src.Size())

	_, err = o.Open("b.bin")
	require.ErrorIs(t, err, paktype.ErrNotFound)
}
