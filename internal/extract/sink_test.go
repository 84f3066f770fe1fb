package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSinkWritesNestedFiles(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "out")
	s, err := NewSink(dest)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	written, err := s.Write("maps/e1m1.bsp", []byte("bsp"))
	require.NoError(t, err)
	assert.True(t, written)

	got, err := os.ReadFile(filepath.Join(dest, "maps", "e1m1.bsp"))
	require.NoError(t, err)
	assert.Equal(t, "bsp", string(got))
}

func TestSinkOverwritesSilently(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	s, err := NewSink(dest)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Write("a.txt", []byte("first"))
	require.NoError(t, err)
	written, err := s.Write("a.txt", []byte("second"))
	require.NoError(t, err)
	assert.True(t, written)

	got, err := os.ReadFile(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestSinkSkipExisting(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "a.txt"), []byte("keep"), 0o600))

	s, err := NewSink(dest, WithSkipExisting(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	written, err := s.Write("a.txt", []byte("new"))
	require.NoError(t, err)
	assert.False(t, written)

	got, err := os.ReadFile(filepath.Join(dest, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "keep", string(got))
}

func TestSinkRejectsUnsafeNames(t *testing.T) {
	t.Parallel()

	s, err := NewSink(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	for _, name := range []string{"", "../evil", "a/../../evil", "/etc/passwd", "."} {
		_, err := s.Write(name, []byte("x"))
		require.ErrorIs(t, err, ErrUnsafePath, name)
	}
}

func TestCleanName(t *testing.T) {
	t.Parallel()

	got, err := CleanName("maps//./e1m1.bsp")
	require.NoError(t, err)
	assert.Equal(t, "maps/e1m1.bsp", got)
}
