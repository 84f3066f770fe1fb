package pak

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/pak/internal/testutil"
)

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestExtract(t *testing.T) {
	t.Parallel()

	p := openBytes(t, "pak0.pak", testPAK())
	dest := filepath.Join(t.TempDir(), "out")

	stats, err := p.Extract(dest)
	require.NoError(t, err)
	assert.Equal(t, ExtractStats{Files: 3, Bytes: 8 + 10 + 15}, stats)

	want := map[string]string{
		"maps/e1m1.bsp":    "bsp data",
		"progs/player.mdl": "IDPO model",
		"default.cfg":      "bind w +forward",
	}
	assert.Equal(t, want, readTree(t, dest))

	// Extracting again yields the same tree.
	stats, err = p.Extract(dest)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Files)
	assert.Equal(t, want, readTree(t, dest))
}

func TestExtractOverwritesAndSkips(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "default.cfg"), []byte("old"), 0o600))

	p := openBytes(t, "pak0.pak", testPAK())

	stats, err := p.Extract(dest, ExtractWithSkipExisting(true))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, "old", readTree(t, dest)["default.cfg"])

	_, err = p.Extract(dest)
	require.NoError(t, err)
	assert.Equal(t, "bind w +forward", readTree(t, dest)["default.cfg"])
}

func TestExtractDuplicateNamesLastWins(t *testing.T) {
	t.Parallel()

	data := testutil.WAD("PWAD", testutil.M("THINGS", "first"), testutil.M("THINGS", "second"))
	p := openBytes(t, "map.wad", data)

	dest := t.TempDir()
	stats, err := p.Extract(dest)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, map[string]string{"things": "second"}, readTree(t, dest))
}

func TestExtractRejectsTraversal(t *testing.T) {
	t.Parallel()

	data := testutil.PAK(
		testutil.M("ok.txt", "fine"),
		testutil.M("../../escape.txt", "bad"),
		testutil.M("after.txt", "later"),
	)
	p := openBytes(t, "evil.pak", data)
	parent := t.TempDir()
	dest := filepath.Join(parent, "a", "b")

	_, err := p.Extract(dest)
	require.ErrorIs(t, err, ErrUnsafePath)
	assert.NoFileExists(t, filepath.Join(parent, "escape.txt"))

	stats, err := p.Extract(dest, ExtractWithContinueOnError(true))
	require.ErrorIs(t, err, ErrUnsafePath)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, map[string]string{"ok.txt": "fine", "after.txt": "later"}, readTree(t, dest))
}

func TestExtractFilter(t *testing.T) {
	t.Parallel()

	p := openBytes(t, "pak0.pak", testPAK())
	dest := t.TempDir()

	stats, err := p.Extract(dest, ExtractWithFilter(func(e Entry) bool {
		return filepath.Ext(e.Name) == ".cfg"
	}))
	require.NoError(t, err)
	assert.Equal(t, ExtractStats{Files: 1, Bytes: 15, Skipped: 2}, stats)
	assert.Equal(t, map[string]string{"default.cfg": "bind w +forward"}, readTree(t, dest))
}
