package pak

import (
	"bytes"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/pak/cache"
	"github.com/meigma/pak/cache/memory"
	"github.com/meigma/pak/internal/testutil"
	"github.com/meigma/pak/source"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func openBytes(t *testing.T, name string, data []byte, opts ...Option) *Package {
	t.Helper()
	p, err := OpenSource(name, source.NewBytes(name, data), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func testPAK() []byte {
	return testutil.PAK(
		testutil.M("maps/e1m1.bsp", "bsp data"),
		testutil.M("progs/player.mdl", "IDPO model"),
		testutil.M("default.cfg", "bind w +forward"),
	)
}

func TestOpenLocalFile(t *testing.T) {
	t.Parallel()

	for _, mmap := range []bool{false, true} {
		path := writeFile(t, t.TempDir(), "pak0.pak", testPAK())
		p, err := Open(path, WithMmap(mmap))
		require.NoError(t, err)

		assert.Equal(t, path, p.Path())
		assert.Equal(t, "pak", p.Format())
		assert.Equal(t, 3, p.Len())

		data, err := p.GetByName("default.cfg")
		require.NoError(t, err)
		assert.Equal(t, "bind w +forward", string(data))

		require.NoError(t, p.Close())
	}
}

func TestOpenFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "missing.pak"))
	require.ErrorIs(t, err, ErrNotFound)

	junk := writeFile(t, dir, "junk.pak", []byte("this is not a pack file at all"))
	_, err = Open(junk)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, ErrFileType)

	unknown := writeFile(t, dir, "notes.txt", testPAK())
	_, err = Open(unknown)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOpenProbesExtensionlessPath(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "DATA", testutil.WAD("IWAD", testutil.M("E1M1", "map")))
	p, err := Open(path)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, "wad", p.Format())
	i, ok := p.Lookup("E1M1")
	require.True(t, ok)
	assert.Equal(t, 0, i)
}

func TestOpenSplitFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	index, data := testutil.LST(testutil.M(`SOUND\BOOM.VOC`, "voc"), testutil.M("TITLE.PCX", "pcx"))
	path := writeFile(t, dir, "game.lst", index)
	writeFile(t, dir, "game.ibf", data)

	p, err := Open(path)
	require.NoError(t, err)

	got, err := p.GetByName("sound/boom.voc")
	require.NoError(t, err)
	assert.Equal(t, "voc", string(got))
	require.NoError(t, p.Close())

	require.NoError(t, os.Remove(filepath.Join(dir, "game.ibf")))
	_, err = Open(path)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOpenSourceWithOpener(t *testing.T) {
	t.Parallel()

	index, data := testutil.DAT(testutil.M("WALL.ART", "wall"))
	p := openBytes(t, "level.dat", index, WithOpener(source.MemoryOpener{"level.art": data}))

	got, err := p.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "wall", string(got))
}

func TestOpenHTTP(t *testing.T) {
	t.Parallel()

	data := testutil.WAD("PWAD", testutil.M("MAP01", "things"), testutil.M("MAP02", "lines"))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "maps.wad", time.Unix(0, 0), bytes.NewReader(data))
	}))
	defer srv.Close()

	p, err := Open(srv.URL + "/maps.wad")
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, "wad", p.Format())
	got, err := p.GetByName("map02")
	require.NoError(t, err)
	assert.Equal(t, "lines", string(got))
}

func TestListAndEntries(t *testing.T) {
	t.Parallel()

	p := openBytes(t, "pak0.pak", testPAK())

	list, err := p.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "maps/e1m1.bsp", list[0].Name)

	// List returns a copy.
	list[0].Name = "changed"
	e, err := p.Entry(0)
	require.NoError(t, err)
	assert.Equal(t, "maps/e1m1.bsp", e.Name)

	var seen []string
	for _, e := range p.Entries() {
		seen = append(seen, e.Name)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"maps/e1m1.bsp", "progs/player.mdl"}, seen)

	_, err = p.Entry(3)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = p.Entry(-1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLookup(t *testing.T) {
	t.Parallel()

	data := testutil.ZIP(t, true,
		testutil.M("Data/Readme.TXT", "first"),
		testutil.M("data/readme.txt", "second"),
		testutil.M("data/readme.txt", "third"),
	)
	p := openBytes(t, "bundle.zip", data)

	i, ok := p.Lookup("data/readme.txt")
	require.True(t, ok)
	assert.Equal(t, 1, i, "exact match wins and the first duplicate is returned")

	i, ok = p.Lookup(`DATA\README.TXT`)
	require.True(t, ok)
	assert.Equal(t, 0, i, "case-insensitive fallback returns the first match")

	_, ok = p.Lookup("missing")
	assert.False(t, ok)

	_, err := p.GetByName("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOpenSolidFormats(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"members.rar", "members5.rar", "members.7z"} {
		p, err := Open(filepath.Join("format", "testdata", name))
		require.NoError(t, err, name)

		assert.Equal(t, 3, p.Len(), name)
		for i, e := range p.Entries() {
			data, err := p.Get(i)
			require.NoError(t, err, "%s: %s", name, e.Name)
			assert.Len(t, data, int(e.Size), "%s: %s", name, e.Name)
		}
		got, err := p.GetByName("README.TXT")
		require.NoError(t, err, name)
		assert.Equal(t, "hello from the archive\n", string(got))

		require.NoError(t, p.Close())
	}
}

func TestGetReturnsOwnedBuffer(t *testing.T) {
	t.Parallel()

	for _, eager := range []bool{false, true} {
		p := openBytes(t, "pak0.pak", testPAK(), WithEager(eager), WithCache(testutil.NewMockCache()))

		first, err := p.Get(0)
		require.NoError(t, err)
		copy(first, "XXXX")

		second, err := p.Get(0)
		require.NoError(t, err)
		assert.Equal(t, "bsp data", string(second), "eager=%v", eager)
	}
}

func TestGetOutOfRange(t *testing.T) {
	t.Parallel()

	p := openBytes(t, "pak0.pak", testPAK())
	_, err := p.Get(3)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = p.Get(-1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemberFailureLeavesPackageUsable(t *testing.T) {
	t.Parallel()

	p := openBytes(t, "pak0.pak", testPAK(), WithMaxMemberSize(10))

	_, err := p.Get(2)
	require.ErrorIs(t, err, ErrMemory)

	got, err := p.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "bsp data", string(got))
}

func TestEagerMemberFailureLeavesPackageUsable(t *testing.T) {
	t.Parallel()

	data := testutil.WAD2(testutil.M("PALETTE", "hello"), testutil.M("CONCHARS", "packed"))
	dirOff := int(binary.LittleEndian.Uint32(data[8:]))
	data[dirOff+32+13] = 1 // second lump uses the unsupported compression

	for _, eager := range []bool{false, true} {
		p := openBytes(t, "gfx.wad", data, WithEager(eager))
		assert.Equal(t, 2, p.Len())

		got, err := p.Get(0)
		require.NoError(t, err, "eager=%v", eager)
		assert.Equal(t, "hello", string(got))

		_, err = p.Get(1)
		require.ErrorIs(t, err, ErrUnsupported, "eager=%v", eager)

		got, err = p.GetByName("palette")
		require.NoError(t, err)
		assert.Equal(t, "hello", string(got))
	}
}

func TestEagerOpenFailsOverMemberLimit(t *testing.T) {
	t.Parallel()

	_, err := OpenSource("pak0.pak", source.NewBytes("pak0.pak", testPAK()),
		WithEager(true), WithMaxMemberSize(10))
	require.ErrorIs(t, err, ErrMemory)
}

func TestCache(t *testing.T) {
	t.Parallel()

	mc := testutil.NewMockCache()
	p := openBytes(t, "pak0.pak", testPAK(), WithCache(mc))

	got, err := p.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "IDPO model", string(got))
	assert.Equal(t, 1, mc.Len(), mc.String())

	// A second package over the same bytes shares the cache entry.
	key := cache.Key(p.src.SourceID(), 1, 10)
	require.NoError(t, mc.Put(key, []byte("CACHED!!!!")))
	q := openBytes(t, "pak0.pak", testPAK(), WithCache(mc))
	got, err = q.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "CACHED!!!!", string(got))

	// Entries of the wrong length are dropped and refilled.
	require.NoError(t, mc.Put(key, []byte("short")))
	got, err = q.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "IDPO model", string(got))
	cached, ok := mc.Get(key)
	require.True(t, ok)
	assert.Equal(t, "IDPO model", string(cached))
}

func TestCacheKeyCoversSiblingStream(t *testing.T) {
	t.Parallel()

	mc := testutil.NewMockCache()
	index, first := testutil.LST(testutil.M("TITLE.PCX", "old!"))
	_, second := testutil.LST(testutil.M("TITLE.PCX", "new!"))

	a := openBytes(t, "game.lst", index, WithCache(mc), WithOpener(source.MemoryOpener{"game.ibf": first}))
	got, err := a.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "old!", string(got))

	// Same index file, replaced data file of the same size.
	b := openBytes(t, "game.lst", index, WithCache(mc), WithOpener(source.MemoryOpener{"game.ibf": second}))
	got, err = b.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "new!", string(got))
	assert.Equal(t, 2, mc.Len())
}

func TestMemoryCacheSharedAcrossPackages(t *testing.T) {
	t.Parallel()

	mc, err := memory.New()
	require.NoError(t, err)

	data := testutil.VPP(t, 2, true, testutil.M("level.rfl", "compressed level data"))
	a := openBytes(t, "levels.vpp", data, WithCache(mc))
	b := openBytes(t, "levels.vpp", data, WithCache(mc))

	got, err := a.Get(0)
	require.NoError(t, err)
	assert.Equal(t, 1, mc.Len())

	again, err := b.Get(0)
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Equal(t, "compressed level data", string(again))
}

func TestClose(t *testing.T) {
	t.Parallel()

	p, err := OpenSource("pak0.pak", source.NewBytes("pak0.pak", testPAK()), WithEager(true))
	require.NoError(t, err)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close(), "close is idempotent")

	assert.Equal(t, 0, p.Len())
	assert.Empty(t, p.Format())

	_, err = p.List()
	require.ErrorIs(t, err, ErrClosed)
	_, err = p.Get(0)
	require.ErrorIs(t, err, ErrClosed)
	_, err = p.GetByName("default.cfg")
	require.ErrorIs(t, err, ErrClosed)
	_, err = p.Entry(0)
	require.ErrorIs(t, err, ErrClosed)
	_, err = p.Extract(t.TempDir())
	require.ErrorIs(t, err, ErrClosed)

	_, ok := p.Lookup("default.cfg")
	assert.False(t, ok)
	for range p.Entries() {
		t.Fatal("closed package yielded an entry")
	}
}

func TestCloseReleasesLocalFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	index, data := testutil.TAB(testutil.M("palette.pal", "rgb"))
	path := writeFile(t, dir, "game.tab", index)
	writeFile(t, dir, "game.bin", data)

	p, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	// The files can be removed once every handle is closed.
	require.NoError(t, os.RemoveAll(dir))
}
