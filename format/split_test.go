package format

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/pak/internal/namehash"
	"github.com/meigma/pak/internal/paktype"
	"github.com/meigma/pak/internal/testutil"
	"github.com/meigma/pak/source"
)

func testDAT(t *testing.T) (index, data []byte) {
	t.Helper()
	return testutil.DAT(testutil.M("WALL01.ART", "wall pixels"), testutil.M("FLOOR.ART", "floor"))
}

func TestLST(t *testing.T) {
	t.Parallel()

	index, data := testutil.LST(testutil.M(`GFX\TITLE.PCX`, "pcx!"), testutil.M("MUSIC.XMI", "xmi"))
	files := source.MemoryOpener{"data/GAME.IBF": data}

	dir, err := parse(t, LST{}, "data/GAME.LST", index, files)
	require.NoError(t, err)
	assert.Equal(t, []string{"gfx/title.pcx", "music.xmi"}, names(dir))
	require.Len(t, dir.Siblings, 1)
	for _, e := range dir.Entries {
		assert.Equal(t, 1, e.Stream)
	}
	assert.Equal(t, uint64(4), dir.Entries[1].Offset)
}

func TestLSTFallsBackToLowerCaseSibling(t *testing.T) {
	t.Parallel()

	index, data := testutil.LST(testutil.M("A", "a"))
	_, err := parse(t, LST{}, "GAME.LST", index, source.MemoryOpener{"GAME.ibf": data})
	require.NoError(t, err)
}

func TestSplitMissingSibling(t *testing.T) {
	t.Parallel()

	index, _ := testutil.LST(testutil.M("A", "a"))
	_, err := parse(t, LST{}, "game.lst", index, source.MemoryOpener{})
	require.ErrorIs(t, err, paktype.ErrNotFound)

	_, err = parse(t, LST{}, "game.lst", index, nil)
	require.ErrorIs(t, err, paktype.ErrNotFound)
}

func TestDAT(t *testing.T) {
	t.Parallel()

	index, data := testDAT(t)
	dir, err := parse(t, DAT{}, "maps/e1.dat", index, source.MemoryOpener{"maps/e1.art": data})
	require.NoError(t, err)
	assert.Equal(t, []string{"wall01.art", "floor.art"}, names(dir))
	assert.Equal(t, uint64(0), dir.Entries[0].Offset)
	assert.Equal(t, uint64(datBlockSize), dir.Entries[1].Offset)
}

func TestTAB(t *testing.T) {
	t.Parallel()

	index, data := testutil.TAB(testutil.M("palette.pal", "PAL"), testutil.M("not/in/corpus", "DDS surface"))
	dir, err := parse(t, TAB{}, "game.tab", index, source.MemoryOpener{"game.bin": data})
	require.NoError(t, err)
	require.Len(t, dir.Entries, 2)
	assert.Equal(t, "palette.pal", dir.Entries[0].Name)
	assert.Equal(t, fmt.Sprintf("%08x.dds", namehash.HashA("not/in/corpus")), dir.Entries[1].Name)
}

func TestTABExactSize(t *testing.T) {
	t.Parallel()

	index, data := testutil.TAB(testutil.M("palette.pal", "PAL"))
	files := source.MemoryOpener{"game.bin": data}

	_, err := parse(t, TAB{}, "game.tab", append(index, 0), files)
	require.ErrorIs(t, err, paktype.ErrFileType)

	_, err = parse(t, TAB{}, "game.tab", index[:len(index)-1], files)
	require.ErrorIs(t, err, paktype.ErrFileSize)
}

func TestDFS(t *testing.T) {
	t.Parallel()

	index, parts := testutil.DFS(512,
		2,
		testutil.M("intro.smk", "video"),
		testutil.M("level1.map", "map"),
		testutil.M("level2.map", "map2"),
	)
	files := source.MemoryOpener{"game.000": parts[0], "game.001": parts[1]}

	dir, err := parse(t, DFS{}, "game.dfs", index, files)
	require.NoError(t, err)
	assert.Equal(t, []string{"intro.smk", "level1.map", "level2.map"}, names(dir))
	require.Len(t, dir.Siblings, 2)
	assert.Equal(t, []int{1, 2, 1}, []int{dir.Entries[0].Stream, dir.Entries[1].Stream, dir.Entries[2].Stream})
	assert.Equal(t, uint64(512), dir.Entries[2].Offset)
}

func TestDFSErrors(t *testing.T) {
	t.Parallel()

	index, parts := testutil.DFS(512, 2, testutil.M("a", "a"), testutil.M("b", "b"))

	_, err := parse(t, DFS{}, "game.dfs", index, source.MemoryOpener{"game.000": parts[0]})
	require.ErrorIs(t, err, paktype.ErrNotFound)

	_, err = parse(t, DFS{}, "game.dfs", patch32(index, 8, 500), nil)
	require.ErrorIs(t, err, paktype.ErrFileType)
}

func TestPartName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "data/game.000", PartName("data/game.dfs", 0))
	assert.Equal(t, "game.012", PartName("game", 12))
	assert.Equal(t, []string{"x.000"}, DFS{}.SiblingNames("x.dfs"))
}
