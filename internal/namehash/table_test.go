package namehash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableLookupFirstMatchWins(t *testing.T) {
	t.Parallel()

	constant := func(string) uint32 { return 7 }
	tbl := NewTable(constant, []string{"first", "second"})
	name, ok := tbl.Lookup(7)
	require.True(t, ok)
	assert.Equal(t, "first", name)

	_, ok = tbl.Lookup(8)
	assert.False(t, ok)
}

func TestNilTable(t *testing.T) {
	t.Parallel()

	var tbl *Table
	_, ok := tbl.Lookup(1)
	assert.False(t, ok)
	assert.Equal(t, 0, tbl.Len())
}

func TestSelectCLU(t *testing.T) {
	t.Parallel()

	common := Select(FamilyCLU, "data/unknown.clu")
	name, ok := common.Lookup(HashB("cutscenes.txt"))
	require.True(t, ok)
	assert.Equal(t, "cutscenes.txt", name)

	_, ok = common.Lookup(HashB("paris1.map"))
	assert.False(t, ok, "level corpus must only apply to its own archive")

	level := Select(FamilyCLU, `C:\GAME\DATA\PARIS1.CLU`)
	assert.Greater(t, level.Len(), common.Len())
	name, ok = level.Lookup(HashB("paris1.map"))
	require.True(t, ok)
	assert.Equal(t, "paris1.map", name)
}

func TestSelectTAB(t *testing.T) {
	t.Parallel()

	tbl := Select(FamilyTAB, "GAME.TAB")
	name, ok := tbl.Lookup(HashA("palette.pal"))
	require.True(t, ok)
	assert.Equal(t, "palette.pal", name)

	assert.Nil(t, Select(Family("nope"), "x"))
}
