package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".", Base(""))
	assert.Equal(t, "e1m1.bsp", Base("maps/e1m1.bsp"))
	assert.Equal(t, "maps", Base("maps/"))
	assert.Equal(t, "palette.lmp", Base("palette.lmp"))
}

func TestChild(t *testing.T) {
	t.Parallel()

	name, sub := Child("maps/e1/start.bsp", "maps/")
	assert.Equal(t, "e1", name)
	assert.True(t, sub)

	name, sub = Child("maps/start.bsp", "maps/")
	assert.Equal(t, "start.bsp", name)
	assert.False(t, sub)

	name, _ = Child("sound/door.wav", "maps/")
	assert.Empty(t, name)
}

func TestParents(t *testing.T) {
	t.Parallel()

	var got []string
	Parents("a/b/c.txt", func(dir string) { got = append(got, dir) })
	assert.Equal(t, []string{"a", "a/b"}, got)

	got = nil
	Parents("top.txt", func(dir string) { got = append(got, dir) })
	assert.Empty(t, got)
}
