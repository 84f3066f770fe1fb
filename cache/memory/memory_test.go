package memory

import (
	"fmt"
	"sync"
	"testing"

	digest "github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/pak/cache"
)

var (
	_ cache.Cache  = (*Cache)(nil)
	_ cache.Pruner = (*Cache)(nil)
)

func TestPutGetCopies(t *testing.T) {
	t.Parallel()

	c, err := New()
	require.NoError(t, err)

	content := []byte("palette")
	key := cache.Key("mem:a", 0, uint64(len(content)))
	require.NoError(t, c.Put(key, content))

	content[0] = 'X'
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "palette", string(got))

	size, err := c.SizeBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(7), size)
}

func TestEntryLimits(t *testing.T) {
	t.Parallel()

	c, err := New(WithMaxEntries(2), WithMaxEntrySize(4))
	require.NoError(t, err)

	require.NoError(t, c.Put(digest.FromString("big"), []byte("too large")))
	_, ok := c.Get(digest.FromString("big"))
	assert.False(t, ok)

	for i := range 3 {
		require.NoError(t, c.Put(digest.FromString(fmt.Sprint(i)), []byte("abc")))
	}
	assert.Equal(t, 2, c.Len())
	size, err := c.SizeBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(6), size)

	_, err = New(WithMaxEntries(0))
	require.Error(t, err)
}

func TestDeletePrunePurge(t *testing.T) {
	t.Parallel()

	c, err := New()
	require.NoError(t, err)
	for i := range 4 {
		require.NoError(t, c.Put(digest.FromString(fmt.Sprint(i)), make([]byte, 10)))
	}

	require.NoError(t, c.Delete(digest.FromString("0")))
	assert.Equal(t, 3, c.Len())

	freed, err := c.Prune(10)
	require.NoError(t, err)
	assert.Equal(t, int64(20), freed)
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
	size, err := c.SizeBytes()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestPutRejectsInvalidKey(t *testing.T) {
	t.Parallel()

	c, err := New()
	require.NoError(t, err)
	require.Error(t, c.Put(digest.Digest("bogus"), []byte("x")))
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()

	c, err := New(WithMaxEntries(16))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				key := digest.FromString(fmt.Sprint(g, i%20))
				_ = c.Put(key, []byte("data"))
				c.Get(key)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 16)
}

func TestKeyIsStable(t *testing.T) {
	t.Parallel()

	a := cache.Key("file:/x.pak", 3, 100)
	assert.Equal(t, a, cache.Key("file:/x.pak", 3, 100))
	assert.NotEqual(t, a, cache.Key("file:/x.pak", 3, 101))
	assert.NotEqual(t, a, cache.Key("file:/x.pak", 4, 100))
	require.NoError(t, a.Validate())
}
