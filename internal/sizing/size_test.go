package sizing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errOverflow = errors.New("overflow")

func TestToInt64(t *testing.T) {
	t.Parallel()

	v, err := ToInt64(42, errOverflow)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	_, err = ToInt64(math.MaxUint64, errOverflow)
	require.ErrorIs(t, err, errOverflow)
}

func TestAddMulUint64(t *testing.T) {
	t.Parallel()

	sum, ok := AddUint64(1, 2)
	assert.True(t, ok)
	assert.Equal(t, uint64(3), sum)

	_, ok = AddUint64(math.MaxUint64, 1)
	assert.False(t, ok)

	prod, ok := MulUint64(1<<20, 16)
	assert.True(t, ok)
	assert.Equal(t, uint64(16<<20), prod)

	_, ok = MulUint64(math.MaxUint32+1, math.MaxUint32+1)
	assert.False(t, ok)
}

func TestInRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		off, n, limit uint64
		want          bool
	}{
		{0, 0, 0, true},
		{0, 10, 10, true},
		{1, 10, 10, false},
		{10, 0, 10, true},
		{math.MaxUint64, 2, math.MaxUint64, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InRange(tt.off, tt.n, tt.limit), "InRange(%d, %d, %d)", tt.off, tt.n, tt.limit)
	}
}

func TestAlignUp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n, align, want uint64
	}{
		{0, 2048, 0},
		{1, 2048, 2048},
		{2048, 2048, 2048},
		{2049, 2048, 4096},
		{7, 0, 7},
	}
	for _, tt := range tests {
		got, ok := AlignUp(tt.n, tt.align)
		require.True(t, ok)
		assert.Equal(t, tt.want, got)
	}

	_, ok := AlignUp(math.MaxUint64, 2048)
	assert.False(t, ok)
}
