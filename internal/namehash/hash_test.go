package namehash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashBGolden(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want uint32
	}{
		{"", 0},
		{"a", 97},
		{"ab", 97*131 + 98},
		{"abc", (97*131+98)*131 + 99},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HashB(tt.name), "HashB(%q)", tt.name)
	}
}

func TestHashBIncremental(t *testing.T) {
	t.Parallel()

	names := []string{"cutscenes.txt", "paris1.map", "a", ""}
	for _, name := range names {
		var h uint32
		for i := 0; i < len(name); i++ {
			h = UpdateB(h, name[i:i+1])
		}
		assert.Equal(t, HashB(name), h, name)

		for split := 0; split <= len(name); split++ {
			assert.Equal(t, HashB(name), UpdateB(HashB(name[:split]), name[split:]))
		}
	}
}

func TestHashAGolden(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(0), HashA(""))
	assert.Equal(t, uint32(0x04C11DB7), crcTable[1])
	// CRC-32/POSIX without the final inversion.
	assert.Equal(t, uint32(0x89A1897F), HashA("123456789"))
	assert.Equal(t, HashA("123456789"), UpdateA(HashA("1234"), "56789"))
}
