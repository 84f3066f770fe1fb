// Package testutil builds in-memory packages and caches for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zlib"
	digest "github.com/opencontainers/go-digest"

	"github.com/meigma/pak/internal/namehash"
)

var le = binary.LittleEndian

// Member is one file to place in a test package.
type Member struct {
	Name string
	Data []byte
}

// M is shorthand for a Member with string content.
func M(name, data string) Member {
	return Member{Name: name, Data: []byte(data)}
}

func fixed(s string, n int) []byte {
	b := make([]byte, n)
	copy(b, s)
	return b
}

func pad(b []byte, align int) []byte {
	for len(b)%align != 0 {
		b = append(b, 0)
	}
	return b
}

// WAD builds an IWAD or PWAD with member data first and the lump table last.
func WAD(magic string, members ...Member) []byte {
	buf := make([]byte, 12)
	copy(buf, magic)
	offs := make([]int, len(members))
	for i, m := range members {
		offs[i] = len(buf)
		buf = append(buf, m.Data...)
	}
	le.PutUint32(buf[4:], uint32(len(members)))
	le.PutUint32(buf[8:], uint32(len(buf)))
	for i, m := range members {
		buf = le.AppendUint32(buf, uint32(offs[i]))
		buf = le.AppendUint32(buf, uint32(len(m.Data)))
		buf = append(buf, fixed(m.Name, 8)...)
	}
	return buf
}

// WAD2 builds a WAD2 with uncompressed lumps of the given type byte.
func WAD2(members ...Member) []byte {
	buf := make([]byte, 12)
	copy(buf, "WAD2")
	offs := make([]int, len(members))
	for i, m := range members {
		offs[i] = len(buf)
		buf = append(buf, m.Data...)
	}
	le.PutUint32(buf[4:], uint32(len(members)))
	le.PutUint32(buf[8:], uint32(len(buf)))
	for i, m := range members {
		buf = le.AppendUint32(buf, uint32(offs[i]))
		buf = le.AppendUint32(buf, uint32(len(m.Data)))
		buf = le.AppendUint32(buf, uint32(len(m.Data)))
		buf = append(buf, 0x44, 0, 0, 0)
		buf = append(buf, fixed(m.Name, 16)...)
	}
	return buf
}

// PAK builds a Quake PACK file.
func PAK(members ...Member) []byte {
	buf := make([]byte, 12)
	copy(buf, "PACK")
	offs := make([]int, len(members))
	for i, m := range members {
		offs[i] = len(buf)
		buf = append(buf, m.Data...)
	}
	le.PutUint32(buf[4:], uint32(len(buf)))
	le.PutUint32(buf[8:], uint32(len(members)*64))
	for i, m := range members {
		buf = append(buf, fixed(m.Name, 56)...)
		buf = le.AppendUint32(buf, uint32(offs[i]))
		buf = le.AppendUint32(buf, uint32(len(m.Data)))
	}
	return buf
}

// GRP builds a Build engine group file.
func GRP(members ...Member) []byte {
	buf := append([]byte("KenSilverman"), 0, 0, 0, 0)
	le.PutUint32(buf[12:], uint32(len(members)))
	for _, m := range members {
		buf = append(buf, fixed(m.Name, 12)...)
		buf = le.AppendUint32(buf, uint32(len(m.Data)))
	}
	for _, m := range members {
		buf = append(buf, m.Data...)
	}
	return buf
}

// HOG builds a Descent HOG file.
func HOG(members ...Member) []byte {
	buf := []byte("DHF")
	for _, m := range members {
		buf = append(buf, fixed(m.Name, 13)...)
		buf = le.AppendUint32(buf, uint32(len(m.Data)))
		buf = append(buf, m.Data...)
	}
	return buf
}

// MAD builds a headerless MAD file; the first member starts right after the table.
func MAD(members ...Member) []byte {
	var table, data []byte
	base := 24 * len(members)
	for _, m := range members {
		table = append(table, fixed(m.Name, 16)...)
		table = le.AppendUint32(table, uint32(base+len(data)))
		table = le.AppendUint32(table, uint32(len(m.Data)))
		data = append(data, m.Data...)
	}
	return append(table, data...)
}

// CLU builds a version 2 CLU file storing HashB name hashes.
func CLU(members ...Member) []byte {
	const headerLen = 84
	buf := make([]byte, headerLen)
	copy(buf, "CLU\x00")
	le.PutUint32(buf[4:], 2)
	le.PutUint32(buf[8:], headerLen)
	le.PutUint32(buf[12:], uint32(len(members)))
	copy(buf[24:], "test cluster")
	dataOff := headerLen + 16*len(members)
	for _, m := range members {
		buf = le.AppendUint32(buf, 0)
		buf = le.AppendUint32(buf, uint32(len(m.Data)))
		buf = le.AppendUint32(buf, uint32(dataOff))
		buf = le.AppendUint32(buf, namehash.HashB(m.Name))
		dataOff += len(m.Data)
	}
	for _, m := range members {
		buf = append(buf, m.Data...)
	}
	return buf
}

// VPP builds a VPP_PC package. Version 2 members are zlib-compressed when
// compress is set.
func VPP(tb testing.TB, version int, compress bool, members ...Member) []byte {
	tb.Helper()
	hdr := le.AppendUint32(nil, 0x51890ACE)
	hdr = le.AppendUint32(hdr, uint32(version))
	hdr = le.AppendUint32(hdr, uint32(len(members)))
	hdr = le.AppendUint32(hdr, 0)
	buf := pad(hdr, 2048)

	stored := make([][]byte, len(members))
	for i, m := range members {
		stored[i] = m.Data
		if version == 1 {
			buf = append(buf, fixed(m.Name, 60)...)
			buf = le.AppendUint32(buf, uint32(len(m.Data)))
			continue
		}
		csize := len(m.Data)
		if compress {
			stored[i] = Zlib(tb, m.Data)
			csize = len(stored[i])
		}
		buf = append(buf, fixed(m.Name, 24)...)
		buf = le.AppendUint32(buf, uint32(len(m.Data)))
		buf = le.AppendUint32(buf, uint32(csize))
	}
	buf = pad(buf, 2048)
	for _, s := range stored {
		buf = pad(append(buf, s...), 2048)
	}
	le.PutUint32(buf[12:], uint32(len(buf)))
	return buf
}

// AFS builds an AFS package, with a name table after the entry table when named is set.
func AFS(named bool, members ...Member) []byte {
	buf := append([]byte("AFS\x00"), 0, 0, 0, 0)
	le.PutUint32(buf[4:], uint32(len(members)))
	dataOff := 2048
	offs := make([]int, len(members))
	for i, m := range members {
		offs[i] = dataOff
		buf = le.AppendUint32(buf, uint32(dataOff))
		buf = le.AppendUint32(buf, uint32(len(m.Data)))
		dataOff += len(m.Data)
	}
	namePos := len(buf)
	buf = append(buf, make([]byte, 8)...)
	buf = append(buf, make([]byte, 2048-len(buf))...)
	for _, m := range members {
		buf = append(buf, m.Data...)
	}
	if named {
		le.PutUint32(buf[namePos:], uint32(len(buf)))
		le.PutUint32(buf[namePos+4:], uint32(48*len(members)))
		for _, m := range members {
			buf = append(buf, fixed(m.Name, 32)...)
			buf = append(buf, make([]byte, 16)...)
		}
	}
	return buf
}

// LST builds an LST index and its IBF data file.
func LST(members ...Member) (index, data []byte) {
	index = append([]byte("LST\x1a"), 0, 0, 0, 0)
	le.PutUint32(index[4:], uint32(len(members)))
	for _, m := range members {
		index = append(index, fixed(m.Name, 32)...)
		index = le.AppendUint32(index, uint32(len(data)))
		index = le.AppendUint32(index, uint32(len(m.Data)))
		data = append(data, m.Data...)
	}
	return index, data
}

// DAT builds a DAT index and its ART data file with 2048-byte blocks.
func DAT(members ...Member) (index, data []byte) {
	index = append([]byte("DAT\x1a"), 0, 0, 0, 0)
	le.PutUint32(index[4:], uint32(len(members)))
	for _, m := range members {
		index = append(index, fixed(m.Name, 12)...)
		index = le.AppendUint32(index, uint32(len(data)/2048))
		index = le.AppendUint32(index, uint32(len(m.Data)))
		data = pad(append(data, m.Data...), 2048)
	}
	return index, data
}

// TAB builds a TAB index of HashA name hashes and its BIN data file.
func TAB(members ...Member) (index, data []byte) {
	index = le.AppendUint32(nil, uint32(len(members)))
	for _, m := range members {
		index = le.AppendUint32(index, namehash.HashA(m.Name))
		index = le.AppendUint32(index, uint32(len(data)))
		index = le.AppendUint32(index, uint32(len(m.Data)))
		data = append(data, m.Data...)
	}
	return index, data
}

// DFS builds a DFS index and nParts data files; member i goes to part i % nParts.
func DFS(blockSize uint32, nParts int, members ...Member) (index []byte, parts [][]byte) {
	index = append([]byte("DFS1"), 0, 0, 0, 0)
	le.PutUint32(index[4:], uint32(len(members)))
	index = le.AppendUint32(index, blockSize)
	parts = make([][]byte, nParts)
	for i, m := range members {
		p := i % nParts
		index = append(index, fixed(m.Name, 20)...)
		index = binary.LittleEndian.AppendUint16(index, uint16(p))
		index = append(index, 0, 0)
		index = le.AppendUint32(index, uint32(len(parts[p])/int(blockSize)))
		index = le.AppendUint32(index, uint32(len(m.Data)))
		parts[p] = pad(append(parts[p], m.Data...), int(blockSize))
	}
	return index, parts
}

// ZIP builds a ZIP file. Members whose name ends in "/" become directories;
// the rest are deflated unless store is set.
func ZIP(tb testing.TB, store bool, members ...Member) []byte {
	tb.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, m := range members {
		method := zip.Deflate
		if store {
			method = zip.Store
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: m.Name, Method: method})
		if err != nil {
			tb.Fatalf("zip create %s: %v", m.Name, err)
		}
		if _, err := w.Write(m.Data); err != nil {
			tb.Fatalf("zip write %s: %v", m.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// Zlib compresses data with zlib.
func Zlib(tb testing.TB, data []byte) []byte {
	tb.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		tb.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("zlib close: %v", err)
	}
	return buf.Bytes()
}

// MockCache implements a basic concurrency-safe cache for tests.
type MockCache struct {
	mu   sync.RWMutex
	data map[digest.Digest][]byte
	gets int
}

// NewMockCache constructs an empty in-memory cache.
func NewMockCache() *MockCache {
	return &MockCache{data: make(map[digest.Digest][]byte)}
}

// Get retrieves data by key.
func (c *MockCache) Get(key digest.Digest) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	data, ok := c.data[key]
	return data, ok
}

// Put stores data by key.
func (c *MockCache) Put(key digest.Digest, content []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = bytes.Clone(content)
	return nil
}

// Delete removes data by key.
func (c *MockCache) Delete(key digest.Digest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// Len returns the number of cached items.
func (c *MockCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// String summarizes the cache for test failure messages.
func (c *MockCache) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fmt.Sprintf("MockCache{items: %d, gets: %d}", len(c.data), c.gets)
}
