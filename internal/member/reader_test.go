package member

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/pak/format"
	"github.com/meigma/pak/internal/paktype"
	"github.com/meigma/pak/internal/testutil"
	"github.com/meigma/pak/source"
)

func open(t *testing.T, p format.Parser, name string, data []byte) (source.Source, *format.Directory) {
	t.Helper()
	src := source.NewBytes(name, data)
	dir, err := format.Run(p, format.NewArchive(name, src, nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dir.Close() })
	return src, dir
}

func TestReadStored(t *testing.T) {
	t.Parallel()

	src, dir := open(t, format.PAK{}, "a.pak", testutil.PAK(testutil.M("a", "alpha"), testutil.M("b", "")))
	r := NewReader(src, dir)

	got, err := r.ReadAll(0)
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(got))

	got, err = r.ReadAll(1)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = r.ReadAll(2)
	require.ErrorIs(t, err, paktype.ErrNotFound)
}

func TestReadZlibMembers(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("mission table ", 500)
	data := testutil.VPP(t, 2, true, testutil.M("a.tbl", body), testutil.M("b.tbl", "short"))
	src, dir := open(t, format.VPP{}, "core.vpp", data)
	r := NewReader(src, dir, WithInflatePool(NewInflatePool()))

	for range 2 {
		got, err := r.ReadAll(0)
		require.NoError(t, err)
		assert.Equal(t, body, string(got))
		got, err = r.ReadAll(1)
		require.NoError(t, err)
		assert.Equal(t, "short", string(got))
	}
}

func TestReadDeflateSizeMismatch(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.BestCompression)
	require.NoError(t, err)
	_, err = fw.Write([]byte("inflated body"))
	require.NoError(t, err)
	require.NoError(t, fw.Close())
	raw := buf.Bytes()

	src := source.NewBytes("raw", raw)
	entry := func(size uint64) format.Entry {
		return format.Entry{Name: "m", Size: size, CompressedSize: uint64(len(raw)), Compression: format.CompressionDeflate}
	}
	dir := &format.Directory{Entries: []format.Entry{entry(13), entry(12), entry(20)}}
	r := NewReader(src, dir)

	got, err := r.ReadAll(0)
	require.NoError(t, err)
	assert.Equal(t, "inflated body", string(got))

	_, err = r.ReadAll(1)
	require.ErrorIs(t, err, paktype.ErrDecompression)
	_, err = r.ReadAll(2)
	require.ErrorIs(t, err, paktype.ErrDecompression)
}

func TestReadCorruptZlib(t *testing.T) {
	t.Parallel()

	src := source.NewBytes("bad", []byte("this is not zlib"))
	dir := &format.Directory{Entries: []format.Entry{
		{Name: "m", Size: 4, CompressedSize: 16, Compression: format.CompressionZlib},
	}}
	_, err := NewReader(src, dir).ReadAll(0)
	require.ErrorIs(t, err, paktype.ErrDecompression)
}

func TestReadLimits(t *testing.T) {
	t.Parallel()

	src, dir := open(t, format.PAK{}, "a.pak", testutil.PAK(testutil.M("big", strings.Repeat("x", 64))))
	_, err := NewReader(src, dir, WithMaxMemberSize(63)).ReadAll(0)
	require.ErrorIs(t, err, paktype.ErrMemory)

	_, err = NewReader(src, dir, WithMaxMemberSize(0)).ReadAll(0)
	require.NoError(t, err)
}

func TestReadOutOfRangeEntry(t *testing.T) {
	t.Parallel()

	src := source.NewBytes("tiny", []byte("abc"))
	dir := &format.Directory{Entries: []format.Entry{{Name: "m", Offset: 2, Size: 5}}}
	_, err := NewReader(src, dir).ReadAll(0)
	require.ErrorIs(t, err, paktype.ErrFileSize)
}

func TestReadUnsupportedWithoutLoader(t *testing.T) {
	t.Parallel()

	src := source.NewBytes("x", []byte("abc"))
	dir := &format.Directory{Entries: []format.Entry{{Name: "m", Size: 3, Compression: format.CompressionImplode, CompressedSize: 3}}}
	_, err := NewReader(src, dir).ReadAll(0)
	require.ErrorIs(t, err, paktype.ErrUnsupported)
}

type fakeLoader struct {
	data []byte
	err  error
}

func (l fakeLoader) LoadMember(int, *format.Entry) ([]byte, error) {
	return l.data, l.err
}

func TestReadDelegatesToLoader(t *testing.T) {
	t.Parallel()

	src := source.NewBytes("x", nil)
	entries := []format.Entry{{Name: "m", Size: 3, Compression: format.CompressionRar}}

	got, err := NewReader(src, &format.Directory{Entries: entries, Loader: fakeLoader{data: []byte("abc")}}).ReadAll(0)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	_, err = NewReader(src, &format.Directory{Entries: entries, Loader: fakeLoader{data: []byte("ab")}}).ReadAll(0)
	require.ErrorIs(t, err, paktype.ErrDecompression)

	boom := errors.New("boom")
	_, err = NewReader(src, &format.Directory{Entries: entries, Loader: fakeLoader{err: boom}}).ReadAll(0)
	require.ErrorIs(t, err, boom)
}

func TestReadZIPThroughLoader(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("shader ", 300)
	src, dir := open(t, format.ZIP{}, "pak0.pk3", testutil.ZIP(t, false, testutil.M("scripts/a.shader", body)))
	got, err := NewReader(src, dir).ReadAll(0)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
}

func TestReadSiblingStream(t *testing.T) {
	t.Parallel()

	index, data := testutil.LST(testutil.M("a", "in the ibf"))
	src := source.NewBytes("g.lst", index)
	dir, err := format.Run(format.LST{}, format.NewArchive("g.lst", src, source.MemoryOpener{"g.ibf": data}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dir.Close() })

	got, err := NewReader(src, dir).ReadAll(0)
	require.NoError(t, err)
	assert.Equal(t, "in the ibf", string(got))
}
