package member

import (
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"

	"github.com/meigma/pak/internal/paktype"
)

// InflatePool manages reusable deflate and zlib readers to reduce allocation
// overhead when many small members are read.
type InflatePool struct {
	flate sync.Pool
	zlib  sync.Pool
}

// NewInflatePool creates an empty pool.
func NewInflatePool() *InflatePool {
	return &InflatePool{}
}

// Get returns a reader decoding r with the given compression.
// The caller must call the returned release function when done.
// If an error is returned, no release function needs to be called.
func (p *InflatePool) Get(c paktype.Compression, r io.Reader) (io.Reader, func(), error) {
	switch c {
	case paktype.CompressionDeflate:
		return p.getFlate(r)
	case paktype.CompressionZlib:
		return p.getZlib(r)
	default:
		return nil, nil, fmt.Errorf("%s: %w", c, paktype.ErrUnsupported)
	}
}

func (p *InflatePool) getFlate(r io.Reader) (io.Reader, func(), error) {
	if p == nil {
		fr := flate.NewReader(r)
		return fr, func() { _ = fr.Close() }, nil
	}
	if fr, ok := p.flate.Get().(io.ReadCloser); ok {
		if rs, ok := fr.(flate.Resetter); ok && rs.Reset(r, nil) == nil {
			return fr, func() { p.flate.Put(fr) }, nil
		}
	}
	fr := flate.NewReader(r)
	return fr, func() { p.flate.Put(fr) }, nil
}

func (p *InflatePool) getZlib(r io.Reader) (io.Reader, func(), error) {
	if p != nil {
		if zr, ok := p.zlib.Get().(io.ReadCloser); ok {
			if rs, ok := zr.(zlib.Resetter); ok {
				// Reset reads the zlib header, so a bad header surfaces here.
				if err := rs.Reset(r, nil); err != nil {
					p.zlib.Put(zr)
					return nil, nil, fmt.Errorf("zlib header: %w: %w", paktype.ErrDecompression, err)
				}
				return zr, func() { p.zlib.Put(zr) }, nil
			}
		}
	}
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("zlib header: %w: %w", paktype.ErrDecompression, err)
	}
	if p == nil {
		return zr, func() { _ = zr.Close() }, nil
	}
	return zr, func() { p.zlib.Put(zr) }, nil
}
