package pak

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	digest "github.com/opencontainers/go-digest"

	"github.com/meigma/pak/cache"
	"github.com/meigma/pak/format"
	"github.com/meigma/pak/internal/member"
	"github.com/meigma/pak/internal/paktype"
	"github.com/meigma/pak/registry"
	"github.com/meigma/pak/source"
)

// Re-export types from internal/paktype for the public API.
type (
	// Entry describes one member of a package.
	Entry = paktype.Entry

	// Compression identifies how a member's bytes are stored.
	Compression = paktype.Compression
)

// Re-export compression constants.
const (
	CompressionNone    = paktype.CompressionNone
	CompressionDeflate = paktype.CompressionDeflate
	CompressionZlib    = paktype.CompressionZlib
	CompressionImplode = paktype.CompressionImplode
	CompressionRar     = paktype.CompressionRar
	CompressionUnknown = paktype.CompressionUnknown
)

// DefaultMaxMemberSize is the default limit on a member's declared size (256MB).
const DefaultMaxMemberSize = member.DefaultMaxMemberSize

// Package is an open container.
//
// A Package is created only by a fully successful parse and is used by one
// goroutine at a time. After Close every method returns ErrClosed.
type Package struct {
	path   string
	src    source.Source
	dir    *format.Directory
	reader *member.Reader
	cache  cache.Cache
	logger *slog.Logger

	// eager holds every member when WithEager is set. eagerErr holds the
	// read error of members that could not be materialized.
	eager    [][]byte
	eagerErr []error

	byName   map[string]int
	byFolded map[string]int

	closed bool
}

// log returns the logger, falling back to a discard logger if nil.
func (p *Package) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.logger
}

// Open opens the package at path. Paths starting with http:// or https://
// are read with HTTP range requests; anything else is a local file.
//
// The parser is chosen by the path's extension, or by signature for paths
// without one. Split-file formats open their companion files next to path.
func Open(path string, opts ...Option) (*Package, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var (
		src    source.Source
		opener source.Opener
	)
	if isURL(path) {
		h, err := source.OpenHTTP(path, cfg.httpOpts...)
		if err != nil {
			return nil, err
		}
		src, opener = h, source.NewHTTPOpener(cfg.httpOpts...)
	} else {
		f, err := source.Open(path, source.WithMmap(cfg.mmap))
		if err != nil {
			return nil, err
		}
		src, opener = f, source.NewFileOpener(source.WithMmap(cfg.mmap))
	}
	if cfg.opener != nil {
		opener = cfg.opener
	}

	p, err := open(path, src, opener, &cfg)
	if err != nil {
		_ = source.Close(src) //nolint:errcheck // parse error takes precedence
		return nil, err
	}
	return p, nil
}

// OpenSource opens a package from src. The name selects candidate parsers
// and names sibling streams for the Opener set with WithOpener.
//
// On success the Package owns src and closes it on Close. On failure src is
// left open for the caller.
func OpenSource(name string, src source.Source, opts ...Option) (*Package, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return open(name, src, cfg.opener, &cfg)
}

func open(path string, src source.Source, opener source.Opener, cfg *config) (*Package, error) {
	reg := cfg.registry
	if reg == nil {
		reg = registry.Default(registry.WithLogger(cfg.logger), registry.WithMaxEntries(cfg.maxEntries))
	}
	dir, err := reg.OpenSource(path, src, opener)
	if err != nil {
		return nil, err
	}

	p := &Package{
		path:   path,
		src:    src,
		dir:    dir,
		cache:  cfg.cache,
		logger: cfg.logger,
		reader: member.NewReader(src, dir,
			member.WithMaxMemberSize(cfg.maxMemberSize),
			member.WithLogger(cfg.logger),
		),
	}
	if cfg.eager {
		if err := p.materialize(); err != nil {
			_ = dir.Close() //nolint:errcheck // materialize error takes precedence
			return nil, err
		}
	}
	p.log().Debug("opened package", "path", path, "format", dir.Format, "entries", len(dir.Entries),
		"siblings", len(dir.Siblings), "eager", cfg.eager)
	return p, nil
}

func isURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// materialize reads every member. A member that fails to read keeps its
// error for Get; only exhausting the member size limit fails the open.
func (p *Package) materialize() error {
	p.eager = make([][]byte, len(p.dir.Entries))
	p.eagerErr = make([]error, len(p.dir.Entries))
	for i := range p.dir.Entries {
		data, err := p.reader.ReadAll(i)
		if errors.Is(err, ErrMemory) {
			p.eager, p.eagerErr = nil, nil
			return err
		}
		if err != nil {
			p.log().Debug("eager read failed", "name", p.dir.Entries[i].Name, "index", i, "error", err)
			p.eagerErr[i] = err
			continue
		}
		p.eager[i] = data
	}
	return nil
}

// Path returns the name the package was opened with.
func (p *Package) Path() string {
	return p.path
}

// Format returns the tag of the parser that read the package, such as "wad".
func (p *Package) Format() string {
	if p.closed {
		return ""
	}
	return p.dir.Format
}

// Len returns the number of entries, or 0 once closed.
func (p *Package) Len() int {
	if p.closed {
		return 0
	}
	return len(p.dir.Entries)
}

// List returns a copy of the entries in container order.
func (p *Package) List() ([]Entry, error) {
	if p.closed {
		return nil, ErrClosed
	}
	return append([]Entry(nil), p.dir.Entries...), nil
}

// Entries returns an iterator over index and entry pairs in container order.
// It yields nothing once the package is closed.
func (p *Package) Entries() iter.Seq2[int, Entry] {
	return func(yield func(int, Entry) bool) {
		if p.closed {
			return
		}
		for i, e := range p.dir.Entries {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Entry returns the entry at index.
func (p *Package) Entry(index int) (Entry, error) {
	if p.closed {
		return Entry{}, ErrClosed
	}
	if index < 0 || index >= len(p.dir.Entries) {
		return Entry{}, fmt.Errorf("entry %d of %d: %w", index, len(p.dir.Entries), ErrNotFound)
	}
	return p.dir.Entries[index], nil
}

// Lookup returns the index of the first entry named name. Backslashes are
// treated as separators; an exact match wins over a case-insensitive one.
func (p *Package) Lookup(name string) (int, bool) {
	if p.closed {
		return 0, false
	}
	if p.byName == nil {
		p.byName = make(map[string]int, len(p.dir.Entries))
		p.byFolded = make(map[string]int, len(p.dir.Entries))
		for i, e := range p.dir.Entries {
			if _, ok := p.byName[e.Name]; !ok {
				p.byName[e.Name] = i
			}
			folded := strings.ToLower(e.Name)
			if _, ok := p.byFolded[folded]; !ok {
				p.byFolded[folded] = i
			}
		}
	}
	name = format.NormalizePath(name)
	if i, ok := p.byName[name]; ok {
		return i, true
	}
	i, ok := p.byFolded[strings.ToLower(name)]
	return i, ok
}

// Get returns the full uncompressed content of the member at index. The
// returned slice is owned by the caller.
//
// A failure reading one member does not affect the rest of the package.
func (p *Package) Get(index int) ([]byte, error) {
	if p.closed {
		return nil, ErrClosed
	}
	if index < 0 || index >= len(p.dir.Entries) {
		return nil, fmt.Errorf("member %d of %d: %w", index, len(p.dir.Entries), ErrNotFound)
	}
	if p.eager != nil {
		if err := p.eagerErr[index]; err != nil {
			return nil, err
		}
		return bytes.Clone(p.eager[index]), nil
	}

	e := &p.dir.Entries[index]
	if p.cache == nil {
		return p.reader.ReadAll(index)
	}

	key, err := p.cacheKey(index, e)
	if err != nil {
		return nil, err
	}
	if data, ok := p.cache.Get(key); ok {
		if uint64(len(data)) == e.Size {
			p.log().Debug("member cache hit", "name", e.Name, "index", index)
			return bytes.Clone(data), nil
		}
		_ = p.cache.Delete(key) //nolint:errcheck // best-effort cleanup of a bad entry
	}
	p.log().Debug("member cache miss", "name", e.Name, "index", index)

	data, err := p.reader.ReadAll(index)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Put(key, data); err != nil {
		p.log().Debug("member cache put failed", "name", e.Name, "error", err)
	}
	return data, nil
}

// cacheKey identifies a member by the primary stream and, for members of a
// split-file package, the sibling stream that holds the bytes.
func (p *Package) cacheKey(index int, e *Entry) (digest.Digest, error) {
	id := p.src.SourceID()
	if e.Stream > 0 {
		sib, err := p.dir.Stream(p.src, e)
		if err != nil {
			return "", err
		}
		id += "\x00" + sib.SourceID()
	}
	return cache.Key(id, index, e.Size), nil
}

// GetByName returns the content of the first member named name.
func (p *Package) GetByName(name string) ([]byte, error) {
	if p.closed {
		return nil, ErrClosed
	}
	i, ok := p.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return p.Get(i)
}

// Close releases the member loader, sibling streams and the primary stream
// and drops the entry table. Closing an already closed package is a no-op.
func (p *Package) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	err := errors.Join(p.dir.Close(), source.Close(p.src))
	p.eager, p.eagerErr = nil, nil
	p.byName = nil
	p.byFolded = nil
	p.log().Debug("closed package", "path", p.path)
	return err
}
