// Package registry selects a format parser for a package by file extension
// and signature probing.
//
// A Registry is an explicit value: callers build one with [New] and
// [Registry.Register], or start from [Default], which registers every
// built-in format. There is no global registry.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/meigma/pak/format"
	"github.com/meigma/pak/internal/paktype"
	"github.com/meigma/pak/source"
)

// Any registers a parser for paths without an extension. Such parsers must
// reject foreign files by signature.
const Any = "*"

// Registration pairs an extension (or [Any]) with a parser.
type Registration struct {
	Ext    string
	Parser format.Parser
}

// Registry holds parser registrations in registration order.
type Registry struct {
	regs       []Registration
	logger     *slog.Logger
	opener     source.Opener
	maxEntries uint64
	sourceOpts []source.Option
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for probing diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithOpener sets the Opener used for sibling streams of split-file
// packages. Defaults to a local file opener.
func WithOpener(o source.Opener) Option {
	return func(r *Registry) {
		r.opener = o
	}
}

// WithMaxEntries caps the entry count a parser may allocate. Zero disables the cap.
func WithMaxEntries(n uint64) Option {
	return func(r *Registry) {
		r.maxEntries = n
	}
}

// WithSourceOptions sets the options used when [Registry.Open] opens local files.
func WithSourceOptions(opts ...source.Option) Option {
	return func(r *Registry) {
		r.sourceOpts = append(r.sourceOpts, opts...)
	}
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	if r.opener == nil {
		r.opener = source.NewFileOpener(r.sourceOpts...)
	}
	return r
}

// Default creates a Registry with every built-in format registered.
func Default(opts ...Option) *Registry {
	r := New(opts...)
	for _, reg := range Builtin() {
		r.Register(reg.Ext, reg.Parser)
	}
	return r
}

// Builtin returns the built-in registrations in probing order.
func Builtin() []Registration {
	return []Registration{
		{Ext: "wad", Parser: format.WAD{}},
		{Ext: "wad", Parser: format.WAD2{}},
		{Ext: "pak", Parser: format.PAK{}},
		{Ext: "grp", Parser: format.GRP{}},
		{Ext: "hog", Parser: format.HOG{}},
		{Ext: "mad", Parser: format.MAD{}},
		{Ext: "mtd", Parser: format.MAD{}},
		{Ext: "clu", Parser: format.CLU{}},
		{Ext: "vpp", Parser: format.VPP{}},
		{Ext: "afs", Parser: format.AFS{}},
		{Ext: "lst", Parser: format.LST{}},
		{Ext: "dat", Parser: format.DAT{}},
		{Ext: "tab", Parser: format.TAB{}},
		{Ext: "dfs", Parser: format.DFS{}},
		{Ext: "zip", Parser: format.ZIP{}},
		{Ext: "pk3", Parser: format.ZIP{}},
		{Ext: "rar", Parser: format.RAR{}},
		{Ext: "7z", Parser: format.SevenZip{}},
		{Ext: Any, Parser: format.PAK{}},
		{Ext: Any, Parser: format.WAD{}},
		{Ext: Any, Parser: format.WAD2{}},
		{Ext: Any, Parser: format.GRP{}},
		{Ext: Any, Parser: format.HOG{}},
		{Ext: Any, Parser: format.CLU{}},
		{Ext: Any, Parser: format.VPP{}},
		{Ext: Any, Parser: format.AFS{}},
		{Ext: Any, Parser: format.ZIP{}},
		{Ext: Any, Parser: format.RAR{}},
		{Ext: Any, Parser: format.SevenZip{}},
	}
}

// log returns the logger, falling back to a discard logger if nil.
func (r *Registry) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// Register appends a parser for ext. The extension is matched
// case-insensitively and may be given with or without a leading dot.
func (r *Registry) Register(ext string, p format.Parser) {
	if ext != Any {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	}
	r.regs = append(r.regs, Registration{Ext: ext, Parser: p})
}

// Registrations returns a copy of the registrations in order.
func (r *Registry) Registrations() []Registration {
	return append([]Registration(nil), r.regs...)
}

// Candidates returns the parsers to try for path, in registration order.
// A path without an extension gets the [Any] parsers.
func (r *Registry) Candidates(p string) []format.Parser {
	ext := Ext(p)
	if ext == "" {
		ext = Any
	}
	var out []format.Parser
	for _, reg := range r.regs {
		if reg.Ext == ext {
			out = append(out, reg.Parser)
		}
	}
	return out
}

// Ext returns the lower-case extension of p without the dot.
func Ext(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	return strings.ToLower(strings.TrimPrefix(path.Ext(path.Base(p)), "."))
}

// Open opens the local file at p and parses it. On success the caller owns
// the returned Source and Directory; on failure both are released.
func (r *Registry) Open(p string) (source.Source, *format.Directory, error) {
	if len(r.Candidates(p)) == 0 {
		return nil, nil, fmt.Errorf("%s: no parser for extension %q: %w", p, Ext(p), paktype.ErrNotFound)
	}
	src, err := source.Open(p, r.sourceOpts...)
	if err != nil {
		return nil, nil, err
	}
	dir, err := r.OpenSource(p, src, r.opener)
	if err != nil {
		_ = source.Close(src) //nolint:errcheck // parse error takes precedence
		return nil, nil, err
	}
	return src, dir, nil
}

// OpenSource parses src, whose name p selects the candidate parsers and
// names sibling streams for opener. The first candidate that parses wins.
// The caller keeps ownership of src.
func (r *Registry) OpenSource(p string, src source.Source, opener source.Opener) (*format.Directory, error) {
	candidates := r.Candidates(p)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%s: no parser for extension %q: %w", p, Ext(p), paktype.ErrNotFound)
	}

	errs := []error{paktype.ErrNotFound}
	for _, parser := range candidates {
		a := format.NewArchive(p, src, opener)
		a.Logger = r.logger
		a.MaxEntries = r.maxEntries

		dir, err := format.Run(parser, a)
		if err != nil {
			r.log().Debug("parser rejected package", "path", p, "format", parser.Format(), "error", err)
			errs = append(errs, err)
			continue
		}
		r.log().Debug("parsed package", "path", p, "format", dir.Format, "entries", len(dir.Entries))
		return dir, nil
	}
	return nil, fmt.Errorf("%s: %d candidate formats failed: %w", p, len(candidates), errors.Join(errs...))
}
