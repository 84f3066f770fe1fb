package pak

import (
	"log/slog"

	"github.com/meigma/pak/cache"
	"github.com/meigma/pak/registry"
	"github.com/meigma/pak/source"
)

// Option configures Open and OpenSource.
type Option func(*config)

type config struct {
	registry      *registry.Registry
	logger        *slog.Logger
	eager         bool
	cache         cache.Cache
	maxMemberSize uint64
	maxEntries    uint64
	mmap          bool
	opener        source.Opener
	httpOpts      []source.HTTPOption
}

func defaultConfig() config {
	return config{maxMemberSize: DefaultMaxMemberSize}
}

// WithRegistry sets the parser registry. Defaults to [registry.Default]
// configured with this call's logger and entry limit.
func WithRegistry(r *registry.Registry) Option {
	return func(c *config) {
		c.registry = r
	}
}

// WithLogger sets the logger for parse and read diagnostics.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithEager reads every member into memory during Open. A member that cannot
// be read returns its error from Get; Open fails only when a member exceeds
// the member size limit.
func WithEager(enabled bool) Option {
	return func(c *config) {
		c.eager = enabled
	}
}

// WithCache stores materialized members in c, keyed by the SourceID of the
// primary stream and of the sibling holding the member, the member index and
// size.
func WithCache(c cache.Cache) Option {
	return func(cfg *config) {
		cfg.cache = c
	}
}

// WithMaxMemberSize limits the declared size of a member that Get will
// allocate. Set to 0 to disable the limit. Defaults to 256MB.
func WithMaxMemberSize(limit uint64) Option {
	return func(c *config) {
		c.maxMemberSize = limit
	}
}

// WithMaxEntries limits the number of entries a parser may allocate.
// It applies to the default registry only. Set to 0 to disable the limit.
func WithMaxEntries(limit uint64) Option {
	return func(c *config) {
		c.maxEntries = limit
	}
}

// WithMmap memory-maps local files instead of reading them with pread.
func WithMmap(enabled bool) Option {
	return func(c *config) {
		c.mmap = enabled
	}
}

// WithOpener sets how sibling streams of split-file packages are opened.
// Defaults to local files, or HTTP range requests for URLs.
func WithOpener(o source.Opener) Option {
	return func(c *config) {
		c.opener = o
	}
}

// WithHTTPOptions configures the HTTP source used when Open is given a URL.
func WithHTTPOptions(opts ...source.HTTPOption) Option {
	return func(c *config) {
		c.httpOpts = append(c.httpOpts, opts...)
	}
}
