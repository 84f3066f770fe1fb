package pak

import (
	"errors"
	"fmt"

	"github.com/meigma/pak/internal/extract"
)

// ExtractOption configures Extract.
type ExtractOption func(*extractConfig)

type extractConfig struct {
	skipExisting    bool
	continueOnError bool
	filter          func(Entry) bool
}

// ExtractWithSkipExisting leaves files that already exist untouched.
// By default, existing files are silently overwritten.
func ExtractWithSkipExisting(skip bool) ExtractOption {
	return func(c *extractConfig) {
		c.skipExisting = skip
	}
}

// ExtractWithContinueOnError keeps extracting after a member fails and
// returns the joined member errors at the end.
func ExtractWithContinueOnError(enabled bool) ExtractOption {
	return func(c *extractConfig) {
		c.continueOnError = enabled
	}
}

// ExtractWithFilter extracts only the entries for which keep returns true.
func ExtractWithFilter(keep func(Entry) bool) ExtractOption {
	return func(c *extractConfig) {
		c.filter = keep
	}
}

// ExtractStats summarizes an Extract call.
type ExtractStats struct {
	// Files is the number of members written.
	Files int
	// Bytes is the total size of the members written.
	Bytes uint64
	// Skipped counts members filtered out or left in place by
	// ExtractWithSkipExisting.
	Skipped int
	// Failed counts members that could not be read or written.
	Failed int
}

// Extract writes every member under dest at its relative name, creating
// directories as needed. Members are written unmodified; when names repeat
// the later member replaces the earlier one.
//
// Names that are absolute or contain ".." components fail with
// ErrUnsafePath. By default Extract stops at the first failing member.
func (p *Package) Extract(dest string, opts ...ExtractOption) (ExtractStats, error) {
	var stats ExtractStats
	if p.closed {
		return stats, ErrClosed
	}
	cfg := extractConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	sink, err := extract.NewSink(dest, extract.WithSkipExisting(cfg.skipExisting))
	if err != nil {
		return stats, err
	}
	defer sink.Close()

	var errs []error
	for i, e := range p.Entries() {
		if cfg.filter != nil && !cfg.filter(e) {
			stats.Skipped++
			continue
		}
		written, err := p.extractOne(sink, i, &e)
		if err != nil {
			stats.Failed++
			p.log().Debug("extract member failed", "name", e.Name, "index", i, "error", err)
			if !cfg.continueOnError {
				return stats, err
			}
			errs = append(errs, err)
			continue
		}
		if !written {
			stats.Skipped++
			continue
		}
		stats.Files++
		stats.Bytes += e.Size
	}
	p.log().Debug("extracted package", "path", p.path, "dest", dest,
		"files", stats.Files, "skipped", stats.Skipped, "failed", stats.Failed)
	return stats, errors.Join(errs...)
}

func (p *Package) extractOne(sink *extract.Sink, index int, e *Entry) (bool, error) {
	if _, err := extract.CleanName(e.Name); err != nil {
		return false, err
	}
	data, err := p.Get(index)
	if err != nil {
		return false, fmt.Errorf("extract %s: %w", e.Name, err)
	}
	return sink.Write(e.Name, data)
}
