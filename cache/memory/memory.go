// Package memory provides an in-memory cache backed by an adaptive
// replacement cache.
package memory

import (
	"bytes"
	"errors"
	"sync"

	arc "github.com/hashicorp/golang-lru/arc/v2"
	digest "github.com/opencontainers/go-digest"
)

const (
	// DefaultMaxEntries is the default number of members kept.
	DefaultMaxEntries = 1024

	// DefaultMaxEntrySize is the default largest member kept (16MB).
	DefaultMaxEntrySize = 16 << 20
)

// Cache implements cache.Cache and cache.Pruner in memory.
type Cache struct {
	mu           sync.Mutex
	arc          *arc.ARCCache[digest.Digest, []byte]
	maxEntrySize int
	bytes        int64
}

// Option configures a memory cache.
type Option func(*config)

type config struct {
	maxEntries   int
	maxEntrySize int
}

// WithMaxEntries sets the number of members kept. Defaults to 1024.
func WithMaxEntries(n int) Option {
	return func(c *config) {
		c.maxEntries = n
	}
}

// WithMaxEntrySize sets the largest member kept; larger Puts are ignored.
// Use 0 to disable the limit. Defaults to 16MB.
func WithMaxEntrySize(n int) Option {
	return func(c *config) {
		c.maxEntrySize = n
	}
}

// New creates an in-memory cache.
func New(opts ...Option) (*Cache, error) {
	cfg := config{maxEntries: DefaultMaxEntries, maxEntrySize: DefaultMaxEntrySize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxEntries <= 0 {
		return nil, errors.New("max entries must be > 0")
	}
	a, err := arc.NewARC[digest.Digest, []byte](cfg.maxEntries)
	if err != nil {
		return nil, err
	}
	return &Cache{arc: a, maxEntrySize: cfg.maxEntrySize}, nil
}

// Get retrieves content by key.
func (c *Cache) Get(key digest.Digest) ([]byte, bool) {
	return c.arc.Get(key)
}

// Put stores a copy of content under key.
func (c *Cache) Put(key digest.Digest, content []byte) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if c.maxEntrySize > 0 && len(content) > c.maxEntrySize {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.arc.Add(key, bytes.Clone(content))
	c.recount()
	return nil
}

// Delete removes the content for key.
func (c *Cache) Delete(key digest.Digest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.arc.Remove(key)
	c.recount()
	return nil
}

// Len returns the number of cached members.
func (c *Cache) Len() int {
	return c.arc.Len()
}

// SizeBytes returns the bytes currently held.
func (c *Cache) SizeBytes() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes, nil
}

// Prune evicts members until at most targetBytes remain, oldest first from
// the recency list and then from the frequency list.
func (c *Cache) Prune(targetBytes int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var freed int64
	for _, k := range c.arc.Keys() {
		if c.bytes <= targetBytes {
			break
		}
		if v, ok := c.arc.Peek(k); ok {
			c.arc.Remove(k)
			c.bytes -= int64(len(v))
			freed += int64(len(v))
		}
	}
	return freed, nil
}

// Purge removes every member.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.arc.Purge()
	c.bytes = 0
}

// recount recomputes the byte total after evictions the ARC performed on Add.
func (c *Cache) recount() {
	var total int64
	for _, k := range c.arc.Keys() {
		if v, ok := c.arc.Peek(k); ok {
			total += int64(len(v))
		}
	}
	c.bytes = total
}
