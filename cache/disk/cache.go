// Package disk provides a disk-backed cache implementation.
package disk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	digest "github.com/opencontainers/go-digest"
)

const (
	defaultShardPrefixLen = 2
	defaultDirPerm        = 0o700
	defaultFilePerm       = 0o600

	tempPrefix = ".tmp-"
)

// Cache implements cache.Cache and cache.Pruner using the local filesystem.
// Files are named by the key's hex digest and sharded by its prefix.
type Cache struct {
	dir            string
	shardPrefixLen int
	dirPerm        os.FileMode
	compress       bool
	maxBytes       int64

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Option configures a disk cache.
type Option func(*Cache)

// WithShardPrefixLen sets the number of hex characters used for sharding.
// Use 0 to disable sharding. Defaults to 2.
func WithShardPrefixLen(n int) Option {
	return func(c *Cache) {
		c.shardPrefixLen = n
	}
}

// WithDirPerm sets the directory permissions used for cache directories.
func WithDirPerm(mode os.FileMode) Option {
	return func(c *Cache) {
		c.dirPerm = mode
	}
}

// WithCompression stores entries zstd-compressed.
func WithCompression(enabled bool) Option {
	return func(c *Cache) {
		c.compress = enabled
	}
}

// WithMaxBytes prunes the cache to maxBytes after each Put.
// Use 0 to disable the limit.
func WithMaxBytes(n int64) Option {
	return func(c *Cache) {
		c.maxBytes = n
	}
}

// New creates a disk-backed cache rooted at dir.
func New(dir string, opts ...Option) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache dir is empty")
	}
	c := &Cache{
		dir:            dir,
		shardPrefixLen: defaultShardPrefixLen,
		dirPerm:        defaultDirPerm,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.shardPrefixLen < 0 {
		return nil, errors.New("shard prefix length must be >= 0")
	}
	if err := os.MkdirAll(dir, c.dirPerm); err != nil {
		return nil, err
	}
	if c.compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		c.enc, c.dec = enc, dec
	}
	return c, nil
}

// Get retrieves content by key.
func (c *Cache) Get(key digest.Digest) ([]byte, bool) {
	path, err := c.path(key)
	if err != nil {
		return nil, false
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from a validated digest
	if err != nil {
		return nil, false
	}
	now := time.Now()
	_ = os.Chtimes(path, now, now) //nolint:errcheck // recency is best-effort
	if c.dec == nil {
		return data, true
	}
	out, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		_ = os.Remove(path)
		return nil, false
	}
	return out, true
}

// Put stores content under key. Existing entries are left untouched.
func (c *Cache) Put(key digest.Digest, content []byte) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, c.dirPerm); err != nil {
		return err
	}
	if c.enc != nil {
		content = c.enc.EncodeAll(content, nil)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Chmod(defaultFilePerm); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			_ = os.Remove(tmpPath)
			return nil
		}
		_ = os.Remove(tmpPath)
		return err
	}
	if c.maxBytes > 0 {
		if _, err := c.Prune(c.maxBytes); err != nil {
			return fmt.Errorf("prune: %w", err)
		}
	}
	return nil
}

// Delete removes the content for key.
func (c *Cache) Delete(key digest.Digest) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// SizeBytes returns the bytes stored on disk.
func (c *Cache) SizeBytes() (int64, error) {
	_, total, err := scan(c.dir)
	return total, err
}

// Prune removes the least recently used entries until at most
// targetBytes remain on disk.
func (c *Cache) Prune(targetBytes int64) (int64, error) {
	return pruneDir(c.dir, targetBytes)
}

// Close releases the zstd encoder and decoder.
func (c *Cache) Close() error {
	if c.enc != nil {
		if err := c.enc.Close(); err != nil {
			return err
		}
	}
	if c.dec != nil {
		c.dec.Close()
	}
	return nil
}

func (c *Cache) path(key digest.Digest) (string, error) {
	if err := key.Validate(); err != nil {
		return "", err
	}
	hexHash := key.Encoded()
	algo := key.Algorithm().String()
	if c.shardPrefixLen <= 0 {
		return filepath.Join(c.dir, algo, hexHash), nil
	}
	prefixLen := min(c.shardPrefixLen, len(hexHash))
	return filepath.Join(c.dir, algo, hexHash[:prefixLen], hexHash), nil
}
