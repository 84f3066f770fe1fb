// Package cache provides optional caching of materialized package members.
//
// Decompressing or decoding a member can be far more expensive than reading
// it, especially for RAR and 7-Zip packages whose loaders restart the decoder.
// A Cache keeps the decoded bytes so repeated reads are served from memory or
// local disk. Caches may be shared between open packages.
package cache

import (
	"fmt"

	digest "github.com/opencontainers/go-digest"
)

// Cache stores member contents by key.
//
// Implementations must be safe for concurrent use and must not retain or
// return the caller's slices: Put copies its input, and callers of Get must
// treat the result as read-only.
type Cache interface {
	// Get retrieves content by key.
	// Returns nil, false if the content is not cached.
	Get(key digest.Digest) ([]byte, bool)

	// Put stores content under key.
	Put(key digest.Digest, content []byte) error

	// Delete removes the content for key, if present.
	Delete(key digest.Digest) error
}

// Pruner is implemented by caches with a byte budget that can be trimmed.
type Pruner interface {
	// SizeBytes returns the bytes currently held.
	SizeBytes() (int64, error)

	// Prune evicts entries until at most targetBytes remain and returns the
	// number of bytes freed.
	Prune(targetBytes int64) (int64, error)
}

// Key returns the cache key for member index of the stream identified by
// sourceID. The member size is part of the key so a rewritten package whose
// identifier is reused does not serve stale data of a different length.
func Key(sourceID string, index int, size uint64) digest.Digest {
	return digest.FromString(fmt.Sprintf("%s\x00%d\x00%d", sourceID, index, size))
}
