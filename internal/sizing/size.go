// Package sizing provides overflow-safe size arithmetic for values read from
// untrusted container headers.
package sizing

import (
	"math"
	"math/bits"
)

// ToInt converts a uint64 to int, returning overflowErr if it doesn't fit.
func ToInt(size uint64, overflowErr error) (int, error) {
	if size > uint64(math.MaxInt) {
		return 0, overflowErr
	}
	return int(size), nil
}

// ToInt64 converts a uint64 to int64, returning overflowErr if it doesn't fit.
func ToInt64(size uint64, overflowErr error) (int64, error) {
	if size > uint64(math.MaxInt64) {
		return 0, overflowErr
	}
	return int64(size), nil
}

// AddUint64 adds two uint64 values, returning (result, false) on overflow.
func AddUint64(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, false
	}
	return sum, true
}

// MulUint64 multiplies two uint64 values, returning (result, false) on overflow.
func MulUint64(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, false
	}
	return lo, true
}

// InRange reports whether [off, off+n) lies within [0, limit).
func InRange(off, n, limit uint64) bool {
	end, ok := AddUint64(off, n)
	return ok && end <= limit
}

// AlignUp rounds n up to the next multiple of align, which must be a power of two.
// It returns false if the result overflows.
func AlignUp(n, align uint64) (uint64, bool) {
	if align == 0 {
		return n, true
	}
	sum, ok := AddUint64(n, align-1)
	if !ok {
		return 0, false
	}
	return sum &^ (align - 1), true
}
