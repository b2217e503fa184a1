// Package simd provides accelerated byte search primitives used by the
// regex engine's prefilters.
//
// The implementations use the SWAR (SIMD Within A Register) technique:
// eight haystack bytes are processed per iteration using uint64 bitwise
// operations, with a zero-byte detection formula locating matches. This
// is portable Go with no architecture-specific code, and is typically
// 2-5x faster than a byte-by-byte scan on medium and large inputs.
package simd

import (
	"encoding/binary"
	"math/bits"
)

const (
	lo8 = uint64(0x0101010101010101)
	hi8 = uint64(0x8080808080808080)
)

// zeroMask returns a mask with the high bit set in every byte of v that
// is zero. This is the classic zero-byte detection formula:
//
//	(v - 0x0101..) & ^v & 0x8080..
//
// Subtracting 0x01 from each byte borrows only if the byte was 0x00;
// AND with ^v discards bytes that had their high bit set already; AND
// with 0x8080.. isolates the marker bits.
func zeroMask(v uint64) uint64 {
	return (v - lo8) & ^v & hi8
}

// Memchr returns the index of the first occurrence of needle in haystack,
// or -1 if needle is not present.
//
// Equivalent to bytes.IndexByte in behavior; kept as a separate primitive
// so the multi-needle variants below share one code shape.
func Memchr(haystack []byte, needle byte) int {
	n := len(haystack)
	if n == 0 {
		return -1
	}

	// For small inputs, byte-by-byte is faster (no setup overhead)
	if n < 8 {
		for i := 0; i < n; i++ {
			if haystack[i] == needle {
				return i
			}
		}
		return -1
	}

	// Broadcast needle to all 8 bytes: needle=0x42 -> 0x4242424242424242
	mask := uint64(needle) * lo8

	i := 0
	for i+8 <= n {
		chunk := binary.LittleEndian.Uint64(haystack[i:])

		// XOR turns matching bytes into 0x00; zeroMask marks them.
		if z := zeroMask(chunk ^ mask); z != 0 {
			return i + bits.TrailingZeros64(z)/8
		}
		i += 8
	}

	// Remaining 0-7 bytes
	for ; i < n; i++ {
		if haystack[i] == needle {
			return i
		}
	}
	return -1
}

// Memchr2 returns the index of the first occurrence of either needle1 or
// needle2 in haystack, or -1 if neither is present. Both needles are
// checked in parallel within each 8-byte chunk.
func Memchr2(haystack []byte, needle1, needle2 byte) int {
	n := len(haystack)
	if n == 0 {
		return -1
	}

	if n < 8 {
		for i := 0; i < n; i++ {
			if b := haystack[i]; b == needle1 || b == needle2 {
				return i
			}
		}
		return -1
	}

	mask1 := uint64(needle1) * lo8
	mask2 := uint64(needle2) * lo8

	i := 0
	for i+8 <= n {
		chunk := binary.LittleEndian.Uint64(haystack[i:])

		z := zeroMask(chunk^mask1) | zeroMask(chunk^mask2)
		if z != 0 {
			return i + bits.TrailingZeros64(z)/8
		}
		i += 8
	}

	for ; i < n; i++ {
		if b := haystack[i]; b == needle1 || b == needle2 {
			return i
		}
	}
	return -1
}

// Memchr3 returns the index of the first occurrence of needle1, needle2
// or needle3 in haystack, or -1 if none is present.
func Memchr3(haystack []byte, needle1, needle2, needle3 byte) int {
	n := len(haystack)
	if n == 0 {
		return -1
	}

	if n < 8 {
		for i := 0; i < n; i++ {
			if b := haystack[i]; b == needle1 || b == needle2 || b == needle3 {
				return i
			}
		}
		return -1
	}

	mask1 := uint64(needle1) * lo8
	mask2 := uint64(needle2) * lo8
	mask3 := uint64(needle3) * lo8

	i := 0
	for i+8 <= n {
		chunk := binary.LittleEndian.Uint64(haystack[i:])

		z := zeroMask(chunk^mask1) | zeroMask(chunk^mask2) | zeroMask(chunk^mask3)
		if z != 0 {
			return i + bits.TrailingZeros64(z)/8
		}
		i += 8
	}

	for ; i < n; i++ {
		if b := haystack[i]; b == needle1 || b == needle2 || b == needle3 {
			return i
		}
	}
	return -1
}
