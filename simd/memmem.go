package simd

import "bytes"

// Memmem returns the index of the first instance of needle in haystack,
// or -1 if needle is not present.
//
// Equivalent to bytes.Index, but built on Memchr: the last byte of the
// needle is used as the scan target (a cheap rare-byte heuristic; endings
// tend to be more distinctive than beginnings in both text and code),
// and each candidate position is verified with bytes.Equal.
func Memmem(haystack, needle []byte) int {
	needleLen := len(needle)
	haystackLen := len(haystack)

	// Empty needle matches at start (mimics bytes.Index behavior)
	if needleLen == 0 {
		return 0
	}
	if haystackLen == 0 || needleLen > haystackLen {
		return -1
	}
	if needleLen == 1 {
		return Memchr(haystack, needle[0])
	}

	rareByte := needle[needleLen-1]
	rareIdx := needleLen - 1

	searchStart := 0
	for {
		pos := Memchr(haystack[searchStart:], rareByte)
		if pos == -1 {
			return -1
		}
		pos += searchStart

		// The needle would start rareIdx bytes before the candidate.
		start := pos - rareIdx
		if start >= 0 && start+needleLen <= haystackLen &&
			bytes.Equal(haystack[start:start+needleLen], needle) {
			return start
		}

		searchStart = pos + 1
		if searchStart >= haystackLen {
			return -1
		}
	}
}
