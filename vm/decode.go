package vm

import (
	"unicode"
	"unicode/utf8"
)

// decodeRune decodes the code point starting at s[pos] and never reads
// past the end of s. A byte that is not part of a valid UTF-8 sequence
// stands for itself: it decodes to its own value with width one, so the
// scanner makes progress on arbitrary binary input and a pattern built
// from the same raw bytes still matches them.
func decodeRune(s []byte, pos int) (rune, int) {
	b := s[pos]
	if b < 0x80 {
		return rune(b), 1
	}
	r, n := utf8.DecodeRune(s[pos:])
	if r == utf8.RuneError && n <= 1 {
		return rune(b), 1
	}
	return r, n
}

// isWordByte classifies a subject byte for the \< and \> boundaries:
// ASCII alphanumerics, underscore, and every byte of a multibyte
// sequence count as word bytes.
func isWordByte(b byte) bool {
	return b == '_' || b >= 0x80 ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func isWordRune(c rune) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isDigitRune(c rune) bool { return c >= '0' && c <= '9' }

// isSpaceRune matches the C locale space set, vertical tab included.
func isSpaceRune(c rune) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func foldRune(c rune) rune { return unicode.ToLower(c) }

// classMatch reports whether c satisfies the class instruction at pc.
// When foldCase is set the caller passes c already folded and the range
// bounds fold here; shorthand pairs test the code point as given.
func classMatch(code []int32, pc int32, c rune, foldCase bool) bool {
	positive := code[pc+1] == 1
	n := code[pc+2]
	for p := pc + 3; p < pc+3+2*n; p += 2 {
		lo, hi := rune(code[p]), rune(code[p+1])
		switch {
		case lo == classEscape:
			if shorthandMatch(byte(hi), c) {
				return positive
			}
		case foldCase:
			if foldRune(lo) <= c && c <= foldRune(hi) {
				return positive
			}
		default:
			if lo <= c && c <= hi {
				return positive
			}
		}
	}
	return !positive
}

func shorthandMatch(letter byte, c rune) bool {
	switch letter {
	case 'd':
		return isDigitRune(c)
	case 'D':
		return !isDigitRune(c)
	case 's':
		return isSpaceRune(c)
	case 'S':
		return !isSpaceRune(c)
	case 'w':
		return isWordRune(c)
	case 'W':
		return !isWordRune(c)
	}
	return false
}
