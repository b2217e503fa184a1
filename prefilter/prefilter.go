// Package prefilter provides fast candidate scanning for the regex
// engine.
//
// A prefilter answers one question cheaply: where is the next position
// a match could possibly start? The engine then verifies only from that
// position instead of trying every one. Prefilters are built from the
// literal prefixes extracted out of a compiled pattern and come in
// increasing generality:
//
//   - a single one-byte literal scans with memchr
//   - a single longer literal scans with memmem
//   - a few distinct leading bytes scan with memchr2/memchr3
//   - anything larger runs an Aho-Corasick automaton
//
// All candidates are positions where a match MAY start; except for the
// complete single-literal case the engine still has to verify. A
// prefilter never misses a real match start: that soundness is
// guaranteed by the extractor, not checked here.
package prefilter

import (
	"github.com/coregx/ahocorasick"

	"github.com/rexvm/rex/literal"
	"github.com/rexvm/rex/simd"
)

// Prefilter scans a haystack for positions where a match could start.
type Prefilter interface {
	// Find returns the next candidate position at or after start, or -1
	// when no candidate remains.
	Find(haystack []byte, start int) int

	// IsComplete reports whether a candidate is a whole match on its
	// own: the pattern matches exactly the scanned literal and nothing
	// else, so no verification is needed.
	IsComplete() bool

	// LiteralLen is the length of the literal a candidate stands for.
	// Only meaningful when IsComplete reports true.
	LiteralLen() int

	// HeapBytes estimates the prefilter's heap footprint.
	HeapBytes() int
}

// Builder assembles the best prefilter for a set of literal prefixes.
type Builder struct {
	prefixes *literal.Seq
}

// NewBuilder creates a Builder over the extracted prefixes.
func NewBuilder(prefixes *literal.Seq) *Builder {
	return &Builder{prefixes: prefixes}
}

// Build picks a scanning strategy for the literal set, preferring the
// cheapest primitive that covers it. Returns nil when the set is empty
// or no strategy fits; the engine then searches without a prefilter.
func (b *Builder) Build() Prefilter {
	if b.prefixes.IsEmpty() {
		return nil
	}

	if b.prefixes.Len() == 1 {
		lit := b.prefixes.Get(0)
		if lit.Len() == 0 {
			return nil
		}
		if lit.Len() == 1 {
			return &memchrPrefilter{needle: lit.Bytes[0], complete: lit.Complete}
		}
		return &memmemPrefilter{needle: lit.Bytes, complete: lit.Complete}
	}

	// Several alternatives: scanning for the distinct leading bytes
	// keeps every literal's start positions in the candidate set.
	var leads []byte
	for i := 0; i < b.prefixes.Len(); i++ {
		lit := b.prefixes.Get(i)
		if lit.Len() == 0 {
			return nil
		}
		b0 := lit.Bytes[0]
		seen := false
		for _, l := range leads {
			if l == b0 {
				seen = true
				break
			}
		}
		if !seen {
			leads = append(leads, b0)
		}
	}

	switch len(leads) {
	case 1:
		return &memchrPrefilter{needle: leads[0]}
	case 2:
		return &memchr2Prefilter{n1: leads[0], n2: leads[1]}
	case 3:
		return &memchr3Prefilter{n1: leads[0], n2: leads[1], n3: leads[2]}
	}

	// Too many leading bytes for byte scans: match the full literals
	// with an Aho-Corasick automaton instead.
	builder := ahocorasick.NewBuilder()
	for i := 0; i < b.prefixes.Len(); i++ {
		builder.AddPattern(b.prefixes.Get(i).Bytes)
	}
	auto, err := builder.Build()
	if err != nil {
		return nil
	}
	total := 0
	for i := 0; i < b.prefixes.Len(); i++ {
		total += b.prefixes.Get(i).Len()
	}
	return &ahoPrefilter{auto: auto, patternBytes: total}
}

// memchrPrefilter scans for one byte. It is also the fallback for
// multiple literals that share their first byte.
type memchrPrefilter struct {
	needle   byte
	complete bool
}

func (p *memchrPrefilter) Find(haystack []byte, start int) int {
	if start >= len(haystack) {
		return -1
	}
	i := simd.Memchr(haystack[start:], p.needle)
	if i < 0 {
		return -1
	}
	return start + i
}

func (p *memchrPrefilter) IsComplete() bool { return p.complete }
func (p *memchrPrefilter) LiteralLen() int  { return 1 }
func (p *memchrPrefilter) HeapBytes() int   { return 0 }

// memchr2Prefilter scans for the earlier of two lead bytes.
type memchr2Prefilter struct {
	n1, n2 byte
}

func (p *memchr2Prefilter) Find(haystack []byte, start int) int {
	if start >= len(haystack) {
		return -1
	}
	i := simd.Memchr2(haystack[start:], p.n1, p.n2)
	if i < 0 {
		return -1
	}
	return start + i
}

func (p *memchr2Prefilter) IsComplete() bool { return false }
func (p *memchr2Prefilter) LiteralLen() int  { return 1 }
func (p *memchr2Prefilter) HeapBytes() int   { return 0 }

// memchr3Prefilter scans for the earliest of three lead bytes.
type memchr3Prefilter struct {
	n1, n2, n3 byte
}

func (p *memchr3Prefilter) Find(haystack []byte, start int) int {
	if start >= len(haystack) {
		return -1
	}
	i := simd.Memchr3(haystack[start:], p.n1, p.n2, p.n3)
	if i < 0 {
		return -1
	}
	return start + i
}

func (p *memchr3Prefilter) IsComplete() bool { return false }
func (p *memchr3Prefilter) LiteralLen() int  { return 1 }
func (p *memchr3Prefilter) HeapBytes() int   { return 0 }

// memmemPrefilter scans for one multi-byte literal.
type memmemPrefilter struct {
	needle   []byte
	complete bool
}

func (p *memmemPrefilter) Find(haystack []byte, start int) int {
	if start > len(haystack) {
		return -1
	}
	i := simd.Memmem(haystack[start:], p.needle)
	if i < 0 {
		return -1
	}
	return start + i
}

func (p *memmemPrefilter) IsComplete() bool { return p.complete }
func (p *memmemPrefilter) LiteralLen() int  { return len(p.needle) }
func (p *memmemPrefilter) HeapBytes() int   { return len(p.needle) }

// ahoPrefilter scans for many literals at once with an Aho-Corasick
// automaton.
type ahoPrefilter struct {
	auto         *ahocorasick.Automaton
	patternBytes int
}

func (p *ahoPrefilter) Find(haystack []byte, start int) int {
	if start >= len(haystack) {
		return -1
	}
	m := p.auto.Find(haystack, start)
	if m == nil {
		return -1
	}
	return m.Start
}

func (p *ahoPrefilter) IsComplete() bool { return false }
func (p *ahoPrefilter) LiteralLen() int  { return 1 }
func (p *ahoPrefilter) HeapBytes() int   { return p.patternBytes }
