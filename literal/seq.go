// Package literal extracts the byte sequences a compiled pattern must
// start with.
//
// The sequences feed the prefilter: when every match of a pattern has to
// begin with one of a small set of literals, a fast substring scan can
// rule out most of the subject before the engine runs at all.
//
// Key concepts:
//   - A Literal is a concrete byte sequence matches can start with
//   - A Seq is the set of alternatives (e.g. from /foo|bar/)
//   - Minimize removes literals shadowed by one of their own prefixes
package literal

import (
	"bytes"
	"sort"
)

// Literal is one byte sequence a match can start with. Complete marks a
// literal that is an entire match on its own, not just a prefix; a
// prefilter hit on a complete literal of a single-literal sequence needs
// no engine verification.
type Literal struct {
	// Bytes is the literal byte sequence.
	Bytes []byte

	// Complete reports whether the whole match equals Bytes.
	Complete bool
}

// NewLiteral creates a Literal from the given bytes and completeness.
func NewLiteral(b []byte, complete bool) Literal {
	return Literal{Bytes: b, Complete: complete}
}

// Len returns the length of the literal in bytes.
func (l Literal) Len() int {
	return len(l.Bytes)
}

// String formats the literal for debugging.
func (l Literal) String() string {
	complete := "false"
	if l.Complete {
		complete = "true"
	}
	return "literal{" + string(l.Bytes) + ", complete=" + complete + "}"
}

// Seq is a set of alternative literals. Every match of the pattern the
// sequence was extracted from starts with one of its members; that
// property is what makes a prefilter built from it sound.
type Seq struct {
	literals []Literal
}

// NewSeq creates a sequence from the given literals.
func NewSeq(lits ...Literal) *Seq {
	s := &Seq{}
	for _, lit := range lits {
		s.Add(lit)
	}
	return s
}

// Add inserts lit, merging it with an existing literal holding the same
// bytes. A merged literal is only complete when both sides are: if some
// path of the pattern continues past these bytes, a prefilter hit cannot
// stand in for a real match.
func (s *Seq) Add(lit Literal) {
	for i := range s.literals {
		if bytes.Equal(s.literals[i].Bytes, lit.Bytes) {
			s.literals[i].Complete = s.literals[i].Complete && lit.Complete
			return
		}
	}
	s.literals = append(s.literals, lit)
}

// Len returns the number of literals in the sequence.
func (s *Seq) Len() int {
	if s == nil {
		return 0
	}
	return len(s.literals)
}

// Get returns the literal at index i.
func (s *Seq) Get(i int) Literal {
	return s.literals[i]
}

// IsEmpty reports whether the sequence has no literals.
func (s *Seq) IsEmpty() bool {
	return s == nil || len(s.literals) == 0
}

// Minimize drops literals that have another member of the sequence as a
// prefix. Scanning for "foo" already finds every place "foobar" could
// start, so the longer literal only widens the scan. The surviving
// prefix loses its Complete flag when it shadows another literal: the
// dropped alternative may run past the survivor, so a hit alone no
// longer proves a whole match.
func (s *Seq) Minimize() {
	if s.IsEmpty() {
		return
	}

	sort.Slice(s.literals, func(i, j int) bool {
		a, b := s.literals[i].Bytes, s.literals[j].Bytes
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return bytes.Compare(a, b) < 0
	})

	kept := s.literals[:0]
	for _, lit := range s.literals {
		shadowed := false
		for k := range kept {
			if isPrefix(kept[k].Bytes, lit.Bytes) {
				kept[k].Complete = false
				shadowed = true
				break
			}
		}
		if !shadowed {
			kept = append(kept, lit)
		}
	}
	s.literals = kept
}

// isPrefix reports whether prefix is a prefix of b.
func isPrefix(prefix, b []byte) bool {
	if len(prefix) > len(b) {
		return false
	}
	return bytes.Equal(prefix, b[:len(prefix)])
}
