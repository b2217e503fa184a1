package literal

import (
	"unicode/utf8"

	"github.com/rexvm/rex/vm"
)

// ExtractorConfig bounds the work extraction is allowed to do. Past any
// bound the extractor gives up rather than return a partial answer a
// prefilter could not trust.
type ExtractorConfig struct {
	// MaxLiterals caps how many alternative literals may accumulate.
	MaxLiterals int

	// MaxLiteralLen caps the byte length of a single literal; longer
	// prefixes are cut there and marked incomplete.
	MaxLiteralLen int
}

// DefaultConfig returns the extraction bounds used by the engine.
func DefaultConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxLiterals:   64,
		MaxLiteralLen: 32,
	}
}

// Extractor derives the literal prefixes of a compiled program.
type Extractor struct {
	config ExtractorConfig
}

// New creates an Extractor with the given bounds.
func New(config ExtractorConfig) *Extractor {
	return &Extractor{config: config}
}

// ExtractPrefixes walks the program from its entry and collects, per
// path, the bytes every match along that path has to begin with. It
// returns nil when any path could match without a known nonempty prefix
// (then no literal scan can be trusted to find every match start) or
// when a bound was hit.
//
// The walk follows characters, saves and jumps, forks at splits, and
// cuts a path at the first instruction whose byte form is not fixed: a
// class, a dot, an anchor, or a character outside the range where the
// decoder guarantees a unique encoding. Reaching the match instruction
// marks the literal complete: that whole path is the literal and
// nothing else.
func (e *Extractor) ExtractPrefixes(p *vm.Program) *Seq {
	w := walker{
		code:   p.Code(),
		config: e.config,
		steps:  16 * len(p.Code()),
		seq:    NewSeq(),
	}
	if !w.walk(0, nil) {
		return nil
	}
	w.seq.Minimize()
	if w.seq.IsEmpty() {
		return nil
	}
	return w.seq
}

type walker struct {
	code   []int32
	config ExtractorConfig
	steps  int
	path   []int32
	seq    *Seq
}

// walk explores every path from pc, carrying the literal bytes gathered
// so far. It reports whether each path it reached ended in a usable
// literal.
func (w *walker) walk(pc int32, prefix []byte) bool {
	base := len(w.path)
	defer func() { w.path = w.path[:base] }()

	for {
		w.steps--
		if w.steps < 0 {
			return false
		}
		if w.onPath(pc) {
			// Looped back without consuming anything new; whatever was
			// gathered before the loop is still a mandatory prefix.
			return w.accept(prefix, false)
		}
		w.path = append(w.path, pc)

		switch vm.Op(w.code[pc]) {
		case vm.OpChar:
			r := rune(w.code[pc+1])
			if r >= 0x80 && r <= 0xff {
				// These code points also match a lone raw byte of the
				// same value, so their byte form is not unique.
				return w.accept(prefix, false)
			}
			if len(prefix) >= w.config.MaxLiteralLen {
				return w.accept(prefix, false)
			}
			prefix = appendRune(prefix, r)
			pc += 2

		case vm.OpSave:
			pc += 2

		case vm.OpJmp:
			pc += 2 + w.code[pc+1]

		case vm.OpSplit, vm.OpRSplit:
			if !w.walk(pc+2, prefix) {
				return false
			}
			pc += 2 + w.code[pc+1]

		case vm.OpMatch:
			return w.accept(prefix, true)

		default:
			// Class, dot, or an anchor: the next input byte is not a
			// fixed literal. The path keeps what it gathered.
			return w.accept(prefix, false)
		}
	}
}

func (w *walker) onPath(pc int32) bool {
	for _, p := range w.path {
		if p == pc {
			return true
		}
	}
	return false
}

// accept records prefix as one alternative. An empty prefix means some
// path can match input the prefilter would never flag, which poisons
// the whole extraction.
func (w *walker) accept(prefix []byte, complete bool) bool {
	if len(prefix) == 0 {
		return false
	}
	if w.seq.Len() >= w.config.MaxLiterals {
		return false
	}
	b := make([]byte, len(prefix))
	copy(b, prefix)
	w.seq.Add(Literal{Bytes: b, Complete: complete})
	return true
}

// appendRune extends prefix into a fresh backing array; sibling branches
// of a split each carry their own copy.
func appendRune(prefix []byte, r rune) []byte {
	out := make([]byte, len(prefix), len(prefix)+utf8.UTFMax)
	copy(out, prefix)
	return utf8.AppendRune(out, r)
}
