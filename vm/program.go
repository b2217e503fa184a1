// Package vm implements the regex bytecode compiler and the Pike-style
// virtual machine that executes it.
//
// A pattern is compiled into a flat []int32 program. The matcher simulates
// all viable alternatives of the program in lockstep over the subject, one
// position at a time, so matching runs in O(len(program) * len(subject))
// without backtracking. Thread priority encodes the usual leftmost-first
// semantics: earlier alternatives and greedy repetitions win.
package vm

import (
	"fmt"
	"strings"
)

// Op is a bytecode opcode. Opcodes occupy one int32 word; some are
// followed by operand words (see Width).
type Op int32

const (
	// Instructions that hold a position in thread lists between steps.
	OpChar  Op = iota + 1 // consume one code point equal to the operand
	OpClass               // consume one code point matching the class operand
	OpMatch               // report a match
	OpAny                 // consume any single code point

	// Zero-width assertions, resolved during closure.
	OpWordBegin // position precedes a word rune and does not follow one
	OpWordEnd   // position does not precede a word rune
	OpBeginText // position is the start of the subject
	OpEndText   // position is the end of the subject

	// Control instructions, resolved during closure.
	OpSave   // record the current offset in the capture slot operand
	OpJmp    // continue at pc+2+delta
	OpSplit  // fork; prefer the inline path over the jump target
	OpRSplit // fork; prefer the jump target over the inline path
)

// queued reports whether threads at instructions with this opcode sit in
// thread lists between steps. All other opcodes are resolved eagerly while
// building a list.
func (op Op) queued() bool {
	return op <= OpAny
}

var opNames = [...]string{
	OpChar:      "char",
	OpClass:     "class",
	OpMatch:     "match",
	OpAny:       "any",
	OpWordBegin: "wbeg",
	OpWordEnd:   "wend",
	OpBeginText: "bol",
	OpEndText:   "eol",
	OpSave:      "save",
	OpJmp:       "jmp",
	OpSplit:     "split",
	OpRSplit:    "rsplit",
}

func (op Op) String() string {
	if op >= OpChar && op <= OpRSplit {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", int32(op))
}

// classEscape marks a class pair whose second word is a shorthand letter
// ('d', 'D', 's', 'S', 'w', 'W') rather than a range bound.
const classEscape = -1

// Width returns the total number of words occupied by the instruction at
// pc, including the opcode word.
func Width(code []int32, pc int) int {
	switch Op(code[pc]) {
	case OpChar, OpSave, OpJmp, OpSplit, OpRSplit:
		return 2
	case OpClass:
		return 3 + 2*int(code[pc+2])
	default:
		return 1
	}
}

// Program is a compiled pattern.
//
// The zero value is not usable; programs are produced by Compile. A Program
// is immutable after compilation and safe for concurrent use; the mutable
// per-search scratch lives in MatchState.
type Program struct {
	code []int32

	numCaps   int  // capturing groups in the pattern
	numInsts  int  // instruction count (thread list sizing)
	numSplits int  // split instructions (closure stack sizing)
	anchored  bool // every path asserts begin-of-text before consuming
}

// Code returns the raw bytecode. The returned slice is shared with the
// program and must not be modified.
func (p *Program) Code() []int32 {
	return p.code
}

// NumCaps returns the number of capturing groups in the pattern.
func (p *Program) NumCaps() int {
	return p.numCaps
}

// SlotCount returns the number of capture slots a match records: two
// offsets for the whole match plus two per capturing group.
func (p *Program) SlotCount() int {
	return 2 * (p.numCaps + 1)
}

// NumInsts returns the number of instructions in the program.
func (p *Program) NumInsts() int {
	return p.numInsts
}

// NumSplits returns the number of split instructions in the program.
func (p *Program) NumSplits() int {
	return p.numSplits
}

// AnchoredStart reports whether every path through the program asserts
// begin-of-text before consuming input. The matcher uses this to stop
// scanning after the first position.
func (p *Program) AnchoredStart() bool {
	return p.anchored
}

// Disassemble returns a human-readable listing of the program, one
// instruction per line. Intended for tests and debugging.
func (p *Program) Disassemble() string {
	var b strings.Builder
	for pc := 0; pc < len(p.code); pc += Width(p.code, pc) {
		op := Op(p.code[pc])
		fmt.Fprintf(&b, "%4d: %s", pc, op)
		switch op {
		case OpChar:
			fmt.Fprintf(&b, " %q", rune(p.code[pc+1]))
		case OpSave:
			fmt.Fprintf(&b, " %d", p.code[pc+1])
		case OpJmp, OpSplit, OpRSplit:
			fmt.Fprintf(&b, " -> %d", pc+2+int(p.code[pc+1]))
		case OpClass:
			if p.code[pc+1] == 0 {
				b.WriteString(" ^")
			}
			n := int(p.code[pc+2])
			for i := 0; i < n; i++ {
				lo, hi := p.code[pc+3+2*i], p.code[pc+4+2*i]
				if lo == classEscape {
					fmt.Fprintf(&b, " \\%c", rune(hi))
				} else if lo == hi {
					fmt.Fprintf(&b, " %q", rune(lo))
				} else {
					fmt.Fprintf(&b, " %q-%q", rune(lo), rune(hi))
				}
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
