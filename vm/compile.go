package vm

import (
	"github.com/rexvm/rex/internal/conv"
)

const (
	// MaxNestingDepth bounds how deeply groups may nest. Each open group
	// pushes a frame on the compiler's scope stack, so the bound keeps
	// pathological patterns from growing it without limit.
	MaxNestingDepth = 64

	// maxProgramWords caps the compiled program size. Counted repetition
	// is unrolled, so a short pattern can demand an enormous program;
	// the cap also keeps every relative jump well inside int32 range.
	maxProgramWords = 1 << 22

	// maxRepeatBound is the largest bound accepted in a {m,n} repetition.
	maxRepeatBound = 65535
)

// Compile translates a pattern into its bytecode Program.
//
// Compilation runs the parser twice: the first pass only measures the
// program, the second emits into an exactly-sized buffer. Both passes
// share the same code path, so they cannot disagree on layout.
//
// Errors are returned wrapped in *CompileError and satisfy errors.Is
// against the sentinel values in this package.
func Compile(pattern string) (*Program, error) {
	sizer := compiler{pat: []byte(pattern)}
	if err := sizer.run(); err != nil {
		return nil, &CompileError{Pattern: pattern, Err: err}
	}

	emitter := compiler{
		pat:   sizer.pat,
		code:  make([]int32, sizer.pc, sizer.pc+3),
		nsubs: sizer.ncaps,
	}
	if err := emitter.run(); err != nil {
		return nil, &CompileError{Pattern: pattern, Err: err}
	}
	if emitter.pc != sizer.pc || emitter.ncaps != sizer.ncaps {
		panic("vm: compiler passes disagree on program layout")
	}

	// Every program ends by closing the whole-match capture pair and
	// reporting the match. Slot 0 is written when a thread spawns, so
	// the closing slot is ncaps+1.
	code := append(emitter.code, int32(OpSave), conv.IntToInt32(emitter.ncaps+1), int32(OpMatch))

	p := &Program{
		code:    code,
		numCaps: emitter.ncaps,
	}
	for pc := 0; pc < len(code); pc += Width(code, pc) {
		p.numInsts++
		switch Op(code[pc]) {
		case OpSplit, OpRSplit:
			p.numSplits++
		}
	}
	p.anchored = anchoredStart(code)
	return p, nil
}

// compiler holds the state of one parse pass. When code is nil the pass
// only sizes the program: emit and emitAt discard their values but pc
// advances exactly as in the emitting pass.
type compiler struct {
	pat  []byte
	code []int32
	pc   int

	// nsubs is the total capture-group count, known only in the second
	// pass. The closing save slot of group k is k+nsubs+1.
	nsubs int

	ncaps int // groups opened so far

	start   int // first instruction of the current alternation branch set
	term    int // first instruction of the most recent atom
	patches []int
	groups  []groupFrame
}

// groupFrame snapshots the enclosing scope while a group compiles.
// patchBase marks the pending branch jumps that belong to the group; they
// are resolved when it closes. sub is the capture index, 0 for (?: groups.
type groupFrame struct {
	sub       int
	term      int
	start     int
	patchBase int
}

func (c *compiler) emit(w int32) {
	if c.code != nil {
		c.code[c.pc] = w
	}
	c.pc++
}

func (c *compiler) emitAt(at int, w int32) {
	if c.code != nil {
		c.code[at] = w
	}
}

// insert opens a hole of n words at position at, shifting everything
// after it. Pending patch slots move with the code they live in.
func (c *compiler) insert(at, n int) {
	if c.code != nil {
		copy(c.code[at+n:c.pc+n], c.code[at:c.pc])
	}
	c.pc += n
	for i, slot := range c.patches {
		if slot >= at {
			c.patches[i] = slot + n
		}
	}
}

// copyAtom re-emits the size words starting at from. Relative jumps make
// the copied block position independent.
func (c *compiler) copyAtom(from, size int) {
	if c.code != nil {
		copy(c.code[c.pc:c.pc+size], c.code[from:from+size])
	}
	c.pc += size
}

// patchBranches resolves the branch jumps recorded since base to point
// just past the current end of code.
func (c *compiler) patchBranches(base int) {
	for _, slot := range c.patches[base:] {
		c.emitAt(slot, conv.IntToInt32(c.pc-slot-1))
	}
	c.patches = c.patches[:base]
}

func (c *compiler) run() error {
	pat := c.pat
	i := 0
	for i < len(pat) {
		switch pat[i] {
		case '\\':
			i++
			if i == len(pat) {
				return ErrTrailingBackslash
			}
			n, err := c.escape(i)
			if err != nil {
				return err
			}
			i += n

		case '.':
			c.term = c.pc
			c.emit(int32(OpAny))
			i++

		case '^':
			c.emit(int32(OpBeginText))
			c.term = c.pc
			i++

		case '$':
			c.emit(int32(OpEndText))
			c.term = c.pc
			i++

		case '[':
			n, err := c.class(i)
			if err != nil {
				return err
			}
			i += n

		case '(':
			if len(c.groups) == MaxNestingDepth {
				return ErrNestingTooDeep
			}
			c.term = c.pc
			open := 1
			sub := 0
			if i+1 < len(pat) && pat[i+1] == '?' {
				if i+2 >= len(pat) || pat[i+2] != ':' {
					return ErrInvalidGroup
				}
				open = 3
			} else {
				c.ncaps++
				sub = c.ncaps
				c.emit(int32(OpSave))
				c.emit(conv.IntToInt32(sub))
			}
			c.groups = append(c.groups, groupFrame{
				sub:       sub,
				term:      c.term,
				start:     c.start,
				patchBase: len(c.patches),
			})
			c.start = c.pc
			i += open

		case ')':
			if len(c.groups) == 0 {
				return ErrUnbalancedParens
			}
			f := c.groups[len(c.groups)-1]
			c.groups = c.groups[:len(c.groups)-1]
			c.patchBranches(f.patchBase)
			c.start = f.start
			c.term = f.term
			if f.sub != 0 {
				c.emit(int32(OpSave))
				c.emit(conv.IntToInt32(f.sub + c.nsubs + 1))
			}
			i++

		case '|':
			// Finished branch jumps to the end of the branch set; the
			// split trying it goes in front of the whole set, so later
			// alternatives stack outside earlier ones.
			c.insert(c.start, 2)
			c.emit(int32(OpJmp))
			c.patches = append(c.patches, c.pc)
			c.emit(0)
			c.emitAt(c.start, int32(OpSplit))
			c.emitAt(c.start+1, conv.IntToInt32(c.pc-c.start-2))
			c.term = c.pc
			i++

		case '?':
			if c.pc == c.term {
				return ErrNothingToRepeat
			}
			op := OpSplit
			if i+1 < len(pat) && pat[i+1] == '?' {
				op = OpRSplit
				i++
			}
			c.insert(c.term, 2)
			c.emitAt(c.term, int32(op))
			c.emitAt(c.term+1, conv.IntToInt32(c.pc-c.term-2))
			c.term = c.pc
			i++

		case '*':
			if c.pc == c.term {
				return ErrNothingToRepeat
			}
			op := OpSplit
			if i+1 < len(pat) && pat[i+1] == '?' {
				op = OpRSplit
				i++
			}
			c.insert(c.term, 2)
			jmp := c.pc
			c.emit(int32(OpJmp))
			c.emit(conv.IntToInt32(c.term - jmp - 2))
			c.emitAt(c.term, int32(op))
			c.emitAt(c.term+1, conv.IntToInt32(c.pc-c.term-2))
			c.term = c.pc
			i++

		case '+':
			if c.pc == c.term {
				return ErrNothingToRepeat
			}
			// Greedy + prefers the branch looping back over the atom.
			op := OpRSplit
			if i+1 < len(pat) && pat[i+1] == '?' {
				op = OpSplit
				i++
			}
			at := c.pc
			c.emit(int32(op))
			c.emit(conv.IntToInt32(c.term - at - 2))
			c.term = c.pc
			i++

		case '{':
			n, err := c.repeat(i)
			if err != nil {
				return err
			}
			i += n

		default:
			c.term = c.pc
			r, n := decodeRune(pat, i)
			c.emit(int32(OpChar))
			c.emit(int32(r))
			i += n
		}

		if c.pc > maxProgramWords {
			return ErrProgramTooLarge
		}
	}

	if len(c.groups) != 0 {
		return ErrUnbalancedParens
	}
	c.patchBranches(0)
	return nil
}

// escape compiles the escape whose letter is at pat[i] (the backslash is
// already consumed) and returns how many pattern bytes it used.
func (c *compiler) escape(i int) (int, error) {
	pat := c.pat
	switch pat[i] {
	case '<':
		c.emit(int32(OpWordBegin))
		c.term = c.pc
		return 1, nil
	case '>':
		c.emit(int32(OpWordEnd))
		c.term = c.pc
		return 1, nil
	case 'd', 'D', 's', 'S', 'w', 'W':
		// A shorthand outside brackets is a one-pair class.
		c.term = c.pc
		c.emit(int32(OpClass))
		c.emit(1)
		c.emit(1)
		c.emit(classEscape)
		c.emit(int32(pat[i]))
		return 1, nil
	case 'n', 'r', 't', 'b', 'f', 'v':
		c.term = c.pc
		c.emit(int32(OpChar))
		c.emit(int32(controlChar(pat[i])))
		return 1, nil
	case 'x':
		v, ok := hexByte(pat, i+1)
		if !ok {
			return 0, ErrInvalidEscape
		}
		c.term = c.pc
		c.emit(int32(OpChar))
		c.emit(int32(v))
		return 3, nil
	}
	// Anything else stands for itself.
	c.term = c.pc
	r, n := decodeRune(pat, i)
	c.emit(int32(OpChar))
	c.emit(int32(r))
	return n, nil
}

// class compiles the bracket expression starting at pat[i] == '[' and
// returns how many pattern bytes it consumed.
//
// Layout: CLASS, positive, npairs, then (lo,hi) pairs. A pair whose lo is
// classEscape carries a shorthand letter in hi. An empty class is legal
// and matches nothing (or, negated, any character).
func (c *compiler) class(i int) (int, error) {
	pat := c.pat
	c.term = c.pc
	j := i + 1

	positive := int32(1)
	if j < len(pat) && pat[j] == '^' {
		positive = 0
		j++
	}

	c.emit(int32(OpClass))
	c.emit(positive)
	countAt := c.pc
	c.emit(0)

	pairs := 0
	for {
		if j >= len(pat) {
			return 0, ErrUnterminatedClass
		}
		if pat[j] == ']' {
			j++
			break
		}

		var lo rune
		if pat[j] == '\\' {
			j++
			if j >= len(pat) {
				return 0, ErrUnterminatedClass
			}
			switch b := pat[j]; b {
			case 'd', 'D', 's', 'S', 'w', 'W':
				c.emit(classEscape)
				c.emit(int32(b))
				pairs++
				j++
				continue
			case 'n', 'r', 't', 'b', 'f', 'v':
				lo = controlChar(b)
				j++
			case 'x':
				v, ok := hexByte(pat, j+1)
				if !ok {
					return 0, ErrInvalidEscape
				}
				lo = rune(v)
				j += 3
			default:
				var n int
				lo, n = decodeRune(pat, j)
				j += n
			}
		} else {
			var n int
			lo, n = decodeRune(pat, j)
			j += n
		}

		hi := lo
		// A trailing '-' right before ']' is a literal, not a range.
		if j+1 < len(pat) && pat[j] == '-' && pat[j+1] != ']' {
			j++
			var n int
			hi, n = decodeRune(pat, j)
			j += n
		}
		c.emit(int32(lo))
		c.emit(int32(hi))
		pairs++
	}

	c.emitAt(countAt, conv.IntToInt32(pairs))
	return j - i, nil
}

// repeat compiles the counted repetition starting at pat[i] == '{' by
// copying the preceding atom. {m,} compiles to the atom plus a loop-back
// split; bounded forms unroll into min mandatory copies followed by
// max-min optional ones. Returns how many pattern bytes it consumed.
func (c *compiler) repeat(i int) (int, error) {
	pat := c.pat
	j := i + 1

	readBound := func() (int, bool) {
		v, any := 0, false
		for j < len(pat) && pat[j] >= '0' && pat[j] <= '9' {
			v = v*10 + int(pat[j]-'0')
			if v > maxRepeatBound {
				return v, any
			}
			j++
			any = true
		}
		return v, any
	}

	minCnt, _ := readBound()
	if minCnt > maxRepeatBound {
		return 0, ErrRepeatTooLarge
	}
	maxCnt := minCnt
	unbounded := false
	if j < len(pat) && pat[j] == ',' {
		j++
		if j < len(pat) && pat[j] == '}' {
			unbounded = true
		} else {
			var any bool
			maxCnt, any = readBound()
			if maxCnt > maxRepeatBound {
				return 0, ErrRepeatTooLarge
			}
			if !any {
				return 0, ErrInvalidRepeat
			}
		}
	}
	if j >= len(pat) || pat[j] != '}' {
		return 0, ErrInvalidRepeat
	}
	j++
	if !unbounded && maxCnt < minCnt {
		return 0, ErrInvalidRepeat
	}

	skipOp, loopOp := OpSplit, OpRSplit
	if j < len(pat) && pat[j] == '?' {
		skipOp, loopOp = OpRSplit, OpSplit
		j++
	}

	size := c.pc - c.term
	atom := c.term

	// The unrolled form can dwarf the pattern; bound it before emitting.
	grown := c.pc + 4
	if minCnt > 1 {
		grown += size * (minCnt - 1)
	}
	if !unbounded {
		grown += (size + 2) * (maxCnt - minCnt)
	}
	if grown > maxProgramWords {
		return 0, ErrProgramTooLarge
	}

	if unbounded {
		// {m,}: loop back over the atom just emitted.
		c.emit(int32(loopOp))
		c.emit(conv.IntToInt32(-size - 2))
		maxCnt = minCnt
	}

	wrap := false
	switch {
	case minCnt != 0:
		for k := 1; k < minCnt; k++ {
			c.copyAtom(atom, size)
		}
	case maxCnt == 0 && !unbounded:
		// {0}: the atom is never entered.
		c.insert(atom, 2)
		c.emitAt(atom, int32(OpJmp))
		c.emitAt(atom+1, conv.IntToInt32(c.pc-atom-2))
		c.term = c.pc
		return j - i, nil
	default:
		// {0,n}: the first copy is optional too; wrapped below once the
		// rest are in place.
		minCnt = 1
		wrap = true
	}

	// Optional copies, innermost exit first: each split skips all the
	// copies that follow it.
	for k := maxCnt - minCnt; k > 0; k-- {
		c.emit(int32(skipOp))
		c.emit(conv.IntToInt32((size+2)*k - 2))
		c.copyAtom(atom, size)
	}

	if wrap {
		c.insert(atom, 2)
		c.emitAt(atom, int32(skipOp))
		c.emitAt(atom+1, conv.IntToInt32(c.pc-atom-2))
		c.term = c.pc
	}
	return j - i, nil
}

func controlChar(b byte) rune {
	switch b {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	case 'v':
		return '\v'
	}
	return rune(b)
}

func hexByte(pat []byte, i int) (byte, bool) {
	if i+1 >= len(pat) {
		return 0, false
	}
	hi, lo := hexVal(pat[i]), hexVal(pat[i+1])
	if hi < 0 || lo < 0 {
		return 0, false
	}
	return byte(hi<<4 | lo), true
}

func hexVal(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	}
	return -1
}

// anchoredStart reports whether every path from the program entry hits a
// begin-text assertion before consuming input or matching. Searches of
// such programs only ever need to start a thread at position 0.
func anchoredStart(code []int32) bool {
	seen := make([]bool, len(code))
	var walk func(pc int) bool
	walk = func(pc int) bool {
		for {
			if pc < 0 || pc >= len(code) || seen[pc] {
				return false
			}
			seen[pc] = true
			switch Op(code[pc]) {
			case OpBeginText:
				return true
			case OpSave, OpWordBegin, OpWordEnd, OpEndText:
				pc += Width(code, pc)
			case OpJmp:
				pc += 2 + int(code[pc+1])
			case OpSplit, OpRSplit:
				if !walk(pc + 2 + int(code[pc+1])) {
					return false
				}
				pc += 2
			default:
				return false
			}
		}
	}
	return walk(0)
}
