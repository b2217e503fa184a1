package vm

import (
	"github.com/rexvm/rex/internal/conv"
	"github.com/rexvm/rex/internal/sparse"
)

// thread is one execution path through the program: a position in the
// bytecode plus the capture set recorded along the way.
type thread struct {
	pc int32
	h  int32 // capture set handle
}

// MatchState holds the mutable scratch one search needs: the thread
// lists for the current and next position, the closure stack, the
// visited set and the capture arena. States are reusable across
// searches of the same Program and should be pooled; a single state
// must not be used concurrently.
type MatchState struct {
	clist, nlist []thread
	stack        []thread
	seen         *sparse.SparseSet
	arena        *captureArena
	result       []int
}

// NewMatchState returns scratch sized for p. Thread lists are bounded
// by the instruction count, the closure stack by the split count, and
// the arena starts at the worst-case live set count.
func NewMatchState(p *Program) *MatchState {
	return &MatchState{
		clist:  make([]thread, 0, p.numInsts),
		nlist:  make([]thread, 0, p.numInsts),
		stack:  make([]thread, 0, p.numSplits+1),
		seen:   sparse.NewSparseSet(conv.IntToUint32(len(p.code))),
		arena:  newCaptureArena(p.SlotCount(), p.numInsts-p.numSplits+3),
		result: make([]int, p.SlotCount()),
	}
}

func (st *MatchState) reset() {
	st.clist = st.clist[:0]
	st.nlist = st.nlist[:0]
	st.seen.Clear()
	st.arena.reset()
}

// addThread queues the thread (pc, h) after following every control
// instruction reachable from it. Split alternatives are walked depth
// first with the preferred branch continuing inline, so threads land on
// list in priority order. The seen set keeps each program counter
// unique within the current generation; a duplicate arrival is simply
// dropped. Ownership of h moves to the list, or back to the arena when
// every path dies.
func (st *MatchState) addThread(p *Program, subject []byte, pos int, list []thread, pc, h int32) []thread {
	code := p.code
	stack := st.stack[:0]

	for {
		op := Op(code[pc])
		if op.queued() {
			if st.seen.Insert(uint32(pc)) {
				list = append(list, thread{pc: pc, h: h})
			} else {
				st.arena.release(h)
			}
		} else {
			switch op {
			case OpJmp:
				pc += 2 + code[pc+1]
				continue

			case OpSplit:
				if st.seen.Insert(uint32(pc)) {
					st.arena.retain(h)
					stack = append(stack, thread{pc: pc + 2 + code[pc+1], h: h})
					pc += 2
					continue
				}
				st.arena.release(h)

			case OpRSplit:
				if st.seen.Insert(uint32(pc)) {
					st.arena.retain(h)
					stack = append(stack, thread{pc: pc + 2, h: h})
					pc += 2 + code[pc+1]
					continue
				}
				st.arena.release(h)

			case OpSave:
				if st.arena.shared(h) {
					nh := st.arena.allocFrom(h)
					st.arena.release(h)
					h = nh
				}
				st.arena.of(h)[code[pc+1]] = pos
				pc += 2
				continue

			case OpBeginText:
				if pos == 0 {
					pc++
					continue
				}
				st.arena.release(h)

			case OpEndText:
				if pos == len(subject) {
					pc++
					continue
				}
				st.arena.release(h)

			case OpWordBegin:
				if pos < len(subject) && isWordByte(subject[pos]) &&
					(pos == 0 || !isWordByte(subject[pos-1])) {
					pc++
					continue
				}
				st.arena.release(h)

			case OpWordEnd:
				if pos == len(subject) || !isWordByte(subject[pos]) {
					pc++
					continue
				}
				st.arena.release(h)
			}
		}

		// This path is parked or dead; resume a deferred split branch.
		n := len(stack)
		if n == 0 {
			st.stack = stack
			return list
		}
		pc, h = stack[n-1].pc, stack[n-1].h
		stack = stack[:n-1]
	}
}

// Search runs p over subject and returns the slot values of the
// leftmost-first match, or nil when there is none. The slice layout is
// [s0, e0, s1, e1, ...] with pair 0 the whole match; pairs of a group
// that did not participate are -1. The slice is owned by st and only
// valid until its next search. With foldCase set, code points compare
// case-insensitively.
func (p *Program) Search(subject []byte, st *MatchState, foldCase bool) []int {
	st.reset()

	clist, nlist := st.clist, st.nlist
	matched := int32(-1)
	pos := 0

	for {
		atEnd := pos >= len(subject)

		// Until something matches, a lowest-priority attempt starts at
		// every position. Anchored programs only ever start at 0.
		if matched < 0 && (pos == 0 || !p.anchored) {
			h := st.arena.alloc()
			st.arena.of(h)[0] = pos
			clist = st.addThread(p, subject, pos, clist, 0, h)
		}

		if len(clist) == 0 && (matched >= 0 || p.anchored || atEnd) {
			break
		}

		var c rune
		width := 1
		if !atEnd {
			c, width = decodeRune(subject, pos)
			if foldCase {
				c = foldRune(c)
			}
		}
		next := pos + width

		// The closures built while stepping belong to position next.
		st.seen.Clear()

	step:
		for i := 0; i < len(clist); i++ {
			t := clist[i]
			switch op := Op(p.code[t.pc]); op {
			case OpChar:
				if !atEnd && runeEq(p.code[t.pc+1], c, foldCase) {
					nlist = st.addThread(p, subject, next, nlist, t.pc+2, t.h)
				} else {
					st.arena.release(t.h)
				}

			case OpClass:
				if !atEnd && classMatch(p.code, t.pc, c, foldCase) {
					nlist = st.addThread(p, subject, next, nlist, t.pc+3+2*p.code[t.pc+2], t.h)
				} else {
					st.arena.release(t.h)
				}

			case OpAny:
				if !atEnd {
					nlist = st.addThread(p, subject, next, nlist, t.pc+1, t.h)
				} else {
					st.arena.release(t.h)
				}

			case OpMatch:
				// Every thread after this one has lower priority, and
				// any later attempt would start further right.
				if matched >= 0 {
					st.arena.release(matched)
				}
				matched = t.h
				for _, rest := range clist[i+1:] {
					st.arena.release(rest.h)
				}
				break step
			}
		}

		if atEnd {
			break
		}
		clist, nlist = nlist, clist[:0]
		pos = next
	}

	st.clist, st.nlist = clist[:0], nlist[:0]
	if matched < 0 {
		return nil
	}

	slots := st.arena.of(matched)
	half := len(st.result) / 2
	for j := 0; j < half; j++ {
		s, e := slots[j], slots[half+j]
		if s < 0 || e < 0 {
			s, e = -1, -1
		}
		st.result[2*j] = s
		st.result[2*j+1] = e
	}
	st.arena.release(matched)
	return st.result
}

func runeEq(operand int32, c rune, foldCase bool) bool {
	if foldCase {
		// c arrives folded; only the program side still needs it.
		return foldRune(rune(operand)) == c
	}
	return rune(operand) == c
}
