package vm

// captureArena owns the capture sets live threads reference during one
// search. Sets are fixed-stride int runs carved from a single backing
// slab and addressed by index handles, so the slab can grow without
// invalidating anything a thread holds. Sets are reference counted;
// threads forked from a split share one set until a save instruction
// forces a private copy.
type captureArena struct {
	stride int
	slots  []int
	refs   []int32
	free   []int32
	blank  []int
}

func newCaptureArena(stride, capacity int) *captureArena {
	a := &captureArena{
		stride: stride,
		slots:  make([]int, 0, stride*capacity),
		refs:   make([]int32, 0, capacity),
		free:   make([]int32, 0, capacity),
		blank:  make([]int, stride),
	}
	for i := range a.blank {
		a.blank[i] = -1
	}
	return a
}

// of returns the slot run behind h.
func (a *captureArena) of(h int32) []int {
	base := int(h) * a.stride
	return a.slots[base : base+a.stride : base+a.stride]
}

// take hands out an unused handle with refcount 1, reusing a freed set
// when one exists. The slots are whatever the previous owner left.
func (a *captureArena) take() int32 {
	if n := len(a.free); n > 0 {
		h := a.free[n-1]
		a.free = a.free[:n-1]
		a.refs[h] = 1
		return h
	}
	h := int32(len(a.refs))
	a.refs = append(a.refs, 1)
	a.slots = append(a.slots, a.blank...)
	return h
}

// alloc returns a fresh set with every slot unset.
func (a *captureArena) alloc() int32 {
	h := a.take()
	s := a.of(h)
	for i := range s {
		s[i] = -1
	}
	return h
}

// allocFrom returns a fresh set holding a copy of src.
func (a *captureArena) allocFrom(src int32) int32 {
	h := a.take()
	copy(a.of(h), a.of(src))
	return h
}

func (a *captureArena) retain(h int32) { a.refs[h]++ }

func (a *captureArena) release(h int32) {
	a.refs[h]--
	if a.refs[h] == 0 {
		a.free = append(a.free, h)
	}
}

// shared reports whether h must be copied before writing.
func (a *captureArena) shared(h int32) bool { return a.refs[h] > 1 }

// live is the number of sets currently referenced.
func (a *captureArena) live() int { return len(a.refs) - len(a.free) }

func (a *captureArena) reset() {
	a.slots = a.slots[:0]
	a.refs = a.refs[:0]
	a.free = a.free[:0]
}
