package pool

// Handle is a stable reference to a pooled instance. It goes stale once the
// instance is destroyed, even if the slot is later reused.
type Handle struct {
	slot uint32
	gen  uint32
}

// IsZero reports whether h was never issued
func (h Handle) IsZero() bool {
	return h.gen == 0
}

type slotState uint8

const (
	slotVacant slotState = iota
	slotFree
	slotCheckedOut
)

type slot[T comparable] struct {
	instance T
	key      T
	gen      uint32
	state    slotState
}

// arena tracks every live instance of a pool so returns can be validated
// without scanning free lists.
type arena[T comparable] struct {
	slots  []slot[T]
	vacant []uint32
	index  map[T]uint32
}

func newArena[T comparable]() arena[T] {
	return arena[T]{index: make(map[T]uint32)}
}

func (a *arena[T]) insert(instance, key T, state slotState) Handle {
	var idx uint32
	if n := len(a.vacant); n > 0 {
		idx = a.vacant[n-1]
		a.vacant = a.vacant[:n-1]
	} else {
		a.slots = append(a.slots, slot[T]{})
		idx = uint32(len(a.slots) - 1)
	}

	s := &a.slots[idx]
	s.instance = instance
	s.key = key
	s.state = state
	s.gen++
	a.index[instance] = idx

	return Handle{slot: idx, gen: s.gen}
}

func (a *arena[T]) lookup(instance T) (*slot[T], bool) {
	idx, ok := a.index[instance]
	if !ok {
		return nil, false
	}
	return &a.slots[idx], true
}

func (a *arena[T]) handleOf(instance T) (Handle, bool) {
	idx, ok := a.index[instance]
	if !ok {
		return Handle{}, false
	}
	return Handle{slot: idx, gen: a.slots[idx].gen}, true
}

func (a *arena[T]) resolve(h Handle) (*slot[T], bool) {
	if h.IsZero() || int(h.slot) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[h.slot]
	if s.state == slotVacant || s.gen != h.gen {
		return nil, false
	}
	return s, true
}

// release vacates the slot of instance. The generation is bumped on the next
// insert, which invalidates outstanding handles.
func (a *arena[T]) release(instance T) {
	idx, ok := a.index[instance]
	if !ok {
		return
	}
	var zero T
	s := &a.slots[idx]
	s.instance = zero
	s.key = zero
	s.state = slotVacant
	delete(a.index, instance)
	a.vacant = append(a.vacant, idx)
}

func (a *arena[T]) live() int {
	return len(a.index)
}
