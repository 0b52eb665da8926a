package surfmesh

// handle addresses an arena slot. The generation distinguishes successive
// occupants of the same slot so handles to released entities never resolve
// to a newer entity. The zero handle is never valid since live generations
// start at 1.
type handle struct {
	idx uint32
	gen uint32
}

type slot[T any] struct {
	gen  uint32
	live bool
	v    *T
}

// arena stores entities behind generational handles. Removal is two phase:
// kill marks a slot dead so lookups fail while the slot stays reserved, and
// release makes dead slots reusable by bumping their generation. Iterating
// over slot indices is therefore safe while entities are killed.
type arena[T any] struct {
	slots []slot[T]
	free  []uint32
	dead  []uint32
	live  int
}

func (a *arena[T]) alloc(v *T) handle {
	a.live++
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.live = true
		s.v = v
		return handle{idx: idx, gen: s.gen}
	}
	a.slots = append(a.slots, slot[T]{gen: 1, live: true, v: v})
	return handle{idx: uint32(len(a.slots) - 1), gen: 1}
}

func (a *arena[T]) get(h handle) *T {
	if int(h.idx) >= len(a.slots) {
		return nil
	}
	s := &a.slots[h.idx]
	if !s.live || s.gen != h.gen {
		return nil
	}
	return s.v
}

// kill soft deletes the entity at h. It reports false if h was not live.
func (a *arena[T]) kill(h handle) bool {
	if a.get(h) == nil {
		return false
	}
	a.slots[h.idx].live = false
	a.dead = append(a.dead, h.idx)
	a.live--
	return true
}

// release makes every killed slot reusable.
func (a *arena[T]) release() int {
	n := len(a.dead)
	for _, idx := range a.dead {
		s := &a.slots[idx]
		s.gen++
		s.v = nil
		a.free = append(a.free, idx)
	}
	a.dead = a.dead[:0]
	return n
}

// cap returns the number of slots, live or not. Slot indices below it may
// be passed to at.
func (a *arena[T]) cap() int { return len(a.slots) }

// at returns the handle and entity of slot idx, or a nil entity if the slot
// is not live.
func (a *arena[T]) at(idx int) (handle, *T) {
	s := &a.slots[idx]
	if !s.live {
		return handle{}, nil
	}
	return handle{idx: uint32(idx), gen: s.gen}, s.v
}

// clone copies the arena structure. cp is called on every live or killed
// entity to produce its copy.
func (a *arena[T]) clone(cp func(*T) *T) arena[T] {
	c := arena[T]{
		slots: make([]slot[T], len(a.slots)),
		free:  append([]uint32(nil), a.free...),
		dead:  append([]uint32(nil), a.dead...),
		live:  a.live,
	}
	for i, s := range a.slots {
		c.slots[i] = slot[T]{gen: s.gen, live: s.live}
		if s.v != nil {
			c.slots[i].v = cp(s.v)
		}
	}
	return c
}
