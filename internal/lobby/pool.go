package lobby

// slotPool is a fixed-capacity arena of indexed slots backed by a free-list.
type slotPool struct {
	free []int
	used []bool
}

func newSlotPool(capacity int) *slotPool {
	if capacity < 0 {
		capacity = 0
	}
	p := &slotPool{free: make([]int, 0, capacity), used: make([]bool, capacity)}
	// lowest index is handed out first
	for i := capacity - 1; i >= 0; i-- {
		p.free = append(p.free, i)
	}
	return p
}

func (p *slotPool) acquire() (int, bool) {
	n := len(p.free)
	if n == 0 {
		return -1, false
	}
	i := p.free[n-1]
	p.free = p.free[:n-1]
	p.used[i] = true
	return i, true
}

func (p *slotPool) release(i int) {
	if i < 0 || i >= len(p.used) || !p.used[i] {
		return
	}
	p.used[i] = false
	p.free = append(p.free, i)
}

func (p *slotPool) inUse() int { return len(p.used) - len(p.free) }

func (p *slotPool) capacity() int { return len(p.used) }
