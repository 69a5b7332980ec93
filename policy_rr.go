package uthread

// roundRobinPolicy is a single FIFO run queue, grounded on
// original_source/src/sched_rr.c.
type roundRobinPolicy struct {
	head, tail *Thread
	count      int
}

func newRoundRobinPolicy() *roundRobinPolicy {
	return &roundRobinPolicy{}
}

func (p *roundRobinPolicy) init()     {}
func (p *roundRobinPolicy) shutdown() { *p = roundRobinPolicy{} }

func (p *roundRobinPolicy) enqueue(t *Thread) {
	t.next = nil
	t.prev = p.tail
	if p.tail != nil {
		p.tail.next = t
	} else {
		p.head = t
	}
	p.tail = t
	p.count++
	t.timesliceRemaining = globalSched.timesliceNS
}

func (p *roundRobinPolicy) dequeue() *Thread {
	t := p.head
	if t == nil {
		return nil
	}
	p.head = t.next
	if p.head != nil {
		p.head.prev = nil
	} else {
		p.tail = nil
	}
	t.next = nil
	t.prev = nil
	p.count--
	return t
}

// remove does a linear search before unlinking, exactly as
// sched_rr.c:rr_remove does — spec.md §9's open questions explicitly call
// this out as acceptable: faithful semantics don't require O(1) removal,
// only that an arbitrary TCB can be dequeued (used on thread exit).
func (p *roundRobinPolicy) remove(t *Thread) {
	found := false
	for cur := p.head; cur != nil; cur = cur.next {
		if cur == t {
			found = true
			break
		}
	}
	if !found {
		return
	}

	if t.prev != nil {
		t.prev.next = t.next
	} else {
		p.head = t.next
	}
	if t.next != nil {
		t.next.prev = t.prev
	} else {
		p.tail = t.prev
	}
	t.next = nil
	t.prev = nil
	p.count--
}

func (p *roundRobinPolicy) onYield(t *Thread) {}

func (p *roundRobinPolicy) onTick(t *Thread, elapsedNS uint64) {
	if t.timesliceRemaining > elapsedNS {
		t.timesliceRemaining -= elapsedNS
	} else {
		t.timesliceRemaining = 0
	}
}

func (p *roundRobinPolicy) shouldPreempt(current *Thread) bool {
	return current.timesliceRemaining == 0 && p.count > 0
}

func (p *roundRobinPolicy) updatePriority(t *Thread) {}

func (p *roundRobinPolicy) name() string { return "Round-Robin" }
