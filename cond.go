package uthread

import "time"

// Cond is a condition variable paired with a caller-supplied Mutex, per
// spec.md §5.2, grounded on original_source/src/condvar.c. Wakeups are
// spurious-safe by design — this port deliberately ignores the original's
// signal_seq bookkeeping (spec.md §9 notes it only exists to narrow,
// never eliminate, the spurious-wakeup window), so every caller is
// expected to re-check its predicate in a loop, the standard condition
// variable contract.
// waiters is an embedded value, not a pointer, so a zero-value Cond is
// already usable without a lazy-allocation guard — the static-initializer
// path spec.md §4.7/§6 call for (original_source/include/uthread.h's
// UTHREAD_COND_INITIALIZER).
type Cond struct {
	waiters waitQueue
}

// NewCond returns a new, empty condition variable.
func NewCond() *Cond {
	return &Cond{}
}

// Wait atomically releases m and blocks the calling thread, which must
// currently hold m, then reacquires m before returning. The release and
// the block happen inside a single critical section so a concurrent
// Signal can't be lost between them.
func (c *Cond) Wait(m *Mutex) error {
	preemptionDisable()
	current := globalSched.current
	if m.owner != current {
		preemptionEnable()
		return ErrNotPermitted
	}

	savedCount := m.recursionCount
	m.owner = nil
	m.recursionCount = 0
	m.waiters.wakeOne()

	schedulerBlock(&c.waiters)
	preemptionEnable()

	if err := m.Lock(); err != nil {
		return err
	}

	preemptionDisable()
	m.recursionCount = savedCount
	preemptionEnable()
	return nil
}

// TimedWait is Wait with a bound on how long to block. It reports
// timedOut=true and ErrTimedOut if d elapses before a Signal or
// Broadcast reaches this waiter.
func (c *Cond) TimedWait(m *Mutex, d time.Duration) (timedOut bool, err error) {
	preemptionDisable()
	current := globalSched.current
	if m.owner != current {
		preemptionEnable()
		return false, ErrNotPermitted
	}

	savedCount := m.recursionCount
	m.owner = nil
	m.recursionCount = 0
	m.waiters.wakeOne()

	current.wakeDeadlineNS = deadlineFromDuration(d)
	current.timedOut = false
	schedulerBlock(&c.waiters)
	current.wakeDeadlineNS = 0
	timedOut = current.timedOut
	preemptionEnable()

	if lerr := m.Lock(); lerr != nil {
		return timedOut, lerr
	}
	preemptionDisable()
	m.recursionCount = savedCount
	preemptionEnable()

	if timedOut {
		return true, ErrTimedOut
	}
	return false, nil
}

// Signal wakes at most one thread blocked in Wait/TimedWait, if any.
func (c *Cond) Signal() {
	preemptionDisable()
	c.waiters.wakeOne()
	preemptionEnable()
}

// Broadcast wakes every thread currently blocked in Wait/TimedWait.
func (c *Cond) Broadcast() {
	preemptionDisable()
	c.waiters.wakeAll()
	preemptionEnable()
}

// Destroy reports ErrBusy if any thread is currently blocked in Wait or
// TimedWait, matching spec.md §4.7's destroy contract (shared by every
// waited-on primitive).
func (c *Cond) Destroy() error {
	preemptionDisable()
	defer preemptionEnable()
	if !c.waiters.empty() {
		return ErrBusy
	}
	return nil
}
