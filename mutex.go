package uthread

// MutexKind selects a mutex's re-lock-by-owner behavior, mirroring
// pthread's PTHREAD_MUTEX_* kinds (spec.md §5.1), grounded on
// original_source/src/mutex.c.
type MutexKind int

const (
	// MutexNormal deadlocks (blocks forever against itself) if the owner
	// relocks it — undefined behavior in the original, realized here as
	// the simplest faithful equivalent: it blocks like any other waiter,
	// including against its own owner.
	MutexNormal MutexKind = iota
	// MutexRecursive lets the owner relock it any number of times, counting
	// each relock, and requires a matching number of Unlock calls.
	MutexRecursive
	// MutexErrorCheck returns ErrDeadlock from both Lock and TryLock when
	// the caller already owns it, instead of blocking.
	MutexErrorCheck
)

// Mutex is a mutual-exclusion lock with pluggable re-lock semantics and a
// FIFO wait queue, grounded on original_source/src/mutex.c. waiters is an
// embedded value, not a pointer, so a zero-value Mutex is already a valid
// unlocked MutexNormal — the static-initializer path spec.md §4.7/§6 call
// for (original_source/include/uthread.h's UTHREAD_MUTEX_INITIALIZER),
// with no lazy-allocation guard needed on first use.
type Mutex struct {
	kind           MutexKind
	owner          *Thread
	recursionCount int
	waiters        waitQueue
}

// NewMutex returns an unlocked mutex of the given kind.
func NewMutex(kind MutexKind) *Mutex {
	return &Mutex{kind: kind}
}

// Lock acquires m, blocking the calling thread until it is available.
// Only MutexErrorCheck reports an error on self-relock; MutexRecursive
// counts it, and MutexNormal self-relock blocks forever, matching the
// original's documented undefined behavior with the least surprising
// realization available in Go.
func (m *Mutex) Lock() error {
	preemptionDisable()
	current := globalSched.current

	for {
		if m.owner == nil {
			m.owner = current
			m.recursionCount = 1
			preemptionEnable()
			return nil
		}
		if m.owner == current {
			switch m.kind {
			case MutexRecursive:
				m.recursionCount++
				preemptionEnable()
				return nil
			case MutexErrorCheck:
				preemptionEnable()
				return ErrDeadlock
			}
		}
		schedulerBlock(&m.waiters)
	}
}

// TryLock acquires m without blocking, returning ErrBusy if it is already
// held (ErrDeadlock for MutexErrorCheck's self-relock case, matching
// spec.md's "trylock on an error-check mutex already owned by the caller
// returns EDEADLK, not EBUSY").
func (m *Mutex) TryLock() error {
	preemptionDisable()
	defer preemptionEnable()

	current := globalSched.current
	if m.owner == nil {
		m.owner = current
		m.recursionCount = 1
		return nil
	}
	if m.owner == current {
		switch m.kind {
		case MutexRecursive:
			m.recursionCount++
			return nil
		case MutexErrorCheck:
			return ErrDeadlock
		}
	}
	return ErrBusy
}

// Unlock releases m. For MutexRecursive it only releases ownership once
// the recursion count reaches zero. Unlocking a mutex the caller does not
// own returns ErrNotPermitted.
func (m *Mutex) Unlock() error {
	preemptionDisable()
	defer preemptionEnable()

	current := globalSched.current
	if m.owner != current {
		return ErrNotPermitted
	}

	m.recursionCount--
	if m.recursionCount > 0 {
		return nil
	}

	m.owner = nil
	m.waiters.wakeOne()
	return nil
}

// Destroy reports ErrBusy if m is currently locked or has waiters, matching
// spec.md §4.7's destroy contract; otherwise it is a no-op (Go's GC reclaims
// the Mutex itself once unreferenced).
func (m *Mutex) Destroy() error {
	preemptionDisable()
	defer preemptionEnable()
	if m.owner != nil || !m.waiters.empty() {
		return ErrBusy
	}
	return nil
}
