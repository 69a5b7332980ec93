package uthread

// RWLock is a writer-preferring reader/writer lock, grounded on
// original_source/src/rwlock.c: new readers block while a writer holds
// the lock or any writer is waiting, so writers can't starve under a
// steady stream of readers.
// readWaiters/writeWaiters are embedded values, not pointers, so a
// zero-value RWLock is already a valid unlocked lock — the
// static-initializer path spec.md §4.7/§6 call for
// (original_source/include/uthread.h's UTHREAD_RWLOCK_INITIALIZER), with
// no lazy-allocation guard needed on first use.
type RWLock struct {
	readers        int
	writer         *Thread
	pendingWriters int
	readWaiters    waitQueue
	writeWaiters   waitQueue
}

// NewRWLock returns a new, unlocked reader/writer lock.
func NewRWLock() *RWLock {
	return &RWLock{}
}

// RLock acquires a read lock, blocking while a writer holds the lock or
// any writer is waiting (the writer-preferring policy).
func (l *RWLock) RLock() error {
	preemptionDisable()
	for l.writer != nil || l.pendingWriters > 0 {
		schedulerBlock(&l.readWaiters)
	}
	l.readers++
	preemptionEnable()
	return nil
}

// TryRLock acquires a read lock without blocking.
func (l *RWLock) TryRLock() error {
	preemptionDisable()
	defer preemptionEnable()
	if l.writer != nil || l.pendingWriters > 0 {
		return ErrBusy
	}
	l.readers++
	return nil
}

// Lock acquires the write lock, blocking until there are no readers and
// no other writer holds it.
func (l *RWLock) Lock() error {
	preemptionDisable()
	current := globalSched.current
	if l.writer == current {
		preemptionEnable()
		return ErrDeadlock
	}

	l.pendingWriters++
	for l.writer != nil || l.readers > 0 {
		schedulerBlock(&l.writeWaiters)
	}
	l.pendingWriters--
	l.writer = current
	preemptionEnable()
	return nil
}

// TryLock acquires the write lock without blocking.
func (l *RWLock) TryLock() error {
	preemptionDisable()
	defer preemptionEnable()
	if l.writer != nil || l.readers > 0 {
		return ErrBusy
	}
	l.writer = globalSched.current
	return nil
}

// Unlock releases either a read or a write hold. Preferring a waiting
// writer over any waiting readers is what makes this lock
// writer-preferring: a writer unlock, and a reader-count-reaches-zero
// unlock, both check writeWaiters first.
func (l *RWLock) Unlock() error {
	preemptionDisable()
	defer preemptionEnable()

	current := globalSched.current
	switch {
	case l.writer == current:
		l.writer = nil
	case l.readers > 0:
		l.readers--
	default:
		return ErrNotPermitted
	}

	if l.readers == 0 {
		if !l.writeWaiters.empty() {
			l.writeWaiters.wakeOne()
			return nil
		}
		l.readWaiters.wakeAll()
	}
	return nil
}

// Destroy reports ErrBusy if l is currently held (by any reader or the
// writer) or has waiters of either kind, matching spec.md §4.7's destroy
// contract.
func (l *RWLock) Destroy() error {
	preemptionDisable()
	defer preemptionEnable()
	if l.writer != nil || l.readers > 0 || !l.readWaiters.empty() || !l.writeWaiters.empty() {
		return ErrBusy
	}
	return nil
}
