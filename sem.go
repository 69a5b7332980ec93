package uthread

import "time"

// Semaphore is a counting semaphore with a FIFO wait queue, grounded on
// original_source/src/semaphore.c.
type Semaphore struct {
	value   int
	waiters *waitQueue
}

// NewSemaphore returns a semaphore initialized to the given non-negative
// count.
func NewSemaphore(initial int) (*Semaphore, error) {
	if initial < 0 {
		return nil, ErrInvalidArgument
	}
	return &Semaphore{value: initial, waiters: newWaitQueue()}, nil
}

// Wait decrements the semaphore, blocking while its value is zero.
func (s *Semaphore) Wait() error {
	preemptionDisable()
	for s.value == 0 {
		schedulerBlock(s.waiters)
	}
	s.value--
	preemptionEnable()
	return nil
}

// TryWait decrements the semaphore without blocking, returning
// ErrWouldBlock if its value is currently zero.
func (s *Semaphore) TryWait() error {
	preemptionDisable()
	defer preemptionEnable()
	if s.value == 0 {
		return ErrWouldBlock
	}
	s.value--
	return nil
}

// TimedWait is Wait with a bound on how long to block, returning
// ErrTimedOut if d elapses first.
func (s *Semaphore) TimedWait(d time.Duration) error {
	preemptionDisable()
	current := globalSched.current
	deadline := deadlineFromDuration(d)
	for s.value == 0 {
		current.wakeDeadlineNS = deadline
		current.timedOut = false
		schedulerBlock(s.waiters)
		current.wakeDeadlineNS = 0
		if current.timedOut {
			preemptionEnable()
			return ErrTimedOut
		}
	}
	s.value--
	preemptionEnable()
	return nil
}

// Post increments the semaphore, waking one blocked waiter if any.
func (s *Semaphore) Post() error {
	preemptionDisable()
	s.value++
	s.waiters.wakeOne()
	preemptionEnable()
	return nil
}

// GetValue returns the semaphore's current count.
func (s *Semaphore) GetValue() int {
	preemptionDisable()
	defer preemptionEnable()
	return s.value
}

// Destroy reports ErrBusy if any thread is currently blocked in Wait,
// TimedWait, matching spec.md §4.7's destroy contract.
func (s *Semaphore) Destroy() error {
	preemptionDisable()
	defer preemptionEnable()
	if !s.waiters.empty() {
		return ErrBusy
	}
	return nil
}
