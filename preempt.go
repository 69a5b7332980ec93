package uthread

import (
	"sync"
	"sync/atomic"
	"time"
)

// Preemption (spec.md §4.5), adapted for the fiber execution model from
// SPEC_FULL.md §1. The original relies on an OS interval timer and a
// signal handler sharing an OS thread with user code, so "preemption
// disabled" is just a masked signal. This port has no signal: a
// background goroutine fed by time.Ticker stands in for the timer, and
// critMu stands in for the signal mask — whichever fiber currently holds
// it is the one "in a critical section"; the ticker uses TryLock so it
// never blocks waiting for that fiber, exactly mirroring step 2 of the
// five-step safety check below ("preemption disabled -> defer, don't
// wait").
var (
	critMu         sync.Mutex
	critDepth      int // owned by whichever fiber is currently running; never touched concurrently, see context.go
	preemptPending atomic.Bool
)

// preemptionDisable increments the critical-section depth, taking the
// lock on the 0->1 transition. Pairs with preemptionEnable.
func preemptionDisable() {
	if critDepth == 0 {
		critMu.Lock()
	}
	critDepth++
	if globalSched.current != nil {
		globalSched.current.inCriticalSect = true
	}
}

// preemptionEnable decrements the depth; on the 1->0 transition it runs
// any tick that the background timer deferred while the section was
// active, then releases the lock — spec.md §4.5's "on reaching zero ...
// clears [preempt_pending] and invokes tick() once."
func preemptionEnable() {
	critDepth--
	if critDepth > 0 {
		return
	}
	if globalSched.current != nil {
		globalSched.current.inCriticalSect = false
	}
	if preemptPending.CompareAndSwap(true, false) {
		schedulerTick()
	}
	critMu.Unlock()
}

// applyPendingPreemption is the checkpoint that applies a deferred
// preemption. It is called from Yield, from Join after the joiner wakes,
// and from the public CheckPreempt; the blocking primitives (Mutex, Cond,
// Semaphore, RWLock) do not call it when they return. It is self-contained (callers
// never need to wrap it in preemptionDisable/Enable themselves) because,
// if a preemption is due, it must release the critical section before
// calling runSchedule — exactly the "enable, then schedule, then disable
// again on wake" shape spec.md §4.7's mutex_lock uses, generalized to
// every checkpoint.
func applyPendingPreemption() {
	preemptionDisable()
	current := globalSched.current
	if current == nil || current == globalSched.idle || !current.preemptRequested {
		preemptionEnable()
		return
	}

	current.preemptRequested = false
	current.state = StateReady
	globalSched.ops.enqueue(current)

	Logger.Debug().Int("tid", current.tid).Msg("deferred preemption applied")

	preemptionEnable()
	runSchedule()
}

// CheckPreempt is the escape hatch SPEC_FULL.md §1 adds for CPU-bound
// loops that never call a blocking primitive or Yield: calling it applies
// any preemption the background timer deferred while this thread was
// running uninterrupted Go code between checkpoints.
func CheckPreempt() {
	applyPendingPreemption()
}

type preemptTimer struct {
	ticker *time.Ticker
	stop   chan struct{}
	done   chan struct{}
}

func newPreemptTimer(interval time.Duration) *preemptTimer {
	return &preemptTimer{
		ticker: time.NewTicker(interval),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (pt *preemptTimer) start() {
	go func() {
		defer close(pt.done)
		for {
			select {
			case <-pt.ticker.C:
				preemptTick()
			case <-pt.stop:
				return
			}
		}
	}()
}

func (pt *preemptTimer) shutdown() {
	pt.ticker.Stop()
	close(pt.stop)
	<-pt.done
}

// preemptTick is the timer-fire handler, implementing spec.md §4.5's
// five-step safety check:
//  1. not initialized -> return.
//  2. preemption disabled (a fiber holds the critical section) -> defer
//     and return, via TryLock failing.
//  3. the scheduler is mid-reschedule (in_scheduler) -> return, never
//     re-enter it.
//  4/5. otherwise, call tick().
func preemptTick() {
	if !globalSched.initialized {
		return
	}

	if !critMu.TryLock() {
		preemptPending.Store(true)
		return
	}
	defer critMu.Unlock()

	if globalSched.inScheduler {
		return
	}

	schedulerTick()
}
