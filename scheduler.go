package uthread

// globalSched is the process-wide scheduler singleton, gated by Init /
// Shutdown — spec.md Design Notes §9 calls for exactly this: "a single
// owned state value held by the library with an initialization gate."
type schedulerState struct {
	policy Policy
	ops    policyOps

	current *Thread
	idle    *Thread

	reg registry

	timesliceNS uint64

	schedulerTicks       uint64
	contextSwitches      uint64
	schedulerInvocations uint64
	totalRuntimeNS       uint64

	initialized       bool
	preemptionEnabled bool
	inScheduler       bool
}

var globalSched schedulerState

// schedulerCurrent returns the TCB currently on the (single, logical)
// CPU.
func schedulerCurrent() *Thread {
	return globalSched.current
}

func schedulerAddThread(t *Thread) {
	globalSched.reg.add(t)
}

func schedulerRemoveThread(t *Thread) {
	globalSched.reg.remove(t)
}

// runSchedule implements spec.md §4.4's schedule(): dequeue the next
// ready thread from the active policy (falling back to idle), update
// states, and hand off the logical CPU via contextSwitch.
func runSchedule() {
	globalSched.schedulerInvocations++
	globalSched.inScheduler = true

	current := globalSched.current
	next := globalSched.ops.dequeue()
	if next == nil {
		next = globalSched.idle
	}

	if next == current {
		globalSched.inScheduler = false
		return
	}

	if current != nil && current.state == StateRunning {
		current.state = StateReady
	}
	next.state = StateRunning
	globalSched.current = next

	Logger.Debug().
		Int("from_tid", tidOrNegOne(current)).
		Int("to_tid", next.tid).
		Str("to_name", next.name).
		Msg("context switch")

	globalSched.inScheduler = false

	contextSwitch(current, next)
}

func tidOrNegOne(t *Thread) int {
	if t == nil {
		return -1
	}
	return t.tid
}

// Yield implements spec.md §4.4's yield(): a real (non-idle) running
// thread gives up the CPU cooperatively, going to the back of its run
// queue under the active policy.
func Yield() {
	current := globalSched.current
	if current == nil || current == globalSched.idle {
		return
	}

	if current.state == StateRunning {
		preemptionDisable()
		current.state = StateReady
		globalSched.ops.onYield(current)
		globalSched.ops.enqueue(current)
		preemptionEnable()
	}

	runSchedule()
	applyPendingPreemption()
}

// schedulerBlock implements block_on(q): mark current BLOCKED, link it
// into q, and schedule away. Callers (the sync primitives in mutex.go,
// cond.go, sem.go, rwlock.go) always call this from inside a
// preemptionDisable section; schedulerBlock releases it for the
// duration of the context switch and reacquires it before returning,
// exactly the "enable around schedule, disable again on wake" shape
// spec.md §4.7's mutex_lock uses — see preempt.go.
func schedulerBlock(q *waitQueue) {
	current := globalSched.current
	if current == nil {
		return
	}
	current.state = StateBlocked
	q.add(current)

	preemptionEnable()
	runSchedule()
	preemptionDisable()
}

// schedulerUnblock implements unblock(t): mark t READY and hand it to the
// active policy's run queue.
func schedulerUnblock(t *Thread) {
	if t == nil {
		return
	}
	t.state = StateReady
	globalSched.ops.enqueue(t)
}

// schedulerTick implements spec.md §4.4's tick(): called only when it is
// safe to inspect scheduler state (see preempt.go's guards). Computes
// elapsed time, notifies the policy, and — if preemption is enabled and
// the policy agrees — requests a deferred preemption rather than
// switching immediately (see SPEC_FULL.md §1 on why this repo's
// preemption is necessarily deferred, not instantaneous).
func schedulerTick() {
	globalSched.schedulerTicks++

	current := globalSched.current
	if current != nil && current != globalSched.idle {
		now := nowNS()
		elapsed := now - current.startTime
		globalSched.ops.onTick(current, elapsed)

		if globalSched.preemptionEnabled && globalSched.ops.shouldPreempt(current) {
			current.preemptRequested = true
		}
	}

	// Timed waiters must be scanned even while the idle thread is
	// "current" (nothing else ready) — otherwise a lone timed wait with no
	// other runnable thread would never observe its own deadline.
	scanTimedWaiters()
}

// scanTimedWaiters wakes any thread blocked with a timeout (cond.go's
// TimedWait, sem.go's TimedWait) whose deadline has passed. Always called
// with critMu held (schedulerTick only ever runs that way, see
// preempt.go), so touching registry and thread state here needs no
// further synchronization. A full scan of the thread table rather than a
// sorted deadline structure — simple, and fine at this library's scale.
func scanTimedWaiters() {
	now := nowNS()
	for _, t := range globalSched.reg.slots {
		if t == nil || t.wakeDeadlineNS == 0 {
			continue
		}
		if t.state == StateBlocked && now >= t.wakeDeadlineNS {
			t.wakeDeadlineNS = 0
			t.timedOut = true
			if q := t.blockedQueue; q != nil {
				q.removeSpecific(t)
			}
			schedulerUnblock(t)
		}
	}
}

// Deferred-preemption application (applyPendingPreemption) and the public
// CheckPreempt live in preempt.go, next to the critical-section discipline
// they depend on.
