package uthread

import "runtime"

// Execution model (spec.md Design Notes §9, option (c); resolved in
// SPEC_FULL.md §1). Go gives no portable ucontext/swapcontext equivalent
// without cgo or go:linkname into runtime internals, so each TCB is
// backed by its own goroutine ("fiber") and exactly one is ever runnable
// at a time. The handoff is an unbuffered channel per thread: contextSwitch
// sends on the destination's channel to wake it, then blocks on the
// source's own channel until some later switch wakes it back up. This is
// adapted from alphadose-ZenQ/thread_parker.go's park/ready protocol
// (one parked goroutine woken at a time, no thundering herd) with the
// goroutine-status inspection replaced by our own TCB state, since this
// package needs a whole custom scheduler rather than ZenQ's one queue.
//
// runtime.GOMAXPROCS(1), set by Init, turns "at most one of these
// goroutines executes user code at any instant" from a convention this
// package merely intends into a hard guarantee the Go runtime enforces —
// the literal realization of NON-GOALS' "exactly one OS-level execution
// context multiplexes all user threads."

// contextSwitch performs the handoff spec.md §4.1 describes:
// before switching, accumulate from's runtime, stamp to's start time,
// count the switch, then transfer control.
func contextSwitch(from, to *Thread) {
	now := nowNS()
	if from != nil && from.startTime > 0 {
		elapsed := now - from.startTime
		from.totalRuntime += elapsed
		globalSched.totalRuntimeNS += elapsed
	}
	to.startTime = now
	globalSched.contextSwitches++

	to.resume <- struct{}{}
	if from != nil {
		<-from.resume
	}
}

// entryWrapper is the trampoline every non-main, non-idle fiber goroutine
// runs. It mirrors context_init's entry_wrapper: wait to be first
// scheduled, run the user routine, then route into Exit — which never
// returns to here.
func entryWrapper(t *Thread) {
	<-t.resume

	retval := t.start(t.arg)

	// Exit hands the logical CPU to whatever runs next and then ends this
	// goroutine (see lifecycle.go) rather than blocking on t.resume like an
	// ordinary contextSwitch would — this goroutine is never scheduled
	// again, so the call below does not return.
	Exit(retval)
}

// spawnFiber starts the goroutine backing a newly created thread. The
// goroutine immediately blocks on t.resume until the scheduler first
// switches to it, matching context_init preparing a context that has not
// yet run.
func spawnFiber(t *Thread) {
	go entryWrapper(t)
}

// idleLoop is the body of the id-0 idle thread: spec.md §4.4 describes it
// as "loops calling yield", but yield() on the original C runtime no-ops
// for the idle thread (scheduler_yield and scheduler_tick both special-
// case it out). Looping a no-op would stall the whole runtime the first
// time idle ever ran, so idle here calls the scheduler directly every
// iteration instead; the rest of the runtime is unchanged by this.
func idleLoop(t *Thread) {
	<-t.resume
	for {
		runSchedule()
	}
}

func spawnIdle(t *Thread) {
	go idleLoop(t)
}

// enableSingleExecutionStream is called once from Init; see the package
// doc comment above for why this is load-bearing rather than cosmetic.
func enableSingleExecutionStream() {
	runtime.GOMAXPROCS(1)
}
