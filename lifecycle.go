package uthread

import (
	"runtime"
	"time"
)

// Default scheduling tunables, carried over from original_source/src/internal.h.
const (
	defaultTimesliceNS  = 10 * 1000 * 1000 // 10ms
	preemptTickInterval = 1 * time.Millisecond
)

var schedTimer *preemptTimer

// Init brings up the scheduler with the given policy: it installs the
// policy's run queue, creates the idle thread (tid 0) and wraps the
// calling goroutine itself as the joinable "main" thread (tid 1), then
// starts the background preemption timer. Mirrors spec.md §4.1's
// scheduler_init, adapted per SPEC_FULL.md §1: GOMAXPROCS(1) here is what
// makes "exactly one logical CPU" an enforced guarantee rather than a
// convention.
func Init(policy Policy) error {
	if globalSched.initialized {
		return ErrNotPermitted
	}

	ops := newPolicyOps(policy)
	if ops == nil {
		return ErrInvalidArgument
	}

	globalSched = schedulerState{
		policy:            policy,
		ops:               ops,
		timesliceNS:       defaultTimesliceNS,
		preemptionEnabled: true,
	}
	ops.init()

	enableSingleExecutionStream()

	idleStack, err := allocGuardedStack(StackSizeDefault)
	if err != nil {
		return err
	}
	idle := &Thread{
		tid:      0,
		name:     "idle",
		state:    StateReady,
		resume:   make(chan struct{}),
		stack:    idleStack,
		priority: PriorityMin,
		weight:   cfsNice0Weight,
	}
	globalSched.idle = idle
	globalSched.reg.add(idle)
	spawnIdle(idle)

	main := &Thread{
		tid:       1,
		name:      "main",
		state:     StateRunning,
		resume:    make(chan struct{}),
		priority:  PriorityDefault,
		weight:    cfsNice0Weight,
		startTime: nowNS(),
	}
	globalSched.reg.nextTid = 2
	globalSched.reg.add(main)
	globalSched.current = main

	schedTimer = newPreemptTimer(preemptTickInterval)
	schedTimer.start()

	globalSched.initialized = true
	Logger.Info().Str("policy", ops.name()).Msg("scheduler initialized")
	return nil
}

// Shutdown tears the scheduler down: stops the preemption timer and
// resets all global state. Any fiber goroutines still parked on their
// resume channel stay parked — Go offers no way to force a goroutine to
// unwind from outside, the same limitation SPEC_FULL.md §1 notes about
// reusing ucontext. Callers are expected to Join or Detach every thread
// before calling Shutdown, matching the original's teardown contract.
func Shutdown() {
	if !globalSched.initialized {
		return
	}
	if schedTimer != nil {
		schedTimer.shutdown()
		schedTimer = nil
	}
	globalSched.ops.shutdown()
	globalSched = schedulerState{}
	Logger.Info().Msg("scheduler shut down")
}

// IsInitialized reports whether Init has been called without a matching
// Shutdown.
func IsInitialized() bool { return globalSched.initialized }

// GetPolicy returns the active scheduling policy.
func GetPolicy() Policy { return globalSched.policy }

// CurrentPolicyName returns the active policy's diagnostic name.
func CurrentPolicyName() string {
	if globalSched.ops == nil {
		return ""
	}
	return globalSched.ops.name()
}

// Create spawns a new thread running start(arg), attributes drawn from
// attr (or the library defaults if attr is nil). Mirrors
// uthread_create: allocate a guarded stack, assign a tid, enqueue it
// under the active policy, and start its fiber goroutine — see
// context.go for why the goroutine parks immediately until first
// scheduled.
func Create(attr *Attr, start func(arg any) any, arg any) (*Thread, error) {
	if !globalSched.initialized {
		return nil, ErrNotInitialized
	}
	if start == nil {
		return nil, ErrInvalidArgument
	}
	if attr == nil {
		attr = NewAttr()
	}

	preemptionDisable()

	if globalSched.reg.count >= MaxThreads {
		preemptionEnable()
		return nil, ErrOutOfMemory
	}

	stack, err := allocGuardedStack(attr.stackSize)
	if err != nil {
		preemptionEnable()
		return nil, err
	}

	tid := globalSched.reg.nextTid
	globalSched.reg.nextTid++
	globalSched.reg.createdTotal++

	t := &Thread{
		tid:                tid,
		name:               attr.name,
		state:              StateReady,
		resume:             make(chan struct{}),
		stack:              stack,
		start:              start,
		arg:                arg,
		priority:           attr.priority,
		nice:               attr.nice,
		weight:             niceToWeight(attr.nice),
		timesliceRemaining: globalSched.timesliceNS,
		detached:           attr.detachState == CreateDetached,
	}

	globalSched.reg.add(t)
	globalSched.ops.enqueue(t)
	spawnFiber(t)

	Logger.Debug().Int("tid", t.tid).Str("name", t.name).Msg("thread created")

	preemptionEnable()
	return t, nil
}

// Exit terminates the calling thread with the given return value, running
// its cleanup handlers LIFO, waking a waiting joiner if any, and handing
// the logical CPU to whatever the active policy picks next. Unlike every
// other suspension point in this package, Exit does not block on its own
// resume channel afterward: its fiber goroutine is never scheduled again,
// so Exit ends that goroutine with runtime.Goexit and never returns to
// its caller.
func Exit(retval any) {
	preemptionDisable()

	current := globalSched.current
	if current == nil || current == globalSched.idle {
		invariant("Exit called with no running user thread")
	}

	current.retval = retval
	current.state = StateTerminated
	current.exited = true
	current.runCleanupHandlers()

	if current.joiner != nil {
		schedulerUnblock(current.joiner)
		current.joiner = nil
	}

	schedulerRemoveThread(current)

	// spec.md §3: "if detached, the TCB is freed immediately; otherwise it
	// remains reachable until a joiner retrieves the return value and
	// triggers free." A non-detached thread's stack is released by Join
	// once it has read retval (or by Detach, if Detach races in afterward).
	if current.detached {
		current.stack.release()
	}

	next := globalSched.ops.dequeue()
	if next == nil {
		next = globalSched.idle
	}
	next.state = StateRunning
	globalSched.current = next
	globalSched.contextSwitches++
	next.startTime = nowNS()

	Logger.Debug().Int("tid", current.tid).Msg("thread exited")

	preemptionEnable()

	next.resume <- struct{}{}
	runtime.Goexit()
}

// Join blocks the calling thread until t terminates, returning the value
// t passed to Exit. Only one joiner per thread is supported, matching
// pthread's join contract; joining a detached thread, a thread already
// being joined by someone else, or the calling thread itself is an error.
func (t *Thread) Join() (any, error) {
	if t == nil {
		return nil, ErrInvalidArgument
	}

	preemptionDisable()

	if t.detached {
		preemptionEnable()
		return nil, ErrInvalidArgument
	}
	if t == globalSched.current {
		preemptionEnable()
		return nil, ErrDeadlock
	}
	if t.joiner != nil && t.joiner != globalSched.current {
		preemptionEnable()
		return nil, ErrInvalidArgument
	}
	if t.exited {
		retval := t.retval
		t.stack.release()
		preemptionEnable()
		return retval, nil
	}

	current := globalSched.current
	t.joiner = current
	current.state = StateBlocked
	current.waitingOn = t

	preemptionEnable()
	runSchedule()
	applyPendingPreemption()

	preemptionDisable()
	retval := t.retval
	current.waitingOn = nil
	t.stack.release()
	preemptionEnable()

	return retval, nil
}

// Detach marks a joinable thread as detached: its resources are released
// on exit without anyone needing to Join it. Errors if t is already
// detached or already has a joiner waiting.
func (t *Thread) Detach() error {
	if t == nil {
		return ErrInvalidArgument
	}
	preemptionDisable()
	defer preemptionEnable()

	if t.detached {
		return ErrInvalidArgument
	}
	if t.joiner != nil {
		return ErrInvalidArgument
	}
	t.detached = true
	if t.exited {
		t.stack.release()
	}
	return nil
}

// Self returns the handle for the currently running thread.
func Self() *Thread {
	return globalSched.current
}

// Equal reports whether a and b refer to the same thread.
func Equal(a, b *Thread) bool {
	return a == b
}

// Sleep suspends the calling thread for at least d, grounded on the
// poll-and-yield idiom alphadose-ZenQ/selector.go uses to wait for a
// condition without a dedicated timer-wheel data structure: repeatedly
// yield the logical CPU and nap in real time until the deadline passes,
// letting every other ready thread run in between.
func Sleep(d time.Duration) {
	if d <= 0 {
		Yield()
		return
	}
	deadline := nowNS() + uint64(d)
	for nowNS() < deadline {
		Yield()
		time.Sleep(time.Millisecond)
	}
}

// SetTimeslice sets the default timeslice, in nanoseconds, newly
// enqueued Round-Robin and Priority threads receive. Does not affect
// CFS, whose slices are derived from relative weight.
func SetTimeslice(ns uint64) {
	preemptionDisable()
	globalSched.timesliceNS = ns
	preemptionEnable()
}

// GetTimeslice returns the current default timeslice in nanoseconds.
func GetTimeslice() uint64 {
	return globalSched.timesliceNS
}

// SetPreemption enables or disables the background timer-driven
// preemption checks globally, returning the prior setting; cooperative
// Yield calls always work regardless of this setting.
func SetPreemption(enabled bool) bool {
	preemptionDisable()
	prior := globalSched.preemptionEnabled
	globalSched.preemptionEnabled = enabled
	preemptionEnable()
	return prior
}

// SetPriority changes t's scheduling priority (0..31), re-bucketing it
// under the Priority policy if it is currently queued.
func SetPriority(t *Thread, priority int) error {
	if t == nil || priority < PriorityMin || priority > PriorityMax {
		return ErrInvalidArgument
	}
	preemptionDisable()
	t.priority = priority
	globalSched.ops.updatePriority(t)
	preemptionEnable()
	return nil
}

// GetPriority returns t's scheduling priority.
func GetPriority(t *Thread) int {
	if t == nil {
		return 0
	}
	return t.priority
}

// SetNice changes t's nice value (-20..19), which determines its CFS
// weight via the fixed nice-to-weight table.
func SetNice(t *Thread, nice int) error {
	if t == nil || nice < NiceMin || nice > NiceMax {
		return ErrInvalidArgument
	}
	preemptionDisable()
	t.nice = nice
	t.weight = niceToWeight(nice)
	globalSched.ops.updatePriority(t)
	preemptionEnable()
	return nil
}

// GetNice returns t's nice value.
func GetNice(t *Thread) int {
	if t == nil {
		return 0
	}
	return t.nice
}
