package uthread

// MaxThreads bounds the live thread registry, mirroring
// UTHREAD_MAX_THREADS from the original runtime.
const MaxThreads = 1024

// State is a thread's position in its lifecycle, per spec.md §3.
type State int32

const (
	StateReady State = iota
	StateRunning
	StateBlocked
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateBlocked:
		return "blocked"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

type rbColor int8

const (
	rbRed rbColor = iota
	rbBlack
)

type cleanupHandler struct {
	fn  func(arg any)
	arg any
}

// Thread is an opaque handle onto a thread control block; every field is
// unexported, matching the spec's "handles are opaque references to TCBs."
// One Go goroutine backs each live Thread, see context.go.
type Thread struct {
	tid  int
	name string

	state State

	// resume is the unbuffered baton channel used to hand the logical
	// CPU to this thread's fiber goroutine and to park it again; see
	// context.go for the full protocol.
	resume chan struct{}

	stack *guardedStack

	start  func(arg any) any
	arg    any
	retval any

	priority int
	nice     int
	weight   int

	vruntime           uint64
	startTime          uint64
	totalRuntime       uint64
	timesliceRemaining uint64

	waitingOn    *Thread
	blockedQueue *waitQueue

	// wakeDeadlineNS is nonzero while this thread is blocked with a
	// timeout (condvar/semaphore timed waits); scanTimedWaiters in
	// scheduler.go wakes it once nowNS() passes the deadline and sets
	// timedOut so the waiter can tell why it woke.
	wakeDeadlineNS uint64
	timedOut       bool

	// run-queue / wait-queue linkage — a TCB belongs to at most one list
	// at a time, enforced by every enqueue/remove pairing in this package.
	next, prev *Thread

	// red-black tree linkage, used only by the CFS policy.
	rbLeft, rbRight, rbParent *Thread
	rbColor                   rbColor

	cleanup []cleanupHandler

	detached         bool
	cancelPending    bool
	inCriticalSect   bool
	exited           bool
	preemptRequested bool

	joiner *Thread
}

// Tid returns the thread's process-wide identifier (0 is reserved for the
// idle thread and 1 for the main thread wrapped by Init; threads from
// Create are numbered from 2).
func (t *Thread) Tid() int { return t.tid }

// Name returns the thread's diagnostic name.
func (t *Thread) Name() string { return t.name }

// SetName sets the thread's diagnostic name, truncated to NameMax-1 bytes.
// Mirrors uthread_setname; distinct from Attr.SetName, which only seeds the
// name a thread is created with.
func (t *Thread) SetName(name string) {
	if len(name) >= NameMax {
		name = name[:NameMax-1]
	}
	t.name = name
}

// State returns the thread's current lifecycle state.
func (t *Thread) State() State { return t.state }

// registry is the fixed-size table of live TCBs, mirroring
// scheduler_state.all_threads. Guarded by the same critical-section
// discipline as every other piece of scheduler state (see preempt.go).
type registry struct {
	slots        [MaxThreads]*Thread
	count        int
	nextTid      int
	createdTotal int
}

func (r *registry) add(t *Thread) {
	for i := range r.slots {
		if r.slots[i] == nil {
			r.slots[i] = t
			r.count++
			return
		}
	}
	invariant("thread registry exhausted at %d live threads", MaxThreads)
}

func (r *registry) remove(t *Thread) {
	for i := range r.slots {
		if r.slots[i] == t {
			r.slots[i] = nil
			r.count--
			return
		}
	}
}

// PushCleanup registers a handler to run, LIFO, when t exits. Grounded on
// original_source/src/uthread.c's cleanup-handler stack
// (uthread_cleanup_push/pop), supplemented into this package per
// SPEC_FULL.md §4 since the exit algorithm already depends on it.
func (t *Thread) PushCleanup(fn func(arg any), arg any) {
	t.cleanup = append(t.cleanup, cleanupHandler{fn: fn, arg: arg})
}

// PopCleanup removes and, if execute is true, runs the most recently
// pushed cleanup handler. Returns false if there was none.
func (t *Thread) PopCleanup(execute bool) bool {
	n := len(t.cleanup)
	if n == 0 {
		return false
	}
	h := t.cleanup[n-1]
	t.cleanup = t.cleanup[:n-1]
	if execute {
		h.fn(h.arg)
	}
	return true
}

func (t *Thread) runCleanupHandlers() {
	for len(t.cleanup) > 0 {
		t.PopCleanup(true)
	}
}
