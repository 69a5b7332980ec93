package uthread

// Policy selects which run-queue discipline the scheduler uses.
type Policy int

const (
	PolicyRoundRobin Policy = iota
	PolicyPriority
	PolicyCFS
)

func (p Policy) String() string {
	switch p {
	case PolicyRoundRobin:
		return "Round-Robin"
	case PolicyPriority:
		return "Priority"
	case PolicyCFS:
		return "CFS"
	default:
		return "unknown"
	}
}

// Fair-share tuning constants, carried over verbatim from
// original_source/src/internal.h.
const (
	cfsTargetLatencyNS  = 20 * 1000 * 1000
	cfsMinGranularityNS = 1 * 1000 * 1000
	cfsNice0Weight      = 1024
)

const (
	// PriorityLevels is the number of distinct priority buckets (0..31).
	PriorityLevels = 32
)

// niceToWeight is the exact 40-entry nice(-20..19)->weight table from
// original_source/src/context.c, reproduced verbatim rather than
// re-derived so ordering and ratios match precisely (SPEC_FULL.md §4).
var niceToWeightTable = [40]int{
	/* -20 */ 88761, 71755, 56483, 46273, 36291,
	/* -15 */ 29154, 23254, 18705, 14949, 11916,
	/* -10 */ 9548, 7620, 6100, 4904, 3906,
	/* -5 */ 3121, 2501, 1991, 1586, 1277,
	/*  0 */ 1024, 820, 655, 526, 423,
	/*  5 */ 335, 272, 215, 172, 137,
	/* 10 */ 110, 87, 70, 56, 45,
	/* 15 */ 36, 29, 23, 18, 15,
}

func niceToWeight(nice int) int {
	if nice < NiceMin {
		nice = NiceMin
	}
	if nice > NiceMax {
		nice = NiceMax
	}
	return niceToWeightTable[nice+20]
}

// policyOps is the pluggable scheduling interface every run-queue policy
// implements, matching spec.md §4.3's scheduler_ops vtable. Go's interface
// dispatch gives the same single indirect call per scheduling decision
// spec.md Design Notes §9 asks for, without a hand-rolled function-pointer
// struct.
type policyOps interface {
	init()
	shutdown()
	enqueue(t *Thread)
	dequeue() *Thread
	remove(t *Thread)
	onYield(t *Thread)
	onTick(t *Thread, elapsedNS uint64)
	shouldPreempt(current *Thread) bool
	updatePriority(t *Thread)
	name() string
}

func newPolicyOps(p Policy) policyOps {
	switch p {
	case PolicyRoundRobin:
		return newRoundRobinPolicy()
	case PolicyPriority:
		return newPriorityPolicy()
	case PolicyCFS:
		return newCFSPolicy()
	default:
		return nil
	}
}
