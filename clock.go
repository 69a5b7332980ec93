package uthread

import "time"

// monotonicOrigin anchors nowNS so readings stay small and comparisons stay
// exact; time.Since / time.Now already guarantee monotonic readings on
// every platform Go supports, so no raw clock_gettime call is needed.
var monotonicOrigin = time.Now()

// nowNS returns the current monotonic time in nanoseconds since the
// package was loaded, mirroring get_time_ns()'s CLOCK_MONOTONIC semantics:
// always increasing, never compared across process restarts.
func nowNS() uint64 {
	return uint64(time.Since(monotonicOrigin))
}

// deadlineFromDuration converts a relative wait into an absolute monotonic
// deadline in nanoseconds, the unit every timed primitive in this package
// compares against.
func deadlineFromDuration(d time.Duration) uint64 {
	return nowNS() + uint64(d)
}
