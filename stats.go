package uthread

// Stats is a point-in-time snapshot of scheduler activity, grounded on
// original_source/src/uthread.c's uthread_get_stats.
type Stats struct {
	TotalThreads         int
	ActiveThreads        int
	ReadyThreads         int
	BlockedThreads       int
	ContextSwitches      uint64
	SchedulerInvocations uint64
	TotalRuntimeNS       uint64
}

// GetStats returns a snapshot of the scheduler's counters and a live
// census of thread states.
func GetStats() (Stats, error) {
	if !globalSched.initialized {
		return Stats{}, ErrNotInitialized
	}

	preemptionDisable()
	defer preemptionEnable()

	s := Stats{
		TotalThreads:         globalSched.reg.createdTotal,
		ActiveThreads:        globalSched.reg.count,
		ContextSwitches:      globalSched.contextSwitches,
		SchedulerInvocations: globalSched.schedulerInvocations,
		TotalRuntimeNS:       globalSched.totalRuntimeNS,
	}

	for _, t := range globalSched.reg.slots {
		if t == nil {
			continue
		}
		switch t.state {
		case StateReady:
			s.ReadyThreads++
		case StateBlocked:
			s.BlockedThreads++
		}
	}

	return s, nil
}

// ResetStats zeroes the cumulative counters (context switches, scheduler
// invocations, total runtime) without disturbing live threads.
func ResetStats() {
	preemptionDisable()
	globalSched.contextSwitches = 0
	globalSched.schedulerInvocations = 0
	globalSched.totalRuntimeNS = 0
	preemptionEnable()
}
