package uthread_test

import (
	"testing"
	"time"

	"github.com/alphadose-labs/uthread"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitShutdownLifecycle(t *testing.T) {
	require.False(t, uthread.IsInitialized())
	require.NoError(t, uthread.Init(uthread.PolicyRoundRobin))
	defer uthread.Shutdown()

	assert.True(t, uthread.IsInitialized())
	assert.Equal(t, uthread.PolicyRoundRobin, uthread.GetPolicy())
	assert.Equal(t, "Round-Robin", uthread.CurrentPolicyName())

	require.ErrorIs(t, uthread.Init(uthread.PolicyRoundRobin), uthread.ErrNotPermitted)
}

func TestCreateBeforeInitFails(t *testing.T) {
	require.False(t, uthread.IsInitialized())
	_, err := uthread.Create(nil, func(any) any { return nil }, nil)
	require.ErrorIs(t, err, uthread.ErrNotInitialized)
}

// TestJoinReturnsExitValue is spec.md §8's join-correctness property: the
// value Join returns equals what the thread's start routine returned.
func TestJoinReturnsExitValue(t *testing.T) {
	require.NoError(t, uthread.Init(uthread.PolicyRoundRobin))
	defer uthread.Shutdown()

	th, err := uthread.Create(nil, func(arg any) any {
		return arg.(int) * 2
	}, 21)
	require.NoError(t, err)

	retval, err := th.Join()
	require.NoError(t, err)
	assert.Equal(t, 42, retval)
}

func TestJoinSelfIsDeadlock(t *testing.T) {
	require.NoError(t, uthread.Init(uthread.PolicyRoundRobin))
	defer uthread.Shutdown()

	_, err := uthread.Self().Join()
	assert.ErrorIs(t, err, uthread.ErrDeadlock)
}

func TestJoinDetachedThreadFails(t *testing.T) {
	require.NoError(t, uthread.Init(uthread.PolicyRoundRobin))
	defer uthread.Shutdown()

	th, err := uthread.Create(nil, func(any) any {
		return nil
	}, nil)
	require.NoError(t, err)
	require.NoError(t, th.Detach())

	_, err = th.Join()
	assert.ErrorIs(t, err, uthread.ErrInvalidArgument)

	// let the detached thread actually run to completion so Shutdown
	// doesn't tear down a scheduler with it still parked mid-run.
	for i := 0; i < 100; i++ {
		uthread.Yield()
	}
}

func TestDetachAlreadyDetachedFails(t *testing.T) {
	require.NoError(t, uthread.Init(uthread.PolicyRoundRobin))
	defer uthread.Shutdown()

	th, err := uthread.Create(nil, func(any) any { return nil }, nil)
	require.NoError(t, err)
	require.NoError(t, th.Detach())
	assert.ErrorIs(t, th.Detach(), uthread.ErrInvalidArgument)

	for i := 0; i < 100; i++ {
		uthread.Yield()
	}
}

func TestDetachAfterJoinerRegisteredFails(t *testing.T) {
	require.NoError(t, uthread.Init(uthread.PolicyRoundRobin))
	defer uthread.Shutdown()

	gate, _ := uthread.NewSemaphore(0)
	th, err := uthread.Create(nil, func(any) any {
		require.NoError(t, gate.Wait())
		return nil
	}, nil)
	require.NoError(t, err)

	joinDone := make(chan struct{})
	joiner, err := uthread.Create(nil, func(any) any {
		_, jerr := th.Join()
		assert.NoError(t, jerr)
		close(joinDone)
		return nil
	}, nil)
	require.NoError(t, err)
	_ = joiner

	for i := 0; i < 5; i++ {
		uthread.Yield()
	}

	assert.ErrorIs(t, th.Detach(), uthread.ErrInvalidArgument)

	require.NoError(t, gate.Post())
	for i := 0; i < 100; i++ {
		uthread.Yield()
	}
}

func TestSetGetPriorityAndNice(t *testing.T) {
	require.NoError(t, uthread.Init(uthread.PolicyPriority))
	defer uthread.Shutdown()

	th, err := uthread.Create(nil, func(any) any { return nil }, nil)
	require.NoError(t, err)

	require.NoError(t, uthread.SetPriority(th, 5))
	assert.Equal(t, 5, uthread.GetPriority(th))
	assert.ErrorIs(t, uthread.SetPriority(th, -1), uthread.ErrInvalidArgument)
	assert.ErrorIs(t, uthread.SetPriority(th, 32), uthread.ErrInvalidArgument)

	require.NoError(t, uthread.SetNice(th, 10))
	assert.Equal(t, 10, uthread.GetNice(th))
	assert.ErrorIs(t, uthread.SetNice(th, -21), uthread.ErrInvalidArgument)
	assert.ErrorIs(t, uthread.SetNice(th, 20), uthread.ErrInvalidArgument)

	_, _ = th.Join()
}

func TestTimesliceGetSet(t *testing.T) {
	require.NoError(t, uthread.Init(uthread.PolicyRoundRobin))
	defer uthread.Shutdown()

	orig := uthread.GetTimeslice()
	uthread.SetTimeslice(5 * 1000 * 1000)
	assert.EqualValues(t, 5*1000*1000, uthread.GetTimeslice())
	uthread.SetTimeslice(orig)
}

func TestSetPreemptionReturnsPriorState(t *testing.T) {
	require.NoError(t, uthread.Init(uthread.PolicyRoundRobin))
	defer uthread.Shutdown()

	prior := uthread.SetPreemption(false)
	assert.True(t, prior)
	prior = uthread.SetPreemption(true)
	assert.False(t, prior)
}

func TestSelfAndEqual(t *testing.T) {
	require.NoError(t, uthread.Init(uthread.PolicyRoundRobin))
	defer uthread.Shutdown()

	main := uthread.Self()
	require.NotNil(t, main)
	assert.True(t, uthread.Equal(main, uthread.Self()))

	var other *uthread.Thread
	th, err := uthread.Create(nil, func(any) any {
		other = uthread.Self()
		return nil
	}, nil)
	require.NoError(t, err)
	_, err = th.Join()
	require.NoError(t, err)

	assert.True(t, uthread.Equal(other, th))
	assert.False(t, uthread.Equal(other, main))
}

func TestThreadNameAndTid(t *testing.T) {
	require.NoError(t, uthread.Init(uthread.PolicyRoundRobin))
	defer uthread.Shutdown()

	attr := uthread.NewAttr()
	require.NoError(t, attr.SetName("worker"))
	th, err := uthread.Create(attr, func(any) any { return nil }, nil)
	require.NoError(t, err)
	assert.Equal(t, "worker", th.Name())
	assert.Greater(t, th.Tid(), 0)

	th.SetName("renamed")
	assert.Equal(t, "renamed", th.Name())

	_, _ = th.Join()
}

func TestSleepDurationElapses(t *testing.T) {
	require.NoError(t, uthread.Init(uthread.PolicyRoundRobin))
	defer uthread.Shutdown()

	start := time.Now()
	uthread.Sleep(20 * time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestStatsFetchAndReset(t *testing.T) {
	require.NoError(t, uthread.Init(uthread.PolicyRoundRobin))
	defer uthread.Shutdown()

	th, err := uthread.Create(nil, func(any) any { return nil }, nil)
	require.NoError(t, err)
	_, err = th.Join()
	require.NoError(t, err)

	stats, err := uthread.GetStats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.TotalThreads, 1)
	assert.Greater(t, stats.ContextSwitches, uint64(0))

	uthread.ResetStats()
	stats2, err := uthread.GetStats()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stats2.ContextSwitches)
}

func TestCleanupHandlersRunLIFO(t *testing.T) {
	require.NoError(t, uthread.Init(uthread.PolicyRoundRobin))
	defer uthread.Shutdown()

	var order []int
	th, err := uthread.Create(nil, func(any) any {
		self := uthread.Self()
		self.PushCleanup(func(arg any) { order = append(order, 1) }, nil)
		self.PushCleanup(func(arg any) { order = append(order, 2) }, nil)
		self.PushCleanup(func(arg any) { order = append(order, 3) }, nil)
		return nil
	}, nil)
	require.NoError(t, err)
	_, err = th.Join()
	require.NoError(t, err)

	assert.Equal(t, []int{3, 2, 1}, order)
}
