package uthread_test

import (
	"testing"
	"time"

	"github.com/alphadose-labs/uthread"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestProducerConsumer is spec.md §8 scenario 2: 3 producers x 50 items, 2
// consumers, a 10-slot bounded buffer guarded by one mutex and two condition
// variables. Expects items_produced == items_consumed == 150 and an empty
// buffer at the end.
func TestProducerConsumer(t *testing.T) {
	require.NoError(t, uthread.Init(uthread.PolicyRoundRobin))
	defer uthread.Shutdown()

	const (
		capacity       = 10
		producers      = 3
		consumers      = 2
		itemsPerWorker = 50
		totalItems     = producers * itemsPerWorker
	)

	m := uthread.NewMutex(uthread.MutexNormal)
	notFull := uthread.NewCond()
	notEmpty := uthread.NewCond()

	buffer := make([]int, 0, capacity)
	produced := 0
	consumed := 0

	var producerThreads, consumerThreads []*uthread.Thread

	for p := 0; p < producers; p++ {
		th, err := uthread.Create(nil, func(any) any {
			for i := 0; i < itemsPerWorker; i++ {
				require.NoError(t, m.Lock())
				for len(buffer) == capacity {
					require.NoError(t, notFull.Wait(m))
				}
				buffer = append(buffer, 1)
				produced++
				notEmpty.Signal()
				require.NoError(t, m.Unlock())
			}
			return nil
		}, nil)
		require.NoError(t, err)
		producerThreads = append(producerThreads, th)
	}

	for c := 0; c < consumers; c++ {
		th, err := uthread.Create(nil, func(any) any {
			count := 0
			for {
				require.NoError(t, m.Lock())
				for len(buffer) == 0 && produced < totalItems {
					require.NoError(t, notEmpty.Wait(m))
				}
				if len(buffer) == 0 {
					// no more items will ever arrive.
					require.NoError(t, m.Unlock())
					break
				}
				buffer = buffer[:len(buffer)-1]
				consumed++
				count++
				notFull.Signal()
				require.NoError(t, m.Unlock())
				if consumed >= totalItems {
					break
				}
			}
			return count
		}, nil)
		require.NoError(t, err)
		consumerThreads = append(consumerThreads, th)
	}

	for _, th := range producerThreads {
		_, err := th.Join()
		require.NoError(t, err)
	}

	// Producers are all done; consumers blocked waiting for notEmpty need
	// one last wake-up per sleeping consumer to notice produced==totalItems
	// and drain whatever remains.
	for i := 0; i < consumers*2; i++ {
		require.NoError(t, m.Lock())
		notEmpty.Broadcast()
		require.NoError(t, m.Unlock())
		uthread.Yield()
	}

	total := 0
	for _, th := range consumerThreads {
		retval, err := th.Join()
		require.NoError(t, err)
		total += retval.(int)
	}

	assert.Equal(t, totalItems, produced)
	assert.Equal(t, totalItems, consumed)
	assert.Equal(t, totalItems, total)
	assert.Empty(t, buffer)
}

func TestCondSignalWakesOneWaiter(t *testing.T) {
	require.NoError(t, uthread.Init(uthread.PolicyRoundRobin))
	defer uthread.Shutdown()

	m := uthread.NewMutex(uthread.MutexNormal)
	c := uthread.NewCond()
	ready := false

	woke := make([]bool, 2)
	threads := make([]*uthread.Thread, 2)
	for i := 0; i < 2; i++ {
		id := i
		th, err := uthread.Create(nil, func(any) any {
			require.NoError(t, m.Lock())
			for !ready {
				require.NoError(t, c.Wait(m))
			}
			woke[id] = true
			require.NoError(t, m.Unlock())
			return nil
		}, nil)
		require.NoError(t, err)
		threads[i] = th
		uthread.Yield()
	}

	require.NoError(t, m.Lock())
	ready = true
	c.Signal()
	require.NoError(t, m.Unlock())

	// Give the signaled waiter a chance to run and re-acquire the mutex.
	for i := 0; i < 10; i++ {
		uthread.Yield()
	}

	woken := 0
	for _, w := range woke {
		if w {
			woken++
		}
	}
	assert.Equal(t, 1, woken)

	// Wake the remaining waiter so the test can join both threads cleanly.
	require.NoError(t, m.Lock())
	c.Broadcast()
	require.NoError(t, m.Unlock())

	for _, th := range threads {
		_, err := th.Join()
		require.NoError(t, err)
	}
	assert.True(t, woke[0] && woke[1])
}

func TestCondTimedWaitExpires(t *testing.T) {
	require.NoError(t, uthread.Init(uthread.PolicyRoundRobin))
	defer uthread.Shutdown()

	m := uthread.NewMutex(uthread.MutexNormal)
	c := uthread.NewCond()

	require.NoError(t, m.Lock())
	timedOut, err := c.TimedWait(m, 20*time.Millisecond)
	assert.True(t, timedOut)
	assert.ErrorIs(t, err, uthread.ErrTimedOut)
	require.NoError(t, m.Unlock())
}

func TestCondDestroyBusyWithWaiters(t *testing.T) {
	require.NoError(t, uthread.Init(uthread.PolicyRoundRobin))
	defer uthread.Shutdown()

	m := uthread.NewMutex(uthread.MutexNormal)
	c := uthread.NewCond()

	th, err := uthread.Create(nil, func(any) any {
		require.NoError(t, m.Lock())
		require.NoError(t, c.Wait(m))
		require.NoError(t, m.Unlock())
		return nil
	}, nil)
	require.NoError(t, err)
	uthread.Yield()

	assert.ErrorIs(t, c.Destroy(), uthread.ErrBusy)

	require.NoError(t, m.Lock())
	c.Broadcast()
	require.NoError(t, m.Unlock())
	_, err = th.Join()
	require.NoError(t, err)

	assert.NoError(t, c.Destroy())
}
