package app

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomLocksSerializeSameRoom(t *testing.T) {
	locks := NewRoomLocks(0)
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locks.Acquire(context.Background(), "r1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), maxInside)
	require.Equal(t, 0, locks.Len())
}

func TestRoomLocksIndependentRooms(t *testing.T) {
	locks := NewRoomLocks(0)
	r1, err := locks.Acquire(context.Background(), "r1")
	require.NoError(t, err)
	defer r1()

	r2, err := locks.Acquire(context.Background(), "r2")
	require.NoError(t, err)
	r2()
	require.Equal(t, 1, locks.Len())
}

func TestRoomLocksTimeout(t *testing.T) {
	locks := NewRoomLocks(20 * time.Millisecond)
	release, err := locks.Acquire(context.Background(), "r1")
	require.NoError(t, err)

	_, err = locks.Acquire(context.Background(), "r1")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release()
	require.Equal(t, 0, locks.Len())
}
