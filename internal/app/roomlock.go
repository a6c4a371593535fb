package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

// RoomLocker serializes read-modify-write cycles on one room. The returned
// release must be called exactly once.
type RoomLocker interface {
	Acquire(ctx context.Context, id domain.RoomID) (func(), error)
}

type roomLock struct {
	sem  *semaphore.Weighted
	refs int
}

// RoomLocks is the in-process RoomLocker. Entries exist only while someone
// holds or waits for them.
type RoomLocks struct {
	mu      sync.Mutex
	locks   map[domain.RoomID]*roomLock
	timeout time.Duration
}

// NewRoomLocks returns an arena of per-room locks. A zero timeout means
// acquisition is bounded only by the caller's context.
func NewRoomLocks(timeout time.Duration) *RoomLocks {
	return &RoomLocks{
		locks:   make(map[domain.RoomID]*roomLock),
		timeout: timeout,
	}
}

// Acquire blocks until the room is free. The returned release must be called
// exactly once.
func (l *RoomLocks) Acquire(ctx context.Context, id domain.RoomID) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[id]
	if !ok {
		lk = &roomLock{sem: semaphore.NewWeighted(1)}
		l.locks[id] = lk
	}
	lk.refs++
	l.mu.Unlock()

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	if err := lk.sem.Acquire(ctx, 1); err != nil {
		l.unref(id, lk)
		return nil, fmt.Errorf("app: lock room %s: %w", id, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			lk.sem.Release(1)
			l.unref(id, lk)
		})
	}, nil
}

func (l *RoomLocks) unref(id domain.RoomID, lk *roomLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, id)
	}
}

// Len reports how many rooms currently have a lock entry.
func (l *RoomLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

var _ RoomLocker = (*RoomLocks)(nil)
