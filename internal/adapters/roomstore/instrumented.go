package roomstore

import (
	"context"
	"time"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/core"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/metrics"
)

// Instrumented bounds every call with a timeout and records its latency.
type Instrumented struct {
	next    core.RoomStore
	timeout time.Duration
}

func NewInstrumented(next core.RoomStore, timeout time.Duration) *Instrumented {
	return &Instrumented{next: next, timeout: timeout}
}

func (s *Instrumented) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Instrumented) FetchRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	start := time.Now()
	room, err := s.next.FetchRoom(ctx, id)
	metrics.StoreLatency.WithLabelValues("fetch", metrics.Outcome(err)).Observe(time.Since(start).Seconds())
	return room, err
}

func (s *Instrumented) PatchRoom(ctx context.Context, id domain.RoomID, patch domain.RoomPatch) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	start := time.Now()
	err := s.next.PatchRoom(ctx, id, patch)
	metrics.StoreLatency.WithLabelValues("patch", metrics.Outcome(err)).Observe(time.Since(start).Seconds())
	return err
}

// Unwrap returns the wrapped driver.
func (s *Instrumented) Unwrap() core.RoomStore {
	return s.next
}
